package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/xyproto/env/v2"

	"moria.us/yaml2obj/coff"
)

var errNoMatch = errors.New("no files match")

const usage = `Usage: yaml2obj [flags] INPUT...

Build an object file from a YAML description. INPUT is a file, "-" for
standard input, or a glob pattern such as "tests/**/*.yaml". With more than
one input, each output is written next to its input, or into the -o
directory.

Flags:
`

// expandInputs expands glob patterns in the arguments. It reports whether
// the arguments name more than one input, or any pattern.
func expandInputs(args []string) (inputs []string, batch bool, err error) {
	batch = len(args) > 1
	for _, arg := range args {
		if arg == "-" || !strings.ContainsAny(arg, "*?[{") {
			inputs = append(inputs, arg)
			continue
		}
		batch = true
		matches, err := doublestar.FilepathGlob(arg)
		if err != nil {
			return nil, false, wrapErrorf(err, "pattern %q", arg)
		}
		if len(matches) == 0 {
			return nil, false, wrapErrorf(errNoMatch, "pattern %q", arg)
		}
		inputs = append(inputs, matches...)
	}
	return inputs, batch, nil
}

// logLayout writes the computed layout of the object file to the log.
func logLayout(l *log.Logger, input string, f *coff.File) {
	l.Printf("%s: %d sections, %d symbols, symbol table at 0x%x",
		input, f.NumberOfSections, f.NumberOfSymbols, f.PointerToSymbolTable)
	for _, s := range f.Sections {
		name, err := s.DecodeName(f.StringTable)
		if err != nil {
			name = err.Error()
		}
		l.Printf("%s: section %d %q: %d bytes at 0x%x", input, s.Index, name,
			s.SizeOfRawData, s.PointerToRawData)
	}
	l.Printf("%s: string table %d bytes", input, f.StringTable.Len())
}

func mainE() error {
	var (
		output     string
		targetName string
		graph      string
		hex        bool
		dump       bool
		force      bool
		verbose    bool
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.StringVar(&output, "o", "-", "write output to `FILE`, or to a directory in batch mode")
	flag.StringVar(&targetName, "t", env.Str("YAML2OBJ_TARGET", "coff"), "object file `format`: coff, elf or macho")
	flag.StringVar(&graph, "dot", "", "write a Graphviz rendering of the laid-out object to `FILE`")
	flag.BoolVar(&hex, "hex", env.Bool("YAML2OBJ_HEX"), "write an annotated hex listing instead of binary")
	flag.BoolVar(&dump, "dump", false, "write a text dump of the laid-out object instead of binary")
	flag.BoolVar(&force, "force", false, "write binary output even if it is a terminal")
	flag.BoolVar(&verbose, "v", env.Bool("YAML2OBJ_VERBOSE"), "print the computed layout to stderr")
	flag.Parse()

	t, err := parseTarget(targetName)
	if err != nil {
		return err
	}
	fm := formatBinary
	switch {
	case hex && dump:
		return errors.New("flags -hex and -dump cannot be used together")
	case hex:
		fm = formatHex
	case dump:
		fm = formatText
	}
	if flag.NArg() == 0 {
		return errors.New("no input files")
	}
	inputs, batch, err := expandInputs(flag.Args())
	if err != nil {
		return err
	}
	var outDir string
	if batch {
		if graph != "" {
			return errors.New("flag -dot needs a single input")
		}
		if output != "-" {
			st, err := os.Stat(output)
			if err != nil {
				return err
			}
			if !st.IsDir() {
				return fmt.Errorf("%s: not a directory, needed for %d inputs", output, len(inputs))
			}
			outDir = output
		}
	}

	l := log.New(io.Discard, "", 0)
	if verbose {
		l = log.New(os.Stderr, "yaml2obj: ", 0)
	}
	for _, input := range inputs {
		f, err := build(t, input)
		if err != nil {
			return wrapError(err, input)
		}
		logLayout(l, input, f)
		name := output
		if batch {
			name = outputName(input, outDir, fm)
		}
		if err := writeOutput(name, encode(f, fm), fm == formatBinary, force); err != nil {
			return wrapError(err, name)
		}
		if graph != "" {
			if err := writeGraph(graph, f); err != nil {
				return wrapError(err, graph)
			}
		}
	}
	return nil
}

func main() {
	if err := mainE(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
