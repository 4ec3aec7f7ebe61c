package main

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/bradleyjkemp/memviz"

	"moria.us/yaml2obj/coff"
)

// A format is the encoding of the output.
type format int

const (
	formatBinary format = iota // raw object file
	formatHex                  // annotated hex listing
	formatText                 // field dump
)

func (fm format) ext() string {
	switch fm {
	case formatHex:
		return ".hex"
	case formatText:
		return ".txt"
	default:
		return ".obj"
	}
}

// encode serializes the object file in the given format.
func encode(f *coff.File, fm format) []byte {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	switch fm {
	case formatHex:
		f.DumpHex(w)
	case formatText:
		f.DumpText(w, "")
	default:
		f.WriteTo(w)
	}
	w.Flush()
	return buf.Bytes()
}

// writeOutput writes the data to the named file, or to standard output if the
// name is "-". Binary data is not written to a terminal unless forced.
func writeOutput(name string, data []byte, binary, force bool) error {
	if name == "-" {
		if binary && !force && isTerminal(os.Stdout) {
			return errors.New("refusing to write binary data to a terminal, use -hex or -force")
		}
		_, err := os.Stdout.Write(data)
		return err
	}
	fp, err := os.Create(name)
	if err != nil {
		return err
	}
	defer fp.Close()
	if _, err := fp.Write(data); err != nil {
		return err
	}
	return fp.Close() // Double-close is OK
}

// outputName returns the output file for an input in batch mode. The output
// goes in dir, or next to the input if dir is empty.
func outputName(input, dir string, fm format) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + fm.ext()
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base)
}

// writeGraph writes a Graphviz rendering of the laid-out object file.
func writeGraph(name string, f *coff.File) error {
	fp, err := os.Create(name)
	if err != nil {
		return err
	}
	defer fp.Close()
	w := bufio.NewWriter(fp)
	memviz.Map(w, f)
	if err := w.Flush(); err != nil {
		return err
	}
	return fp.Close()
}
