package main

import (
	"bufio"
	"fmt"
	"os"

	"moria.us/yaml2obj/coff"
)

// A target is an object file format selected with -t.
type target string

const (
	targetCOFF  target = "coff"
	targetELF   target = "elf"
	targetMachO target = "macho"
)

func parseTarget(s string) (target, error) {
	switch t := target(s); t {
	case targetCOFF, targetELF, targetMachO:
		return t, nil
	default:
		return "", fmt.Errorf("unknown target %q (expected coff, elf or macho)", s)
	}
}

// readDescription reads a description from the named file, or from standard
// input if the name is "-".
func readDescription(name string) (*coff.Description, error) {
	if name == "-" {
		return coff.Read(bufio.NewReader(os.Stdin))
	}
	return coff.Open(name)
}

// build reads a description and lays out the object file.
func build(t target, input string) (*coff.File, error) {
	if t != targetCOFF {
		return nil, fmt.Errorf("target %s is not supported", t)
	}
	d, err := readDescription(input)
	if err != nil {
		return nil, err
	}
	return coff.Layout(d)
}
