package coff

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record tags in a description.
const (
	tagHeader      = "!Header"
	tagSection     = "!Section"
	tagSymbol      = "!Symbol"
	tagRelocation  = "!Relocation"
	tagStringTable = "!StringTable"
)

// Open opens the named file with os.Open and reads a description from it.
func Open(name string) (*Description, error) {
	fp, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return Read(bufio.NewReader(fp))
}

// Read reads a YAML description of an object file. The document is a
// sequence of tagged records:
//
//	- !Header {Machine: IMAGE_FILE_MACHINE_I386}
//	- !Section {Name: .text, SectionData: "90909090"}
//	- !Symbol {Name: _main, SectionNumber: 1, StorageClass: IMAGE_SYM_CLASS_EXTERNAL}
//
// A !Relocation record belongs to the section before it.
func Read(r io.Reader) (*Description, error) {
	d := new(Description)
	dec := yaml.NewDecoder(r)
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return d, nil
		}
		return nil, fmt.Errorf("%v: %w", err, ErrMalformedInput)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); err != io.EOF {
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrMalformedInput)
		}
		return nil, malformed(extra.Line, "expected a single document")
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	if root.Kind != yaml.SequenceNode {
		return nil, malformed(root.Line, "expected a sequence of records")
	}
	var haveHeader bool
	for _, n := range root.Content {
		switch n.Tag {
		case tagHeader:
			if haveHeader {
				return nil, malformed(n.Line, "duplicate %s", tagHeader)
			}
			haveHeader = true
			if err := decodeRecord(n, &d.Header); err != nil {
				return nil, err
			}
		case tagSection:
			s := new(SectionDesc)
			if err := decodeRecord(n, s); err != nil {
				return nil, err
			}
			d.Sections = append(d.Sections, s)
		case tagSymbol:
			s := new(SymbolDesc)
			if err := decodeRecord(n, s); err != nil {
				return nil, err
			}
			d.Symbols = append(d.Symbols, s)
		case tagRelocation:
			if len(d.Sections) == 0 {
				return nil, malformed(n.Line, "%s before any section", tagRelocation)
			}
			var rel RelocationDesc
			if err := decodeRecord(n, &rel); err != nil {
				return nil, err
			}
			s := d.Sections[len(d.Sections)-1]
			s.Relocations = append(s.Relocations, rel)
		case tagStringTable:
			names, err := decodeStrings(n)
			if err != nil {
				return nil, err
			}
			d.Strings = append(d.Strings, names...)
		default:
			return nil, malformed(n.Line, "unknown record tag %q", n.Tag)
		}
	}
	return d, nil
}

// decodeRecord decodes a tagged mapping into v, a pointer to a struct.
// Keys which do not name a field are rejected.
func decodeRecord(n *yaml.Node, v interface{}) error {
	if n.Kind == yaml.ScalarNode && n.Value == "" {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return malformed(n.Line, "%s must be a mapping", n.Tag)
	}
	known := fieldKeys(reflect.TypeOf(v).Elem())
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		if !known[k.Value] {
			return malformed(k.Line, "%s has no field %q", n.Tag, k.Value)
		}
	}
	m := *n
	m.Tag = ""
	if err := m.Decode(v); err != nil {
		if errors.Is(err, ErrMalformedInput) {
			return err
		}
		return fmt.Errorf("%v: %w", err, ErrMalformedInput)
	}
	return nil
}

func fieldKeys(t reflect.Type) map[string]bool {
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if k := t.Field(i).Tag.Get("yaml"); k != "" {
			keys[k] = true
		}
	}
	return keys
}

func decodeStrings(n *yaml.Node) ([]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, malformed(n.Line, "%s must be a sequence of strings", n.Tag)
	}
	names := make([]string, len(n.Content))
	for i, c := range n.Content {
		if c.Kind != yaml.ScalarNode {
			return nil, malformed(c.Line, "%s entry must be a string", n.Tag)
		}
		names[i] = c.Value
	}
	return names, nil
}

func decodeInt(n *yaml.Node) (int64, error) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" {
		return 0, malformed(n.Line, "expected an integer, got %q", n.Value)
	}
	var v int64
	if err := n.Decode(&v); err != nil {
		return 0, malformed(n.Line, "expected an integer, got %q", n.Value)
	}
	return v, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (x *Value[T]) UnmarshalYAML(n *yaml.Node) error {
	v, err := decodeInt(n)
	if err != nil {
		return err
	}
	if int64(T(v)) != v {
		return malformed(n.Line, "%d out of range for %T", v, T(0))
	}
	*x = Set(T(v))
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler. A Symbolic is an integer, a
// single name, or a sequence of names.
func (s *Symbolic) UnmarshalYAML(n *yaml.Node) error {
	switch {
	case n.Kind == yaml.SequenceNode:
		names, err := decodeStrings(n)
		if err != nil {
			return err
		}
		*s = Names(names...)
	case n.Kind == yaml.ScalarNode && n.ShortTag() == "!!int":
		v, err := decodeInt(n)
		if err != nil {
			return err
		}
		if v < 0 || v > math.MaxUint32 {
			return malformed(n.Line, "%d out of range", v)
		}
		*s = Num(uint32(v))
	case n.Kind == yaml.ScalarNode:
		*s = Names(n.Value)
	default:
		return malformed(n.Line, "expected an integer or flag names")
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler. An integer name is a string
// table offset.
func (x *Name) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return malformed(n.Line, "expected a name")
	}
	if n.ShortTag() == "!!int" {
		v, err := decodeInt(n)
		if err != nil {
			return err
		}
		if v < 0 || v > math.MaxUint32 {
			return malformed(n.Line, "string table offset %d out of range", v)
		}
		*x = Offset(uint32(v))
		return nil
	}
	*x = Text(n.Value)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler. It rejects unknown keys in
// relocations nested in a section.
func (r *RelocationDesc) UnmarshalYAML(n *yaml.Node) error {
	type plain RelocationDesc
	m := *n
	m.Tag = tagRelocation
	return decodeRecord(&m, (*plain)(r))
}

// Bytes is raw data in a description, written either as a string of hex
// digits (spaces allowed) or as a sequence of byte values.
type Bytes []byte

// UnmarshalYAML implements yaml.Unmarshaler.
func (b *Bytes) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		s := strings.Join(strings.Fields(n.Value), "")
		d, err := hex.DecodeString(s)
		if err != nil {
			return malformed(n.Line, "bad hex data: %v", err)
		}
		*b = d
	case yaml.SequenceNode:
		d := make([]byte, len(n.Content))
		for i, c := range n.Content {
			v, err := decodeInt(c)
			if err != nil {
				return err
			}
			if v < 0 || v > 0xff {
				return malformed(c.Line, "byte value %d out of range", v)
			}
			d[i] = byte(v)
		}
		*b = d
	default:
		return malformed(n.Line, "expected hex data")
	}
	return nil
}
