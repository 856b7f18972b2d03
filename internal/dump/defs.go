package dump

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sirkon/covgate/internal/defs"
)

// DefsFile is a YAML dump of a definition table.
//
//	defs:
//	  - name: example.com/pkg
//	    kind: mod
//	  - name: Fn
//	    kind: fn
//	    parent: example.com/pkg
//	    pos: pkg.go:10:1
//	    attrs:
//	      - name: coverage
//	        args: [off]
//	    flags: [naked]
//
// Definitions refer to their parent and implementation block by name, and these
// must be declared earlier in the list. Names are unique within a dump.
type DefsFile struct {
	Defs []DefEntry `yaml:"defs"`
}

// DefEntry is a single definition of a dump.
type DefEntry struct {
	Name   string       `yaml:"name"`
	Kind   defs.DefKind `yaml:"kind"`
	Parent string       `yaml:"parent"`
	Impl   string       `yaml:"impl"`
	Pos    Position     `yaml:"pos"`
	Attrs  []AttrEntry  `yaml:"attrs"`
	Flags  []string     `yaml:"flags"`
}

// AttrEntry is an attribute of a definition.
type AttrEntry struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args"`
	Pos  Position `yaml:"pos"`
}

// LoadDefs reads a definition table dump from the file at path.
func LoadDefs(path string) (*defs.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open definitions dump: %w", err)
	}
	defer f.Close()

	t, err := ReadDefs(f)
	if err != nil {
		return nil, fmt.Errorf("read definitions dump %s: %w", path, err)
	}

	return t, nil
}

// ReadDefs decodes a definition table dump.
func ReadDefs(r io.Reader) (*defs.Table, error) {
	var file DefsFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	return file.Table()
}

// Table builds the definition table of the dump.
func (f *DefsFile) Table() (*defs.Table, error) {
	t := defs.NewTable()
	ids := make(map[string]defs.DefID, len(f.Defs))

	resolve := func(name string) (defs.DefID, error) {
		if name == "" {
			return defs.NoDefID, nil
		}

		id, ok := ids[name]
		if !ok {
			return defs.NoDefID, fmt.Errorf("unknown definition %q, it must be declared before", name)
		}

		return id, nil
	}

	for i, e := range f.Defs {
		if e.Name == "" {
			return nil, fmt.Errorf("definition #%d: name is required", i)
		}
		if _, ok := ids[e.Name]; ok {
			return nil, fmt.Errorf("definition %s: duplicate name", e.Name)
		}
		if !validKind(e.Kind) {
			return nil, fmt.Errorf("definition %s: kind is required", e.Name)
		}

		d := defs.Def{
			Kind: e.Kind,
			Name: e.Name,
			Pos:  e.Pos.Position(),
		}

		var err error
		if d.Parent, err = resolve(e.Parent); err != nil {
			return nil, fmt.Errorf("definition %s: parent: %w", e.Name, err)
		}
		if d.Impl, err = resolve(e.Impl); err != nil {
			return nil, fmt.Errorf("definition %s: impl: %w", e.Name, err)
		}
		if d.Impl.IsValid() && t.DefKind(d.Impl) != defs.DefKindImpl {
			return nil, fmt.Errorf("definition %s: impl %s is %s", e.Name, e.Impl, t.DefKind(d.Impl))
		}

		for _, a := range e.Attrs {
			if a.Name == "" {
				return nil, fmt.Errorf("definition %s: attribute name is required", e.Name)
			}

			attr := defs.Attr{
				Name: a.Name,
				Args: a.Args,
				Pos:  a.Pos.Position(),
			}
			if !attr.Pos.IsValid() {
				attr.Pos = d.Pos
			}
			d.Attrs = append(d.Attrs, attr)
		}

		for _, name := range e.Flags {
			flag, err := defs.ParseCodegenFlag(name)
			if err != nil {
				return nil, fmt.Errorf("definition %s: %w", e.Name, err)
			}
			d.Flags |= flag
		}

		ids[e.Name] = t.Add(d)
	}

	return t, nil
}

func validKind(k defs.DefKind) bool {
	_, err := k.MarshalText()
	return err == nil
}
