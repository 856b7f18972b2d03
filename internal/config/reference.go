package config

import (
	"bytes"
	"encoding"
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"strconv"
	"strings"
)

// Reference identifies a package-level function or a method in Go source code.
//
//	"github.com/sirkon/covgate/covrt".Counter // Package: "github.com/sirkon/covgate/covrt", Name: "Counter"
//	"pkg/path".Type.Method                    // Package: "pkg/path", Type: "Type", Name: "Method"
type Reference struct {
	Package string
	Type    string
	Name    string
}

// IsZero checks if the reference is not set.
func (r Reference) IsZero() bool {
	return r == Reference{}
}

func (r Reference) String() string {
	v, err := r.MarshalText()
	if err != nil {
		return "<invalid reference>"
	}

	return string(v)
}

var (
	_ encoding.TextUnmarshaler = (*Reference)(nil)
	_ encoding.TextMarshaler   = Reference{}
)

// UnmarshalText parses "pkg/path".Name and "pkg/path".Type.Name forms.
func (r *Reference) UnmarshalText(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "" {
		return errors.New("empty reference")
	}

	quoted, err := strconv.QuotedPrefix(s)
	if err != nil {
		return fmt.Errorf("reference %q must start with a quoted package path", s)
	}
	pkg, err := strconv.Unquote(quoted)
	if err != nil || pkg == "" {
		return fmt.Errorf("reference %q has no package path", s)
	}

	rest, ok := strings.CutPrefix(s[len(quoted):], ".")
	if !ok {
		return fmt.Errorf("reference %q has no function name", s)
	}

	ref := Reference{Package: pkg}
	typ, name, isMethod := strings.Cut(rest, ".")
	if isMethod {
		ref.Type = typ
		ref.Name = name
	} else {
		ref.Name = typ
	}

	if isMethod && !token.IsIdentifier(ref.Type) {
		return fmt.Errorf("reference %q: invalid type name %q", s, ref.Type)
	}
	if !token.IsIdentifier(ref.Name) {
		return fmt.Errorf("reference %q: invalid function name %q", s, ref.Name)
	}

	*r = ref
	return nil
}

func (r Reference) MarshalText() ([]byte, error) {
	if r.Package == "" || r.Name == "" {
		return nil, errors.New("reference needs both a package path and a name")
	}

	parts := []string{strconv.Quote(r.Package)}
	if r.Type != "" {
		parts = append(parts, r.Type)
	}
	parts = append(parts, r.Name)

	return []byte(strings.Join(parts, ".")), nil
}

// ReferenceOf returns the reference of a function or a method. Methods are referenced
// by their receiver base type, pointer or not. Zero reference is returned for functions
// out of any package, like builtins.
func ReferenceOf(fn *types.Func) Reference {
	if fn == nil || fn.Pkg() == nil {
		return Reference{}
	}

	ref := Reference{
		Package: fn.Pkg().Path(),
		Name:    fn.Name(),
	}

	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return ref
	}

	t := sig.Recv().Type()
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	if named, ok := t.(*types.Named); ok {
		ref.Type = named.Obj().Name()
	}

	return ref
}
