// Package typetag answers reflection queries: given a static or runtime
// type, it reports the type's qualified identity without the caller
// needing the concrete type in scope.
//
// A tag's string form is origin::module::Name, e.g. "0x0::demo::Sword".
// Builtin and unnamed types (string, []byte, *T) have no origin or module
// and print as their Go spelling.
package typetag

import (
	"fmt"
	"reflect"
	"strings"
)

// DefaultOrigin is the deployment origin used when none is configured.
const DefaultOrigin = "0x0"

const separator = "::"

// Tag is the qualified identity of a type.
type Tag struct {
	Origin string `json:"origin,omitempty"`
	Module string `json:"module,omitempty"`
	Name   string `json:"name"`
}

// String returns origin::module::Name, or Name alone for builtin types.
func (t Tag) String() string {
	if t.Module == "" {
		return t.Name
	}
	return t.Origin + separator + t.Module + separator + t.Name
}

// IsZero reports whether t is the empty tag.
func (t Tag) IsZero() bool {
	return t == Tag{}
}

// Qualified reports whether t carries an origin and module.
func (t Tag) Qualified() bool {
	return t.Module != ""
}

// MarshalText implements encoding.TextMarshaler.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tag) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Parse parses the string form of a tag.
// "0x0::demo::Sword" yields a qualified tag; "string" a builtin one.
func Parse(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Tag{}, fmt.Errorf("empty type tag")
	}
	parts := strings.Split(s, separator)
	switch len(parts) {
	case 1:
		return Tag{Name: s}, nil
	case 3:
		for _, p := range parts {
			if p == "" {
				return Tag{}, fmt.Errorf("type tag %q: empty component", s)
			}
		}
		return Tag{Origin: parts[0], Module: parts[1], Name: parts[2]}, nil
	default:
		return Tag{}, fmt.Errorf("type tag %q: want origin::module::Name", s)
	}
}

// Of returns the tag of T from the default registry.
func Of[T any]() Tag {
	return defaultRegistry.Tag(reflect.TypeFor[T]())
}

// OfType returns the tag of t from the default registry.
func OfType(t reflect.Type) Tag {
	return defaultRegistry.Tag(t)
}

// OfValue returns the tag of v's dynamic type.
// A nil interface has no type and yields the zero Tag.
func OfValue(v any) Tag {
	if v == nil {
		return Tag{}
	}
	return defaultRegistry.Tag(reflect.TypeOf(v))
}

// Register names T in the default registry.
// Panics on a conflicting registration; intended for package init.
func Register[T any](module, name string) Tag {
	t := reflect.TypeFor[T]()
	if err := defaultRegistry.Register(t, module, name); err != nil {
		panic(err)
	}
	return defaultRegistry.Tag(t)
}

// Resolve finds the registered type behind a tag string.
func Resolve(s string) (reflect.Type, bool) {
	return defaultRegistry.Resolve(s)
}

// SetOrigin changes the origin reported for qualified tags.
func SetOrigin(origin string) {
	defaultRegistry.SetOrigin(origin)
}

// Origin returns the default registry's origin.
func Origin() string {
	return defaultRegistry.Origin()
}

// Entries returns the default registry's registrations sorted by tag.
func Entries() []Entry {
	return defaultRegistry.Entries()
}
