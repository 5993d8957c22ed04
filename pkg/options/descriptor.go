package options

import "fmt"

// Kind identifies how the raw text of an option is parsed.
type Kind int

const (
	// KindString is a verbatim string value.
	KindString Kind = iota

	// KindStringList is a separator-delimited list of strings.
	KindStringList

	// KindBool is one of the canonical boolean tokens.
	KindBool

	// KindInt is a base-10 signed integer.
	KindInt

	// KindDouble is a floating point number.
	KindDouble
)

// String returns the kind name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindStringList:
		return "string-list"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindDouble:
		return "double"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a caller-owned storage cell for a resolved option.
// The zero value is unset.
type Value[T any] struct {
	v   T
	set bool
}

// NewValue returns a cell that already holds v.
func NewValue[T any](v T) *Value[T] {
	return &Value[T]{v: v, set: true}
}

// Get returns the stored value, or the zero value of T when unset.
func (v *Value[T]) Get() T {
	return v.v
}

// Set stores x and marks the cell as populated.
func (v *Value[T]) Set(x T) {
	v.v = x
	v.set = true
}

// IsSet reports whether the cell has been populated by any layer.
func (v *Value[T]) IsSet() bool {
	return v.set
}

// Or returns the stored value when set, otherwise def.
func (v *Value[T]) Or(def T) T {
	if !v.set {
		return def
	}
	return v.v
}

// Reset clears the cell back to unset.
func (v *Value[T]) Reset() {
	var zero T
	v.v = zero
	v.set = false
}

// Descriptor binds an option name to a typed storage cell.
type Descriptor struct {
	// Name is the lookup key inside the source group.
	Name string

	// Kind selects the parse rule.
	Kind Kind

	// Binding is a *Value[T] whose T matches Kind.
	Binding any

	// Usage is a one-line description, used for command-line help.
	Usage string
}

// Table is an ordered list of descriptors. Iteration stops at the first
// entry with an empty name, so a table may carry an explicit terminator.
type Table []Descriptor

// Sentinel terminates a table.
var Sentinel = Descriptor{}

// Each calls fn for every descriptor up to the terminator.
func (t Table) Each(fn func(d *Descriptor)) {
	for i := range t {
		if t[i].Name == "" {
			return
		}
		fn(&t[i])
	}
}

// Lookup returns the descriptor with the given name.
func (t Table) Lookup(name string) (*Descriptor, bool) {
	var found *Descriptor
	t.Each(func(d *Descriptor) {
		if found == nil && d.Name == name {
			found = d
		}
	})
	return found, found != nil
}

// String declares a string option.
func String(name string, binding *Value[string], usage string) Descriptor {
	return Descriptor{Name: name, Kind: KindString, Binding: binding, Usage: usage}
}

// StringList declares a string list option.
func StringList(name string, binding *Value[[]string], usage string) Descriptor {
	return Descriptor{Name: name, Kind: KindStringList, Binding: binding, Usage: usage}
}

// Bool declares a boolean option.
func Bool(name string, binding *Value[bool], usage string) Descriptor {
	return Descriptor{Name: name, Kind: KindBool, Binding: binding, Usage: usage}
}

// Int declares an integer option.
func Int(name string, binding *Value[int], usage string) Descriptor {
	return Descriptor{Name: name, Kind: KindInt, Binding: binding, Usage: usage}
}

// Double declares a floating point option.
func Double(name string, binding *Value[float64], usage string) Descriptor {
	return Descriptor{Name: name, Kind: KindDouble, Binding: binding, Usage: usage}
}

// IsSet reports whether the bound cell holds a value from any layer. A nil
// binding is unset.
func (d *Descriptor) IsSet() bool {
	switch b := d.Binding.(type) {
	case *Value[string]:
		return b != nil && b.IsSet()
	case *Value[[]string]:
		return b != nil && b.IsSet()
	case *Value[bool]:
		return b != nil && b.IsSet()
	case *Value[int]:
		return b != nil && b.IsSet()
	case *Value[float64]:
		return b != nil && b.IsSet()
	default:
		return false
	}
}

// populated reports whether a string-typed binding already carries a value
// from a higher-precedence layer. Numeric and boolean bindings have no such
// test.
func (d *Descriptor) populated() bool {
	switch d.Kind {
	case KindString, KindStringList:
		return d.IsSet()
	default:
		return false
	}
}

// isNil reports whether the descriptor has no storage cell at all.
func (d *Descriptor) isNil() bool {
	switch b := d.Binding.(type) {
	case nil:
		return true
	case *Value[string]:
		return b == nil
	case *Value[[]string]:
		return b == nil
	case *Value[bool]:
		return b == nil
	case *Value[int]:
		return b == nil
	case *Value[float64]:
		return b == nil
	default:
		return false
	}
}

// Assign parses raw according to Kind and writes it through the binding,
// marking the cell as set. Explicit layers such as flags use it directly.
// A binding whose type disagrees with Kind is a programming error.
func (d *Descriptor) Assign(raw string) error {
	switch d.Kind {
	case KindString:
		return store(bindingFor[string](d), raw, ParseString)
	case KindStringList:
		return store(bindingFor[[]string](d), raw, ParseStringList)
	case KindBool:
		return store(bindingFor[bool](d), raw, ParseBool)
	case KindInt:
		return store(bindingFor[int](d), raw, ParseInt)
	case KindDouble:
		return store(bindingFor[float64](d), raw, ParseDouble)
	default:
		panic(fmt.Sprintf("options: descriptor %q has unknown kind %d", d.Name, int(d.Kind)))
	}
}

func store[T any](b *Value[T], raw string, parse func(string) (T, error)) error {
	v, err := parse(raw)
	if err != nil {
		return err
	}
	b.Set(v)
	return nil
}

func bindingFor[T any](d *Descriptor) *Value[T] {
	b, ok := d.Binding.(*Value[T])
	if !ok {
		panic(fmt.Sprintf("options: descriptor %q of kind %s bound to %T", d.Name, d.Kind, d.Binding))
	}
	return b
}
