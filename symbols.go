package formula

import (
	"sort"
	"strconv"
)

// Flags modify how a bound function is compiled.
type Flags uint8

const (
	// Pure marks a function whose result depends only on its arguments.
	// Calls to pure functions with constant arguments are evaluated once at
	// compile time. Functions without Pure are called on every evaluation.
	Pure Flags = 1 << iota
	// Variadic marks a function that may be called with fewer arguments than
	// its arity, down to one. Arguments not supplied are NaN.
	Variadic
)

// Kind is the kind of value a name is bound to.
type Kind int8

const (
	// KindConst is a number fixed at compile time.
	KindConst Kind = iota
	// KindVar is a host-owned number read on every evaluation.
	KindVar
	// KindFunc is a function of zero to seven arguments.
	KindFunc
	// KindClosure is a function of zero to seven arguments that also receives
	// the binding's context.
	KindClosure
)

// Value is the value of a binding. It is one of Const, Ref, Func0 through
// Func7, or Closure0 through Closure7.
type Value interface {
	kind() Kind
	arity() int
}

type (
	// Const is a constant value.
	Const float64
	// Ref refers to a variable owned by the host. The pointer must remain
	// valid for as long as any compiled formula uses it.
	Ref struct{ P *float64 }

	Func0 func() float64
	Func1 func(a float64) float64
	Func2 func(a, b float64) float64
	Func3 func(a, b, c float64) float64
	Func4 func(a, b, c, d float64) float64
	Func5 func(a, b, c, d, e float64) float64
	Func6 func(a, b, c, d, e, f float64) float64
	Func7 func(a, b, c, d, e, f, g float64) float64

	// Closure0 through Closure7 receive the Context of their binding as the
	// first argument. The formula never owns the context; the host must keep
	// it usable for as long as any compiled formula refers to it.
	Closure0 func(ctx any) float64
	Closure1 func(ctx any, a float64) float64
	Closure2 func(ctx any, a, b float64) float64
	Closure3 func(ctx any, a, b, c float64) float64
	Closure4 func(ctx any, a, b, c, d float64) float64
	Closure5 func(ctx any, a, b, c, d, e float64) float64
	Closure6 func(ctx any, a, b, c, d, e, f float64) float64
	Closure7 func(ctx any, a, b, c, d, e, f, g float64) float64
)

func (Const) kind() Kind    { return KindConst }
func (Ref) kind() Kind      { return KindVar }
func (Func0) kind() Kind    { return KindFunc }
func (Func1) kind() Kind    { return KindFunc }
func (Func2) kind() Kind    { return KindFunc }
func (Func3) kind() Kind    { return KindFunc }
func (Func4) kind() Kind    { return KindFunc }
func (Func5) kind() Kind    { return KindFunc }
func (Func6) kind() Kind    { return KindFunc }
func (Func7) kind() Kind    { return KindFunc }
func (Closure0) kind() Kind { return KindClosure }
func (Closure1) kind() Kind { return KindClosure }
func (Closure2) kind() Kind { return KindClosure }
func (Closure3) kind() Kind { return KindClosure }
func (Closure4) kind() Kind { return KindClosure }
func (Closure5) kind() Kind { return KindClosure }
func (Closure6) kind() Kind { return KindClosure }
func (Closure7) kind() Kind { return KindClosure }

func (Const) arity() int    { return 0 }
func (Ref) arity() int      { return 0 }
func (Func0) arity() int    { return 0 }
func (Func1) arity() int    { return 1 }
func (Func2) arity() int    { return 2 }
func (Func3) arity() int    { return 3 }
func (Func4) arity() int    { return 4 }
func (Func5) arity() int    { return 5 }
func (Func6) arity() int    { return 6 }
func (Func7) arity() int    { return 7 }
func (Closure0) arity() int { return 0 }
func (Closure1) arity() int { return 1 }
func (Closure2) arity() int { return 2 }
func (Closure3) arity() int { return 3 }
func (Closure4) arity() int { return 4 }
func (Closure5) arity() int { return 5 }
func (Closure6) arity() int { return 6 }
func (Closure7) arity() int { return 7 }

// Binding binds a name to a value.
type Binding struct {
	// Name is the name as it appears in formulas. Names begin with an ASCII
	// letter or underscore, continue with ASCII letters, digits, underscores,
	// and periods, and are compared case-insensitively.
	Name string
	// Value is the bound value.
	Value Value
	// Flags modify compilation of function and closure values.
	Flags Flags
	// Context is passed to closure values. It is ignored for other values.
	Context any
}

// Kind returns the kind of the bound value.
func (b Binding) Kind() Kind {
	return b.Value.kind()
}

// Arity returns the number of arguments a bound function takes. Constants and
// variables have arity 0.
func (b Binding) Arity() int {
	return b.Value.arity()
}

// Constant binds name to a constant.
func Constant(name string, v float64) Binding {
	return Binding{Name: name, Value: Const(v)}
}

// Variable binds name to a host-owned variable.
func Variable(name string, p *float64) Binding {
	return Binding{Name: name, Value: Ref{P: p}}
}

// Function binds name to a function value, one of Func0 through Func7.
func Function(name string, fn Value, flags Flags) Binding {
	return Binding{Name: name, Value: fn, Flags: flags}
}

// Closure binds name to a closure value, one of Closure0 through Closure7,
// along with the context passed to it.
func Closure(name string, fn Value, ctx any, flags Flags) Binding {
	return Binding{Name: name, Value: fn, Flags: flags, Context: ctx}
}

// ValidateName checks that name is usable as a binding name. The error, if
// any, is a *NameError.
func ValidateName(name string) error {
	if name == "" {
		return &NameError{Reason: "Variable name is empty."}
	}
	if c := name[0]; !isLetter(c) && c != '_' {
		return &NameError{Name: name, Reason: "Variable name must begin with a letter from a-z or _: " + name}
	}
	for i := 0; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return &NameError{Name: name, Reason: "Invalid character in variable name: " + name}
		}
	}
	return nil
}

// NameError is an error for a binding name that cannot appear in formulas.
type NameError struct {
	// Name is the offending name.
	Name string
	// Reason describes what is wrong with it.
	Reason string
}

func (err *NameError) Error() string {
	return err.Reason
}

func validateBinding(b Binding) error {
	if err := ValidateName(b.Name); err != nil {
		return err
	}
	if b.Value == nil {
		return &NameError{Name: b.Name, Reason: "No value bound to " + strconv.Quote(b.Name) + "."}
	}
	if r, ok := b.Value.(Ref); ok && r.P == nil {
		return &NameError{Name: b.Name, Reason: "Variable " + strconv.Quote(b.Name) + " refers to nil."}
	}
	return nil
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isNameChar(c byte) bool {
	return isLetter(c) || isDigit(c) || c == '_' || c == '.'
}

// lower folds an ASCII uppercase letter. Valid names contain nothing else
// that case folding would change.
func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// compareNames orders names case-insensitively, with a proper prefix first.
func compareNames(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		x, y := lower(a[i]), lower(b[i])
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Table is a set of bindings ordered case-insensitively by name. The zero
// value is an empty table ready to use. A Table is not safe for concurrent
// use.
type Table struct {
	b []Binding
}

// NewTable creates a table holding the given bindings. Later bindings replace
// earlier ones with the same name.
func NewTable(bindings ...Binding) (*Table, error) {
	var t Table
	for _, b := range bindings {
		if err := t.Insert(b); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// search returns the index where name is or would be.
func (t *Table) search(name string) (int, bool) {
	k := sort.Search(len(t.b), func(i int) bool {
		return compareNames(t.b[i].Name, name) >= 0
	})
	return k, k < len(t.b) && compareNames(t.b[k].Name, name) == 0
}

// Find finds the binding with the given name.
func (t *Table) Find(name string) (Binding, bool) {
	if t == nil || name == "" {
		return Binding{}, false
	}
	k, ok := t.search(name)
	if !ok {
		return Binding{}, false
	}
	return t.b[k], true
}

// Insert adds a binding to the table, replacing any binding with the same
// name. The error, if any, is a *NameError.
func (t *Table) Insert(b Binding) error {
	if err := validateBinding(b); err != nil {
		return err
	}
	k, ok := t.search(b.Name)
	if ok {
		t.b[k] = b
		return nil
	}
	t.b = append(t.b, Binding{})
	copy(t.b[k+1:], t.b[k:])
	t.b[k] = b
	return nil
}

// Remove removes the binding with the given name and reports whether there
// was one.
func (t *Table) Remove(name string) bool {
	k, ok := t.search(name)
	if !ok {
		return false
	}
	t.b = append(t.b[:k], t.b[k+1:]...)
	return true
}

// Len returns the number of bindings in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.b)
}

// Bindings returns a copy of the table's bindings in order.
func (t *Table) Bindings() []Binding {
	if t == nil {
		return nil
	}
	return append([]Binding(nil), t.b...)
}

// Names returns the table's names in order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	r := make([]string, len(t.b))
	for i, b := range t.b {
		r[i] = b.Name
	}
	return r
}
