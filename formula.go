package formula

import (
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// NoPosition is the error position when there is no error or when the error
// has no position in the formula.
const NoPosition = -1

// Resolver binds names that are neither built in nor added to a Parser. It
// returns the value of a new constant for name. Returning NaN or an error
// leaves the name unknown; the error's text becomes the compile error message.
type Resolver func(name string) (float64, error)

// Parser compiles and evaluates formulas. A Parser holds a single compiled
// formula at a time. A Parser is not safe for concurrent use.
type Parser struct {
	// expr is the formula text after removing comments.
	expr string
	// root is the compiled formula, or nil if there is none.
	root *node

	ok     bool
	result float64
	errPos int
	err    error

	decimal  byte
	list     byte
	powRight bool

	custom   Table
	resolve  Resolver
	keep     bool
	resolved []string

	// usedFuncs and usedVars map lowercased names seen during the last
	// compile to the bound names.
	usedFuncs map[string]string
	usedVars  map[string]string

	log *logrus.Entry
}

// New creates a Parser with the given options applied in order.
func New(opts ...Option) *Parser {
	p := &Parser{
		result:    math.NaN(),
		errPos:    NoPosition,
		decimal:   '.',
		list:      ',',
		usedFuncs: make(map[string]string),
		usedVars:  make(map[string]string),
		log:       logrus.StandardLogger().WithField("component", "formula"),
	}
	for _, opt := range opts {
		opt.apply(p)
	}
	return p
}

// reset clears the state of the last compile.
func (p *Parser) reset() {
	p.root = nil
	p.ok = false
	p.result = math.NaN()
	p.errPos = NoPosition
	p.err = nil
	for k := range p.usedFuncs {
		delete(p.usedFuncs, k)
	}
	for k := range p.usedVars {
		delete(p.usedVars, k)
	}
	p.resolved = p.resolved[:0]
}

// fail records an error.
func (p *Parser) fail(err error) {
	p.ok = false
	p.result = math.NaN()
	p.err = err
	p.errPos = NoPosition
	if ie, ok := err.(InputError); ok {
		p.errPos = ie.Pos()
	}
}

// Compile compiles a formula, replacing any previously compiled one, and
// reports whether it succeeded. A leading "=" is ignored, as are /* block */
// and // line comments. Calls of pure functions whose arguments are all
// constant are evaluated during compilation, so Compile fails if one of them
// fails.
func (p *Parser) Compile(expr string) bool {
	p.reset()
	if p.decimal == p.list {
		p.expr = expr
		p.fail(&SeparatorError{Sep: p.list, Reason: "List and decimal separators cannot be the same"})
		return false
	}
	expr = strings.TrimPrefix(expr, "=")
	s, err := stripComments(expr)
	p.expr = s
	if err != nil {
		p.fail(err)
		p.log.WithError(err).Debug("compile failed")
		return false
	}
	root, folds, err := p.build(s)
	p.evictResolved()
	if err != nil {
		p.fail(err)
		p.log.WithFields(logrus.Fields{"expression": s, "position": p.errPos}).WithError(err).Debug("compile failed")
		return false
	}
	p.root = root
	p.ok = true
	p.log.WithFields(logrus.Fields{"expression": s, "folds": folds, "nodes": root.size()}).Debug("compiled")
	return true
}

// build parses and optimizes a formula.
func (p *Parser) build(s string) (root *node, folds int, err error) {
	defer recoverFailure(&err)
	root, err = parse(s, p.decimal, p.list, p.powRight, p.lookup)
	if err != nil {
		return nil, 0, err
	}
	folds = root.optimize()
	return root, folds, nil
}

// lookup finds the binding for a name in a formula being compiled, first
// among added bindings, then among builtins, and finally through the
// resolver. It records the names it finds.
func (p *Parser) lookup(name string) (Binding, bool, error) {
	b, ok := p.custom.Find(name)
	if !ok {
		b, ok = builtins.Find(name)
	}
	if !ok && p.resolve != nil {
		v, err := p.resolve(name)
		if err != nil {
			return Binding{}, false, err
		}
		if math.IsNaN(v) {
			return Binding{}, false, nil
		}
		b = Constant(name, v)
		if err := p.custom.Insert(b); err != nil {
			return Binding{}, false, err
		}
		p.resolved = append(p.resolved, name)
		ok = true
		p.log.WithFields(logrus.Fields{"name": name, "value": v}).Debug("resolved unknown symbol")
	}
	if !ok {
		return Binding{}, false, nil
	}
	key := strings.ToLower(b.Name)
	switch b.Kind() {
	case KindFunc, KindClosure:
		p.usedFuncs[key] = b.Name
	default:
		p.usedVars[key] = b.Name
	}
	return b, true, nil
}

// evictResolved removes constants added by the resolver unless the Parser
// keeps them.
func (p *Parser) evictResolved() {
	if p.keep || len(p.resolved) == 0 {
		return
	}
	for _, name := range p.resolved {
		p.custom.Remove(name)
	}
	p.resolved = p.resolved[:0]
}

// Evaluate evaluates the compiled formula with the current values of its
// variables. If there is no compiled formula or a function fails, the result
// is NaN and Success reports false.
func (p *Parser) Evaluate() float64 {
	defer p.evictResolved()
	if p.root == nil {
		p.result = math.NaN()
		return p.result
	}
	v, err := evaluate(p.root)
	if err != nil {
		p.fail(err)
		p.log.WithField("expression", p.expr).WithError(err).Debug("evaluation failed")
		return p.result
	}
	p.ok = true
	p.err = nil
	p.errPos = NoPosition
	p.result = v
	return v
}

// EvaluateString compiles and evaluates a formula. If compiling fails, the
// result is NaN.
func (p *Parser) EvaluateString(expr string) float64 {
	if !p.Compile(expr) {
		return math.NaN()
	}
	return p.Evaluate()
}

// Success reports whether the last compile or evaluation succeeded.
func (p *Parser) Success() bool {
	return p.ok
}

// Result returns the result of the last evaluation, or NaN if it failed.
func (p *Parser) Result() float64 {
	return p.result
}

// LastErrorPosition returns the byte offset in Expression of the last compile
// error, or NoPosition.
func (p *Parser) LastErrorPosition() int {
	return p.errPos
}

// LastErrorMessage returns the message of the last error, or the empty
// string if there was none.
func (p *Parser) LastErrorMessage() string {
	if p.err == nil {
		return ""
	}
	return p.err.Error()
}

// LastError returns the last compile or evaluation error, or nil.
func (p *Parser) LastError() error {
	return p.err
}

// Expression returns the last compiled formula without its leading "=" and
// comments.
func (p *Parser) Expression() string {
	return p.expr
}

// SetVariablesAndFunctions replaces all added bindings. If any binding is
// invalid, the bindings are unchanged.
func (p *Parser) SetVariablesAndFunctions(bindings []Binding) error {
	t, err := NewTable(bindings...)
	if err != nil {
		return err
	}
	p.custom = *t
	p.resolved = p.resolved[:0]
	return nil
}

// AddVariableOrFunction adds a binding, replacing any with the same name.
func (p *Parser) AddVariableOrFunction(b Binding) error {
	return p.custom.Insert(b)
}

// RemoveVariableOrFunction removes the added binding with the given name and
// reports whether there was one.
func (p *Parser) RemoveVariableOrFunction(name string) bool {
	return p.custom.Remove(name)
}

// VariablesAndFunctions returns the added bindings ordered by name.
func (p *Parser) VariablesAndFunctions() []Binding {
	return p.custom.Bindings()
}

// SetConstant sets the value of a constant, adding it if there is no binding
// with that name. If there is a compiled formula, changing an existing
// constant recompiles it. Bindings that are not constants are left alone.
func (p *Parser) SetConstant(name string, v float64) error {
	b, ok := p.custom.Find(name)
	if !ok {
		return p.custom.Insert(Constant(name, v))
	}
	if b.Kind() != KindConst {
		return nil
	}
	b.Value = Const(v)
	if err := p.custom.Insert(b); err != nil {
		return err
	}
	if p.expr != "" {
		p.log.WithFields(logrus.Fields{"name": b.Name, "value": v}).Debug("recompiling for changed constant")
		p.Compile(p.expr)
	}
	return nil
}

// Constant returns the value of an added constant, or NaN if there is no
// constant with that name.
func (p *Parser) Constant(name string) float64 {
	b, ok := p.custom.Find(name)
	if !ok {
		return math.NaN()
	}
	v, ok := b.Value.(Const)
	if !ok {
		return math.NaN()
	}
	return float64(v)
}

// SetDecimalSeparator sets the decimal separator, which must be '.' or ','.
func (p *Parser) SetDecimalSeparator(c byte) error {
	if c != '.' && c != ',' {
		return &SeparatorError{Sep: c, Reason: "Decimal separator must be either a '.' or ','."}
	}
	p.decimal = c
	return nil
}

// DecimalSeparator returns the decimal separator.
func (p *Parser) DecimalSeparator() byte {
	return p.decimal
}

// SetListSeparator sets the function argument separator, which must be ','
// or ';'.
func (p *Parser) SetListSeparator(c byte) error {
	if c != ',' && c != ';' {
		return &SeparatorError{Sep: c, Reason: "List separator must be either a ',' or ';'."}
	}
	p.list = c
	return nil
}

// ListSeparator returns the function argument separator.
func (p *Parser) ListSeparator() byte {
	return p.list
}

// SetPowerFromRight sets whether exponentiation groups from the right for
// subsequent compiles. See WithPowerFromRight.
func (p *Parser) SetPowerFromRight(right bool) {
	p.powRight = right
}

// PowerFromRight reports whether exponentiation groups from the right.
func (p *Parser) PowerFromRight() bool {
	return p.powRight
}

// SetUnknownSymbolResolver sets the resolver for names with no binding. If
// keep is true, the constants it creates remain in the Parser's bindings;
// otherwise they are removed after each compile and evaluation, so the
// resolver sees the names again next time. A nil resolver disables
// resolution.
func (p *Parser) SetUnknownSymbolResolver(r Resolver, keep bool) {
	p.resolve = r
	p.keep = keep
}

// IsFunctionUsed reports whether the last compiled formula referred to the
// named function.
func (p *Parser) IsFunctionUsed(name string) bool {
	_, ok := p.usedFuncs[strings.ToLower(name)]
	return ok
}

// IsVariableUsed reports whether the last compiled formula referred to the
// named variable or constant.
func (p *Parser) IsVariableUsed(name string) bool {
	_, ok := p.usedVars[strings.ToLower(name)]
	return ok
}

// Funcs returns the names of the functions the last compiled formula referred
// to, sorted.
func (p *Parser) Funcs() []string {
	return sortedValues(p.usedFuncs)
}

// Vars returns the names of the variables and constants the last compiled
// formula referred to, sorted.
func (p *Parser) Vars() []string {
	return sortedValues(p.usedVars)
}

func sortedValues(m map[string]string) []string {
	r := make([]string, 0, len(m))
	for _, v := range m {
		r = append(r, v)
	}
	sort.Strings(r)
	return r
}

// ListAvailableFunctionsAndVariables lists the names of the builtins followed
// by the names of added bindings.
func (p *Parser) ListAvailableFunctionsAndVariables() string {
	var b strings.Builder
	b.WriteString("Built-in Functions:\n")
	for _, name := range builtins.Names() {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	b.WriteString("\nCustom Functions & Variables:\n")
	for _, name := range p.custom.Names() {
		b.WriteString(name)
		b.WriteByte('\n')
	}
	return b.String()
}

// String formats the compiled formula with alternating round and square
// brackets grouping each term. Constant subexpressions appear folded. If there
// is no compiled formula, the result is the empty string.
func (p *Parser) String() string {
	if p.root == nil {
		return ""
	}
	return p.root.String()
}

// Pretty is like String, but uses mathematical symbols for operators.
func (p *Parser) Pretty() string {
	if p.root == nil {
		return ""
	}
	var b strings.Builder
	p.root.fmt(&b, false, true)
	return b.String()
}

// stripComments removes /* block */ and // line comments. Line comments end
// before the next line break.
func stripComments(s string) (string, error) {
	i := 0
	for {
		k := strings.IndexByte(s[i:], '/')
		if k < 0 {
			return s, nil
		}
		k += i
		if k == len(s)-1 {
			return s, nil
		}
		switch s[k+1] {
		case '*':
			end := strings.Index(s[k+2:], "*/")
			if end < 0 {
				return s, &CommentError{Col: k}
			}
			s = s[:k] + s[k+2+end+2:]
			i = k
		case '/':
			end := strings.IndexAny(s[k:], "\n\r")
			if end < 0 {
				return s[:k], nil
			}
			s = s[:k] + s[k+end:]
			i = k
		default:
			i = k + 1
		}
	}
}
