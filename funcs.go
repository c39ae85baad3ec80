package formula

import (
	"math"
	"math/big"
	"math/rand"

	"github.com/zephyrtronium/bigfloat"
)

// EvalError is an error raised by a function during evaluation, e.g. for an
// argument outside the function's domain. Evaluating a formula whose
// functions raise an EvalError produces NaN and records the error.
type EvalError struct {
	// Msg describes the failure.
	Msg string
}

func (err *EvalError) Error() string {
	return err.Msg
}

// Fail raises an EvalError with the given message. It is meant to be called
// from within bound functions; it does not return.
func Fail(msg string) {
	panic(&EvalError{Msg: msg})
}

// operator is an operator that the parser turns into a function node.
type operator int8

const (
	opNone operator = iota
	opAdd
	opSub
	opMul
	opDiv
	opMod
	opPow
	opShl
	opShr
	opEq
	opNe
	opLt
	opLe
	opGt
	opGe
	opAnd
	opOr
	opNeg
	opComma
)

var operators = [...]struct {
	sym, alt string
	fn       Value
}{
	opAdd:   {"+", "+", Func2(func(a, b float64) float64 { return a + b })},
	opSub:   {"-", "−", Func2(func(a, b float64) float64 { return a - b })},
	opMul:   {"*", "×", Func2(func(a, b float64) float64 { return a * b })},
	opDiv:   {"/", "÷", Func2(div)},
	opMod:   {"%", "%", Func2(mod)},
	opPow:   {"^", "^", Func2(math.Pow)},
	opShl:   {"<<", "<<", Func2(shl)},
	opShr:   {">>", ">>", Func2(shr)},
	opEq:    {"=", "=", Func2(func(a, b float64) float64 { return truth(a == b) })},
	opNe:    {"<>", "≠", Func2(func(a, b float64) float64 { return truth(a != b) })},
	opLt:    {"<", "<", Func2(func(a, b float64) float64 { return truth(a < b) })},
	opLe:    {"<=", "≤", Func2(func(a, b float64) float64 { return truth(a <= b) })},
	opGt:    {">", ">", Func2(func(a, b float64) float64 { return truth(a > b) })},
	opGe:    {">=", "≥", Func2(func(a, b float64) float64 { return truth(a >= b) })},
	opAnd:   {"&", "∧", Func2(func(a, b float64) float64 { return truth(a != 0 && b != 0) })},
	opOr:    {"|", "∨", Func2(func(a, b float64) float64 { return truth(a != 0 || b != 0) })},
	opNeg:   {"-", "−", Func1(func(a float64) float64 { return -a })},
	opComma: {",", ",", Func2(func(a, b float64) float64 { return b })},
}

func (op operator) binding() Binding {
	o := operators[op]
	return Binding{Name: o.sym, Value: o.fn, Flags: Pure}
}

func (op operator) symbol(alt bool) string {
	if alt {
		return operators[op].alt
	}
	return operators[op].sym
}

// builtins is the table of functions available to every formula. It is never
// modified after initialization.
var builtins = mustTable(
	Function("abs", Func1(math.Abs), Pure),
	Function("acos", Func1(math.Acos), Pure),
	Function("and", Func7(and), Pure|Variadic),
	Function("asin", Func1(asin), Pure),
	Function("atan", Func1(math.Atan), Pure),
	Function("atan2", Func2(math.Atan2), Pure),
	Function("average", Func7(average), Pure|Variadic),
	Function("bitlshift", Func2(bitlshift), Pure),
	Function("bitrshift", Func2(bitrshift), Pure),
	Function("ceil", Func1(math.Ceil), Pure),
	Function("clamp", Func3(clamp), Pure),
	Function("combin", Func2(ncr), Pure),
	Function("cos", Func1(math.Cos), Pure),
	Function("cosh", Func1(math.Cosh), Pure),
	Function("cot", Func1(cot), Pure),
	Function("e", Func0(func() float64 { return eConst }), Pure),
	Function("exp", Func1(math.Exp), Pure),
	Function("fac", Func1(fac), Pure),
	Function("fact", Func1(fac), Pure),
	Function("false", Func0(func() float64 { return 0 }), Pure),
	Function("floor", Func1(math.Floor), Pure),
	Function("if", Func3(ifThen), Pure),
	Function("ifs", Func6(ifs), Pure|Variadic),
	Function("ln", Func1(math.Log), Pure),
	Function("log10", Func1(math.Log10), Pure),
	Function("max", Func7(max7), Pure|Variadic),
	Function("min", Func7(min7), Pure|Variadic),
	Function("mod", Func2(mod), Pure),
	Function("nan", Func0(func() float64 { return math.NaN() }), Pure),
	Function("ncr", Func2(ncr), Pure),
	Function("not", Func1(func(a float64) float64 { return truth(a == 0) }), Pure),
	Function("npr", Func2(npr), Pure),
	Function("or", Func7(or), Pure|Variadic),
	Function("permut", Func2(npr), Pure),
	Function("pi", Func0(func() float64 { return piConst }), Pure),
	Function("pow", Func2(math.Pow), Pure),
	Function("power", Func2(math.Pow), Pure),
	Function("rand", Func0(rand.Float64), Pure),
	Function("round", Func2(round), Pure|Variadic),
	Function("sign", Func1(sign), Pure),
	Function("sin", Func1(math.Sin), Pure),
	Function("sinh", Func1(math.Sinh), Pure),
	Function("sqr", Func1(func(a float64) float64 { return a * a }), Pure),
	Function("sqrt", Func1(sqrt), Pure),
	Function("sum", Func7(sum), Pure|Variadic),
	Function("tan", Func1(math.Tan), Pure),
	Function("tanh", Func1(math.Tanh), Pure),
	Function("tgamma", Func1(math.Gamma), Pure),
	Function("true", Func0(func() float64 { return 1 }), Pure),
	Function("trunc", Func1(math.Trunc), Pure),
)

func mustTable(bindings ...Binding) *Table {
	t, err := NewTable(bindings...)
	if err != nil {
		panic("formula: bad builtin: " + err.Error())
	}
	return t
}

// Builtins returns the bindings available to every formula, ordered by name.
func Builtins() []Binding {
	return builtins.Bindings()
}

// piConst and eConst are computed at higher precision and rounded once.
var (
	piConst = bigConst(bigfloat.Pi)
	eConst  = bigConst(func(z *big.Float) *big.Float {
		one := new(big.Float).SetPrec(z.Prec()).SetInt64(1)
		return bigfloat.Exp(z, one)
	})
)

func bigConst(f func(z *big.Float) *big.Float) float64 {
	z := new(big.Float).SetPrec(256)
	v, _ := f(z).Float64()
	return v
}

func truth(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// truthy is the condition test of if and ifs.
func truthy(a float64) bool {
	return a != 0 && !math.IsNaN(a) && !math.IsInf(a, 0)
}

func div(a, b float64) float64 {
	if b == 0 {
		Fail("Division by zero.")
	}
	return a / b
}

func mod(a, b float64) float64 {
	if b == 0 {
		Fail("Modulus by zero.")
	}
	return math.Mod(a, b)
}

func sqrt(a float64) float64 {
	if a < 0 {
		Fail("Negative value passed to SQRT.")
	}
	return math.Sqrt(a)
}

func asin(a float64) float64 {
	if !math.IsInf(a, 0) && (a < -1 || a > 1) {
		Fail("Argument passed to ASIN must be between -1 and 1.")
	}
	return math.Asin(a)
}

func cot(a float64) float64 {
	if a == 0 {
		return math.NaN()
	}
	return 1 / math.Tan(a)
}

func sign(a float64) float64 {
	switch {
	case a < 0:
		return -1
	case a > 0:
		return 1
	}
	return 0
}

func clamp(n, a, b float64) float64 {
	if b < a {
		a, b = b, a
	}
	switch {
	case n < a:
		return a
	case b < n:
		return b
	}
	return n
}

func ifThen(c, a, b float64) float64 {
	if truthy(c) {
		return a
	}
	return b
}

func ifs(c1, v1, c2, v2, c3, v3 float64) float64 {
	switch {
	case truthy(c1):
		return v1
	case truthy(c2):
		return v2
	case truthy(c3):
		return v3
	}
	return math.NaN()
}

// Variadic aggregates take their first argument as given and skip NaN in the
// rest, which stand for arguments that were not supplied.

// sum keeps a NaN first argument, so sum(nan(), 1) is NaN rather than 1.
func sum(a, b, c, d, e, f, g float64) float64 {
	r := a
	for _, v := range [...]float64{b, c, d, e, f, g} {
		if !math.IsNaN(v) {
			r += v
		}
	}
	return r
}

func average(a, b, c, d, e, f, g float64) float64 {
	n := 1.0
	for _, v := range [...]float64{b, c, d, e, f, g} {
		if !math.IsNaN(v) {
			n++
		}
	}
	return div(sum(a, b, c, d, e, f, g), n)
}

func max7(a, b, c, d, e, f, g float64) float64 {
	r := a
	for _, v := range [...]float64{b, c, d, e, f, g} {
		if r < v {
			r = v
		}
	}
	return r
}

func min7(a, b, c, d, e, f, g float64) float64 {
	r := a
	for _, v := range [...]float64{b, c, d, e, f, g} {
		if v < r {
			r = v
		}
	}
	return r
}

func and(a, b, c, d, e, f, g float64) float64 {
	r := a
	for _, v := range [...]float64{b, c, d, e, f, g} {
		if !math.IsNaN(v) {
			r = truth(r != 0 && v != 0)
		}
	}
	return r
}

func or(a, b, c, d, e, f, g float64) float64 {
	r := a
	for _, v := range [...]float64{b, c, d, e, f, g} {
		if !math.IsNaN(v) {
			r = truth(r != 0 || v != 0)
		}
	}
	return r
}

// round rounds half away from zero to the given number of decimal places.
// Negative places round to tens, hundreds, and so on.
func round(v, places float64) float64 {
	k := 0.0
	if !math.IsNaN(places) {
		k = math.Trunc(math.Abs(places))
	}
	p := math.Pow(10, k)
	if math.IsInf(p, 0) {
		return math.NaN()
	}
	if places < 0 {
		if v < 0 {
			return math.Ceil(v/p-0.5) * p
		}
		return math.Floor(v/p+0.5) * p
	}
	if v < 0 {
		return math.Ceil(v*p-0.5) / p
	}
	return math.Floor(v*p+0.5) / p
}

// fac, ncr, and npr compute in uint64 with operands limited to uint32.
// Anything larger is +Inf.

func fac(a float64) float64 {
	if a < 0 || math.IsNaN(a) {
		return math.NaN()
	}
	if a > math.MaxUint32 {
		return math.Inf(1)
	}
	n := uint64(a)
	r := uint64(1)
	for i := uint64(1); i <= n; i++ {
		if i > math.MaxUint64/r {
			return math.Inf(1)
		}
		r *= i
	}
	return float64(r)
}

func ncr(n, r float64) float64 {
	if n < 0 || r < 0 || n < r || math.IsNaN(n) || math.IsNaN(r) {
		return math.NaN()
	}
	if n > math.MaxUint32 || r > math.MaxUint32 {
		return math.Inf(1)
	}
	un, ur := uint64(n), uint64(r)
	if ur > un/2 {
		ur = un - ur
	}
	x := uint64(1)
	for i := uint64(1); i <= ur; i++ {
		m := un - ur + i
		if x > math.MaxUint64/m {
			return math.Inf(1)
		}
		x = x * m / i
	}
	return float64(x)
}

func npr(n, r float64) float64 {
	return ncr(n, r) * fac(r)
}

const two64 = 1 << 64

type shiftMsgs struct {
	whole, amount, neg, rng string
}

var (
	lshMsgs = shiftMsgs{
		whole:  "Left side of left shift (<<) operation must be an integer.",
		amount: "Additive expression of left shift (<<) operation must be an integer.",
		neg:    "Left side of left shift (<<) operation cannot be negative.",
		rng:    "Additive expression of left shift (<<) operation must be between 0-63.",
	}
	rshMsgs = shiftMsgs{
		whole:  "Left side of right shift (>>) operation must be an integer.",
		amount: "Additive expression of right shift (>>) operation must be an integer.",
		neg:    "Left side of right shift (>>) operation cannot be negative.",
		rng:    "Additive expression of right shift (>>) operation must be between 0-63.",
	}
)

func checkShift(a, b float64, m *shiftMsgs) {
	switch {
	case math.Floor(a) != a:
		Fail(m.whole)
	case math.Floor(b) != b:
		Fail(m.amount)
	case a < 0:
		Fail(m.neg)
	case b < 0 || b >= 64:
		Fail(m.rng)
	}
}

func shl(a, b float64) float64 {
	checkShift(a, b, &lshMsgs)
	s := uint64(b)
	if a >= two64 || uint64(a) > math.MaxUint64>>s {
		Fail("Overflow in left shift (<<) operation; base number is too large.")
	}
	return float64(uint64(a) << s)
}

func shr(a, b float64) float64 {
	checkShift(a, b, &rshMsgs)
	// Dividing by a power of two is exact, so this matches an integer shift
	// without limiting a to 64 bits.
	return math.Floor(math.Ldexp(a, -int(b)))
}

func bitlshift(a, b float64) float64 {
	if b < 0 {
		return shr(a, -b)
	}
	return shl(a, b)
}

func bitrshift(a, b float64) float64 {
	if b < 0 {
		return shl(a, -b)
	}
	return shr(a, b)
}
