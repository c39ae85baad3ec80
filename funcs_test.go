package formula

import (
	"errors"
	"math"
	"sort"
	"strings"
	"testing"
)

// callBuiltin calls a builtin function with constant arguments.
func callBuiltin(name string, args ...float64) (float64, error) {
	b, ok := builtins.Find(name)
	if !ok {
		return 0, errors.New("no builtin " + name)
	}
	n := callNode(b)
	for i, a := range args {
		n.args[i] = constNode(a)
	}
	return evaluate(n)
}

func TestBuiltins(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)
	cases := []struct {
		name string
		args []float64
		want float64
	}{
		{"abs", []float64{-2}, 2},
		{"acos", []float64{1}, 0},
		{"asin", []float64{1}, math.Pi / 2},
		{"atan2", []float64{1, 1}, math.Pi / 4},
		{"ceil", []float64{1.2}, 2},
		{"clamp", []float64{5, 1, 3}, 3},
		{"clamp", []float64{0, 3, 1}, 1},
		{"clamp", []float64{2, 1, 3}, 2},
		{"combin", []float64{5, 2}, 10},
		{"cot", []float64{0}, nan},
		{"exp", []float64{0}, 1},
		{"fac", []float64{0}, 1},
		{"fac", []float64{5}, 120},
		{"fac", []float64{20}, 2432902008176640000},
		{"fac", []float64{300}, inf},
		{"fac", []float64{-1}, nan},
		{"fact", []float64{3}, 6},
		{"false", nil, 0},
		{"floor", []float64{-1.5}, -2},
		{"if", []float64{1, 2, 3}, 2},
		{"if", []float64{0, 2, 3}, 3},
		{"if", []float64{nan, 2, 3}, 3},
		{"if", []float64{inf, 2, 3}, 3},
		{"if", []float64{-0.5, 2, 3}, 2},
		{"ifs", []float64{0, 1, 1, 2}, 2},
		{"ifs", []float64{0, 1, 0, 2, 1, 3}, 3},
		{"ifs", []float64{0, 1, 0, 2}, nan},
		{"ln", []float64{1}, 0},
		{"log10", []float64{1000}, 3},
		{"mod", []float64{7, 3}, 1},
		{"mod", []float64{-7, 3}, -1},
		{"nan", nil, nan},
		{"ncr", []float64{5, 2}, 10},
		{"ncr", []float64{5, 5}, 1},
		{"ncr", []float64{2, 5}, nan},
		{"ncr", []float64{1e10, 2}, inf},
		{"not", []float64{0}, 1},
		{"not", []float64{2}, 0},
		{"npr", []float64{5, 2}, 20},
		{"permut", []float64{4, 4}, 24},
		{"pow", []float64{2, 10}, 1024},
		{"power", []float64{9, 0.5}, 3},
		{"sign", []float64{-3}, -1},
		{"sign", []float64{0}, 0},
		{"sign", []float64{7}, 1},
		{"sqr", []float64{-3}, 9},
		{"sqrt", []float64{16}, 4},
		{"tgamma", []float64{5}, 24},
		{"true", nil, 1},
		{"trunc", []float64{-1.7}, -1},
		// aggregates
		{"sum", []float64{9, 9, 9}, 27},
		{"sum", []float64{4}, 4},
		{"sum", []float64{nan, 1}, nan},
		{"average", []float64{nan, 2}, nan},
		{"sum", []float64{1, 2, 3, 4, 5, 6, 7}, 28},
		{"average", []float64{1, 2, 3, 4, 5}, 3},
		{"average", []float64{4}, 4},
		{"max", []float64{1, 5, 3}, 5},
		{"max", []float64{-1}, -1},
		{"min", []float64{4, 2, 8}, 2},
		{"min", []float64{-4, 2}, -4},
		{"and", []float64{1, 1}, 1},
		{"and", []float64{1, 0, 1}, 0},
		{"and", []float64{5}, 5},
		{"or", []float64{0, 0}, 0},
		{"or", []float64{0, 0, 3}, 1},
		// rounding
		{"round", []float64{9.6}, 10},
		{"round", []float64{9.4}, 9},
		{"round", []float64{-2.5}, -3},
		{"round", []float64{2.5}, 3},
		{"round", []float64{3.14159, 2}, 3.14},
		{"round", []float64{21.5, -1}, 20},
		{"round", []float64{-155, -2}, -200},
		{"round", []float64{1, 400}, nan},
		// shifts
		{"bitlshift", []float64{1, 3}, 8},
		{"bitlshift", []float64{1, 63}, 1 << 63},
		{"bitlshift", []float64{8, -3}, 1},
		{"bitrshift", []float64{8, 3}, 1},
		{"bitrshift", []float64{7, 1}, 3},
		{"bitrshift", []float64{1, -4}, 16},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := callBuiltin(c.name, c.args...)
			if err != nil {
				t.Fatalf("%s%v failed: %v", c.name, c.args, err)
			}
			if got != c.want && !(math.IsNaN(got) && math.IsNaN(c.want)) {
				if math.Abs(got-c.want) > 1e-12*math.Abs(c.want) {
					t.Errorf("%s%v: want %g, got %g", c.name, c.args, c.want, got)
				}
			}
		})
	}
}

func TestBuiltinFailures(t *testing.T) {
	cases := []struct {
		name string
		args []float64
		msg  string
	}{
		{"sqrt", []float64{-1}, "Negative value passed to SQRT."},
		{"asin", []float64{2}, "Argument passed to ASIN must be between -1 and 1."},
		{"mod", []float64{1, 0}, "Modulus by zero."},
		{"bitlshift", []float64{1.5, 1}, lshMsgs.whole},
		{"bitlshift", []float64{1, 1.5}, lshMsgs.amount},
		{"bitlshift", []float64{-1, 2}, lshMsgs.neg},
		{"bitlshift", []float64{1, 64}, lshMsgs.rng},
		{"bitlshift", []float64{3, 63}, "Overflow in left shift (<<) operation; base number is too large."},
		{"bitlshift", []float64{1 << 64, 0}, "Overflow in left shift (<<) operation; base number is too large."},
		{"bitrshift", []float64{1.5, 1}, rshMsgs.whole},
		{"bitrshift", []float64{1, 1.5}, rshMsgs.amount},
		{"bitrshift", []float64{-8, 1}, rshMsgs.neg},
		{"bitrshift", []float64{8, 64}, rshMsgs.rng},
		{"bitrshift", []float64{1, -64}, lshMsgs.rng},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := callBuiltin(c.name, c.args...)
			if err == nil {
				t.Fatalf("%s%v succeeded with %g", c.name, c.args, got)
			}
			var ee *EvalError
			if !errors.As(err, &ee) {
				t.Fatalf("%s%v: want *EvalError, got %T (%v)", c.name, c.args, err, err)
			}
			if ee.Msg != c.msg {
				t.Errorf("%s%v: want message %q, got %q", c.name, c.args, c.msg, ee.Msg)
			}
		})
	}
}

func TestOperators(t *testing.T) {
	cases := []struct {
		op   operator
		a, b float64
		want float64
	}{
		{opAdd, 1, 2, 3},
		{opSub, 1, 2, -1},
		{opMul, 3, 4, 12},
		{opDiv, 1, 4, 0.25},
		{opMod, 7, 4, 3},
		{opPow, 2, 3, 8},
		{opShl, 1, 4, 16},
		{opShr, 16, 4, 1},
		{opEq, 1, 1, 1},
		{opEq, 1, 2, 0},
		{opNe, 1, 2, 1},
		{opLt, 1, 2, 1},
		{opLe, 2, 2, 1},
		{opGt, 1, 2, 0},
		{opGe, 2, 2, 1},
		{opAnd, 2, 0, 0},
		{opAnd, 2, -1, 1},
		{opOr, 0, 0, 0},
		{opOr, 0, 3, 1},
		{opComma, 1, 2, 2},
	}
	for _, c := range cases {
		t.Run(c.op.symbol(false), func(t *testing.T) {
			got, err := evaluate(opNode(c.op, constNode(c.a), constNode(c.b)))
			if err != nil {
				t.Fatal(err)
			}
			if got != c.want {
				t.Errorf("%g %s %g: want %g, got %g", c.a, c.op.symbol(false), c.b, c.want, got)
			}
		})
	}
	got, err := evaluate(opNode(opDiv, constNode(1), constNode(0)))
	if err == nil || err.Error() != "Division by zero." {
		t.Errorf("1/0: want division by zero, got %g, %v", got, err)
	}
}

func TestConstants(t *testing.T) {
	if math.Abs(piConst-math.Pi) > 1e-15 {
		t.Errorf("pi: want %v, got %v", math.Pi, piConst)
	}
	if math.Abs(eConst-math.E) > 1e-15 {
		t.Errorf("e: want %v, got %v", math.E, eConst)
	}
}

func TestBuiltinTable(t *testing.T) {
	b := Builtins()
	if len(b) != 50 {
		t.Errorf("want 50 builtins, got %d", len(b))
	}
	names := builtins.Names()
	if !sort.SliceIsSorted(names, func(i, j int) bool { return compareNames(names[i], names[j]) < 0 }) {
		t.Errorf("builtins out of order: %v", names)
	}
	for _, v := range b {
		if v.Flags&Pure == 0 {
			t.Errorf("builtin %s is not pure", v.Name)
		}
		if v.Flags&Variadic != 0 && v.Arity() < 2 {
			t.Errorf("variadic builtin %s has arity %d", v.Name, v.Arity())
		}
		if strings.ToLower(v.Name) != v.Name {
			t.Errorf("builtin %s is not lowercase", v.Name)
		}
	}
	// The copy belongs to the caller.
	b[0].Name = "zzz"
	if _, ok := builtins.Find("zzz"); ok {
		t.Error("modifying Builtins changed the table")
	}
}

func TestFail(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(*EvalError)
		if !ok {
			t.Fatalf("want *EvalError panic, got %v", r)
		}
		if err.Error() != "boom" {
			t.Errorf("wrong message %q", err.Error())
		}
	}()
	Fail("boom")
}

func TestRecoverFailure(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		want := errors.New("custom")
		_, err := evaluate(callNode(Function("f", Func0(func() float64 { panic(want) }), 0)))
		if err != want {
			t.Errorf("want %v, got %v", want, err)
		}
	})
	t.Run("string", func(t *testing.T) {
		defer func() {
			if r := recover(); r != "not an error" {
				t.Errorf("wrong panic %v", r)
			}
		}()
		evaluate(callNode(Function("f", Func0(func() float64 { panic("not an error") }), 0)))
		t.Error("evaluate returned")
	})
	t.Run("runtime", func(t *testing.T) {
		defer func() {
			if _, ok := recover().(interface{ RuntimeError() }); !ok {
				t.Error("runtime error was recovered")
			}
		}()
		var s []float64
		evaluate(callNode(Function("f", Func1(func(a float64) float64 { return s[int(a)] }), 0)))
		t.Error("evaluate returned")
	})
}
