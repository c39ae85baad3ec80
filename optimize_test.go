package formula

import (
	"errors"
	"strconv"
	"testing"
)

func TestOptimize(t *testing.T) {
	cases := []struct {
		name  string
		src   string
		folds int
		// want is the tree after optimizing.
		want string
	}{
		{"const", "1", 0, "(1)"},
		{"var", "x", 0, "(x)"},
		{"sum", "1+2", 1, "(3)"},
		{"nested", "1+2*3", 2, "(7)"},
		{"partial", "x+1*2", 1, "([x] + [2])"},
		{"call", "sin(0)+x", 1, "([0] + [x])"},
		{"nullary", "pi*2", 2, "(" + strconv.FormatFloat(piConst*2, 'g', -1, 64) + ")"},
		{"variadic", "sum(1,2)", 1, "(3)"},
		{"neg", "-(1+1)", 2, "(-2)"},
		{"closure", "scale 4", 1, "(8)"},
		{"impure", "impure(1)+1", 0, "([impure([1])] + [1])"},
		{"impurearg", "impure(1+2)", 0, "(impure[([1] + [2])])"},
		{"insideimpure", "impure(x)*(2+3)", 1, "([impure([x])] * [5])"},
		{"list", "1,x", 0, "([1] , [x])"},
		{"listconst", "x,1+1", 1, "([x] , [2])"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			n, err := parse(c.src, '.', ',', false, testLookup)
			if err != nil {
				t.Fatalf("error parsing %q: %v", c.src, err)
			}
			if got := n.optimize(); got != c.folds {
				t.Errorf("%q folded wrong number of calls: want %d, got %d", c.src, c.folds, got)
			}
			if got := n.String(); got != c.want {
				t.Errorf("%q optimized wrong: want %s, got %s", c.src, c.want, got)
			}
		})
	}
}

func TestOptimizeKeepsValue(t *testing.T) {
	testX, testY = 1.25, -3
	defer func() { testX, testY = 0, 0 }()
	srcs := []string{
		"x*2+y",
		"sqrt(16)*x",
		"atan2(y, 2^2)",
		"sum(x, 1, 2, y)",
		"if(x>1, 10*10, y)",
		"impure(2)^x",
		"--x + -(-y)",
	}
	for _, src := range srcs {
		t.Run(src, func(t *testing.T) {
			a, err := parse(src, '.', ',', false, testLookup)
			if err != nil {
				t.Fatalf("error parsing %q: %v", src, err)
			}
			b, _ := parse(src, '.', ',', false, testLookup)
			b.optimize()
			want, err := evaluate(a)
			if err != nil {
				t.Fatal(err)
			}
			got, err := evaluate(b)
			if err != nil {
				t.Fatal(err)
			}
			if got != want {
				t.Errorf("optimizing %q changed the result: want %g, got %g", src, want, got)
			}
		})
	}
}

func TestOptimizeFails(t *testing.T) {
	n, err := parse("x + 1/0", '.', ',', false, testLookup)
	if err != nil {
		t.Fatal(err)
	}
	func() {
		defer recoverFailure(&err)
		n.optimize()
	}()
	var ee *EvalError
	if !errors.As(err, &ee) {
		t.Fatalf("want *EvalError, got %v", err)
	}
	if ee.Msg != "Division by zero." {
		t.Errorf("wrong message: %q", ee.Msg)
	}
}
