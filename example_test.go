package formula_test

import (
	"fmt"
	"math"
	"strings"

	"github.com/zephyrtronium/formula"
)

func Example() {
	var x float64
	p := formula.New(formula.WithBindings(formula.Variable("x", &x)))
	if !p.Compile("3*x^2 - 2*x + 1") {
		fmt.Println(p.LastError())
		return
	}
	for x = 0; x < 3; x++ {
		fmt.Println(p.Evaluate())
	}
	// Output:
	// 1
	// 2
	// 9
}

func ExampleParser_LastErrorPosition() {
	p := formula.New()
	p.Compile("sin(1) + cos(2")
	fmt.Println(p.LastErrorPosition())
	fmt.Println(p.LastErrorMessage())
	// Output:
	// 13
	// 13: open bracket ( with no close bracket
}

func ExampleParser_String() {
	var x float64
	p := formula.New(formula.WithBindings(formula.Variable("x", &x)))
	p.Compile("sqrt(4) * (x + 2^3)")
	fmt.Println(p)
	fmt.Println(p.Pretty())
	// Output:
	// ([2] * [(x) + (8)])
	// ([2] × [(x) + (8)])
}

func ExampleParser_SetUnknownSymbolResolver() {
	p := formula.New()
	p.SetUnknownSymbolResolver(func(name string) (float64, error) {
		if strings.HasPrefix(strings.ToLower(name), "cell.") {
			return float64(len(name)), nil
		}
		return math.NaN(), nil
	}, false)
	fmt.Println(p.EvaluateString("cell.a1 + cell.b22"))
	fmt.Println(p.EvaluateString("other"), p.LastErrorMessage())
	// Output:
	// 15
	// NaN 4: unknown symbol "other"
}

func ExampleClosure() {
	type account struct {
		rate float64
	}
	acct := &account{rate: 0.05}
	interest := func(ctx any, balance float64) float64 {
		return balance * ctx.(*account).rate
	}
	balance := 200.0
	p := formula.New(formula.WithBindings(
		formula.Variable("balance", &balance),
		formula.Closure("interest", formula.Closure1(interest), acct, 0),
	))
	p.Compile("balance + interest(balance)")
	fmt.Println(p.Evaluate())
	acct.rate = 0.1
	fmt.Println(p.Evaluate())
	// Output:
	// 210
	// 220
}

func ExampleFail() {
	checked := func(a float64) float64 {
		if a > 100 {
			formula.Fail("Value too large.")
		}
		return a
	}
	var x float64
	p := formula.New(formula.WithBindings(
		formula.Variable("x", &x),
		formula.Function("checked", formula.Func1(checked), formula.Pure),
	))
	p.Compile("checked(x) * 2")
	x = 50
	fmt.Println(p.Evaluate(), p.Success())
	x = 500
	fmt.Println(p.Evaluate(), p.Success(), p.LastErrorMessage())
	// Output:
	// 100 true
	// NaN false Value too large.
}

func ExampleParser_SetConstant() {
	p := formula.New()
	p.SetConstant("rate", 5)
	fmt.Println(p.EvaluateString("rate * 2"))
	p.SetConstant("RATE", 7)
	fmt.Println(p.Evaluate())
	// Output:
	// 10
	// 14
}
