package formula

import (
	"errors"
	"math"
	"runtime"
)

// eval computes the value of the tree rooted at n. Functions may panic with
// errors to signal failures; see evaluate.
func (n *node) eval() float64 {
	switch n.kind {
	case nodeConst:
		return n.num
	case nodeVar:
		return *n.ref
	case nodeFunc, nodeClosure:
		return n.call()
	default:
		panic("formula: invalid tree node " + n.kind.String())
	}
}

// argval evaluates the i'th argument. Arguments that were not supplied are
// NaN.
func (n *node) argval(i int) float64 {
	if i >= len(n.args) || n.args[i] == nil {
		return math.NaN()
	}
	return n.args[i].eval()
}

func (n *node) call() float64 {
	a := n.argval
	switch f := n.fn.(type) {
	case Func0:
		return f()
	case Func1:
		return f(a(0))
	case Func2:
		return f(a(0), a(1))
	case Func3:
		return f(a(0), a(1), a(2))
	case Func4:
		return f(a(0), a(1), a(2), a(3))
	case Func5:
		return f(a(0), a(1), a(2), a(3), a(4))
	case Func6:
		return f(a(0), a(1), a(2), a(3), a(4), a(5))
	case Func7:
		return f(a(0), a(1), a(2), a(3), a(4), a(5), a(6))
	case Closure0:
		return f(n.ctx)
	case Closure1:
		return f(n.ctx, a(0))
	case Closure2:
		return f(n.ctx, a(0), a(1))
	case Closure3:
		return f(n.ctx, a(0), a(1), a(2))
	case Closure4:
		return f(n.ctx, a(0), a(1), a(2), a(3))
	case Closure5:
		return f(n.ctx, a(0), a(1), a(2), a(3), a(4))
	case Closure6:
		return f(n.ctx, a(0), a(1), a(2), a(3), a(4), a(5))
	case Closure7:
		return f(n.ctx, a(0), a(1), a(2), a(3), a(4), a(5), a(6))
	default:
		return math.NaN()
	}
}

// evaluate evaluates n, converting failures raised by functions into errors.
// A function fails by panicking with an error, usually an *EvalError from
// Fail. Runtime errors and panics with values that are not errors are not
// failures and continue to panic.
func evaluate(n *node) (v float64, err error) {
	defer recoverFailure(&err)
	return n.eval(), nil
}

// recoverFailure recovers a function failure into *err.
func recoverFailure(err *error) {
	r := recover()
	if r == nil {
		return
	}
	e, ok := r.(error)
	if !ok {
		panic(r)
	}
	var re runtime.Error
	if errors.As(e, &re) {
		panic(r)
	}
	*err = e
}
