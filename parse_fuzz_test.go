//go:build go1.18
// +build go1.18

package formula_test

import (
	"testing"

	"github.com/zephyrtronium/formula"
)

func FuzzCompile(f *testing.F) {
	f.Add("x")
	f.Add("y")
	f.Add("1*2")
	f.Add("sum(1, x, -y^2)")
	f.Add("if(x<>y;1;0) /* c */")
	f.Add("=atan2(x,y)//z")
	f.Fuzz(func(t *testing.T, s string) {
		var x, y float64
		p := formula.New(formula.WithBindings(formula.Variable("x", &x), formula.Variable("y", &y)))
		if p.Compile(s) {
			if p.LastErrorPosition() != formula.NoPosition {
				t.Errorf("%q compiled with error position %d", s, p.LastErrorPosition())
			}
			_ = p.String()
			return
		}
		pos := p.LastErrorPosition()
		if pos < formula.NoPosition || pos > len(p.Expression()) {
			t.Errorf("%q: error position %d outside %q", s, pos, p.Expression())
		}
		if p.LastErrorMessage() == "" {
			t.Errorf("%q: failed without a message", s)
		}
	})
}
