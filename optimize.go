package formula

// optimize folds every call of a pure function whose arguments are all
// constant into a constant, working from the leaves up. It returns the number
// of calls folded. Calls of impure functions, along with their arguments, are
// left for evaluation. Folding evaluates functions, so it panics the same ways
// eval does.
func (n *node) optimize() int {
	if n.kind != nodeFunc && n.kind != nodeClosure || n.flags&Pure == 0 {
		return 0
	}
	k := 0
	known := true
	for _, a := range n.args {
		if a == nil {
			// Unsupplied variadic arguments are always trailing.
			break
		}
		k += a.optimize()
		if a.kind != nodeConst {
			known = false
		}
	}
	if known {
		n.fold(n.eval())
		k++
	}
	return k
}
