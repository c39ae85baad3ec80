package formula

import (
	"strconv"
	"strings"
)

// node is a node in the tree of a compiled formula. Each node exclusively
// owns its args. The closure context is borrowed from the binding.
type node struct {
	kind  nodeKind
	flags Flags

	// name is the variable or function name, for printing.
	name string
	// op is the operator a function node implements, or opNone for named
	// functions.
	op operator

	num float64
	ref *float64
	fn  Value
	ctx any

	// args has exactly one slot per parameter of fn. Slots for parameters not
	// supplied to variadic functions are nil.
	args []*node
}

type nodeKind int8

const (
	nodeNone nodeKind = iota

	nodeConst   // num
	nodeVar     // *ref
	nodeFunc    // fn(args...)
	nodeClosure // fn(ctx, args...)
)

var nodeKindNames = [...]string{
	nodeNone:    "None",
	nodeConst:   "Const",
	nodeVar:     "Var",
	nodeFunc:    "Func",
	nodeClosure: "Closure",
}

func (k nodeKind) String() string {
	if k < 0 || int(k) >= len(nodeKindNames) {
		return "nodeKind(" + strconv.Itoa(int(k)) + ")"
	}
	return nodeKindNames[k]
}

func constNode(v float64) *node {
	return &node{kind: nodeConst, num: v}
}

func varNode(name string, p *float64) *node {
	return &node{kind: nodeVar, name: name, ref: p}
}

// callNode creates a node calling the function bound by b with room for its
// arguments.
func callNode(b Binding) *node {
	n := &node{
		kind:  nodeFunc,
		flags: b.Flags,
		name:  b.Name,
		fn:    b.Value,
		args:  make([]*node, b.Arity()),
	}
	if b.Kind() == KindClosure {
		n.kind = nodeClosure
		n.ctx = b.Context
	}
	return n
}

// opNode creates a node applying an operator to its operands.
func opNode(op operator, args ...*node) *node {
	n := callNode(op.binding())
	n.op = op
	copy(n.args, args)
	return n
}

// fold replaces n with a constant, discarding its arguments.
func (n *node) fold(v float64) {
	*n = node{kind: nodeConst, num: v}
}

func (n *node) String() string {
	var b strings.Builder
	n.fmt(&b, false, false)
	return b.String()
}

func (n *node) fmt(b *strings.Builder, square, alt bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	switch n.kind {
	case nodeNone:
		// Invalid nodes use invalid characters.
		b.WriteString("$#$")
	case nodeConst:
		b.WriteString(strconv.FormatFloat(n.num, 'g', -1, 64))
	case nodeVar:
		b.WriteString(n.name)
	case nodeFunc, nodeClosure:
		switch {
		case n.op == opNeg:
			b.WriteString(n.op.symbol(alt))
			n.arg(0).fmt(b, !square, alt)
		case n.op != opNone:
			n.arg(0).fmt(b, !square, alt)
			b.WriteByte(' ')
			b.WriteString(n.op.symbol(alt))
			b.WriteByte(' ')
			n.arg(1).fmt(b, !square, alt)
		default:
			b.WriteString(n.name)
			n.fmtargs(b, !square, alt)
		}
	default:
		panic("formula: invalid node kind " + n.kind.String() + " after writing " + b.String())
	}
}

// arg returns an argument for printing, substituting an invalid node for a
// missing one.
func (n *node) arg(i int) *node {
	if i < len(n.args) && n.args[i] != nil {
		return n.args[i]
	}
	return &node{}
}

func (n *node) fmtargs(b *strings.Builder, square, alt bool) {
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	for i, a := range n.args {
		if a == nil {
			// Unsupplied variadic arguments are always trailing.
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		a.fmt(b, !square, alt)
	}
}

// walk calls f on n and each of its descendants in pre-order.
func (n *node) walk(f func(*node)) {
	f(n)
	for _, a := range n.args {
		if a != nil {
			a.walk(f)
		}
	}
}

// size returns the number of nodes in the tree rooted at n.
func (n *node) size() int {
	k := 0
	n.walk(func(*node) { k++ })
	return k
}
