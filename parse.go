package formula

// list    = expr { sep expr }
// expr    = level2 { ("&" | "|") level2 }
// level2  = level3 { ("=" | "==" | "!=" | "<>" | "<" | "<=" | ">" | ">=") level3 }
// level3  = level4 { ("<<" | ">>") level4 }
// level4  = term { ("+" | "-") term }
// term    = factor { ("*" | "/" | "%") factor }
// factor  = power { ("^" | "**") power }
//         | { "+" | "-" } base [ ("^" | "**") factor ]    (grouping from the right)
// power   = { "+" | "-" } base
// base    = num | var | "(" list ")" | func0 [ "(" ")" ] | func1 power | funcN "(" expr { sep expr } ")"

// parser holds the state of a single parse.
type parser struct {
	scan *lexer
	// tok is the current token.
	tok lexToken
	// powRight makes exponentiation group right to left.
	powRight bool
}

// parse parses a formula into a tree.
func parse(src string, decimal, list byte, powRight bool, lookup lookupFunc) (*node, error) {
	p := parser{
		scan:     lex(src, decimal, list, lookup),
		powRight: powRight,
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	n, err := p.parseList()
	if err != nil {
		return nil, err
	}
	switch p.tok.kind {
	case tokenEnd:
		return n, nil
	case tokenClose:
		return nil, &BracketError{Col: p.scan.errpos(), Right: p.tok.text}
	default:
		return nil, &SyntaxError{Col: p.scan.errpos(), Token: p.tok.text}
	}
}

// advance scans the next token.
func (p *parser) advance() error {
	tok, err := p.scan.token()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

// infix returns the current token's operator if it is an infix token.
func (p *parser) infix() operator {
	if p.tok.kind != tokenInfix {
		return opNone
	}
	return p.tok.op
}

// level gives the binding level of a binary operator. Higher levels bind
// more tightly. Operators that are not binary have level 0.
func level(op operator) int8 {
	switch op {
	case opAnd, opOr:
		return levelLogic
	case opEq, opNe, opLt, opLe, opGt, opGe:
		return levelCompare
	case opShl, opShr:
		return levelShift
	case opAdd, opSub:
		return levelSum
	case opMul, opDiv, opMod:
		return levelTerm
	case opPow:
		return levelPow
	default:
		return 0
	}
}

const (
	levelLogic int8 = 1 + iota
	levelCompare
	levelShift
	levelSum
	levelTerm
	levelPow
)

func (p *parser) parseList() (*node, error) {
	n, err := p.parseBinary(levelLogic)
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokenSep {
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseBinary(levelLogic)
		if err != nil {
			return nil, err
		}
		n = opNode(opComma, n, rhs)
	}
	return n, nil
}

// parseBinary parses a left-associative chain of operators of the given
// level and the operands binding more tightly between them.
func (p *parser) parseBinary(lv int8) (*node, error) {
	if lv == levelPow {
		return p.parseFactor()
	}
	n, err := p.parseBinary(lv + 1)
	if err != nil {
		return nil, err
	}
	for op := p.infix(); op != opNone && level(op) == lv; op = p.infix() {
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseBinary(lv + 1)
		if err != nil {
			return nil, err
		}
		n = opNode(op, n, rhs)
	}
	return n, nil
}

// parseFactor parses a chain of exponentiations.
func (p *parser) parseFactor() (*node, error) {
	if p.powRight {
		return p.parseFactorRight()
	}
	n, err := p.parsePower()
	if err != nil {
		return nil, err
	}
	for p.infix() == opPow {
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		n = opNode(opPow, n, rhs)
	}
	return n, nil
}

// parseFactorRight parses a chain of exponentiations grouping from the right.
// Signs apply to the rest of the chain, so -2^2 is -(2^2) and 2^-3^2 is
// 2^-(3^2). A negated base in parentheses stays the base.
func (p *parser) parseFactorRight() (*node, error) {
	neg, err := p.parseSigns()
	if err != nil {
		return nil, err
	}
	n, err := p.parseBase()
	if err != nil {
		return nil, err
	}
	if p.infix() == opPow {
		if err := p.advance(); err != nil {
			return nil, err
		}
		rhs, err := p.parseFactorRight()
		if err != nil {
			return nil, err
		}
		n = opNode(opPow, n, rhs)
	}
	if neg {
		n = opNode(opNeg, n)
	}
	return n, nil
}

// parsePower parses any number of unary signs followed by a base.
func (p *parser) parsePower() (*node, error) {
	neg, err := p.parseSigns()
	if err != nil {
		return nil, err
	}
	n, err := p.parseBase()
	if err != nil {
		return nil, err
	}
	if neg {
		n = opNode(opNeg, n)
	}
	return n, nil
}

// parseSigns consumes unary signs and reports whether they negate.
func (p *parser) parseSigns() (bool, error) {
	neg := false
	for op := p.infix(); op == opAdd || op == opSub; op = p.infix() {
		if op == opSub {
			neg = !neg
		}
		if err := p.advance(); err != nil {
			return false, err
		}
	}
	return neg, nil
}

func (p *parser) parseBase() (*node, error) {
	var n *node
	switch p.tok.kind {
	case tokenOpen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		var err error
		n, err = p.parseList()
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokenClose {
			return nil, p.unclosed()
		}
	case tokenNum:
		n = constNode(p.tok.num)
	case tokenVar:
		n = varNode(p.tok.bind.Name, p.tok.bind.Value.(Ref).P)
	case tokenFunc:
		return p.parseCall()
	case tokenEnd:
		return nil, &EmptyExpressionError{Col: p.scan.errpos()}
	case tokenSep, tokenClose:
		return nil, &EmptyExpressionError{Col: p.scan.errpos(), End: p.tok.text}
	case tokenInfix:
		return nil, &OperatorError{Col: p.scan.errpos(), Operator: p.tok.text}
	default:
		panic("formula: unknown token: " + p.tok.String())
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return n, nil
}

// parseCall parses a call of the function in the current token.
func (p *parser) parseCall() (*node, error) {
	b := p.tok.bind
	n := callNode(b)
	if err := p.advance(); err != nil {
		return nil, err
	}
	arity := len(n.args)
	switch arity {
	case 0:
		// The parentheses are optional.
		if p.tok.kind != tokenOpen {
			return n, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch p.tok.kind {
		case tokenClose:
		case tokenEnd:
			return nil, p.unclosed()
		default:
			return nil, &CallError{Col: p.scan.errpos(), Func: b.Name, Len: 1}
		}
	case 1:
		// The argument binds like a signed base, so sin x^2 is (sin x)^2.
		arg, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		n.args[0] = arg
		return n, nil
	default:
		if p.tok.kind != tokenOpen {
			return nil, &CallError{Col: p.scan.errpos(), Func: b.Name}
		}
		i := 0
		for ; i < arity; i++ {
			if err := p.advance(); err != nil {
				return nil, err
			}
			arg, err := p.parseBinary(levelLogic)
			if err != nil {
				return nil, err
			}
			n.args[i] = arg
			if p.tok.kind != tokenSep {
				break
			}
		}
		switch p.tok.kind {
		case tokenClose:
			if i != arity-1 && b.Flags&Variadic == 0 {
				return nil, &CallError{Col: p.scan.errpos(), Func: b.Name, Len: i + 1}
			}
		case tokenSep:
			return nil, &CallError{Col: p.scan.errpos(), Func: b.Name, Len: arity + 1}
		default:
			return nil, p.unclosed()
		}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return n, nil
}

// unclosed returns an error for a token found where a close bracket was
// expected.
func (p *parser) unclosed() error {
	if p.tok.kind == tokenEnd {
		return &BracketError{Col: p.scan.errpos(), Left: "("}
	}
	return &SyntaxError{Col: p.scan.errpos(), Token: p.tok.text}
}
