package formula

import (
	"errors"
	"math/big"
	"strconv"
	"strings"
)

type lexToken struct {
	kind tokenKind
	// text is the source text of the token.
	text string
	// num is the value of a tokenNum.
	num float64
	// op is the operator of a tokenInfix.
	op operator
	// bind is the binding of a tokenVar or tokenFunc, and of a tokenNum that
	// names a constant.
	bind Binding
	// pos is the byte offset of the start of the token.
	pos int
}

func (t lexToken) String() string {
	return t.kind.String() + ":" + t.text + "@" + strconv.Itoa(t.pos)
}

type tokenKind int8

const (
	tokenNull tokenKind = iota
	// tokenEnd indicates the end of the input.
	tokenEnd
	// tokenSep is the list separator.
	tokenSep
	// tokenOpen is an open parenthesis.
	tokenOpen
	// tokenClose is a close parenthesis.
	tokenClose
	// tokenNum is a number literal or a named constant.
	tokenNum
	// tokenVar is a name bound to a host variable.
	tokenVar
	// tokenFunc is a name bound to a function or closure.
	tokenFunc
	// tokenInfix is an operator.
	tokenInfix
)

var tokenKindNames = [...]string{
	tokenNull:  "Null",
	tokenEnd:   "End",
	tokenSep:   "Sep",
	tokenOpen:  "Open",
	tokenClose: "Close",
	tokenNum:   "Num",
	tokenVar:   "Var",
	tokenFunc:  "Func",
	tokenInfix: "Infix",
}

func (k tokenKind) String() string {
	if k < 0 || int(k) >= len(tokenKindNames) {
		return "tokenKind(" + strconv.Itoa(int(k)) + ")"
	}
	return tokenKindNames[k]
}

// lookupFunc finds the binding for a name. If there is none, ok is false and
// err optionally explains why.
type lookupFunc func(name string) (b Binding, ok bool, err error)

type lexer struct {
	src  string
	next int

	decimal byte
	list    byte
	lookup  lookupFunc
}

func lex(src string, decimal, list byte, lookup lookupFunc) *lexer {
	return &lexer{
		src:     src,
		decimal: decimal,
		list:    list,
		lookup:  lookup,
	}
}

// errpos is the position reported for an error found at the current cursor:
// the last byte scanned, or 0 if nothing has been scanned.
func (l *lexer) errpos() int {
	if l.next > 0 {
		return l.next - 1
	}
	return 0
}

// token scans the next token from the input. At the end of the input, the
// result is a tokenEnd token, however many times token is called.
func (l *lexer) token() (lexToken, error) {
	for l.next < len(l.src) {
		c := l.src[l.next]
		switch {
		case c == ' ', c == '\t', c == '\n', c == '\r':
			l.next++
		case isDigit(c), c == l.decimal:
			return l.scanNum()
		case isLetter(c), c == '_':
			return l.scanIdent()
		default:
			return l.scanOp()
		}
	}
	return lexToken{kind: tokenEnd, pos: l.next}, nil
}

func (l *lexer) scanNum() (lexToken, error) {
	start := l.next
	if tok, ok := l.scanHex(); ok {
		return tok, nil
	}
	dig := false
	for l.next < len(l.src) && isDigit(l.src[l.next]) {
		l.next++
		dig = true
	}
	if l.next < len(l.src) && l.src[l.next] == l.decimal {
		l.next++
		for l.next < len(l.src) && isDigit(l.src[l.next]) {
			l.next++
			dig = true
		}
	}
	if !dig {
		return lexToken{}, l.error(start, "number")
	}
	// An exponent only belongs to the number if it has digits. Otherwise the
	// e begins a name, like the constant e.
	if l.next < len(l.src) && (l.src[l.next] == 'e' || l.src[l.next] == 'E') {
		k := l.next + 1
		if k < len(l.src) && (l.src[k] == '+' || l.src[k] == '-') {
			k++
		}
		if k < len(l.src) && isDigit(l.src[k]) {
			for k < len(l.src) && isDigit(l.src[k]) {
				k++
			}
			l.next = k
		}
	}
	tok := lexToken{kind: tokenNum, text: l.src[start:l.next], pos: start}
	s := tok.text
	if l.decimal != '.' {
		s = strings.Replace(s, string(l.decimal), ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		// Out of range values are already ±Inf or 0.
		return lexToken{}, l.error(start, "number")
	}
	tok.num = v
	return tok, nil
}

// scanHex scans a hexadecimal integer like 0x1F. It reports false and
// consumes nothing if the input does not begin with 0x and a hex digit.
func (l *lexer) scanHex() (lexToken, bool) {
	start := l.next
	k := start + 2
	if k >= len(l.src) || l.src[start] != '0' || (l.src[start+1] != 'x' && l.src[start+1] != 'X') || !isHexDigit(l.src[k]) {
		return lexToken{}, false
	}
	for k < len(l.src) && isHexDigit(l.src[k]) {
		k++
	}
	l.next = k
	tok := lexToken{kind: tokenNum, text: l.src[start:k], pos: start}
	// Rounds correctly however many digits there are.
	z, _ := new(big.Int).SetString(tok.text[2:], 16)
	tok.num, _ = new(big.Float).SetInt(z).Float64()
	return tok, true
}

func isHexDigit(c byte) bool {
	return isDigit(c) || 'a' <= lower(c) && lower(c) <= 'f'
}

func (l *lexer) scanIdent() (lexToken, error) {
	start := l.next
	for l.next < len(l.src) && isNameChar(l.src[l.next]) {
		l.next++
	}
	name := l.src[start:l.next]
	b, ok, err := l.lookup(name)
	if !ok {
		return lexToken{}, &SymbolError{Col: l.errpos(), Name: name, Err: err}
	}
	tok := lexToken{text: name, bind: b, pos: start}
	switch v := b.Value.(type) {
	case Const:
		tok.kind = tokenNum
		tok.num = float64(v)
	case Ref:
		tok.kind = tokenVar
	default:
		tok.kind = tokenFunc
	}
	return tok, nil
}

func (l *lexer) scanOp() (lexToken, error) {
	start := l.next
	c := l.src[l.next]
	l.next++
	var peek byte
	if l.next < len(l.src) {
		peek = l.src[l.next]
	}
	tok := lexToken{kind: tokenInfix, pos: start}
	// Two-character operators take precedence over their prefixes.
	two := func(op operator) {
		l.next++
		tok.op = op
	}
	switch {
	case c == '(':
		tok.kind = tokenOpen
	case c == ')':
		tok.kind = tokenClose
	case c == l.list:
		tok.kind = tokenSep
	case c == '+':
		tok.op = opAdd
	case c == '-':
		tok.op = opSub
	case c == '*' && peek == '*':
		two(opPow)
	case c == '*':
		tok.op = opMul
	case c == '/':
		tok.op = opDiv
	case c == '^':
		tok.op = opPow
	case c == '%':
		tok.op = opMod
	case c == '<' && peek == '<':
		two(opShl)
	case c == '<' && peek == '>':
		two(opNe)
	case c == '<' && peek == '=':
		two(opLe)
	case c == '<':
		tok.op = opLt
	case c == '>' && peek == '>':
		two(opShr)
	case c == '>' && peek == '=':
		two(opGe)
	case c == '>':
		tok.op = opGt
	case c == '=' && peek == '=':
		two(opEq)
	case c == '=':
		tok.op = opEq
	case c == '!' && peek == '=':
		two(opNe)
	case c == '&':
		tok.op = opAnd
	case c == '|':
		tok.op = opOr
	default:
		return lexToken{}, l.error(start, "")
	}
	tok.text = l.src[start:l.next]
	return tok, nil
}

// error creates a LexError for the token starting at start. The cursor must
// have passed start.
func (l *lexer) error(start int, kind string) error {
	if l.next <= start {
		l.next = start + 1
	}
	return &LexError{
		Text: l.src[start:l.next],
		Kind: kind,
		Col:  l.errpos(),
	}
}

// LexError indicates an invalid token. It implements InputError.
type LexError struct {
	// Text is the source text of the invalid token.
	Text string
	// Kind is the type of token the lexer was scanning. This is "number" or
	// the empty string if the character did not begin any token.
	Kind string
	// Col is the byte offset of the last character scanned.
	Col int
}

func (err *LexError) Error() string {
	if err.Kind == "" {
		return errpos(err.Col, "invalid character "+strconv.Quote(err.Text))
	}
	return errpos(err.Col, "invalid "+err.Kind+" "+strconv.Quote(err.Text))
}

func (err *LexError) Pos() int {
	return err.Col
}
