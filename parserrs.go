package formula

import "strconv"

// OperatorError is an error indicating an operator where a term was expected.
// It implements InputError.
type OperatorError struct {
	// Col is the position of the operator.
	Col int
	// Operator is the operator that was not understood.
	Operator string
}

func (err *OperatorError) Error() string {
	return errpos(err.Col, "unknown unary operator "+strconv.Quote(err.Operator))
}

func (err *OperatorError) Pos() int {
	return err.Col
}

// BracketError is an error indicating mismatched parentheses in the input.
// It implements InputError.
type BracketError struct {
	// Col is the position at which the mismatch was found.
	Col int
	// Left is the opening bracket when a close bracket is missing.
	Left string
	// Right is the closing bracket when an open bracket is missing.
	Right string
}

func (err *BracketError) Error() string {
	if err.Left == "" {
		return errpos(err.Col, "close bracket "+err.Right+" with no open bracket")
	}
	return errpos(err.Col, "open bracket "+err.Left+" with no close bracket")
}

func (err *BracketError) Pos() int {
	return err.Col
}

// CallError is an error indicating a function call with the wrong number of
// arguments. It implements InputError.
type CallError struct {
	// Col is the position of the end of the argument list.
	Col int
	// Func is the name of the function that was called.
	Func string
	// Len is the number of arguments the call tried to pass. It is 0 if the
	// function name is not followed by an argument list.
	Len int
}

func (err *CallError) Error() string {
	if err.Len == 0 {
		return errpos(err.Col, "call to "+err.Func+" needs an argument list")
	}
	return errpos(err.Col, "cannot call "+err.Func+" with "+strconv.Itoa(err.Len)+" arguments")
}

func (err *CallError) Pos() int {
	return err.Col
}

// EmptyExpressionError is an error indicating an empty subexpression.
// It implements InputError.
type EmptyExpressionError struct {
	// Col is the position of the token that ended the subexpression.
	Col int
	// End is the token that ended the subexpression, or the empty string at
	// the end of the input.
	End string
}

func (err *EmptyExpressionError) Error() string {
	if err.End == "" {
		if err.Col == 0 {
			return errpos(err.Col, "no expression")
		}
		return errpos(err.Col, "no expression at end")
	}
	return errpos(err.Col, "no expression up to "+strconv.Quote(err.End))
}

func (err *EmptyExpressionError) Pos() int {
	return err.Col
}

// SyntaxError is an error indicating a token that cannot appear where it
// does. It implements InputError.
type SyntaxError struct {
	// Col is the position of the token.
	Col int
	// Token is the unexpected token.
	Token string
}

func (err *SyntaxError) Error() string {
	return errpos(err.Col, "unexpected "+strconv.Quote(err.Token))
}

func (err *SyntaxError) Pos() int {
	return err.Col
}

// SymbolError is an error indicating a name with no binding. It implements
// InputError.
type SymbolError struct {
	// Col is the position of the end of the name.
	Col int
	// Name is the name as written.
	Name string
	// Err is the error returned by the unknown symbol resolver, if any.
	Err error
}

func (err *SymbolError) Error() string {
	if err.Err != nil {
		return errpos(err.Col, err.Err.Error())
	}
	return errpos(err.Col, "unknown symbol "+strconv.Quote(err.Name))
}

func (err *SymbolError) Pos() int {
	return err.Col
}

func (err *SymbolError) Unwrap() error {
	return err.Err
}

// CommentError is an error indicating a block comment with no end. It
// implements InputError.
type CommentError struct {
	// Col is the position of the start of the comment.
	Col int
}

func (err *CommentError) Error() string {
	return errpos(err.Col, "unterminated comment")
}

func (err *CommentError) Pos() int {
	return err.Col
}

// SeparatorError is an error indicating an unusable decimal or list
// separator.
type SeparatorError struct {
	// Sep is the rejected separator.
	Sep byte
	// Reason describes the problem.
	Reason string
}

func (err *SeparatorError) Error() string {
	return err.Reason
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Every error resulting from
// invalid formula text implements InputError.
type InputError interface {
	error
	// Pos returns the byte offset into the formula, after comments are
	// removed, at which the error was detected.
	Pos() int
}

var (
	_ InputError = (*OperatorError)(nil)
	_ InputError = (*BracketError)(nil)
	_ InputError = (*CallError)(nil)
	_ InputError = (*EmptyExpressionError)(nil)
	_ InputError = (*SyntaxError)(nil)
	_ InputError = (*SymbolError)(nil)
	_ InputError = (*CommentError)(nil)
	_ InputError = (*LexError)(nil)
)
