// Package formula compiles and evaluates single spreadsheet-style math
// formulas.
//
// A Parser compiles text like "=ROUND(x * 1.5, 2) // rate" into a tree,
// folding constant subexpressions as it goes, and evaluates that tree to a
// float64 as many times as needed. Names in a formula are bound to constants,
// to variables (pointers to host-owned float64 cells read at every
// evaluation), to functions of up to seven arguments, or to closures, which
// are functions that also receive a host-owned context value on every call.
// Names are case-insensitive and may contain periods, so "MATH.MULT" and
// "math.mult" are the same binding.
//
// Operators, from lowest to highest precedence:
//
//	,                   sequence; the result is the right operand
//	& |                 logical and, or
//	= == != <> < <= > >= comparison, 1 for true and 0 for false
//	<< >>               bit shifts of non-negative integers
//	+ -                 addition, subtraction
//	* / %               multiplication, division, modulus
//	^ **                exponentiation
//	unary + -           sign
//
// By default exponentiation is left-associative and the sign binds tighter
// than it, so "2^3^4" is "(2^3)^4" and "-2^2" is 4, as in spreadsheets. A
// Parser created with WithPowerFromRight instead reads "2^3^4" as "2^(3^4)"
// and "-2^2" as -4.
//
// Numbers are decimal, with an optional exponent like 2.5e-3, or hexadecimal
// integers like 0x1F. Hexadecimal numbers have no fraction or exponent.
//
// Functions of one argument may be called without parentheses: "sqrt 100 + 7"
// is 17. Functions of no arguments may omit the parentheses: "pi * 2".
//
// Errors in the formula text do not panic. Compile reports failure, and the
// Parser records the byte offset and a message. Domain errors during
// evaluation, such as division by zero, make the result NaN and are recorded
// the same way.
//
package formula
