package formula

import (
	"strconv"

	"github.com/sirupsen/logrus"
)

// Option is an option for creating a Parser.
type Option interface {
	apply(*Parser)
}

type (
	decimalopt  byte
	listopt     byte
	powopt      bool
	bindingsopt []Binding
	resolveropt struct {
		r    Resolver
		keep bool
	}
	loggeropt struct {
		l logrus.FieldLogger
	}
)

// WithDecimalSeparator sets the character that separates the integer and
// fractional parts of numbers. It must be '.' or ','. The default is '.'.
func WithDecimalSeparator(c byte) Option {
	if c != '.' && c != ',' {
		panic("formula: invalid decimal separator " + strconv.QuoteRune(rune(c)))
	}
	return decimalopt(c)
}

func (o decimalopt) apply(p *Parser) {
	p.decimal = byte(o)
}

// WithListSeparator sets the character that separates function arguments. It
// must be ',' or ';'. The default is ','. If the list separator is the same as
// the decimal separator, every compile fails.
func WithListSeparator(c byte) Option {
	if c != ',' && c != ';' {
		panic("formula: invalid list separator " + strconv.QuoteRune(rune(c)))
	}
	return listopt(c)
}

func (o listopt) apply(p *Parser) {
	p.list = byte(o)
}

// WithPowerFromRight makes exponentiation group from the right, so that
// "2^3^4" is "2^(3^4)". A leading sign then applies to the whole chain, so
// "-2^2" is -4.
func WithPowerFromRight() Option {
	return powopt(true)
}

func (o powopt) apply(p *Parser) {
	p.powRight = bool(o)
}

// WithBindings adds variables and functions to the Parser. It panics if any
// binding is invalid.
func WithBindings(bindings ...Binding) Option {
	for _, b := range bindings {
		if err := validateBinding(b); err != nil {
			panic("formula: " + err.Error())
		}
	}
	return bindingsopt(append([]Binding(nil), bindings...))
}

func (o bindingsopt) apply(p *Parser) {
	for _, b := range o {
		// Already validated.
		p.custom.Insert(b)
	}
}

// WithResolver sets the unknown symbol resolver. See
// Parser.SetUnknownSymbolResolver.
func WithResolver(r Resolver, keep bool) Option {
	return resolveropt{r: r, keep: keep}
}

func (o resolveropt) apply(p *Parser) {
	p.resolve = o.r
	p.keep = o.keep
}

// WithLogger sets the logger for compilation and evaluation diagnostics. All
// entries are at debug level. The default is the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	if l == nil {
		panic("formula: nil logger")
	}
	return loggeropt{l: l}
}

func (o loggeropt) apply(p *Parser) {
	p.log = o.l.WithField("component", "formula")
}
