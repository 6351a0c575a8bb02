package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

const (
	prefix = "@"
)

var (
	// tplRegexp is compiled regexp for template expressions
	tplRegexp *regexp.Regexp
)

func init() {
	r, err := regexp.Compile(`@\{[^}]*\}`)
	if err != nil {
		panic(errors.Wrap(err, "cannot compile template regexp"))
	}
	tplRegexp = r
}

// Template is a text with @{expression} placeholders.
type Template struct {
	text string
}

// New returns a new Template from the given text
func New(text string) *Template {
	return &Template{
		text: text,
	}
}

// Expression is a template element to be resolved
type Expression struct {
	Text string
}

func (expr Expression) String() string {
	return fmt.Sprintf("%s{%s}", prefix, expr.Text)
}

// Root returns the first element of a dotted expression
func (expr Expression) Root() string {
	if i := strings.IndexByte(expr.Text, '.'); i >= 0 {
		return expr.Text[:i]
	}
	return expr.Text
}

// FindAll finds all expressions within the template, in order of appearance.
func (tpl *Template) FindAll() []Expression {
	var exprs []Expression
	for _, str := range tplRegexp.FindAllString(tpl.text, -1) {
		if e := asExpression(str); e.Text != "" {
			exprs = append(exprs, e)
		}
	}
	return exprs
}

// asExpression create a template expression struct from a string.
func asExpression(in string) Expression {
	if !strings.HasPrefix(in, prefix+"{") || !strings.HasSuffix(in, "}") {
		return Expression{}
	}
	return Expression{
		Text: strings.TrimSpace(in[len(prefix)+1 : len(in)-1]),
	}
}
