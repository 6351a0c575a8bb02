package template

import (
	"fmt"
	"strings"

	"argos/pkg/util/maps"

	"github.com/pkg/errors"
)

// ResolveFunc specifies how a template expression should be resolved
type ResolveFunc func(expr Expression) (interface{}, error)

// ResolveWithMap returns a ResolveFunc that performs resolution from a map
func ResolveWithMap(m map[string]interface{}) ResolveFunc {
	return func(expr Expression) (interface{}, error) {
		res := maps.Get(m, expr.Text)
		if res == nil {
			return nil, errors.Errorf("expression %s resolved to nil interface", expr)
		}
		return res, nil
	}
}

// Resolve returns the template text with every expression replaced by its resolved value.
// Empty expressions are left untouched.
func (tpl *Template) Resolve(resolver ResolveFunc) (string, error) {
	var rerr error
	res := tplRegexp.ReplaceAllStringFunc(tpl.text, func(matched string) string {
		e := asExpression(matched)
		if e.Text == "" || rerr != nil {
			return matched
		}
		val, err := resolver(e)
		if err != nil {
			rerr = errors.Wrapf(err, "cannot resolve template expression %s", e)
			return ""
		}
		return format(val)
	})
	if rerr != nil {
		return "", rerr
	}
	return res, nil
}

func format(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, "\n")
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprintf("%v", val)
}
