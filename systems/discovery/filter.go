package discovery

import (
	"fmt"
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"go-home.io/x/kasa/plugins/device"
)

// Compiled filter expression.
type filter struct {
	expression *govaluate.EvaluableExpression
}

// Creates a new descriptor filter.
// Empty expression accepts everything.
func newFilter(expression string) (*filter, error) {
	if "" == expression {
		return &filter{}, nil
	}

	exp, err := govaluate.NewEvaluableExpressionWithFunctions(expression, filterFunctions)
	if err != nil {
		return nil, errors.Wrap(err, "filter")
	}

	return &filter{expression: exp}, nil
}

// Accept checks whether descriptor passes the filter.
func (f *filter) Accept(desc *device.Descriptor) (bool, error) {
	if nil == f.expression {
		return true, nil
	}

	val, err := f.expression.Evaluate(filterParams(desc))
	if err != nil {
		return false, err
	}

	result, ok := val.(bool)
	if !ok {
		return false, errors.Errorf("filter returned %v instead of bool", val)
	}

	return result, nil
}

// Variables available to the filter expression.
func filterParams(desc *device.Descriptor) map[string]interface{} {
	return map[string]interface{}{
		"id":    desc.ID,
		"alias": desc.Alias,
		"model": desc.Model,
		"class": desc.Class.String(),
		"host":  desc.Host,
		"mac":   desc.MAC,
	}
}

var filterFunctions = map[string]govaluate.ExpressionFunction{
	"glob": globMatch,
	"str":  strConvert,
}

// Matches second argument against glob pattern from the first one.
func globMatch(arguments ...interface{}) (interface{}, error) {
	if 2 != len(arguments) {
		return nil, errors.New("wrong arguments")
	}

	pattern, ok := arguments[0].(string)
	if !ok {
		return nil, errors.New("first argument is not a string")
	}

	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, err
	}

	return g.Match(fmt.Sprintf("%v", arguments[1])), nil
}

// Converts input param into string.
func strConvert(arguments ...interface{}) (interface{}, error) {
	if 1 != len(arguments) {
		return nil, errors.New("wrong arguments")
	}

	a, ok := arguments[0].(string)
	if !ok {
		return fmt.Sprintf("%v", arguments[0]), nil
	}

	return a, nil
}

// Single display name override.
type nameOverride struct {
	pattern glob.Glob
	name    string
}

// Display names overrides matched by identity or alias.
type nameOverrides []*nameOverride

// Compiles overrides in the stable order.
func newNameOverrides(overrides map[string]string) (nameOverrides, error) {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make(nameOverrides, 0, len(keys))
	for _, k := range keys {
		g, err := glob.Compile(k)
		if err != nil {
			return nil, errors.Wrap(err, "name override "+k)
		}

		result = append(result, &nameOverride{pattern: g, name: overrides[k]})
	}

	return result, nil
}

// Apply replaces alias of the first matched descriptor.
func (n nameOverrides) Apply(desc *device.Descriptor) {
	for _, v := range n {
		if v.pattern.Match(desc.ID) || v.pattern.Match(desc.Alias) {
			desc.Alias = v.name
			return
		}
	}
}
