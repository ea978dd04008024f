package hcl

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/forecastgrid/internal/config"
	"github.com/vk/forecastgrid/internal/ref"
	"github.com/zclconf/go-cty/cty"
)

// referenceRoots are the traversal roots that denote a reference rather
// than a literal value.
var referenceRoots = map[string]bool{"job": true, "input": true, "config": true}

// translateInput turns one job input expression into a config.InputValue.
// A bare traversal rooted at job, input or config is a reference; any other
// expression must be constant and is evaluated to a literal.
func translateInput(expr hcl.Expression) (config.InputValue, error) {
	if wrap, ok := expr.(*hclsyntax.TemplateWrapExpr); ok {
		expr = wrap.Wrapped
	}
	if trav, ok := expr.(*hclsyntax.ScopeTraversalExpr); ok {
		return translateTraversal(trav.Traversal)
	}
	for _, v := range expr.Variables() {
		if referenceRoots[v.RootName()] {
			return config.InputValue{}, fmt.Errorf("reference '%s' must be the whole value; expressions combining references are not supported", traversalString(v))
		}
		return config.InputValue{}, fmt.Errorf("unknown variable '%s'", v.RootName())
	}
	val, diags := expr.Value(evalContext())
	if diags.HasErrors() {
		return config.InputValue{}, diags
	}
	lit, err := ctyToGo(val)
	if err != nil {
		return config.InputValue{}, err
	}
	return config.Literal(lit), nil
}

func translateTraversal(t hcl.Traversal) (config.InputValue, error) {
	root := t.RootName()
	if !referenceRoots[root] {
		return config.InputValue{}, fmt.Errorf("unknown variable '%s'", root)
	}
	path := []string{root}
	for _, step := range t[1:] {
		attr, ok := step.(hcl.TraverseAttr)
		if !ok {
			return config.InputValue{}, fmt.Errorf("reference '%s' may only use attribute access", traversalString(t))
		}
		path = append(path, attr.Name)
	}
	return ref.FromPath(path)
}

func traversalString(t hcl.Traversal) string {
	s := t.RootName()
	for _, step := range t[1:] {
		switch st := step.(type) {
		case hcl.TraverseAttr:
			s += "." + st.Name
		case hcl.TraverseIndex:
			s += "[...]"
		}
	}
	return s
}

// ctyToGo converts a fully known cty value into plain Go values: strings,
// int or float64 numbers, bools, []any and map[string]any.
func ctyToGo(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Number:
		return numberToGo(v.AsBigFloat()), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			gv, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			gv, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = gv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}

func numberToGo(bf *big.Float) any {
	if bf.IsInt() {
		if i, acc := bf.Int64(); acc == big.Exact {
			return int(i)
		}
	}
	f, _ := bf.Float64()
	return f
}
