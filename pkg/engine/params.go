package engine

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
)

// ParamType is the declared type of a script parameter.
type ParamType string

const (
	ParamFloat    ParamType = "float"
	ParamNumber   ParamType = "number"
	ParamInt      ParamType = "int"
	ParamText     ParamType = "text"
	ParamCheckbox ParamType = "checkbox"
	ParamChoice   ParamType = "choice"
)

func (t ParamType) valid() bool {
	switch t {
	case ParamFloat, ParamNumber, ParamInt, ParamText, ParamCheckbox, ParamChoice:
		return true
	}
	return false
}

// ParamDef is one parameter declared by a script with
//
//	(param "width" :type :float :initial 10 :caption "Width")
//	(param "style" :type :choice :values ["a" "b"] :captions ["A" "B"])
type ParamDef struct {
	Name     string    `yaml:"name"`
	Type     ParamType `yaml:"type"`
	Caption  string    `yaml:"caption,omitempty"`
	Initial  any       `yaml:"initial"`
	Values   []any     `yaml:"values,omitempty"`
	Captions []string  `yaml:"captions,omitempty"`
}

// ParamError reports a parameter value that does not fit its definition.
type ParamError struct {
	Name   string
	Value  any
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("parameter (%s) %s (%v)", e.Name, e.Reason, e.Value)
}

// Coerce converts v to the Go type of d: float64 for float and number,
// int for int, bool for checkbox, string for text. Choice values must be
// one of d.Values, compared after formatting.
func (d ParamDef) Coerce(v any) (any, error) {
	switch d.Type {
	case ParamFloat, ParamNumber:
		f, ok := number(v)
		if !ok {
			return nil, &ParamError{Name: d.Name, Value: v, Reason: "is not a valid number"}
		}
		return f, nil
	case ParamInt:
		f, ok := number(v)
		if !ok {
			return nil, &ParamError{Name: d.Name, Value: v, Reason: "is not a valid number"}
		}
		return int(math.Trunc(f)), nil
	case ParamCheckbox:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			if p, err := strconv.ParseBool(b); err == nil {
				return p, nil
			}
		}
		return nil, &ParamError{Name: d.Name, Value: v, Reason: "is not a valid boolean"}
	case ParamChoice:
		want := fmt.Sprint(v)
		for _, c := range d.Values {
			if fmt.Sprint(c) == want {
				return c, nil
			}
		}
		return nil, &ParamError{Name: d.Name, Value: v, Reason: "is not one of the choices"}
	default:
		return fmt.Sprint(v), nil
	}
}

func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ResolveParams returns a value for every definition: the coerced
// override when one is given, the initial value otherwise. Overrides for
// names that are not defined are ignored.
func ResolveParams(defs []ParamDef, overrides map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(defs))
	for _, d := range defs {
		v, ok := overrides[d.Name]
		if !ok {
			out[d.Name] = d.Initial
			continue
		}
		c, err := d.Coerce(v)
		if err != nil {
			return nil, err
		}
		out[d.Name] = c
	}
	return out, nil
}

// paramFromArgs builds a definition from the arguments of a param call.
func paramFromArgs(args []zygo.Sexp) (ParamDef, error) {
	pa := parseArgs(args)
	var d ParamDef
	if len(pa.positional) < 1 {
		return d, fmt.Errorf("param requires a name")
	}
	name, err := toString(pa.positional[0])
	if err != nil {
		return d, fmt.Errorf("param: name: %w", err)
	}
	if name == "" {
		return d, fmt.Errorf("param: name must not be empty")
	}
	d.Name = name
	d.Type = ParamText
	if v, ok := pa.kw["type"]; ok {
		t, err := toKeywordString(v)
		if err != nil {
			return d, fmt.Errorf("param %s: type: %w", name, err)
		}
		d.Type = ParamType(strings.ToLower(t))
		if !d.Type.valid() {
			return d, fmt.Errorf("param %s: unknown type %q", name, t)
		}
	}
	if v, ok := pa.kw["caption"]; ok {
		if d.Caption, err = toString(v); err != nil {
			return d, fmt.Errorf("param %s: caption: %w", name, err)
		}
	}
	if v, ok := pa.kw["values"]; ok {
		items, err := sexpListToSlice(v)
		if err != nil {
			return d, fmt.Errorf("param %s: values: %w", name, err)
		}
		for _, it := range items {
			gv, err := toGoValue(it)
			if err != nil {
				return d, fmt.Errorf("param %s: values: %w", name, err)
			}
			d.Values = append(d.Values, gv)
		}
	}
	if v, ok := pa.kw["captions"]; ok {
		items, err := sexpListToSlice(v)
		if err != nil {
			return d, fmt.Errorf("param %s: captions: %w", name, err)
		}
		for _, it := range items {
			s, err := toString(it)
			if err != nil {
				return d, fmt.Errorf("param %s: captions: %w", name, err)
			}
			d.Captions = append(d.Captions, s)
		}
	}
	if d.Type == ParamChoice {
		if len(d.Values) == 0 {
			return d, fmt.Errorf("param %s: choice requires :values", name)
		}
		if len(d.Captions) > 0 && len(d.Captions) != len(d.Values) {
			return d, fmt.Errorf("param %s: %d captions for %d values", name, len(d.Captions), len(d.Values))
		}
	}

	initial := defaultInitial(d)
	if v, ok := pa.kw["initial"]; ok {
		if initial, err = toGoValue(v); err != nil {
			return d, fmt.Errorf("param %s: initial: %w", name, err)
		}
	}
	c, err := d.Coerce(initial)
	if err != nil {
		return d, fmt.Errorf("param %s: initial: %w", name, err)
	}
	d.Initial = c
	return d, nil
}

func defaultInitial(d ParamDef) any {
	switch d.Type {
	case ParamFloat, ParamNumber:
		return 0.0
	case ParamInt:
		return 0
	case ParamCheckbox:
		return false
	case ParamChoice:
		return d.Values[0]
	}
	return ""
}

// addParamDef appends d, rejecting duplicate names.
func addParamDef(defs []ParamDef, d ParamDef) ([]ParamDef, error) {
	if slices.ContainsFunc(defs, func(p ParamDef) bool { return p.Name == d.Name }) {
		return defs, fmt.Errorf("param %s: defined twice", d.Name)
	}
	return append(defs, d), nil
}
