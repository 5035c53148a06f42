package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/vtree"
)

// kwPrefix marks keyword names rewritten by preprocessSource.
const kwPrefix = "__kw_"

// sexpNode carries an operand (a geometry leaf or an operation node)
// between builtins.
type sexpNode struct {
	op vtree.Operand
}

func (n *sexpNode) SexpString(ps *zygo.PrintState) string {
	switch v := n.op.(type) {
	case *vtree.Node:
		return fmt.Sprintf("(%s ...%d)", v.Kind, len(v.Children))
	case geom.Object:
		return fmt.Sprintf("(%s)", v.Kind())
	}
	return "(operand)"
}
func (n *sexpNode) Type() *zygo.RegisteredType { return nil }

// isKW reports the keyword name if s is a rewritten keyword.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs is an argument list split into keyword and positional arguments.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

func parseArgs(args []zygo.Sexp) kwArgs {
	res := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			res.positional = append(res.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			res.kw[name] = args[i+1]
			i++
		} else {
			// trailing keyword acts as a flag
			res.kw[name] = zygo.SexpNull
		}
	}
	return res
}

func describe(s zygo.Sexp) string {
	if s == nil {
		return "nil"
	}
	return fmt.Sprintf("%T (%s)", s, s.SexpString(nil))
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", describe(s))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %s", describe(s))
}

func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			// a bare trailing flag
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %s", describe(s))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %s", describe(s))
}

// toKeywordString accepts a keyword (:float) or a plain string ("float").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %s", describe(s))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// sexpListToSlice converts a list or array to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %s", describe(s))
}

// toFloats converts a number or a list of numbers.
func toFloats(s zygo.Sexp) ([]float64, error) {
	if f, err := toFloat64(s); err == nil {
		return []float64{f}, nil
	}
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, fmt.Errorf("expected number or vector: %w", err)
	}
	out := make([]float64, len(items))
	for i, it := range items {
		if out[i], err = toFloat64(it); err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
	}
	return out, nil
}

// toVector converts a number or vector to a Params value. A scalar stays a
// scalar so vtree.Params.Vec3 can broadcast it.
func toVector(s zygo.Sexp) (any, error) {
	if f, err := toFloat64(s); err == nil {
		return f, nil
	}
	return toFloats(s)
}

// toOperands collects geometry operands from args. Lists and arrays become
// vtree.List values so constructors flatten them.
func toOperands(args []zygo.Sexp) ([]vtree.Operand, error) {
	ops := make([]vtree.Operand, 0, len(args))
	for i, a := range args {
		op, err := toOperand(a)
		if err != nil {
			return nil, fmt.Errorf("operand %d: %w", i+1, err)
		}
		if op != nil {
			ops = append(ops, op)
		}
	}
	return ops, nil
}

func toOperand(s zygo.Sexp) (vtree.Operand, error) {
	switch v := s.(type) {
	case *sexpNode:
		return v.op, nil
	case *zygo.SexpPair, *zygo.SexpArray:
		items, err := sexpListToSlice(v)
		if err != nil {
			return nil, err
		}
		list, err := toOperands(items)
		if err != nil {
			return nil, err
		}
		return vtree.List(list), nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected geometry, got %s", describe(s))
}

// toGoValue converts a literal to the Go value used for parameters.
func toGoValue(s zygo.Sexp) (any, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpStr:
		return strings.TrimPrefix(v.S, kwPrefix), nil
	}
	return nil, fmt.Errorf("expected literal value, got %s", describe(s))
}

// fromGoValue converts a parameter value back into the interpreter.
func fromGoValue(v any) zygo.Sexp {
	switch x := v.(type) {
	case int:
		return &zygo.SexpInt{Val: int64(x)}
	case int64:
		return &zygo.SexpInt{Val: x}
	case float64:
		return &zygo.SexpFloat{Val: x}
	case bool:
		return &zygo.SexpBool{Val: x}
	case string:
		return &zygo.SexpStr{S: x}
	case nil:
		return zygo.SexpNull
	}
	return &zygo.SexpStr{S: fmt.Sprint(v)}
}
