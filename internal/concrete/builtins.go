package concrete

import (
	"fmt"
	"strings"
)

func callBuiltin(name string, args []any) (any, error) {
	switch name {
	case "length":
		return builtinLength(args)
	case "substring":
		return builtinSubstring(args)
	case "upper":
		return stringUnary(args, "upper", strings.ToUpper)
	case "lower":
		return stringUnary(args, "lower", strings.ToLower)
	case "contains":
		return builtinContains(args)
	case "startsWith":
		return stringBinaryPredicate(args, "startsWith", strings.HasPrefix)
	case "endsWith":
		return stringBinaryPredicate(args, "endsWith", strings.HasSuffix)
	case "append":
		return builtinAppend(args)
	case "remove":
		return builtinRemove(args)
	case "count":
		return builtinCount(args)
	case "is_null":
		if len(args) != 1 {
			return nil, fmt.Errorf("is_null expects 1 argument, got %d", len(args))
		}
		return args[0] == nil, nil
	case "coalesce":
		for _, a := range args {
			if a != nil {
				return a, nil
			}
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown function %q", name)
	}
}

func builtinLength(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("length expects 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return len([]rune(v)), nil
	case []any:
		return len(v), nil
	default:
		return nil, fmt.Errorf("type error: length requires a string or list, got %T", v)
	}
}

func builtinSubstring(args []any) (any, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, fmt.Errorf("substring expects 2 or 3 arguments, got %d", len(args))
	}
	if args[0] == nil {
		return nil, nil
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("type error: substring requires a string, got %T", args[0])
	}
	start, ok := asNumber(args[1])
	if !ok {
		return nil, fmt.Errorf("type error: substring start must be numeric")
	}
	r := []rune(s)
	from := int(start) - 1
	if from < 0 || from > len(r) {
		return nil, fmt.Errorf("substring start out of range: %v", args[1])
	}
	to := len(r)
	if len(args) == 3 {
		n, ok := asNumber(args[2])
		if !ok {
			return nil, fmt.Errorf("type error: substring length must be numeric")
		}
		to = from + int(n)
		if to > len(r) {
			return nil, fmt.Errorf("substring length out of range")
		}
	}
	return string(r[from:to]), nil
}

func stringUnary(args []any, name string, f func(string) string) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s expects 1 argument, got %d", name, len(args))
	}
	if args[0] == nil {
		return nil, nil
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("type error: %s requires a string, got %T", name, args[0])
	}
	return f(s), nil
}

func stringBinaryPredicate(args []any, name string, f func(s, sub string) bool) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%s expects 2 arguments, got %d", name, len(args))
	}
	if args[0] == nil || args[1] == nil {
		return nil, nil
	}
	s, ok1 := args[0].(string)
	sub, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("type error: %s requires strings", name)
	}
	return f(s, sub), nil
}

func builtinContains(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("contains expects 2 arguments, got %d", len(args))
	}
	if args[0] == nil || args[1] == nil {
		return nil, nil
	}
	switch c := args[0].(type) {
	case string:
		sub, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("type error: contains on a string requires a string argument")
		}
		return strings.Contains(c, sub), nil
	case []any:
		for _, v := range c {
			if valuesEqual(v, args[1]) {
				return true, nil
			}
		}
		return false, nil
	default:
		return nil, fmt.Errorf("type error: contains requires a string or list, got %T", c)
	}
}

func builtinAppend(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("append expects 2 arguments, got %d", len(args))
	}
	if args[0] == nil {
		return nil, nil
	}
	list, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("type error: append requires a list, got %T", args[0])
	}
	out := make([]any, len(list), len(list)+1)
	copy(out, list)
	out = append(out, args[1])
	return out, nil
}

func builtinRemove(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("remove expects 2 arguments, got %d", len(args))
	}
	if args[0] == nil {
		return nil, nil
	}
	list, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("type error: remove requires a list, got %T", args[0])
	}
	out := make([]any, 0, len(list))
	for _, v := range list {
		if !valuesEqual(v, args[1]) {
			out = append(out, v)
		}
	}
	return out, nil
}

func builtinCount(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("count expects 2 arguments, got %d", len(args))
	}
	if args[0] == nil {
		return nil, nil
	}
	list, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("type error: count requires a list, got %T", args[0])
	}
	n := 0
	for _, v := range list {
		if valuesEqual(v, args[1]) {
			n++
		}
	}
	return n, nil
}
