package interp

import (
	"fmt"
	"slices"

	"go.starlark.net/starlark"

	"splice/internal/script"
)

// Define wraps a translated function body as a Starlark callable.
func (i *Interpreter) Define(name string, params []script.Param, body script.Body) script.Value {
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		bound, err := bindArgs(name, params, args, kwargs)
		if err != nil {
			return nil, err
		}
		v, err := body(bound)
		if err != nil {
			return nil, err
		}
		return toStarlark(v), nil
	})
}

// bindArgs matches call arguments to parameters the way Python does for
// def f(a, b=1, *rest, **kw).
func bindArgs(name string, params []script.Param, args starlark.Tuple, kwargs []starlark.Tuple) (map[string]script.Value, error) {
	var (
		named          []script.Param
		varargs, varkw string
	)
	for _, p := range params {
		switch p.Star {
		case "*":
			varargs = p.Name
		case "**":
			varkw = p.Name
		default:
			named = append(named, p)
		}
	}

	bound := make(map[string]script.Value, len(params))
	n := 0
	for ; n < len(args) && n < len(named); n++ {
		bound[named[n].Name] = args[n]
	}
	if n < len(args) && varargs == "" {
		return nil, fmt.Errorf("%s() takes %d positional arguments but %d were given", name, len(named), len(args))
	}
	if varargs != "" {
		bound[varargs] = slices.Clone(args[n:])
	}

	var extra *starlark.Dict
	if varkw != "" {
		extra = starlark.NewDict(len(kwargs))
		bound[varkw] = extra
	}
	for _, kv := range kwargs {
		key := string(kv[0].(starlark.String))
		if slices.ContainsFunc(named, func(p script.Param) bool { return p.Name == key }) {
			if _, dup := bound[key]; dup {
				return nil, fmt.Errorf("%s() got multiple values for argument %q", name, key)
			}
			bound[key] = kv[1]
			continue
		}
		if extra == nil {
			return nil, fmt.Errorf("%s() got an unexpected keyword argument %q", name, key)
		}
		if err := extra.SetKey(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}

	for _, p := range named {
		if _, ok := bound[p.Name]; ok {
			continue
		}
		if p.Default == nil {
			return nil, fmt.Errorf("%s() missing argument %q", name, p.Name)
		}
		bound[p.Name] = p.Default
	}
	return bound, nil
}
