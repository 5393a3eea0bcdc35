package interp

import (
	"fmt"
	"math/big"
	"unicode/utf8"

	"go.starlark.net/starlark"

	"splice/internal/emit"
	errs "splice/internal/errors"
	"splice/source"
	"splice/token"
)

var zeroSpan source.Span

// tokenBuiltins is the table predeclared in every script namespace.
func tokenBuiltins() starlark.StringDict {
	d := starlark.StringDict{
		"Tokens":   starlark.NewBuiltin("Tokens", newTokens),
		"Group":    starlark.NewBuiltin("Group", newGroup),
		"Ident":    starlark.NewBuiltin("Ident", newIdent),
		"Punct":    starlark.NewBuiltin("Punct", newPunct),
		"lit":      starlark.NewBuiltin("lit", lit),
		"litint":   starlark.NewBuiltin("litint", litInt),
		"litfloat": starlark.NewBuiltin("litfloat", litFloat),
		"emit":     starlark.NewBuiltin("emit", emitBuiltin),
	}
	for _, suffix := range token.IntSuffixes {
		d[suffix] = starlark.NewBuiltin(suffix, suffixedInt(suffix))
	}
	for _, suffix := range token.FloatSuffixes {
		d[suffix] = starlark.NewBuiltin(suffix, suffixedFloat(suffix))
	}
	return d
}

func stackOf(thread *starlark.Thread) *emit.Stack {
	s, _ := thread.Local(stackKey).(*emit.Stack)
	return s
}

// coerce converts values with the provenance of the running script, when
// there is one.
func coerce(thread *starlark.Thread, values ...any) (*token.Tokens, error) {
	if s := stackOf(thread); s != nil {
		return emit.Coerce(values, s.Span(), s.Origin())
	}
	return emit.Coerce(values, zeroSpan, nil)
}

// stamp gives a constructed token the provenance of the running script.
func stamp(thread *starlark.Thread, t token.Token) *Token {
	if s := stackOf(thread); s != nil {
		t.SetSpan(s.Span())
		t.SetOrigin(s.Origin())
	}
	return wrapToken(t)
}

func literalError(thread *starlark.Thread, err error, value string) error {
	e := errs.NewTokenizationError(errs.ErrorInvalidLiteral, err.Error(), value)
	if s := stackOf(thread); s != nil {
		e.At(s.Span(), s.Origin())
	}
	return e
}

func newTokens(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	ts, err := coerce(thread, exportAll(args)...)
	if err != nil {
		return nil, err
	}
	return &Tokens{ts: ts}, nil
}

func newGroup(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		delim  = "()"
		tokens starlark.Value
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "delimiter?", &delim, "tokens?", &tokens); err != nil {
		return nil, err
	}
	d, err := token.ParseDelimiter(delim)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", b.Name(), err)
	}
	var body *token.Tokens
	switch t := tokens.(type) {
	case nil, starlark.NoneType:
	case *Tokens:
		body = t.ts
	default:
		if body, err = coerce(thread, export(t)); err != nil {
			return nil, err
		}
	}
	return stamp(thread, token.NewGroup(d, body)), nil
}

func newIdent(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	id, err := token.NewIdent(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", b.Name(), err)
	}
	return stamp(thread, id), nil
}

func newPunct(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var chars, spacing = "", "alone"
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "chars", &chars, "spacing?", &spacing); err != nil {
		return nil, err
	}
	var sp token.Spacing
	switch spacing {
	case "alone":
		sp = token.Alone
	case "joint":
		sp = token.Joint
	default:
		return nil, fmt.Errorf("%s: invalid spacing %q", b.Name(), spacing)
	}
	p, err := token.NewPunct(chars, sp)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", b.Name(), err)
	}
	return stamp(thread, p), nil
}

// lit renders a value as a literal rather than as code. The keyword picks
// the literal kind: lit(s), lit(chr=c), lit(str=s), lit(cstr=s),
// lit(byte=b), lit(bytes=bs).
func lit(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(args) > 1 {
		return nil, fmt.Errorf("%s: got %d positional arguments, want at most 1", b.Name(), len(args))
	}
	if len(args)+len(kwargs) != 1 {
		return nil, fmt.Errorf("%s: expected exactly one value", b.Name())
	}
	kind, value := "", starlark.Value(nil)
	if len(args) == 1 {
		value = args[0]
	} else {
		kind, value = string(kwargs[0][0].(starlark.String)), kwargs[0][1]
	}

	var (
		t   *token.Literal
		err error
	)
	switch kind {
	case "":
		switch v := value.(type) {
		case starlark.String:
			t = token.NewString(string(v))
		case starlark.Bytes:
			t = token.NewByteString([]byte(v))
		case starlark.Int:
			t, err = token.NewInt(v.BigInt(), "")
		case starlark.Float:
			t, err = token.NewFloat(float64(v), "")
		default:
			return nil, fmt.Errorf("%s: cannot make a literal from %s", b.Name(), value.Type())
		}
	case "str":
		t = token.NewString(asString(value))
	case "chr":
		s := asString(value)
		if utf8.RuneCountInString(s) != 1 {
			return nil, fmt.Errorf("%s: %q is not a single character", b.Name(), s)
		}
		r, _ := utf8.DecodeRuneInString(s)
		t = token.NewChar(r)
	case "cstr":
		t, err = token.NewCString(asString(value))
	case "bytes":
		bs, ok := value.(starlark.Bytes)
		if !ok {
			return nil, fmt.Errorf("%s: bytes= wants bytes, got %s", b.Name(), value.Type())
		}
		t = token.NewByteString([]byte(bs))
	case "byte":
		var c byte
		switch v := value.(type) {
		case starlark.Bytes:
			if len(v) != 1 {
				return nil, fmt.Errorf("%s: %s is not a single byte", b.Name(), v)
			}
			c = v[0]
		case starlark.Int:
			n, ok := v.Int64()
			if !ok || n < -128 || n > 255 {
				return nil, fmt.Errorf("%s: %s does not fit in a byte", b.Name(), v)
			}
			c = byte(n)
		default:
			return nil, fmt.Errorf("%s: %s cannot be converted into a byte literal", b.Name(), value.Type())
		}
		t = token.NewByte(c)
	default:
		return nil, fmt.Errorf("%s: unexpected keyword argument %q", b.Name(), kind)
	}
	if err != nil {
		return nil, literalError(thread, err, value.String())
	}
	return stamp(thread, t), nil
}

func asString(v starlark.Value) string {
	if s, ok := starlark.AsString(v); ok {
		return s
	}
	return v.String()
}

func litInt(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		value  starlark.Int
		suffix string
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "value", &value, "suffix?", &suffix); err != nil {
		return nil, err
	}
	return makeInt(thread, value.BigInt(), suffix)
}

func litFloat(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		value  starlark.Value
		suffix string
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "value", &value, "suffix?", &suffix); err != nil {
		return nil, err
	}
	f, ok := starlark.AsFloat(value)
	if !ok {
		return nil, fmt.Errorf("%s: got %s, want float", b.Name(), value.Type())
	}
	return makeFloat(thread, f, suffix)
}

func suffixedInt(suffix string) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var value starlark.Int
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &value); err != nil {
			return nil, err
		}
		return makeInt(thread, value.BigInt(), suffix)
	}
}

func suffixedFloat(suffix string) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var value starlark.Value
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &value); err != nil {
			return nil, err
		}
		f, ok := starlark.AsFloat(value)
		if !ok {
			return nil, fmt.Errorf("%s: got %s, want float", b.Name(), value.Type())
		}
		return makeFloat(thread, f, suffix)
	}
}

func makeInt(thread *starlark.Thread, v *big.Int, suffix string) (starlark.Value, error) {
	t, err := token.NewInt(v, suffix)
	if err != nil {
		return nil, literalError(thread, err, v.String())
	}
	return stamp(thread, t), nil
}

func makeFloat(thread *starlark.Thread, v float64, suffix string) (starlark.Value, error) {
	t, err := token.NewFloat(v, suffix)
	if err != nil {
		return nil, literalError(thread, err, fmt.Sprint(v))
	}
	return stamp(thread, t), nil
}

// emitBuiltin appends its coerced arguments to the current emission
// target. It returns the last token when that is a group, so that
// "with emit(...):{" enters it.
func emitBuiltin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	s := stackOf(thread)
	if s == nil {
		return nil, fmt.Errorf("%s: called outside of an expansion", b.Name())
	}
	ts, err := s.EmitValues(exportAll(args)...)
	if err != nil {
		return nil, err
	}
	if g, ok := ts.Last().(*token.Group); ok {
		return wrapToken(g), nil
	}
	return starlark.None, nil
}

// fromGo converts a decoded literal value.
func fromGo(v any) starlark.Value {
	switch v := v.(type) {
	case *big.Int:
		return starlark.MakeBigInt(v)
	case float64:
		return starlark.Float(v)
	case string:
		return starlark.String(v)
	case []byte:
		return starlark.Bytes(v)
	}
	return starlark.None
}
