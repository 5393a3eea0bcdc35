package interp_test

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"

	"splice/internal/emit"
	errs "splice/internal/errors"
	"splice/internal/interp"
	"splice/internal/script"
	"splice/source"
	"splice/token"
)

func chunk(code string) *source.Chunk {
	file := source.NewFile("t.rs", code)
	b := source.NewChunkBuilder(file, "t.rs:1:1")
	b.Copy(0, len(code))
	return b.Build(file.Span(0, len(code)))
}

func begin(t *testing.T, opts interp.Options) (script.Interpreter, *emit.Stack) {
	t.Helper()
	rt := interp.New(opts)
	t.Cleanup(func() { _ = rt.Close() })
	stack := emit.NewStack(token.New())
	return rt.Begin(stack), stack
}

func lookup(t *testing.T, scope *script.Scope, name string) string {
	t.Helper()
	v, ok := scope.Lookup(name)
	require.True(t, ok, name)
	return v.(starlark.Value).String()
}

func TestExecWritesBack(t *testing.T) {
	in, _ := begin(t, interp.Options{})
	scope := script.NewScope()
	require.NoError(t, in.Exec(chunk("x = 1\ny = x + 1"), scope))
	assert.Equal(t, "2", lookup(t, scope, "y"))

	require.NoError(t, in.Exec(chunk("x += 10"), scope))
	assert.Equal(t, "11", lookup(t, scope, "x"))
	assert.NotContains(t, scope.Names(), "lit")
}

func TestBlockBindings(t *testing.T) {
	in, _ := begin(t, interp.Options{})
	global := script.NewScope()
	loop := global.Block()
	loop.Declare("i", in.None())

	require.NoError(t, in.Assign(chunk("i"), starlark.MakeInt(3), loop))
	require.NoError(t, in.Exec(chunk("total = i * 2"), loop))

	assert.Equal(t, "6", lookup(t, global, "total"))
	_, ok := global.Lookup("i")
	assert.False(t, ok)
	assert.Equal(t, "3", lookup(t, loop, "i"))
}

func TestAssignUnpacks(t *testing.T) {
	in, _ := begin(t, interp.Options{})
	scope := script.NewScope().Block()
	for _, name := range []string{"a", "b", "c"} {
		scope.Declare(name, in.None())
	}
	v := starlark.Tuple{starlark.MakeInt(1), starlark.Tuple{starlark.MakeInt(2), starlark.MakeInt(3)}}
	require.NoError(t, in.Assign(chunk("a, (b, c)"), v, scope))
	assert.Equal(t, "1", lookup(t, scope, "a"))
	assert.Equal(t, "3", lookup(t, scope, "c"))
}

func TestExport(t *testing.T) {
	in, _ := begin(t, interp.Options{})
	v, err := in.Eval(chunk("(1, 'x', [2.5], None, True, b'z')"), script.NewScope())
	require.NoError(t, err)

	tuple, ok := in.Export(v).(emit.Tuple)
	require.True(t, ok)
	require.Len(t, tuple, 6)
	assert.Equal(t, 0, tuple[0].(*big.Int).Cmp(big.NewInt(1)))
	assert.Equal(t, "x", tuple[1])
	assert.Equal(t, emit.List{2.5}, tuple[2])
	assert.Nil(t, tuple[3])
	assert.Equal(t, true, tuple[4])
	assert.Equal(t, []byte("z"), tuple[5])

	v, err = in.Eval(chunk("{'a': 1}"), script.NewScope())
	require.NoError(t, err)
	assert.Equal(t, emit.Opaque{Type: "dict", Repr: `{"a": 1}`}, in.Export(v))
}

func TestEmitBuiltin(t *testing.T) {
	in, stack := begin(t, interp.Options{})
	scope := script.NewScope()
	require.NoError(t, in.Exec(chunk("g = emit('struct', Ident('S'), Group('{}'))"), scope))
	assert.Equal(t, "struct S {}", stack.Root().String())

	g, _ := scope.Lookup("g")
	body, ok := in.Target(g)
	require.True(t, ok)
	require.NoError(t, stack.With(body, func() error {
		_, err := stack.EmitValues("x: u8")
		return err
	}))
	assert.Equal(t, "struct S { x: u8 }", stack.Root().String())

	err := in.Exec(chunk("emit({})"), scope)
	var tok *errs.TokenizationError
	require.ErrorAs(t, err, &tok)
	assert.Equal(t, errs.ErrorTokenization, tok.Code)
	assert.Equal(t, "{}", tok.Value)
}

func TestLiterals(t *testing.T) {
	in, _ := begin(t, interp.Options{})
	tests := []struct {
		code string
		want string
	}{
		{"lit('a + b')", `"a + b"`},
		{"lit(chr='x')", `'x'`},
		{"lit(byte=65)", `b'A'`},
		{"lit(bytes=b'hi')", `b"hi"`},
		{"lit(cstr='c')", `c"c"`},
		{"u8(255)", "255u8"},
		{"i64(-1)", "-1i64"},
		{"f32(1)", "1.0f32"},
		{"litint(7, 'usize')", "7usize"},
		{"litfloat(0.5)", "0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			v, err := in.Eval(chunk(tt.code), script.NewScope())
			require.NoError(t, err)
			tok, ok := in.Export(v).(token.Token)
			require.True(t, ok)
			assert.Equal(t, token.KindLiteral, tok.Kind())
			assert.Equal(t, tt.want, tok.String())
		})
	}

	for _, code := range []string{"u8(256)", "i8(-129)", "f32(1e39)"} {
		_, err := in.Eval(chunk(code), script.NewScope())
		var tok *errs.TokenizationError
		require.ErrorAs(t, err, &tok, code)
		assert.Equal(t, errs.ErrorInvalidLiteral, tok.Code, code)
	}

	for _, code := range []string{"lit()", "lit('a', str='b')", "lit(chr='ab')", "lit(byte=b'ab')"} {
		_, err := in.Eval(chunk(code), script.NewScope())
		assert.Error(t, err, code)
	}
}

func TestPunctJoin(t *testing.T) {
	in, _ := begin(t, interp.Options{})
	v, err := in.Eval(chunk("Punct(',').join(['a', 1, lit('s')])"), script.NewScope())
	require.NoError(t, err)
	ts, ok := in.Export(v).(*token.Tokens)
	require.True(t, ok)
	assert.Equal(t, `a, 1, "s"`, ts.String())
	assert.Equal(t, 5, ts.Len())
}

func TestTokensMethods(t *testing.T) {
	in, _ := begin(t, interp.Options{})
	scope := script.NewScope()
	code := "t = Tokens('a')\nt.append('b')\nt.insert(0, 'x')\np = t.pop()\nn = len(t)\nfirst = t[0].text"
	require.NoError(t, in.Exec(chunk(code), scope))
	assert.Equal(t, "2", lookup(t, scope, "n"))
	assert.Equal(t, "b", lookup(t, scope, "p"))
	assert.Equal(t, `"x"`, lookup(t, scope, "first"))

	v, _ := scope.Lookup("t")
	ts, ok := in.Target(v)
	require.True(t, ok)
	assert.Equal(t, "x a", ts.String())
}

func TestDefine(t *testing.T) {
	in, _ := begin(t, interp.Options{})
	scope := script.NewScope()
	params := []script.Param{
		{Name: "a"},
		{Name: "b", Default: starlark.MakeInt(2)},
		{Name: "rest", Star: "*"},
	}
	f := in.Define("f", params, func(args map[string]script.Value) (script.Value, error) {
		return starlark.Tuple{args["a"].(starlark.Value), args["b"].(starlark.Value), args["rest"].(starlark.Value)}, nil
	})
	scope.Declare("f", f)

	tests := map[string]string{
		"f(1)":       "(1, 2, ())",
		"f(1, b=5)":  "(1, 5, ())",
		"f(1, 2, 3)": "(1, 2, (3,))",
	}
	for code, want := range tests {
		v, err := in.Eval(chunk(code), scope)
		require.NoError(t, err, code)
		assert.Equal(t, want, v.(starlark.Value).String(), code)
	}

	for _, code := range []string{"f()", "f(1, a=2)", "f(1, c=3)"} {
		_, err := in.Eval(chunk(code), scope)
		assert.Error(t, err, code)
	}
}

func TestErrorFrames(t *testing.T) {
	in, _ := begin(t, interp.Options{})
	code := "x = 1\ny = x // 0"
	err := in.Exec(chunk(code), script.NewScope())

	var ie *errs.InterpreterError
	require.ErrorAs(t, err, &ie)
	require.NotEmpty(t, ie.Frames)
	f := ie.Frames[0]
	assert.Equal(t, "t.rs:1:1", f.File)
	assert.Equal(t, 2, f.Line)
	assert.Equal(t, uint32(2), f.HostLine)
	assert.False(t, f.Span.IsZero())
	assert.Contains(t, ie.Traceback(), "host line 2")

	err = in.Exec(chunk("x = ("), script.NewScope())
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "SyntaxError", ie.Class)

	err = in.Exec(chunk("y = nope + 1"), script.NewScope())
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "NameError", ie.Class)
}

func TestIterateAndTruth(t *testing.T) {
	in, _ := begin(t, interp.Options{})
	v, err := in.Eval(chunk("range(2, 5)"), script.NewScope())
	require.NoError(t, err)
	it, err := in.Iterate(v)
	require.NoError(t, err)
	var got []string
	for x, ok := it.Next(); ok; x, ok = it.Next() {
		got = append(got, x.(starlark.Value).String())
	}
	it.Done()
	assert.Equal(t, []string{"2", "3", "4"}, got)

	_, err = in.Iterate(starlark.MakeInt(1))
	assert.Error(t, err)

	assert.True(t, in.Truth(starlark.MakeInt(1)))
	assert.False(t, in.Truth(starlark.NewList(nil)))
	assert.False(t, in.Truth(in.None()))
}

func TestImports(t *testing.T) {
	dir := t.TempDir()
	src := "def area(w, h):\n    return w * h\n\nNAME = \"shapes\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shapes.star"), []byte(src), 0o644))

	in, _ := begin(t, interp.Options{Workdir: dir})
	m, err := in.Import("math")
	require.NoError(t, err)
	sqrt, err := in.Attr(m, "sqrt")
	require.NoError(t, err)
	assert.NotNil(t, sqrt)

	shapes, err := in.Import("shapes")
	require.NoError(t, err)
	name, err := in.Attr(shapes, "NAME")
	require.NoError(t, err)
	assert.Equal(t, `"shapes"`, name.(starlark.Value).String())
	_, err = in.Attr(shapes, "missing")
	assert.Error(t, err)

	scope := script.NewScope()
	require.NoError(t, in.Exec(chunk("load(\"shapes.star\", \"area\")\nz = area(2, 3)"), scope))
	assert.Equal(t, "6", lookup(t, scope, "z"))

	_, err = in.Import("nowhere")
	assert.Error(t, err)
	err = in.Exec(chunk("load(\"../up.star\", \"x\")"), script.NewScope())
	assert.Error(t, err)
}

func TestImportRestrictions(t *testing.T) {
	in, _ := begin(t, interp.Options{Builtins: []string{"json"}})
	_, err := in.Import("math")
	var ie *errs.InterpreterError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "ImportError", ie.Class)

	_, err = in.Import("json")
	assert.NoError(t, err)

	_, err = in.Import("local")
	assert.ErrorAs(t, err, &ie)
}

func TestStepBudget(t *testing.T) {
	in, _ := begin(t, interp.Options{MaxSteps: 1000})
	err := in.Exec(chunk("x = [i for i in range(100000)]"), script.NewScope())
	assert.Error(t, err)
}
