package translate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splice/internal/emit"
	errs "splice/internal/errors"
	"splice/internal/interp"
	"splice/internal/parser"
	"splice/internal/translate"
	"splice/source"
	"splice/token"
)

func expand(t *testing.T, src string) (*token.Tokens, error) {
	t.Helper()
	file := source.NewFile("test.rs", src)
	runs, err := parser.ParseRuns(file, 0, len(src))
	if err != nil {
		return nil, err
	}
	rt := interp.New(interp.Options{Builtins: interp.DefaultBuiltins})
	t.Cleanup(func() { _ = rt.Close() })
	stack := emit.NewStack(token.New())
	tr := translate.New(rt.Begin(stack), stack, source.NewInvocation(file.Span(0, len(src))),
		translate.Options{While: true, MaxIterations: 50})
	return tr.Translate(runs)
}

func mustExpand(t *testing.T, src string) string {
	t.Helper()
	ts, err := expand(t, src)
	require.NoError(t, err)
	return ts.String()
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"host only", "fn main() { let x = 1; }", "fn main() { let x = 1; }"},
		{"expression", "let s = $lit(\"hi\")$;", `let s = "hi";`},
		{"statement", "$n = 6 * 7;\nconst N: u32 = $n$;", "const N: u32 = 42;"},
		{"for", "$for i in range(3):{ x$i$ }", "x 0 x 1 x 2"},
		{"for unpacking", "$for k, v in [('a', 1), ('b', 2)]:{ $k$ = $v$; }", "a = 1; b = 2;"},
		{"if", "$x = 2;\n$if x == 1:{ one }\n$elif x == 2:{ two }\n$else:{ other }", "two"},
		{"else", "$if False:{ one } $else:{ other }", "other"},
		{"no clause taken", "a $if False:{ b } c", "a c"},
		{"break", "$for i in range(5):{ $if i == 3:{ $break; } $i$ }", "0 1 2"},
		{"continue", "$for i in range(4):{ $if i % 2 == 0:{ $continue; } $i$ }", "1 3"},
		{"while", "$n = 0;\n$while n < 3:{ $n$ $n += 1; }", "0 1 2"},
		{"concat", "struct Vec~$3$ {}", "struct Vec3 {}"},
		{"escape", "a $$ b", "a $ b"},
		{"double escape", "a $$$ b", "a $$ b"},
		{"with", "fn f() $with emit(Group('{}')):{ body(); }", "fn f() { body(); }"},
		{"with restores target", "fn f() $with emit(Group('{}')):{ a } b", "fn f() { a } b"},
		{"def", "$def field(name, ty='u8'):{ $name$: $ty$, }\nstruct S { $field('a')$ $field('b', 'u16')$ }",
			"struct S { a: u8, b: u16, }"},
		{"return", "$def double(x):{ $return x * 2; }\n$double(21)$", "42"},
		{"import", "$import math;\n$int(math.sqrt(16))$", "4"},
		{"from import", "$from math import pi as p;\n$p > 3$", "true"},
		{"host group across runs", "fn f() { $for i in range(2):{ g($i$); } }", "fn f() { g(0); g(1); }"},
		{"pass", "$pass; x", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustExpand(t, tt.src))
		})
	}
}

func TestVectorStructs(t *testing.T) {
	src := "$for n in [2, 3]:{\nstruct Vec~$n$ { $for c in 'xyzw'[:n].elems():{ $c$: f32, } }\n}"
	want := "struct Vec2 { x: f32, y: f32, }\nstruct Vec3 { x: f32, y: f32, z: f32, }"
	assert.Equal(t, want, mustExpand(t, src))
}

func TestLoopBindingsDoNotLeak(t *testing.T) {
	assert.Equal(t, "1", mustExpand(t, "$for i in range(2):{ $j = i; }\n$j$"))

	_, err := expand(t, "$for i in range(2):{ }\n$i$")
	var exec *errs.ScriptExecutionError
	require.ErrorAs(t, err, &exec)
	var ie *errs.InterpreterError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "NameError", ie.Class)
}

func TestOrigins(t *testing.T) {
	ts, err := expand(t, "a $for i in range(2):{ b $i$ }")
	require.NoError(t, err)
	require.Equal(t, 5, ts.Len())

	assert.Nil(t, ts.At(0).Origin())

	b := ts.At(3).Origin()
	require.NotNil(t, b)
	assert.Equal(t, source.OriginLoop, b.Kind)
	assert.Equal(t, 1, b.Index)
	assert.Equal(t, "i", b.Span.Text())

	lit := ts.At(4)
	o := lit.Origin()
	require.NotNil(t, o)
	assert.Equal(t, source.OriginExpr, o.Kind)
	assert.Equal(t, "$i$", o.Span.Text())
	assert.Equal(t, "i", lit.Span().Text())
	require.Len(t, o.Chain(), 3)
	assert.Equal(t, source.OriginLoop, o.Parent.Kind)
	assert.Equal(t, source.OriginInvocation, o.Root().Kind)
}

func TestNestedErrorIsReportedOnce(t *testing.T) {
	src := "$if True:{ $if True:{ $x = 1 // 0; } }"
	ts, err := expand(t, src)
	assert.Nil(t, ts)

	var exec *errs.ScriptExecutionError
	require.ErrorAs(t, err, &exec)
	assert.Equal(t, errs.ErrorScriptExecution, exec.Code)
	assert.Equal(t, "$x = 1 // 0;", exec.Run.Text())
	assert.True(t, exec.Run.Contains(exec.Span))

	d := errs.Diagnose(err, source.Span{})
	assert.Equal(t, errs.ErrorScriptExecution, d.Code)
	assert.Contains(t, d.Message, "division by zero")
	assert.Contains(t, d.Notes[0], "Traceback")
}

func TestErrorsInFunctionBodies(t *testing.T) {
	src := "$def f():{ $fail('boom'); }\nx $f()$"
	_, err := expand(t, src)
	var exec *errs.ScriptExecutionError
	require.ErrorAs(t, err, &exec)
	assert.Equal(t, "$fail('boom');", exec.Run.Text())
	assert.Contains(t, exec.Error(), "boom")
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"break outside loop", "$break;", errs.ErrorControlFlow},
		{"return outside function", "$return 1;", errs.ErrorControlFlow},
		{"with non-target", "$with 1:{ x }", errs.ErrorInvalidWithTarget},
		{"bad header", "$for in x:{ y }", errs.ErrorInvalidHeader},
		{"bad directive", "$import;", errs.ErrorScriptSyntax},
		{"dotted import", "$import a.b;", errs.ErrorImport},
		{"missing module", "$import nowhere;", errs.ErrorImport},
		{"unbounded while", "$while True:{ x }", errs.ErrorControlFlow},
		{"runaway recursion", "$def f():{ $f()$ }\n$f()$", errs.ErrorControlFlow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := expand(t, tt.src)
			require.Error(t, err)
			assert.Equal(t, tt.code, errs.Diagnose(err, source.Span{}).Code)
		})
	}
}

func TestTokenizationErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"concat into two tokens", "x~$'+'$", errs.ErrorInvalidConcat},
		{"concat with nothing", "x~$None$", errs.ErrorInvalidConcat},
		{"unsupported value", "$dict(a=1)$", errs.ErrorTokenization},
		{"literal out of range", "$u8(300)$", errs.ErrorInvalidLiteral},
		{"cycle", "$g = Group('()')\ng.tokens.append(g)\nemit(g);", errs.ErrorCyclicGroup},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := expand(t, tt.src)
			assert.Nil(t, ts)
			var tok *errs.TokenizationError
			require.ErrorAs(t, err, &tok)
			assert.Equal(t, tt.code, tok.Code)
		})
	}
}
