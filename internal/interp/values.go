package interp

import (
	"fmt"
	"slices"

	"go.starlark.net/starlark"

	"splice/internal/emit"
	"splice/token"
)

// Tokens is the script view of a token sequence. It aliases the sequence,
// so changes show up wherever the sequence is used.
type Tokens struct {
	ts *token.Tokens
}

var (
	_ starlark.HasSetIndex = (*Tokens)(nil)
	_ starlark.Sequence    = (*Tokens)(nil)
	_ starlark.HasAttrs    = (*Tokens)(nil)
)

func (t *Tokens) String() string        { return t.ts.String() }
func (t *Tokens) Type() string          { return "Tokens" }
func (t *Tokens) Freeze()               {}
func (t *Tokens) Truth() starlark.Bool  { return t.ts.Len() > 0 }
func (t *Tokens) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: Tokens") }
func (t *Tokens) Len() int              { return t.ts.Len() }
func (t *Tokens) Index(i int) starlark.Value {
	return wrapToken(t.ts.At(i))
}

func (t *Tokens) SetIndex(i int, v starlark.Value) error {
	tok, err := single(v)
	if err != nil {
		return err
	}
	t.ts.Set(i, tok)
	return nil
}

func (t *Tokens) Iterate() starlark.Iterator {
	return &tokensIterator{items: slices.Clone(t.ts.Items())}
}

type tokensIterator struct {
	items []token.Token
	next  int
}

func (it *tokensIterator) Next(p *starlark.Value) bool {
	if it.next >= len(it.items) {
		return false
	}
	*p = wrapToken(it.items[it.next])
	it.next++
	return true
}

func (it *tokensIterator) Done() {}

var tokensMethods = map[string]*starlark.Builtin{
	"append": starlark.NewBuiltin("append", tokensAppend),
	"extend": starlark.NewBuiltin("extend", tokensExtend),
	"insert": starlark.NewBuiltin("insert", tokensInsert),
	"pop":    starlark.NewBuiltin("pop", tokensPop),
	"clear":  starlark.NewBuiltin("clear", tokensClear),
	"copy":   starlark.NewBuiltin("copy", tokensCopy),
}

func (t *Tokens) Attr(name string) (starlark.Value, error) {
	if m, ok := tokensMethods[name]; ok {
		return m.BindReceiver(t), nil
	}
	return nil, nil
}

func (t *Tokens) AttrNames() []string {
	names := make([]string, 0, len(tokensMethods))
	for name := range tokensMethods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func receiver(b *starlark.Builtin) *token.Tokens {
	return b.Receiver().(*Tokens).ts
}

func tokensAppend(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var item starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &item); err != nil {
		return nil, err
	}
	ts, err := coerce(thread, export(item))
	if err != nil {
		return nil, err
	}
	receiver(b).Append(ts.Items()...)
	return starlark.None, nil
}

func tokensExtend(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var items starlark.Iterable
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &items); err != nil {
		return nil, err
	}
	var values []any
	it := items.Iterate()
	defer it.Done()
	var x starlark.Value
	for it.Next(&x) {
		values = append(values, export(x))
	}
	ts, err := coerce(thread, values...)
	if err != nil {
		return nil, err
	}
	receiver(b).Append(ts.Items()...)
	return starlark.None, nil
}

func tokensInsert(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		index int
		item  starlark.Value
	)
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &index, &item); err != nil {
		return nil, err
	}
	ts, err := coerce(thread, export(item))
	if err != nil {
		return nil, err
	}
	recv := receiver(b)
	index = clampIndex(index, recv.Len())
	for n, tok := range ts.Items() {
		recv.Insert(index+n, tok)
	}
	return starlark.None, nil
}

func tokensPop(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	recv := receiver(b)
	index := recv.Len() - 1
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0, &index); err != nil {
		return nil, err
	}
	if index < 0 {
		index += recv.Len()
	}
	if index < 0 || index >= recv.Len() {
		return nil, fmt.Errorf("pop: index out of range")
	}
	return wrapToken(recv.Delete(index)), nil
}

func tokensClear(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	receiver(b).Clear()
	return starlark.None, nil
}

func tokensCopy(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return &Tokens{ts: receiver(b).Clone()}, nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	return max(0, min(i, n))
}

// Token is the script view of one token: Ident, Literal, Punct or Group.
type Token struct {
	tok token.Token
}

var _ starlark.HasAttrs = (*Token)(nil)

func wrapToken(t token.Token) *Token {
	return &Token{tok: t}
}

func (t *Token) String() string        { return t.tok.String() }
func (t *Token) Type() string          { return t.tok.Kind().String() }
func (t *Token) Freeze()               {}
func (t *Token) Truth() starlark.Bool  { return true }
func (t *Token) Hash() (uint32, error) { return starlark.String(t.tok.String()).Hash() }

func (t *Token) Attr(name string) (starlark.Value, error) {
	switch name {
	case "kind":
		return starlark.String(t.tok.Kind().String()), nil
	case "text":
		return starlark.String(t.tok.String()), nil
	case "span":
		return starlark.String(t.tok.Span().String()), nil
	}
	switch tok := t.tok.(type) {
	case *token.Group:
		switch name {
		case "delimiter":
			return starlark.String(tok.Delim.Open() + tok.Delim.Close()), nil
		case "tokens":
			return &Tokens{ts: tok.Body}, nil
		}
	case *token.Punct:
		switch name {
		case "spacing":
			return starlark.String(tok.Spacing.String()), nil
		case "join":
			return starlark.NewBuiltin("join", punctJoin).BindReceiver(t), nil
		}
	case *token.Literal:
		switch name {
		case "suffix":
			return starlark.String(tok.Suffix), nil
		case "value":
			v, err := tok.Value()
			if err != nil {
				return nil, err
			}
			return fromGo(v), nil
		}
	}
	return nil, nil
}

func (t *Token) AttrNames() []string {
	names := []string{"kind", "span", "text"}
	switch t.tok.(type) {
	case *token.Group:
		names = append(names, "delimiter", "tokens")
	case *token.Punct:
		names = append(names, "join", "spacing")
	case *token.Literal:
		names = append(names, "suffix", "value")
	}
	slices.Sort(names)
	return names
}

// punctJoin interleaves the punct between the coerced items of a sequence.
func punctJoin(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var items starlark.Iterable
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &items); err != nil {
		return nil, err
	}
	sep := token.New(b.Receiver().(*Token).tok)
	var parts []*token.Tokens
	it := items.Iterate()
	defer it.Done()
	var x starlark.Value
	for it.Next(&x) {
		ts, err := coerce(thread, export(x))
		if err != nil {
			return nil, err
		}
		parts = append(parts, ts)
	}
	return &Tokens{ts: token.Join(sep, parts)}, nil
}

// single coerces v to exactly one token.
func single(v starlark.Value) (token.Token, error) {
	if t, ok := v.(*Token); ok {
		return t.tok, nil
	}
	ts, err := emit.Coerce([]any{export(v)}, zeroSpan, nil)
	if err != nil {
		return nil, err
	}
	if ts.Len() != 1 {
		return nil, fmt.Errorf("%s does not coerce to a single token", v)
	}
	return ts.At(0), nil
}
