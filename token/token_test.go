package token

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdent(t *testing.T) {
	id, err := NewIdent("Vec3")
	require.NoError(t, err)
	assert.Equal(t, "Vec3", id.String())

	raw, err := NewIdent("r#type")
	require.NoError(t, err)
	assert.True(t, raw.Raw)
	assert.Equal(t, "type", raw.Name)
	assert.Equal(t, "r#type", raw.String())

	for _, bad := range []string{"", "3d", "a-b", "a b"} {
		_, err := NewIdent(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewIdentNormalizes(t *testing.T) {
	id, err := NewIdent("e\u0301te")
	require.NoError(t, err)
	assert.Equal(t, "\u00e9te", id.Name)
}

func TestNewPunct(t *testing.T) {
	p, err := NewPunct("::", Alone)
	require.NoError(t, err)
	assert.Equal(t, "::", p.String())

	_, err = NewPunct("a", Alone)
	assert.Error(t, err)
	_, err = NewPunct("", Alone)
	assert.Error(t, err)
}

func TestIntLiterals(t *testing.T) {
	tests := []struct {
		value  int64
		suffix string
		repr   string
		ok     bool
	}{
		{42, "", "42", true},
		{255, "u8", "255u8", true},
		{256, "u8", "", false},
		{-1, "u32", "", false},
		{-128, "i8", "-128i8", true},
		{-129, "i8", "", false},
		{1, "f32", "", false},
	}
	for _, tt := range tests {
		lit, err := NewInt(big.NewInt(tt.value), tt.suffix)
		if !tt.ok {
			assert.Error(t, err, "%d%s", tt.value, tt.suffix)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.repr, lit.Repr)
		v, err := lit.Value()
		require.NoError(t, err)
		assert.Equal(t, 0, v.(*big.Int).Cmp(big.NewInt(tt.value)))
	}
}

func TestU128Range(t *testing.T) {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	_, err := NewInt(max, "u128")
	assert.NoError(t, err)
	_, err = NewInt(new(big.Int).Add(max, big.NewInt(1)), "u128")
	assert.Error(t, err)
}

func TestFloatLiterals(t *testing.T) {
	lit, err := NewFloat(2, "")
	require.NoError(t, err)
	assert.Equal(t, "2.0", lit.Repr)

	lit, err = NewFloat(1.5, "f32")
	require.NoError(t, err)
	assert.Equal(t, "1.5f32", lit.Repr)

	lit, err = NewFloat(1e21, "")
	require.NoError(t, err)
	assert.Equal(t, "1.0e+21", lit.Repr)

	_, err = NewFloat(math.Inf(1), "")
	assert.Error(t, err)
	_, err = NewFloat(math.NaN(), "f64")
	assert.Error(t, err)
	_, err = NewFloat(1e300, "f32")
	assert.Error(t, err)
}

func TestStringLiteralRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		`fn main() { println!("hi"); }`,
		"tab\tnewline\nquote\"backslash\\",
		"\x00\x7f",
		"ünïcödé ✓",
	}
	for _, in := range inputs {
		lit := NewString(in)
		assert.Equal(t, LitStr, lit.Lit)
		v, err := lit.Value()
		require.NoError(t, err)
		assert.Equal(t, in, v, lit.Repr)
	}
}

func TestCharAndByteLiterals(t *testing.T) {
	c := NewChar('\'')
	assert.Equal(t, `'\''`, c.Repr)
	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, "'", v)

	b := NewByte(0xff)
	assert.Equal(t, `b'\xff'`, b.Repr)
	v, err = b.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff}, v)

	bs := NewByteString([]byte("a\"\x01"))
	assert.Equal(t, `b"a\"\x01"`, bs.Repr)

	cs, err := NewCString("hi")
	require.NoError(t, err)
	assert.Equal(t, `c"hi"`, cs.Repr)
	_, err = NewCString("a\x00b")
	assert.Error(t, err)
}

func TestRawStringValue(t *testing.T) {
	lit := NewLiteralRepr(LitRawStr, `r#"a "quoted" \n"#`, "")
	v, err := lit.Value()
	require.NoError(t, err)
	assert.Equal(t, `a "quoted" \n`, v)
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]Delimiter{"()": Parenthesis, "{": Brace, "]": Bracket, "": None} {
		d, err := ParseDelimiter(in)
		require.NoError(t, err)
		assert.Equal(t, want, d)
	}
	_, err := ParseDelimiter("<>")
	assert.Error(t, err)
}
