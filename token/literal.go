package token

import (
	"fmt"
	"math"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"
)

type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitStr
	LitRawStr
	LitChar
	LitByte
	LitByteStr
	LitRawByteStr
	LitCStr
	LitRawCStr
)

var litKindNames = [...]string{
	LitInt:        "int",
	LitFloat:      "float",
	LitStr:        "str",
	LitRawStr:     "raw str",
	LitChar:       "char",
	LitByte:       "byte",
	LitByteStr:    "byte str",
	LitRawByteStr: "raw byte str",
	LitCStr:       "c str",
	LitRawCStr:    "raw c str",
}

func (k LitKind) String() string {
	return litKindNames[k]
}

var (
	IntSuffixes   = []string{"u8", "u16", "u32", "u64", "u128", "usize", "i8", "i16", "i32", "i64", "i128", "isize"}
	FloatSuffixes = []string{"f32", "f64"}
)

// Literal keeps the exact source representation; Value decodes it.
type Literal struct {
	base
	Lit    LitKind
	Repr   string
	Suffix string
}

func (l *Literal) Kind() Kind     { return KindLiteral }
func (l *Literal) String() string { return l.Repr }
func (l *Literal) Clone() Token   { c := *l; return &c }

// NewLiteralRepr wraps already-lexed literal text.
func NewLiteralRepr(kind LitKind, repr, suffix string) *Literal {
	return &Literal{Lit: kind, Repr: repr, Suffix: suffix}
}

// NewInt builds an integer literal. A non-empty suffix must name an integer
// type and the value must fit it.
func NewInt(v *big.Int, suffix string) (*Literal, error) {
	if suffix != "" {
		if !slices.Contains(IntSuffixes, suffix) {
			return nil, fmt.Errorf("invalid integer suffix %q", suffix)
		}
		lo, hi := intRange(suffix)
		if v.Cmp(lo) < 0 || v.Cmp(hi) > 0 {
			return nil, fmt.Errorf("integer %s out of range for %s", v, suffix)
		}
	}
	return &Literal{Lit: LitInt, Repr: v.String() + suffix, Suffix: suffix}, nil
}

func intRange(suffix string) (lo, hi *big.Int) {
	bits := 64
	switch strings.TrimLeft(suffix, "ui") {
	case "8":
		bits = 8
	case "16":
		bits = 16
	case "32":
		bits = 32
	case "128":
		bits = 128
	}
	one := big.NewInt(1)
	if suffix[0] == 'u' {
		return new(big.Int), new(big.Int).Sub(new(big.Int).Lsh(one, uint(bits)), one)
	}
	hi = new(big.Int).Sub(new(big.Int).Lsh(one, uint(bits-1)), one)
	lo = new(big.Int).Neg(new(big.Int).Lsh(one, uint(bits-1)))
	return lo, hi
}

// NewFloat builds a float literal; the value must be finite.
func NewFloat(v float64, suffix string) (*Literal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("float literal must be finite, got %v", v)
	}
	if suffix != "" && !slices.Contains(FloatSuffixes, suffix) {
		return nil, fmt.Errorf("invalid float suffix %q", suffix)
	}
	if suffix == "f32" && math.Abs(v) > math.MaxFloat32 {
		return nil, fmt.Errorf("float %v out of range for f32", v)
	}
	repr := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(repr, ".eE") {
		repr += ".0"
	} else if i := strings.IndexAny(repr, "eE"); i >= 0 && !strings.Contains(repr[:i], ".") {
		repr = repr[:i] + ".0" + repr[i:]
	}
	return &Literal{Lit: LitFloat, Repr: repr + suffix, Suffix: suffix}, nil
}

func NewString(s string) *Literal {
	return &Literal{Lit: LitStr, Repr: `"` + escape(s, '"', false) + `"`}
}

func NewChar(r rune) *Literal {
	return &Literal{Lit: LitChar, Repr: "'" + escape(string(r), '\'', false) + "'"}
}

func NewCString(s string) (*Literal, error) {
	if strings.ContainsRune(s, 0) {
		return nil, fmt.Errorf("c string literal may not contain NUL")
	}
	return &Literal{Lit: LitCStr, Repr: `c"` + escape(s, '"', false) + `"`}, nil
}

func NewByte(b byte) *Literal {
	return &Literal{Lit: LitByte, Repr: "b'" + escape(string([]byte{b}), '\'', true) + "'"}
}

func NewByteString(bs []byte) *Literal {
	return &Literal{Lit: LitByteStr, Repr: `b"` + escape(string(bs), '"', true) + `"`}
}

func escape(s string, quote byte, bytewise bool) string {
	var b strings.Builder
	if bytewise {
		for i := 0; i < len(s); i++ {
			writeEscaped(&b, rune(s[i]), quote, true)
		}
		return b.String()
	}
	for _, r := range s {
		writeEscaped(&b, r, quote, false)
	}
	return b.String()
}

func writeEscaped(b *strings.Builder, r rune, quote byte, bytewise bool) {
	switch {
	case r == '\\':
		b.WriteString(`\\`)
	case r == rune(quote):
		b.WriteByte('\\')
		b.WriteByte(quote)
	case r == '\n':
		b.WriteString(`\n`)
	case r == '\r':
		b.WriteString(`\r`)
	case r == '\t':
		b.WriteString(`\t`)
	case r == 0:
		b.WriteString(`\0`)
	case bytewise && (r < 0x20 || r >= 0x7f):
		fmt.Fprintf(b, `\x%02x`, r)
	case !bytewise && (r < 0x20 || r == 0x7f):
		fmt.Fprintf(b, `\u{%x}`, r)
	default:
		b.WriteRune(r)
	}
}

// Value decodes the literal: *big.Int, float64, string (str, char, c str)
// or []byte (byte, byte str).
func (l *Literal) Value() (any, error) {
	body := strings.TrimSuffix(l.Repr, l.Suffix)
	switch l.Lit {
	case LitInt:
		v, ok := new(big.Int).SetString(strings.ReplaceAll(body, "_", ""), 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer literal %q", l.Repr)
		}
		return v, nil
	case LitFloat:
		return strconv.ParseFloat(strings.ReplaceAll(body, "_", ""), 64)
	case LitStr, LitChar, LitCStr:
		s, err := unquote(strings.TrimPrefix(body, "c"), false)
		return s, err
	case LitByte, LitByteStr:
		s, err := unquote(body[1:], true)
		return []byte(s), err
	case LitRawStr, LitRawCStr:
		return unquoteRaw(strings.TrimPrefix(body, "c")), nil
	case LitRawByteStr:
		return []byte(unquoteRaw(body[1:])), nil
	}
	return nil, fmt.Errorf("unknown literal kind %d", l.Lit)
}

func unquoteRaw(s string) string {
	s = strings.TrimPrefix(s, "r")
	hashes := len(s) - len(strings.TrimLeft(s, "#"))
	return s[hashes+1 : len(s)-hashes-1]
}

func unquote(s string, bytewise bool) (string, error) {
	if len(s) < 2 {
		return "", fmt.Errorf("malformed quoted literal %q", s)
	}
	s = s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("dangling escape in %q", s)
		}
		i += 2
		switch s[i-1] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '0':
			b.WriteByte(0)
		case '\\', '\'', '"':
			b.WriteByte(s[i-1])
		case 'x':
			if i+2 > len(s) {
				return "", fmt.Errorf("short \\x escape in %q", s)
			}
			v, err := strconv.ParseUint(s[i:i+2], 16, 8)
			if err != nil {
				return "", err
			}
			if bytewise {
				b.WriteByte(byte(v))
			} else {
				b.WriteRune(rune(v))
			}
			i += 2
		case 'u':
			end := strings.IndexByte(s[i:], '}')
			if end < 0 || s[i] != '{' {
				return "", fmt.Errorf("malformed \\u escape in %q", s)
			}
			v, err := strconv.ParseUint(strings.ReplaceAll(s[i+1:i+end], "_", ""), 16, 32)
			if err != nil || !utf8.ValidRune(rune(v)) {
				return "", fmt.Errorf("invalid unicode escape in %q", s)
			}
			b.WriteRune(rune(v))
			i += end + 1
		case '\n':
			for i < len(s) && strings.IndexByte(" \t\n\r", s[i]) >= 0 {
				i++
			}
		default:
			return "", fmt.Errorf("unknown escape \\%c", s[i-1])
		}
	}
	return b.String(), nil
}
