package emit

import (
	"fmt"

	errs "splice/internal/errors"
	"splice/internal/parser"
	"splice/token"
)

// Merge joins the text of two tokens and re-lexes it. The result must be a
// single identifier or literal, as in Vec ~ 3 => Vec3.
func Merge(left, right token.Token) (token.Token, *errs.TokenizationError) {
	text := left.String() + right.String()
	if left.Kind() == token.KindGroup || right.Kind() == token.KindGroup {
		return nil, errs.NewTokenizationError(errs.ErrorInvalidConcat,
			"cannot concatenate a delimited group", fmt.Sprintf("%q", text))
	}
	ts, err := parser.ParseString("<concat>", text)
	if err != nil || ts.Len() != 1 {
		return nil, errs.NewTokenizationError(errs.ErrorInvalidConcat,
			"concatenation does not form a single token", fmt.Sprintf("%q", text))
	}
	merged := ts.At(0)
	switch merged.Kind() {
	case token.KindIdent, token.KindLiteral:
	default:
		return nil, errs.NewTokenizationError(errs.ErrorInvalidConcat,
			"concatenation must form an identifier or literal", fmt.Sprintf("%q", text))
	}

	merged.SetSpan(left.Span().Cover(right.Span()))
	if o := right.Origin(); o != nil {
		merged.SetOrigin(o)
	} else {
		merged.SetOrigin(left.Origin())
	}
	if lead, ok := left.Lead(); ok {
		merged.SetLead(lead)
	} else {
		merged.ClearLead()
	}
	return merged, nil
}
