package source

import (
	"fmt"
)

// OriginKind tells what produced a generated token.
type OriginKind uint8

const (
	OriginInvocation OriginKind = iota
	OriginExpr
	OriginStmt
	OriginLoop
	OriginWith
	OriginCall
)

var originKindNames = [...]string{
	OriginInvocation: "macro invocation",
	OriginExpr:       "expression",
	OriginStmt:       "statement",
	OriginLoop:       "loop iteration",
	OriginWith:       "with block",
	OriginCall:       "function call",
}

func (k OriginKind) String() string {
	if int(k) < len(originKindNames) {
		return originKindNames[k]
	}
	return fmt.Sprintf("OriginKind(%d)", k)
}

// Origin is a backlink from generated tokens to the scripting source that
// produced them. Following Parent always ends at an OriginInvocation link.
type Origin struct {
	Kind   OriginKind
	Span   Span
	Index  int // iteration number for OriginLoop
	Parent *Origin
}

func NewInvocation(span Span) *Origin {
	return &Origin{Kind: OriginInvocation, Span: span}
}

func (o *Origin) Child(kind OriginKind, span Span) *Origin {
	return &Origin{Kind: kind, Span: span, Parent: o}
}

func (o *Origin) Iteration(span Span, index int) *Origin {
	return &Origin{Kind: OriginLoop, Span: span, Index: index, Parent: o}
}

// Root returns the invocation at the end of the chain.
func (o *Origin) Root() *Origin {
	for o != nil && o.Parent != nil {
		o = o.Parent
	}
	return o
}

// Chain lists the links from o up to the root.
func (o *Origin) Chain() []*Origin {
	var chain []*Origin
	for ; o != nil; o = o.Parent {
		chain = append(chain, o)
	}
	return chain
}

func (o *Origin) String() string {
	if o == nil {
		return "<host>"
	}
	if o.Kind == OriginLoop {
		return fmt.Sprintf("%s %d at %s", o.Kind, o.Index, o.Span)
	}
	return fmt.Sprintf("%s at %s", o.Kind, o.Span)
}
