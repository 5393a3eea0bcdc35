package grammar

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Header is the code between a block's '$' and its ':{'.
type Header struct {
	Pos   lexer.Position
	For   *For   `  @@`
	If    *If    `| @@`
	Elif  *Elif  `| @@`
	Else  *Else  `| @@`
	While *While `| @@`
	With  *With  `| @@`
	Def   *Def   `| @@`
}

// Keyword returns the keyword introducing the header.
func (h *Header) Keyword() string {
	switch {
	case h.For != nil:
		return "for"
	case h.If != nil:
		return "if"
	case h.Elif != nil:
		return "elif"
	case h.Else != nil:
		return "else"
	case h.While != nil:
		return "while"
	case h.With != nil:
		return "with"
	case h.Def != nil:
		return "def"
	}
	return ""
}

type For struct {
	Pos     lexer.Position
	Targets *Targets `"for" @@`
	Iter    *Expr    `"in" @@`
}

type If struct {
	Pos  lexer.Position
	Cond *Expr `"if" @@`
}

type Elif struct {
	Pos  lexer.Position
	Cond *Expr `"elif" @@`
}

type Else struct {
	Pos     lexer.Position
	Keyword string `@"else"`
}

type While struct {
	Pos  lexer.Position
	Cond *Expr `"while" @@`
}

type With struct {
	Pos   lexer.Position
	Value *WithExpr `"with" @@`
	Alias string    `[ "as" @Ident ]`
}

type Def struct {
	Pos    lexer.Position
	Name   string   `"def" @Ident "("`
	Params []*Param `[ @@ { "," @@ } [ "," ] ] ")"`
}

// Param is one parameter of a def header. Star is "*" or "**" for
// variadic parameters.
type Param struct {
	Pos     lexer.Position
	Star    string   `[ @("*" | "**") ]`
	Name    string   `@Ident`
	Default *ArgExpr `[ "=" @@ ]`
}

// Targets is the left side of a for header: a, (b, c), ...
type Targets struct {
	Tokens []lexer.Token
	Items  []*Target `@@ { "," @@ } [ "," ]`
}

type Target struct {
	Name  string    `  @Ident`
	Tuple []*Target `| "(" @@ { "," @@ } [ "," ] ")"`
	List  []*Target `| "[" @@ { "," @@ } [ "," ] "]"`
}

// Names lists every variable bound by the targets, left to right.
func (t *Targets) Names() []string {
	var names []string
	for _, item := range t.Items {
		names = item.names(names)
	}
	return names
}

func (t *Target) names(acc []string) []string {
	if t.Name != "" {
		return append(acc, t.Name)
	}
	for _, sub := range t.Tuple {
		acc = sub.names(acc)
	}
	for _, sub := range t.List {
		acc = sub.names(acc)
	}
	return acc
}

func (t *Targets) Extent() (int, int) { return extent(t.Tokens) }

// Expr is an opaque expression running to the end of the header.
type Expr struct {
	Tokens []lexer.Token
	Atoms  []*Atom `@@+`
}

func (e *Expr) Extent() (int, int) { return extent(e.Tokens) }

// WithExpr is an expression that stops before a top-level "as".
type WithExpr struct {
	Tokens []lexer.Token
	Atoms  []*WithAtom `@@+`
}

func (e *WithExpr) Extent() (int, int) { return extent(e.Tokens) }

// ArgExpr is an expression that stops before a top-level comma.
type ArgExpr struct {
	Tokens []lexer.Token
	Atoms  []*Atom `@@+`
}

func (e *ArgExpr) Extent() (int, int) { return extent(e.Tokens) }

type Atom struct {
	Group *Group `  @@`
	Token string `| @(Ident | Number | String | Punct | Keyword)`
}

type WithAtom struct {
	Group *Group `  @@`
	Token string `| @(Ident | Number | String | Punct | Comma)`
	Word  string `| @("and" | "or" | "not" | "in" | "is" | "if" | "else" | "for" | "lambda")`
}

// Group is a bracketed sub-expression; anything goes inside it.
type Group struct {
	Open  string       `@Open`
	Items []*GroupItem `@@*`
	Close string       `@Close`
}

type GroupItem struct {
	Group *Group `  @@`
	Token string `| @(Ident | Number | String | Punct | Keyword | Comma)`
}

// Directive is a statement the translator handles itself instead of
// passing it to the interpreter.
type Directive struct {
	Pos      lexer.Position
	Import   *Import `  @@`
	From     *From   `| @@`
	Break    bool    `| @"break"`
	Continue bool    `| @"continue"`
	Pass     bool    `| @"pass"`
	Return   *Return `| @@`
}

type Import struct {
	Pos     lexer.Position
	Modules []*ImportSpec `"import" @@ { "," @@ }`
}

type ImportSpec struct {
	Pos   lexer.Position
	Path  []string `@Ident { "." @Ident }`
	Alias string   `[ "as" @Ident ]`
}

// Module returns the dotted module path.
func (s *ImportSpec) Module() string { return strings.Join(s.Path, ".") }

// Binding returns the name the import binds: the alias, or the first
// path component.
func (s *ImportSpec) Binding() string {
	if s.Alias != "" {
		return s.Alias
	}
	return s.Path[0]
}

type From struct {
	Pos   lexer.Position
	Path  []string      `"from" @Ident { "." @Ident }`
	Names []*ImportName `"import" ( "(" @@ { "," @@ } [ "," ] ")" | @@ { "," @@ } )`
}

func (f *From) Module() string { return strings.Join(f.Path, ".") }

type ImportName struct {
	Name  string `@Ident`
	Alias string `[ "as" @Ident ]`
}

func (n *ImportName) Binding() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}

type Return struct {
	Pos   lexer.Position
	Value *Expr `"return" [ @@ ]`
}
