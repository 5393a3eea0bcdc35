package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// ScriptLexer tokenizes block headers and directive statements. It only
// needs to be precise enough to find keywords and balance brackets;
// expressions are captured as token ranges and handed to the interpreter.
var ScriptLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `#[^\n]*`, nil},

		// Strings, with any Python prefix
		{"String", `(?:[rRbBfFuU]{1,2})?(?:"""(?:\\(?s:.)|[^\\])*?"""|'''(?:\\(?s:.)|[^\\])*?'''|"(?:\\.|[^"\\\n])*"|'(?:\\.|[^'\\\n])*')`, nil},

		// Keywords (order matters: before Ident)
		{"Keyword", `\b(?:and|as|break|continue|def|elif|else|for|from|if|import|in|is|lambda|not|or|pass|return|while|with)\b`, nil},
		{"Ident", `[\p{L}_][\p{L}\p{Nd}_]*`, nil},

		{"Number", `0[xXoObB][0-9a-fA-F_]+|[0-9][0-9_]*(?:\.[0-9_]*)?(?:[eE][+-]?[0-9]+)?|\.[0-9]+`, nil},

		{"Open", `[(\[{]`, nil},
		{"Close", `[)\]}]`, nil},
		{"Comma", `,`, nil},

		// Operators (longest first)
		{"Punct", `\*\*=?|//=?|->|<<=?|>>=?|[-+*/%&|^<>=!]=|[-+*/%&|^<>=~.:;@]`, nil},

		{"Whitespace", `[ \t\r\n]+|\\\n`, nil},
	},
})
