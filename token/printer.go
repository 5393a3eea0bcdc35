package token

import (
	"strings"
)

func (ts *Tokens) render(b *strings.Builder, open map[*Tokens]bool, in Delimiter, top bool) {
	var prev Token
	for i, t := range ts.items {
		lead, ok := t.Lead()
		switch {
		case i == 0 && top:
			lead = ""
		case !ok:
			lead = separator(prev, t, in)
		}
		b.WriteString(lead)
		if g, isGroup := t.(*Group); isGroup {
			g.render(b, open)
		} else {
			b.WriteString(t.String())
		}
		prev = t
	}
}

func (g *Group) render(b *strings.Builder, open map[*Tokens]bool) {
	b.WriteString(g.Delim.Open())
	if open[g.Body] {
		b.WriteString("...")
	} else {
		open[g.Body] = true
		g.Body.render(b, open, g.Delim, false)
		delete(open, g.Body)
	}
	lead, ok := g.CloseLead()
	if !ok && g.Delim == Brace && g.Body.Len() > 0 {
		lead = " "
	}
	b.WriteString(lead)
	b.WriteString(g.Delim.Close())
}

// separator picks the whitespace printed before a token that has no source
// trivia of its own.
func separator(prev, t Token, in Delimiter) string {
	if prev == nil {
		if in == Brace {
			return " "
		}
		return ""
	}
	if p, ok := prev.(*Punct); ok && p.Spacing == Joint {
		return ""
	}
	if p, ok := t.(*Punct); ok {
		switch p.Op {
		case ",", ";", ".", ":":
			return ""
		}
	}
	if p, ok := prev.(*Punct); ok && (p.Op == "." || p.Op == "#" || p.Op == "&" || p.Op == "$") {
		return ""
	}
	if g, ok := t.(*Group); ok && g.Delim != Brace {
		if _, word := prev.(*Ident); word {
			return ""
		}
	}
	return " "
}
