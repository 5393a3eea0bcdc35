package errors

import (
	"fmt"
)

// repeatCutoff is how many identical consecutive frames are printed before
// the rest are collapsed.
const repeatCutoff = 3

// RenderTraceback formats frames one per line, most recent call first,
// collapsing long runs of identical frames the way recursion errors are
// usually shown.
func RenderTraceback(frames []Frame) []string {
	if len(frames) == 0 {
		return nil
	}
	lines := []string{"Traceback (most recent call first):"}
	var last string
	count := 0
	flush := func() {
		if count > repeatCutoff {
			n := count - repeatCutoff
			plural := "s"
			if n == 1 {
				plural = ""
			}
			lines = append(lines, fmt.Sprintf("  [Previous line repeated %d more time%s]", n, plural))
		}
	}
	for _, f := range frames {
		line := "  " + f.String()
		if line == last {
			count++
			if count <= repeatCutoff {
				lines = append(lines, line)
			}
			continue
		}
		flush()
		last = line
		count = 1
		lines = append(lines, line)
	}
	flush()
	return lines
}
