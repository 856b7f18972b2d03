package gosrc

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"
)

// DirectivePrefix starts coverage directives: //coverage:on and //coverage:off.
const DirectivePrefix = "//coverage:"

type directive struct {
	pos   token.Pos
	value string
}

// parseDirectives extracts well-formed coverage directives of a comment group.
// Malformed and repeated directives are reported and dropped, so only a single
// "on" or "off" can reach the definition graph.
func (b *builder) parseDirectives(group *ast.CommentGroup) []directive {
	var res []directive
	for _, c := range group.List {
		value, ok := strings.CutPrefix(c.Text, DirectivePrefix)
		if !ok {
			continue
		}

		value = strings.TrimRight(value, " \t\r")
		if value != "on" && value != "off" {
			b.reportf(c.Pos(), "malformed coverage directive %q: want %son or %soff", c.Text, DirectivePrefix, DirectivePrefix)
			continue
		}

		if len(res) > 0 {
			b.reportf(c.Pos(), "repeated coverage directive %q, the first one %s%s is in effect", c.Text, DirectivePrefix, res[0].value)
			continue
		}

		res = append(res, directive{pos: c.Pos(), value: value})
	}

	return res
}

func (b *builder) reportf(pos token.Pos, format string, a ...any) {
	if b.report == nil {
		return
	}

	b.report(pos, fmt.Sprintf(format, a...))
}
