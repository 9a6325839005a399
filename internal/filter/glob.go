package filter

import (
	"regexp"
	"strings"
)

// glob is an rsync-style pattern compiled to a regexp. A leading or inner
// slash anchors it to the scan root; otherwise it matches any trailing
// path component sequence. A trailing slash restricts it to directories.
type glob struct {
	re      *regexp.Regexp
	dirOnly bool
}

func compileGlob(pattern string) (*glob, error) {
	g := &glob{}
	if p, ok := strings.CutSuffix(pattern, "/"); ok {
		g.dirOnly = true
		pattern = p
	}

	anchored := strings.Contains(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")

	expr := translate(pattern)
	if anchored {
		expr = "^" + expr + "$"
	} else {
		expr = "(^|/)" + expr + "$"
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	g.re = re
	return g, nil
}

func (g *glob) match(rel string, isDir bool) bool {
	if g.dirOnly && !isDir {
		return false
	}
	return g.re.MatchString(rel)
}

// translate rewrites glob syntax as regexp syntax: "**/" spans any number
// of directories, "**" anything, "*" and "?" stay within one component,
// and [...] classes pass through with "!" negation.
func translate(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); {
		rest := pattern[i:]
		switch {
		case strings.HasPrefix(rest, "**/"):
			b.WriteString("(.*/)?")
			i += 3
		case strings.HasPrefix(rest, "**"):
			b.WriteString(".*")
			i += 2
		case rest[0] == '*':
			b.WriteString("[^/]*")
			i++
		case rest[0] == '?':
			b.WriteString("[^/]")
			i++
		case rest[0] == '[':
			if cls, n, ok := charClass(rest); ok {
				b.WriteString(cls)
				i += n
				continue
			}
			b.WriteString(`\[`)
			i++
		default:
			b.WriteString(regexp.QuoteMeta(rest[:1]))
			i++
		}
	}
	return b.String()
}

// charClass parses a bracket expression at the start of s and returns its
// regexp form and length.
func charClass(s string) (string, int, bool) {
	j := 1
	if j < len(s) && s[j] == '!' {
		j++
	}
	if j < len(s) && s[j] == ']' {
		j++
	}
	end := strings.IndexByte(s[j:], ']')
	if end < 0 {
		return "", 0, false
	}
	end += j
	body := s[1:end]
	if strings.HasPrefix(body, "!") {
		body = "^" + body[1:]
	}
	return "[" + body + "]", end + 1, true
}
