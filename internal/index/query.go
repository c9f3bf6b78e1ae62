package index

import (
	"regexp"
	"strings"
)

// Query is a parsed search expression: free terms plus field filters.
type Query struct {
	Terms    []string
	Kinds    []string // exact kind, e.g. "final def"
	Packages []string // package name or parent package
	Owners   []string // declaring entity, e.g. scala.AnyRef
	Raw      string
}

// Empty reports whether the query has neither terms nor filters.
func (q Query) Empty() bool {
	return len(q.Terms) == 0 && len(q.Kinds) == 0 && len(q.Packages) == 0 && len(q.Owners) == 0
}

// key:value or key:"quoted value"
var filterRe = regexp.MustCompile(`([\w-]+):("([^"]*)"|(\S+))`)

// ParseQuery splits s into filters and free terms. Unknown filter keys are
// kept as literal terms so operator names such as "scala.Any:x" still search.
func ParseQuery(s string) Query {
	q := Query{Raw: s}
	rest := filterRe.ReplaceAllStringFunc(s, func(match string) string {
		m := filterRe.FindStringSubmatch(match)
		value := m[4]
		if strings.HasPrefix(m[2], `"`) {
			value = m[3]
		}
		switch strings.ToLower(m[1]) {
		case "kind":
			q.Kinds = append(q.Kinds, value)
		case "pkg", "package":
			q.Packages = append(q.Packages, value)
		case "owner":
			q.Owners = append(q.Owners, value)
		default:
			return match
		}
		return " "
	})
	q.Terms = strings.Fields(rest)
	return q
}

func matchesAny(values []string, pred func(string) bool) bool {
	if len(values) == 0 {
		return true
	}
	for _, v := range values {
		if pred(v) {
			return true
		}
	}
	return false
}

func (q Query) acceptPackage(pkg string) bool {
	return matchesAny(q.Packages, func(v string) bool {
		return pkg == v || strings.HasPrefix(pkg, v+".")
	})
}

func (q Query) acceptKind(kind string) bool {
	return matchesAny(q.Kinds, func(v string) bool { return kind == v })
}

func (q Query) acceptOwner(owner string) bool {
	return matchesAny(q.Owners, func(v string) bool { return owner == v })
}
