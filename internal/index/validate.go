package index

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ObjectKinds are the container kinds Scaladoc writes on an ObjectEntry.
var ObjectKinds = map[string]bool{
	"object":         true,
	"class":          true,
	"abstract class": true,
	"case class":     true,
	"trait":          true,
	"package":        true,
}

// MemberKinds are the declaration modifiers Scaladoc writes on a MemberEntry.
var MemberKinds = map[string]bool{
	"def":            true,
	"final def":      true,
	"abstract def":   true,
	"implicit def":   true,
	"val":            true,
	"final val":      true,
	"lazy val":       true,
	"implicit val":   true,
	"var":            true,
	"type":           true,
	"object":         true,
	"class":          true,
	"case class":     true,
	"abstract class": true,
	"trait":          true,
	"package":        true,
}

var packageNameRe = regexp.MustCompile(`^[\p{L}_$][\p{L}\p{N}_$]*(\.[\p{L}_$][\p{L}\p{N}_$]*)*$`)

// Problem is a single data-integrity fault.
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	return p.Path + ": " + p.Message
}

// ValidationError lists every fault Validate found.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid index: " + e.Problems[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "invalid index: %d problems", len(e.Problems))
	for _, p := range e.Problems {
		b.WriteString("\n  ")
		b.WriteString(p.String())
	}
	return b.String()
}

type validator struct {
	problems []Problem
}

func (v *validator) addf(path, format string, args ...any) {
	v.problems = append(v.problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Validate checks the structural properties of idx and returns a
// *ValidationError describing every fault, or nil.
func Validate(idx *PackageIndex) error {
	v := &validator{}
	for _, p := range idx.Packages() {
		if !packageNameRe.MatchString(p.Name) {
			v.addf(fmt.Sprintf("%q", p.Name), "package name is not a dotted identifier")
		}
		for i := range p.Objects {
			v.object(fmt.Sprintf("%s[%d]", p.Name, i), p.Name, &p.Objects[i])
		}
	}
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

func (v *validator) object(path, pkg string, o *ObjectEntry) {
	if o.Name == "" {
		v.addf(path, "missing name")
	} else {
		path = o.Name
		if !strings.HasPrefix(o.Name, pkg+".") {
			v.addf(path, "name is not inside package %q", pkg)
		}
	}
	if o.Kind == "" {
		v.addf(path, "missing kind")
	} else if !ObjectKinds[o.Kind] {
		v.addf(path, "unknown kind %q", o.Kind)
	}

	sections := o.Sections()
	if len(sections) == 0 {
		v.addf(path, "missing members_object")
	}
	for _, s := range sections {
		v.section(path+"."+s.Name, s)
	}
}

func (v *validator) section(path string, s Section) {
	if s.Page == "" {
		v.addf(path, "missing page")
	} else if _, err := parseRelative(s.Page); err != nil {
		v.addf(path, "page %q: %v", s.Page, err)
	}
	if len(s.Members) == 0 {
		v.addf(path, "members_%s is empty", s.Name)
		return
	}

	declared := declaredLen(s.Members)
	if !hasUniversalSuffix(s.Members) {
		v.addf(path, "members_%s does not end with the universal members in order", s.Name)
	}
	for _, m := range s.Members[:declared] {
		if IsUniversalOwner(m.Owner()) {
			v.addf(path+"."+m.Label, "inherited member listed before declared members")
		}
	}
	for i, m := range s.Members {
		v.member(fmt.Sprintf("%s[%d]", path, i), s.Page, m)
	}
}

func (v *validator) member(path, page string, m MemberEntry) {
	if m.Label != "" {
		path = path + "(" + m.Label + ")"
	}
	for _, f := range []struct{ name, val string }{
		{"label", m.Label},
		{"tail", m.Tail},
		{"member", m.Member},
		{"link", m.Link},
		{"kind", m.Kind},
	} {
		if f.val == "" {
			v.addf(path, "missing %s", f.name)
		}
	}
	if m.Kind != "" && !MemberKinds[m.Kind] {
		v.addf(path, "unknown kind %q", m.Kind)
	}
	if m.Link == "" {
		return
	}

	linkPage, anchor, err := ParseLink(m.Link)
	if err != nil {
		v.addf(path, "link %q: %v", m.Link, err)
		return
	}
	if page != "" && linkPage != page {
		v.addf(path, "link page %q differs from %q", linkPage, page)
	}
	if m.Member != "" && !strings.HasPrefix(anchor, m.SimpleName()) {
		v.addf(path, "link anchor %q does not start with %q", anchor, m.SimpleName())
	}
}

// ParseLink splits a member link into its page and anchor. The anchor is
// everything after the first '#' and is kept verbatim.
func ParseLink(link string) (page, anchor string, err error) {
	page, anchor, ok := strings.Cut(link, "#")
	if !ok {
		return "", "", fmt.Errorf("no '#' anchor")
	}
	if page == "" {
		return "", "", fmt.Errorf("empty page")
	}
	if anchor == "" {
		return "", "", fmt.Errorf("empty anchor")
	}
	if _, err := parseRelative(page); err != nil {
		return "", "", err
	}
	return page, anchor, nil
}

func parseRelative(page string) (*url.URL, error) {
	u, err := url.Parse(page)
	if err != nil {
		return nil, err
	}
	if u.IsAbs() || u.Host != "" || strings.HasPrefix(page, "/") {
		return nil, fmt.Errorf("not a relative URL")
	}
	return u, nil
}
