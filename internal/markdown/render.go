package markdown

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jcdickinson/scaladex/internal/docs"
	"github.com/jcdickinson/scaladex/internal/index"
)

// Linker turns relative index links into the destinations written in
// rendered pages: absolute site URLs when a base is known, otherwise
// scaladoc:// URIs.
type Linker struct {
	Source  string
	BaseURL string
}

func (l Linker) Target(link string) string {
	if l.BaseURL != "" {
		if u, err := docs.ResolveLink(l.BaseURL, link); err == nil {
			return u
		}
	}
	return docs.MemberURI(l.Source, link)
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", "*", `\*`, "_", `\_`,
	"[", `\[`, "]", `\]`, "|", `\|`, "<", `\<`, ">", `\>`,
)

func escapeText(s string) string {
	return textEscaper.Replace(s)
}

// code wraps s in a code span, widening the fence if s contains backticks.
func code(s string) string {
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func simpleName(qualified string) string {
	return qualified[strings.LastIndex(qualified, ".")+1:]
}

// RenderObject renders the documentation page of one index entry.
func RenderObject(pkg string, obj *index.ObjectEntry, l Linker) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", escapeText(simpleName(obj.Name)))
	fmt.Fprintf(&b, "%s %s in package %s\n\n", obj.Kind, code(obj.Name), code(pkg))

	if desc := strings.TrimSpace(obj.ShortDescription); desc != "" {
		b.WriteString(ResolveRelativeLinks(desc, func(dest string) (string, bool) {
			return l.Target(dest), true
		}))
		b.WriteString("\n\n")
	}

	sections := obj.Sections()
	for _, s := range sections {
		if len(sections) > 1 {
			fmt.Fprintf(&b, "## %s%s\n\n", strings.ToUpper(s.Name[:1]), s.Name[1:])
		}
		if s.Page != "" {
			fmt.Fprintf(&b, "Page: [%s](%s)\n\n", escapeText(s.Page), l.Target(s.Page))
		}
		writeSection(&b, s.Members, l)
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeSection(b *strings.Builder, members []index.MemberEntry, l Linker) {
	declared, inherited := index.SplitInherited(members)

	if len(declared) > 0 {
		b.WriteString("| Member | Signature | Kind |\n|---|---|---|\n")
		for _, m := range declared {
			fmt.Fprintf(b, "| [%s](%s) | %s | %s |\n",
				escapeText(m.Label), l.Target(m.Link), cell(code(m.Tail)), m.Kind)
		}
		b.WriteString("\n")
	}

	if len(inherited) == 0 {
		return
	}

	// Group by declaring type in order of first appearance.
	var owners []string
	byOwner := make(map[string][]string)
	for _, m := range inherited {
		owner := m.Owner()
		if _, ok := byOwner[owner]; !ok {
			owners = append(owners, owner)
		}
		byOwner[owner] = append(byOwner[owner], fmt.Sprintf("[%s](%s)", escapeText(m.Label), l.Target(m.Link)))
	}
	b.WriteString("Inherited:\n\n")
	for _, owner := range owners {
		fmt.Fprintf(b, "- from %s: %s\n", code(owner), strings.Join(byOwner[owner], ", "))
	}
	b.WriteString("\n")
}

// RenderMember renders a single member followed by its owner's page.
func RenderMember(pkg string, obj *index.ObjectEntry, m *index.MemberEntry, l Linker) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeText(m.Label))
	fmt.Fprintf(&b, "```scala\n%s %s%s\n```\n\n", m.Kind, m.Label, m.Tail)
	fmt.Fprintf(&b, "Member %s of %s. [Documentation](%s)\n\n", code(m.Member), code(obj.Name), l.Target(m.Link))
	b.WriteString("---\n\n")
	b.WriteString(RenderObject(pkg, obj, l))
	return b.String()
}

// RenderPackage lists the entries of a package.
func RenderPackage(name string, objects []index.ObjectEntry, l Linker) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# package %s\n\n", escapeText(name))
	if len(objects) == 0 {
		b.WriteString("No documented entries.\n")
		return b.String()
	}
	for i := range objects {
		o := &objects[i]
		fmt.Fprintf(&b, "- %s [%s](%s)", o.Kind, escapeText(simpleName(o.Name)), l.Target(o.Page()))
		if desc := strings.TrimSpace(o.ShortDescription); desc != "" {
			fmt.Fprintf(&b, ": %s", desc)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// AddFrontMatter prepends a YAML front-matter block of the given fields.
func AddFrontMatter(src string, fields map[string]string) string {
	if len(fields) == 0 {
		return src
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("---\n")
	for _, k := range keys {
		b.WriteString(fmt.Sprintf("%s: %s\n", k, fields[k]))
	}
	b.WriteString("---\n\n")
	b.WriteString(src)
	return b.String()
}

// StripFrontMatter removes a leading front-matter block added by AddFrontMatter.
func StripFrontMatter(src string) string {
	if !strings.HasPrefix(src, "---\n") {
		return src
	}
	end := strings.Index(src[4:], "\n---\n")
	if end < 0 {
		return src
	}
	return strings.TrimLeft(src[4+end+5:], "\n")
}
