package markdown

import (
	"strings"

	gm "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/html"
	gmparser "github.com/gomarkdown/markdown/parser"
)

func newParser() *gmparser.Parser {
	return gmparser.NewWithExtensions(gmparser.CommonExtensions | gmparser.Autolink)
}

// Destinations returns the unique link destinations in src, in document order.
func Destinations(src string) []string {
	doc := gm.Parse([]byte(src), newParser())

	seen := make(map[string]bool)
	var out []string
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if link, ok := node.(*ast.Link); ok {
			dest := string(link.Destination)
			if !seen[dest] {
				seen[dest] = true
				out = append(out, dest)
			}
		}
		return ast.GoToNext
	})
	return out
}

// RewriteLinks rewrites markdown link destinations using the provided link map.
// It parses the markdown to AST to find all link destinations, then performs
// targeted string replacements to preserve original formatting.
func RewriteLinks(src string, linkMap map[string]string) string {
	if len(linkMap) == 0 {
		return src
	}

	type replacement struct {
		oldDest string
		newDest string
	}
	var replacements []replacement
	for _, dest := range Destinations(src) {
		if newDest, ok := linkMap[dest]; ok {
			replacements = append(replacements, replacement{dest, newDest})
		}
	}

	if len(replacements) == 0 {
		return src
	}

	result := src

	// Inline links: [text](destination), one pass per replacement
	for _, r := range replacements {
		result = strings.ReplaceAll(result, "]("+r.oldDest+")", "]("+r.newDest+")")
	}

	// Reference-style definitions: [ref]: destination
	refMap := make(map[string]string, len(replacements))
	for _, r := range replacements {
		refMap["]: "+r.oldDest] = "]: " + r.newDest
	}
	lines := strings.Split(result, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for oldSuffix, newSuffix := range refMap {
			if strings.HasSuffix(trimmed, oldSuffix) {
				lines[i] = strings.Replace(line, oldSuffix, newSuffix, 1)
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

// ResolveRelativeLinks rewrites every relative link destination in src with
// resolve. Absolute URLs, fragments and destinations resolve rejects are kept.
func ResolveRelativeLinks(src string, resolve func(string) (string, bool)) string {
	linkMap := make(map[string]string)
	for _, dest := range Destinations(src) {
		if dest == "" || strings.HasPrefix(dest, "#") || strings.Contains(dest, "://") || strings.HasPrefix(dest, "mailto:") {
			continue
		}
		if target, ok := resolve(dest); ok {
			linkMap[dest] = target
		}
	}
	return RewriteLinks(src, linkMap)
}

// ToHTML renders markdown as an HTML fragment.
func ToHTML(src string) []byte {
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return gm.ToHTML([]byte(src), newParser(), renderer)
}
