package markdown

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcdickinson/scaladex/internal/index"
)

func TestRewriteLinks_InlineLinks(t *testing.T) {
	t.Parallel()
	src := "See [Foo](old/path) for details."
	got := RewriteLinks(src, map[string]string{"old/path": "scaladoc://mill/Foo.html"})
	want := "See [Foo](scaladoc://mill/Foo.html) for details."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewriteLinks_ReferenceStyleLinks(t *testing.T) {
	t.Parallel()
	src := "See [Foo][ref] for details.\n\n[ref]: old/path"
	got := RewriteLinks(src, map[string]string{"old/path": "scaladoc://new"})
	if !strings.Contains(got, "[ref]: scaladoc://new") {
		t.Errorf("reference link not rewritten: %q", got)
	}
}

func TestRewriteLinks_EmptyMap(t *testing.T) {
	t.Parallel()
	src := "Hello [world](url)."
	got := RewriteLinks(src, nil)
	if got != src {
		t.Errorf("expected unchanged, got %q", got)
	}
	got = RewriteLinks(src, map[string]string{})
	if got != src {
		t.Errorf("expected unchanged for empty map, got %q", got)
	}
}

func TestRewriteLinks_NoMatchingLinks(t *testing.T) {
	t.Parallel()
	src := "Check [this](keep-me) out."
	got := RewriteLinks(src, map[string]string{"other": "scaladoc://x"})
	if got != src {
		t.Errorf("expected unchanged, got %q", got)
	}
}

func TestRewriteLinks_MultipleLinks(t *testing.T) {
	t.Parallel()
	src := "[A](a-dest) and [B](b-dest) together."
	got := RewriteLinks(src, map[string]string{
		"a-dest": "scaladoc://a",
		"b-dest": "scaladoc://b",
	})
	if !strings.Contains(got, "(scaladoc://a)") {
		t.Error("link A not rewritten")
	}
	if !strings.Contains(got, "(scaladoc://b)") {
		t.Error("link B not rewritten")
	}
}

func TestResolveRelativeLinks(t *testing.T) {
	t.Parallel()
	src := "[rel](p/A.html) [abs](https://example.com/x) [frag](#top)"
	got := ResolveRelativeLinks(src, func(dest string) (string, bool) {
		return "https://docs.example.com/" + dest, true
	})
	want := "[rel](https://docs.example.com/p/A.html) [abs](https://example.com/x) [frag](#top)"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDestinations(t *testing.T) {
	t.Parallel()
	got := Destinations("[a](x) [b](y) [c](x)")
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Errorf("got %v", got)
	}
}

func TestToHTML(t *testing.T) {
	t.Parallel()
	got := string(ToHTML("# Title\n\nSee [docs](https://example.com/a.html)."))
	if !strings.Contains(got, "<h1") || !strings.Contains(got, "Title") {
		t.Errorf("heading missing: %s", got)
	}
	if !strings.Contains(got, `href="https://example.com/a.html"`) {
		t.Errorf("link missing: %s", got)
	}
}

func TestAddFrontMatter(t *testing.T) {
	t.Parallel()

	t.Run("basic", func(t *testing.T) {
		got := AddFrontMatter("# Doc", map[string]string{"uri": "scaladoc://x/p/A.html"})
		if !strings.HasPrefix(got, "---\n") {
			t.Error("missing opening ---")
		}
		if !strings.Contains(got, "uri: scaladoc://x/p/A.html") {
			t.Error("missing field")
		}
		if !strings.HasSuffix(got, "# Doc") {
			t.Error("original content missing")
		}
	})

	t.Run("sorted_keys", func(t *testing.T) {
		got := AddFrontMatter("body", map[string]string{
			"z-field": "z",
			"a-field": "a",
		})
		aIdx := strings.Index(got, "a-field")
		zIdx := strings.Index(got, "z-field")
		if aIdx > zIdx {
			t.Error("keys not sorted alphabetically")
		}
	})

	t.Run("empty_map", func(t *testing.T) {
		got := AddFrontMatter("body", nil)
		if got != "body" {
			t.Errorf("expected unchanged for empty map, got %q", got)
		}
	})

	t.Run("strip", func(t *testing.T) {
		src := AddFrontMatter("# Doc\n", map[string]string{"uri": "scaladoc://x/p/A.html", "url": "https://x"})
		if got := StripFrontMatter(src); got != "# Doc\n" {
			t.Errorf("StripFrontMatter = %q", got)
		}
		if got := StripFrontMatter("# Doc\n---\n"); got != "# Doc\n---\n" {
			t.Errorf("body without front matter changed: %q", got)
		}
	})
}

func loadFixture(t *testing.T) *index.PackageIndex {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "index", "testdata", "index.js"))
	if err != nil {
		t.Fatal(err)
	}
	idx, err := index.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestRenderObject(t *testing.T) {
	t.Parallel()
	idx := loadFixture(t)
	obj, pkg, err := idx.Object("milltest.lib1.api1")
	if err != nil {
		t.Fatal(err)
	}

	t.Run("with_base", func(t *testing.T) {
		got := RenderObject(pkg, obj, Linker{Source: "mill", BaseURL: "https://example.com/api/"})
		for _, want := range []string{
			"# api1\n",
			"object `milltest.lib1.api1` in package `milltest.lib1`",
			"Page: [milltest/lib1/api1$.html](https://example.com/api/milltest/lib1/api1$.html)",
			"| [f1](https://example.com/api/milltest/lib1/api1$.html#f1(v:Int):Int) | `(v: Int): Int` | def |",
			"- from `scala.AnyRef`: [synchronized](",
			"- from `scala.Any`: [asInstanceOf](",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("missing %q in:\n%s", want, got)
			}
		}
		if strings.Contains(got, "| [toString]") {
			t.Error("inherited member rendered in the declared table")
		}
	})

	t.Run("without_base", func(t *testing.T) {
		got := RenderObject(pkg, obj, Linker{Source: "mill"})
		if !strings.Contains(got, "[f1](scaladoc://mill/milltest/lib1/api1$.html#f1(v:Int):Int)") {
			t.Errorf("expected scaladoc URI links:\n%s", got)
		}
	})
}

func TestRenderObject_Companion(t *testing.T) {
	t.Parallel()
	obj := &index.ObjectEntry{
		Name:             "p.Box",
		ShortDescription: "A box. See [Other](p/Other.html).",
		Object:           "p/Box$.html",
		MembersObject:    []index.MemberEntry{{Label: "apply", Tail: "(): Box", Member: "p.Box.apply", Link: "p/Box$.html#apply():p.Box", Kind: "def"}},
		Class:            "p/Box.html",
		MembersClass:     []index.MemberEntry{{Label: "size", Tail: ": Int", Member: "p.Box.size", Link: "p/Box.html#size:Int", Kind: "val"}},
		Kind:             "class",
	}
	got := RenderObject("p", obj, Linker{Source: "s", BaseURL: "https://x.org/"})
	for _, want := range []string{
		"## Object\n",
		"## Class\n",
		"See [Other](https://x.org/p/Other.html).",
		"| [size](https://x.org/p/Box.html#size:Int) | `: Int` | val |",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestRenderMember(t *testing.T) {
	t.Parallel()
	idx := loadFixture(t)
	obj, pkg, err := idx.Object("milltest.lib2.api2")
	if err != nil {
		t.Fatal(err)
	}
	m := &obj.Members("f2")[0]
	got := RenderMember(pkg, obj, m, Linker{Source: "mill"})
	if !strings.HasPrefix(got, "# f2\n") {
		t.Errorf("unexpected heading:\n%s", got)
	}
	if !strings.Contains(got, "def f2(v: Int): Int") {
		t.Errorf("signature missing:\n%s", got)
	}
	if !strings.Contains(got, "# api2") {
		t.Errorf("owner page missing:\n%s", got)
	}
}

func TestRenderPackage(t *testing.T) {
	t.Parallel()
	idx := loadFixture(t)

	objs, err := idx.Package("milltest.lib1")
	if err != nil {
		t.Fatal(err)
	}
	got := RenderPackage("milltest.lib1", objs, Linker{Source: "mill"})
	if !strings.Contains(got, "- object [api1](scaladoc://mill/milltest/lib1/api1$.html)") {
		t.Errorf("entry missing:\n%s", got)
	}

	empty, err := idx.Package("milltest")
	if err != nil {
		t.Fatal(err)
	}
	if got := RenderPackage("milltest", empty, Linker{}); !strings.Contains(got, "No documented entries.") {
		t.Errorf("got %q", got)
	}
}

func TestCode(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"(v: Int): Int": "`(v: Int): Int`",
		"a`b":           "``a`b``",
		"`x":            "`` `x ``",
	}
	for in, want := range tests {
		if got := code(in); got != want {
			t.Errorf("code(%q) = %q, want %q", in, got, want)
		}
	}
}
