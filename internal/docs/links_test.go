package docs

import "testing"

func TestResolveLink(t *testing.T) {
	tests := []struct {
		base string
		link string
		want string
	}{
		{
			"https://example.com/api/latest/",
			"milltest/lib1/api1$.html#f1(v:Int):Int",
			"https://example.com/api/latest/milltest/lib1/api1$.html#f1(v:Int):Int",
		},
		// Base without trailing slash still resolves under it
		{
			"https://example.com/api/latest",
			"milltest/lib1/api1$.html",
			"https://example.com/api/latest/milltest/lib1/api1$.html",
		},
		// Anchor is kept verbatim
		{
			"https://example.com/",
			"p/o$.html#synchronized[T0](x$1:=>T0):T0",
			"https://example.com/p/o$.html#synchronized[T0](x$1:=>T0):T0",
		},
		{
			"https://example.com/",
			"p/o$.html###:Int",
			"https://example.com/p/o$.html###:Int",
		},
		// No base: link unchanged
		{
			"",
			"p/o$.html#f",
			"p/o$.html#f",
		},
	}

	for _, tt := range tests {
		got, err := ResolveLink(tt.base, tt.link)
		if err != nil {
			t.Errorf("ResolveLink(%q, %q): %v", tt.base, tt.link, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveLink(%q, %q)\n  got  %q\n  want %q", tt.base, tt.link, got, tt.want)
		}
	}
}

func TestParseURI(t *testing.T) {
	source, page, anchor, err := ParseURI("scaladoc://mill/milltest/lib1/api1$.html#f1(v:Int):Int")
	if err != nil {
		t.Fatal(err)
	}
	if source != "mill" || page != "milltest/lib1/api1$.html" || anchor != "f1(v:Int):Int" {
		t.Errorf("got (%q, %q, %q)", source, page, anchor)
	}

	source, page, anchor, err = ParseURI("mill/milltest/lib1/api1$.html")
	if err != nil {
		t.Fatal(err)
	}
	if source != "mill" || page != "milltest/lib1/api1$.html" || anchor != "" {
		t.Errorf("got (%q, %q, %q)", source, page, anchor)
	}

	for _, bad := range []string{"scaladoc://", "scaladoc://mill", "mill/", "scaladoc://mill/#f1"} {
		if _, _, _, err := ParseURI(bad); err == nil {
			t.Errorf("ParseURI(%q): expected error", bad)
		}
	}
}

func TestMemberURI_RoundTrip(t *testing.T) {
	link := "milltest/lib2/api2$.html###:Int"
	uri := MemberURI("mill", link)
	if uri != "scaladoc://mill/milltest/lib2/api2$.html###:Int" {
		t.Fatalf("got %q", uri)
	}
	_, page, anchor, err := ParseURI(uri)
	if err != nil {
		t.Fatal(err)
	}
	if page+"#"+anchor != link {
		t.Errorf("round trip lost data: %q#%q", page, anchor)
	}
}

func TestSiteURLToURI(t *testing.T) {
	const base = "https://example.com/api/latest/"
	tests := []struct {
		url  string
		want string
	}{
		{
			"https://example.com/api/latest/milltest/lib1/api1$.html#f1(v:Int):Int",
			"scaladoc://mill/milltest/lib1/api1$.html#f1(v:Int):Int",
		},
		{
			"https://example.com/api/latest/milltest/lib1/api1%24.html",
			"scaladoc://mill/milltest/lib1/api1$.html",
		},
		// Query string dropped
		{
			"https://example.com/api/latest/milltest/lib1/api1$.html?search=f1",
			"scaladoc://mill/milltest/lib1/api1$.html",
		},
		// Outside the base
		{"https://other.org/api/latest/x.html", ""},
		// Directory listing
		{"https://example.com/api/latest/milltest/", ""},
		// Base itself
		{"https://example.com/api/latest/", ""},
	}

	for _, tt := range tests {
		if got := SiteURLToURI("mill", base, tt.url); got != tt.want {
			t.Errorf("SiteURLToURI(%q)\n  got  %q\n  want %q", tt.url, got, tt.want)
		}
	}

	if got := SiteURLToURI("mill", "", tests[0].url); got != "" {
		t.Errorf("expected empty result without a base, got %q", got)
	}
}
