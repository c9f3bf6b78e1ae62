package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  Query
	}{
		{
			name:  "terms",
			input: "wait notify",
			want:  Query{Terms: []string{"wait", "notify"}},
		},
		{
			name:  "filters",
			input: `kind:"final def" pkg:milltest.lib1 owner:scala.AnyRef wait`,
			want: Query{
				Terms:    []string{"wait"},
				Kinds:    []string{"final def"},
				Packages: []string{"milltest.lib1"},
				Owners:   []string{"scala.AnyRef"},
			},
		},
		{
			name:  "package_alias",
			input: "package:milltest",
			want:  Query{Terms: []string{}, Packages: []string{"milltest"}},
		},
		{
			name:  "unknown_key_is_a_term",
			input: "color:red",
			want:  Query{Terms: []string{"color:red"}},
		},
		{
			name:  "empty",
			input: "   ",
			want:  Query{Terms: []string{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseQuery(tt.input)
			tt.want.Raw = tt.input
			if len(tt.want.Terms) == 0 {
				assert.Empty(t, got.Terms)
				got.Terms, tt.want.Terms = nil, nil
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func labels(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Package + ":" + h.Label()
	}
	return out
}

func TestSearch(t *testing.T) {
	t.Parallel()
	idx := loadFixture(t)

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"exact", "f1", 0, []string{"milltest.lib1:f1"}},
		{"overloads", "wait", 0, []string{
			"milltest.lib1:wait", "milltest.lib1:wait", "milltest.lib1:wait",
			"milltest.lib2:wait", "milltest.lib2:wait", "milltest.lib2:wait",
		}},
		{"limit", "wait", 2, []string{"milltest.lib1:wait", "milltest.lib1:wait"}},
		{"exact_before_prefix", "notify", 0, []string{
			"milltest.lib1:notify", "milltest.lib2:notify",
			"milltest.lib1:notifyAll", "milltest.lib2:notifyAll",
		}},
		{"prefix_before_qualified", "api", 0, []string{
			"milltest.lib1:api1", "milltest.lib2:api2",
			"milltest.lib1:f1", "milltest.lib2:f3", "milltest.lib2:f2",
		}},
		{"all_terms_required", "wait zzz", 0, nil},
		{"owner_filter", "owner:milltest.lib1.api1", 0, []string{"milltest.lib1:f1"}},
		{"package_filter", "pkg:milltest.lib2 wait", 0, []string{
			"milltest.lib2:wait", "milltest.lib2:wait", "milltest.lib2:wait",
		}},
		{"parent_package_filter", "pkg:milltest f1", 0, []string{"milltest.lib1:f1"}},
		{"kind_filter_only", "kind:def pkg:milltest.lib2", 0, []string{
			"milltest.lib2:f3", "milltest.lib2:f2", "milltest.lib2:finalize",
			"milltest.lib2:toString", "milltest.lib2:clone", "milltest.lib2:equals",
			"milltest.lib2:hashCode",
		}},
		{"object_kind", "kind:object", 0, []string{"milltest.lib1:api1", "milltest.lib2:api2"}},
		{"operators", "==", 0, []string{"milltest.lib1:==", "milltest.lib2:=="}},
		{"empty", "", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := Search(idx, ParseQuery(tt.query), tt.limit)
			if tt.want == nil {
				assert.Empty(t, hits)
				return
			}
			assert.Equal(t, tt.want, labels(hits))
		})
	}
}

func TestSearch_HitAccessors(t *testing.T) {
	t.Parallel()
	idx := loadFixture(t)

	hits := Search(idx, ParseQuery("f1"), 1)
	require.Len(t, hits, 1)
	h := hits[0]
	assert.Equal(t, "object", h.Section)
	assert.Equal(t, "milltest.lib1.api1.f1", h.Qualified())
	assert.Equal(t, "def", h.Kind())
	assert.Equal(t, "milltest/lib1/api1$.html#f1(v:Int):Int", h.Link())
	assert.Equal(t, scoreExact, h.Score)

	hits = Search(idx, ParseQuery("api2"), 1)
	require.Len(t, hits, 1)
	assert.Nil(t, hits[0].Member)
	assert.Equal(t, "milltest.lib2.api2", hits[0].Qualified())
	assert.Equal(t, "object", hits[0].Kind())
	assert.Equal(t, "milltest/lib2/api2$.html", hits[0].Link())
}

func TestScore(t *testing.T) {
	t.Parallel()
	assert.Equal(t, scoreExact, score("hashCode", "hashCode", "scala.AnyRef.hashCode"))
	assert.Equal(t, scoreExactFold, score("hashcode", "hashCode", "scala.AnyRef.hashCode"))
	assert.Equal(t, scorePrefix, score("hash", "hashCode", "scala.AnyRef.hashCode"))
	assert.Equal(t, scoreSubstring, score("code", "hashCode", "scala.AnyRef.hashCode"))
	assert.Equal(t, scoreQualified, score("anyref", "hashCode", "scala.AnyRef.hashCode"))
	assert.Equal(t, scoreFuzzy, score("hcd", "hashCode", "scala.AnyRef.hashCode"))
	assert.Equal(t, 0, score("xyz", "hashCode", "scala.AnyRef.hashCode"))
}
