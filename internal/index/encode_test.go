package index

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_ReproducesScaladocOutput(t *testing.T) {
	t.Parallel()
	data := readFixture(t)

	idx, err := Parse(data)
	require.NoError(t, err)

	out, err := Marshal(idx)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(out))
}

func TestMarshalJSON_RoundTrip(t *testing.T) {
	t.Parallel()
	idx := loadFixture(t)

	body, err := idx.MarshalJSON()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte(`{"milltest" : [], `)))

	again, err := Parse(body)
	require.NoError(t, err)
	assert.True(t, Equal(idx, again))
}

func TestMarshalIndent_RoundTrip(t *testing.T) {
	t.Parallel()
	idx := loadFixture(t)

	pretty, err := MarshalIndent(idx)
	require.NoError(t, err)
	assert.Contains(t, string(pretty), "\n      \"name\": \"milltest.lib1.api1\",\n")

	again, err := Parse(pretty)
	require.NoError(t, err)
	assert.True(t, Equal(idx, again))
}

func TestQuote(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `"milltest\/lib1\/api1$.html"`, quote("milltest/lib1/api1$.html"))
	assert.Equal(t, `"(): Class[_ <: AnyRef]"`, quote("(): Class[_ <: AnyRef]"))
	assert.Equal(t, `"(arg0: => T0): T0"`, quote("(arg0: => T0): T0"))
	assert.Equal(t, `"a\\b\"c"`, quote(`a\b"c`))
}

func TestEncode_CompanionSections(t *testing.T) {
	t.Parallel()
	idx := New()
	idx.Add("p", []ObjectEntry{{
		Name:          "p.C",
		Class:         "p/C.html",
		MembersClass:  []MemberEntry{{Label: "x", Tail: ": Int", Member: "p.C.x", Link: "p/C.html#x:Int", Kind: "val"}},
		Object:        "p/C$.html",
		MembersObject: []MemberEntry{},
		Kind:          "class",
	}})

	out, err := Marshal(idx)
	require.NoError(t, err)
	s := string(out)
	assert.True(t, strings.HasPrefix(s, "Index.PACKAGES = {"))
	assert.True(t, strings.HasSuffix(s, "}]};"))
	assert.Less(t, strings.Index(s, `"members_object"`), strings.Index(s, `"class"`))
	assert.NotContains(t, s, `"trait"`)

	again, err := Parse(out)
	require.NoError(t, err)
	assert.True(t, Equal(idx, again))
}

func TestEqual(t *testing.T) {
	t.Parallel()

	a := New()
	a.Add("x", nil)
	a.Add("y", []ObjectEntry{{Name: "y.o", Object: "y/o$.html", Kind: "object"}})

	b := New()
	b.Add("y", []ObjectEntry{{Name: "y.o", Object: "y/o$.html", MembersObject: []MemberEntry{}, Kind: "object"}})
	b.Add("x", []ObjectEntry{})

	assert.True(t, Equal(a, b), "key order and nil-vs-empty are not significant")

	c := New()
	c.Add("x", nil)
	c.Add("y", []ObjectEntry{{Name: "y.o", Object: "y/o$.html", Kind: "class"}})
	assert.False(t, Equal(a, c))

	d := New()
	d.Add("x", nil)
	assert.False(t, Equal(a, d))
}

func TestAdd_RejectsDuplicate(t *testing.T) {
	t.Parallel()
	idx := New()
	assert.True(t, idx.Add("p", nil))
	assert.False(t, idx.Add("p", nil))
	assert.Equal(t, 1, idx.Len())
}
