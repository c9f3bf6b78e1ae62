package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "index.js"))
	require.NoError(t, err)
	return data
}

func loadFixture(t *testing.T) *PackageIndex {
	t.Helper()
	idx, err := Parse(readFixture(t))
	require.NoError(t, err)
	return idx
}

func TestParse_Fixture(t *testing.T) {
	t.Parallel()
	idx := loadFixture(t)

	var names []string
	for _, p := range idx.Packages() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"milltest", "milltest.lib1", "milltest.lib2"}, names)
	assert.Equal(t, 41, idx.MemberCount())

	empty, err := idx.Package("milltest")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)

	objs, err := idx.Package("milltest.lib1")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	api1 := objs[0]
	assert.Equal(t, "milltest.lib1.api1", api1.Name)
	assert.Equal(t, "", api1.ShortDescription)
	assert.Equal(t, "milltest/lib1/api1$.html", api1.Object)
	assert.Equal(t, "object", api1.Kind)

	f1 := api1.Members("f1")
	require.Len(t, f1, 1)
	assert.Equal(t, MemberEntry{
		Label:  "f1",
		Tail:   "(v: Int): Int",
		Member: "milltest.lib1.api1.f1",
		Link:   "milltest/lib1/api1$.html#f1(v:Int):Int",
		Kind:   "def",
	}, f1[0])
	assert.Len(t, api1.Members("wait"), 3)
}

func TestParse_BareJSON(t *testing.T) {
	t.Parallel()
	idx, err := Parse([]byte(`  {"b" : [], "a" : []}  `))
	require.NoError(t, err)
	require.Equal(t, 2, idx.Len())
	assert.Equal(t, "b", idx.Packages()[0].Name)
	assert.Equal(t, "a", idx.Packages()[1].Name)
}

func TestParse_ScriptWhitespace(t *testing.T) {
	t.Parallel()
	idx, err := Parse([]byte("\nIndex.PACKAGES={\"p\":[]}\n;\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		offset int64
		msg    string
	}{
		{"empty", "", 0, "empty input"},
		{"whitespace", "  \n", 3, "empty input"},
		{"missing_equals", "Index.PACKAGES {}", 15, "expected '='"},
		{"array", "[]", 0, "expected object"},
		{"null_package", `{"a" : null}`, 7, "is null"},
		{"duplicate_package", `{"a" : [], "a" : []}`, 11, `duplicate package "a"`},
		{"unknown_field", `{"a" : [{"name" : "a.b", "extra" : 1}]}`, 25, `unknown key "extra"`},
		{"trailing_data", `{"a" : []} {}`, 11, "after top-level value"},
		{"truncated", `{"a" : [`, 8, "unexpected end"},
		{"bad_syntax", `{"a" : [}`, 8, "invalid character '}'"},
		{"script_bad_syntax", `Index.PACKAGES = {"a" : [}`, 25, "invalid character '}'"},
		{"script_truncated", "Index.PACKAGES = {\"a\" : [;\n", 25, "unexpected end"},
		{"key_case", `{"a" : [{"Name" : "a.b"}]}`, 9, `key "Name" should be "name"`},
		{"duplicate_key", `{"a" : [{"name" : "a.b", "name" : "a.c"}]}`, 25, `duplicate key "name"`},
		{"member_key_case", `{"a" : [{"name" : "a.b", "members_object" : [{"Label" : "f"}]}]}`, 46, `key "Label" should be "label"`},
		{"member_unknown_key", `{"a" : [{"name" : "a.b", "members_object" : [{"label" : "f", "doc" : ""}]}]}`, 61, `unknown key "doc"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)

			var syn *SyntaxError
			require.ErrorAs(t, err, &syn)
			assert.Equal(t, tt.offset, syn.Offset, "offset for %q", tt.input)
			assert.Contains(t, syn.Msg, tt.msg)
		})
	}
}

func TestParse_WrongTypeOffset(t *testing.T) {
	t.Parallel()
	input := `{"a" : [{"name" : 3}]}`
	_, err := Parse([]byte(input))

	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
	// The offset lands on the literal or just after it.
	lit := int64(strings.Index(input, "3"))
	assert.GreaterOrEqual(t, syn.Offset, lit)
	assert.LessOrEqual(t, syn.Offset, lit+1)
	assert.Contains(t, syn.Msg, `package "a"`)
}

func TestObject_Lookup(t *testing.T) {
	t.Parallel()
	idx := loadFixture(t)

	o, pkg, err := idx.Object("milltest.lib2.api2")
	require.NoError(t, err)
	assert.Equal(t, "milltest.lib2", pkg)
	assert.Equal(t, "milltest/lib2/api2$.html", o.Page())

	o2, _, err := idx.ObjectByPage("milltest/lib2/api2$.html")
	require.NoError(t, err)
	assert.Same(t, o, o2)

	_, _, err = idx.Object("milltest.lib3.api3")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = idx.Package("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestObject_DeclaredAndInherited(t *testing.T) {
	t.Parallel()
	idx := loadFixture(t)

	o, _, err := idx.Object("milltest.lib2.api2")
	require.NoError(t, err)

	declared := o.Declared()
	require.Len(t, declared, 2)
	assert.Equal(t, "f3", declared[0].Label)
	assert.Equal(t, "f2", declared[1].Label)

	inherited := o.Inherited()
	require.Len(t, inherited, len(UniversalMembers()))
	for i, u := range UniversalMembers() {
		assert.Equal(t, u.Label, inherited[i].Label)
		assert.Equal(t, u.Member, inherited[i].Member)
	}
}

func TestMemberEntry_Names(t *testing.T) {
	t.Parallel()
	m := MemberEntry{Member: "scala.AnyRef.##"}
	assert.Equal(t, "scala.AnyRef", m.Owner())
	assert.Equal(t, "##", m.SimpleName())

	m = MemberEntry{Member: "scala.AnyRef.!="}
	assert.Equal(t, "!=", m.SimpleName())

	m = MemberEntry{Member: "toplevel"}
	assert.Equal(t, "", m.Owner())
	assert.Equal(t, "toplevel", m.SimpleName())
}
