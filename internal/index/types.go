package index

import (
	"errors"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	// ErrMalformed is wrapped by every Parse failure.
	ErrMalformed = errors.New("malformed index")
	// ErrNotFound is returned by lookups that miss.
	ErrNotFound = errors.New("not found")
)

// MemberEntry describes one method, value or type member of a documented object.
type MemberEntry struct {
	Label  string `json:"label"`
	Tail   string `json:"tail"`
	Member string `json:"member"` // fully qualified, e.g. scala.AnyRef.hashCode
	Link   string `json:"link"`
	Kind   string `json:"kind"`
}

// Owner returns the qualified name of the entity that declares the member.
func (m MemberEntry) Owner() string {
	if i := strings.LastIndex(m.Member, "."); i > 0 {
		return m.Member[:i]
	}
	return ""
}

// SimpleName returns the last segment of the member's qualified name.
func (m MemberEntry) SimpleName() string {
	return m.Member[strings.LastIndex(m.Member, ".")+1:]
}

// ObjectEntry is one documented entity. Scaladoc folds a class or trait and its
// companion object into a single entry, each with its own page and member list.
type ObjectEntry struct {
	Name             string        `json:"name"`
	ShortDescription string        `json:"shortDescription"`
	Object           string        `json:"object,omitempty"`
	MembersObject    []MemberEntry `json:"members_object,omitempty"`
	Class            string        `json:"class,omitempty"`
	MembersClass     []MemberEntry `json:"members_class,omitempty"`
	Trait            string        `json:"trait,omitempty"`
	MembersTrait     []MemberEntry `json:"members_trait,omitempty"`
	Kind             string        `json:"kind"`
}

// Section is one page of an ObjectEntry together with its members.
type Section struct {
	Name    string // "object", "class" or "trait"
	Page    string
	Members []MemberEntry
}

// Sections returns the entry's present sections in encoding order.
func (o *ObjectEntry) Sections() []Section {
	var out []Section
	if o.Object != "" || o.MembersObject != nil {
		out = append(out, Section{Name: "object", Page: o.Object, Members: o.MembersObject})
	}
	if o.Class != "" || o.MembersClass != nil {
		out = append(out, Section{Name: "class", Page: o.Class, Members: o.MembersClass})
	}
	if o.Trait != "" || o.MembersTrait != nil {
		out = append(out, Section{Name: "trait", Page: o.Trait, Members: o.MembersTrait})
	}
	return out
}

// Page returns the primary documentation page of the entry.
func (o *ObjectEntry) Page() string {
	for _, s := range o.Sections() {
		if s.Page != "" {
			return s.Page
		}
	}
	return ""
}

// AllMembers returns the members of every section, object section first.
func (o *ObjectEntry) AllMembers() []MemberEntry {
	var out []MemberEntry
	for _, s := range o.Sections() {
		out = append(out, s.Members...)
	}
	return out
}

// Declared returns the object section's members that precede the inherited
// universal members.
func (o *ObjectEntry) Declared() []MemberEntry {
	return o.MembersObject[:declaredLen(o.MembersObject)]
}

// Inherited returns the universal members appended after the declared ones.
func (o *ObjectEntry) Inherited() []MemberEntry {
	return o.MembersObject[declaredLen(o.MembersObject):]
}

// Members returns every member of the object section with the given label.
// Overloads share a label, so more than one entry may come back.
func (o *ObjectEntry) Members(label string) []MemberEntry {
	var out []MemberEntry
	for _, m := range o.MembersObject {
		if m.Label == label {
			out = append(out, m)
		}
	}
	return out
}

// Package is a package name and its objects, as yielded by PackageIndex.Packages.
type Package struct {
	Name    string
	Objects []ObjectEntry
}

// PackageIndex maps package names to their documented objects. Keys keep the
// order in which they were read.
type PackageIndex struct {
	pkgs *orderedmap.OrderedMap[string, []ObjectEntry]
}

// New returns an empty index.
func New() *PackageIndex {
	return &PackageIndex{pkgs: orderedmap.New[string, []ObjectEntry]()}
}

// Add appends a package. It reports false if the name is already present.
func (idx *PackageIndex) Add(name string, objects []ObjectEntry) bool {
	if _, ok := idx.pkgs.Get(name); ok {
		return false
	}
	idx.pkgs.Set(name, objects)
	return true
}

// Len returns the number of packages.
func (idx *PackageIndex) Len() int {
	return idx.pkgs.Len()
}

// Packages returns the packages in file order.
func (idx *PackageIndex) Packages() []Package {
	out := make([]Package, 0, idx.pkgs.Len())
	for p := idx.pkgs.Oldest(); p != nil; p = p.Next() {
		out = append(out, Package{Name: p.Key, Objects: p.Value})
	}
	return out
}

// Package returns the objects of the named package.
func (idx *PackageIndex) Package(name string) ([]ObjectEntry, error) {
	objs, ok := idx.pkgs.Get(name)
	if !ok {
		return nil, ErrNotFound
	}
	return objs, nil
}

// Object finds an entry by its fully qualified name and returns it with the
// name of the package that lists it.
func (idx *PackageIndex) Object(name string) (*ObjectEntry, string, error) {
	for p := idx.pkgs.Oldest(); p != nil; p = p.Next() {
		for i := range p.Value {
			if p.Value[i].Name == name {
				return &p.Value[i], p.Key, nil
			}
		}
	}
	return nil, "", ErrNotFound
}

// ObjectByPage finds an entry whose object, class or trait page is page.
func (idx *PackageIndex) ObjectByPage(page string) (*ObjectEntry, string, error) {
	for p := idx.pkgs.Oldest(); p != nil; p = p.Next() {
		for i := range p.Value {
			o := &p.Value[i]
			if o.Object == page || o.Class == page || o.Trait == page {
				return o, p.Key, nil
			}
		}
	}
	return nil, "", ErrNotFound
}

// MemberCount returns the number of members across all entries and sections.
func (idx *PackageIndex) MemberCount() int {
	n := 0
	for p := idx.pkgs.Oldest(); p != nil; p = p.Next() {
		for i := range p.Value {
			n += len(p.Value[i].MembersObject) + len(p.Value[i].MembersClass) + len(p.Value[i].MembersTrait)
		}
	}
	return n
}

// Equal reports structural equality. Sequences compare in order; package keys
// compare as a set. A nil member list equals an empty one.
func Equal(a, b *PackageIndex) bool {
	if a.Len() != b.Len() {
		return false
	}
	for p := a.pkgs.Oldest(); p != nil; p = p.Next() {
		other, ok := b.pkgs.Get(p.Key)
		if !ok || len(other) != len(p.Value) {
			return false
		}
		for i := range p.Value {
			if !objectEqual(&p.Value[i], &other[i]) {
				return false
			}
		}
	}
	return true
}

func objectEqual(a, b *ObjectEntry) bool {
	return a.Name == b.Name &&
		a.ShortDescription == b.ShortDescription &&
		a.Object == b.Object &&
		a.Class == b.Class &&
		a.Trait == b.Trait &&
		a.Kind == b.Kind &&
		membersEqual(a.MembersObject, b.MembersObject) &&
		membersEqual(a.MembersClass, b.MembersClass) &&
		membersEqual(a.MembersTrait, b.MembersTrait)
}

func membersEqual(a, b []MemberEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
