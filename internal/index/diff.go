package index

import "fmt"

// Op says how an entity differs between two indexes.
type Op int

const (
	Removed Op = iota
	Added
	Changed
)

func (op Op) String() string {
	switch op {
	case Added:
		return "+"
	case Changed:
		return "~"
	default:
		return "-"
	}
}

// Change is one entity that differs between two indexes.
type Change struct {
	Op     Op
	Kind   string // "package", "object" or "member"
	Path   string // package name, object name, or object.section[label](link)
	Detail string // field differences, for Changed only
}

func (c Change) String() string {
	if c.Detail != "" {
		return fmt.Sprintf("%s %s %s: %s", c.Op, c.Kind, c.Path, c.Detail)
	}
	return fmt.Sprintf("%s %s %s", c.Op, c.Kind, c.Path)
}

// Diff lists what was removed from a, added in b, or changed between them.
// Members are identified by section, label and link, so reordering alone
// produces no changes. Removals of a package or object are reported once,
// not per member.
func Diff(a, b *PackageIndex) []Change {
	var out []Change

	for _, p := range a.Packages() {
		bobjs, err := b.Package(p.Name)
		if err != nil {
			out = append(out, Change{Op: Removed, Kind: "package", Path: p.Name})
			continue
		}
		out = append(out, diffObjects(p.Objects, bobjs)...)
	}
	for _, p := range b.Packages() {
		if _, err := a.Package(p.Name); err != nil {
			out = append(out, Change{Op: Added, Kind: "package", Path: p.Name})
		}
	}
	return out
}

func diffObjects(a, b []ObjectEntry) []Change {
	var out []Change
	bByName := make(map[string]*ObjectEntry, len(b))
	for i := range b {
		bByName[b[i].Name] = &b[i]
	}
	aByName := make(map[string]bool, len(a))

	for i := range a {
		ao := &a[i]
		aByName[ao.Name] = true
		bo, ok := bByName[ao.Name]
		if !ok {
			out = append(out, Change{Op: Removed, Kind: "object", Path: ao.Name})
			continue
		}
		if d := fieldDiff(objectValues(ao), objectValues(bo)); d != "" {
			out = append(out, Change{Op: Changed, Kind: "object", Path: ao.Name, Detail: d})
		}
		out = append(out, diffMembers(ao, bo)...)
	}
	for i := range b {
		if !aByName[b[i].Name] {
			out = append(out, Change{Op: Added, Kind: "object", Path: b[i].Name})
		}
	}
	return out
}

type field struct{ name, value string }

func objectValues(o *ObjectEntry) []field {
	return []field{
		{"kind", o.Kind},
		{"shortDescription", o.ShortDescription},
		{"object", o.Object},
		{"class", o.Class},
		{"trait", o.Trait},
	}
}

func memberValues(m *MemberEntry) []field {
	return []field{
		{"tail", m.Tail},
		{"member", m.Member},
		{"kind", m.Kind},
	}
}

// fieldDiff describes the fields whose values differ, e.g.
// `kind "def" -> "val"`. Both slices list the same fields in the same order.
func fieldDiff(a, b []field) string {
	var d string
	for i := range a {
		if a[i].value == b[i].value {
			continue
		}
		if d != "" {
			d += ", "
		}
		d += fmt.Sprintf("%s %q -> %q", a[i].name, a[i].value, b[i].value)
	}
	return d
}

type keyedMember struct {
	key string
	m   *MemberEntry
}

// keyMembers indexes an object's members by identity. A repeated identity
// keeps its first entry.
func keyMembers(o *ObjectEntry) (map[string]*MemberEntry, []keyedMember) {
	byKey := make(map[string]*MemberEntry)
	var order []keyedMember
	for _, s := range o.Sections() {
		for i := range s.Members {
			m := &s.Members[i]
			key := fmt.Sprintf("%s.%s[%s](%s)", o.Name, s.Name, m.Label, m.Link)
			if _, ok := byKey[key]; !ok {
				byKey[key] = m
				order = append(order, keyedMember{key, m})
			}
		}
	}
	return byKey, order
}

func diffMembers(a, b *ObjectEntry) []Change {
	var out []Change
	aByKey, aOrder := keyMembers(a)
	bByKey, bOrder := keyMembers(b)
	for _, km := range aOrder {
		bm, ok := bByKey[km.key]
		if !ok {
			out = append(out, Change{Op: Removed, Kind: "member", Path: km.key})
			continue
		}
		if d := fieldDiff(memberValues(km.m), memberValues(bm)); d != "" {
			out = append(out, Change{Op: Changed, Kind: "member", Path: km.key, Detail: d})
		}
	}
	for _, km := range bOrder {
		if _, ok := aByKey[km.key]; !ok {
			out = append(out, Change{Op: Added, Kind: "member", Path: km.key})
		}
	}
	return out
}
