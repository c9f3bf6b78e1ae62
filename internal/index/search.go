package index

import (
	"sort"
	"strings"
)

// Match quality, best first. A hit's score is the sum over all terms.
const (
	scoreExact     = 100
	scoreExactFold = 90
	scorePrefix    = 75
	scoreSubstring = 50
	scoreQualified = 25
	scoreFuzzy     = 10
)

// Hit is a search result. Member is nil when the hit is the object itself.
type Hit struct {
	Package string
	Object  *ObjectEntry
	Section string // section the member was listed in
	Member  *MemberEntry
	Score   int
}

// Label returns the display name of the hit.
func (h Hit) Label() string {
	if h.Member != nil {
		return h.Member.Label
	}
	return h.Object.Name[strings.LastIndex(h.Object.Name, ".")+1:]
}

// Qualified returns the fully qualified name of the hit.
func (h Hit) Qualified() string {
	if h.Member != nil {
		return h.Member.Member
	}
	return h.Object.Name
}

// Kind returns the kind of the member, or of the object for object hits.
func (h Hit) Kind() string {
	if h.Member != nil {
		return h.Member.Kind
	}
	return h.Object.Kind
}

// Link returns the relative page link of the hit.
func (h Hit) Link() string {
	if h.Member != nil {
		return h.Member.Link
	}
	return h.Object.Page()
}

// Search returns the object and member entries of idx that match q, best
// match first. Equal scores keep index order. limit <= 0 returns every hit.
func Search(idx *PackageIndex, q Query, limit int) []Hit {
	if q.Empty() {
		return nil
	}

	var hits []Hit
	for _, p := range idx.Packages() {
		if !q.acceptPackage(p.Name) {
			continue
		}
		for i := range p.Objects {
			o := &p.Objects[i]
			objHit := Hit{Package: p.Name, Object: o}
			if q.acceptKind(o.Kind) && q.acceptOwner(p.Name) {
				if score, ok := scoreTerms(q.Terms, objHit.Label(), o.Name); ok {
					objHit.Score = score
					hits = append(hits, objHit)
				}
			}
			for _, s := range o.Sections() {
				for j := range s.Members {
					m := &s.Members[j]
					if !q.acceptKind(m.Kind) || !q.acceptOwner(m.Owner()) {
						continue
					}
					score, ok := scoreTerms(q.Terms, m.Label, m.Member)
					if !ok {
						continue
					}
					hits = append(hits, Hit{Package: p.Name, Object: o, Section: s.Name, Member: m, Score: score})
				}
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// scoreTerms requires every term to match. With no terms every entry matches
// with score zero, so filters alone select entries.
func scoreTerms(terms []string, label, qualified string) (int, bool) {
	total := 0
	for _, t := range terms {
		s := score(t, label, qualified)
		if s == 0 {
			return 0, false
		}
		total += s
	}
	return total, true
}

func score(term, label, qualified string) int {
	lt, ll := strings.ToLower(term), strings.ToLower(label)
	switch {
	case label == term:
		return scoreExact
	case ll == lt:
		return scoreExactFold
	case strings.HasPrefix(ll, lt):
		return scorePrefix
	case strings.Contains(ll, lt):
		return scoreSubstring
	case strings.Contains(strings.ToLower(qualified), lt):
		return scoreQualified
	case subsequence(lt, ll):
		return scoreFuzzy
	}
	return 0
}

// subsequence reports whether every rune of needle appears in hay in order.
func subsequence(needle, hay string) bool {
	if needle == "" {
		return false
	}
	rs := []rune(needle)
	i := 0
	for _, r := range hay {
		if r == rs[i] {
			i++
			if i == len(rs) {
				return true
			}
		}
	}
	return false
}
