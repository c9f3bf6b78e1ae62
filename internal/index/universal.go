package index

// Universal members every Scala object inherits from scala.AnyRef and
// scala.Any. Scaladoc appends them after the declared members in this order.
var universalMembers = []MemberEntry{
	{Label: "synchronized", Tail: "(arg0: => T0): T0", Member: "scala.AnyRef.synchronized", Kind: "final def"},
	{Label: "##", Tail: "(): Int", Member: "scala.AnyRef.##", Kind: "final def"},
	{Label: "!=", Tail: "(arg0: Any): Boolean", Member: "scala.AnyRef.!=", Kind: "final def"},
	{Label: "==", Tail: "(arg0: Any): Boolean", Member: "scala.AnyRef.==", Kind: "final def"},
	{Label: "ne", Tail: "(arg0: AnyRef): Boolean", Member: "scala.AnyRef.ne", Kind: "final def"},
	{Label: "eq", Tail: "(arg0: AnyRef): Boolean", Member: "scala.AnyRef.eq", Kind: "final def"},
	{Label: "finalize", Tail: "(): Unit", Member: "scala.AnyRef.finalize", Kind: "def"},
	{Label: "wait", Tail: "(arg0: Long, arg1: Int): Unit", Member: "scala.AnyRef.wait", Kind: "final def"},
	{Label: "wait", Tail: "(arg0: Long): Unit", Member: "scala.AnyRef.wait", Kind: "final def"},
	{Label: "wait", Tail: "(): Unit", Member: "scala.AnyRef.wait", Kind: "final def"},
	{Label: "notifyAll", Tail: "(): Unit", Member: "scala.AnyRef.notifyAll", Kind: "final def"},
	{Label: "notify", Tail: "(): Unit", Member: "scala.AnyRef.notify", Kind: "final def"},
	{Label: "toString", Tail: "(): String", Member: "scala.AnyRef.toString", Kind: "def"},
	{Label: "clone", Tail: "(): AnyRef", Member: "scala.AnyRef.clone", Kind: "def"},
	{Label: "equals", Tail: "(arg0: AnyRef): Boolean", Member: "scala.AnyRef.equals", Kind: "def"},
	{Label: "hashCode", Tail: "(): Int", Member: "scala.AnyRef.hashCode", Kind: "def"},
	{Label: "getClass", Tail: "(): Class[_ <: AnyRef]", Member: "scala.AnyRef.getClass", Kind: "final def"},
	{Label: "asInstanceOf", Tail: "(): T0", Member: "scala.Any.asInstanceOf", Kind: "final def"},
	{Label: "isInstanceOf", Tail: "(): Boolean", Member: "scala.Any.isInstanceOf", Kind: "final def"},
}

// UniversalMembers returns a copy of the inherited universal members without
// links, in presentation order.
func UniversalMembers() []MemberEntry {
	out := make([]MemberEntry, len(universalMembers))
	copy(out, universalMembers)
	return out
}

// IsUniversalOwner reports whether owner is scala.AnyRef or scala.Any.
func IsUniversalOwner(owner string) bool {
	return owner == "scala.AnyRef" || owner == "scala.Any"
}

// sameUniversal compares the fields that identify a universal member. Tails
// are rendered by the generator and vary with the Scala version.
func sameUniversal(m, u MemberEntry) bool {
	return m.Label == u.Label && m.Member == u.Member && m.Kind == u.Kind
}

// hasUniversalSuffix reports whether members ends with the universal members
// in their fixed order.
func hasUniversalSuffix(members []MemberEntry) bool {
	n := len(universalMembers)
	if len(members) < n {
		return false
	}
	tail := members[len(members)-n:]
	for i := range tail {
		if !sameUniversal(tail[i], universalMembers[i]) {
			return false
		}
	}
	return true
}

// declaredLen returns how many leading members are declared by the entry
// itself rather than inherited from the universal base types.
func declaredLen(members []MemberEntry) int {
	if hasUniversalSuffix(members) {
		return len(members) - len(universalMembers)
	}
	for i, m := range members {
		if IsUniversalOwner(m.Owner()) {
			return i
		}
	}
	return len(members)
}

// SplitInherited splits a section's members into those the entry declares and
// the universal members appended after them.
func SplitInherited(members []MemberEntry) (declared, inherited []MemberEntry) {
	n := declaredLen(members)
	return members[:n], members[n:]
}
