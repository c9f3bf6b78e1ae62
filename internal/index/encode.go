package index

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// Encode writes idx in Scaladoc's index.js layout. Re-encoding a parsed
// Scaladoc file yields the original bytes.
func Encode(w io.Writer, idx *PackageIndex) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(scriptPrefix + " = ")
	writeBody(bw, idx)
	bw.WriteString(";")
	return bw.Flush()
}

// Marshal returns the index.js form of idx.
func Marshal(idx *PackageIndex) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, idx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON returns the bare JSON object, in the same layout as the script form.
func (idx *PackageIndex) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	writeBody(bw, idx)
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a bare JSON object or the script form.
func (idx *PackageIndex) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*idx = *parsed
	return nil
}

// MarshalIndent returns the JSON object with one field per line, which keeps
// line-based diffs readable.
func MarshalIndent(idx *PackageIndex) ([]byte, error) {
	body, err := idx.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func writeBody(w *bufio.Writer, idx *PackageIndex) {
	w.WriteByte('{')
	for i, p := range idx.Packages() {
		if i > 0 {
			w.WriteString(", ")
		}
		writeKey(w, p.Name)
		w.WriteByte('[')
		for j := range p.Objects {
			if j > 0 {
				w.WriteString(", ")
			}
			writeObject(w, &p.Objects[j])
		}
		w.WriteByte(']')
	}
	w.WriteByte('}')
}

func writeObject(w *bufio.Writer, o *ObjectEntry) {
	w.WriteByte('{')
	writeField(w, "name", o.Name)
	w.WriteString(", ")
	writeField(w, "shortDescription", o.ShortDescription)
	for _, s := range o.Sections() {
		w.WriteString(", ")
		writeField(w, s.Name, s.Page)
		w.WriteString(", ")
		writeKey(w, "members_"+s.Name)
		writeMembers(w, s.Members)
	}
	w.WriteString(", ")
	writeField(w, "kind", o.Kind)
	w.WriteByte('}')
}

func writeMembers(w *bufio.Writer, members []MemberEntry) {
	w.WriteByte('[')
	for i, m := range members {
		if i > 0 {
			w.WriteString(", ")
		}
		w.WriteByte('{')
		writeField(w, "label", m.Label)
		w.WriteString(", ")
		writeField(w, "tail", m.Tail)
		w.WriteString(", ")
		writeField(w, "member", m.Member)
		w.WriteString(", ")
		writeField(w, "link", m.Link)
		w.WriteString(", ")
		writeField(w, "kind", m.Kind)
		w.WriteByte('}')
	}
	w.WriteByte(']')
}

func writeKey(w *bufio.Writer, key string) {
	w.WriteString(quote(key))
	w.WriteString(" : ")
}

func writeField(w *bufio.Writer, key, value string) {
	writeKey(w, key)
	w.WriteString(quote(value))
}

// quote renders s as a JSON string the way Scaladoc does: no HTML escaping and
// every '/' written as "\/". Escape sequences never contain a bare '/', so the
// replacement only touches literal slashes.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	out := strings.TrimSuffix(buf.String(), "\n")
	return strings.ReplaceAll(out, "/", `\/`)
}
