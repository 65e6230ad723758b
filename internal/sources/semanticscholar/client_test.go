package semanticscholar

import "testing"

func TestJoinAuthorsSkipsBlank(t *testing.T) {
	as := []authorInfo{{Name: "Jane Doe"}, {Name: "  "}, {Name: "John Smith"}}
	got := joinAuthors(as)
	want := "Jane Doe; John Smith"
	if got != want {
		t.Errorf("joinAuthors() = %q, want %q", got, want)
	}
}

func TestRequestURLIncludesFieldsAndDOI(t *testing.T) {
	c := New(nil, nil, "")
	got := c.requestURL("10.1234/abcd")
	want := "https://api.semanticscholar.org/graph/v1/paper/DOI:10.1234/abcd?fields=" + fields
	if got != want {
		t.Errorf("requestURL() = %q, want %q", got, want)
	}
}
