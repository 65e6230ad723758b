package crossref

import (
	"testing"
	"time"
)

func TestStripJATSTagsRemovesMarkupAndCollapsesWhitespace(t *testing.T) {
	in := "<jats:p>This is  an <jats:italic>abstract</jats:italic>.</jats:p>"
	want := "This is an abstract."
	if got := stripJATSTags(in); got != want {
		t.Errorf("stripJATSTags() = %q, want %q", got, want)
	}
}

func TestStripJATSTagsPlainText(t *testing.T) {
	if got := stripJATSTags("no tags here"); got != "no tags here" {
		t.Errorf("stripJATSTags() = %q, want unchanged", got)
	}
}

func TestDateFromPartsFullDate(t *testing.T) {
	d := dateParts{DateParts: [][]int{{2021, 6, 15}}}
	got, ok := dateFromParts(d)
	if !ok {
		t.Fatal("dateFromParts() ok = false, want true")
	}
	want := time.Date(2021, time.June, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("dateFromParts() = %v, want %v", got, want)
	}
}

func TestDateFromPartsYearOnlyDefaultsToJanuaryFirst(t *testing.T) {
	d := dateParts{DateParts: [][]int{{2019}}}
	got, ok := dateFromParts(d)
	if !ok {
		t.Fatal("dateFromParts() ok = false, want true")
	}
	want := time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("dateFromParts() = %v, want %v", got, want)
	}
}

func TestDateFromPartsEmpty(t *testing.T) {
	if _, ok := dateFromParts(dateParts{}); ok {
		t.Error("dateFromParts({}) ok = true, want false")
	}
}

func TestJoinAuthorsGivenAndFamily(t *testing.T) {
	as := []author{{Given: "Jane", Family: "Doe"}, {Given: "", Family: ""}, {Given: "John", Family: "Smith"}}
	got := joinAuthors(as)
	want := "Jane Doe; John Smith"
	if got != want {
		t.Errorf("joinAuthors() = %q, want %q", got, want)
	}
}
