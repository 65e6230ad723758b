package openalex

import "testing"

func TestReconstructAbstractRebuildsWordOrder(t *testing.T) {
	idx := map[string][]int{
		"Strong":  {0},
		"winds":   {1},
		"battered": {2},
		"the":     {3},
		"coast":   {4},
	}
	got := reconstructAbstract(idx)
	want := "Strong winds battered the coast"
	if got != want {
		t.Errorf("reconstructAbstract() = %q, want %q", got, want)
	}
}

func TestReconstructAbstractRepeatedWordAtMultiplePositions(t *testing.T) {
	idx := map[string][]int{
		"the":   {0, 3},
		"cat":   {1},
		"chased": {2},
		"mouse": {4},
	}
	got := reconstructAbstract(idx)
	want := "the cat chased the mouse"
	if got != want {
		t.Errorf("reconstructAbstract() = %q, want %q", got, want)
	}
}

func TestReconstructAbstractEmptyIndex(t *testing.T) {
	if got := reconstructAbstract(nil); got != "" {
		t.Errorf("reconstructAbstract(nil) = %q, want empty", got)
	}
	if got := reconstructAbstract(map[string][]int{}); got != "" {
		t.Errorf("reconstructAbstract({}) = %q, want empty", got)
	}
}

func TestCitationsPerYearAveragesCounts(t *testing.T) {
	w := &workResult{CountsByYear: []countsByYear{{Year: 2021, Count: 4}, {Year: 2022, Count: 6}}}
	if got := citationsPerYear(w); got != 5 {
		t.Errorf("citationsPerYear() = %v, want 5", got)
	}
}

func TestCitationsPerYearNoData(t *testing.T) {
	w := &workResult{}
	if got := citationsPerYear(w); got != 0 {
		t.Errorf("citationsPerYear() = %v, want 0", got)
	}
}

func TestJoinAuthorsSkipsBlankNames(t *testing.T) {
	as := []authorship{
		{Author: struct {
			DisplayName string `json:"display_name"`
		}{DisplayName: "Jane Doe"}},
		{Author: struct {
			DisplayName string `json:"display_name"`
		}{DisplayName: "  "}},
		{Author: struct {
			DisplayName string `json:"display_name"`
		}{DisplayName: "John Smith"}},
	}
	got := joinAuthors(as)
	want := "Jane Doe; John Smith"
	if got != want {
		t.Errorf("joinAuthors() = %q, want %q", got, want)
	}
}

func TestUserAgentIncludesMailtoWhenEmailSet(t *testing.T) {
	if got := userAgent(""); got != "paper-app-curator/1.0" {
		t.Errorf("userAgent(\"\") = %q", got)
	}
	if got := userAgent("a@b.com"); got != "paper-app-curator/1.0 (mailto:a@b.com)" {
		t.Errorf("userAgent(a@b.com) = %q", got)
	}
}
