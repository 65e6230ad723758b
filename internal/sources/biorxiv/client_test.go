package biorxiv

import "testing"

func TestNameReflectsConfiguredServer(t *testing.T) {
	c := New(nil, nil, ServerMedRxiv)
	if got := c.Name(); got != "medrxiv" {
		t.Errorf("Name() = %q, want %q", got, "medrxiv")
	}
}

func TestRequestURLIncludesServerAndDOI(t *testing.T) {
	c := New(nil, nil, ServerBioRxiv)
	got := c.requestURL("10.1101/2021.01.01.425000")
	want := "https://api.biorxiv.org/details/biorxiv/10.1101/2021.01.01.425000/na/json"
	if got != want {
		t.Errorf("requestURL() = %q, want %q", got, want)
	}
}

func TestNormalizeDOILowercasesAndTreatsNAAsEmpty(t *testing.T) {
	cases := map[string]string{
		"10.1001/JAMA.2021.1234": "10.1001/jama.2021.1234",
		"NA":                     "",
		"":                       "",
		"  10.1234/Foo  ":        "10.1234/foo",
	}
	for in, want := range cases {
		if got := normalizeDOI(in); got != want {
			t.Errorf("normalizeDOI(%q) = %q, want %q", in, got, want)
		}
	}
}
