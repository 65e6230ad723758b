package unpaywall

import "testing"

func TestRequestURLDefaultsEmailWhenUnset(t *testing.T) {
	c := New(nil, nil, "")
	got := c.requestURL("10.1234/abcd")
	want := "https://api.unpaywall.org/v2/10.1234/abcd?email=curator@example.org"
	if got != want {
		t.Errorf("requestURL() = %q, want %q", got, want)
	}
}

func TestRequestURLUsesConfiguredEmail(t *testing.T) {
	c := New(nil, nil, "a@b.org")
	got := c.requestURL("10.1234/abcd")
	want := "https://api.unpaywall.org/v2/10.1234/abcd?email=a@b.org"
	if got != want {
		t.Errorf("requestURL() = %q, want %q", got, want)
	}
}
