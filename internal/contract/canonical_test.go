package contract

import "testing"

func TestCanonicalizeDropsBlankLinesAndRightTrims(t *testing.T) {
	raw := "a: 1  \n\nb: 2\t\n   \nc: 3\r\n"
	got := Canonicalize(raw)
	want := "a: 1\nb: 2\nc: 3"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	raw := "x: 1\n  \ny: 2  "
	once := Canonicalize(raw)
	twice := Canonicalize(once)
	if once != twice {
		t.Fatalf("Canonicalize is not idempotent: %q vs %q", once, twice)
	}
}

func TestCanonicalizeCRLFMatchesLF(t *testing.T) {
	lf := "a: 1\nb: 2\n"
	crlf := "a: 1\r\nb: 2\r\n"
	if Canonicalize(lf) != Canonicalize(crlf) {
		t.Fatalf("CRLF and LF canonicalize differently: %q vs %q", Canonicalize(crlf), Canonicalize(lf))
	}
}
