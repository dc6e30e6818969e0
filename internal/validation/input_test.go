package validation

import "testing"

func TestIsCertificateNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		number string
		ok     bool
	}{
		{name: "generated shape", number: "TTH-20260101-AB12CD34EF", ok: true},
		{name: "all digits", number: "TTH-20260101-0000000000", ok: true},
		{name: "lowercase hex", number: "TTH-20260101-ab12cd34ef", ok: false},
		{name: "short date", number: "TTH-2026011-AB12CD34EF", ok: false},
		{name: "short suffix", number: "TTH-20260101-AB12", ok: false},
		{name: "non hex suffix", number: "TTH-19990101-NOPE000000", ok: false},
		{name: "missing prefix", number: "20260101-AB12CD34EF", ok: false},
		{name: "empty", number: "", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsCertificateNumber(tc.number); got != tc.ok {
				t.Fatalf("IsCertificateNumber(%q) = %v, want %v", tc.number, got, tc.ok)
			}
		})
	}
}

func TestValidateLinkURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		ok   bool
	}{
		{name: "empty", url: "", ok: true},
		{name: "whitespace", url: "   ", ok: true},
		{name: "https", url: "https://example.com/bib", ok: true},
		{name: "http with port", url: "http://localhost:8080/x", ok: true},
		{name: "upper scheme", url: "HTTPS://example.com", ok: true},
		{name: "javascript", url: "javascript:alert(1)", ok: false},
		{name: "ftp", url: "ftp://example.com/file", ok: false},
		{name: "relative", url: "/photos/1", ok: false},
		{name: "no host", url: "https://", ok: false},
		{name: "bad escape", url: "https://example.com/%zz", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateLinkURL(tc.url)
			if tc.ok && err != nil {
				t.Fatalf("expected valid url, got error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected invalid url, got nil error")
			}
		})
	}
}
