// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import "testing"

func TestDOIKey(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare doi", "10.1257/aer.20180779", "10.1257/aer.20180779"},
		{"https prefix", "https://doi.org/10.1257/aer.20180779", "10.1257/aer.20180779"},
		{"http prefix", "http://doi.org/10.1/x", "10.1/x"},
		{"dx prefix", "https://dx.doi.org/10.3386/w26544", "10.3386/w26544"},
		{"bare host prefix", "doi.org/10.1/x", "10.1/x"},
		{"doi scheme", "doi:10.1/X", "10.1/x"},
		{"uppercase prefix and suffix", "HTTPS://DOI.ORG/10.1257/AER.20180779", "10.1257/aer.20180779"},
		{"surrounding whitespace", "  10.1/x \n", "10.1/x"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"not a doi", "hdl:2027/mdp.39015", ""},
		{"url without doi path", "https://doi.org/about", ""},
		{"missing 10 prefix", "11.1234/x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DOIKey(tt.raw); got != tt.want {
				t.Errorf("DOIKey(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTitleKey(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "The Impact of Policy", "the impact of policy"},
		{"punctuation stripped", "the impact of policy!!", "the impact of policy"},
		{"hyphens and colons", "Tax Reform: A Re-Assessment", "tax reform a reassessment"},
		{"whitespace collapsed", "  Foo\t Bar \n Baz ", "foo bar baz"},
		{"digits kept", "Section 199A and Pass-Throughs", "section 199a and passthroughs"},
		{"empty", "", ""},
		{"punctuation only", "?!...", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleKey(tt.raw); got != tt.want {
				t.Errorf("TitleKey(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTokenCount(t *testing.T) {
	if got := TokenCount(""); got != 0 {
		t.Errorf("TokenCount(\"\") = %d, want 0", got)
	}
	if got := TokenCount("the impact of policy"); got != 4 {
		t.Errorf("TokenCount = %d, want 4", got)
	}
	if got := TokenCount("minimum wage"); got != 2 {
		t.Errorf("TokenCount = %d, want 2", got)
	}
}
