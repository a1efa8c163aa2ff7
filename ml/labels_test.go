package ml

import (
	"encoding/json"
	"testing"
)

func TestParseLabel(t *testing.T) {
	cases := map[string]Label{
		"0":           Legitimate,
		"1":           Phishing,
		"legitimate":  Legitimate,
		" Benign ":    Legitimate,
		"SAFE":        Legitimate,
		"Phishing":    Phishing,
		"malicious\t": Phishing,
	}
	for raw, want := range cases {
		got, err := ParseLabel(raw)
		if err != nil {
			t.Fatalf("ParseLabel(%q): unexpected error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseLabel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestParseLabelRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "2", "spam", "yes"} {
		if _, err := ParseLabel(raw); err == nil {
			t.Fatalf("ParseLabel(%q): expected error", raw)
		}
	}
}

func TestLabelJSON(t *testing.T) {
	data, err := json.Marshal(Phishing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "1" {
		t.Fatalf("expected 1, got %s", data)
	}
	var l Label
	if err := json.Unmarshal([]byte("3"), &l); err == nil {
		t.Fatalf("expected error decoding label 3")
	}
	if Phishing.String() != "Phishing" || Legitimate.String() != "Legitimate" {
		t.Fatalf("unexpected label names")
	}
}
