package ml

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Label int

const (
	Legitimate Label = 0
	Phishing   Label = 1
)

var labelVocabulary = map[string]Label{
	"0":          Legitimate,
	"1":          Phishing,
	"legitimate": Legitimate,
	"benign":     Legitimate,
	"safe":       Legitimate,
	"phishing":   Phishing,
	"malicious":  Phishing,
}

// ParseLabel maps the accepted label spellings onto the canonical value.
// Matching ignores case and surrounding whitespace.
func ParseLabel(raw string) (Label, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if label, ok := labelVocabulary[key]; ok {
		return label, nil
	}
	return 0, fmt.Errorf("unknown label %q, expected one of 0, 1, legitimate, benign, safe, phishing, malicious", raw)
}

func LabelFromInt(v int) (Label, error) {
	switch Label(v) {
	case Legitimate, Phishing:
		return Label(v), nil
	}
	return 0, fmt.Errorf("integer labels must be 0 or 1, got %d", v)
}

func (l Label) String() string {
	if l == Phishing {
		return "Phishing"
	}
	return "Legitimate"
}

func (l Label) Valid() bool {
	return l == Legitimate || l == Phishing
}

func (l Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(l))
}

func (l *Label) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	label, err := LabelFromInt(v)
	if err != nil {
		return err
	}
	*l = label
	return nil
}
