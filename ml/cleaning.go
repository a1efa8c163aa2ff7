package ml

import (
	"errors"
	"strings"
)

// Sample is one dataset row as seen by cleaning rules.
type Sample struct {
	URL   string
	Label int
}

var (
	errEmptyURL     = errors.New("empty url")
	errDuplicateURL = errors.New("duplicate url")
)

type CleaningRule interface {
	Apply(Sample) (Sample, error)
	Name() string
}

type CleaningStats struct {
	TotalProcessed int            `json:"total_processed"`
	Passed         int            `json:"passed"`
	Rejected       int            `json:"rejected"`
	Corrected      int            `json:"corrected"`
	Issues         map[string]int `json:"issues"`
}

// DatasetCleaner runs every rule over each row in order. A rule error drops
// the row; a changed sample counts as a correction.
type DatasetCleaner struct {
	rules []CleaningRule
}

func NewDatasetCleaner(rules ...CleaningRule) *DatasetCleaner {
	return &DatasetCleaner{rules: rules}
}

// DefaultCleaner trims URLs, drops blank ones and keeps the first occurrence
// of each URL.
func DefaultCleaner() *DatasetCleaner {
	return NewDatasetCleaner(TrimRule{}, NonEmptyRule{}, NewDuplicateRule())
}

func (c *DatasetCleaner) Clean(ds *Dataset) (*Dataset, CleaningStats) {
	stats := CleaningStats{Issues: map[string]int{}}
	out := &Dataset{}
	for i, url := range ds.URLs {
		stats.TotalProcessed++
		original := Sample{URL: url, Label: ds.Labels[i]}
		sample := original
		var rejected bool
		for _, rule := range c.rules {
			next, err := rule.Apply(sample)
			if err != nil {
				stats.Issues[rule.Name()]++
				rejected = true
				break
			}
			sample = next
		}
		if rejected {
			stats.Rejected++
			continue
		}
		stats.Passed++

		features := ds.Features[i]
		if sample != original {
			stats.Corrected++
			features = ExtractFeatureVector(sample.URL)
		}
		out.URLs = append(out.URLs, sample.URL)
		out.Features = append(out.Features, features)
		out.Labels = append(out.Labels, sample.Label)
	}
	return out, stats
}

type TrimRule struct{}

func (TrimRule) Name() string { return "trim" }

func (TrimRule) Apply(s Sample) (Sample, error) {
	s.URL = strings.TrimSpace(s.URL)
	return s, nil
}

type NonEmptyRule struct{}

func (NonEmptyRule) Name() string { return "empty_url" }

func (NonEmptyRule) Apply(s Sample) (Sample, error) {
	if s.URL == "" {
		return s, errEmptyURL
	}
	return s, nil
}

// DuplicateRule is stateful; use a fresh one per dataset. The zero value is
// ready to use.
type DuplicateRule struct {
	seen map[string]struct{}
}

func NewDuplicateRule() *DuplicateRule {
	return &DuplicateRule{seen: make(map[string]struct{})}
}

func (*DuplicateRule) Name() string { return "duplicate_url" }

func (r *DuplicateRule) Apply(s Sample) (Sample, error) {
	if r.seen == nil {
		r.seen = make(map[string]struct{})
	}
	if _, ok := r.seen[s.URL]; ok {
		return s, errDuplicateURL
	}
	r.seen[s.URL] = struct{}{}
	return s, nil
}
