package ml

import (
	"errors"

	"golang.org/x/net/publicsuffix"
)

type Prediction struct {
	URL                   string  `json:"url"`
	Label                 Label   `json:"label"`
	Prediction            string  `json:"prediction"`
	Confidence            float64 `json:"confidence"`
	ProbabilityLegitimate float64 `json:"probability_legitimate"`
	ProbabilityPhishing   float64 `json:"probability_phishing"`
	Hostname              string  `json:"hostname,omitempty"`
	RegisteredDomain      string  `json:"registered_domain,omitempty"`
}

func (p Prediction) IsPhishing() bool {
	return p.Label == Phishing
}

// Predictor is safe for concurrent use; it only reads the model.
type Predictor struct {
	model *Model
}

func NewPredictor(model *Model) *Predictor {
	return &Predictor{model: model}
}

func (p *Predictor) Model() *Model {
	return p.model
}

func (p *Predictor) Predict(url string) (Prediction, error) {
	if p == nil || p.model == nil || p.model.Classifier == nil {
		return Prediction{}, ErrNotTrained
	}
	features := ExtractFeatures(url)
	probs, err := p.model.Classifier.PredictProbabilities(FeatureVector(features))
	if err != nil {
		return Prediction{}, err
	}

	// Derive the label from the same probabilities that are reported so the
	// two can never disagree.
	phishing := probs[1]
	legitimate := 1 - phishing
	label := Legitimate
	confidence := legitimate
	if phishing > legitimate {
		label = Phishing
		confidence = phishing
	}

	return Prediction{
		URL:                   url,
		Label:                 label,
		Prediction:            label.String(),
		Confidence:            confidence,
		ProbabilityLegitimate: legitimate,
		ProbabilityPhishing:   phishing,
		Hostname:              features.Hostname,
		RegisteredDomain:      registeredDomain(features.Hostname),
	}, nil
}

func (p *Predictor) PredictBatch(urls []string) ([]Prediction, error) {
	results := make([]Prediction, 0, len(urls))
	for _, url := range urls {
		result, err := p.Predict(url)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func registeredDomain(host string) string {
	if host == "" || isIPv4Literal(host) {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return domain
}

// IsModelNotFound reports whether err means no artifact exists yet.
func IsModelNotFound(err error) bool {
	var target *ModelNotFoundError
	return errors.As(err, &target)
}
