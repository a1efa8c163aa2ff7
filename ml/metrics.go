package ml

import (
	"fmt"
	"strings"
)

type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// ConfusionMatrix is indexed [actual][predicted].
type ConfusionMatrix [2][2]int

func (cm ConfusionMatrix) TruePositives() int  { return cm[1][1] }
func (cm ConfusionMatrix) FalsePositives() int { return cm[0][1] }
func (cm ConfusionMatrix) FalseNegatives() int { return cm[1][0] }
func (cm ConfusionMatrix) TrueNegatives() int  { return cm[0][0] }

func (cm ConfusionMatrix) Total() int {
	return cm[0][0] + cm[0][1] + cm[1][0] + cm[1][1]
}

func NewConfusionMatrix(actual, predicted []int) (ConfusionMatrix, error) {
	var cm ConfusionMatrix
	if len(actual) != len(predicted) {
		return cm, fmt.Errorf("actual and predicted size mismatch: %d vs %d", len(actual), len(predicted))
	}
	for i := range actual {
		a, p := actual[i], predicted[i]
		if a < 0 || a > 1 || p < 0 || p > 1 {
			return cm, fmt.Errorf("labels must be 0 or 1, got actual=%d predicted=%d", a, p)
		}
		cm[a][p]++
	}
	return cm, nil
}

// Metrics scores the positive (phishing) class. Undefined ratios are 0.
func (cm ConfusionMatrix) Metrics() Metrics {
	return Metrics{
		Accuracy:  ratio(cm[0][0]+cm[1][1], cm.Total()),
		Precision: ratio(cm.TruePositives(), cm.TruePositives()+cm.FalsePositives()),
		Recall:    ratio(cm.TruePositives(), cm.TruePositives()+cm.FalseNegatives()),
		F1:        f1(cm.TruePositives(), cm.FalsePositives(), cm.FalseNegatives()),
	}
}

type ClassReport struct {
	Class     string  `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ClassificationReport scores each class as if it were the positive one.
func (cm ConfusionMatrix) ClassificationReport() []ClassReport {
	reports := make([]ClassReport, 0, 2)
	for _, label := range []Label{Legitimate, Phishing} {
		c := int(label)
		other := 1 - c
		tp := cm[c][c]
		fp := cm[other][c]
		fn := cm[c][other]
		reports = append(reports, ClassReport{
			Class:     label.String(),
			Precision: ratio(tp, tp+fp),
			Recall:    ratio(tp, tp+fn),
			F1:        f1(tp, fp, fn),
			Support:   cm[c][0] + cm[c][1],
		})
	}
	return reports
}

func (cm ConfusionMatrix) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-12s %12s %12s\n", "", "pred legit", "pred phish")
	fmt.Fprintf(&sb, "%-12s %12d %12d\n", "legitimate", cm[0][0], cm[0][1])
	fmt.Fprintf(&sb, "%-12s %12d %12d\n", "phishing", cm[1][0], cm[1][1])
	return sb.String()
}

func Evaluate(model Classifier, features [][]float64, labels []int) (Metrics, ConfusionMatrix, error) {
	predicted := make([]int, len(features))
	for i, row := range features {
		label, err := model.PredictLabel(row)
		if err != nil {
			return Metrics{}, ConfusionMatrix{}, err
		}
		predicted[i] = label
	}
	cm, err := NewConfusionMatrix(labels, predicted)
	if err != nil {
		return Metrics{}, ConfusionMatrix{}, err
	}
	return cm.Metrics(), cm, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func f1(tp, fp, fn int) float64 {
	return ratio(2*tp, 2*tp+fp+fn)
}
