package ml

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Dataset keeps rows in file order so that a seeded split is reproducible.
type Dataset struct {
	URLs     []string
	Features [][]float64
	Labels   []int
}

func (d *Dataset) Len() int {
	return len(d.Labels)
}

func (d *Dataset) ClassCounts() map[Label]int {
	return classCounts(d.Labels)
}

func LoadDataset(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &DatasetNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer file.Close()

	var r io.Reader = file
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("open gzip dataset %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	return ReadDataset(r)
}

// ReadDataset parses CSV with a header row containing "url" and "label".
// A byte-order mark selects UTF-8 or UTF-16 decoding; without one the input
// is taken as UTF-8.
func ReadDataset(r io.Reader) (*Dataset, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DataError{Reason: "empty dataset, expected a header row with url and label columns"}
		}
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	urlCol, labelCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "url":
			urlCol = i
		case "label":
			labelCol = i
		}
	}
	if urlCol < 0 || labelCol < 0 {
		return nil, &DataError{Reason: "CSV must contain 'url' and 'label' columns"}
	}

	ds := &Dataset{}
	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, fmt.Errorf("read dataset row %d: %w", row, err)
		}
		if urlCol >= len(record) || labelCol >= len(record) {
			return nil, &DataError{Row: row, Column: "label", Reason: "missing column value"}
		}
		label, err := ParseLabel(record[labelCol])
		if err != nil {
			return nil, &DataError{Row: row, Column: "label", Value: record[labelCol], Reason: "unrecognized label"}
		}
		url := record[urlCol]
		ds.URLs = append(ds.URLs, url)
		ds.Features = append(ds.Features, ExtractFeatureVector(url))
		ds.Labels = append(ds.Labels, int(label))
	}
	return ds, nil
}

// SplitDataset partitions rows into train and test sets. With stratify set,
// each class contributes round(testRatio * classSize) rows to the test set so
// both partitions keep the overall class balance.
func SplitDataset(features [][]float64, labels []int, testRatio float64, seed int64, stratify bool) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	rnd := rand.New(rand.NewSource(seed))

	var trainIdx, testIdx []int
	if stratify {
		for _, class := range []int{0, 1} {
			var members []int
			for i, label := range labels {
				if label == class {
					members = append(members, i)
				}
			}
			rnd.Shuffle(len(members), func(a, b int) { members[a], members[b] = members[b], members[a] })
			nTest := int(math.Round(float64(len(members)) * testRatio))
			testIdx = append(testIdx, members[:nTest]...)
			trainIdx = append(trainIdx, members[nTest:]...)
		}
	} else {
		indices := rnd.Perm(len(features))
		split := int(math.Round(float64(len(features)) * (1 - testRatio)))
		trainIdx = indices[:split]
		testIdx = indices[split:]
	}

	for _, idx := range trainIdx {
		trainX = append(trainX, features[idx])
		trainY = append(trainY, labels[idx])
	}
	for _, idx := range testIdx {
		testX = append(testX, features[idx])
		testY = append(testY, labels[idx])
	}
	return trainX, trainY, testX, testY
}

func classCounts(labels []int) map[Label]int {
	counts := map[Label]int{Legitimate: 0, Phishing: 0}
	for _, label := range labels {
		counts[Label(label)]++
	}
	return counts
}
