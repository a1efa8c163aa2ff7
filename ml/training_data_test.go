package ml

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDataset(t *testing.T) {
	ds, err := LoadDataset(filepath.Join("testdata", "urls.csv"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 30 {
		t.Fatalf("expected 30 rows, got %d", ds.Len())
	}
	counts := ds.ClassCounts()
	if counts[Legitimate] != 15 || counts[Phishing] != 15 {
		t.Fatalf("unexpected class counts %v", counts)
	}
	if ds.URLs[0] != "https://www.google.com" || ds.Labels[0] != 0 {
		t.Fatalf("rows out of order: %q %d", ds.URLs[0], ds.Labels[0])
	}
	if len(ds.Features[0]) != NumFeatures {
		t.Fatalf("expected %d features, got %d", NumFeatures, len(ds.Features[0]))
	}
}

func TestReadDatasetHeaderAndBOM(t *testing.T) {
	input := "\ufeffLabel,extra,URL\nphishing,x,http://bit.ly/a\n0,y,https://example.com\n"
	ds, err := ReadDataset(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 2 || ds.URLs[0] != "http://bit.ly/a" || ds.Labels[0] != 1 || ds.Labels[1] != 0 {
		t.Fatalf("unexpected dataset %+v", ds)
	}
}

func TestReadDatasetErrors(t *testing.T) {
	var dataErr *DataError

	_, err := ReadDataset(strings.NewReader("address,label\nhttp://a,0\n"))
	if !errors.As(err, &dataErr) {
		t.Fatalf("expected DataError for missing url column, got %v", err)
	}

	_, err = ReadDataset(strings.NewReader("url,label\nhttp://a,0\nhttp://b,spam\n"))
	if !errors.As(err, &dataErr) {
		t.Fatalf("expected DataError for bad label, got %v", err)
	}
	if dataErr.Row != 3 || dataErr.Value != "spam" {
		t.Fatalf("unexpected error detail %+v", dataErr)
	}

	if _, err := ReadDataset(strings.NewReader("")); !errors.As(err, &dataErr) {
		t.Fatalf("expected DataError for empty input, got %v", err)
	}
}

func TestLoadDatasetNotFound(t *testing.T) {
	_, err := LoadDataset(filepath.Join(t.TempDir(), "missing.csv"))
	var notFound *DatasetNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected DatasetNotFoundError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected error to match os.ErrNotExist")
	}
}

func TestLoadDatasetGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte("url,label\nhttps://example.com,benign\nhttp://x.tk,malicious\n")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "urls.csv.gz")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ds, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 2 || ds.Labels[1] != 1 {
		t.Fatalf("unexpected dataset %+v", ds)
	}
}

func TestSplitDatasetStratified(t *testing.T) {
	var features [][]float64
	var labels []int
	for i := 0; i < 50; i++ {
		features = append(features, []float64{float64(i)})
		label := 0
		if i%5 == 0 {
			label = 1
		}
		labels = append(labels, label)
	}

	trainX, trainY, testX, testY := SplitDataset(features, labels, 0.2, 42, true)
	if len(trainX)+len(testX) != 50 || len(trainY) != len(trainX) || len(testY) != len(testX) {
		t.Fatalf("rows lost in split: train=%d test=%d", len(trainX), len(testX))
	}
	counts := classCounts(testY)
	if counts[Phishing] != 2 || counts[Legitimate] != 8 {
		t.Fatalf("expected 8/2 stratified test split, got %v", counts)
	}

	_, againY, _, againTest := SplitDataset(features, labels, 0.2, 42, true)
	for i := range againTest {
		if againTest[i] != testY[i] {
			t.Fatalf("split is not reproducible")
		}
	}
	if len(againY) != len(trainY) {
		t.Fatalf("split is not reproducible")
	}
}

func TestSplitDatasetRandom(t *testing.T) {
	features := make([][]float64, 10)
	labels := make([]int, 10)
	for i := range features {
		features[i] = []float64{float64(i)}
	}
	trainX, _, testX, _ := SplitDataset(features, labels, 0.3, 1, false)
	if len(trainX) != 7 || len(testX) != 3 {
		t.Fatalf("expected 7/3 split, got %d/%d", len(trainX), len(testX))
	}
}
