package ml

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	ErrNotTrained      = errors.New("model not trained")
	ErrFeatureMismatch = errors.New("model feature set does not match extractor")
)

type DatasetNotFoundError struct {
	Path string
}

func (e *DatasetNotFoundError) Error() string {
	return fmt.Sprintf("dataset not found at %s", e.Path)
}

func (e *DatasetNotFoundError) Unwrap() error {
	return fs.ErrNotExist
}

// DataError reports a malformed dataset row. Row is 1-based and counts the
// header, so it matches the line number for files without quoted newlines.
type DataError struct {
	Row    int
	Column string
	Value  string
	Reason string
}

func (e *DataError) Error() string {
	if e.Row <= 0 {
		return fmt.Sprintf("dataset: %s", e.Reason)
	}
	return fmt.Sprintf("dataset row %d: %s %q: %s", e.Row, e.Column, e.Value, e.Reason)
}

type InsufficientDataError struct {
	Split       string
	ClassCounts map[Label]int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s split has %d legitimate and %d phishing samples, both classes are required",
		e.Split, e.ClassCounts[Legitimate], e.ClassCounts[Phishing])
}

type ModelNotFoundError struct {
	Path string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model not found at %s; train the model first with: phishurl train", e.Path)
}

func (e *ModelNotFoundError) Unwrap() error {
	return fs.ErrNotExist
}
