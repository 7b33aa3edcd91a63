package descriptor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/tidwall/jsonc"
)

// Record is one decoded descriptor element. Numbers are json.Number.
// It is validated by Map; nothing about its shape is assumed here.
type Record = any

// ParseError is returned when a descriptor file cannot be read or decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse descriptor %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads the descriptor at path and returns its records.
// An array root yields its elements in order; any other root yields itself as
// a single record. Comments, trailing commas and a leading UTF-8 byte order
// mark are tolerated; any other invalid UTF-8 fails the whole file.
func Parse(path string) ([]Record, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is built from the package root
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	records, err := decode(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return records, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decode(data []byte) ([]Record, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, errors.New("invalid UTF-8")
	}

	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()

	var root any
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}

	if arr, ok := root.([]any); ok {
		return arr, nil
	}
	return []Record{root}, nil
}
