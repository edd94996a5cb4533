// Package pdf holds the page-level PDF operations used by ingestion:
// counting pages and cutting a subset of pages into a new document.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// MediaType is the detected media type of PDF content.
const MediaType = "application/pdf"

var (
	ErrNoPages      = errors.New("no pages selected")
	ErrPageRange    = errors.New("page out of range")
	ErrInvalidInput = errors.New("content is not a pdf")
)

var magic = []byte("%PDF-")

// IsPDF reports whether data starts with the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

// PageCount returns the number of pages in data.
func PageCount(data []byte) (int, error) {
	if !IsPDF(data) {
		return 0, ErrInvalidInput
	}

	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}

// ExtractPages returns a new PDF containing only the given 1-based pages of
// data, in ascending order.
func ExtractPages(data []byte, pages []int) ([]byte, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	count, err := PageCount(data)
	if err != nil {
		return nil, err
	}

	sorted := slices.Clone(pages)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	selected := make([]string, 0, len(sorted))
	for _, p := range sorted {
		if p < 1 || p > count {
			return nil, fmt.Errorf("%w: %d of %d", ErrPageRange, p, count)
		}
		selected = append(selected, strconv.Itoa(p))
	}

	var out bytes.Buffer
	if err := api.Trim(bytes.NewReader(data), &out, selected, nil); err != nil {
		return nil, fmt.Errorf("extract pages %v: %w", sorted, err)
	}
	return out.Bytes(), nil
}
