// Package barcode reads employee identifiers from the 2D barcodes printed on
// payroll pages. Decoding and rasterization are pluggable; every page is
// bounded by its own deadline and a failure on one page never fails the caller.
package barcode

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"slices"
	"time"
)

// Mode selects how much of a document is scanned.
type Mode int

const (
	// ModeProbe scans only the first ProbePages pages and stops at the first code.
	ModeProbe Mode = iota
	// ModeAllPages scans every page for per-page segmentation.
	ModeAllPages
)

// Decoder turns a page raster into zero or more raw payload strings.
type Decoder interface {
	Decode(img image.Image) ([]string, error)
}

// Rasterizer opens PDF content for page rendering.
type Rasterizer interface {
	Open(data []byte) (Pages, error)
}

// Pages renders individual pages of an opened document.
type Pages interface {
	Count() int
	// Render returns an encoded raster (PNG) of the 1-based page.
	Render(page int) ([]byte, error)
	Close() error
}

// Result is the outcome of decoding one page raster.
// Success=false means the page could not be read (timeout or decode
// failure); Success=true with no codes means the page carries no barcode.
type Result struct {
	Success     bool     `json:"success"`
	Codes       []string `json:"codes,omitempty"`
	EmployeeIDs []string `json:"employee_ids,omitempty"`
	Err         error    `json:"-"`
}

// PageResult is a Result for a numbered page.
type PageResult struct {
	Page int `json:"page"`
	Result
}

// Scan is the outcome of scanning a document.
type Scan struct {
	PageCount int          `json:"page_count"`
	Pages     []PageResult `json:"pages"`
	Err       error        `json:"-"`
}

// Extractor scans documents with a Decoder and a Rasterizer.
type Extractor struct {
	decoder    Decoder
	rasterizer Rasterizer
	timeout    time.Duration
	probePages int
	logger     *slog.Logger
}

func New(decoder Decoder, rasterizer Rasterizer, cfg *Config, logger *slog.Logger) *Extractor {
	return &Extractor{
		decoder:    decoder,
		rasterizer: rasterizer,
		timeout:    cfg.PageTimeoutDuration(),
		probePages: cfg.ProbePages,
		logger:     logger.With("system", "barcode"),
	}
}

// PageTimeout returns the configured per-page deadline.
func (e *Extractor) PageTimeout() time.Duration {
	return e.timeout
}

// Extract decodes a single encoded page image under timeout.
func (e *Extractor) Extract(ctx context.Context, pageImage []byte, timeout time.Duration) Result {
	return e.bounded(ctx, timeout, func() Result {
		img, _, err := image.Decode(bytes.NewReader(pageImage))
		if err != nil {
			return Result{Err: fmt.Errorf("%w: %w", ErrDecode, err)}
		}
		return e.decode(img)
	})
}

// Scan reads barcodes from PDF content. timeout bounds each page; zero uses
// the configured default.
func (e *Extractor) Scan(ctx context.Context, data []byte, mode Mode, timeout time.Duration) Scan {
	if timeout <= 0 {
		timeout = e.timeout
	}

	pages, err := e.rasterizer.Open(data)
	if err != nil {
		e.logger.Warn("document could not be opened for barcode scan", "error", err)
		return Scan{Err: fmt.Errorf("%w: %w", ErrOpen, err)}
	}
	defer pages.Close()

	count := pages.Count()
	limit := count
	if mode == ModeProbe {
		limit = min(count, e.probePages)
	}

	scan := Scan{PageCount: count, Pages: make([]PageResult, 0, limit)}

	for n := 1; n <= limit; n++ {
		if err := ctx.Err(); err != nil {
			scan.Err = err
			break
		}

		res := e.bounded(ctx, timeout, func() Result {
			raster, err := pages.Render(n)
			if err != nil {
				return Result{Err: fmt.Errorf("%w: page %d: %w", ErrRender, n, err)}
			}
			img, _, err := image.Decode(bytes.NewReader(raster))
			if err != nil {
				return Result{Err: fmt.Errorf("%w: page %d: %w", ErrDecode, n, err)}
			}
			return e.decode(img)
		})

		if !res.Success {
			e.logger.Warn("barcode page scan failed", "page", n, "error", res.Err)
		}

		scan.Pages = append(scan.Pages, PageResult{Page: n, Result: res})

		if mode == ModeProbe && len(res.EmployeeIDs) > 0 {
			break
		}
	}

	return scan
}

// bounded runs fn on its own goroutine and abandons it when timeout elapses.
// A panic inside fn is reported as a failed Result.
func (e *Extractor) bounded(ctx context.Context, timeout time.Duration, fn func() Result) Result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- Result{Err: fmt.Errorf("%w: %v", ErrDecode, r)}
			}
		}()
		ch <- fn()
	}()

	select {
	case res := <-ch:
		return res
	case <-ctx.Done():
		return Result{Err: fmt.Errorf("%w after %s", ErrTimeout, timeout)}
	}
}

func (e *Extractor) decode(img image.Image) Result {
	codes, err := e.decoder.Decode(img)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %w", ErrDecode, err)}
	}

	res := Result{Success: true, Codes: codes}
	for _, code := range codes {
		if id, ok := ParseEmployeeID(code); ok && !slices.Contains(res.EmployeeIDs, id) {
			res.EmployeeIDs = append(res.EmployeeIDs, id)
		}
	}
	return res
}

// Success reports whether the document opened and every scanned page was read.
func (s Scan) Success() bool {
	if s.Err != nil {
		return false
	}
	for _, p := range s.Pages {
		if !p.Success {
			return false
		}
	}
	return true
}

// Codes returns all raw payloads in page order.
func (s Scan) Codes() []string {
	var codes []string
	for _, p := range s.Pages {
		codes = append(codes, p.Codes...)
	}
	return codes
}

// PageEmployeeIDs returns one entry per page count: the first employee id
// found on each page, or "" when the page had none or was not scanned.
func (s Scan) PageEmployeeIDs() []string {
	ids := make([]string, s.PageCount)
	for _, p := range s.Pages {
		if p.Page >= 1 && p.Page <= len(ids) && len(p.EmployeeIDs) > 0 {
			ids[p.Page-1] = p.EmployeeIDs[0]
		}
	}
	return ids
}

// FirstEmployeeID returns the first employee id in page order.
func (s Scan) FirstEmployeeID() (string, bool) {
	for _, p := range s.Pages {
		if len(p.EmployeeIDs) > 0 {
			return p.EmployeeIDs[0], true
		}
	}
	return "", false
}

// ScopeCode returns the first tenant code carried by any payload.
func (s Scan) ScopeCode() (string, bool) {
	for _, code := range s.Codes() {
		if v, ok := ParseScopeCode(code); ok {
			return v, true
		}
	}
	return "", false
}
