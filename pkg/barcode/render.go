package barcode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"

	"github.com/JaimeStill/dossier/pkg/pdf"
)

const sourcePDF = "source.pdf"

var errPagesClosed = errors.New("pages closed")

// ImageMagick rasterizes PDF pages through document-context's ImageMagick
// renderer. Content is staged in a private temp directory per document.
//
// The renderer runs magick without a context, so the Extractor's page
// deadline bounds only the caller: a hung render keeps its process until it
// exits. Renders therefore hold one of a fixed number of slots, and a
// timed-out page that has not started yet never starts once its document is
// closed.
type ImageMagick struct {
	tempDir string
	slots   chan struct{}
}

// NewImageMagick stages documents below tempDir (empty uses os.TempDir) and
// runs at most maxRenders magick processes at once.
func NewImageMagick(tempDir string, maxRenders int) *ImageMagick {
	return &ImageMagick{
		tempDir: tempDir,
		slots:   make(chan struct{}, max(maxRenders, 1)),
	}
}

func (r *ImageMagick) Open(data []byte) (Pages, error) {
	count, err := pdf.PageCount(data)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(r.tempDir, "dossier-barcode-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	path := filepath.Join(dir, sourcePDF)
	if err := os.WriteFile(path, data, 0600); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("stage pdf: %w", err)
	}

	doc, err := document.OpenPDF(path)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	renderer, err := image.NewImageMagickRenderer(config.ImageConfig{
		Format:  "png",
		DPI:     300,
		Options: map[string]any{"background": "white"},
	})
	if err != nil {
		doc.Close()
		os.RemoveAll(dir)
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	render := func(page int) ([]byte, error) {
		pg, err := doc.ExtractPage(page)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", page, err)
		}
		return pg.ToImage(renderer, nil)
	}

	return &magickPages{
		count:  count,
		slots:  r.slots,
		render: render,
		cleanup: sync.OnceFunc(func() {
			doc.Close()
			os.RemoveAll(dir)
		}),
	}, nil
}

// magickPages tracks renders still running so Close never removes the
// staged PDF from under a live magick process.
type magickPages struct {
	count   int
	slots   chan struct{}
	render  func(page int) ([]byte, error)
	cleanup func()

	mu       sync.Mutex
	closed   bool
	inflight int
}

func (p *magickPages) Count() int {
	return p.count
}

func (p *magickPages) Render(page int) ([]byte, error) {
	p.slots <- struct{}{}
	defer func() { <-p.slots }()

	if !p.begin() {
		return nil, errPagesClosed
	}
	defer p.end()

	return p.render(page)
}

func (p *magickPages) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.inflight++
	return true
}

func (p *magickPages) end() {
	p.mu.Lock()
	p.inflight--
	last := p.closed && p.inflight == 0
	p.mu.Unlock()

	if last {
		p.cleanup()
	}
}

// Close releases the document now, or after the last abandoned render
// returns.
func (p *magickPages) Close() error {
	p.mu.Lock()
	p.closed = true
	idle := p.inflight == 0
	p.mu.Unlock()

	if idle {
		p.cleanup()
	}
	return nil
}
