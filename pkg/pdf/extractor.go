package pdf

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"leaf-research-be/internal/pkg/logger"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	ErrNotPDF   = errors.New("pdf: missing %PDF- header")
	ErrEmptyPDF = errors.New("pdf: no extractable text")
)

const pdfMagic = "%PDF-"

// Extractor pulls plain text out of an uploaded PDF attachment.
type Extractor struct {
	logger   logger.ILogger
	maxPages int
}

func NewExtractor(log logger.ILogger, maxPages int) *Extractor {
	if maxPages <= 0 {
		maxPages = 50
	}
	return &Extractor{logger: log, maxPages: maxPages}
}

// DecodeBase64 accepts raw base64 or a data URL.
func DecodeBase64(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i >= 0 {
		encoded = encoded[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("pdf: decode base64: %w", err)
	}
	return data, nil
}

func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte(pdfMagic))
}

// ExtractText returns the text of up to maxPages pages, one block per page.
func (e *Extractor) ExtractText(data []byte) (string, error) {
	if !IsPDF(data) {
		return "", ErrNotPDF
	}

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("pdf: read: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return "", fmt.Errorf("pdf: page count: %w", err)
	}

	pages := ctx.PageCount
	if pages > e.maxPages {
		e.logger.Warn("PDF", "Page limit reached, remaining pages skipped", map[string]interface{}{
			"pages": pages,
			"limit": e.maxPages,
		})
		pages = e.maxPages
	}

	var out []string
	for p := 1; p <= pages; p++ {
		r, err := pdfcpu.ExtractPageContent(ctx, p)
		if err != nil {
			e.logger.Warn("PDF", "Failed to read page content", map[string]interface{}{"page": p, "error": err.Error()})
			continue
		}
		if r == nil {
			continue
		}
		content, err := io.ReadAll(r)
		if err != nil {
			continue
		}
		if text := strings.TrimSpace(ContentText(content)); text != "" {
			out = append(out, text)
		}
	}

	if len(out) == 0 {
		return "", ErrEmptyPDF
	}
	return strings.Join(out, "\n\n"), nil
}
