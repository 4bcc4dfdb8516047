package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"vecindex/internal/domain"
)

// PDFExtractor extracts the text layer of a PDF with pdftotext. When the
// yield falls below a density floor the document is assumed to be scanned
// and the pages are re-rendered with pdftoppm and OCRed with tesseract.
// Exactly one of the two results is returned: whichever carries more
// non-whitespace text.
type PDFExtractor struct {
	runner          CommandRunner
	minCharsPerPage int
	ocrLanguage     string
	ocrDPI          int
}

type PDFOption func(*PDFExtractor)

func WithRunner(r CommandRunner) PDFOption {
	return func(e *PDFExtractor) { e.runner = r }
}

func WithDensityFloor(charsPerPage int) PDFOption {
	return func(e *PDFExtractor) { e.minCharsPerPage = charsPerPage }
}

func WithOCRLanguage(lang string) PDFOption {
	return func(e *PDFExtractor) { e.ocrLanguage = lang }
}

func WithOCRDPI(dpi int) PDFOption {
	return func(e *PDFExtractor) { e.ocrDPI = dpi }
}

func NewPDFExtractor(opts ...PDFOption) *PDFExtractor {
	e := &PDFExtractor{
		runner:          NewExecRunner(),
		minCharsPerPage: 64,
		ocrLanguage:     "eng",
		ocrDPI:          300,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *PDFExtractor) Supports(mimeType string) bool {
	return mimeType == "application/pdf"
}

func (e *PDFExtractor) Extract(ctx context.Context, doc domain.Document) (string, error) {
	if len(doc.Raw) == 0 {
		return "", fmt.Errorf("%w: %s has no bytes", domain.ErrCorruptDocument, doc.ID)
	}

	direct, pages, err := e.textLayer(ctx, doc.Raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}

	if densityOK(direct, pages, e.minCharsPerPage) {
		return direct, nil
	}

	ocr, err := e.ocrPages(ctx, doc.Raw)
	if err != nil {
		// A sparse but non-empty text layer beats a failed OCR run.
		if nonWhitespaceLen(direct) > 0 {
			return direct, nil
		}
		return "", fmt.Errorf("%w: %v", domain.ErrOCRFailed, err)
	}

	if nonWhitespaceLen(ocr) > nonWhitespaceLen(direct) {
		return ocr, nil
	}
	return direct, nil
}

// textLayer runs pdftotext over stdin and derives the page count from the
// form feeds it emits between pages.
func (e *PDFExtractor) textLayer(ctx context.Context, raw []byte) (string, int, error) {
	out, err := e.runner.Run(ctx, raw, "pdftotext", "-enc", "UTF-8", "-", "-")
	if err != nil {
		return "", 0, err
	}
	// pdftotext terminates every page, including the last, with a form
	// feed; trim before counting so an N-page document yields N.
	text := strings.TrimRight(string(out), "\f\n ")
	pages := strings.Count(text, "\f") + 1
	return text, pages, nil
}

// ocrPages renders each page to PNG and runs tesseract over it.
func (e *PDFExtractor) ocrPages(ctx context.Context, raw []byte) (string, error) {
	tmp, err := os.MkdirTemp("", "vecindex-ocr-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmp)

	pdfPath := filepath.Join(tmp, "doc.pdf")
	if err := os.WriteFile(pdfPath, raw, 0600); err != nil {
		return "", err
	}

	_, err = e.runner.Run(ctx, nil, "pdftoppm",
		"-r", strconv.Itoa(e.ocrDPI), "-png", pdfPath, filepath.Join(tmp, "page"))
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		return "", err
	}
	var images []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".png") {
			images = append(images, filepath.Join(tmp, entry.Name()))
		}
	}
	if len(images) == 0 {
		return "", fmt.Errorf("pdftoppm produced no page images")
	}
	sort.Strings(images)

	var pages []string
	for _, img := range images {
		out, err := e.runner.Run(ctx, nil, "tesseract", img, "stdout", "-l", e.ocrLanguage)
		if err != nil {
			return "", err
		}
		pages = append(pages, strings.TrimSpace(string(out)))
	}

	return strings.Join(pages, "\n\n"), nil
}

func densityOK(text string, pages, floor int) bool {
	if pages < 1 {
		pages = 1
	}
	return nonWhitespaceLen(text)/pages >= floor
}

func nonWhitespaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
