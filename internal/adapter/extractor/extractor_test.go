package extractor

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vecindex/internal/domain"
	"vecindex/internal/port"
)

// scriptRunner is a test double for CommandRunner keyed on tool name.
type scriptRunner struct {
	handlers map[string]func(stdin []byte, args ...string) ([]byte, error)
	calls    []string
}

func (s *scriptRunner) Run(_ context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	s.calls = append(s.calls, name)
	h, ok := s.handlers[name]
	if !ok {
		return nil, errors.New("unexpected tool: " + name)
	}
	return h(stdin, args...)
}

func pdfDoc(raw string) domain.Document {
	return domain.Document{
		ID:       "docs/sample.pdf",
		Name:     "sample.pdf",
		Raw:      []byte(raw),
		MimeType: "application/pdf",
	}
}

func TestPDFTextLayerFastPath(t *testing.T) {
	runner := &scriptRunner{handlers: map[string]func([]byte, ...string) ([]byte, error){
		"pdftotext": func(stdin []byte, _ ...string) ([]byte, error) {
			assert.Equal(t, []byte("%PDF-1.4 fake"), stdin)
			return []byte("Hello world. This is a test document.\f"), nil
		},
	}}

	e := NewPDFExtractor(WithRunner(runner), WithDensityFloor(10))
	text, err := e.Extract(context.Background(), pdfDoc("%PDF-1.4 fake"))
	require.NoError(t, err)
	assert.Equal(t, "Hello world. This is a test document.", text)
	assert.Equal(t, []string{"pdftotext"}, runner.calls, "OCR must not run on a dense text layer")
}

func TestPDFOCRFallback(t *testing.T) {
	runner := &scriptRunner{handlers: map[string]func([]byte, ...string) ([]byte, error){
		"pdftotext": func(_ []byte, _ ...string) ([]byte, error) {
			// Scanned document: two pages, nearly no text layer.
			return []byte(" \f "), nil
		},
		"pdftoppm": func(_ []byte, args ...string) ([]byte, error) {
			prefix := args[len(args)-1]
			require.NoError(t, os.WriteFile(prefix+"-1.png", []byte("png"), 0600))
			require.NoError(t, os.WriteFile(prefix+"-2.png", []byte("png"), 0600))
			return nil, nil
		},
		"tesseract": func(_ []byte, args ...string) ([]byte, error) {
			if strings.HasSuffix(args[0], "-1.png") {
				return []byte("Scanned page one.\n"), nil
			}
			return []byte("Scanned page two.\n"), nil
		},
	}}

	e := NewPDFExtractor(WithRunner(runner), WithDensityFloor(64))
	text, err := e.Extract(context.Background(), pdfDoc("scanned"))
	require.NoError(t, err)
	assert.Equal(t, "Scanned page one.\n\nScanned page two.", text)
	assert.Equal(t, []string{"pdftotext", "pdftoppm", "tesseract", "tesseract"}, runner.calls)
}

func TestPDFSparseTextLayerBeatsFailedOCR(t *testing.T) {
	runner := &scriptRunner{handlers: map[string]func([]byte, ...string) ([]byte, error){
		"pdftotext": func(_ []byte, _ ...string) ([]byte, error) {
			return []byte("just a caption\f"), nil
		},
		"pdftoppm": func(_ []byte, _ ...string) ([]byte, error) {
			return nil, errors.New("pdftoppm crashed")
		},
	}}

	e := NewPDFExtractor(WithRunner(runner), WithDensityFloor(64))
	text, err := e.Extract(context.Background(), pdfDoc("sparse"))
	require.NoError(t, err)
	assert.Equal(t, "just a caption", text)
}

func TestPDFOCRFailedOnEmptyTextLayer(t *testing.T) {
	runner := &scriptRunner{handlers: map[string]func([]byte, ...string) ([]byte, error){
		"pdftotext": func(_ []byte, _ ...string) ([]byte, error) {
			return []byte(""), nil
		},
		"pdftoppm": func(_ []byte, _ ...string) ([]byte, error) {
			return nil, errors.New("pdftoppm crashed")
		},
	}}

	e := NewPDFExtractor(WithRunner(runner))
	_, err := e.Extract(context.Background(), pdfDoc("scanned"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOCRFailed)
}

func TestPDFCorrupt(t *testing.T) {
	runner := &scriptRunner{handlers: map[string]func([]byte, ...string) ([]byte, error){
		"pdftotext": func(_ []byte, _ ...string) ([]byte, error) {
			return nil, errors.New("syntax error: couldn't read xref table")
		},
	}}

	e := NewPDFExtractor(WithRunner(runner))
	_, err := e.Extract(context.Background(), pdfDoc("garbage"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCorruptDocument)
}

func TestPDFEmptyBytes(t *testing.T) {
	e := NewPDFExtractor(WithRunner(&scriptRunner{}))
	_, err := e.Extract(context.Background(), pdfDoc(""))
	assert.ErrorIs(t, err, domain.ErrCorruptDocument)
}

func TestPlaintextPassthrough(t *testing.T) {
	e := NewPlaintextExtractor()

	text, err := e.Extract(context.Background(), domain.Document{
		ID:       "notes.txt",
		Raw:      []byte("plain notes"),
		MimeType: "text/plain",
	})
	require.NoError(t, err)
	assert.Equal(t, "plain notes", text)

	_, err = e.Extract(context.Background(), domain.Document{
		ID:       "bad.txt",
		Raw:      []byte{0xff, 0xfe, 0x00},
		MimeType: "text/plain",
	})
	assert.ErrorIs(t, err, domain.ErrCorruptDocument)
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry(NewPlaintextExtractor())

	assert.True(t, reg.Supports("text/plain"))
	assert.False(t, reg.Supports("application/zip"))

	_, err := reg.Extract(context.Background(), domain.Document{
		ID:       "archive.zip",
		Raw:      []byte("PK"),
		MimeType: "application/zip",
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "tesseract")
}

func TestInterfaceCompliance(t *testing.T) {
	var _ port.Extractor = (*PDFExtractor)(nil)
	var _ port.Extractor = (*PlaintextExtractor)(nil)
	var _ port.Extractor = (*Registry)(nil)
}
