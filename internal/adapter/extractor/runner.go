package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// CommandRunner executes an external tool. Indirection exists so tests can
// run without poppler or tesseract installed.
type CommandRunner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

// NewExecRunner returns a CommandRunner backed by os/exec.
func NewExecRunner() CommandRunner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) > 0 {
			return nil, fmt.Errorf("%s: %s: %w", name, msg, err)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// InstallInstructions explains how to install the external tools the PDF
// extractor shells out to.
func InstallInstructions() string {
	return `PDF extraction requires poppler (pdftotext, pdftoppm) and tesseract:

  macOS:         brew install poppler tesseract
  Debian/Ubuntu: apt install poppler-utils tesseract-ocr`
}
