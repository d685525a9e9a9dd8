package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// Tesseract runs the tesseract binary as a subprocess, reading the image
// from stdin and collecting the transcription from stdout.
type Tesseract struct {
	binary   string
	language string
}

// NewTesseract creates a subprocess-backed OCR engine. An empty language
// defaults to English.
func NewTesseract(language string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{binary: "tesseract", language: language}
}

func (t *Tesseract) Available() error {
	if _, err := exec.LookPath(t.binary); err != nil {
		return fmt.Errorf("tesseract binary not found: %w", err)
	}
	return nil
}

func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	cmd := exec.CommandContext(ctx, t.binary, "stdin", "stdout", "-l", t.language)
	cmd.Stdin = bytes.NewReader(image)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w, stderr: %s", err, stderr.String())
	}
	return stdout.String(), nil
}
