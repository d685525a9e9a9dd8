package ocr

import "context"

// Engine turns a raster image into a best-effort text transcription.
// Implementations are safe for concurrent use; recognition is inherently
// lossy, so callers treat failures as empty text rather than aborting.
type Engine interface {
	// Recognize transcribes the image bytes (PNG or JPEG).
	Recognize(ctx context.Context, image []byte) (string, error)

	// Available reports whether the engine can serve requests. Checked
	// once at process start so a misconfigured engine fails fast instead
	// of per-request.
	Available() error
}
