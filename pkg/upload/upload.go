// Package upload stores sweet images and hands back the public URL that
// goes into a sweet's image_url field.
//
// The admin item form posts the image over plain HTTP before the draft
// is submitted; the returned URL is then included in the create/update
// payload. Backends: local disk (served by the storefront itself) and
// S3. Only image content is accepted, validated against the detected
// MIME type rather than client-supplied headers.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

// ErrTooLarge is returned when an image exceeds the size limit.
var ErrTooLarge = errors.New("upload: image too large")

// ErrNotAnImage is returned when the content is not a supported image type.
var ErrNotAnImage = errors.New("upload: unsupported content type")

// allowedTypes are the image MIME types accepted for sweet photos.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store is the interface for image storage backends.
type Store interface {
	// Save stores the image and returns the public URL to reference it
	// by. The content type must be one of the supported image types.
	Save(ctx context.Context, contentType string, size int64, r io.Reader) (url string, err error)

	// Cleanup removes images older than maxAge that are no longer
	// wanted. Backends that cannot tell may implement this as a no-op.
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

// Handler returns an http.Handler accepting a multipart "image" field
// and responding with {"image_url": "..."}. Mount it on an
// admin-guarded route.
func Handler(store Store, maxSize int64) http.Handler {
	if maxSize <= 0 {
		maxSize = 5 << 20 // 5MB default
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Limit the body before parsing so oversized uploads fail fast.
		r.Body = http.MaxBytesReader(w, r.Body, maxSize)
		if err := r.ParseMultipartForm(maxSize); err != nil {
			if err.Error() == "http: request body too large" {
				http.Error(w, "Image too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}

		file, _, err := r.FormFile("image")
		if err != nil {
			http.Error(w, "No image provided", http.StatusBadRequest)
			return
		}
		defer file.Close()

		// Sniff the real content type; part headers are not trusted.
		head := make([]byte, 512)
		n, err := io.ReadFull(file, head)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			http.Error(w, "Failed to read image", http.StatusBadRequest)
			return
		}
		contentType := http.DetectContentType(head[:n])
		if _, ok := allowedTypes[contentType]; !ok {
			http.Error(w, "Unsupported image type", http.StatusUnsupportedMediaType)
			return
		}

		reader := io.MultiReader(bytes.NewReader(head[:n]), file)
		url, err := store.Save(r.Context(), contentType, -1, reader)
		switch {
		case errors.Is(err, ErrTooLarge):
			http.Error(w, "Image too large", http.StatusRequestEntityTooLarge)
			return
		case err != nil:
			http.Error(w, "Failed to store image", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"image_url": url})
	})
}

// extensionFor returns the canonical file extension for a supported
// image type, or "" for anything else.
func extensionFor(contentType string) string {
	return allowedTypes[contentType]
}
