package files

import (
	"mime"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// ContentType derives the media type from the file name extension and
// falls back to sniffing the content.
func ContentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return mimetype.Detect(data).String()
}
