package middleware

import (
	"bytes"
	"net/http"
	"time"
)

// StaticDocument serves an embedded document, such as the OpenAPI
// description, with long-lived caching.
func StaticDocument(content []byte, contentType string) http.Handler {
	modTime := time.Now()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		http.ServeContent(w, r, "", modTime, bytes.NewReader(content))
	})
}
