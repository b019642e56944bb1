package storage

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewObjectKey builds a collision-resistant key of the form <unix-millis>-<token>.<ext>,
// keeping the extension of the original file name.
func NewObjectKey(originalName string, now time.Time) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if ext == "" {
		ext = "pdf"
	}
	token := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("%d-%s.%s", now.UnixMilli(), token, ext)
}

func objectURL(base, bucket, key string) string {
	base = strings.TrimRight(base, "/")
	if bucket == "" {
		return base + "/" + url.PathEscape(key)
	}
	return base + "/" + bucket + "/" + url.PathEscape(key)
}
