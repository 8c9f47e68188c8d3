// internal/adapters/out/gcs/common/gcs_url.go
package common

import (
	"fmt"
	"net/url"
	"strings"
)

// GCSPublicURL builds a public object URL. A leading "/" on objectPath is dropped.
func GCSPublicURL(bucket, objectPath string) string {
	b := strings.TrimSpace(bucket)
	obj := strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b, obj)
}

// ParseGCSURL returns (bucket, objectPath, ok) for:
//   - gs://<bucket>/<object>
//   - https://storage.googleapis.com/<bucket>/<object>
//   - https://storage.cloud.google.com/<bucket>/<object>
func ParseGCSURL(u string) (string, string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil {
		return "", "", false
	}

	var p string
	switch {
	case parsed.Scheme == "gs":
		if parsed.Host == "" {
			return "", "", false
		}
		p = parsed.Host + parsed.EscapedPath()
	case strings.EqualFold(parsed.Host, "storage.googleapis.com"),
		strings.EqualFold(parsed.Host, "storage.cloud.google.com"):
		p = strings.TrimLeft(parsed.EscapedPath(), "/")
	default:
		return "", "", false
	}

	parts := strings.SplitN(p, "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	objectPath, err := url.PathUnescape(parts[1])
	if err != nil {
		return "", "", false
	}
	return parts[0], objectPath, true
}
