// Package media hosts uploaded car images and hands back durable URLs.
//
// The rest of the application never looks at image bytes after this package
// has accepted them: it stores the returned URLs and nothing else.
package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Object is one blob to store under Key.
type Object struct {
	Key         string
	ContentType string
	Data        []byte
}

// Store accepts a blob and returns the URL it can be fetched from.
type Store interface {
	Put(ctx context.Context, obj Object) (string, error)
}

// sniff detects the content type from the bytes themselves. The client's
// Content-Type header is ignored.
func sniff(data []byte) *mimetype.MIME {
	return mimetype.Detect(data)
}

func isImage(m *mimetype.MIME) bool {
	return strings.HasPrefix(m.String(), "image/")
}

// objectKey builds cars/<accountID>/<yyyy>/<mm>/<uuid><ext>.
func objectKey(accountID string, at time.Time, ext string) string {
	return fmt.Sprintf("cars/%s/%04d/%02d/%s%s",
		accountID, at.Year(), int(at.Month()), uuid.NewString(), ext)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
