package files

import (
	"context"
	"io"
	"strconv"
	"time"
)

// Store persists an uploaded binary and returns the URL it will be
// served from.
type Store interface {
	Save(ctx context.Context, ext, contentType string, r io.Reader) (string, error)
}

// newName keys an upload by its arrival time plus the original
// extension, e.g. "1693526400000.ogg".
func newName(ext string) string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + ext
}
