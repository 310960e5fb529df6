// Package images processes uploaded photos: decode, crop to the target
// aspect, resize, and re-encode as JPEG before handing the result to a
// Store.
package images

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/touristahq/tourista/internal/app/system/apperr"
)

// Profile fixes the output dimensions for one kind of upload.
type Profile struct {
	Width   int
	Height  int
	Quality int
}

// The two upload kinds the API accepts.
var (
	UserPhoto  = Profile{Width: 500, Height: 500, Quality: 90}
	TourImage  = Profile{Width: 2000, Height: 1333, Quality: 90}
)

// maxUploadBytes bounds a single image upload.
const maxUploadBytes = 10 << 20

// Store persists a processed image and returns its public path.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader) (string, error)
}

// Process decodes r, center-crops and resizes to the profile, and
// returns the JPEG bytes. Non-image payloads come back as validation
// failures, not server errors.
func Process(r io.Reader, p Profile) ([]byte, error) {
	src, err := imaging.Decode(io.LimitReader(r, maxUploadBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperr.ValidationFailed("not an image, please upload only images").Wrap(err)
	}

	out := imaging.Fill(src, p.Width, p.Height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(p.Quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Key builds a collision-free object key, e.g. "users/user-<uuid>.jpeg".
func Key(prefix, kind string) string {
	return fmt.Sprintf("%s/%s-%s.jpeg", prefix, kind, uuid.NewString())
}
