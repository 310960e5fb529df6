// internal/app/features/tours/images.go
package tours

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"

	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/images"
	"github.com/touristahq/tourista/internal/app/system/respond"
	"github.com/touristahq/tourista/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
)

const maxTourImages = 3

// ImageUploader wires the processing pipeline into the handler.
type ImageUploader struct {
	Store images.Store
}

// UploadImages replaces a tour's cover and gallery from a multipart
// form: field "imageCover" (single) and "images" (up to three).
// PATCH /{id}/images
func (h *Handler) UploadImages(up *ImageUploader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			h.errs.Write(w, r, apperr.ValidationFailed("expected a multipart form").Wrap(err))
			return
		}

		patch := bson.M{}

		if headers := r.MultipartForm.File["imageCover"]; len(headers) > 0 {
			url, err := up.process(r.Context(), headers[0], "tours", "tour-cover")
			if err != nil {
				h.errs.Write(w, r, err)
				return
			}
			patch["imageCover"] = url
		}

		if headers := r.MultipartForm.File["images"]; len(headers) > 0 {
			if len(headers) > maxTourImages {
				headers = headers[:maxTourImages]
			}
			urls := make([]string, 0, len(headers))
			for _, fh := range headers {
				url, err := up.process(r.Context(), fh, "tours", "tour")
				if err != nil {
					h.errs.Write(w, r, err)
					return
				}
				urls = append(urls, url)
			}
			patch["images"] = urls
		}

		if len(patch) == 0 {
			h.errs.Write(w, r, apperr.ValidationFailed("no image files in request"))
			return
		}

		h.patchImages(w, r, patch)
	}
}

func (up *ImageUploader) process(ctx context.Context, fh *multipart.FileHeader, prefix, kind string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", apperr.ValidationFailed("could not read uploaded file").Wrap(err)
	}
	defer f.Close()

	data, err := images.Process(f, images.TourImage)
	if err != nil {
		return "", err
	}
	return up.Store.Save(ctx, images.Key(prefix, kind), bytes.NewReader(data))
}

func (h *Handler) patchImages(w http.ResponseWriter, r *http.Request, patch bson.M) {
	id, err := h.rs.ID(r)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	updated, err := h.store.Collection().UpdateByID(ctx, id, patch)
	if err != nil {
		h.errs.Write(w, r, err)
		return
	}
	respond.Success(w, http.StatusOK, map[string]any{"data": updated})
}
