// internal/app/system/crud/handlers.go
package crud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/touristahq/tourista/internal/app/system/apiquery"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"github.com/touristahq/tourista/internal/app/system/respond"
	"github.com/touristahq/tourista/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxBodyBytes bounds create/update payloads (matches the old API's
// 10kb body-parser limit).
const maxBodyBytes = 10 << 10

// Resource produces the standard handlers for one entity type.
type Resource[T any] struct {
	Name   string // singular entity name, used in messages
	Coll   Collection[T]
	Errs   *apperr.Handler
	Limits apiquery.Limits // zero value falls back to apiquery.DefaultLimits
	Log    *zap.Logger
}

// NewResource wires a Resource with default pagination limits.
func NewResource[T any](name string, coll Collection[T], errs *apperr.Handler, logger *zap.Logger) *Resource[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resource[T]{Name: name, Coll: coll, Errs: errs, Log: logger}
}

func (rs *Resource[T]) limits() apiquery.Limits {
	if rs.Limits.Default > 0 {
		return rs.Limits
	}
	return apiquery.DefaultLimits
}

// Scope narrows a list to a per-request subset, e.g. reviews nested
// under a tour. The returned filter is pinned like the store's base.
type Scope func(*http.Request) (bson.M, error)

// GetAll lists entities with the full query-builder pipeline.
// GET /  →  200 {"status":"success","results":n,"data":{"data":[...]}}
func (rs *Resource[T]) GetAll(scope Scope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs.List(w, r, r.URL.Query(), scope)
	}
}

// List is the shared list path; feature handlers with preset parameter
// mappings (e.g. top-5-cheap) call it directly.
func (rs *Resource[T]) List(w http.ResponseWriter, r *http.Request, params url.Values, scope Scope) {
	base := rs.Coll.Base()
	if scope != nil {
		extra, err := scope(r)
		if err != nil {
			rs.Errs.Write(w, r, err)
			return
		}
		for k, v := range extra {
			base[k] = v
		}
	}

	q, err := apiquery.BuildWith(base, params, rs.limits())
	if err != nil {
		rs.Errs.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	docs, err := rs.Coll.FindMany(ctx, q)
	if err != nil {
		rs.Errs.Write(w, r, err)
		return
	}
	respond.List(w, len(docs), map[string]any{"data": docs})
}

// GetOne fetches a single entity, optionally attaching a relation.
// GET /{id}  →  200, or 404 when the id matches nothing.
func (rs *Resource[T]) GetOne(pop *Populate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := rs.id(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		defer cancel()

		doc, err := rs.Coll.FindByID(ctx, id, pop)
		if err != nil {
			rs.Errs.Write(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, map[string]any{"data": doc})
	}
}

// CreateOne inserts a new entity from the JSON body. prepare (optional)
// fills fields the caller may not set directly, e.g. the review's
// author from the authenticated identity.
// POST /  →  201, or 400 on constraint violations.
func (rs *Resource[T]) CreateOne(prepare func(*http.Request, *T) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doc T
		if !rs.decode(w, r, &doc) {
			return
		}
		if prepare != nil {
			if err := prepare(r, &doc); err != nil {
				rs.Errs.Write(w, r, err)
				return
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
		defer cancel()

		created, err := rs.Coll.Insert(ctx, doc)
		if err != nil {
			rs.Errs.Write(w, r, err)
			return
		}
		respond.Success(w, http.StatusCreated, map[string]any{"data": created})
	}
}

// UpdateOne merges a partial JSON body into the entity and re-runs the
// field validators. prepare (optional) may strip or rewrite fields.
// PATCH /{id}  →  200, 404 when absent, 400 on constraint violations.
func (rs *Resource[T]) UpdateOne(prepare func(*http.Request, bson.M) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := rs.id(w, r)
		if !ok {
			return
		}

		patch := bson.M{}
		if !rs.decode(w, r, &patch) {
			return
		}
		// Never patchable, whatever the caller sends.
		delete(patch, "id")
		delete(patch, "_id")
		delete(patch, "createdAt")
		delete(patch, "updatedAt")

		if prepare != nil {
			if err := prepare(r, patch); err != nil {
				rs.Errs.Write(w, r, err)
				return
			}
		}
		if len(patch) == 0 {
			rs.Errs.Write(w, r, apperr.ValidationFailed("no updatable fields in request body"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
		defer cancel()

		updated, err := rs.Coll.UpdateByID(ctx, id, patch)
		if err != nil {
			rs.Errs.Write(w, r, err)
			return
		}
		respond.Success(w, http.StatusOK, map[string]any{"data": updated})
	}
}

// DeleteOne removes an entity.
// DELETE /{id}  →  204, or 404 when the id matches nothing.
func (rs *Resource[T]) DeleteOne() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := rs.id(w, r)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
		defer cancel()

		if err := rs.Coll.DeleteByID(ctx, id); err != nil {
			rs.Errs.Write(w, r, err)
			return
		}
		respond.NoContent(w)
	}
}

// ID parses the {id} route parameter.
func (rs *Resource[T]) ID(r *http.Request) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, "id")
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidID(raw)
	}
	return id, nil
}

func (rs *Resource[T]) id(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := rs.ID(r)
	if err != nil {
		rs.Errs.Write(w, r, err)
		return primitive.NilObjectID, false
	}
	return id, true
}

func (rs *Resource[T]) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		rs.Errs.Write(w, r, apperr.ValidationFailed("invalid JSON body").Wrap(err))
		return false
	}
	return true
}
