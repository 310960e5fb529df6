// Package apiquery translates list-endpoint query parameters into a
// composed, not-yet-executed Mongo query. Stages apply in a fixed
// order: filter, sort, field projection, pagination. Building a Query
// never touches the database; stores execute it.
package apiquery

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/touristahq/tourista/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Reserved parameter names that drive stages instead of filtering.
const (
	paramPage   = "page"
	paramSort   = "sort"
	paramLimit  = "limit"
	paramFields = "fields"
)

// comparison operator suffixes, e.g. duration[gte]=5, rewritten to the
// store's $-operators. Anything else in operator position is rejected:
// the old implementation silently matched the literal bracketed key,
// which hid typos from callers. Malformed bracket keys (price[], [gte])
// are rejected the same way.
var operators = map[string]string{
	"gte": "$gte",
	"gt":  "$gt",
	"lte": "$lte",
	"lt":  "$lt",
}

// Limits bounds the pagination stage.
type Limits struct {
	Default int64 // page size when "limit" is absent
	Max     int64 // hard cap on caller-supplied limits; 0 means uncapped
}

// DefaultLimits matches the old API's default page size plus a cap.
var DefaultLimits = Limits{Default: 100, Max: 500}

// Query is a materialized (composed, unexecuted) collection query.
type Query struct {
	Filter     bson.M
	Sort       bson.D
	Projection bson.D // nil selects all fields
	Skip       int64
	Limit      int64
}

// Build composes a Query from caller parameters on top of a base
// filter. Base keys win over caller keys so stores can pin invariants
// (secretTour, active) that callers must not override.
func Build(base bson.M, params url.Values) (Query, error) {
	return BuildWith(base, params, DefaultLimits)
}

// BuildWith is Build with explicit pagination limits.
func BuildWith(base bson.M, params url.Values, lim Limits) (Query, error) {
	filter, err := buildFilter(base, params)
	if err != nil {
		return Query{}, err
	}

	page, limit := buildPagination(params, lim)

	return Query{
		Filter:     filter,
		Sort:       buildSort(params.Get(paramSort)),
		Projection: buildProjection(params.Get(paramFields)),
		Skip:       (page - 1) * limit,
		Limit:      limit,
	}, nil
}

// FindOptions renders the sort/projection/pagination stages for the
// driver. The filter stage is passed to Find separately.
func (q Query) FindOptions() *options.FindOptions {
	o := options.Find().
		SetSort(q.Sort).
		SetSkip(q.Skip).
		SetLimit(q.Limit)
	if q.Projection != nil {
		o.SetProjection(q.Projection)
	}
	return o
}

func buildFilter(base bson.M, params url.Values) (bson.M, error) {
	filter := bson.M{}

	for key, vals := range params {
		switch key {
		case paramPage, paramSort, paramLimit, paramFields:
			continue
		}
		if len(vals) == 0 {
			continue
		}

		if field, op, ok := splitOperator(key); ok {
			mop, known := operators[op]
			if !known {
				return nil, apperr.ValidationFailed(
					fmt.Sprintf("unsupported filter operator %q on field %q", op, field))
			}
			cond, exists := filter[field].(bson.M)
			if !exists {
				cond = bson.M{}
			}
			cond[mop] = coerce(vals[0])
			filter[field] = cond
			continue
		}

		if strings.ContainsAny(key, "[]") {
			return nil, apperr.ValidationFailed(
				fmt.Sprintf("malformed filter key %q", key))
		}

		if len(vals) > 1 {
			in := make([]any, 0, len(vals))
			for _, v := range vals {
				in = append(in, coerce(v))
			}
			filter[key] = bson.M{"$in": in}
			continue
		}
		filter[key] = coerce(vals[0])
	}

	for k, v := range base {
		filter[k] = v
	}
	return filter, nil
}

// splitOperator recognizes the "field[op]" form.
func splitOperator(key string) (field, op string, ok bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return "", "", false
	}
	field = key[:open]
	op = key[open+1 : len(key)-1]
	if op == "" || strings.ContainsAny(op, "[]") {
		return "", "", false
	}
	return field, op, true
}

// coerce maps raw parameter text onto the value types the store
// compares with: integers, floats, booleans, then plain strings.
func coerce(v string) any {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}

// buildSort parses "price,-ratingsAverage" into a compound sort with
// left-to-right tie-breaks. Default: newest first.
func buildSort(raw string) bson.D {
	if strings.TrimSpace(raw) == "" {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	var sort bson.D
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		dir := 1
		if strings.HasPrefix(f, "-") {
			dir = -1
			f = f[1:]
		}
		if f == "" {
			continue
		}
		sort = append(sort, bson.E{Key: f, Value: dir})
	}
	if len(sort) == 0 {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	return sort
}

// buildProjection parses the inclusion list. Nil means all fields: this
// store has no driver-level revision field to hide, so absence of
// "fields" selects everything.
func buildProjection(raw string) bson.D {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var proj bson.D
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		proj = append(proj, bson.E{Key: f, Value: 1})
	}
	if len(proj) == 0 {
		return nil
	}
	return proj
}

func buildPagination(params url.Values, lim Limits) (page, limit int64) {
	page = 1
	if raw := params.Get(paramPage); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			page = n
		}
	}

	limit = lim.Default
	if raw := params.Get(paramLimit); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	if lim.Max > 0 && limit > lim.Max {
		limit = lim.Max
	}
	return page, limit
}
