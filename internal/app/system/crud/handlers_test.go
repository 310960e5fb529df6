package crud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/touristahq/tourista/internal/app/system/apiquery"
	"github.com/touristahq/tourista/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type item struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name  string             `bson:"name" json:"name"`
	Price float64            `bson:"price" json:"price"`
}

// memColl is an in-memory Collection[item] good enough to exercise the
// handler factory without a database.
type memColl struct {
	docs map[primitive.ObjectID]item
}

func newMemColl() *memColl { return &memColl{docs: map[primitive.ObjectID]item{}} }

func (m *memColl) Base() bson.M { return bson.M{} }

func (m *memColl) Insert(_ context.Context, doc item) (item, error) {
	if doc.Name == "" {
		return item{}, apperr.ValidationFailed("an item must have a name")
	}
	doc.ID = primitive.NewObjectID()
	m.docs[doc.ID] = doc
	return doc, nil
}

func (m *memColl) FindByID(_ context.Context, id primitive.ObjectID, _ *Populate) (item, error) {
	doc, ok := m.docs[id]
	if !ok {
		return item{}, mongo.ErrNoDocuments
	}
	return doc, nil
}

func (m *memColl) FindMany(_ context.Context, q apiquery.Query) ([]item, error) {
	out := []item{}
	for _, d := range m.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if q.Skip < int64(len(out)) {
		out = out[q.Skip:]
	} else {
		out = out[:0]
	}
	if int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *memColl) UpdateByID(_ context.Context, id primitive.ObjectID, patch bson.M) (item, error) {
	doc, ok := m.docs[id]
	if !ok {
		return item{}, mongo.ErrNoDocuments
	}
	if name, ok := patch["name"].(string); ok {
		doc.Name = name
	}
	if price, ok := patch["price"].(float64); ok {
		doc.Price = price
	}
	m.docs[id] = doc
	return doc, nil
}

func (m *memColl) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	if _, ok := m.docs[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(m.docs, id)
	return nil
}

func newResource(coll *memColl) *Resource[item] {
	errs := apperr.NewHandler(zap.NewNop(), false)
	return NewResource[item]("item", coll, errs, zap.NewNop())
}

func withID(r *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type successBody struct {
	Status  string `json:"status"`
	Results *int   `json:"results"`
	Data    struct {
		Data json.RawMessage `json:"data"`
	} `json:"data"`
}

func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder) successBody {
	t.Helper()
	var body successBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestCreateGetDeleteRoundTrip(t *testing.T) {
	coll := newMemColl()
	rs := newResource(coll)

	// Create.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Alpine Trek","price":500}`))
	rs.CreateOne(nil)(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d, want 201", rec.Code)
	}
	body := decodeSuccess(t, rec)
	if body.Status != "success" {
		t.Errorf("status: got %q", body.Status)
	}
	var created item
	if err := json.Unmarshal(body.Data.Data, &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID.IsZero() {
		t.Fatal("created entity has no generated identifier")
	}
	if created.Name != "Alpine Trek" || created.Price != 500 {
		t.Errorf("created: got %+v", created)
	}

	// Get returns the same entity.
	rec = httptest.NewRecorder()
	req = withID(httptest.NewRequest("GET", "/"+created.ID.Hex(), nil), created.ID.Hex())
	rs.GetOne(nil)(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status: got %d, want 200", rec.Code)
	}
	var got item
	if err := json.Unmarshal(decodeSuccess(t, rec).Data.Data, &got); err != nil {
		t.Fatalf("decode got: %v", err)
	}
	if got != created {
		t.Errorf("get: got %+v, want %+v", got, created)
	}

	// Delete.
	rec = httptest.NewRecorder()
	req = withID(httptest.NewRequest("DELETE", "/"+created.ID.Hex(), nil), created.ID.Hex())
	rs.DeleteOne()(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status: got %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("delete body: got %q, want empty", rec.Body.String())
	}

	// Subsequent get is a 404.
	rec = httptest.NewRecorder()
	req = withID(httptest.NewRequest("GET", "/"+created.ID.Hex(), nil), created.ID.Hex())
	rs.GetOne(nil)(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d, want 404", rec.Code)
	}
}

func TestGetAll_ResultsCount(t *testing.T) {
	coll := newMemColl()
	rs := newResource(coll)
	for _, name := range []string{"City Walk", "Forest Hike", "Sea Explorer"} {
		if _, err := coll.Insert(context.Background(), item{Name: name, Price: 100}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	rs.GetAll(nil)(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := decodeSuccess(t, rec)
	if body.Results == nil || *body.Results != 3 {
		t.Errorf("results: got %v, want 3", body.Results)
	}
}

func TestGetAll_EmptyListIsSuccess(t *testing.T) {
	rs := newResource(newMemColl())

	rec := httptest.NewRecorder()
	rs.GetAll(nil)(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	body := decodeSuccess(t, rec)
	if body.Results == nil || *body.Results != 0 {
		t.Errorf("results: got %v, want 0", body.Results)
	}
	if string(body.Data.Data) != "[]" {
		t.Errorf("data: got %s, want []", body.Data.Data)
	}
}

func TestGetAll_RejectsUnknownOperator(t *testing.T) {
	rs := newResource(newMemColl())

	rec := httptest.NewRecorder()
	rs.GetAll(nil)(rec, httptest.NewRequest("GET", "/?price[between]=1,2", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestUpdateOne_NotFound(t *testing.T) {
	rs := newResource(newMemColl())

	id := primitive.NewObjectID().Hex()
	rec := httptest.NewRecorder()
	req := withID(httptest.NewRequest("PATCH", "/"+id, strings.NewReader(`{"price":900}`)), id)
	rs.UpdateOne(nil)(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rec.Code)
	}
}

func TestUpdateOne_StripsImmutableFields(t *testing.T) {
	coll := newMemColl()
	rs := newResource(coll)
	created, err := coll.Insert(context.Background(), item{Name: "City Walk", Price: 100})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	otherID := primitive.NewObjectID().Hex()
	rec := httptest.NewRecorder()
	req := withID(httptest.NewRequest("PATCH", "/"+created.ID.Hex(),
		strings.NewReader(`{"_id":"`+otherID+`","price":150}`)), created.ID.Hex())
	rs.UpdateOne(nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if coll.docs[created.ID].Price != 150 {
		t.Errorf("price not updated: %+v", coll.docs[created.ID])
	}
}

func TestCreateOne_ValidationFailure(t *testing.T) {
	rs := newResource(newMemColl())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"price":10}`))
	rs.CreateOne(nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "an item must have a name") {
		t.Errorf("body: %s", rec.Body.String())
	}
}

func TestBadIDIsValidationFailure(t *testing.T) {
	rs := newResource(newMemColl())

	rec := httptest.NewRecorder()
	req := withID(httptest.NewRequest("GET", "/not-a-hex-id", nil), "not-a-hex-id")
	rs.GetOne(nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}
