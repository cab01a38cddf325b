package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/aptekar/internal/domain"
	"github.com/John-Robertt/aptekar/internal/infra/metrics"
	"github.com/John-Robertt/aptekar/internal/source"
)

type fakeDispatcher struct {
	gotID   int
	gotTerm string
	gotRef  string
	calls   int
}

func (f *fakeDispatcher) Search(_ context.Context, id int, term string) domain.SearchResponse {
	f.calls++
	f.gotID, f.gotTerm = id, term
	if id != 1 {
		return domain.SearchResponse{Status: domain.StatusError, Description: source.ErrUnknownPharmacy.Error()}
	}
	return domain.SearchResponse{Status: domain.StatusOK, Offers: []domain.Offer{{
		Title: "Аспирин",
		Price: domain.KnownPrice(99.5),
		Link:  "https://monastirev.ru/offer/vladivostok/aspirin",
	}}}
}

func (f *fakeDispatcher) Resolve(_ context.Context, id int, ref string) domain.ItemResponse {
	f.calls++
	f.gotID, f.gotRef = id, ref
	item := domain.ItemDetail{Title: "Аспирин", Link: "https://monastirev.ru/offer/vladivostok/" + ref, Price: domain.UnknownPrice()}
	item.Additions.Set("Производитель", "Bayer")
	return domain.ItemResponse{Status: domain.StatusOK, Item: &item}
}

func newTestRouter(t *testing.T, d Dispatcher, opts Options) (http.Handler, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	opts.Logger = zerolog.New(&logs)
	if opts.CORSOrigins == nil {
		opts.CORSOrigins = []string{"*"}
	}
	return NewRouter(d, opts), &logs
}

func do(t *testing.T, h http.Handler, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestVersion(t *testing.T) {
	h, _ := newTestRouter(t, &fakeDispatcher{}, Options{})
	rec := do(t, h, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"available","version":null}`, rec.Body.String())

	v := "2.1.0"
	h, _ = newTestRouter(t, &fakeDispatcher{}, Options{Version: &v})
	rec = do(t, h, http.MethodGet, "/", nil)
	assert.JSONEq(t, `{"status":"available","version":"2.1.0"}`, rec.Body.String())
}

func TestSearch_PassesQueryThrough(t *testing.T) {
	d := &fakeDispatcher{}
	h, logs := newTestRouter(t, d, Options{})

	rec := do(t, h, http.MethodGet, "/get_pharmacies/1?query=%D0%B0%D1%81%D0%BF%D0%B8%D1%80%D0%B8%D0%BD", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, d.gotID)
	assert.Equal(t, "аспирин", d.gotTerm)
	assert.JSONEq(t, `{"status":"ok","offers":[{"title":"Аспирин","price":99.5,"link":"https://monastirev.ru/offer/vladivostok/aspirin"}]}`, rec.Body.String())

	id := rec.Header().Get("X-Request-ID")
	assert.NotEmpty(t, id)
	assert.Contains(t, logs.String(), id)
}

func TestSearch_MissingQueryIsEmptyTerm(t *testing.T) {
	d := &fakeDispatcher{}
	h, _ := newTestRouter(t, d, Options{})
	rec := do(t, h, http.MethodGet, "/get_pharmacies/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", d.gotTerm)
}

func TestSearch_UnknownPharmacyIs200WithErrorEnvelope(t *testing.T) {
	h, _ := newTestRouter(t, &fakeDispatcher{}, Options{})
	rec := do(t, h, http.MethodGet, "/get_pharmacies/42?query=x", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"error","description":"Pharmacy with this ID not found."}`, rec.Body.String())
}

func TestNonIntegerIDIs422(t *testing.T) {
	d := &fakeDispatcher{}
	h, _ := newTestRouter(t, d, Options{})

	for _, target := range []string{"/get_pharmacies/abc?query=x", "/get_pharmacy_item/1.5?item=x"} {
		rec := do(t, h, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, target)

		var body struct {
			Detail []validationDetail `json:"detail"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Detail, 1)
		assert.Equal(t, []string{"path", "pharmacy_id"}, body.Detail[0].Loc)
	}
	assert.Zero(t, d.calls, "参数非法时不应调用 dispatch")
}

func TestItem(t *testing.T) {
	d := &fakeDispatcher{}
	h, _ := newTestRouter(t, d, Options{})

	rec := do(t, h, http.MethodGet, "/get_pharmacy_item/1?item=aspirin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "aspirin", d.gotRef)
	assert.JSONEq(t, `{"status":"ok","item":{"title":"Аспирин","link":"https://monastirev.ru/offer/vladivostok/aspirin","price":null,"additions":{"Производитель":"Bayer"}}}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/get_pharmacy_item/1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCORS(t *testing.T) {
	h, _ := newTestRouter(t, &fakeDispatcher{}, Options{})

	rec := do(t, h, http.MethodGet, "/", map[string]string{"Origin": "https://client.example"})
	assert.Equal(t, "https://client.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = do(t, h, http.MethodOptions, "/get_pharmacies/1", map[string]string{
		"Origin":                         "https://client.example",
		"Access-Control-Request-Method":  "GET",
		"Access-Control-Request-Headers": "X-Custom",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "X-Custom", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	h, _ := newTestRouter(t, &fakeDispatcher{}, Options{CORSOrigins: []string{"https://ok.example"}})

	rec := do(t, h, http.MethodGet, "/", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodGet, "/", map[string]string{"Origin": "https://ok.example"})
	assert.Equal(t, "https://ok.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveRequest("search", "ovita", nil)

	h, _ := newTestRouter(t, &fakeDispatcher{}, Options{Metrics: metrics.Handler(reg)})
	rec := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aptekar_dispatch_requests_total")
}

func TestRequestIDIsPropagated(t *testing.T) {
	h, _ := newTestRouter(t, &fakeDispatcher{}, Options{})
	rec := do(t, h, http.MethodGet, "/", map[string]string{"X-Request-ID": "abc-123"})
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}
