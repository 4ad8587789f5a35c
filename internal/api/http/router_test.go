package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/mind-engage/neurocare/internal/api/http"
	"github.com/mind-engage/neurocare/internal/assessment"
	"github.com/mind-engage/neurocare/internal/metrics"
	"github.com/mind-engage/neurocare/internal/scoring"
	"github.com/mind-engage/neurocare/internal/storage"
)

type fixture struct {
	store  assessment.Store
	router http.Handler
}

func newFixture(t *testing.T, mut ...func(*api.Deps)) fixture {
	t.Helper()
	ctx := context.Background()
	store := assessment.NewInMemoryStore()
	for _, c := range []assessment.Condition{
		{Name: "General Questions", Questions: []assessment.Question{{ID: "g1", Text: "I feel calm", Order: 1}}},
		{Name: "Anxiety", Questions: []assessment.Question{
			{ID: "a1", Text: "I worry a lot", Order: 1, ImageKey: "questions/a1/worry.png"},
			{ID: "a2", Text: "I feel restless", Order: 2},
		}},
		{Name: "ADHD", Questions: []assessment.Question{
			{ID: "d1", Text: "I lose focus", Order: 1},
			{ID: "d2", Text: "I fidget", Order: 2},
			{ID: "d3", Text: "I forget things", Order: 3},
		}},
	} {
		require.NoError(t, store.PutCondition(ctx, c))
	}

	blobs, err := storage.NewFSStore(t.TempDir(), "/assets/")
	require.NoError(t, err)
	_, err = blobs.Put("questions/a1/worry.png", strings.NewReader("png"))
	require.NoError(t, err)

	pm := metrics.NewPrometheusMetrics()
	d := api.Deps{
		Service:     assessment.NewService(store, store, scoring.NewEngine(), assessment.WithMetrics(pm)),
		Blobs:       blobs,
		Metrics:     pm.Handler(),
		Ready:       store.Ping,
		CORSOrigins: []string{"http://localhost:3000"},
	}
	for _, m := range mut {
		m(&d)
	}
	return fixture{store: store, router: api.NewRouter(d)}
}

func (f fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

const validSubmit = `{
	"name": "Sam",
	"email": "sam@example.com",
	"gender": "female",
	"condition": "Anxiety",
	"answers": {"0": "Strongly Agree", "1": "Agree"}
}`

func TestSubmitEndpoint(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/submit", validSubmit)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Assessment saved successfully","results":{"Anxiety":75}}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/user/sam@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sub map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, "female", sub["gender"])
	assert.Equal(t, map[string]any{"Anxiety": 75.0}, sub["results"])
}

func TestSubmitRankingKeepsOrder(t *testing.T) {
	f := newFixture(t)
	body := strings.Replace(validSubmit, `"condition": "Anxiety"`, `"condition": "General Questions"`, 1)
	body = strings.Replace(body, `"1": "Agree"`, `"1": "Agree", "2": "Strongly Agree"`, 1)

	rec := f.do(t, http.MethodPost, "/api/submit", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	// General Questions 2/2, ADHD 5/6, Anxiety 3/4
	var resp struct {
		Results scoring.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "General Questions", resp.Results[0].Condition)
	assert.Equal(t, 100.0, resp.Results[0].Percentage)
	assert.Equal(t, "ADHD", resp.Results[1].Condition)
	assert.InDelta(t, 83.33, resp.Results[1].Percentage, 0.01)
	assert.Less(t, strings.Index(rec.Body.String(), "General Questions"), strings.Index(rec.Body.String(), "ADHD"))
}

func TestSubmitErrors(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"non-string answer", `{"name":"a","email":"a@b.co","gender":"x","condition":"Anxiety","answers":{"0":2}}`, http.StatusBadRequest},
		{"invalid label", strings.Replace(validSubmit, `"Agree"}`, `"Maybe"}`, 1), http.StatusBadRequest},
		{"missing email", strings.Replace(validSubmit, `"email": "sam@example.com",`, "", 1), http.StatusBadRequest},
		{"unknown condition", strings.Replace(validSubmit, `"Anxiety"`, `"Autism"`, 1), http.StatusNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/submit", c.body)
			assert.Equal(t, c.code, rec.Code, rec.Body.String())
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

type downCatalog struct{ assessment.Store }

func (downCatalog) ListConditions(context.Context) ([]assessment.Condition, error) {
	return nil, errors.New("firestore unreachable")
}

func TestCatalogUnavailableIs503(t *testing.T) {
	f := newFixture(t, func(d *api.Deps) {
		store := downCatalog{assessment.NewInMemoryStore()}
		d.Service = assessment.NewService(store, store, scoring.NewEngine())
	})
	rec := f.do(t, http.MethodPost, "/api/submit", validSubmit)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestResponsesEndpoint(t *testing.T) {
	f := newFixture(t)
	body := `{"answers":{"a1":"Agree","0":"Strongly Agree"},"condition":"Anxiety"}`

	first := f.do(t, http.MethodPost, "/api/responses", body)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	second := f.do(t, http.MethodPost, "/api/responses", body)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b struct {
		Message string         `json:"message"`
		ID      string         `json:"id"`
		Results scoring.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, "Responses saved successfully", a.Message)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, scoring.Result{{Condition: "Anxiety", Percentage: 50}}, a.Results)

	rec := f.do(t, http.MethodGet, "/api/submissions?condition=Anxiety", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []assessment.Submission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)
	assert.Len(t, list[0].Structured, 2)
}

func TestUserNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/user/nobody@example.com", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/responses", `{"answers":{"0":"Agree"},"condition":"Anxiety"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	rec = f.do(t, http.MethodGet, "/api/user/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "anonymous records are not users")
}

func TestSubmitAcceptsEmptyGender(t *testing.T) {
	f := newFixture(t)
	body := strings.Replace(validSubmit, `"gender": "female"`, `"gender": ""`, 1)
	rec := f.do(t, http.MethodPost, "/api/submit", body)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestQuestionEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/questions/Anxiety", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var qs []assessment.Question
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &qs))
	require.Len(t, qs, 2)
	assert.Equal(t, "I worry a lot", qs[0].Text)
	assert.Equal(t, "/assets/questions/a1/worry.png", qs[0].ImageURL)

	rec = f.do(t, http.MethodGet, "/api/questions/General%20Questions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/questions/Autism", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/questions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var grouped struct {
		Groups map[string][]assessment.Question `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &grouped))
	assert.Len(t, grouped.Groups, 3)
	assert.Len(t, grouped.Groups["ADHD"], 3)

	rec = f.do(t, http.MethodGet, "/api/conditions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"name":"General Questions","question_count":1},
		{"name":"Anxiety","question_count":2},
		{"name":"ADHD","question_count":3}
	]`, rec.Body.String())
}

func TestAssetsAndOps(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/assets/questions/a1/worry.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/assets/nope.png", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/readyz", "").Code)

	f.do(t, http.MethodPost, "/api/submit", validSubmit)
	rec = f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `neurocare_submissions_total{outcome="ok",variant="upsert"} 1`)
}

func TestReadyzReportsStoreFailure(t *testing.T) {
	f := newFixture(t, func(d *api.Deps) {
		d.Ready = func(context.Context) error { return errors.New("db down") }
	})
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodGet, "/readyz", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/submit", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestSubmitRateLimited(t *testing.T) {
	f := newFixture(t, func(d *api.Deps) {
		d.RateLimit = 0.001
		d.Burst = 1
	})
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/submit", validSubmit).Code)
	rec := f.do(t, http.MethodPost, "/api/submit", validSubmit)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// reads are not limited
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/conditions", "").Code)
}
