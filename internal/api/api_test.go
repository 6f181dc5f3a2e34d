package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/opensource-finance/claimguard/internal/bus"
	"github.com/opensource-finance/claimguard/internal/cache"
	"github.com/opensource-finance/claimguard/internal/domain"
	"github.com/opensource-finance/claimguard/internal/extract"
	"github.com/opensource-finance/claimguard/internal/metrics"
	"github.com/opensource-finance/claimguard/internal/policy"
	"github.com/opensource-finance/claimguard/internal/repository"
	"github.com/opensource-finance/claimguard/internal/review"
	"github.com/opensource-finance/claimguard/internal/service"
	"github.com/opensource-finance/claimguard/internal/worker"
)

const pngSignature = "\x89PNG\r\n\x1a\n"

const mixedClaim = `{
	"claim_id": "CLM-API-001",
	"patient_name": "Asha Rao",
	"sum_insured": 500000,
	"total_amount": 5949,
	"line_items": [
		{"name": "Paracetamol", "quantity": 1, "unit_price": 1000, "total_price": 1000, "category": "Medicine"},
		{"name": "Whey Protein 1kg", "quantity": 1, "unit_price": 2499, "total_price": 2499, "category": "Supplement"},
		{"name": "Moisturizer Cream", "quantity": 1, "unit_price": 450, "total_price": 450, "category": "Cosmetic"},
		{"name": "Amoxicillin", "quantity": 1, "unit_price": 2000, "total_price": 2000, "category": "Medicine"}
	]
}`

// createTestServer wires a full community-tier stack on temp storage.
func createTestServer(t *testing.T, uploadBytes int64) *Server {
	t.Helper()
	return buildTestServer(t, uploadBytes, false, "")
}

// buildTestServer wires the stack and, with withWorker, runs an async
// worker on the same bus the way cmd/claimguard does.
func buildTestServer(t *testing.T, uploadBytes int64, withWorker bool, claimPath string) *Server {
	t.Helper()

	engine, err := policy.NewEngineFromFile(filepath.Join("..", "..", "configs", "policy_rules.json"))
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "api.db"),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	eventBus := bus.NewChannelBus(100)
	t.Cleanup(func() { eventBus.Close() })

	if claimPath == "" {
		claimPath = filepath.Join("..", "extract", "testdata", "claim.json")
	}
	extractor, err := extract.NewFileExtractor(claimPath)
	if err != nil {
		t.Fatalf("failed to create extractor: %v", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	svc, err := service.New(engine, service.Options{
		Repository: repo,
		Cache:      cache.NewMemoryCache(time.Minute),
		Bus:        eventBus,
		Extractor:  extractor,
		Reviewer:     review.NewMockReviewer(),
		Metrics:      m,
		AsyncEnabled: withWorker,
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	if withWorker {
		w := worker.NewWorker(eventBus, svc)
		if err := w.Start(); err != nil {
			t.Fatalf("failed to start worker: %v", err)
		}
		t.Cleanup(func() { w.Stop() })
	}

	cfg := domain.ServerConfig{
		Host:           "localhost",
		Port:           8000,
		ReadTimeout:    30,
		WriteTimeout:   30,
		MaxUploadBytes: uploadBytes,
	}
	return NewServer(cfg, svc, m, reg, "test-v1")
}

func do(server *Server, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	return rr
}

func TestAdjudicateEndpoint(t *testing.T) {
	server := createTestServer(t, 0)

	t.Run("PartialApproval", func(t *testing.T) {
		rr := do(server, http.MethodPost, "/adjudicate", "application/json", []byte(mixedClaim))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp AdjudicateResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		if resp.AdjudicationID == "" {
			t.Error("expected adjudicationId in response")
		}
		if resp.Result.Status != domain.StatusPartialApproval {
			t.Errorf("expected PARTIAL_APPROVAL, got %s", resp.Result.Status)
		}
		if resp.Result.TotalApproved != 3000 || resp.Result.TotalDeducted != 2949 {
			t.Errorf("expected approved 3000 / deducted 2949, got %.2f / %.2f", resp.Result.TotalApproved, resp.Result.TotalDeducted)
		}
		if resp.Result.ExcludedItemsCount != 2 {
			t.Errorf("expected 2 excluded items, got %d", resp.Result.ExcludedItemsCount)
		}
		if resp.Metadata.Version != "test-v1" {
			t.Errorf("expected version test-v1, got %s", resp.Metadata.Version)
		}
		if resp.Metadata.TraceID == "" {
			t.Error("expected traceId in metadata")
		}
		if resp.Claim != nil {
			t.Error("expected claim to be omitted from /adjudicate response")
		}
	})

	t.Run("SnakeCaseResult", func(t *testing.T) {
		rr := do(server, http.MethodPost, "/adjudicate", "application/json", []byte(mixedClaim))
		for _, key := range []string{`"line_item_decisions"`, `"total_approved"`, `"room_rent_deduction_applied"`} {
			if !strings.Contains(rr.Body.String(), key) {
				t.Errorf("response missing %s", key)
			}
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		rr := do(server, http.MethodPost, "/adjudicate", "application/json", []byte("not-json"))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("EmptyBody", func(t *testing.T) {
		rr := do(server, http.MethodPost, "/adjudicate", "application/json", nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("NegativePrice", func(t *testing.T) {
		body := `{"claim_id": "C", "line_items": [{"name": "X", "total_price": -1}]}`
		rr := do(server, http.MethodPost, "/adjudicate", "application/json", []byte(body))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("ZeroSumInsured", func(t *testing.T) {
		body := `{"claim_id": "C", "sum_insured": 0, "line_items": []}`
		rr := do(server, http.MethodPost, "/adjudicate", "application/json", []byte(body))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("ResponseHeaders", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/adjudicate", strings.NewReader(mixedClaim))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(RequestIDHeader, "req-123")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if got := rr.Header().Get(RequestIDHeader); got != "req-123" {
			t.Errorf("expected request id echoed, got %q", got)
		}
		if rr.Header().Get(TraceIDHeader) == "" {
			t.Error("expected X-Trace-ID header")
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %s", ct)
		}
	})
}

func TestAdjudicateBatchEndpoint(t *testing.T) {
	server := createTestServer(t, 0)

	t.Run("MixedBatch", func(t *testing.T) {
		body := "[" + mixedClaim + `, {"claim_id": "BAD", "sum_insured": -1}, {"claim_id": "CLM-API-003", "line_items": []}]`
		rr := do(server, http.MethodPost, "/adjudicate/batch", "application/json", []byte(body))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp BatchResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.Count != 3 || resp.Failed != 1 {
			t.Fatalf("expected count 3 failed 1, got %d / %d", resp.Count, resp.Failed)
		}
		if resp.Results[0].Result == nil || resp.Results[0].Result.ClaimID != "CLM-API-001" {
			t.Errorf("slot 0 wrong: %+v", resp.Results[0])
		}
		if resp.Results[1].Error == "" || resp.Results[1].Result != nil {
			t.Errorf("slot 1 expected error, got %+v", resp.Results[1])
		}
		if resp.Results[2].Result == nil || resp.Results[2].Result.Status != domain.StatusRejected {
			t.Errorf("slot 2 expected REJECTED empty claim, got %+v", resp.Results[2])
		}
	})

	t.Run("EmptyBatch", func(t *testing.T) {
		rr := do(server, http.MethodPost, "/adjudicate/batch", "application/json", []byte("[]"))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("NotAnArray", func(t *testing.T) {
		rr := do(server, http.MethodPost, "/adjudicate/batch", "application/json", []byte(mixedClaim))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("TooLarge", func(t *testing.T) {
		docs := make([]string, MaxBatchSize+1)
		for i := range docs {
			docs[i] = `{"claim_id": "C"}`
		}
		body := "[" + strings.Join(docs, ",") + "]"
		rr := do(server, http.MethodPost, "/adjudicate/batch", "application/json", []byte(body))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestSubmitEndpoint(t *testing.T) {
	server := buildTestServer(t, 0, true, "")

	rr := do(server, http.MethodPost, "/adjudicate/async", "application/json", []byte(mixedClaim))
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["submissionId"] == "" || resp["claimId"] != "CLM-API-001" {
		t.Errorf("unexpected response %v", resp)
	}

	// The worker records the claim under its own adjudication.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rr = do(server, http.MethodGet, "/adjudications?claim_id=CLM-API-001", "", nil)
		var list struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &list); err == nil && list.Count == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("queued claim was not adjudicated: %s", rr.Body.String())
		}
		time.Sleep(10 * time.Millisecond)
	}

	rr = do(server, http.MethodPost, "/adjudicate/async", "application/json", []byte(`{"sum_insured": 0}`))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400 for invalid claim, got %d", rr.Code)
	}
}

func TestSubmitEndpointWithoutWorker(t *testing.T) {
	server := createTestServer(t, 0)

	rr := do(server, http.MethodPost, "/adjudicate/async", "application/json", []byte(mixedClaim))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 with no worker, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = do(server, http.MethodGet, "/adjudications?claim_id=CLM-API-001", "", nil)
	var list struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if list.Count != 0 {
		t.Errorf("expected no adjudications, got %d", list.Count)
	}
}

func multipartBody(t *testing.T, filename, contentType string, content []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create part: %v", err)
	}
	part.Write(content)
	mw.Close()
	return buf.Bytes(), mw.FormDataContentType()
}

func TestAnalyzeEndpoint(t *testing.T) {
	server := createTestServer(t, 0)

	t.Run("DetectedImage", func(t *testing.T) {
		body, ct := multipartBody(t, "receipt.png", "", []byte(pngSignature+"rest-of-image"))
		rr := do(server, http.MethodPost, "/analyze", ct, body)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp AdjudicateResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.Claim == nil || resp.Claim.ClaimID != "CLM-TEST-001" {
			t.Fatalf("expected extracted claim in response, got %+v", resp.Claim)
		}
		if resp.Result.Status != domain.StatusRejected {
			t.Errorf("expected REJECTED, got %s", resp.Result.Status)
		}
		if resp.Metadata.Source != service.SourceUpload || !resp.Metadata.Reviewed {
			t.Errorf("unexpected metadata %+v", resp.Metadata)
		}
	})

	t.Run("DeclaredJPEG", func(t *testing.T) {
		body, ct := multipartBody(t, "receipt.jpg", "image/jpeg", []byte("jpeg-bytes"))
		rr := do(server, http.MethodPost, "/analyze", ct, body)
		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("NotAnImage", func(t *testing.T) {
		body, ct := multipartBody(t, "notes.txt", "", []byte("plain text notes"))
		rr := do(server, http.MethodPost, "/analyze", ct, body)
		if rr.Code != http.StatusUnsupportedMediaType {
			t.Errorf("expected status 415, got %d", rr.Code)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		mw.WriteField("note", "no file")
		mw.Close()
		rr := do(server, http.MethodPost, "/analyze", mw.FormDataContentType(), buf.Bytes())
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("NotMultipart", func(t *testing.T) {
		rr := do(server, http.MethodPost, "/analyze", "application/json", []byte("{}"))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("UploadTooLarge", func(t *testing.T) {
		small := createTestServer(t, 512)
		body, ct := multipartBody(t, "receipt.png", "image/png", bytes.Repeat([]byte("x"), 4096))
		rr := do(small, http.MethodPost, "/analyze", ct, body)
		if rr.Code != http.StatusRequestEntityTooLarge && rr.Code != http.StatusBadRequest {
			t.Errorf("expected upload to be refused, got %d", rr.Code)
		}
	})

	t.Run("InvalidExtractedClaim", func(t *testing.T) {
		claimPath := filepath.Join(t.TempDir(), "bad.json")
		doc := `{"claim_id": "CLM-BAD", "sum_insured": 1000, "line_items": [{"name": "Gauze", "quantity": 1, "unit_price": -5, "total_price": -5}]}`
		if err := os.WriteFile(claimPath, []byte(doc), 0o600); err != nil {
			t.Fatalf("failed to write claim: %v", err)
		}
		bad := buildTestServer(t, 0, false, claimPath)
		body, ct := multipartBody(t, "receipt.png", "image/png", []byte(pngSignature))
		rr := do(bad, http.MethodPost, "/analyze", ct, body)
		if rr.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d: %s", rr.Code, rr.Body.String())
		}
	})
}

func TestHistoryEndpoints(t *testing.T) {
	server := createTestServer(t, 0)

	var ids []string
	for i := 0; i < 2; i++ {
		rr := do(server, http.MethodPost, "/adjudicate", "application/json", []byte(mixedClaim))
		var resp AdjudicateResponse
		json.Unmarshal(rr.Body.Bytes(), &resp)
		ids = append(ids, resp.AdjudicationID)
	}

	t.Run("List", func(t *testing.T) {
		rr := do(server, http.MethodGet, "/adjudications", "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		var resp struct {
			Adjudications []domain.Adjudication `json:"adjudications"`
			Count         int                   `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count != 2 {
			t.Errorf("expected 2 adjudications, got %d", resp.Count)
		}
	})

	t.Run("ListLimit", func(t *testing.T) {
		rr := do(server, http.MethodGet, "/adjudications?limit=1", "", nil)
		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count != 1 {
			t.Errorf("expected 1 adjudication, got %d", resp.Count)
		}
	})

	t.Run("ListByClaim", func(t *testing.T) {
		rr := do(server, http.MethodGet, "/adjudications?claim_id=CLM-OTHER", "", nil)
		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp.Count != 0 {
			t.Errorf("expected 0 adjudications for unknown claim, got %d", resp.Count)
		}
	})

	t.Run("BadLimit", func(t *testing.T) {
		rr := do(server, http.MethodGet, "/adjudications?limit=abc", "", nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("GetByID", func(t *testing.T) {
		rr := do(server, http.MethodGet, "/adjudications/"+ids[0], "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		var adj domain.Adjudication
		json.Unmarshal(rr.Body.Bytes(), &adj)
		if adj.ID != ids[0] || adj.Claim == nil {
			t.Errorf("unexpected adjudication %+v", adj)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		rr := do(server, http.MethodGet, "/adjudications/does-not-exist", "", nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})
}

func TestPolicyEndpoint(t *testing.T) {
	server := createTestServer(t, 0)

	rr := do(server, http.MethodGet, "/policy", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp struct {
		Catalog       policy.CatalogSpec `json:"catalog"`
		CategoryCount int                `json:"categoryCount"`
		KeywordCount  int                `json:"keywordCount"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.CategoryCount != 3 || resp.KeywordCount != 5 {
		t.Errorf("expected 3 categories and 5 keywords, got %d / %d", resp.CategoryCount, resp.KeywordCount)
	}
	if pct := resp.Catalog.RoomRentRules.AllowedPercentage; pct == nil || *pct != 1 {
		t.Errorf("expected allowed_percentage 1, got %v", pct)
	}
}

func TestHealthEndpoints(t *testing.T) {
	server := createTestServer(t, 0)

	t.Run("Health", func(t *testing.T) {
		rr := do(server, http.MethodGet, "/health", "", nil)
		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}
		var resp map[string]interface{}
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if resp["status"] != "healthy" {
			t.Errorf("expected healthy, got %v", resp["status"])
		}
		if resp["version"] != "test-v1" {
			t.Errorf("expected version test-v1, got %v", resp["version"])
		}
	})

	t.Run("Ready", func(t *testing.T) {
		rr := do(server, http.MethodGet, "/ready", "", nil)
		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		do(server, http.MethodPost, "/adjudicate", "application/json", []byte(mixedClaim))

		rr := do(server, http.MethodGet, "/metrics", "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		body := rr.Body.String()
		for _, name := range []string{"claimguard_adjudications_total", "claimguard_http_request_duration_seconds"} {
			if !strings.Contains(body, name) {
				t.Errorf("metrics output missing %s", name)
			}
		}
		if !strings.Contains(body, `route="/adjudicate"`) {
			t.Error("expected http metric labelled with route pattern")
		}
	})

	t.Run("CORSPreflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/adjudicate", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rr.Code)
		}
		if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
			t.Errorf("expected origin echoed, got %q", got)
		}
	})
}

func TestUnconfiguredHistory(t *testing.T) {
	engine, err := policy.NewEngineFromFile(filepath.Join("..", "..", "configs", "policy_rules.json"))
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	svc, _ := service.New(engine, service.Options{})
	server := NewServer(domain.ServerConfig{}, svc, nil, nil, "test-v1")

	if rr := do(server, http.MethodGet, "/adjudications", "", nil); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
	if rr := do(server, http.MethodPost, "/adjudicate/async", "application/json", []byte(mixedClaim)); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rr.Code)
	}
	if rr := do(server, http.MethodGet, "/metrics", "", nil); rr.Code != http.StatusNotFound {
		t.Errorf("expected /metrics unmounted, got %d", rr.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"InvalidClaim", fmt.Errorf("wrap: %w", domain.ErrInvalidClaim), http.StatusBadRequest},
		{"NotFound", repository.ErrNotFound, http.StatusNotFound},
		{"ExtractionFailed", fmt.Errorf("%w: openai: boom", extract.ErrExtractionFailed), http.StatusBadGateway},
		{"ExtractedInvalidClaim", fmt.Errorf("%w: openai: %w", extract.ErrExtractionFailed, domain.ErrInvalidClaim), http.StatusBadGateway},
		{"Unavailable", service.ErrUnavailable, http.StatusServiceUnavailable},
		{"Other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
