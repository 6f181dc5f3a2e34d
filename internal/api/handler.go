package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/opensource-finance/claimguard/internal/domain"
	"github.com/opensource-finance/claimguard/internal/extract"
	"github.com/opensource-finance/claimguard/internal/repository"
	"github.com/opensource-finance/claimguard/internal/service"
)

const (
	// MaxClaimBytes caps a JSON claim body.
	MaxClaimBytes = 1 << 20

	// MaxBatchSize caps the claims accepted by POST /adjudicate/batch.
	MaxBatchSize = 100

	// DefaultUploadBytes applies when the server config leaves the upload
	// limit unset.
	DefaultUploadBytes = 10 << 20
)

// Handler holds dependencies for API handlers.
type Handler struct {
	svc         *service.Service
	version     string
	uploadBytes int64
}

// NewHandler creates a new API handler.
func NewHandler(svc *service.Service, version string, uploadBytes int64) *Handler {
	if uploadBytes <= 0 {
		uploadBytes = DefaultUploadBytes
	}
	return &Handler{
		svc:         svc,
		version:     version,
		uploadBytes: uploadBytes,
	}
}

// ResponseMetadata is attached to every adjudication response.
type ResponseMetadata struct {
	TraceID  string `json:"traceId"`
	Source   string `json:"source"`
	Reviewed bool   `json:"reviewed"`
	TotalMs  int64  `json:"totalMs"`
	Version  string `json:"version"`
}

// AdjudicateResponse is the response for POST /adjudicate and /analyze.
type AdjudicateResponse struct {
	AdjudicationID string                     `json:"adjudicationId"`
	Claim          *domain.ClaimRecord        `json:"claim,omitempty"`
	Result         *domain.AdjudicationResult `json:"result"`
	Metadata       ResponseMetadata           `json:"metadata"`
}

func (h *Handler) response(adj *domain.Adjudication, withClaim bool) AdjudicateResponse {
	resp := AdjudicateResponse{
		AdjudicationID: adj.ID,
		Result:         adj.Result,
		Metadata: ResponseMetadata{
			TraceID:  adj.Metadata.TraceID,
			Source:   adj.Metadata.Source,
			Reviewed: adj.Metadata.Reviewed,
			TotalMs:  adj.Metadata.TotalMs,
			Version:  h.version,
		},
	}
	if withClaim {
		resp.Claim = adj.Claim
	}
	return resp
}

// Adjudicate handles POST /adjudicate requests.
func (h *Handler) Adjudicate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claim, err := readClaim(r)
	if err != nil {
		writeError(w, err)
		return
	}

	adj, err := h.svc.Adjudicate(ctx, service.Input{
		Claim:   claim,
		Source:  service.SourceAPI,
		TraceID: GetTraceID(ctx),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.response(adj, false))
}

// Submit handles POST /adjudicate/async: the claim is queued for the worker
// and 202 is returned with the submission ID.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claim, err := readClaim(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id, err := h.svc.Submit(ctx, claim, GetTraceID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"submissionId": id,
		"claimId":      claim.ClaimID,
		"status":       "QUEUED",
	})
}

// BatchResultItem is one entry of a batch response.
type BatchResultItem struct {
	Index          int                        `json:"index"`
	AdjudicationID string                     `json:"adjudicationId,omitempty"`
	Result         *domain.AdjudicationResult `json:"result,omitempty"`
	Error          string                     `json:"error,omitempty"`
}

// BatchResponse is the response for POST /adjudicate/batch.
type BatchResponse struct {
	Results []BatchResultItem `json:"results"`
	Count   int               `json:"count"`
	Failed  int               `json:"failed"`
}

// AdjudicateBatch handles POST /adjudicate/batch requests. Each element is
// decoded and adjudicated on its own, so one bad claim fails only its slot.
func (h *Handler) AdjudicateBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var docs []json.RawMessage
	if err := json.NewDecoder(io.LimitReader(r.Body, MaxBatchSize*MaxClaimBytes)).Decode(&docs); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "request body must be a JSON array of claims",
		})
		return
	}
	if len(docs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "batch is empty",
		})
		return
	}
	if len(docs) > MaxBatchSize {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("batch exceeds %d claims", MaxBatchSize),
		})
		return
	}

	resp := BatchResponse{Results: make([]BatchResultItem, len(docs)), Count: len(docs)}

	// Undecodable claims never reach the service; slots maps service
	// inputs back to their batch positions.
	var inputs []service.Input
	var slots []int
	for i, doc := range docs {
		resp.Results[i].Index = i
		claim, err := domain.ParseClaim(doc)
		if err != nil {
			resp.Results[i].Error = err.Error()
			resp.Failed++
			continue
		}
		inputs = append(inputs, service.Input{Claim: claim, Source: service.SourceAPI, TraceID: GetTraceID(ctx)})
		slots = append(slots, i)
	}

	items, err := h.svc.AdjudicateBatch(ctx, inputs)
	if err != nil {
		writeError(w, err)
		return
	}

	for j, item := range items {
		slot := &resp.Results[slots[j]]
		if item.Err != nil {
			slot.Error = item.Err.Error()
			resp.Failed++
			continue
		}
		slot.AdjudicationID = item.Adjudication.ID
		slot.Result = item.Adjudication.Result
	}

	writeJSON(w, http.StatusOK, resp)
}

// Analyze handles POST /analyze: a multipart receipt image under the "file"
// field is extracted, adjudicated and reviewed.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadBytes)
	if err := r.ParseMultipartForm(h.uploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": fmt.Sprintf("upload exceeds %d bytes", h.uploadBytes),
			})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "expected multipart form with a file field",
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "file is required",
		})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "failed to read upload",
		})
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{
			"error": "upload must be an image, got " + mimeType,
		})
		return
	}

	adj, err := h.svc.Analyze(ctx, image, mimeType, GetTraceID(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.response(adj, true))
}

// ListAdjudications handles GET /adjudications. Optional query parameters:
// limit and claim_id.
func (h *Handler) ListAdjudications(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "limit must be a non-negative integer",
			})
			return
		}
		limit = n
	}

	adjs, err := h.svc.List(r.Context(), r.URL.Query().Get("claim_id"), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"adjudications": adjs,
		"count":         len(adjs),
	})
}

// GetAdjudication retrieves an adjudication by ID.
func (h *Handler) GetAdjudication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	adj, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, adj)
}

// Policy returns the loaded rule catalog.
func (h *Handler) Policy(w http.ResponseWriter, r *http.Request) {
	catalog := h.svc.Engine().Catalog()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"catalog":         catalog.Spec(),
		"categoryCount":   catalog.CategoryCount(),
		"keywordCount":    catalog.KeywordCount(),
		"expressionCount": catalog.ExpressionCount(),
	})
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	components := make(map[string]string)

	for name, err := range h.svc.Health(r.Context()) {
		status = "degraded"
		components[name] = err.Error()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"version":    h.version,
		"components": components,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if failures := h.svc.Health(r.Context()); len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"ready": "false",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// readClaim decodes a size-limited claim body.
func readClaim(r *http.Request) (*domain.ClaimRecord, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxClaimBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", domain.ErrInvalidClaim, err)
	}
	if len(data) > MaxClaimBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", domain.ErrInvalidClaim, MaxClaimBytes)
	}
	return domain.ParseClaim(data)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	// Extraction errors may also wrap ErrInvalidClaim; the upstream failure wins.
	switch {
	case errors.Is(err, extract.ErrExtractionFailed):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrInvalidClaim):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
