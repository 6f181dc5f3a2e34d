package review

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/opensource-finance/claimguard/internal/domain"
)

func TestNew(t *testing.T) {
	if r, err := New(domain.ProviderConfig{}); err != nil || r != nil {
		t.Errorf("expected nil reviewer, got %v, %v", r, err)
	}
	if r, err := New(domain.ProviderConfig{Provider: "MOCK"}); err != nil || r.Name() != "mock" {
		t.Errorf("expected mock reviewer, got %v, %v", r, err)
	}
	if _, err := New(domain.ProviderConfig{Provider: "openai"}); err == nil {
		t.Error("expected error without API key")
	}
	if _, err := New(domain.ProviderConfig{Provider: "bard"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestMockReviewer(t *testing.T) {
	verdicts, err := NewMockReviewer().ReviewNecessity(context.Background(), "Viral Fever", []string{"Dolo-650", "MRI Brain"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(verdicts) != 2 {
		t.Fatalf("expected 2 verdicts, got %d", len(verdicts))
	}
	for name, v := range verdicts {
		if v.Status != domain.NecessityPass || v.Reason != MockReason {
			t.Errorf("%s: expected mock approval, got %+v", name, v)
		}
	}
}

func TestMerge(t *testing.T) {
	result := &domain.AdjudicationResult{
		LineItemDecisions: []domain.LineItemDecision{
			{ItemName: "Dolo-650", Status: domain.ItemApproved, ApprovedAmount: 61},
			{ItemName: "MRI Brain", Status: domain.ItemApproved, ApprovedAmount: 8000},
			{ItemName: "Cough Syrup", Status: domain.ItemApproved, ApprovedAmount: 95},
		},
	}

	Merge(result, map[string]domain.NecessityVerdict{
		"Dolo-650":  {Status: domain.NecessityPass, Reason: "Antipyretic for fever"},
		"MRI Brain": {Status: domain.NecessityFlag, Reason: "Unrelated to fever"},
		"mri brain": {Status: domain.NecessityPass, Reason: "wrong case never matches"},
	})

	if result.LineItemDecisions[0].Necessity == nil || result.LineItemDecisions[0].Necessity.Status != domain.NecessityPass {
		t.Errorf("expected PASS on Dolo-650, got %+v", result.LineItemDecisions[0].Necessity)
	}
	if result.LineItemDecisions[1].Necessity.Status != domain.NecessityFlag {
		t.Errorf("expected FLAG on MRI, got %+v", result.LineItemDecisions[1].Necessity)
	}
	if result.LineItemDecisions[2].Necessity != nil {
		t.Errorf("expected no verdict for Cough Syrup, got %+v", result.LineItemDecisions[2].Necessity)
	}
	if result.LineItemDecisions[1].ApprovedAmount != 8000 {
		t.Errorf("merge changed approved amount: %.2f", result.LineItemDecisions[1].ApprovedAmount)
	}

	flagged := Flagged(result)
	if len(flagged) != 1 || flagged[0] != "MRI Brain" {
		t.Errorf("unexpected flagged items %v", flagged)
	}
}

func newJudgeServer(t *testing.T, reply string, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)

		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONObject {
			t.Errorf("expected JSON object response format, got %+v", req.ResponseFormat)
		}

		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: "assistant", Content: reply}},
			},
		})
	}))
}

func TestOpenAIReviewer(t *testing.T) {
	var calls int32
	server := newJudgeServer(t, `{
		"Dolo-650": {"status": "pass", "reason": "Antipyretic"},
		"Ibuprofen": {"status": "CONTRAINDICATED", "reason": "Bleeding risk in dengue", "severity": "high"},
		"Face Cream": {"status": "maybe", "reason": "Unclear"}
	}`, &calls)
	defer server.Close()

	reviewer, err := NewOpenAIReviewer(domain.ProviderConfig{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("failed to create reviewer: %v", err)
	}

	verdicts, err := reviewer.ReviewNecessity(context.Background(), "Dengue", []string{"Dolo-650", "Ibuprofen", "Face Cream"})
	if err != nil {
		t.Fatalf("ReviewNecessity failed: %v", err)
	}

	if verdicts["Dolo-650"].Status != domain.NecessityPass {
		t.Errorf("expected normalized PASS, got %s", verdicts["Dolo-650"].Status)
	}
	if v := verdicts["Ibuprofen"]; v.Status != domain.NecessityContraindicated || v.Severity != "HIGH" {
		t.Errorf("expected CONTRAINDICATED/HIGH, got %+v", v)
	}
	if verdicts["Face Cream"].Status != domain.NecessityFlag {
		t.Errorf("expected unknown status to become FLAG, got %s", verdicts["Face Cream"].Status)
	}
}

func TestOpenAIReviewerFallbacks(t *testing.T) {
	t.Run("UnknownDiagnosisSkipsModel", func(t *testing.T) {
		var calls int32
		server := newJudgeServer(t, `{}`, &calls)
		defer server.Close()

		reviewer, _ := NewOpenAIReviewer(domain.ProviderConfig{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
		verdicts, err := reviewer.ReviewNecessity(context.Background(), "Unknown", []string{"Dolo-650"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if verdicts["Dolo-650"].Reason != MockReason {
			t.Errorf("expected mock verdict, got %+v", verdicts["Dolo-650"])
		}
		if atomic.LoadInt32(&calls) != 0 {
			t.Errorf("model should not be called for unknown diagnosis")
		}
	})

	t.Run("UnreadableReply", func(t *testing.T) {
		var calls int32
		server := newJudgeServer(t, `not json`, &calls)
		defer server.Close()

		reviewer, _ := NewOpenAIReviewer(domain.ProviderConfig{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
		verdicts, err := reviewer.ReviewNecessity(context.Background(), "Viral Fever", []string{"Dolo-650"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if verdicts["Dolo-650"].Status != domain.NecessityPass || verdicts["Dolo-650"].Reason != MockReason {
			t.Errorf("expected mock fallback, got %+v", verdicts["Dolo-650"])
		}
	})
}
