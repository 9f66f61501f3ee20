package envelope

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	OK(rec, req, map[string]any{"value": 1})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !body.Success {
		t.Error("expected success=true")
	}
	if body.Message != "" {
		t.Errorf("expected no message, got %q", body.Message)
	}
}

func TestError_NeverCarriesData(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	Error(rec, req, http.StatusInternalServerError, "Error fetching float data")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var raw map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if raw["success"] != false {
		t.Error("expected success=false")
	}
	if raw["message"] != "Error fetching float data" {
		t.Errorf("unexpected message %v", raw["message"])
	}
	if _, ok := raw["data"]; ok {
		t.Error("failure envelope must not carry data")
	}
}
