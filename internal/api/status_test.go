package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/heartlinehq/heartline/internal/session"
	"github.com/heartlinehq/heartline/internal/store"
)

type fakePingRepo struct {
	store.Repository
	err error
}

func (f *fakePingRepo) Ping(context.Context) error { return f.err }

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

func getStatus(t *testing.T, repoErr error, cache Pinger) (int, map[string]interface{}) {
	t.Helper()
	repo := &fakePingRepo{err: repoErr}
	sessions := session.New(nil, repo, time.Hour, time.Hour)
	h := NewStatusHandler(NewHandler(repo, sessions), cache)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return rec.Code, body
}

func checksFrom(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	checks, ok := body["checks"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected checks object, got %v", body["checks"])
	}
	return checks
}

func TestStatusHealthy(t *testing.T) {
	code, body := getStatus(t, nil, &fakePinger{})

	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", body["status"])
	}
	checks := checksFrom(t, body)
	if checks["database"] != "ok" || checks["cache"] != "ok" {
		t.Errorf("Expected all checks ok, got %v", checks)
	}
}

func TestStatusDatabaseDown(t *testing.T) {
	code, body := getStatus(t, errors.New("disk gone"), &fakePinger{})

	if code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", code)
	}
	if body["status"] != "unavailable" {
		t.Errorf("Expected unavailable, got %v", body["status"])
	}
	if checksFrom(t, body)["database"] != "unreachable" {
		t.Errorf("Expected database unreachable, got %v", body["checks"])
	}
}

func TestStatusCacheDisabled(t *testing.T) {
	code, body := getStatus(t, nil, nil)

	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", body["status"])
	}
	if checksFrom(t, body)["cache"] != "disabled" {
		t.Errorf("Expected cache disabled, got %v", body["checks"])
	}
}

func TestStatusCacheDownIsDegradedNotFatal(t *testing.T) {
	code, body := getStatus(t, nil, &fakePinger{err: errors.New("connection refused")})

	if code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if body["status"] != "degraded" {
		t.Errorf("Expected degraded, got %v", body["status"])
	}
	if checksFrom(t, body)["cache"] != "unreachable" {
		t.Errorf("Expected cache unreachable, got %v", body["checks"])
	}
}
