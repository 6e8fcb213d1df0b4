package responses

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	pkgerrors "github.com/plutocart/user-service/pkg/errors"
	"github.com/plutocart/user-service/pkg/logger"
	"github.com/plutocart/user-service/pkg/types"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return body.Error
}

func TestWriteSuccessStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusCreated {
		t.Fatalf("expected status 201 but got %d", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	Now = func() time.Time { return fixed }
	t.Cleanup(func() { Now = func() time.Time { return time.Now().UTC() } })

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/users/register", nil)
	err := pkgerrors.New(pkgerrors.CodeValidation, "Validation Failed").
		WithDetails(map[string]string{"email": "must be a valid email"})
	WriteError(w, r, nil, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	body := decodeError(t, w)
	if body.Status != http.StatusBadRequest || body.Error != "Bad Request" {
		t.Fatalf("unexpected status fields %d %q", body.Status, body.Error)
	}
	if body.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", body.Code)
	}
	if body.Message != "Validation Failed" {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if body.Path != "/api/users/register" {
		t.Fatalf("unexpected path %q", body.Path)
	}
	if !body.Timestamp.Equal(fixed) {
		t.Fatalf("unexpected timestamp %s", body.Timestamp)
	}
	details, ok := body.Details.(map[string]any)
	if !ok || details["email"] != "must be a valid email" {
		t.Fatalf("expected field details, got %v", body.Details)
	}
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		code   pkgerrors.Code
		status int
	}{
		{pkgerrors.CodeUserAlreadyExists, http.StatusBadRequest},
		{pkgerrors.CodeConflict, http.StatusConflict},
		{pkgerrors.CodeInvalidCredentials, http.StatusUnauthorized},
		{pkgerrors.CodeInvalidToken, http.StatusUnauthorized},
		{pkgerrors.CodeNotFound, http.StatusNotFound},
		{pkgerrors.CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil, pkgerrors.New(tc.code, "msg"))
		if w.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.code, tc.status, w.Code)
		}
	}
}

func TestWriteErrorExposesDomainMessages(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeUserAlreadyExists, "User with Email a@x.com already exists")
	WriteError(w, httptest.NewRequest(http.MethodPost, "/api/users/register", nil), nil, err)

	if body := decodeError(t, w); body.Message != "User with Email a@x.com already exists" {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	var logs bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &logs})

	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodGet, "/api/users/me", nil), logg, errors.New("pq: connection refused"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	body := decodeError(t, w)
	if body.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", body.Code)
	}
	if body.Message != "An unexpected error occurred" {
		t.Fatalf("internal message leaked: %q", body.Message)
	}
	if body.Details != nil {
		t.Fatalf("details should be omitted for internal errors")
	}
	if !strings.Contains(logs.String(), "pq: connection refused") {
		t.Fatalf("expected error chain in logs, got %s", logs.String())
	}
}
