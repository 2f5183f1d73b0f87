package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/khelzone/arena-backend/services"
)

type failureEnvelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

func decodeFailure(t *testing.T, rec *httptest.ResponseRecorder) failureEnvelope {
	t.Helper()
	var env failureEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if env.Success == nil {
		t.Fatal("response body has no success field")
	}
	return env
}

// Ожидаемые бизнес-отказы отдаются конвертом {"success": false, "message"}
// с текстом сервисной ошибки.
func TestBusinessFailureEnvelope(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"tournament full", services.ErrTournamentFull, http.StatusConflict},
		{"already joined", services.ErrAlreadyJoined, http.StatusConflict},
		{"not in progress", services.ErrTournamentNotInProgress, http.StatusUnprocessableEntity},
		{"reporter not participant", services.ErrReporterNotParticipant, http.StatusForbidden},
		{"invalid prize table", services.ErrPrizeTableExceedsPool, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/tournaments/1/join", nil)

			mapServiceErrorToHTTP(rec, req, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			env := decodeFailure(t, rec)
			if *env.Success {
				t.Error("success = true, want false")
			}
			if env.Message != tt.err.Error() {
				t.Errorf("message = %q, want %q", env.Message, tt.err.Error())
			}
		})
	}
}

// Неожиданные ошибки не протекают в ответ: клиент видит общий текст.
func TestUnexpectedErrorIsOpaque(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tournaments/1/join", nil)

	mapServiceErrorToHTTP(rec, req, errors.New("pq: connection reset by peer"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	env := decodeFailure(t, rec)
	if *env.Success {
		t.Error("success = true, want false")
	}
	if strings.Contains(env.Message, "pq:") {
		t.Errorf("message leaks internal error text: %q", env.Message)
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tournaments/9999", nil)

	mapServiceErrorToHTTP(rec, req, services.ErrTournamentNotFound)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	env := decodeFailure(t, rec)
	if *env.Success {
		t.Error("success = true, want false")
	}
	if env.Message == "" {
		t.Error("message is empty")
	}
}
