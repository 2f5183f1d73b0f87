package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/khelzone/arena-backend/middleware"
	"github.com/khelzone/arena-backend/services"
	"github.com/khelzone/arena-backend/storage"
)

const maxProofUploadBytes = 10 << 20 // 10MB

type MatchHandler struct {
	resultService services.ResultService
	uploader      storage.FileUploader
}

func NewMatchHandler(rs services.ResultService, uploader storage.FileUploader) *MatchHandler {
	return &MatchHandler{
		resultService: rs,
		uploader:      uploader,
	}
}

type submitResultRequest struct {
	WinnerID int     `json:"winner_id"`
	Score    *string `json:"score,omitempty"`
	ProofKey *string `json:"proof_key,omitempty"`
}

// SubmitResultHandler обрабатывает POST /matches/{matchID}/result
func (h *MatchHandler) SubmitResultHandler(w http.ResponseWriter, r *http.Request) {
	reporterID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to submit match result")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req submitResultRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.WinnerID < 1 {
		badRequestResponse(w, r, errors.New("winner_id must be a positive user id"))
		return
	}

	match, err := h.resultService.SubmitResult(r.Context(), matchID, reporterID, services.SubmitResultInput{
		WinnerID: req.WinnerID,
		Score:    req.Score,
		ProofKey: req.ProofKey,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	env := jsonResponse{
		"success": true,
		"message": "match result recorded",
		"match":   match,
	}
	if err := writeJSON(w, http.StatusOK, env, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StartHandler обрабатывает POST /matches/{matchID}/start
func (h *MatchHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.resultService.StartMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadProofHandler обрабатывает POST /matches/{matchID}/proof.
// Принимает multipart-файл, кладёт его в объектное хранилище и возвращает
// ключ, который затем передаётся в submitResultRequest.ProofKey.
func (h *MatchHandler) UploadProofHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.GetUserIDFromContext(r.Context()); err != nil {
		unauthorizedResponse(w, r, "authentication required to upload proof")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxProofUploadBytes)
	if err := r.ParseMultipartForm(maxProofUploadBytes); err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("proof")
	if err != nil {
		badRequestResponse(w, r, errors.New("multipart form must contain a 'proof' file"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		badRequestResponse(w, r, errors.New("proof must be an image"))
		return
	}

	key := fmt.Sprintf("matches/%d/proofs/%s%s", matchID, uuid.NewString(), filepath.Ext(header.Filename))
	result, err := h.uploader.Upload(r.Context(), key, contentType, file)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	env := jsonResponse{
		"proof_key": result.Key,
		"url":       result.Location,
	}
	if err := writeJSON(w, http.StatusCreated, env, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
