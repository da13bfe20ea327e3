package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"brainbolt-service/internal/app"
	"brainbolt-service/internal/domain"
)

// Handler exposes the quiz use cases over plain JSON endpoints.
type Handler struct {
	service *app.QuizService
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service}
}

// Register wires all routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/quiz/next", h.NextQuestion)
	mux.HandleFunc("/v1/quiz/answer", h.SubmitAnswer)
	mux.HandleFunc("/v1/quiz/metrics", h.Metrics)
	mux.HandleFunc("/v1/leaderboard/score", h.LeaderboardScore)
	mux.HandleFunc("/v1/leaderboard/streak", h.LeaderboardStreak)
}

func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	next, err := h.service.NextQuestion(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, next)
}

type answerRequest struct {
	UserID         string  `json:"userId"`
	QuestionID     string  `json:"questionId"`
	SelectedAnswer *string `json:"selectedAnswer"`
	StateVersion   *int64  `json:"stateVersion"`
	IdempotencyKey string  `json:"answerIdempotencyKey"`
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if req.UserID == "" || req.QuestionID == "" || req.SelectedAnswer == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: domain.ErrMissingFields.Error()})
		return
	}

	result, err := h.service.SubmitAnswer(r.Context(), domain.Submission{
		UserID:         req.UserID,
		QuestionID:     req.QuestionID,
		SelectedAnswer: *req.SelectedAnswer,
		StateVersion:   req.StateVersion,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	metrics, err := h.service.Metrics(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metrics)
}

func (h *Handler) LeaderboardScore(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.TopByScore(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *Handler) LeaderboardStreak(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.TopByStreak(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrMissingFields):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateSubmission), errors.Is(err, domain.ErrVersionMismatch):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrQuestionNotFound):
		status = http.StatusNotFound
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
