// Package engineadmin serves the operator HTTP API.
package engineadmin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/farraranalytics/MBB-Survivor-sub001/app/clock"
	bracketservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/application"
	engineservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/application"
	survivorservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/survivor/application"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handlers serves the /admin routes.
type Handlers struct {
	engine engineservice.Service
	logger *slog.Logger
}

func NewHandlers(engine engineservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{engine: engine, logger: logger}
}

type finalizeRequest struct {
	WinnerID   uuid.UUID `json:"winner_id"`
	Team1Score *int      `json:"team1_score"`
	Team2Score *int      `json:"team2_score"`
}

type finalizeResponse struct {
	GameID            uuid.UUID   `json:"game_id"`
	RoundID           uuid.UUID   `json:"round_id"`
	WinnerID          uuid.UUID   `json:"winner_id"`
	LoserID           uuid.UUID   `json:"loser_id"`
	Replayed          bool        `json:"replayed"`
	Propagated        bool        `json:"propagated"`
	RoundComplete     bool        `json:"round_complete"`
	EntriesEliminated []uuid.UUID `json:"entries_eliminated"`
	MissedPicks       []uuid.UUID `json:"missed_picks,omitempty"`
	NoPicksLeft       []uuid.UUID `json:"no_picks_left,omitempty"`
	PoolsResolved     int         `json:"pools_resolved"`
}

type clockRequest struct {
	At string `json:"at"`
}

type rewindRequest struct {
	RoundID string `json:"round_id"`
}

func (h *Handlers) FinalizeGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}
	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.WinnerID == uuid.Nil {
		http.Error(w, "winner_id is required", http.StatusBadRequest)
		return
	}
	var scores *engineservice.Scores
	switch {
	case req.Team1Score != nil && req.Team2Score != nil:
		scores = &engineservice.Scores{Team1: *req.Team1Score, Team2: *req.Team2Score}
	case req.Team1Score != nil || req.Team2Score != nil:
		http.Error(w, "team1_score and team2_score go together", http.StatusBadRequest)
		return
	}

	res, err := h.engine.FinalizeGame(r.Context(), gameID, req.WinnerID, scores)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, finalizeResponse{
		GameID:            res.GameID,
		RoundID:           res.RoundID,
		WinnerID:          res.WinnerID,
		LoserID:           res.LoserID,
		Replayed:          res.Replayed,
		Propagated:        res.Propagated,
		RoundComplete:     res.RoundComplete,
		EntriesEliminated: nonNil(res.Grade.EntriesEliminated),
		MissedPicks:       res.MissedPicks.Eliminated,
		NoPicksLeft:       res.NoPicksLeft.Eliminated,
		PoolsResolved:     len(res.Champions.Pools),
	})
}

func (h *Handlers) SetClock(w http.ResponseWriter, r *http.Request) {
	var req clockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	at, err := clock.ParseInstant(req.At, time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.engine.SetSimulatedClock(r.Context(), &at); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"simulated": true, "at": at})
}

func (h *Handlers) ClearClock(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.SetSimulatedClock(r.Context(), nil); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"simulated": false})
}

func (h *Handlers) Rewind(w http.ResponseWriter, r *http.Request) {
	var req rewindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.RoundID == "" {
		http.Error(w, "round_id is required", http.StatusBadRequest)
		return
	}
	summary, err := h.engine.RewindRound(r.Context(), req.RoundID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handlers) StartTournament(w http.ResponseWriter, r *http.Request) {
	n, err := h.engine.StartTournament(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int{"pools_activated": n})
}

func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.Status(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", slog.Any("error", err))
	}
}

// writeError maps engine errors to status codes.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Admin request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, bracketservice.ErrGameNotFound),
		errors.Is(err, bracketservice.ErrRoundNotFound),
		errors.Is(err, survivorservice.ErrPoolNotFound):
		return http.StatusNotFound
	case errors.Is(err, engineservice.ErrWinnerNotInGame),
		errors.Is(err, engineservice.ErrInvalidScope),
		errors.Is(err, bracketservice.ErrInvalidBracket):
		return http.StatusBadRequest
	case errors.Is(err, engineservice.ErrWinnerConflict),
		errors.Is(err, engineservice.ErrGameNotReady),
		errors.Is(err, clock.ErrSimulationDisabled):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func nonNil(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
