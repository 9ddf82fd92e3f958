package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/rocketscienceinc/tictactoe-wager/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-wager/internal/entity"
	"github.com/rocketscienceinc/tictactoe-wager/internal/usecase"
)

// playerHeader - identity of the caller. Authentication happens in front of this service.
const playerHeader = "X-Player-ID"

var (
	errBadRequestBody = errors.New("malformed request body")
	errBadGameID      = errors.New("malformed game id")
	errBadLimit       = errors.New("malformed limit")
)

type gameEngine interface {
	Create(ctx context.Context, creator string, stake uint64, index int, mark entity.Cell) (uint64, error)
	Join(ctx context.Context, id uint64, joiner string, index int, mark entity.Cell) error
	Play(ctx context.Context, id uint64, mover string, index int, mark entity.Cell) error

	GetGame(ctx context.Context, id uint64) (entity.GameView, bool, error)
	GetEscrow(ctx context.Context, id uint64) (*entity.Escrow, error)
	GetPlayerStats(ctx context.Context, player string) (entity.PlayerStats, error)
	GetLatestGameID(ctx context.Context) (uint64, error)
}

type leaderboard interface {
	Top(ctx context.Context, limit int) ([]usecase.LeaderboardEntry, error)
}

type CreateGameRequest struct {
	Stake uint64      `json:"stake"`
	Index int         `json:"index"`
	Mark  entity.Cell `json:"mark"`
}

type MoveRequest struct {
	Index int         `json:"index"`
	Mark  entity.Cell `json:"mark"`
}

type CreateGameResponse struct {
	GameID uint64 `json:"game_id"`
}

type LatestGameResponse struct {
	LatestGameID uint64 `json:"latest_game_id"`
}

type PlayerStatsResponse struct {
	Player string `json:"player"`
	entity.PlayerStats
	WinRate  float64 `json:"win_rate"`
	NetValue int64   `json:"net_value"`
}

type Handlers struct {
	logger      *slog.Logger
	engine      gameEngine
	leaderboard leaderboard
}

func NewHandlers(logger *slog.Logger, engine gameEngine, leaderboard leaderboard) *Handlers {
	return &Handlers{
		logger:      logger.With("component", "rest"),
		engine:      engine,
		leaderboard: leaderboard,
	}
}

func (that *Handlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, errBadRequestBody)
		return
	}

	id, err := that.engine.Create(r.Context(), r.Header.Get(playerHeader), req.Stake, req.Index, req.Mark)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, CreateGameResponse{GameID: id})
}

func (that *Handlers) JoinGame(w http.ResponseWriter, r *http.Request) {
	that.move(w, r, that.engine.Join)
}

func (that *Handlers) PlayGame(w http.ResponseWriter, r *http.Request) {
	that.move(w, r, that.engine.Play)
}

type moveFunc func(ctx context.Context, id uint64, player string, index int, mark entity.Cell) error

func (that *Handlers) move(w http.ResponseWriter, r *http.Request, apply moveFunc) {
	id, err := gameID(r)
	if err != nil {
		that.writeError(w, err)
		return
	}

	var req MoveRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeError(w, errBadRequestBody)
		return
	}

	if err = apply(r.Context(), id, r.Header.Get(playerHeader), req.Index, req.Mark); err != nil {
		that.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *Handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		that.writeError(w, err)
		return
	}

	view, ok, err := that.engine.GetGame(r.Context(), id)
	if err != nil {
		that.writeError(w, err)
		return
	}

	if !ok {
		that.writeError(w, apperror.ErrGameNotFound)
		return
	}

	that.writeJSON(w, http.StatusOK, view)
}

func (that *Handlers) GetEscrow(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		that.writeError(w, err)
		return
	}

	escrow, err := that.engine.GetEscrow(r.Context(), id)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, escrow)
}

func (that *Handlers) GetLatestGameID(w http.ResponseWriter, r *http.Request) {
	latest, err := that.engine.GetLatestGameID(r.Context())
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, LatestGameResponse{LatestGameID: latest})
}

func (that *Handlers) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	player := chi.URLParam(r, "player")

	stats, err := that.engine.GetPlayerStats(r.Context(), player)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, PlayerStatsResponse{
		Player:      player,
		PlayerStats: stats,
		WinRate:     stats.WinRate(),
		NetValue:    stats.NetValue(),
	})
}

func (that *Handlers) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			that.writeError(w, errBadLimit)
			return
		}
		limit = parsed
	}

	entries, err := that.leaderboard.Top(r.Context(), limit)
	if err != nil {
		that.writeError(w, err)
		return
	}

	if entries == nil {
		entries = []usecase.LeaderboardEntry{}
	}

	that.writeJSON(w, http.StatusOK, entries)
}

func gameID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errBadGameID
	}

	return id, nil
}

func (that *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
