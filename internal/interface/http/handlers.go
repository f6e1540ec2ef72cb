package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lifequest/lifequest-core/internal/application/command"
	"github.com/lifequest/lifequest-core/internal/application/query"
	"github.com/lifequest/lifequest-core/internal/domain/progress"
	"github.com/lifequest/lifequest-core/internal/domain/reward"
	"github.com/lifequest/lifequest-core/internal/domain/tasklog"
	"github.com/lifequest/lifequest-core/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"name":    "lifequest-core",
		"version": "v1",
		"endpoints": map[string]string{
			"health":        "/health",
			"task_logs":     "POST /api/v1/task-logs",
			"level":         "GET /api/v1/users/{userID}/level",
			"task_progress": "GET /api/v1/users/{userID}/tasks/{taskID}/progress",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, r, http.StatusOK, map[string]any{
			"healthy": true,
			"uptime":  s.Uptime().Round(time.Second).String(),
		})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		if status := s.deps.HealthChecker.Check(r.Context()); !status.Ready {
			writeJSONErrorWithDetails(w, r, http.StatusServiceUnavailable, "not_ready", "Service is not ready", status.Message)
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// TASK LOG HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type submitTaskLogRequest struct {
	UserID     uuid.UUID        `json:"user_id"`
	UserTaskID *uuid.UUID       `json:"user_task_id"`
	CategoryID *int64           `json:"category_id"`
	OccurredAt *string          `json:"occurred_at"`
	Quantity   *decimal.Decimal `json:"quantity"`
	Unit       *string          `json:"unit"`
	Notes      *string          `json:"notes"`
	Source     string           `json:"source"`
}

// command converts the request. occurred_at may omit the offset, in which
// case it is read as reference-zone time.
func (req submitTaskLogRequest) command(correlationID string) (command.SubmitTaskLogCommand, error) {
	var occurredAt *time.Time
	if req.OccurredAt != nil {
		at, err := timeutil.ParseInstant(*req.OccurredAt)
		if err != nil {
			return command.SubmitTaskLogCommand{}, err
		}
		occurredAt = &at
	}
	return command.SubmitTaskLogCommand{
		UserID:        req.UserID,
		TaskID:        req.UserTaskID,
		CategoryID:    req.CategoryID,
		OccurredAt:    occurredAt,
		Quantity:      req.Quantity,
		Unit:          req.Unit,
		Notes:         req.Notes,
		Source:        tasklog.Source(strings.TrimSpace(req.Source)),
		CorrelationID: correlationID,
	}, nil
}

type rewardDTO struct {
	ID          uuid.UUID   `json:"id"`
	Key         string      `json:"key"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Kind        reward.Kind `json:"kind"`
	ItemKey     string      `json:"item_key,omitempty"`
}

type levelChangeDTO struct {
	*query.LevelView
	LeveledUp bool `json:"leveled_up"`
	FromLevel int  `json:"from_level"`
}

type streakDTO struct {
	CategoryID   int64      `json:"category_id"`
	Current      int        `json:"current"`
	Best         int        `json:"best"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
	Outcome      string     `json:"outcome"`
}

type snapshotDTO struct {
	CategoryID  int64               `json:"category_id"`
	Period      timeutil.PeriodKind `json:"period"`
	PeriodStart string              `json:"period_start"`
	Points      int64               `json:"points"`
	XP          int64               `json:"xp"`
}

type taskLogResponse struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	UserTaskID      *uuid.UUID       `json:"user_task_id"`
	CategoryID      int64            `json:"category_id"`
	OccurredAt      time.Time        `json:"occurred_at"`
	Quantity        *decimal.Decimal `json:"quantity"`
	Unit            *string          `json:"unit"`
	Notes           *string          `json:"notes"`
	XPAwarded       int64            `json:"xp_awarded"`
	PointsAwarded   int64            `json:"points_awarded"`
	Source          tasklog.Source   `json:"source"`
	UnlockedRewards []rewardDTO      `json:"unlocked_rewards"`
	Level           levelChangeDTO   `json:"level"`
	Streak          streakDTO        `json:"streak"`
	Snapshots       []snapshotDTO    `json:"snapshots"`
}

func newTaskLogResponse(res *command.SubmitTaskLogResult) taskLogResponse {
	e := res.Event
	out := taskLogResponse{
		ID:              e.ID,
		UserID:          e.UserID,
		UserTaskID:      e.TaskID,
		CategoryID:      e.CategoryID,
		OccurredAt:      e.OccurredAt,
		Quantity:        e.Quantity,
		Unit:            e.Unit,
		Notes:           e.Notes,
		XPAwarded:       e.XPAwarded,
		PointsAwarded:   e.PointsAwarded,
		Source:          e.Source,
		UnlockedRewards: make([]rewardDTO, 0, len(res.Rewards)),
		Level: levelChangeDTO{
			LevelView: query.NewLevelView(&res.Level),
			LeveledUp: res.LevelChange.LeveledUp(),
			FromLevel: res.LevelChange.FromLevel,
		},
		Streak:    newStreakDTO(res.Streak, res.StreakOutcome),
		Snapshots: make([]snapshotDTO, 0, len(res.Snapshots)),
	}
	for _, d := range res.Rewards {
		out.UnlockedRewards = append(out.UnlockedRewards, rewardDTO{
			ID:          d.ID,
			Key:         d.Key,
			Name:        d.Name,
			Description: d.Description,
			Kind:        d.Kind,
			ItemKey:     d.ItemKey,
		})
	}
	for _, snap := range res.Snapshots {
		out.Snapshots = append(out.Snapshots, snapshotDTO{
			CategoryID:  snap.CategoryID,
			Period:      snap.Period,
			PeriodStart: snap.PeriodStart.Format(time.DateOnly),
			Points:      snap.Points,
			XP:          snap.XP,
		})
	}
	return out
}

func newStreakDTO(s progress.Streak, outcome progress.StreakOutcome) streakDTO {
	return streakDTO{
		CategoryID:   s.CategoryID,
		Current:      s.Current,
		Best:         s.Best,
		LastActivity: s.LastActivity,
		Outcome:      outcome.String(),
	}
}

// handleSubmitTaskLog handles POST /api/v1/task-logs.
func (s *Server) handleSubmitTaskLog(w http.ResponseWriter, r *http.Request) {
	if s.deps.SubmitTaskLog == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Task log handler not configured")
		return
	}

	var req submitTaskLogRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "invalid_request", "Request body is not valid JSON", err.Error())
		return
	}

	cmd, err := req.command(requestID(r))
	if err != nil {
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "invalid_request", "Field 'occurred_at' is not a valid timestamp", err.Error())
		return
	}

	res, err := s.deps.SubmitTaskLog.Handle(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, newTaskLogResponse(res))
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetUserLevel handles GET /api/v1/users/{userID}/level.
func (s *Server) handleGetUserLevel(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetUserLevel == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Level handler not configured")
		return
	}

	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}

	view, err := s.deps.GetUserLevel.Handle(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

// handleGetTaskProgress handles GET /api/v1/users/{userID}/tasks/{taskID}/progress.
// The optional "at" query parameter is an RFC 3339 instant; without an
// offset it is read as reference-zone time.
func (s *Server) handleGetTaskProgress(w http.ResponseWriter, r *http.Request) {
	if s.deps.GetTaskProgress == nil {
		writeJSONError(w, r, http.StatusNotImplemented, "not_implemented", "Progress handler not configured")
		return
	}

	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}
	taskID, ok := uuidParam(w, r, "taskID")
	if !ok {
		return
	}

	q := query.GetTaskProgressQuery{UserID: userID, TaskID: taskID}
	if raw := r.URL.Query().Get("at"); raw != "" {
		at, err := timeutil.ParseInstant(raw)
		if err != nil {
			writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "invalid_request", "Parameter 'at' must be an RFC 3339 timestamp", err.Error())
			return
		}
		q.At = &at
	}

	res, err := s.deps.GetTaskProgress.Handle(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "invalid_id", "Parameter '"+name+"' must be a UUID", err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
