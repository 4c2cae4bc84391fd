package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sourav8908/FLEX-QC-APP/internal/config"
	"github.com/sourav8908/FLEX-QC-APP/internal/model"
	"github.com/sourav8908/FLEX-QC-APP/internal/repository"
	"github.com/sourav8908/FLEX-QC-APP/internal/scan"
	"github.com/sourav8908/FLEX-QC-APP/internal/suggest"
	"github.com/sourav8908/FLEX-QC-APP/internal/utils"
	"github.com/sourav8908/FLEX-QC-APP/internal/workflow"
)

// SessionHandler exposes the inspection workflow over HTTP. Every
// endpoint loads the terminal's session, runs one engine transition
// and persists the session back, so the server rather than the client
// owns the workflow state.
type SessionHandler struct {
	Engine   *workflow.Engine
	Sessions repository.SessionStore
	Suggest  *suggest.Client
	Decoder  scan.Decoder // optional camera collaborator; nil disables scanning
	Cfg      config.Config
}

// NewSessionHandler constructs a SessionHandler. Suggest and Decoder
// may be nil; the engine and session store must not be.
func NewSessionHandler(engine *workflow.Engine, sessions repository.SessionStore, sg *suggest.Client, dec scan.Decoder, cfg config.Config) *SessionHandler {
	if engine == nil || sessions == nil {
		panic("nil dependency passed to NewSessionHandler")
	}
	return &SessionHandler{Engine: engine, Sessions: sessions, Suggest: sg, Decoder: dec, Cfg: cfg}
}

// ----- DTOs -----

type stageReq struct {
	Stage model.Stage `json:"stage"`
}
type loginReq struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}
type deviceReq struct {
	DeviceID string `json:"device_id"`
}
type checkpointReq struct {
	Label string `json:"label"`
}

type sessionView struct {
	ID          string                   `json:"id"`
	Step        workflow.Step            `json:"step"`
	Stage       model.Stage              `json:"stage"`
	UserID      string                   `json:"user_id,omitempty"`
	IsAdmin     bool                     `json:"is_admin"`
	DeviceID    string                   `json:"device_id,omitempty"`
	Checkpoints []model.CheckpointResult `json:"checkpoints,omitempty"`
}

func viewOf(s *workflow.Session) sessionView {
	return sessionView{
		ID:          s.ID,
		Step:        s.Step,
		Stage:       s.Stage,
		UserID:      s.UserID,
		IsAdmin:     s.IsAdmin,
		DeviceID:    s.DeviceID,
		Checkpoints: s.Checkpoints,
	}
}

// Create handles POST /v1/sessions. It opens a terminal session at
// stage selection and immediately applies the chosen stage.
func (h *SessionHandler) Create(c echo.Context) error {
	var req stageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	s := workflow.NewSession(time.Now().UTC())
	if err := h.Engine.SelectStage(s, req.Stage); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown stage"})
	}
	ctx, cancel := h.opCtx(c)
	defer cancel()
	if err := h.Sessions.Save(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
	}
	return c.JSON(http.StatusCreated, viewOf(s))
}

// Get handles GET /v1/sessions/:id.
func (h *SessionHandler) Get(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, viewOf(s))
}

// SelectStage handles POST /v1/sessions/:id/stage. Re-selecting a
// stage on a live session skips login when the current identity is
// already authorized for it.
func (h *SessionHandler) SelectStage(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return err
	}
	var req stageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Engine.SelectStage(s, req.Stage); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown stage"})
	}
	return h.save(c, s)
}

// Login handles POST /v1/sessions/:id/login. On success the response
// carries an access token for the admin endpoints when the identity is
// an administrator.
func (h *SessionHandler) Login(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return err
	}
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.UserID == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id/password required"})
	}

	ctx, cancel := h.opCtx(c)
	defer cancel()
	if err := h.Engine.Login(ctx, s, req.UserID, req.Password); err != nil {
		return workflowError(c, err)
	}

	role := utils.RoleOperator
	if s.IsAdmin {
		role = utils.RoleAdmin
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, s.UserID, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	if err := h.Sessions.Save(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session": viewOf(s),
		"access":  echo.Map{"token": access.Token, "expires": access.Exp},
	})
}

// EnterDevice handles POST /v1/sessions/:id/device.
func (h *SessionHandler) EnterDevice(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return err
	}
	var req deviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := h.opCtx(c)
	defer cancel()
	if err := h.Engine.EnterDevice(ctx, s, req.DeviceID); err != nil {
		return workflowError(c, err)
	}
	if err := h.Sessions.Save(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
	}
	return c.JSON(http.StatusOK, viewOf(s))
}

// ScanDevice handles POST /v1/sessions/:id/scan. It polls the camera
// collaborator until a code is decoded or the client aborts the
// request; aborting cancels the poll immediately and leaves the
// session at device entry.
func (h *SessionHandler) ScanDevice(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return err
	}
	if s.Step != workflow.StepDeviceEntry {
		return workflowError(c, workflow.ErrInvalidTransition)
	}
	if h.Decoder == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "scanner not available"})
	}

	deviceID, err := scan.Scan(c.Request().Context(), h.Decoder, 0)
	if err != nil {
		switch {
		case errors.Is(err, scan.ErrCameraDenied):
			return c.JSON(http.StatusConflict, echo.Map{"error": "camera access denied"})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Client abandoned the scan; nothing to report back to.
			return nil
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan failed"})
		}
	}

	ctx, cancel := h.opCtx(c)
	defer cancel()
	if err := h.Engine.EnterDevice(ctx, s, deviceID); err != nil {
		return workflowError(c, err)
	}
	if err := h.Sessions.Save(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
	}
	return c.JSON(http.StatusOK, viewOf(s))
}

// AddCheckpoint handles POST /v1/sessions/:id/checkpoints.
func (h *SessionHandler) AddCheckpoint(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return err
	}
	var req checkpointReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Label) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "label required"})
	}
	cp, err := h.Engine.AddCheckpoint(s, strings.TrimSpace(req.Label))
	if err != nil {
		return workflowError(c, err)
	}
	if err := h.saveOnly(c, s); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cp)
}

// PatchCheckpoint handles PATCH /v1/sessions/:id/checkpoints/:cpid.
// The body is a partial update; omitted fields stay untouched.
func (h *SessionHandler) PatchCheckpoint(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return err
	}
	var patch workflow.CheckpointPatch
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if patch.Status != nil {
		switch *patch.Status {
		case model.CheckpointPass, model.CheckpointFail, model.CheckpointUnset:
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
	}
	if err := h.Engine.UpdateCheckpoint(s, c.Param("cpid"), patch); err != nil {
		return workflowError(c, err)
	}
	return h.save(c, s)
}

// DeleteCheckpoint handles DELETE /v1/sessions/:id/checkpoints/:cpid.
func (h *SessionHandler) DeleteCheckpoint(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return err
	}
	if err := h.Engine.RemoveCheckpoint(s, c.Param("cpid")); err != nil {
		return workflowError(c, err)
	}
	return h.save(c, s)
}

// SuggestReason handles POST /v1/sessions/:id/checkpoints/:cpid/suggest-reason.
// The suggestion service is best-effort: on any failure the fixed
// fallback sentence is written instead, so the reason field is never
// left empty.
func (h *SessionHandler) SuggestReason(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return err
	}
	if s.Step != workflow.StepChecklist {
		return workflowError(c, workflow.ErrInvalidTransition)
	}
	var label string
	for _, cp := range s.Checkpoints {
		if cp.ID == c.Param("cpid") {
			label = cp.Label
			break
		}
	}
	if label == "" {
		return workflowError(c, workflow.ErrCheckpointNotFound)
	}

	reason := suggest.FallbackReason
	if h.Suggest != nil {
		reason = h.Suggest.Reason(c.Request().Context(), label, string(s.Stage))
	}
	if err := h.Engine.UpdateCheckpoint(s, c.Param("cpid"), workflow.CheckpointPatch{Reason: &reason}); err != nil {
		return workflowError(c, err)
	}
	if err := h.saveOnly(c, s); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"reason": reason})
}

// Submit handles POST /v1/sessions/:id/submit.
func (h *SessionHandler) Submit(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return err
	}
	ctx, cancel := h.opCtx(c)
	defer cancel()
	report, err := h.Engine.Submit(ctx, s)
	if err != nil {
		return workflowError(c, err)
	}
	if err := h.Sessions.Save(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"report_id": report.ID,
		"session":   viewOf(s),
	})
}

// NextDevice handles POST /v1/sessions/:id/next-device.
func (h *SessionHandler) NextDevice(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return err
	}
	if err := h.Engine.NextDevice(s); err != nil {
		return workflowError(c, err)
	}
	return h.save(c, s)
}

// OpenDashboard handles POST /v1/sessions/:id/dashboard, the admin
// console → dashboard step transition. The dashboard data itself is
// served by the admin endpoints.
func (h *SessionHandler) OpenDashboard(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return err
	}
	if err := h.Engine.OpenDashboard(s); err != nil {
		return workflowError(c, err)
	}
	return h.save(c, s)
}

// Logout handles DELETE /v1/sessions/:id. The session returns to
// stage selection with identity and all in-progress data cleared.
func (h *SessionHandler) Logout(c echo.Context) error {
	s, err := h.load(c)
	if err != nil {
		return err
	}
	h.Engine.Logout(s)
	return h.save(c, s)
}

// ----- helpers -----

func (h *SessionHandler) opCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// load resolves the :id path parameter to a stored session. The
// returned error, if any, has already been written to the response.
func (h *SessionHandler) load(c echo.Context) (*workflow.Session, error) {
	ctx, cancel := h.opCtx(c)
	defer cancel()
	s, err := h.Sessions.Get(ctx, c.Param("id"))
	if err != nil {
		return nil, c.JSON(http.StatusInternalServerError, echo.Map{"error": "load session failed"})
	}
	if s == nil {
		return nil, c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	}
	return s, nil
}

func (h *SessionHandler) saveOnly(c echo.Context, s *workflow.Session) error {
	ctx, cancel := h.opCtx(c)
	defer cancel()
	if err := h.Sessions.Save(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save session failed"})
	}
	return nil
}

func (h *SessionHandler) save(c echo.Context, s *workflow.Session) error {
	if err := h.saveOnly(c, s); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, viewOf(s))
}

// workflowError translates engine sentinels into the message shown on
// the operator's current screen.
func workflowError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, workflow.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, workflow.ErrAccountDisabled):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
	case errors.Is(err, workflow.ErrStageMismatch):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not assigned to this stage"})
	case errors.Is(err, workflow.ErrStagePrerequisiteNotMet):
		return c.JSON(http.StatusConflict, echo.Map{"error": "device has not completed FQC"})
	case errors.Is(err, workflow.ErrIncompleteChecklist):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "checklist incomplete"})
	case errors.Is(err, workflow.ErrMissingDeviceID):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "device id required"})
	case errors.Is(err, workflow.ErrCheckpointNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "checkpoint not found"})
	case errors.Is(err, workflow.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": "operation not allowed in current step"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
