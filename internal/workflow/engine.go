package workflow

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/sourav8908/FLEX-QC-APP/internal/model"
	"github.com/sourav8908/FLEX-QC-APP/internal/queue"
	"github.com/sourav8908/FLEX-QC-APP/internal/utils"
)

// UserStore is the slice of the record store the engine needs to
// resolve identities. A missing user is (nil, nil), not an error.
type UserStore interface {
	GetByID(ctx context.Context, userID string) (*model.User, error)
}

// ReportStore persists submitted reports. Reports are append-only;
// Create is the only operation the workflow ever performs.
type ReportStore interface {
	Create(ctx context.Context, report model.QCReport) error
}

// StatusStore reads and writes per-device stage outcomes. A device
// with no prior submissions is (nil, nil).
type StatusStore interface {
	Get(ctx context.Context, deviceID string) (*model.DeviceStatus, error)
	Upsert(ctx context.Context, status model.DeviceStatus) error
}

// Publisher emits a domain event after a report has been durably
// stored. Publishing is best-effort: failures are logged, never
// surfaced to the operator.
type Publisher interface {
	PublishReportSubmitted(ctx context.Context, ev queue.ReportSubmittedEvent) error
}

// Engine executes workflow transitions against a Session. Each method
// validates its transition guard, consults or updates the record
// store, and mutates the session in place; persisting the session
// afterwards is the caller's responsibility.
type Engine struct {
	Users    UserStore
	Reports  ReportStore
	Statuses StatusStore
	Events   Publisher // optional; nil disables event publishing

	now func() time.Time
}

// NewEngine constructs an Engine. Events may be nil; the stores must
// not be.
func NewEngine(users UserStore, reports ReportStore, statuses StatusStore, events Publisher) *Engine {
	if users == nil || reports == nil || statuses == nil {
		panic("nil store passed to NewEngine")
	}
	return &Engine{Users: users, Reports: reports, Statuses: statuses, Events: events, now: time.Now}
}

func (e *Engine) clock() time.Time {
	if e.now != nil {
		return e.now().UTC()
	}
	return time.Now().UTC()
}

// SelectStage records the chosen stage and routes the session to the
// next step. An already-authenticated operator assigned to the chosen
// stage skips login and goes straight to device entry; an
// authenticated admin returns to the console. Any in-progress device
// session is discarded.
func (e *Engine) SelectStage(s *Session, stage model.Stage) error {
	if !model.ValidStage(stage) {
		return ErrStageMismatch
	}
	s.clearDevice()
	s.Stage = stage
	switch {
	case s.authenticated() && s.IsAdmin:
		s.Step = StepAdminConsole
	case s.authenticated() && s.AssignedStage == stage:
		s.Step = StepDeviceEntry
	default:
		s.Step = StepLogin
	}
	s.UpdatedAt = e.clock()
	return nil
}

// Login authenticates the operator and authorizes them for the
// session's selected stage. Admins bypass the stage check and are
// routed to the admin console instead of device entry.
func (e *Engine) Login(ctx context.Context, s *Session, userID, password string) error {
	if s.Step != StepLogin {
		return ErrInvalidTransition
	}
	user, err := e.authenticate(ctx, userID, password)
	if err != nil {
		return err
	}
	if !user.IsAdmin && user.AssignedStage != s.Stage {
		return ErrStageMismatch
	}
	s.UserID = user.UserID
	s.IsAdmin = user.IsAdmin
	s.AssignedStage = user.AssignedStage
	if user.IsAdmin {
		s.Step = StepAdminConsole
	} else {
		s.Step = StepDeviceEntry
	}
	s.UpdatedAt = e.clock()
	return nil
}

// authenticate resolves credentials to a user. The id comparison is
// case-sensitive even when the database collation is not, and the
// password must match exactly. Disabled accounts are rejected after a
// successful match so the caller can distinguish the two failures.
func (e *Engine) authenticate(ctx context.Context, userID, password string) (*model.User, error) {
	user, err := e.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.UserID != userID || !utils.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

// CanEnterStage implements the stage gate: FQC accepts any device,
// Packaging only devices whose FQC outcome is COMPLETED.
func (e *Engine) CanEnterStage(ctx context.Context, deviceID string, stage model.Stage) (bool, error) {
	if stage != model.StagePackaging {
		return true, nil
	}
	status, err := e.Statuses.Get(ctx, deviceID)
	if err != nil {
		return false, err
	}
	return status != nil && status.FQCStatus == model.StageCompleted, nil
}

// EnterDevice binds a device identifier to the session and
// materializes the stage checklist. The gate is checked here, at stage
// entry; a refused device builds no checklist.
func (e *Engine) EnterDevice(ctx context.Context, s *Session, deviceID string) error {
	if s.Step != StepDeviceEntry {
		return ErrInvalidTransition
	}
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return ErrMissingDeviceID
	}
	ok, err := e.CanEnterStage(ctx, deviceID, s.Stage)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStagePrerequisiteNotMet
	}
	s.DeviceID = deviceID
	s.Checkpoints = BuildChecklist(s.Stage)
	s.Step = StepChecklist
	s.UpdatedAt = e.clock()
	return nil
}

// UpdateCheckpoint applies a partial update to one checkpoint.
func (e *Engine) UpdateCheckpoint(s *Session, id string, patch CheckpointPatch) error {
	if s.Step != StepChecklist {
		return ErrInvalidTransition
	}
	updated, err := ApplyPatch(s.Checkpoints, id, patch)
	if err != nil {
		return err
	}
	s.Checkpoints = updated
	s.UpdatedAt = e.clock()
	return nil
}

// AddCheckpoint appends an operator-defined checkpoint to the current
// checklist and returns the created entry.
func (e *Engine) AddCheckpoint(s *Session, label string) (model.CheckpointResult, error) {
	if s.Step != StepChecklist {
		return model.CheckpointResult{}, ErrInvalidTransition
	}
	updated, cp := AddCheckpoint(s.Checkpoints, label)
	s.Checkpoints = updated
	s.UpdatedAt = e.clock()
	return cp, nil
}

// RemoveCheckpoint drops a checkpoint from the current checklist.
func (e *Engine) RemoveCheckpoint(s *Session, id string) error {
	if s.Step != StepChecklist {
		return ErrInvalidTransition
	}
	updated, err := RemoveCheckpoint(s.Checkpoints, id)
	if err != nil {
		return err
	}
	s.Checkpoints = updated
	s.UpdatedAt = e.clock()
	return nil
}

// Submit validates the checklist, persists the report, reconciles the
// device status and publishes the submission event, in that order.
// Validation failure writes nothing. The report and status writes are
// each single-record operations, so there is nothing to roll back if
// the process dies between them.
func (e *Engine) Submit(ctx context.Context, s *Session) (*model.QCReport, error) {
	if s.Step != StepChecklist {
		return nil, ErrInvalidTransition
	}
	if !CanSubmit(s.Checkpoints) {
		return nil, ErrIncompleteChecklist
	}

	now := e.clock()
	report := model.QCReport{
		ID:          model.NewReportID(now),
		Timestamp:   now,
		Stage:       s.Stage,
		UserID:      s.UserID,
		DeviceID:    s.DeviceID,
		Checkpoints: append([]model.CheckpointResult(nil), s.Checkpoints...),
	}
	if err := e.Reports.Create(ctx, report); err != nil {
		return nil, err
	}

	failed := AnyFailed(report.Checkpoints)
	if err := e.recordOutcome(ctx, s.DeviceID, s.Stage, failed, now); err != nil {
		return nil, err
	}

	if e.Events != nil {
		ev := queue.NewReportSubmittedEvent(report, failed)
		if err := e.Events.PublishReportSubmitted(ctx, ev); err != nil {
			log.Printf("workflow: publish report.submitted failed: %v", err)
		}
	}

	s.Step = StepSuccess
	s.UpdatedAt = now
	return &report, nil
}

// recordOutcome sets the submitted stage's outcome on the device
// status row, creating it lazily with the other stage left PENDING.
// Re-submitting overwrites the stage's prior outcome and bumps
// LastUpdated; the opposite stage field is never touched.
func (e *Engine) recordOutcome(ctx context.Context, deviceID string, stage model.Stage, anyFailed bool, now time.Time) error {
	status, err := e.Statuses.Get(ctx, deviceID)
	if err != nil {
		return err
	}
	if status == nil {
		status = &model.DeviceStatus{
			DeviceID:        deviceID,
			FQCStatus:       model.StagePending,
			PackagingStatus: model.StagePending,
		}
	}
	outcome := model.StageCompleted
	if anyFailed {
		outcome = model.StageFailed
	}
	if stage == model.StagePackaging {
		status.PackagingStatus = outcome
	} else {
		status.FQCStatus = outcome
	}
	status.LastUpdated = now
	return e.Statuses.Upsert(ctx, *status)
}

// NextDevice starts a fresh device session for the same operator and
// stage after a successful submission.
func (e *Engine) NextDevice(s *Session) error {
	if s.Step != StepSuccess {
		return ErrInvalidTransition
	}
	s.clearDevice()
	s.Step = StepDeviceEntry
	s.UpdatedAt = e.clock()
	return nil
}

// OpenDashboard moves an admin session from the console to the
// dashboard view.
func (e *Engine) OpenDashboard(s *Session) error {
	if s.Step != StepAdminConsole || !s.IsAdmin {
		return ErrInvalidTransition
	}
	s.Step = StepDashboard
	s.UpdatedAt = e.clock()
	return nil
}

// CloseDashboard returns an admin session to the console.
func (e *Engine) CloseDashboard(s *Session) error {
	if s.Step != StepDashboard {
		return ErrInvalidTransition
	}
	s.Step = StepAdminConsole
	s.UpdatedAt = e.clock()
	return nil
}

// Logout clears identity, stage and all in-progress session data from
// any step.
func (e *Engine) Logout(s *Session) {
	s.reset()
	s.UpdatedAt = e.clock()
}
