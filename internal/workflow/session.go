package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/sourav8908/FLEX-QC-APP/internal/model"
)

// Step names a screen in the inspection workflow. Transitions between
// steps are performed exclusively by Engine methods so every guard is
// applied in one place.
type Step string

const (
	StepStageSelection Step = "stage_selection"
	StepLogin          Step = "login"
	StepDeviceEntry    Step = "device_entry"
	StepChecklist      Step = "checklist"
	StepSuccess        Step = "success"
	StepAdminConsole   Step = "admin_console"
	StepDashboard      Step = "dashboard"
)

// Session is the explicit context object for one terminal's inspection
// workflow. It replaces ambient global state: every transition takes a
// *Session, mutates it and persists it, so the HTTP layer carries no
// hidden workflow state of its own.
//
// Identity fields (UserID, IsAdmin, AssignedStage) are populated at
// login and survive "next device" resets; they are cleared only by
// logout. Device and checklist fields belong to a single device
// session and are discarded whenever the checklist step is left for
// any reason other than successful submission.
type Session struct {
	ID            string                   `json:"id"`
	Step          Step                     `json:"step"`
	Stage         model.Stage              `json:"stage"`
	UserID        string                   `json:"user_id"`
	IsAdmin       bool                     `json:"is_admin"`
	AssignedStage model.Stage              `json:"assigned_stage"`
	DeviceID      string                   `json:"device_id"`
	Checkpoints   []model.CheckpointResult `json:"checkpoints"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// NewSession returns a session at the initial stage-selection step.
func NewSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Step:      StepStageSelection,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// authenticated reports whether a login has happened on this session.
func (s *Session) authenticated() bool { return s.UserID != "" }

// clearDevice drops the in-progress device session (identifier and
// checklist) while keeping the authenticated identity and stage.
func (s *Session) clearDevice() {
	s.DeviceID = ""
	s.Checkpoints = nil
}

// reset returns the session to the initial step, clearing identity,
// selected stage and all in-progress data.
func (s *Session) reset() {
	s.Step = StepStageSelection
	s.Stage = model.StageNone
	s.UserID = ""
	s.IsAdmin = false
	s.AssignedStage = model.StageNone
	s.clearDevice()
}
