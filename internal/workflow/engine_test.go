package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sourav8908/FLEX-QC-APP/internal/model"
	"github.com/sourav8908/FLEX-QC-APP/internal/queue"
	"github.com/sourav8908/FLEX-QC-APP/internal/utils"
)

// fakeUsers looks ids up case-insensitively, the way a MySQL ci
// collation would, so the engine's exact-match recheck is exercised.
type fakeUsers struct {
	users map[string]*model.User
}

func (f *fakeUsers) GetByID(_ context.Context, userID string) (*model.User, error) {
	for id, u := range f.users {
		if strings.EqualFold(id, userID) {
			out := *u
			return &out, nil
		}
	}
	return nil, nil
}

type fakeReports struct {
	created []model.QCReport
	err     error
}

func (f *fakeReports) Create(_ context.Context, r model.QCReport) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, r)
	return nil
}

type fakeStatuses struct {
	rows    map[string]model.DeviceStatus
	upserts int
}

func (f *fakeStatuses) Get(_ context.Context, deviceID string) (*model.DeviceStatus, error) {
	s, ok := f.rows[deviceID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeStatuses) Upsert(_ context.Context, s model.DeviceStatus) error {
	if f.rows == nil {
		f.rows = make(map[string]model.DeviceStatus)
	}
	f.rows[s.DeviceID] = s
	f.upserts++
	return nil
}

type fakePublisher struct {
	events []queue.ReportSubmittedEvent
	err    error
}

func (f *fakePublisher) PublishReportSubmitted(_ context.Context, ev queue.ReportSubmittedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := utils.HashPassword(plain, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return h
}

type fixture struct {
	engine   *Engine
	users    *fakeUsers
	reports  *fakeReports
	statuses *fakeStatuses
	events   *fakePublisher
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    &fakeUsers{users: map[string]*model.User{}},
		reports:  &fakeReports{},
		statuses: &fakeStatuses{rows: map[string]model.DeviceStatus{}},
		events:   &fakePublisher{},
		now:      time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	f.engine = NewEngine(f.users, f.reports, f.statuses, f.events)
	f.engine.now = func() time.Time { return f.now }

	f.users.users["op1"] = &model.User{
		UserID: "op1", PasswordHash: mustHash(t, "pw1"),
		IsActive: true, AssignedStage: model.StageFQC,
	}
	f.users.users["pack1"] = &model.User{
		UserID: "pack1", PasswordHash: mustHash(t, "pw2"),
		IsActive: true, AssignedStage: model.StagePackaging,
	}
	f.users.users["admin"] = &model.User{
		UserID: "admin", PasswordHash: mustHash(t, "123"),
		IsAdmin: true, IsActive: true,
	}
	f.users.users["gone"] = &model.User{
		UserID: "gone", PasswordHash: mustHash(t, "pw3"),
		IsActive: false, AssignedStage: model.StageFQC,
	}
	return f
}

// loginAs walks a fresh session to an authenticated state.
func (f *fixture) loginAs(t *testing.T, userID, password string, stage model.Stage) *Session {
	t.Helper()
	s := NewSession(f.now)
	if err := f.engine.SelectStage(s, stage); err != nil {
		t.Fatalf("select stage: %v", err)
	}
	if err := f.engine.Login(context.Background(), s, userID, password); err != nil {
		t.Fatalf("login %s: %v", userID, err)
	}
	return s
}

func (f *fixture) atChecklist(t *testing.T, userID, password string, stage model.Stage, deviceID string) *Session {
	t.Helper()
	s := f.loginAs(t, userID, password, stage)
	if err := f.engine.EnterDevice(context.Background(), s, deviceID); err != nil {
		t.Fatalf("enter device: %v", err)
	}
	return s
}

func fillAll(t *testing.T, e *Engine, s *Session, status model.CheckpointStatus, reason string) {
	t.Helper()
	img := "img"
	for _, c := range s.Checkpoints {
		patch := CheckpointPatch{Status: &status, Image: &img}
		if reason != "" {
			r := reason
			patch.Reason = &r
		}
		if err := e.UpdateCheckpoint(s, c.ID, patch); err != nil {
			t.Fatalf("fill %s: %v", c.ID, err)
		}
	}
}

func TestSelectStageRouting(t *testing.T) {
	f := newFixture(t)

	t.Run("unauthenticated goes to login", func(t *testing.T) {
		s := NewSession(f.now)
		if err := f.engine.SelectStage(s, model.StageFQC); err != nil {
			t.Fatalf("select: %v", err)
		}
		if s.Step != StepLogin || s.Stage != model.StageFQC {
			t.Errorf("step=%s stage=%s", s.Step, s.Stage)
		}
	})

	t.Run("unknown stage rejected", func(t *testing.T) {
		s := NewSession(f.now)
		if err := f.engine.SelectStage(s, model.Stage("SHIPPING")); err != ErrStageMismatch {
			t.Errorf("err = %v, want ErrStageMismatch", err)
		}
	})

	t.Run("operator on assigned stage skips login", func(t *testing.T) {
		s := f.loginAs(t, "op1", "pw1", model.StageFQC)
		if err := f.engine.SelectStage(s, model.StageFQC); err != nil {
			t.Fatalf("reselect: %v", err)
		}
		if s.Step != StepDeviceEntry {
			t.Errorf("step = %s, want device_entry", s.Step)
		}
	})

	t.Run("operator on other stage must re-login", func(t *testing.T) {
		s := f.loginAs(t, "op1", "pw1", model.StageFQC)
		if err := f.engine.SelectStage(s, model.StagePackaging); err != nil {
			t.Fatalf("reselect: %v", err)
		}
		if s.Step != StepLogin {
			t.Errorf("step = %s, want login", s.Step)
		}
	})

	t.Run("admin returns to console", func(t *testing.T) {
		s := f.loginAs(t, "admin", "123", model.StageFQC)
		if err := f.engine.SelectStage(s, model.StagePackaging); err != nil {
			t.Fatalf("reselect: %v", err)
		}
		if s.Step != StepAdminConsole {
			t.Errorf("step = %s, want admin_console", s.Step)
		}
	})

	t.Run("reselect discards device session", func(t *testing.T) {
		s := f.atChecklist(t, "op1", "pw1", model.StageFQC, "DEV-1")
		if err := f.engine.SelectStage(s, model.StageFQC); err != nil {
			t.Fatalf("reselect: %v", err)
		}
		if s.DeviceID != "" || s.Checkpoints != nil {
			t.Errorf("device session survived reselect: %q %d", s.DeviceID, len(s.Checkpoints))
		}
	})
}

func TestLogin(t *testing.T) {
	cases := []struct {
		name     string
		stage    model.Stage
		userID   string
		password string
		wantErr  error
		wantStep Step
	}{
		{"operator on assigned stage", model.StageFQC, "op1", "pw1", nil, StepDeviceEntry},
		{"admin bypasses stage check", model.StagePackaging, "admin", "123", nil, StepAdminConsole},
		{"wrong password", model.StageFQC, "op1", "nope", ErrInvalidCredentials, StepLogin},
		{"unknown user", model.StageFQC, "nobody", "pw1", ErrInvalidCredentials, StepLogin},
		{"id case mismatch", model.StageFQC, "OP1", "pw1", ErrInvalidCredentials, StepLogin},
		{"disabled account", model.StageFQC, "gone", "pw3", ErrAccountDisabled, StepLogin},
		{"stage mismatch", model.StagePackaging, "op1", "pw1", ErrStageMismatch, StepLogin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			s := NewSession(f.now)
			if err := f.engine.SelectStage(s, tc.stage); err != nil {
				t.Fatalf("select stage: %v", err)
			}
			err := f.engine.Login(context.Background(), s, tc.userID, tc.password)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if s.Step != tc.wantStep {
				t.Errorf("step = %s, want %s", s.Step, tc.wantStep)
			}
			if tc.wantErr != nil && s.UserID != "" {
				t.Errorf("failed login populated identity: %q", s.UserID)
			}
		})
	}

	t.Run("wrong step", func(t *testing.T) {
		f := newFixture(t)
		s := NewSession(f.now)
		if err := f.engine.Login(context.Background(), s, "op1", "pw1"); err != ErrInvalidTransition {
			t.Errorf("err = %v, want ErrInvalidTransition", err)
		}
	})
}

func TestCanEnterStageGate(t *testing.T) {
	// Entry into Packaging is allowed if and only if the device's FQC
	// outcome is COMPLETED. FQC itself takes any device.
	cases := []struct {
		name   string
		stage  model.Stage
		status *model.DeviceStatus
		want   bool
	}{
		{"fqc accepts unknown device", model.StageFQC, nil, true},
		{"fqc accepts failed device", model.StageFQC,
			&model.DeviceStatus{DeviceID: "D", FQCStatus: model.StageFailed, PackagingStatus: model.StagePending}, true},
		{"packaging rejects unknown device", model.StagePackaging, nil, false},
		{"packaging rejects pending fqc", model.StagePackaging,
			&model.DeviceStatus{DeviceID: "D", FQCStatus: model.StagePending, PackagingStatus: model.StagePending}, false},
		{"packaging rejects failed fqc", model.StagePackaging,
			&model.DeviceStatus{DeviceID: "D", FQCStatus: model.StageFailed, PackagingStatus: model.StagePending}, false},
		{"packaging accepts completed fqc", model.StagePackaging,
			&model.DeviceStatus{DeviceID: "D", FQCStatus: model.StageCompleted, PackagingStatus: model.StagePending}, true},
		{"packaging redo allowed regardless of own outcome", model.StagePackaging,
			&model.DeviceStatus{DeviceID: "D", FQCStatus: model.StageCompleted, PackagingStatus: model.StageFailed}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if tc.status != nil {
				f.statuses.rows["D"] = *tc.status
			}
			got, err := f.engine.CanEnterStage(context.Background(), "D", tc.stage)
			if err != nil {
				t.Fatalf("gate: %v", err)
			}
			if got != tc.want {
				t.Errorf("CanEnterStage = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEnterDevice(t *testing.T) {
	t.Run("builds stage checklist", func(t *testing.T) {
		f := newFixture(t)
		s := f.loginAs(t, "op1", "pw1", model.StageFQC)
		if err := f.engine.EnterDevice(context.Background(), s, "  DEV-42  "); err != nil {
			t.Fatalf("enter: %v", err)
		}
		if s.DeviceID != "DEV-42" {
			t.Errorf("device id = %q, want trimmed", s.DeviceID)
		}
		if s.Step != StepChecklist || len(s.Checkpoints) != 7 {
			t.Errorf("step=%s checkpoints=%d", s.Step, len(s.Checkpoints))
		}
	})

	t.Run("blank id rejected", func(t *testing.T) {
		f := newFixture(t)
		s := f.loginAs(t, "op1", "pw1", model.StageFQC)
		if err := f.engine.EnterDevice(context.Background(), s, "   "); err != ErrMissingDeviceID {
			t.Errorf("err = %v, want ErrMissingDeviceID", err)
		}
		if s.Step != StepDeviceEntry || s.Checkpoints != nil {
			t.Errorf("refused device changed session: step=%s", s.Step)
		}
	})

	t.Run("packaging gate refused leaves session at device entry", func(t *testing.T) {
		f := newFixture(t)
		s := f.loginAs(t, "pack1", "pw2", model.StagePackaging)
		err := f.engine.EnterDevice(context.Background(), s, "DEV-9")
		if err != ErrStagePrerequisiteNotMet {
			t.Fatalf("err = %v, want ErrStagePrerequisiteNotMet", err)
		}
		if s.Step != StepDeviceEntry || s.DeviceID != "" || s.Checkpoints != nil {
			t.Errorf("refused device changed session: %+v", s)
		}
	})
}

func TestSubmit(t *testing.T) {
	t.Run("incomplete checklist writes nothing", func(t *testing.T) {
		f := newFixture(t)
		s := f.atChecklist(t, "op1", "pw1", model.StageFQC, "DEV-1")
		_, err := f.engine.Submit(context.Background(), s)
		if err != ErrIncompleteChecklist {
			t.Fatalf("err = %v, want ErrIncompleteChecklist", err)
		}
		if len(f.reports.created) != 0 || f.statuses.upserts != 0 || len(f.events.events) != 0 {
			t.Errorf("rejected submit reached a store")
		}
		if s.Step != StepChecklist {
			t.Errorf("step = %s, want checklist", s.Step)
		}
	})

	t.Run("all pass marks stage completed", func(t *testing.T) {
		f := newFixture(t)
		s := f.atChecklist(t, "op1", "pw1", model.StageFQC, "DEV-1")
		fillAll(t, f.engine, s, model.CheckpointPass, "")

		report, err := f.engine.Submit(context.Background(), s)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if report.ID != model.NewReportID(f.now) {
			t.Errorf("report id = %q", report.ID)
		}
		if report.Stage != model.StageFQC || report.UserID != "op1" || report.DeviceID != "DEV-1" {
			t.Errorf("report header = %+v", report)
		}
		if len(f.reports.created) != 1 {
			t.Fatalf("reports stored = %d", len(f.reports.created))
		}
		st := f.statuses.rows["DEV-1"]
		if st.FQCStatus != model.StageCompleted || st.PackagingStatus != model.StagePending {
			t.Errorf("status = %+v", st)
		}
		if !st.LastUpdated.Equal(f.now) {
			t.Errorf("LastUpdated = %v, want %v", st.LastUpdated, f.now)
		}
		if s.Step != StepSuccess {
			t.Errorf("step = %s, want success", s.Step)
		}
		if len(f.events.events) != 1 || f.events.events[0].Outcome != string(model.StageCompleted) {
			t.Errorf("events = %+v", f.events.events)
		}
	})

	t.Run("any failure marks stage failed", func(t *testing.T) {
		f := newFixture(t)
		s := f.atChecklist(t, "op1", "pw1", model.StageFQC, "DEV-2")
		fillAll(t, f.engine, s, model.CheckpointPass, "")
		fail := model.CheckpointFail
		reason := "Dead pixel cluster"
		if err := f.engine.UpdateCheckpoint(s, "fqc-01", CheckpointPatch{Status: &fail, Reason: &reason}); err != nil {
			t.Fatalf("patch: %v", err)
		}
		if _, err := f.engine.Submit(context.Background(), s); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if st := f.statuses.rows["DEV-2"]; st.FQCStatus != model.StageFailed {
			t.Errorf("fqc status = %s, want FAILED", st.FQCStatus)
		}
	})

	t.Run("packaging submit leaves fqc outcome alone", func(t *testing.T) {
		f := newFixture(t)
		earlier := f.now.Add(-time.Hour)
		f.statuses.rows["DEV-3"] = model.DeviceStatus{
			DeviceID: "DEV-3", FQCStatus: model.StageCompleted,
			PackagingStatus: model.StagePending, LastUpdated: earlier,
		}
		s := f.atChecklist(t, "pack1", "pw2", model.StagePackaging, "DEV-3")
		fillAll(t, f.engine, s, model.CheckpointPass, "")
		if _, err := f.engine.Submit(context.Background(), s); err != nil {
			t.Fatalf("submit: %v", err)
		}
		st := f.statuses.rows["DEV-3"]
		if st.FQCStatus != model.StageCompleted {
			t.Errorf("packaging submit touched fqc field: %s", st.FQCStatus)
		}
		if st.PackagingStatus != model.StageCompleted {
			t.Errorf("packaging status = %s", st.PackagingStatus)
		}
		if !st.LastUpdated.After(earlier) {
			t.Errorf("LastUpdated not bumped: %v", st.LastUpdated)
		}
	})

	t.Run("resubmission overwrites prior outcome", func(t *testing.T) {
		f := newFixture(t)
		s := f.atChecklist(t, "op1", "pw1", model.StageFQC, "DEV-4")
		fillAll(t, f.engine, s, model.CheckpointPass, "")
		fail := model.CheckpointFail
		reason := "No audio"
		if err := f.engine.UpdateCheckpoint(s, "fqc-04", CheckpointPatch{Status: &fail, Reason: &reason}); err != nil {
			t.Fatalf("patch: %v", err)
		}
		if _, err := f.engine.Submit(context.Background(), s); err != nil {
			t.Fatalf("first submit: %v", err)
		}
		if err := f.engine.NextDevice(s); err != nil {
			t.Fatalf("next device: %v", err)
		}
		if err := f.engine.EnterDevice(context.Background(), s, "DEV-4"); err != nil {
			t.Fatalf("re-enter: %v", err)
		}
		fillAll(t, f.engine, s, model.CheckpointPass, "")
		if _, err := f.engine.Submit(context.Background(), s); err != nil {
			t.Fatalf("second submit: %v", err)
		}
		if st := f.statuses.rows["DEV-4"]; st.FQCStatus != model.StageCompleted {
			t.Errorf("redo did not overwrite outcome: %s", st.FQCStatus)
		}
		if len(f.reports.created) != 2 {
			t.Errorf("reports stored = %d, want 2 (append-only)", len(f.reports.created))
		}
	})

	t.Run("publish failure does not fail submit", func(t *testing.T) {
		f := newFixture(t)
		f.events.err = errors.New("broker down")
		s := f.atChecklist(t, "op1", "pw1", model.StageFQC, "DEV-5")
		fillAll(t, f.engine, s, model.CheckpointPass, "")
		if _, err := f.engine.Submit(context.Background(), s); err != nil {
			t.Fatalf("submit: %v", err)
		}
		if s.Step != StepSuccess {
			t.Errorf("step = %s", s.Step)
		}
	})

	t.Run("report snapshot is detached from session", func(t *testing.T) {
		f := newFixture(t)
		s := f.atChecklist(t, "op1", "pw1", model.StageFQC, "DEV-6")
		fillAll(t, f.engine, s, model.CheckpointPass, "")
		report, err := f.engine.Submit(context.Background(), s)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		s.Checkpoints[0].Label = "mutated after submit"
		if f.reports.created[0].Checkpoints[0].Label == "mutated after submit" {
			t.Errorf("stored report shares backing array with session")
		}
		if report.Checkpoints[0].Label == "mutated after submit" {
			t.Errorf("returned report shares backing array with session")
		}
	})
}

func TestFQCToPackagingScenario(t *testing.T) {
	f := newFixture(t)

	// Packaging refuses the device before any FQC submission.
	ps := f.loginAs(t, "pack1", "pw2", model.StagePackaging)
	if err := f.engine.EnterDevice(context.Background(), ps, "DEV-X"); err != ErrStagePrerequisiteNotMet {
		t.Fatalf("pre-fqc gate: err = %v", err)
	}

	// FQC completes the device.
	fs := f.atChecklist(t, "op1", "pw1", model.StageFQC, "DEV-X")
	fillAll(t, f.engine, fs, model.CheckpointPass, "")
	if _, err := f.engine.Submit(context.Background(), fs); err != nil {
		t.Fatalf("fqc submit: %v", err)
	}

	// The same device is now admitted to Packaging.
	if err := f.engine.EnterDevice(context.Background(), ps, "DEV-X"); err != nil {
		t.Fatalf("post-fqc gate: %v", err)
	}
	fillAll(t, f.engine, ps, model.CheckpointPass, "")
	if _, err := f.engine.Submit(context.Background(), ps); err != nil {
		t.Fatalf("packaging submit: %v", err)
	}

	st := f.statuses.rows["DEV-X"]
	if st.FQCStatus != model.StageCompleted || st.PackagingStatus != model.StageCompleted {
		t.Errorf("final status = %+v", st)
	}
}

func TestNextDevice(t *testing.T) {
	f := newFixture(t)
	s := f.atChecklist(t, "op1", "pw1", model.StageFQC, "DEV-1")
	fillAll(t, f.engine, s, model.CheckpointPass, "")
	if _, err := f.engine.Submit(context.Background(), s); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := f.engine.NextDevice(s); err != nil {
		t.Fatalf("next device: %v", err)
	}
	if s.Step != StepDeviceEntry || s.DeviceID != "" || s.Checkpoints != nil {
		t.Errorf("session after next device: %+v", s)
	}
	if s.UserID != "op1" || s.Stage != model.StageFQC {
		t.Errorf("identity lost on next device: %q %q", s.UserID, s.Stage)
	}

	if err := f.engine.NextDevice(s); err != ErrInvalidTransition {
		t.Errorf("next device outside success: err = %v", err)
	}
}

func TestDashboardTransitions(t *testing.T) {
	f := newFixture(t)

	t.Run("operator cannot open dashboard", func(t *testing.T) {
		s := f.loginAs(t, "op1", "pw1", model.StageFQC)
		if err := f.engine.OpenDashboard(s); err != ErrInvalidTransition {
			t.Errorf("err = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("admin round trip", func(t *testing.T) {
		s := f.loginAs(t, "admin", "123", model.StageFQC)
		if err := f.engine.OpenDashboard(s); err != nil {
			t.Fatalf("open: %v", err)
		}
		if s.Step != StepDashboard {
			t.Fatalf("step = %s", s.Step)
		}
		if err := f.engine.CloseDashboard(s); err != nil {
			t.Fatalf("close: %v", err)
		}
		if s.Step != StepAdminConsole {
			t.Errorf("step = %s", s.Step)
		}
	})
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	s := f.atChecklist(t, "op1", "pw1", model.StageFQC, "DEV-1")
	f.engine.Logout(s)
	if s.Step != StepStageSelection {
		t.Errorf("step = %s, want stage_selection", s.Step)
	}
	if s.UserID != "" || s.Stage != model.StageNone || s.DeviceID != "" || s.Checkpoints != nil {
		t.Errorf("logout left state behind: %+v", s)
	}
}
