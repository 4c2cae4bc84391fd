package model

import "time"

// Stage identifies one of the two sequential inspection phases a
// device passes through on the line. FQC (final quality check) must be
// completed for a device before Packaging may begin.
type Stage string

const (
	StageFQC       Stage = "FQC"       // final quality check
	StagePackaging Stage = "PACKAGING" // packaging inspection
	StageNone      Stage = ""          // no stage assigned (admins)
)

// ValidStage reports whether s names a real inspection stage.
func ValidStage(s Stage) bool {
	return s == StageFQC || s == StagePackaging
}

// User represents an operator or administrator account as stored in
// the `users` table. The user id doubles as the login name and is the
// primary key; it is immutable once created.
//
// Fields:
//  UserID        – primary key and login identifier.
//  PasswordHash  – bcrypt hashed password.
//  IsAdmin       – whether the account may use the admin console.
//  IsActive      – disabled accounts cannot authenticate.
//  AssignedStage – the single stage a non-admin operator may work;
//                  StageNone for admins.
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type User struct {
	UserID        string    // users.user_id
	PasswordHash  string    // users.password_hash
	IsAdmin       bool      // users.is_admin
	IsActive      bool      // users.is_active
	AssignedStage Stage     // users.assigned_stage
	CreatedAt     time.Time // users.created_at
	UpdatedAt     time.Time // users.updated_at
}
