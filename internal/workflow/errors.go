// Package workflow implements the inspection session state machine:
// stage selection, login, device identification, the checklist, report
// submission and the stage-gating rules between FQC and Packaging.
// All failures are sentinel errors so that handlers can translate them
// into user-visible messages on the current screen; none of them are
// fatal to the process.
package workflow

import "errors"

// ErrInvalidCredentials is returned when no user matches the supplied
// id and password exactly (both comparisons are case-sensitive).
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAccountDisabled is returned when credentials match but the
// account has been deactivated by an administrator.
var ErrAccountDisabled = errors.New("account disabled")

// ErrStageMismatch is returned when a non-admin operator tries to
// enter a stage other than their assigned one.
var ErrStageMismatch = errors.New("operator not assigned to this stage")

// ErrStagePrerequisiteNotMet is returned when a device is presented at
// Packaging without a completed FQC on record.
var ErrStagePrerequisiteNotMet = errors.New("device has not completed FQC")

// ErrIncompleteChecklist is returned at submit time when any
// checkpoint is missing a status, a photo, or a failure reason.
var ErrIncompleteChecklist = errors.New("checklist incomplete")

// ErrMissingDeviceID is returned when the device identifier is empty
// after trimming.
var ErrMissingDeviceID = errors.New("device id required")

// ErrInvalidTransition is returned when a session operation is invoked
// from a step that does not allow it.
var ErrInvalidTransition = errors.New("operation not allowed in current step")

// ErrCheckpointNotFound is returned when a patch or removal names a
// checkpoint id that is not in the current checklist.
var ErrCheckpointNotFound = errors.New("checkpoint not found")
