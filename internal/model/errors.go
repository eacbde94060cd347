package model

import (
	"fmt"

	"github.com/Dev-ALPM/imixs-workflow/internal/apperrors"
)

func dupError(kind string, id any) error {
	return apperrors.ModelErrorf("model", "DUPLICATE_MODEL_ENTRY", "duplicate %s id %v", kind, id)
}

// ErrUndefinedModel reports that no model matches the requested version.
func ErrUndefinedModel(version string) error {
	return apperrors.ModelErrorf("model-manager", "UNDEFINED_MODEL_ENTRY", "no model registered for version %q", version)
}

// ErrInvalidModel reports a structurally invalid model element, naming the
// offending id.
func ErrInvalidModel(id string, cause error) error {
	return apperrors.ModelError("model-manager", "INVALID_MODEL_ENTRY", fmt.Sprintf("invalid model entry %q: %v", id, cause))
}

// ErrUndefinedTask reports that taskID has no Task in the model.
func ErrUndefinedTask(taskID int) error {
	return apperrors.ModelErrorf("model", "UNDEFINED_MODEL_ENTRY", "task %d not found", taskID)
}

// ErrUndefinedEvent reports that (taskID, eventID) has no Event in the model.
func ErrUndefinedEvent(taskID, eventID int) error {
	return apperrors.ModelErrorf("model", "UNDEFINED_MODEL_ENTRY", "event (%d,%d) not found", taskID, eventID)
}

// ErrCyclicFollowUp reports that the kernel's follow-up walk revisited an
// already-visited (taskID, eventID) pair.
func ErrCyclicFollowUp(taskID, eventID int) error {
	return apperrors.ModelErrorf("kernel", "CYCLIC_FOLLOWUP", "cyclic follow-up detected revisiting (%d,%d)", taskID, eventID)
}
