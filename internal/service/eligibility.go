package service

import (
	"fmt"

	"github.com/fasilkom-dev/siakad-api/internal/models"
)

// SubmissionBlockedError explains why a new submission is not allowed and
// names the conflicting application so callers can surface it.
type SubmissionBlockedError struct {
	Reason        string
	ConflictingID uint
}

func (e *SubmissionBlockedError) Error() string {
	return fmt.Sprintf("submission blocked: %s (application %d)", e.Reason, e.ConflictingID)
}

// CheckEligibility decides whether a student may create a new application in
// a category given their existing applications in that category. The check is
// order-independent and has no side effects; an empty slice always passes.
func CheckEligibility(existing []models.Application) error {
	for _, application := range existing {
		if application.Status == models.StatusApproved {
			return &SubmissionBlockedError{
				Reason:        "an approved submission already exists",
				ConflictingID: application.ID,
			}
		}
	}

	for _, application := range existing {
		if application.Status.Active() {
			return &SubmissionBlockedError{
				Reason:        "a prior submission is still under review",
				ConflictingID: application.ID,
			}
		}
	}

	return nil
}
