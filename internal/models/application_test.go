package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransitionReviewPaths(t *testing.T) {
	cases := []struct {
		from    ApplicationStatus
		to      ApplicationStatus
		allowed bool
	}{
		{StatusPending, StatusInReview, true},
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusInReview, StatusApproved, true},
		{StatusInReview, StatusRejected, true},
		{StatusInReview, StatusPending, false},
		{StatusApproved, StatusRejected, false},
		{StatusApproved, StatusPending, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusInReview, false},
		{StatusCompleted, StatusApproved, false},
	}

	for _, tc := range cases {
		for _, category := range []ApplicationCategory{CategoryInternship, CategoryThesis} {
			require.Equal(t, tc.allowed, CanTransition(category, tc.from, tc.to),
				"%s: %s -> %s", category, tc.from, tc.to)
		}
	}
}

func TestCanTransitionCompletedIsThesisOnly(t *testing.T) {
	require.True(t, CanTransition(CategoryThesis, StatusApproved, StatusCompleted))
	require.False(t, CanTransition(CategoryInternship, StatusApproved, StatusCompleted))
	require.False(t, CanTransition(CategoryThesis, StatusPending, StatusCompleted))
	require.False(t, CanTransition(CategoryThesis, StatusInReview, StatusCompleted))
}

func TestStatusPredicates(t *testing.T) {
	require.True(t, StatusPending.Active())
	require.True(t, StatusInReview.Active())
	require.False(t, StatusApproved.Active())
	require.False(t, StatusRejected.Active())

	require.True(t, StatusRejected.Terminal())
	require.True(t, StatusCompleted.Terminal())
	require.False(t, StatusApproved.Terminal())
}

func TestValidators(t *testing.T) {
	require.True(t, IsValidStatus(StatusPending))
	require.False(t, IsValidStatus("archived"))

	require.True(t, IsValidCategory(CategoryThesis))
	require.False(t, IsValidCategory("exchange"))

	require.True(t, IsValidDocumentStatus(DocumentVerified))
	require.False(t, IsValidDocumentStatus("pending"))
}
