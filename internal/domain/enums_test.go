package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ledgerflow/internal/domain"
)

func TestCanTransition_LegalPaths(t *testing.T) {
	assert.True(t, domain.CanTransition(domain.BatchStatusPending, domain.BatchStatusProcessing))
	assert.True(t, domain.CanTransition(domain.BatchStatusProcessing, domain.BatchStatusReviewing))
	assert.True(t, domain.CanTransition(domain.BatchStatusProcessing, domain.BatchStatusError))
	assert.True(t, domain.CanTransition(domain.BatchStatusReviewing, domain.BatchStatusApproved))
	assert.True(t, domain.CanTransition(domain.BatchStatusReviewing, domain.BatchStatusRejected))
	assert.True(t, domain.CanTransition(domain.BatchStatusError, domain.BatchStatusPending))
}

func TestCanTransition_IllegalPaths(t *testing.T) {
	// Terminal states never move.
	assert.False(t, domain.CanTransition(domain.BatchStatusApproved, domain.BatchStatusReviewing))
	assert.False(t, domain.CanTransition(domain.BatchStatusRejected, domain.BatchStatusPending))

	// No skipping stages.
	assert.False(t, domain.CanTransition(domain.BatchStatusPending, domain.BatchStatusReviewing))
	assert.False(t, domain.CanTransition(domain.BatchStatusPending, domain.BatchStatusApproved))
	assert.False(t, domain.CanTransition(domain.BatchStatusProcessing, domain.BatchStatusApproved))

	// Errored batches only reopen, they never jump straight back to work.
	assert.False(t, domain.CanTransition(domain.BatchStatusError, domain.BatchStatusProcessing))
	assert.False(t, domain.CanTransition(domain.BatchStatusError, domain.BatchStatusReviewing))

	// No self loops.
	assert.False(t, domain.CanTransition(domain.BatchStatusPending, domain.BatchStatusPending))
}

func TestAllowedExtensions(t *testing.T) {
	assert.Equal(t, domain.FileTypeJPG, domain.AllowedExtensions["jpg"])
	assert.Equal(t, domain.FileTypeJPG, domain.AllowedExtensions["jpeg"])
	assert.Equal(t, domain.FileTypePNG, domain.AllowedExtensions["png"])
	assert.Equal(t, domain.FileTypePDF, domain.AllowedExtensions["pdf"])

	_, ok := domain.AllowedExtensions["gif"]
	assert.False(t, ok)
}
