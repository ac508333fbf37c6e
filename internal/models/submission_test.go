package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubmissionStatusAt(t *testing.T) {
	due := time.Date(2026, time.March, 1, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, SubmissionStatusSubmitted, SubmissionStatusAt(due.Add(-time.Hour), due))
	assert.Equal(t, SubmissionStatusSubmitted, SubmissionStatusAt(due, due), "exactly on time counts as submitted")
	assert.Equal(t, SubmissionStatusLate, SubmissionStatusAt(due.Add(time.Second), due))
}
