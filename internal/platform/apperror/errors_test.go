package apperror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rentify/service-booking/internal/platform/apperror"
)

func TestCollaboratorFailure_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("dispatch: %w", apperror.NewCollaboratorFailure("notifier", cause))

	assert.True(t, apperror.Is(err, apperror.KindCollaboratorFailure))
	assert.False(t, apperror.IsValidation(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "collaborator_failure: notifier failed: connection refused")
}

func TestKindOf_UnclassifiedIsInternal(t *testing.T) {
	assert.Equal(t, apperror.KindInternal, apperror.KindOf(errors.New("boom")))
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(apperror.NewNotFound("booking", "b-1")))
}
