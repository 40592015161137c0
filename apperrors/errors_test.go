package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("cancel booking: %w", Validation("Booking is already cancelled"))

	assert.Equal(t, KindValidation, KindOf(err))
	assert.True(t, Is(err, KindValidation))
	assert.False(t, Is(err, KindNotFound))
}

func TestKindOfForeignErrorIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("connection reset")))
	assert.False(t, Is(nil, KindInternal))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := Internal("Failed to redeem points", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to redeem points: deadlock detected", err.Error())
	assert.Equal(t, "SERVER_ERROR", err.Kind.String())
}
