package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected Status
		hasError bool
	}{
		{"PENDING", StatusPending, false},
		{"pending", StatusPending, false},
		{" approved ", StatusApproved, false},
		{"rejected", StatusRejected, false},
		{"OPEN", StatusOpen, false},
		{"COLLECTED", StatusCollected, false},
		{"RESOLVED", StatusResolved, false},
		{"in_transit", "", true},
		{"", "", true},
	}

	for _, test := range tests {
		result, err := NewStatus(test.input)
		if test.hasError {
			assert.Error(t, err, "input %q", test.input)
			continue
		}
		assert.NoError(t, err, "input %q", test.input)
		assert.Equal(t, test.expected, result)
	}
}

func TestIsInitial(t *testing.T) {
	assert.True(t, StatusPending.IsInitial())
	assert.True(t, StatusOpen.IsInitial())
	assert.False(t, StatusApproved.IsInitial())
	assert.False(t, StatusRejected.IsInitial())
	assert.False(t, StatusCollected.IsInitial())
	assert.False(t, StatusResolved.IsInitial())
}

func TestNewSessionState(t *testing.T) {
	state, err := NewSessionState(" active ")
	assert.NoError(t, err)
	assert.Equal(t, SessionActive, state)

	state, err = NewSessionState("ENDED")
	assert.NoError(t, err)
	assert.Equal(t, SessionEnded, state)

	_, err = NewSessionState("expired")
	assert.Error(t, err)
}
