package notice_test

import (
	"context"
	"testing"

	"github.com/ronven594/rentally-sub000/notice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_HappyPath_DraftThroughEscalated(t *testing.T) {
	v := notice.NewValidator()
	ctx := context.Background()

	state := notice.StateDraft
	for _, step := range []struct {
		event notice.Event
		want  notice.State
	}{
		{notice.EventQueue, notice.StateQueued},
		{notice.EventSend, notice.StateSent},
		{notice.EventServe, notice.StateServed},
		{notice.EventEscalate, notice.StateEscalated},
	} {
		next, err := v.Apply(ctx, state, step.event)
		require.NoError(t, err, "event %s from %s", step.event, state)
		assert.Equal(t, step.want, next)
		state = next
	}
}

func TestValidator_ServedIsImmutableHistory(t *testing.T) {
	// GIVEN: A served notice
	// THEN: It cannot be discarded or re-sent, only resolved
	v := notice.NewValidator()
	ctx := context.Background()

	for _, event := range []notice.Event{notice.EventDiscard, notice.EventSend, notice.EventQueue} {
		_, err := v.Apply(ctx, notice.StateServed, event)
		require.Error(t, err, "event %s should be rejected from served", event)

		var terr *notice.TransitionError
		assert.ErrorAs(t, err, &terr)
		assert.Equal(t, event, terr.Event)
	}
}

func TestValidator_DiscardOnlyBeforeSending(t *testing.T) {
	v := notice.NewValidator()
	ctx := context.Background()

	next, err := v.Apply(ctx, notice.StateDraft, notice.EventDiscard)
	require.NoError(t, err)
	assert.Equal(t, notice.StateDiscarded, next)

	next, err = v.Apply(ctx, notice.StateQueued, notice.EventDiscard)
	require.NoError(t, err)
	assert.Equal(t, notice.StateDiscarded, next)

	_, err = v.Apply(ctx, notice.StateSent, notice.EventDiscard)
	assert.Error(t, err)
}

func TestValidator_RemedyAndExpireFromServed(t *testing.T) {
	v := notice.NewValidator()
	ctx := context.Background()

	next, err := v.Apply(ctx, notice.StateServed, notice.EventRemedy)
	require.NoError(t, err)
	assert.Equal(t, notice.StateRemedied, next)

	next, err = v.Apply(ctx, notice.StateServed, notice.EventExpire)
	require.NoError(t, err)
	assert.Equal(t, notice.StateExpired, next)
}
