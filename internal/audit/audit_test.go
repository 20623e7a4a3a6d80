package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRecorderRecentNewestFirst(t *testing.T) {
	r := NewLogRecorder(10)
	ctx := context.Background()
	r.Record(ctx, Event{Kind: DepositCreated, UserID: 1, EntityID: 10})
	r.Record(ctx, Event{Kind: DepositDecided, UserID: 2, EntityID: 11})
	r.Record(ctx, Event{Kind: ProfitCredited, UserID: 1, EntityID: 12})

	events, err := r.Recent(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, ProfitCredited, events[0].Kind)
	assert.False(t, events[0].At.IsZero())

	uid := uint(1)
	mine, err := r.Recent(ctx, &uid, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, uint(12), mine[0].EntityID)
}

func TestLogRecorderBounded(t *testing.T) {
	r := NewLogRecorder(2)
	ctx := context.Background()
	for i := uint(1); i <= 5; i++ {
		r.Record(ctx, Event{Kind: DepositCreated, EntityID: i})
	}
	events, err := r.Recent(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, uint(5), events[0].EntityID)
	assert.Equal(t, uint(4), events[1].EntityID)
}
