package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/attendance/internal/model"
)

func TestSweepClosesAtCutoffInstant(t *testing.T) {
	// Session opened 22:50, sweep runs late at 23:20. The time_out must
	// land on 23:00 local, not on the run instant.
	run := time.Date(2026, 3, 2, 23, 20, 0, 0, manila)
	f := newEngineFixture(t, run)
	id := f.store.seed(model.Session{
		Account: 1,
		TimeIn:  time.Date(2026, 3, 2, 22, 50, 0, 0, manila),
	})

	closed, err := f.engine.SweepAutoClose(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	session, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, session.TimeOut)
	assert.True(t, session.TimeOut.Equal(time.Date(2026, 3, 2, 23, 0, 0, 0, manila)))
	assert.True(t, session.AutoClosed)
	assert.False(t, session.Invalidated())
}

func TestSweepSkipsSessionsOpenedAfterCutoff(t *testing.T) {
	run := time.Date(2026, 3, 2, 23, 20, 0, 0, manila)
	f := newEngineFixture(t, run)
	id := f.store.seed(model.Session{
		Account: 1,
		TimeIn:  time.Date(2026, 3, 2, 23, 30, 0, 0, manila),
	})

	// A session from a backdated row after the cutoff would get a
	// time_out before its time_in; it has to be skipped.
	closed, err := f.engine.SweepAutoClose(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, 0, closed)

	session, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, session.Open())
}

func TestSweepClosesStaleSessionsFromEarlierDays(t *testing.T) {
	run := time.Date(2026, 3, 2, 23, 5, 0, 0, manila)
	f := newEngineFixture(t, run)
	id := f.store.seed(model.Session{
		Account: 1,
		TimeIn:  time.Date(2026, 2, 28, 14, 0, 0, 0, manila),
	})

	closed, err := f.engine.SweepAutoClose(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	session, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, session.TimeOut)
	// Stale rows close at the run day's cutoff, same as everything else.
	assert.True(t, session.TimeOut.Equal(time.Date(2026, 3, 2, 23, 0, 0, 0, manila)))
}

func TestSweepRerunIsHarmless(t *testing.T) {
	run := time.Date(2026, 3, 2, 23, 1, 0, 0, manila)
	f := newEngineFixture(t, run)
	f.store.seed(model.Session{
		Account: 1,
		TimeIn:  time.Date(2026, 3, 2, 10, 0, 0, 0, manila),
	})

	closed, err := f.engine.SweepAutoClose(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	closed, err = f.engine.SweepAutoClose(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, 0, closed)
}

func TestSweepClosesLegacySentinelRows(t *testing.T) {
	run := time.Date(2026, 3, 2, 23, 10, 0, 0, manila)
	f := newEngineFixture(t, run)
	sentinel := time.Time{}
	id := f.store.seed(model.Session{
		Account: 1,
		TimeIn:  time.Date(2026, 3, 2, 9, 0, 0, 0, manila),
		TimeOut: &sentinel,
	})

	closed, err := f.engine.SweepAutoClose(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	session, err := f.store.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, session.TimeOut)
	assert.True(t, session.AutoClosed)
}
