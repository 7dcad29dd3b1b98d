package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/attendance/internal/attendance"
	"github.com/campushq/attendance/internal/model"
)

type viewsFixture struct {
	store       *memSessionStore
	accounts    *memAccountDirectory
	jobs        *memJobDirectory
	adjustments *memAdjustmentStore
	clock       *testClock
	views       *attendance.Views
}

func newViewsFixture(t *testing.T, now time.Time) *viewsFixture {
	t.Helper()

	f := &viewsFixture{
		store:       newMemSessionStore(),
		accounts:    &memAccountDirectory{},
		jobs:        &memJobDirectory{assignments: make(map[model.ID]model.JobAssignment)},
		adjustments: newMemAdjustmentStore(),
		clock:       &testClock{now: now},
	}
	f.views = attendance.NewViews(
		testLogger(), f.store, f.accounts, f.jobs, f.adjustments, f.clock, manila,
		func(model.ID) string { return "" },
	)
	return f
}

func (f *viewsFixture) addStudent(id model.ID, schoolID, first, last string) {
	f.accounts.accounts = append(f.accounts.accounts, model.Account{
		ID: id, SchoolID: schoolID, FirstName: first, LastName: last, Role: model.RoleStudent,
	})
}

// seedClosed records a completed valid session of the given length
// ending well in the past of the fixture clock.
func (f *viewsFixture) seedClosed(account model.ID, timeIn time.Time, length time.Duration) {
	out := timeIn.Add(length)
	f.store.seed(model.Session{Account: account, TimeIn: timeIn, TimeOut: &out})
}

func TestClampLeaderboardLimit(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{500, 100},
		{101, 100},
		{100, 100},
		{50, 50},
		{1, 1},
		{0, 10},
		{-5, 10},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, attendance.ClampLeaderboardLimit(c.in), "limit %d", c.in)
	}
}

func TestLeaderboardRanksByRenderedMinutes(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, manila)
	f := newViewsFixture(t, now)
	f.addStudent(1, "2021-00001", "Maria", "Santos")
	f.addStudent(2, "2021-00002", "Ana", "Cruz")
	f.addStudent(3, "2021-00003", "Ben", "Lopez")

	day := time.Date(2026, 3, 2, 8, 0, 0, 0, manila)
	f.seedClosed(1, day, 2*time.Hour)           // 120m
	f.seedClosed(2, day, 90*time.Minute)        // 90m
	f.seedClosed(2, day.Add(4*time.Hour), time.Hour) // +60m -> 150m

	// Ben has sessions but they are all invalidated.
	invalidOut := day.Add(time.Hour)
	f.store.seed(model.Session{
		Account: 3, TimeIn: day, TimeOut: &invalidOut,
		InvalidatedAt: &now,
	})

	entries, err := f.views.Leaderboard(context.Background(), 50, nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, model.ID(2), entries[0].AccountID)
	assert.Equal(t, 150, entries[0].TotalMinutes)
	assert.Equal(t, "2h 30m", entries[0].TotalFormatted)

	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, model.ID(1), entries[1].AccountID)
	assert.Equal(t, 120, entries[1].TotalMinutes)
}

func TestLeaderboardAppliesAdjustments(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, manila)
	f := newViewsFixture(t, now)
	f.addStudent(1, "2021-00001", "Maria", "Santos")
	f.addStudent(2, "2021-00002", "Ana", "Cruz")

	day := time.Date(2026, 3, 2, 8, 0, 0, 0, manila)
	f.seedClosed(1, day, time.Hour)
	f.seedClosed(2, day, time.Hour)

	// +30 lifts Maria above Ana; -90 pushes Ana to below zero and off
	// the board entirely.
	_, err := f.adjustments.Insert(context.Background(), attendance.InsertAdjustmentDTO{
		Account: 1, Manager: 9, Minutes: 30, Reason: "event credit",
	})
	require.NoError(t, err)
	_, err = f.adjustments.Insert(context.Background(), attendance.InsertAdjustmentDTO{
		Account: 2, Manager: 9, Minutes: -90, Reason: "double punch correction",
	})
	require.NoError(t, err)

	entries, err := f.views.Leaderboard(context.Background(), 50, nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ID(1), entries[0].AccountID)
	assert.Equal(t, 90, entries[0].TotalMinutes)
}

func TestLeaderboardExcludesSuspendedAndStaff(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, manila)
	f := newViewsFixture(t, now)
	suspendedAt := now.Add(-24 * time.Hour)
	f.accounts.accounts = append(f.accounts.accounts,
		model.Account{ID: 1, SchoolID: "2021-00001", FirstName: "Maria", Role: model.RoleStudent, SuspendedAt: &suspendedAt},
		model.Account{ID: 2, SchoolID: "MGR-2", FirstName: "Jose", Role: model.RoleManager},
	)

	day := time.Date(2026, 3, 2, 8, 0, 0, 0, manila)
	f.seedClosed(1, day, 2*time.Hour)
	f.seedClosed(2, day, 2*time.Hour)

	entries, err := f.views.Leaderboard(context.Background(), 50, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLeaderboardTruncatesToLimit(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, manila)
	f := newViewsFixture(t, now)
	day := time.Date(2026, 3, 2, 8, 0, 0, 0, manila)
	for i := model.ID(1); i <= 5; i++ {
		f.addStudent(i, string(rune('A'+i)), "Student", string(rune('A'+i)))
		f.seedClosed(i, day, time.Duration(i)*time.Hour)
	}

	entries, err := f.views.Leaderboard(context.Background(), 3, nil, nil)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, model.ID(5), entries[0].AccountID)
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
}

func TestPerformanceTotalsAndAverages(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, manila)
	f := newViewsFixture(t, now)
	f.addStudent(1, "2021-00001", "Maria", "Santos")
	f.jobs.assignments[1] = model.JobAssignment{JobID: 7, JobName: "Library Assistant"}

	// Two completed sessions on distinct days of the same ISO week:
	// 2h + 1h over 2 days, 1 week.
	f.seedClosed(1, time.Date(2026, 3, 2, 8, 0, 0, 0, manila), 2*time.Hour)
	f.seedClosed(1, time.Date(2026, 3, 3, 8, 0, 0, 0, manila), time.Hour)

	_, err := f.adjustments.Insert(context.Background(), attendance.InsertAdjustmentDTO{
		Account: 1, Manager: 9, Minutes: 30, Reason: "orientation credit",
	})
	require.NoError(t, err)

	stats, err := f.views.Performance(context.Background(), attendance.PerformanceFilter{})
	require.NoError(t, err)
	require.Len(t, stats, 1)

	stat := stats[0]
	assert.Equal(t, "Maria Santos", stat.Name)
	require.NotNil(t, stat.JobName)
	assert.Equal(t, "Library Assistant", *stat.JobName)
	assert.InDelta(t, 3.5, stat.TotalRenderedHours, 0.001)
	assert.InDelta(t, 0.5, stat.AdjustmentHours, 0.001)
	assert.InDelta(t, 1.5, stat.AvgDailyHours, 0.001)
	assert.InDelta(t, 3.0, stat.AvgWeeklyHours, 0.001)
	assert.False(t, stat.IsOnline)
}

func TestPerformanceOpenSessionMarksOnlineWithoutMinutes(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, manila)
	f := newViewsFixture(t, now)
	f.addStudent(1, "2021-00001", "Maria", "Santos")
	f.store.seed(model.Session{Account: 1, TimeIn: now.Add(-time.Hour)})

	stats, err := f.views.Performance(context.Background(), attendance.PerformanceFilter{})
	require.NoError(t, err)
	require.Len(t, stats, 1)

	assert.True(t, stats[0].IsOnline)
	assert.Zero(t, stats[0].TotalRenderedHours)
	assert.Zero(t, stats[0].AvgDailyHours)
}

func TestPerformanceStatusFilter(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, manila)
	f := newViewsFixture(t, now)
	f.addStudent(1, "2021-00001", "Maria", "Santos")
	f.addStudent(2, "2021-00002", "Ana", "Cruz")
	f.store.seed(model.Session{Account: 1, TimeIn: now.Add(-time.Hour)})
	f.seedClosed(2, now.Add(-26*time.Hour), time.Hour)

	active, err := f.views.Performance(context.Background(), attendance.PerformanceFilter{Status: "active"})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, model.ID(1), active[0].AccountID)

	inactive, err := f.views.Performance(context.Background(), attendance.PerformanceFilter{Status: "inactive"})
	require.NoError(t, err)
	require.Len(t, inactive, 1)
	assert.Equal(t, model.ID(2), inactive[0].AccountID)
}

func TestPerformanceSelfScope(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, manila)
	f := newViewsFixture(t, now)
	f.addStudent(1, "2021-00001", "Maria", "Santos")
	f.addStudent(2, "2021-00002", "Ana", "Cruz")
	f.seedClosed(1, now.Add(-26*time.Hour), time.Hour)
	f.seedClosed(2, now.Add(-26*time.Hour), 2*time.Hour)

	self := model.ID(1)
	stats, err := f.views.Performance(context.Background(), attendance.PerformanceFilter{Self: &self})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, model.ID(1), stats[0].AccountID)
}

func TestSummaryCountsOpenSessionsToNow(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, manila)
	f := newViewsFixture(t, now)
	f.addStudent(1, "2021-00001", "Maria", "Santos")
	f.store.seed(model.Session{Account: 1, TimeIn: now.Add(-90 * time.Minute)})

	items, err := f.views.Summary(context.Background(), attendance.SummaryFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, 1, items[0].TotalSessions)
	assert.Equal(t, 90, items[0].TotalMinutes)
	assert.InDelta(t, 1.5, items[0].TotalHours, 0.001)
}

func TestSummaryIncludesInvalidatedAndSortsDescending(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, manila)
	f := newViewsFixture(t, now)
	f.addStudent(1, "2021-00001", "Maria", "Santos")
	f.addStudent(2, "2021-00002", "Ana", "Cruz")

	day := time.Date(2026, 3, 2, 8, 0, 0, 0, manila)
	f.seedClosed(1, day, time.Hour)

	// Invalidated presence still counts toward the summary.
	invalidOut := day.Add(3 * time.Hour)
	f.store.seed(model.Session{
		Account: 2, TimeIn: day, TimeOut: &invalidOut, InvalidatedAt: &now,
	})

	items, err := f.views.Summary(context.Background(), attendance.SummaryFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, model.ID(2), items[0].AccountID)
	assert.Equal(t, 180, items[0].TotalMinutes)
	assert.Equal(t, model.ID(1), items[1].AccountID)
}

func TestOverdueCountIgnoresTodayAndInvalidated(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, manila)
	f := newViewsFixture(t, now)

	// Open since yesterday: overdue.
	f.store.seed(model.Session{Account: 1, TimeIn: time.Date(2026, 3, 5, 10, 0, 0, 0, manila)})
	// Open since this morning: not overdue.
	f.store.seed(model.Session{Account: 2, TimeIn: time.Date(2026, 3, 6, 8, 0, 0, 0, manila)})
	// Stale but invalidated: already handled by a manager.
	f.store.seed(model.Session{
		Account: 3, TimeIn: time.Date(2026, 3, 4, 10, 0, 0, 0, manila), InvalidatedAt: &now,
	})

	n, err := f.views.OverdueCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestActiveNamesDistinctSorted(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, manila)
	f := newViewsFixture(t, now)
	f.addStudent(1, "2021-00001", "Maria", "Santos")
	f.addStudent(2, "2021-00002", "Ana", "Cruz")

	f.store.seed(model.Session{Account: 2, TimeIn: now.Add(-2 * time.Hour)})
	f.store.seed(model.Session{Account: 1, TimeIn: now.Add(-time.Hour)})
	// A second open row for the same account must not duplicate the name.
	f.store.seed(model.Session{Account: 1, TimeIn: now.Add(-30 * time.Minute)})

	names, err := f.views.ActiveNames(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana Cruz", "Maria Santos"}, names)
}

func TestActiveSessionsOnlyToday(t *testing.T) {
	now := time.Date(2026, 3, 6, 12, 0, 0, 0, manila)
	f := newViewsFixture(t, now)

	f.store.seed(model.Session{Account: 1, TimeIn: time.Date(2026, 3, 5, 10, 0, 0, 0, manila)})
	todayID := f.store.seed(model.Session{Account: 2, TimeIn: time.Date(2026, 3, 6, 9, 0, 0, 0, manila)})

	sessions, err := f.views.ActiveSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, todayID, sessions[0].ID)
}
