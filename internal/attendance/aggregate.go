package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/campushq/attendance/internal/model"
	"github.com/campushq/attendance/internal/timeutil"
)

const (
	LeaderboardDefaultLimit = 50
	LeaderboardMaxLimit     = 100
	// Out-of-range low limits clamp to a small floor rather than the
	// default, matching the punch station's historical behavior.
	LeaderboardMinFallback = 10
)

// Views derives read-only aggregates from the session store, the
// directories and the adjustment log. Nothing here writes; everything
// is recomputed per query.
type Views struct {
	Logger      *slog.Logger
	Store       SessionStore
	Accounts    AccountDirectory
	Jobs        JobDirectory
	Adjustments AdjustmentStore
	Clock       timeutil.Clock
	Location    *time.Location
	Pictures    PictureResolver
}

func NewViews(
	logger *slog.Logger,
	store SessionStore,
	accounts AccountDirectory,
	jobs JobDirectory,
	adjustments AdjustmentStore,
	clock timeutil.Clock,
	loc *time.Location,
	pictures PictureResolver,
) *Views {
	return &Views{
		Logger:      logger.With("component", "views"),
		Store:       store,
		Accounts:    accounts,
		Jobs:        jobs,
		Adjustments: adjustments,
		Clock:       clock,
		Location:    loc,
		Pictures:    pictures,
	}
}

type SummaryFilter struct {
	DateFrom   *time.Time
	DateTo     *time.Time
	Department *string
}

type AccountSummary struct {
	AccountID     model.ID `json:"accountId"`
	AccountName   string   `json:"accountName"`
	SchoolID      string   `json:"schoolId"`
	TotalSessions int      `json:"totalSessions"`
	TotalMinutes  int      `json:"totalMinutes"`
	TotalHours    float64  `json:"totalHours"`
}

// Summary totals sessions and minutes per account over a date window.
// Open sessions count as running until now. Invalidated sessions are
// included here; the summary answers "who was present", not "what
// counts toward rendered hours".
func (v *Views) Summary(ctx context.Context, filter SummaryFilter) ([]AccountSummary, error) {
	accounts, err := v.Accounts.Find(ctx, AccountFilter{Department: filter.Department})
	if err != nil {
		return nil, fmt.Errorf("summary: list accounts: %w", err)
	}
	byID := accountsByID(accounts)

	sessions, err := v.Store.Find(ctx, SessionFilter{
		DateFrom: filter.DateFrom,
		DateTo:   filter.DateTo,
	}, FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("summary: list sessions: %w", err)
	}

	now := v.Clock.Now()

	totals := make(map[model.ID]*AccountSummary)
	for _, s := range sessions {
		account, ok := byID[s.Account]
		if !ok {
			continue // department filter, or orphaned row
		}

		sum, ok := totals[s.Account]
		if !ok {
			name := account.DisplayName()
			if name == "" {
				name = fmt.Sprintf("Student #%d", account.ID)
			}
			sum = &AccountSummary{
				AccountID:   account.ID,
				AccountName: name,
				SchoolID:    account.SchoolID,
			}
			totals[s.Account] = sum
		}

		end := now
		if s.TimeOut != nil {
			end = *s.TimeOut
		}
		sum.TotalSessions++
		sum.TotalMinutes += wholeMinutes(s.TimeIn, end)
	}

	items := make([]AccountSummary, 0, len(totals))
	for _, sum := range totals {
		sum.TotalHours = round2(float64(sum.TotalMinutes) / 60)
		items = append(items, *sum)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].TotalMinutes != items[j].TotalMinutes {
			return items[i].TotalMinutes > items[j].TotalMinutes
		}
		return items[i].AccountName < items[j].AccountName
	})

	return items, nil
}

type PerformanceFilter struct {
	Search *string
	JobID  *model.ID

	// Status is "active", "inactive" or "all".
	Status string
	// Role is "student", "manager" or "all".
	Role string
	// Suspended is "true", "false" or "all".
	Suspended string

	// Self restricts the result to a single account (student
	// self-scope).
	Self *model.ID
}

type PerformanceStat struct {
	AccountID          model.ID `json:"accountId"`
	Name               string   `json:"name"`
	SchoolID           string   `json:"schoolId"`
	JobName            *string  `json:"jobName"`
	IsOnline           bool     `json:"isOnline"`
	TotalRenderedHours float64  `json:"totalRenderedHours"`
	AvgDailyHours      float64  `json:"avgDailyHours"`
	AvgWeeklyHours     float64  `json:"avgWeeklyHours"`
	AdjustmentHours    float64  `json:"adjustmentHours"`
	ProfilePicture     string   `json:"profilePicture"`
}

// Performance computes rendered hours per account: completed
// non-invalidated session minutes plus signed adjustment minutes.
// Averages divide completed hours by distinct local days / ISO weeks
// holding at least one completed session.
func (v *Views) Performance(ctx context.Context, filter PerformanceFilter) ([]PerformanceStat, error) {
	accountFilter := AccountFilter{Search: filter.Search}

	switch filter.Role {
	case "all", "":
		accountFilter.Roles = []model.Role{model.RoleStudent, model.RoleManager}
	default:
		accountFilter.Roles = []model.Role{model.Role(filter.Role)}
	}
	switch filter.Suspended {
	case "true":
		accountFilter.Suspended = boolPtr(true)
	case "all":
	default:
		accountFilter.Suspended = boolPtr(false)
	}

	accounts, err := v.Accounts.Find(ctx, accountFilter)
	if err != nil {
		return nil, fmt.Errorf("performance: list accounts: %w", err)
	}

	jobs, err := v.Jobs.Assignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("performance: list assignments: %w", err)
	}

	sessions, err := v.Store.Find(ctx, SessionFilter{ExcludeInvalidated: true}, FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("performance: list sessions: %w", err)
	}

	adjustments, err := v.Adjustments.SumsByAccount(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("performance: sum adjustments: %w", err)
	}

	agg := aggregateSessions(sessions, v.Location)

	stats := make([]PerformanceStat, 0, len(accounts))
	for _, account := range accounts {
		if filter.Self != nil && account.ID != *filter.Self {
			continue
		}

		job, hasJob := jobs[account.ID]
		if filter.JobID != nil && (!hasJob || job.JobID != *filter.JobID) {
			continue
		}

		a := agg[account.ID]

		if filter.Status == "active" && !a.online {
			continue
		}
		if filter.Status == "inactive" && a.online {
			continue
		}

		activityHours := float64(a.completedMinutes) / 60
		adjustmentHours := float64(adjustments[account.ID]) / 60

		stat := PerformanceStat{
			AccountID:          account.ID,
			Name:               account.DisplayName(),
			SchoolID:           account.SchoolID,
			IsOnline:           a.online,
			TotalRenderedHours: round2(activityHours + adjustmentHours),
			AdjustmentHours:    round2(adjustmentHours),
		}
		if hasJob {
			name := job.JobName
			stat.JobName = &name
		}
		if days := len(a.days); days > 0 {
			stat.AvgDailyHours = round2(activityHours / float64(days))
		}
		if weeks := len(a.weeks); weeks > 0 {
			stat.AvgWeeklyHours = round2(activityHours / float64(weeks))
		}
		if v.Pictures != nil {
			stat.ProfilePicture = v.Pictures(account.ID)
		}

		stats = append(stats, stat)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalRenderedHours != stats[j].TotalRenderedHours {
			return stats[i].TotalRenderedHours > stats[j].TotalRenderedHours
		}
		return stats[i].Name < stats[j].Name
	})

	return stats, nil
}

type LeaderboardEntry struct {
	Rank           int      `json:"rank"`
	AccountID      model.ID `json:"accountId"`
	SchoolID       string   `json:"schoolId"`
	Name           string   `json:"name"`
	JobID          *model.ID `json:"jobId"`
	JobName        *string  `json:"jobName"`
	TotalMinutes   int      `json:"totalMinutes"`
	TotalHours     int      `json:"totalHours"`
	TotalFormatted string   `json:"totalHoursFormatted"`
	CompletedCount int      `json:"completedCount"`
	IsOnline       bool     `json:"isOnline"`
	ProfilePicture string   `json:"profilePicture"`
}

// ClampLeaderboardLimit folds out-of-range limits back into [1, 100]
// instead of erroring.
func ClampLeaderboardLimit(limit int) int {
	if limit > LeaderboardMaxLimit {
		return LeaderboardMaxLimit
	}
	if limit < 1 {
		return LeaderboardMinFallback
	}
	return limit
}

// Leaderboard ranks non-suspended students by rendered minutes
// (completed sessions plus adjustments) within an optional window,
// descending, dropping accounts at zero or below.
func (v *Views) Leaderboard(ctx context.Context, limit int, dateFrom, dateTo *time.Time) ([]LeaderboardEntry, error) {
	limit = ClampLeaderboardLimit(limit)

	accounts, err := v.Accounts.Find(ctx, AccountFilter{
		Roles:     []model.Role{model.RoleStudent},
		Suspended: boolPtr(false),
	})
	if err != nil {
		return nil, fmt.Errorf("leaderboard: list accounts: %w", err)
	}

	jobs, err := v.Jobs.Assignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: list assignments: %w", err)
	}

	sessions, err := v.Store.Find(ctx, SessionFilter{
		DateFrom:           dateFrom,
		DateTo:             dateTo,
		ExcludeInvalidated: true,
	}, FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("leaderboard: list sessions: %w", err)
	}

	adjustments, err := v.Adjustments.SumsByAccount(ctx, dateFrom, dateTo)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: sum adjustments: %w", err)
	}

	agg := aggregateSessions(sessions, v.Location)

	entries := make([]LeaderboardEntry, 0, len(accounts))
	for _, account := range accounts {
		a := agg[account.ID]

		total := a.completedMinutes + adjustments[account.ID]
		if total <= 0 {
			continue
		}

		entry := LeaderboardEntry{
			AccountID:      account.ID,
			SchoolID:       account.SchoolID,
			Name:           account.DisplayName(),
			TotalMinutes:   total,
			TotalHours:     total / 60,
			TotalFormatted: formatMinutes(total),
			CompletedCount: a.completedCount,
			IsOnline:       a.online,
		}
		if job, ok := jobs[account.ID]; ok {
			id, name := job.JobID, job.JobName
			entry.JobID = &id
			entry.JobName = &name
		}
		if v.Pictures != nil {
			entry.ProfilePicture = v.Pictures(account.ID)
		}

		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalMinutes != entries[j].TotalMinutes {
			return entries[i].TotalMinutes > entries[j].TotalMinutes
		}
		return entries[i].Name < entries[j].Name
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries, nil
}

// OverdueCount counts sessions still open from a previous local day,
// excluding invalidated ones. These are the rows a manager should
// review or the sweeper missed.
func (v *Views) OverdueCount(ctx context.Context) (int, error) {
	startOfToday := timeutil.StartOfLocalDay(v.Clock.Now(), v.Location)

	n, err := v.Store.CountOverdue(ctx, startOfToday)
	if err != nil {
		return 0, fmt.Errorf("overdue count: %w", err)
	}
	return n, nil
}

// ActiveSessions lists today's open sessions, newest first.
func (v *Views) ActiveSessions(ctx context.Context) ([]model.Session, error) {
	startOfToday := timeutil.StartOfLocalDay(v.Clock.Now(), v.Location)

	sessions, err := v.Store.Find(ctx, SessionFilter{
		OpenOnly: true,
		DateFrom: &startOfToday,
	}, FindOptions{SortBy: "time_in", SortOrder: "desc"})
	if err != nil {
		return nil, fmt.Errorf("active sessions: %w", err)
	}
	return sessions, nil
}

// ActiveNames lists the distinct display names currently punched in,
// ascending, for the kiosk board. Since overrides the default
// start-of-local-day lower bound.
func (v *Views) ActiveNames(ctx context.Context, since *time.Time) ([]string, error) {
	from := timeutil.StartOfLocalDay(v.Clock.Now(), v.Location)
	if since != nil {
		from = *since
	}

	sessions, err := v.Store.Find(ctx, SessionFilter{
		OpenOnly:           true,
		DateFrom:           &from,
		ExcludeInvalidated: true,
	}, FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("active names: list sessions: %w", err)
	}
	if len(sessions) == 0 {
		return []string{}, nil
	}

	accounts, err := v.Accounts.Find(ctx, AccountFilter{})
	if err != nil {
		return nil, fmt.Errorf("active names: list accounts: %w", err)
	}
	byID := accountsByID(accounts)

	seen := make(map[string]struct{})
	names := make([]string, 0, len(sessions))
	for _, s := range sessions {
		account, ok := byID[s.Account]
		if !ok {
			continue
		}
		name := account.DisplayName()
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

type sessionAggregate struct {
	completedMinutes int
	completedCount   int
	online           bool
	days             map[timeutil.LocalDate]struct{}
	weeks            map[int]struct{}
}

func aggregateSessions(sessions []model.Session, loc *time.Location) map[model.ID]sessionAggregate {
	agg := make(map[model.ID]sessionAggregate)
	for _, s := range sessions {
		a := agg[s.Account]
		if a.days == nil {
			a.days = make(map[timeutil.LocalDate]struct{})
			a.weeks = make(map[int]struct{})
		}

		if s.TimeOut == nil {
			if !s.Invalidated() {
				a.online = true
			}
		} else {
			a.completedMinutes += wholeMinutes(s.TimeIn, *s.TimeOut)
			a.completedCount++
			a.days[timeutil.LocalDateOf(s.TimeIn, loc)] = struct{}{}
			y, w := s.TimeIn.In(loc).ISOWeek()
			a.weeks[y*100+w] = struct{}{}
		}

		agg[s.Account] = a
	}
	return agg
}

func accountsByID(accounts []model.Account) map[model.ID]model.Account {
	byID := make(map[model.ID]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return byID
}

func wholeMinutes(from, to time.Time) int {
	return int(to.Sub(from) / time.Minute)
}

func formatMinutes(total int) string {
	hours, minutes := total/60, total%60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func boolPtr(b bool) *bool { return &b }
