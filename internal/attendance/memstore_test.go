package attendance_test

import (
	"context"
	"sort"
	"time"

	"github.com/campushq/attendance/internal/attendance"
	"github.com/campushq/attendance/internal/model"
)

// memSessionStore mirrors the SQL store's semantics in memory. Like
// the real adapter it normalizes the legacy zero-time time_out
// sentinel to nil on every read, and every conditional mutation is
// scoped by the open predicate.
type memSessionStore struct {
	nextID   model.ID
	sessions map[model.ID]*model.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[model.ID]*model.Session)}
}

// seed inserts a session as-is, sentinel included, bypassing the
// engine. Returns the assigned id.
func (s *memSessionStore) seed(session model.Session) model.ID {
	s.nextID++
	session.ID = s.nextID
	s.sessions[session.ID] = &session
	return session.ID
}

func (s *memSessionStore) isOpen(session *model.Session) bool {
	return session.TimeOut == nil || session.TimeOut.IsZero()
}

func (s *memSessionStore) normalized(session *model.Session) model.Session {
	out := *session
	if out.TimeOut != nil && out.TimeOut.IsZero() {
		out.TimeOut = nil
	}
	return out
}

func (s *memSessionStore) Get(_ context.Context, id model.ID) (model.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return model.Session{}, model.NewError("session", model.ErrNotFound)
	}
	return s.normalized(session), nil
}

func (s *memSessionStore) LatestOpen(_ context.Context, account model.ID) (model.Session, error) {
	var latest *model.Session
	for _, session := range s.sessions {
		if session.Account != account || !s.isOpen(session) {
			continue
		}
		if latest == nil || session.TimeIn.After(latest.TimeIn) {
			latest = session
		}
	}
	if latest == nil {
		return model.Session{}, model.NewError("session", model.ErrNotFound)
	}
	return s.normalized(latest), nil
}

func (s *memSessionStore) Find(_ context.Context, filter attendance.SessionFilter, opts attendance.FindOptions) ([]model.Session, error) {
	matched := []model.Session{}
	for _, session := range s.sessions {
		if s.matches(session, filter) {
			matched = append(matched, s.normalized(session))
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if opts.SortOrder == "asc" {
			return matched[i].TimeIn.Before(matched[j].TimeIn)
		}
		return matched[i].TimeIn.After(matched[j].TimeIn)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return []model.Session{}, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}

	return matched, nil
}

func (s *memSessionStore) Count(_ context.Context, filter attendance.SessionFilter) (int, error) {
	total := 0
	for _, session := range s.sessions {
		if s.matches(session, filter) {
			total++
		}
	}
	return total, nil
}

func (s *memSessionStore) matches(session *model.Session, filter attendance.SessionFilter) bool {
	if filter.Account != nil && session.Account != *filter.Account {
		return false
	}
	if filter.ExcludeInvalidated && session.InvalidatedAt != nil {
		return false
	}
	if filter.OpenOnly {
		if !s.isOpen(session) {
			return false
		}
		if filter.DateFrom != nil && session.TimeIn.Before(*filter.DateFrom) {
			return false
		}
		return true
	}

	inWindow := true
	if filter.DateFrom != nil && session.TimeIn.Before(*filter.DateFrom) {
		inWindow = false
	}
	if filter.DateTo != nil && session.TimeIn.After(*filter.DateTo) {
		inWindow = false
	}
	if !inWindow {
		if filter.OrOpen && s.isOpen(session) {
			return true
		}
		return false
	}
	return true
}

func (s *memSessionStore) Insert(_ context.Context, dto attendance.InsertSessionDTO) (model.ID, error) {
	s.nextID++
	s.sessions[s.nextID] = &model.Session{
		ID:        s.nextID,
		CreatedAt: dto.TimeIn,
		UpdatedAt: dto.TimeIn,
		Account:   dto.Account,
		TimeIn:    dto.TimeIn,
		JobID:     dto.JobID,
		JobName:   dto.JobName,
	}
	return s.nextID, nil
}

func (s *memSessionStore) Update(_ context.Context, id model.ID, dto attendance.UpdateSessionDTO) error {
	session, ok := s.sessions[id]
	if !ok {
		return model.NewError("session", model.ErrNotFound)
	}

	if dto.TimeIn != nil {
		session.TimeIn = *dto.TimeIn
	}
	if dto.TimeOut != nil {
		out := *dto.TimeOut
		session.TimeOut = &out
	}
	if dto.InvalidatedAt != nil {
		at := *dto.InvalidatedAt
		session.InvalidatedAt = &at
	}
	if dto.InvalidationNotes != nil {
		notes := *dto.InvalidationNotes
		session.InvalidationNotes = &notes
	}
	if dto.ClearInvalidation {
		session.InvalidatedAt = nil
		session.InvalidationNotes = nil
	}

	return nil
}

func (s *memSessionStore) Delete(_ context.Context, id model.ID) error {
	delete(s.sessions, id)
	return nil
}

func (s *memSessionStore) CloseOpen(_ context.Context, account model.ID, dto attendance.CloseSessionDTO) (int, error) {
	closed := 0
	for _, session := range s.sessions {
		if session.Account != account || !s.isOpen(session) {
			continue
		}
		out := dto.TimeOut
		session.TimeOut = &out
		if dto.InvalidatedAt != nil {
			at := *dto.InvalidatedAt
			session.InvalidatedAt = &at
		}
		if dto.InvalidationNotes != nil {
			notes := *dto.InvalidationNotes
			session.InvalidationNotes = &notes
		}
		closed++
	}
	return closed, nil
}

func (s *memSessionStore) CloseAllOpenBefore(_ context.Context, cutoff time.Time) (int, error) {
	closed := 0
	for _, session := range s.sessions {
		if !s.isOpen(session) || !session.TimeIn.Before(cutoff) {
			continue
		}
		out := cutoff
		session.TimeOut = &out
		session.AutoClosed = true
		closed++
	}
	return closed, nil
}

func (s *memSessionStore) CountOverdue(_ context.Context, startOfToday time.Time) (int, error) {
	total := 0
	for _, session := range s.sessions {
		if s.isOpen(session) && session.TimeIn.Before(startOfToday) && session.InvalidatedAt == nil {
			total++
		}
	}
	return total, nil
}

func (s *memSessionStore) BulkCloseOpen(_ context.Context, ids []model.ID, closedAt time.Time) (int, error) {
	closed := 0
	for _, id := range ids {
		session, ok := s.sessions[id]
		if !ok || !s.isOpen(session) {
			continue
		}
		out := closedAt
		session.TimeOut = &out
		closed++
	}
	return closed, nil
}

func (s *memSessionStore) BulkFillMissingTimeOut(_ context.Context, ids []model.ID, after time.Duration) (int, error) {
	filled := 0
	for _, id := range ids {
		session, ok := s.sessions[id]
		if !ok || !s.isOpen(session) {
			continue
		}
		out := session.TimeIn.Add(after)
		session.TimeOut = &out
		filled++
	}
	return filled, nil
}

func (s *memSessionStore) BulkInvalidate(_ context.Context, ids []model.ID, at time.Time, notes string) (int, error) {
	invalidated := 0
	for _, id := range ids {
		session, ok := s.sessions[id]
		if !ok {
			continue
		}
		when, text := at, notes
		session.InvalidatedAt = &when
		session.InvalidationNotes = &text
		invalidated++
	}
	return invalidated, nil
}

func (s *memSessionStore) BulkRevalidate(_ context.Context, ids []model.ID) (int, error) {
	revalidated := 0
	for _, id := range ids {
		session, ok := s.sessions[id]
		if !ok {
			continue
		}
		session.InvalidatedAt = nil
		session.InvalidationNotes = nil
		revalidated++
	}
	return revalidated, nil
}

func (s *memSessionStore) BulkDelete(_ context.Context, ids []model.ID) (int, error) {
	deleted := 0
	for _, id := range ids {
		if _, ok := s.sessions[id]; ok {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *memSessionStore) BulkAdjustTimes(_ context.Context, ids []model.ID, dto attendance.AdjustTimesDTO) (int, error) {
	adjusted := 0
	for _, id := range ids {
		session, ok := s.sessions[id]
		if !ok {
			continue
		}
		if dto.TimeIn != nil {
			session.TimeIn = *dto.TimeIn
		}
		if dto.TimeOut != nil {
			out := *dto.TimeOut
			session.TimeOut = &out
		}
		adjusted++
	}
	return adjusted, nil
}

// openCount reports how many sessions the account currently holds
// open, sentinel included.
func (s *memSessionStore) openCount(account model.ID) int {
	count := 0
	for _, session := range s.sessions {
		if session.Account == account && s.isOpen(session) {
			count++
		}
	}
	return count
}

type memAccountDirectory struct {
	accounts []model.Account
}

func (d *memAccountDirectory) FindBySchoolID(_ context.Context, schoolID string) (model.Account, error) {
	for _, account := range d.accounts {
		if account.SchoolID == schoolID {
			return account, nil
		}
	}
	return model.Account{}, model.NewError("account", model.ErrNotFound)
}

func (d *memAccountDirectory) Get(_ context.Context, id model.ID) (model.Account, error) {
	for _, account := range d.accounts {
		if account.ID == id {
			return account, nil
		}
	}
	return model.Account{}, model.NewError("account", model.ErrNotFound)
}

func (d *memAccountDirectory) Find(_ context.Context, filter attendance.AccountFilter) ([]model.Account, error) {
	matched := []model.Account{}
	for _, account := range d.accounts {
		if len(filter.Roles) > 0 {
			found := false
			for _, role := range filter.Roles {
				if account.Role == role {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if filter.Suspended != nil && account.Suspended() != *filter.Suspended {
			continue
		}
		if filter.Department != nil && (account.Department == nil || *account.Department != *filter.Department) {
			continue
		}
		matched = append(matched, account)
	}
	return matched, nil
}

type memJobDirectory struct {
	assignments map[model.ID]model.JobAssignment
}

func (d *memJobDirectory) CurrentAssignment(_ context.Context, account model.ID) (model.JobAssignment, error) {
	assignment, ok := d.assignments[account]
	if !ok {
		return model.JobAssignment{}, model.NewError("job assignment", model.ErrNotFound)
	}
	return assignment, nil
}

func (d *memJobDirectory) Assignments(_ context.Context) (map[model.ID]model.JobAssignment, error) {
	return d.assignments, nil
}

type memAdjustmentStore struct {
	nextID      model.ID
	adjustments map[model.ID]model.TimeAdjustment
}

func newMemAdjustmentStore() *memAdjustmentStore {
	return &memAdjustmentStore{adjustments: make(map[model.ID]model.TimeAdjustment)}
}

func (s *memAdjustmentStore) Get(_ context.Context, id model.ID) (model.TimeAdjustment, error) {
	adjustment, ok := s.adjustments[id]
	if !ok {
		return model.TimeAdjustment{}, model.NewError("adjustment", model.ErrNotFound)
	}
	return adjustment, nil
}

func (s *memAdjustmentStore) Find(_ context.Context, account *model.ID, _ attendance.FindOptions) ([]model.TimeAdjustment, error) {
	matched := []model.TimeAdjustment{}
	for _, adjustment := range s.adjustments {
		if account != nil && adjustment.Account != *account {
			continue
		}
		matched = append(matched, adjustment)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, nil
}

func (s *memAdjustmentStore) Count(_ context.Context, account *model.ID) (int, error) {
	items, _ := s.Find(context.Background(), account, attendance.FindOptions{})
	return len(items), nil
}

func (s *memAdjustmentStore) Insert(_ context.Context, dto attendance.InsertAdjustmentDTO) (model.ID, error) {
	s.nextID++
	s.adjustments[s.nextID] = model.TimeAdjustment{
		ID:      s.nextID,
		Account: dto.Account,
		Manager: dto.Manager,
		Minutes: dto.Minutes,
		Reason:  dto.Reason,
	}
	return s.nextID, nil
}

func (s *memAdjustmentStore) Delete(_ context.Context, id model.ID) error {
	delete(s.adjustments, id)
	return nil
}

func (s *memAdjustmentStore) SumsByAccount(_ context.Context, from, to *time.Time) (map[model.ID]int, error) {
	sums := make(map[model.ID]int)
	for _, adjustment := range s.adjustments {
		if from != nil && adjustment.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && adjustment.CreatedAt.After(*to) {
			continue
		}
		sums[adjustment.Account] += adjustment.Minutes
	}
	return sums, nil
}
