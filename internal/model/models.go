package model

import "time"

type ID = uint

type Role string

const (
	RoleStudent Role = "student"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Account is owned by the account directory; the attendance core only
// reads the fields it needs to admit or refuse a punch.
type Account struct {
	ID        ID        `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	SchoolID  string `json:"schoolId" db:"school_id"`
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`

	Role        Role       `json:"role" db:"role"`
	Department  *string    `json:"department,omitempty" db:"department"`
	SuspendedAt *time.Time `json:"suspendedAt,omitempty" db:"suspended_at"`
}

func (a Account) DisplayName() string {
	name := a.FirstName
	if a.LastName != "" {
		if name != "" {
			name += " "
		}
		name += a.LastName
	}
	return name
}

func (a Account) Suspended() bool {
	return a.SuspendedAt != nil
}

// JobAssignment is the single current job of an account, owned by the
// job directory.
type JobAssignment struct {
	JobID   ID     `json:"jobId" db:"job_id"`
	JobName string `json:"jobName" db:"job_name"`
}

// Session is one attendance interval. A nil TimeOut marks the session
// open; there is at most one open session per account at a time.
type Session struct {
	ID        ID        `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Account ID         `json:"accountId" db:"account_id"`
	TimeIn  time.Time  `json:"timeIn" db:"time_in"`
	TimeOut *time.Time `json:"timeOut" db:"time_out"`

	// Job snapshot taken at punch-in. A later reassignment must not
	// rewrite history, so these are plain columns, not a reference.
	JobID   ID     `json:"jobId" db:"job_id"`
	JobName string `json:"jobName" db:"job_name"`

	AutoClosed bool `json:"autoClosed" db:"auto_closed"`

	InvalidatedAt     *time.Time `json:"invalidatedAt,omitempty" db:"invalidated_at"`
	InvalidationNotes *string    `json:"invalidationNotes,omitempty" db:"invalidation_notes"`
}

func (s Session) Open() bool {
	return s.TimeOut == nil
}

func (s Session) Invalidated() bool {
	return s.InvalidatedAt != nil
}

// Duration reports the session length and whether it is defined (closed).
func (s Session) Duration() (time.Duration, bool) {
	if s.TimeOut == nil {
		return 0, false
	}
	return s.TimeOut.Sub(s.TimeIn), true
}

// TimeAdjustment is a signed manual correction in minutes, additive to
// aggregated totals. It never mutates session rows.
type TimeAdjustment struct {
	ID        ID        `json:"id" db:"id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	Account ID     `json:"accountId" db:"account_id"`
	Manager ID     `json:"managerId" db:"manager_id"`
	Minutes int    `json:"adjustmentMinutes" db:"adjustment_minutes"`
	Reason  string `json:"reason" db:"reason"`
}
