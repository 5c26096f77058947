package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	CommitteeTypeCommittee CommitteeType = "committee"
	CommitteeTypeExecutive CommitteeType = "executive"
	CommitteeTypeOther     CommitteeType = "other"
)

type (
	CommitteeType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Committee is an organizational sub-unit that owns a budget and
	// incurs or generates transactions.
	Committee struct {
		ID   int64
		Name string
		Type CommitteeType
	}

	// Term is a named academic period with a fixed date range, the unit
	// of time-based financial reporting.
	Term struct {
		ID        string // e.g. "FA24"
		Semester  string // e.g. "Fall 2024"
		StartDate Date
		EndDate   Date
	}

	// Budget is the allocated spending ceiling for one committee in one term.
	Budget struct {
		ID          int64
		TermID      string
		CommitteeID int64
		Amount      Money
	}

	// Transaction is a single ledger entry. Amount is signed: positive is
	// income, negative is expense. BudgetCategory references a Committee ID;
	// zero means uncategorized. A zero Date means missing or unparseable.
	Transaction struct {
		ID             int64
		Date           Date
		Amount         Money
		Details        string
		Purpose        string
		BudgetCategory int64
		Account        string
	}

	// Snapshot is one immutable read of the four source tables, held for
	// the duration of a single report evaluation.
	Snapshot struct {
		Committees   []Committee
		Terms        []Term
		Budgets      []Budget
		Transactions []Transaction
	}
)

var (
	ErrInvalidTermRange   = errors.New("term start date after end date")
	ErrEmptyTermID        = errors.New("empty term id")
	ErrInvalidSemester    = errors.New("invalid semester name")
	ErrNegativeBudget     = errors.New("negative budget amount")
	ErrEmptyCommitteeName = errors.New("empty committee name")
)

// NewDate creates a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD, or "" for a zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (ct CommitteeType) Valid() bool {
	switch ct {
	case CommitteeTypeCommittee, CommitteeTypeExecutive, CommitteeTypeOther:
		return true
	}
	return false
}

func (c Committee) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCommitteeName
	}
	if !c.Type.Valid() {
		return errors.New("invalid committee type: " + string(c.Type))
	}
	return nil
}

var (
	semesterYearRe  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	semesterSeasons = []string{"fall", "spring", "summer", "winter"}
)

// ValidateSemesterName checks the display-name convention for terms: a
// season prefix followed by a four-digit year, e.g. "Fall 2024".
func ValidateSemesterName(name string) error {
	lower := strings.ToLower(strings.TrimSpace(name))
	seasonOK := false
	for _, season := range semesterSeasons {
		if strings.HasPrefix(lower, season) {
			seasonOK = true
			break
		}
	}
	if !seasonOK || !semesterYearRe.MatchString(name) {
		return ErrInvalidSemester
	}
	return nil
}

func (t Term) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyTermID
	}
	if err := ValidateSemesterName(t.Semester); err != nil {
		return err
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return errors.New("term dates cannot be zero")
	}
	if t.EndDate.Before(t.StartDate) {
		return ErrInvalidTermRange
	}
	return nil
}

// Contains reports whether d falls inside the term's date range,
// inclusive on both ends. A zero date is never contained.
func (t Term) Contains(d Date) bool {
	if d.IsZero() {
		return false
	}
	return !d.Before(t.StartDate) && !d.After(t.EndDate)
}

// Overlaps reports whether two terms' date ranges intersect.
func (t Term) Overlaps(other Term) bool {
	return !t.EndDate.Before(other.StartDate) && !other.EndDate.Before(t.StartDate)
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.TermID) == "" {
		return ErrEmptyTermID
	}
	if b.CommitteeID <= 0 {
		return errors.New("budget requires a committee id")
	}
	if b.Amount.Cents < 0 {
		return ErrNegativeBudget
	}
	return nil
}

// IsIncome reports whether the transaction amount is positive.
func (tx Transaction) IsIncome() bool {
	return tx.Amount.Cents > 0
}

// IsExpense reports whether the transaction amount is negative.
func (tx Transaction) IsExpense() bool {
	return tx.Amount.Cents < 0
}

// CommitteeByID returns the committee with the given ID, or nil.
func (s Snapshot) CommitteeByID(id int64) *Committee {
	for i := range s.Committees {
		if s.Committees[i].ID == id {
			return &s.Committees[i]
		}
	}
	return nil
}

// CommitteeByName returns the committee with the given name, or nil.
func (s Snapshot) CommitteeByName(name string) *Committee {
	for i := range s.Committees {
		if s.Committees[i].Name == name {
			return &s.Committees[i]
		}
	}
	return nil
}

// TermByID returns the term with the given ID, or nil.
func (s Snapshot) TermByID(id string) *Term {
	for i := range s.Terms {
		if s.Terms[i].ID == id {
			return &s.Terms[i]
		}
	}
	return nil
}
