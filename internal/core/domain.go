package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Direction = "income"
	Expense Direction = "expense"
)

const (
	Monthly   Period = "monthly"
	Quarterly Period = "quarterly"
	Yearly    Period = "yearly"
)

type (
	// Direction is the sign of a record or budget: income adds, expense subtracts.
	Direction string

	// Period is the granularity of a budget target.
	Period string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Ledger is an isolated accounting scope ("book"). It exclusively owns
	// its records and budgets.
	Ledger struct {
		ID          int64     `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// Member is a person recording against a ledger. LedgerID is nil for
	// globally scoped members.
	Member struct {
		ID        int64     `json:"id"`
		LedgerID  *int64    `json:"ledgerId"`
		Name      string    `json:"name"`
		Avatar    string    `json:"avatar"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// Record is a single dated income or expense entry. Amount is a
	// non-negative magnitude; Direction supplies the sign at aggregation time.
	Record struct {
		ID        int64     `json:"id"`
		LedgerID  int64     `json:"ledgerId"`
		MemberID  *int64    `json:"memberId"`
		Direction Direction `json:"direction"`
		Category  string    `json:"category"`
		Amount    Money     `json:"amount"`
		Date      Date      `json:"date"`
		Note      string    `json:"note"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// Budget is a target amount for one category within one period instance.
	// Date anchors the instance (its year, and month for monthly budgets).
	Budget struct {
		ID        int64     `json:"id"`
		LedgerID  int64     `json:"ledgerId"`
		MemberID  *int64    `json:"memberId"`
		Direction Direction `json:"direction"`
		Category  string    `json:"category"`
		Amount    Money     `json:"amount"`
		Period    Period    `json:"period"`
		Date      Date      `json:"date"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyCategory    = errors.New("empty category")
	ErrMissingLedger    = errors.New("missing ledger id")
)

func (d Direction) Validate() error {
	switch d {
	case Income, Expense:
		return nil
	}
	return ErrInvalidDirection
}

func (p Period) Validate() error {
	switch p {
	case Monthly, Quarterly, Yearly:
		return nil
	}
	return ErrInvalidPeriod
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the calendar month, 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// String renders the date in ISO form (YYYY-MM-DD), the storage and wire format.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MarshalJSON writes the date in ISO form.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON reads an ISO date string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO date string (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Validate rejects negative amounts. Zero is allowed: records store
// non-negative magnitudes and a zero magnitude is harmless in aggregation.
func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (l Ledger) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	if len(l.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if len(m.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}

func (r Record) Validate() error {
	if r.LedgerID == 0 {
		return ErrMissingLedger
	}
	if err := r.Direction.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if err := r.Date.Validate(); err != nil {
		return err
	}
	if len(r.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}

func (b Budget) Validate() error {
	if b.LedgerID == 0 {
		return ErrMissingLedger
	}
	if err := b.Direction.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if err := b.Period.Validate(); err != nil {
		return err
	}
	return b.Date.Validate()
}
