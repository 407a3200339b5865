package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	PriorityVeryHigh Priority = "very high"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

const (
	CategoryFurniture     Category = "Furniture"
	CategoryGroceries     Category = "Groceries"
	CategoryRent          Category = "Rent"
	CategoryEntertainment Category = "Entertainment"
	CategorySavings       Category = "Savings"
	CategoryOther         Category = "Other"
)

const (
	PersonA Person = "A"
	PersonB Person = "B"
)

// DateLayout is the textual form of a budget date at every boundary.
const DateLayout = "2006-01-02"

type (
	Priority string
	Category string
	Person   string

	// Date is a civil date; the time-of-day part is always midnight UTC.
	Date struct {
		time.Time
	}

	// Record is one logged shared expense.
	Record struct {
		ID         string
		Item       string
		Category   Category
		Total      float64
		ShareA     float64
		ShareB     float64
		Priority   Priority
		BudgetDate Date
		Recurring  bool
		CreatedBy  Person
		Deleted    bool
	}
)

var (
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidPerson   = errors.New("invalid person")
	ErrInvalidDate     = errors.New("invalid date")
	ErrNegativeTotal   = errors.New("total cannot be negative")
	ErrEmptyItem       = errors.New("empty item")
)

var (
	priorities = []Priority{PriorityVeryHigh, PriorityHigh, PriorityMedium, PriorityLow}
	categories = []Category{
		CategoryFurniture, CategoryGroceries, CategoryRent,
		CategoryEntertainment, CategorySavings, CategoryOther,
	}
)

// Priorities lists the priorities from most to least severe.
func Priorities() []Priority {
	return append([]Priority(nil), priorities...)
}

// Categories lists the known expense categories.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

func (p Priority) IsValid() bool {
	return p.Severity() > 0
}

// Severity orders priorities: 4 for "very high" down to 1 for "low", 0 if unknown.
func (p Priority) Severity() int {
	for i, known := range priorities {
		if p == known {
			return len(priorities) - i
		}
	}
	return 0
}

// ParsePriority matches s case-insensitively against the known priorities.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	for _, p := range priorities {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

func (c Category) IsValid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

func (p Person) IsValid() bool {
	return p == PersonA || p == PersonB
}

// ParsePerson accepts "A"/"B" or one of the configured display names.
func ParsePerson(s string, names map[Person]string) (Person, error) {
	s = strings.TrimSpace(s)
	for _, p := range []Person{PersonA, PersonB} {
		if strings.EqualFold(s, string(p)) || (names[p] != "" && strings.EqualFold(s, names[p])) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPerson, s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthName returns the English month name, e.g. "July".
func (d Date) MonthName() string {
	return d.Time.Month().String()
}

// DefaultBudgetDate is the first of the current month for "very high"
// priority and today for everything else.
func DefaultBudgetDate(p Priority, now time.Time) Date {
	today := DateOf(now)
	if p == PriorityVeryHigh {
		return NewDate(today.Year(), int(today.Time.Month()), 1)
	}
	return today
}

// Month is derived from BudgetDate and never stored.
func (r Record) Month() string {
	return r.BudgetDate.MonthName()
}

// ShareOf returns the share belonging to p.
func (r Record) ShareOf(p Person) float64 {
	if p == PersonB {
		return r.ShareB
	}
	return r.ShareA
}

// Validate checks enum membership and amounts; it does not check the share
// invariant, since shareA may legitimately exceed the total.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Item) == "" {
		return ErrEmptyItem
	}
	if r.Total < 0 {
		return ErrNegativeTotal
	}
	if !r.Category.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, r.Category)
	}
	if !r.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, r.Priority)
	}
	if !r.CreatedBy.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPerson, r.CreatedBy)
	}
	if r.BudgetDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}
