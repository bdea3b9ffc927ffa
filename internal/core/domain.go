package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

const (
	Income  CategoryType = "INCOME"
	Expense CategoryType = "EXPENSE"
)

type (
	CategoryType string

	// Date is a calendar day serialised as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	User struct {
		ID       int64  `json:"id,omitempty"`
		Email    string `json:"email"`
		Nickname string `json:"nickname,omitempty"`
		Role     string `json:"role,omitempty"`
	}

	// Credential is the held session: the bearer token, the refresh token the
	// backend hands out as a cookie, and the user record.
	Credential struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken,omitempty"`
		User         *User  `json:"user,omitempty"`
	}

	Account struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Balance int64  `json:"balance"`
	}

	Category struct {
		ID   int64        `json:"id"`
		Name string       `json:"name"`
		Type CategoryType `json:"type"`
	}

	Transaction struct {
		ID              int64        `json:"id"`
		AccountID       int64        `json:"accountId,omitempty"`
		AccountName     string       `json:"accountName,omitempty"`
		Type            CategoryType `json:"type"`
		CategoryID      int64        `json:"categoryId"`
		CategoryName    string       `json:"categoryName,omitempty"`
		Amount          int64        `json:"amount"`
		Description     string       `json:"description,omitempty"`
		TransactionDate Date         `json:"transactionDate"`
	}

	AccountSummary struct {
		TotalBalance int64     `json:"totalBalance"`
		AccountCount int       `json:"accountCount"`
		Accounts     []Account `json:"accounts"`
	}

	CategorySummary struct {
		CategoryName string  `json:"categoryName"`
		Amount       int64   `json:"amount"`
		Percentage   float64 `json:"percentage"`
	}

	MonthlySummary struct {
		Year           int               `json:"year"`
		Month          int               `json:"month"`
		TotalIncome    int64             `json:"totalIncome"`
		TotalExpense   int64             `json:"totalExpense"`
		Balance        int64             `json:"balance"`
		IncomeSummary  []CategorySummary `json:"incomeSummary"`
		ExpenseSummary []CategorySummary `json:"expenseSummary"`
	}

	DailySummary struct {
		TransactionDate Date  `json:"transactionDate"`
		TotalIncome     int64 `json:"totalIncome"`
		TotalExpense    int64 `json:"totalExpense"`
	}

	Dashboard struct {
		TotalBalance       int64         `json:"totalBalance"`
		MonthlyIncome      int64         `json:"monthlyIncome"`
		MonthlyExpense     int64         `json:"monthlyExpense"`
		RecentTransactions []Transaction `json:"recentTransactions"`
	}
)

var (
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidCategoryType = errors.New("invalid category type")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w %q: want YYYY-MM-DD", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decode date: %w", err)
	}
	// Some responses carry a full timestamp; keep the calendar day.
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseCategoryType accepts either case.
func ParseCategoryType(s string) (CategoryType, error) {
	switch CategoryType(strings.ToUpper(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", fmt.Errorf("%w %q: must be INCOME or EXPENSE", ErrInvalidCategoryType, s)
}

func (c CategoryType) Validate() error {
	if c != Income && c != Expense {
		return fmt.Errorf("%w %q", ErrInvalidCategoryType, string(c))
	}
	return nil
}

// DisplayName returns the nickname when present, else the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Email
}

// YearMonth validates a reporting period.
func YearMonth(year, month int) error {
	if year < 1900 || year > 9999 {
		return fmt.Errorf("invalid year %d", year)
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}
