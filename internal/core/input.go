package core

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmptyEmail    = errors.New("email is required")
	ErrInvalidEmail  = errors.New("invalid email")
	ErrEmptyPassword = errors.New("password is required")
	ErrEmptyName     = errors.New("name is required")
	ErrEmptyCategory = errors.New("category is required")
)

// Request payloads. Validate mirrors the backend's rules so the CLI can fail
// fast; the stores and API wrappers never call it.
type (
	SignupInput struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Nickname string `json:"nickname"`
	}

	LoginInput struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	AccountInput struct {
		Name    string `json:"name"`
		Balance int64  `json:"balance"`
	}

	CategoryInput struct {
		Name string       `json:"name"`
		Type CategoryType `json:"type"`
	}

	CategoryUpdate struct {
		Name string `json:"name"`
	}

	TransactionInput struct {
		AccountID       int64        `json:"accountId,omitempty"`
		CategoryID      int64        `json:"categoryId"`
		Type            CategoryType `json:"type,omitempty"`
		Amount          int64        `json:"amount"`
		Description     string       `json:"description,omitempty"`
		TransactionDate Date         `json:"transactionDate"`
	}

	TransactionFilter struct {
		StartDate  Date
		EndDate    Date
		AccountID  int64
		Type       CategoryType
		CategoryID int64
		Keyword    string
		MinAmount  int64
		MaxAmount  int64
	}

	ExportFilter struct {
		StartDate Date
		EndDate   Date
	}
)

func (in SignupInput) Validate() error {
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if n := utf8.RuneCountInString(in.Password); n < 4 || n > 20 {
		return errors.New("password must be between 4 and 20 characters")
	}
	if strings.TrimSpace(in.Nickname) == "" {
		return errors.New("nickname is required")
	}
	if utf8.RuneCountInString(in.Nickname) > 50 {
		return errors.New("nickname too long (max 50 characters)")
	}
	return nil
}

func (in LoginInput) Validate() error {
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if in.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}

func (in AccountInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(in.Name) > 100 {
		return errors.New("account name too long (max 100 characters)")
	}
	if in.Balance < 0 {
		return fmt.Errorf("%w: balance must not be negative", ErrInvalidAmount)
	}
	return nil
}

func (in CategoryInput) Validate() error {
	if err := (CategoryUpdate{Name: in.Name}).Validate(); err != nil {
		return err
	}
	return in.Type.Validate()
}

func (in CategoryUpdate) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(in.Name) > 50 {
		return errors.New("category name too long (max 50 characters)")
	}
	return nil
}

func (in TransactionInput) Validate() error {
	if in.CategoryID <= 0 {
		return ErrEmptyCategory
	}
	if in.Type != "" {
		if err := in.Type.Validate(); err != nil {
			return err
		}
	}
	if in.Amount < 1 {
		return fmt.Errorf("%w: must be at least 1", ErrInvalidAmount)
	}
	if utf8.RuneCountInString(in.Description) > 255 {
		return errors.New("description too long (max 255 characters)")
	}
	if in.TransactionDate.IsZero() {
		return fmt.Errorf("%w: transaction date is required", ErrInvalidDate)
	}
	return nil
}

// Query encodes the non-zero filter fields using the backend's parameter names.
func (f TransactionFilter) Query() url.Values {
	q := url.Values{}
	if !f.StartDate.IsZero() {
		q.Set("startDate", f.StartDate.String())
	}
	if !f.EndDate.IsZero() {
		q.Set("endDate", f.EndDate.String())
	}
	if f.AccountID > 0 {
		q.Set("accountId", strconv.FormatInt(f.AccountID, 10))
	}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.CategoryID > 0 {
		q.Set("categoryId", strconv.FormatInt(f.CategoryID, 10))
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		q.Set("keyword", kw)
	}
	if f.MinAmount > 0 {
		q.Set("minAmount", strconv.FormatInt(f.MinAmount, 10))
	}
	if f.MaxAmount > 0 {
		q.Set("maxAmount", strconv.FormatInt(f.MaxAmount, 10))
	}
	return q
}

func (f ExportFilter) Query() url.Values {
	q := url.Values{}
	if !f.StartDate.IsZero() {
		q.Set("startDate", f.StartDate.String())
	}
	if !f.EndDate.IsZero() {
		q.Set("endDate", f.EndDate.String())
	}
	return q
}

func (f ExportFilter) Validate() error {
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.EndDate.Before(f.StartDate.Time) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidDate)
	}
	return nil
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return ErrEmptyEmail
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return fmt.Errorf("%w %q", ErrInvalidEmail, s)
	}
	return nil
}
