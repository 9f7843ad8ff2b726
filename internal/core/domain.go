package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// MaxNameLength bounds the bill name, counted in characters.
const MaxNameLength = 200

// DefaultPct is the VAT percentage applied when the form leaves it empty.
const DefaultPct = 20

// ExpenseTypes is the closed vocabulary of bill categories offered by the form.
var ExpenseTypes = []string{
	"Transports",
	"Restaurants et bars",
	"Hôtel et logement",
	"Services en ligne",
	"IT et électronique",
	"Equipement et matériel",
	"Fournitures de bureau",
}

type (
	Status string

	Date struct {
		time.Time
	}

	Bill struct {
		ID         string // Assigned by the store on Create
		Email      string // Owner, taken from the session
		Type       string
		Name       string
		Date       Date
		Amount     int64
		VAT        int64
		Pct        int
		Commentary string
		FileURL    string
		FileName   string
		Status     Status
	}
)

var (
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidVAT     = errors.New("invalid vat")
	ErrInvalidPct     = errors.New("invalid pct")
	ErrEmptyName      = errors.New("empty name")
	ErrNameTooLong    = errors.New("name too long")
	ErrEmptyEmail     = errors.New("empty email")
	ErrUnknownType    = errors.New("unknown expense type")
	ErrUnknownStatus  = errors.New("unknown status")
	ErrIncompleteFile = errors.New("file url and file name must be set together")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseISODate parses the canonical YYYY-MM-DD form.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse(isoLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO returns the canonical sortable form, empty for the zero date.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(isoLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRefused:
		return true
	}
	return false
}

// IsExpenseType reports whether t belongs to ExpenseTypes.
func IsExpenseType(t string) bool {
	for _, v := range ExpenseTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IsDraft reports whether the bill has not been persisted yet.
func (b Bill) IsDraft() bool {
	return b.ID == ""
}

// HasFile reports whether an attachment has been recorded on the bill.
func (b Bill) HasFile() bool {
	return b.FileURL != "" && b.FileName != ""
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.Email) == "" {
		return ErrEmptyEmail
	}
	if !IsExpenseType(b.Type) {
		return ErrUnknownType
	}
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(b.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if err := b.Date.Validate(); err != nil {
		return err
	}
	if b.Amount < 0 {
		return ErrInvalidAmount
	}
	if b.VAT < 0 {
		return ErrInvalidVAT
	}
	if b.Pct < 0 || b.Pct > 100 {
		return ErrInvalidPct
	}
	if (b.FileURL == "") != (b.FileName == "") {
		return ErrIncompleteFile
	}
	if b.Status != "" && !b.Status.Valid() {
		return ErrUnknownStatus
	}
	return nil
}

// Draft returns a copy of b with the attachment fields cleared, suitable for
// the initial Create.
func (b Bill) Draft() Bill {
	b.FileURL = ""
	b.FileName = ""
	return b
}
