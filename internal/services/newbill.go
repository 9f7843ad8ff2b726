package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"billed/internal/attachments"
	"billed/internal/core"
	"billed/internal/session"
	"billed/internal/store"
)

// State of an in-progress bill submission.
type State int

const (
	NoFile State = iota
	FileInvalid
	FileValid
	Submitting
	Submitted
	SubmitFailed
)

func (s State) String() string {
	switch s {
	case NoFile:
		return "no_file"
	case FileInvalid:
		return "file_invalid"
	case FileValid:
		return "file_valid"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	case SubmitFailed:
		return "submit_failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Fields are the raw values typed in the bill form.
type Fields struct {
	Type       string
	Name       string
	Date       string // YYYY-MM-DD
	Amount     string
	VAT        string
	Pct        string
	Commentary string
}

// Bill parses the fields into a pending draft owned by email.
func (f Fields) Bill(email string) (core.Bill, error) {
	date, err := core.ParseISODate(f.Date)
	if err != nil {
		return core.Bill{}, err
	}
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return core.Bill{}, err
	}
	vat, err := core.ParseVAT(f.VAT)
	if err != nil {
		return core.Bill{}, err
	}
	pct, err := core.ParsePct(f.Pct)
	if err != nil {
		return core.Bill{}, err
	}
	b := core.Bill{
		Email:      email,
		Type:       strings.TrimSpace(f.Type),
		Name:       strings.TrimSpace(f.Name),
		Date:       date,
		Amount:     amount,
		VAT:        vat,
		Pct:        pct,
		Commentary: strings.TrimSpace(f.Commentary),
		Status:     core.StatusPending,
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	return b, nil
}

// NewBillDeps are the collaborators of a NewBill controller.
type NewBillDeps struct {
	Store    store.Store
	Uploader attachments.Uploader
	Session  session.Context
	Navigate Navigator
	Notifier Notifier // optional
	Logger   *slog.Logger
}

// NewBill drives one bill from file selection to submission.
//
// A NewBill is not safe for concurrent use: a second SelectFile or Submit
// issued before the previous call returns is a race the caller must prevent.
type NewBill struct {
	deps     NewBillDeps
	state    State
	file     *attachments.File
	fileName string
	billID   string
}

func OpenNewBill(deps NewBillDeps) *NewBill {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Navigate == nil {
		deps.Navigate = func(string) {}
	}
	return &NewBill{deps: deps, state: NoFile}
}

func (nb *NewBill) State() State      { return nb.state }
func (nb *NewBill) IsFileValid() bool { return nb.state == FileValid }

// FileError reports whether the invalid file indicator must be shown. It
// stays set until a valid file replaces the rejected one.
func (nb *NewBill) FileError() bool { return nb.state == FileInvalid }

func (nb *NewBill) FileName() string { return nb.fileName }
func (nb *NewBill) BillID() string   { return nb.billID }

// SelectFile validates f and makes it the pending proof when accepted.
func (nb *NewBill) SelectFile(f attachments.File) {
	if !core.IsAcceptable(f.ContentType) {
		nb.state = FileInvalid
		nb.file = nil
		nb.fileName = ""
		nb.deps.Logger.Debug("Rejected proof file",
			"file_name", f.Name, "content_type", f.ContentType)
		return
	}
	nb.state = FileValid
	nb.file = &f
	nb.fileName = f.Name
}

// Submit uploads the pending proof and persists the bill.
//
// It reports false with a nil error when no valid file is selected; nothing
// is uploaded or stored in that case. Field errors leave the controller in
// FileValid so the form can be corrected.
func (nb *NewBill) Submit(ctx context.Context, fields Fields) (bool, error) {
	if nb.state != FileValid || nb.file == nil {
		nb.deps.Logger.InfoContext(ctx, "Submit refused", "state", nb.state.String())
		return false, nil
	}
	bill, err := fields.Bill(nb.deps.Session.Email())
	if err != nil {
		return false, err
	}

	nb.state = Submitting
	att, err := nb.deps.Uploader.Upload(ctx, bill.Email, *nb.file)
	if err != nil {
		nb.state = SubmitFailed
		nb.deps.Logger.ErrorContext(ctx, "Proof upload failed",
			"file_name", nb.fileName, "error", err)
		return false, err
	}
	bill.FileURL = att.URL
	bill.FileName = att.Name

	if _, err := nb.CreateBill(ctx, bill); err != nil {
		return false, err
	}
	return true, nil
}

// CreateBill stores the draft, remembers its ID and attaches the file through
// UpdateBill. Store errors are returned as is.
func (nb *NewBill) CreateBill(ctx context.Context, bill core.Bill) (core.Bill, error) {
	created, err := nb.deps.Store.Bills().Create(ctx, bill.Draft())
	if err != nil {
		nb.state = SubmitFailed
		nb.deps.Logger.ErrorContext(ctx, "Create bill failed", "error", err)
		return core.Bill{}, err
	}
	nb.billID = created.ID
	if bill.Status == "" {
		bill.Status = created.Status
	}
	return nb.UpdateBill(ctx, bill)
}

// UpdateBill persists bill under the remembered ID and navigates to the
// bills list on success. Store errors are returned as is.
func (nb *NewBill) UpdateBill(ctx context.Context, bill core.Bill) (core.Bill, error) {
	if nb.billID != "" {
		bill.ID = nb.billID
	}
	updated, err := nb.deps.Store.Bills().Update(ctx, bill)
	if err != nil {
		nb.state = SubmitFailed
		nb.deps.Logger.ErrorContext(ctx, "Update bill failed", "bill_id", bill.ID, "error", err)
		return core.Bill{}, err
	}
	nb.state = Submitted
	nb.deps.Logger.InfoContext(ctx, "Bill submitted", "bill_id", updated.ID, "type", updated.Type)

	if nb.deps.Notifier != nil {
		if err := nb.deps.Notifier.BillSubmitted(ctx, updated); err != nil {
			nb.deps.Logger.WarnContext(ctx, "Failed to publish bill submitted event",
				"bill_id", updated.ID, "error", err)
		}
	}
	nb.deps.Navigate(RouteBills)
	return updated, nil
}

// GetBills returns every stored bill, errors untouched.
func (nb *NewBill) GetBills(ctx context.Context) ([]core.Bill, error) {
	return nb.deps.Store.Bills().List(ctx)
}
