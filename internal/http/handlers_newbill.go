package http

import (
	"errors"
	"net/http"
	"time"

	"billed/internal/attachments"
	"billed/internal/core"
	applog "billed/internal/log"
	"billed/internal/services"
)

// fileStatus drives the file_status template.
type fileStatus struct {
	Error bool
	Name  string
}

type newBillPage struct {
	pageData
	ExpenseTypes []string
	Today        string
	File         fileStatus
}

// fieldErrors maps validation errors to the message shown under the form.
var fieldErrors = []struct {
	err error
	msg string
}{
	{core.ErrInvalidDate, "Date invalide"},
	{core.ErrInvalidAmount, "Montant invalide"},
	{core.ErrInvalidVAT, "TVA invalide"},
	{core.ErrInvalidPct, "Pourcentage de TVA invalide"},
	{core.ErrEmptyName, "Le nom de la dépense est obligatoire"},
	{core.ErrNameTooLong, "Le nom de la dépense est trop long (200 caractères maximum)"},
	{core.ErrUnknownType, "Type de dépense inconnu"},
	{core.ErrEmptyEmail, "Session invalide, reconnectez-vous"},
	{attachments.ErrEmptyFile, "Le justificatif est vide"},
	{attachments.ErrUnacceptable, "Seuls les fichiers jpg, jpeg et png sont acceptés"},
	{attachments.ErrFileTooLarge, "Le justificatif est trop volumineux"},
}

func fieldErrorMessage(err error) (string, bool) {
	for _, fe := range fieldErrors {
		if errors.Is(err, fe.err) {
			return fe.msg, true
		}
	}
	return "", false
}

func (s *Server) handleNewBillPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "newbill.html", newBillPage{
		pageData:     newPageData(r, "Nouvelle note de frais"),
		ExpenseTypes: core.ExpenseTypes,
		Today:        time.Now().Format("2006-01-02"),
	})
}

// handleCreateBill runs one NewBill controller over the posted form: the
// proof is selected, then the bill is submitted. Navigation requested by
// the controller becomes an HX-Redirect.
func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.WithComponent(applog.FromContext(ctx), applog.ComponentBills)

	form, err := parseBillForm(w, r, s.opts.MaxUploadBytes)
	if err != nil {
		if msg, ok := fieldErrorMessage(err); ok {
			UnprocessableEntityError(msg).Write(w)
			return
		}
		logger.WarnContext(ctx, "Invalid bill form", applog.FieldError, err)
		BadRequestError("Formulaire invalide").Write(w)
		return
	}

	var target string
	nb := services.OpenNewBill(services.NewBillDeps{
		Store:    s.deps.Store,
		Uploader: s.deps.Uploader,
		Session:  currentSession(r),
		Navigate: func(route string) { target = route },
		Notifier: s.deps.Notifier,
		Logger:   logger,
	})
	if form.File != nil {
		nb.SelectFile(*form.File)
	}

	ok, err := nb.Submit(ctx, form.Fields)
	if err != nil {
		if msg, isField := fieldErrorMessage(err); isField {
			UnprocessableEntityError(msg).Write(w)
			return
		}
		InternalServerError(err.Error()).Write(w)
		return
	}
	if !ok {
		w.Header().Set("HX-Retarget", "#file-status")
		s.render(w, r, http.StatusUnprocessableEntity, "file_status", fileStatus{Error: true})
		return
	}

	if target == "" {
		target = services.RouteBills
	}
	if !isHTMX(r) {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}
	NewHTMXResponse().
		Redirect(target).
		TriggerBillSubmitted(nb.BillID()).
		TriggerSuccessNotification("Note de frais envoyée").
		Write(w)
}

// handleFileCheck validates the selected proof and renders the indicator.
func (s *Server) handleFileCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(formOverhead); err != nil {
		BadRequestError("Formulaire invalide").Write(w)
		return
	}
	file, err := readFormFile(r, formFileField, s.opts.MaxUploadBytes)
	if err != nil {
		if msg, ok := fieldErrorMessage(err); ok {
			UnprocessableEntityError(msg).Write(w)
			return
		}
		BadRequestError("Formulaire invalide").Write(w)
		return
	}

	nb := services.OpenNewBill(services.NewBillDeps{Logger: applog.FromContext(ctx)})
	if file != nil {
		nb.SelectFile(*file)
	}
	s.render(w, r, http.StatusOK, "file_status", fileStatus{Error: nb.FileError(), Name: nb.FileName()})
}
