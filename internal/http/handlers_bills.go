package http

import (
	"net/http"

	"billed/internal/core"
	applog "billed/internal/log"
	"billed/internal/services"
)

func (s *Server) handleBillsPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "bills.html", newPageData(r, "Notes de frais"))
}

// handleBillsPartial renders the bills table, or the store error message in
// place of the table.
func (s *Server) handleBillsPartial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.WithComponent(applog.FromContext(ctx), applog.ComponentBills)

	listing, err := services.NewBills(s.deps.Store, currentSession(r), logger).Listing(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "List bills failed", applog.FieldError, err)
		s.render(w, r, http.StatusOK, "bills_error", err.Error())
		return
	}
	s.render(w, r, http.StatusOK, "bills_rows", listing)
}

// handleProof opens the preview of a proof attached to one of the caller's
// bills.
func (s *Server) handleProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fileURL := r.URL.Query().Get("url")
	if fileURL == "" {
		BadRequestError("Justificatif manquant").Write(w)
		return
	}

	bills, err := services.NewBills(s.deps.Store, currentSession(r), applog.FromContext(ctx)).List(ctx)
	if err != nil {
		InternalServerError(err.Error()).Write(w)
		return
	}
	if !ownsProof(bills, fileURL) {
		NotFoundError("Justificatif introuvable").Write(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.deps.Previewer.Show(w, fileURL); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Proof preview failed", applog.FieldError, err)
	}
}

func ownsProof(bills []core.Bill, fileURL string) bool {
	for _, b := range bills {
		if b.FileURL == fileURL {
			return true
		}
	}
	return false
}
