package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"bizcard/internal/contact"
	"bizcard/internal/export"
	"bizcard/internal/services"
	"bizcard/internal/share"
)

type shareRequest struct {
	ExpiresInHours int `json:"expires_in_hours"`
}

type shareResponse struct {
	URL   string      `json:"url"`
	QRURL string      `json:"qr_url"`
	Token share.Token `json:"share"`
}

func (s *Server) handleShareCard(w http.ResponseWriter, r *http.Request) {
	if s.deps.Share == nil {
		writeErrorMessage(w, http.StatusServiceUnavailable, "sharing is disabled (set api.share_secret)")
		return
	}
	var req shareRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, s.schemas.share, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	rec, err := s.cardFromPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tok, err := s.deps.Share.Issue(rec.ID, time.Duration(req.ExpiresInHours)*time.Hour)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	base := s.publicURL
	if base == "" {
		base = "http://" + r.Host
	}
	writeJSON(w, http.StatusCreated, shareResponse{
		URL:   share.URL(base, tok),
		QRURL: share.QRURL(base, tok),
		Token: tok,
	})
}

// sharedCard resolves a public share request to its card.
func (s *Server) sharedCard(r *http.Request) (contact.Record, error) {
	if s.deps.Share == nil {
		return contact.Record{}, services.Wrap(services.ErrNotFound, "api", "share", "sharing is disabled", nil)
	}
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return contact.Record{}, share.ErrInvalidToken
	}
	if err := s.deps.Share.Verify(r.URL.Query().Get("token"), id); err != nil {
		return contact.Record{}, err
	}
	return s.deps.Cards.Get(r.Context(), id)
}

func (s *Server) handleSharedVCard(w http.ResponseWriter, r *http.Request) {
	rec, err := s.sharedCard(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/vcard; charset=utf-8")
	name := strings.TrimSuffix(export.QRFileName(rec), ".png") + ".vcf"
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(export.VCard(rec)))
}

func (s *Server) handleSharedQR(w http.ResponseWriter, r *http.Request) {
	rec, err := s.sharedCard(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	png, err := export.VCardQR(rec, export.DefaultQRSize)
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrTransient, "api", "vcard qr", "encode qr", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
