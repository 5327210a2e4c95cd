package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"bizcard/internal/classifier"
	"bizcard/internal/contact"
	"bizcard/internal/export"
	"bizcard/internal/ocr"
	"bizcard/internal/scan"
	"bizcard/internal/services"
)

type classifyRequest struct {
	Fragments []string `json:"fragments"`
	Explain   bool     `json:"explain"`
}

type classifyResponse struct {
	Record      contact.Record          `json:"record"`
	Assignments []classifier.Assignment `json:"assignments,omitempty"`
}

// scanConflictResponse returns a classified scan whose save hit an existing
// name, so the caller can edit the record and retry.
type scanConflictResponse struct {
	scan.Result
	Error string `json:"error"`
}

type cardResponse struct {
	Card contact.Record `json:"card"`
}

type cardListResponse struct {
	Cards []contact.Record `json:"cards"`
}

type updateRequest struct {
	Selector string `json:"selector"`
	Value    string `json:"value"`
	Field    string `json:"field"`
	NewValue string `json:"new_value"`
}

type mutationResponse struct {
	Rows int64 `json:"rows"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	status := http.StatusOK
	if len(s.deps.Health) > 0 {
		resp.Checks = make(map[string]string, len(s.deps.Health))
		for name, check := range s.deps.Health {
			if err := check(r.Context()); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeBody(w, r, s.schemas.classify, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	record, trace, err := s.deps.Classifier.Explain(contact.Fragments(req.Fragments...))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := classifyResponse{Record: record}
	if req.Explain {
		resp.Assignments = trace
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if s.deps.Scanner == nil {
		s.writeError(w, r, services.Wrap(services.ErrConfiguration, "api", "scan", "scanner not configured", nil))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "scan", "invalid multipart upload", err))
		return
	}
	file, header, err := r.FormFile("card")
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "scan", `missing "card" file field`, err))
		return
	}
	defer file.Close()
	image, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "scan", "read upload", err))
		return
	}

	save, _ := strconv.ParseBool(r.FormValue("save"))
	result, err := s.deps.Scanner.Scan(r.Context(), scan.Request{
		Image:    image,
		Filename: header.Filename,
		Save:     save,
	})
	if err != nil && errors.Is(err, services.ErrConflict) && result.Record.Name != "" {
		writeJSON(w, http.StatusConflict, scanConflictResponse{Result: result, Error: err.Error()})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if result.Saved {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.deps.Cards.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if cards == nil {
		cards = []contact.Record{}
	}
	writeJSON(w, http.StatusOK, cardListResponse{Cards: cards})
}

func (s *Server) handleSaveCard(w http.ResponseWriter, r *http.Request) {
	var rec contact.Record
	if err := decodeBody(w, r, s.schemas.card, &rec); err != nil {
		s.writeError(w, r, err)
		return
	}
	saved, err := s.deps.Cards.Save(r.Context(), rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cardResponse{Card: saved})
}

func (s *Server) handleUpdateCards(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeBody(w, r, s.schemas.update, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.deps.Cards.Update(r.Context(), req.Selector, req.Value, req.Field, req.NewValue)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Rows: n})
}

func (s *Server) handleDeleteCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	selector, value := strings.TrimSpace(q.Get("selector")), q.Get("value")
	if selector == "" || strings.TrimSpace(value) == "" {
		s.writeError(w, r, services.Wrap(services.ErrValidation, "api", "delete", "selector and value query parameters are required", nil))
		return
	}
	n, err := s.deps.Cards.Delete(r.Context(), selector, value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Rows: n})
}

func (s *Server) cardFromPath(r *http.Request) (contact.Record, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return contact.Record{}, services.Wrap(services.ErrValidation, "api", "card", "invalid card id "+strconv.Quote(raw), nil)
	}
	return s.deps.Cards.Get(r.Context(), id)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	rec, err := s.cardFromPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cardResponse{Card: rec})
}

func (s *Server) handleCardImage(w http.ResponseWriter, r *http.Request) {
	rec, err := s.cardFromPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	mime, err := ocr.ValidateImage(rec.Image)
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrNotFound, "api", "card image", "card has no stored image", nil))
		return
	}
	w.Header().Set("Content-Type", mime)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(rec.Image)
}

func (s *Server) handleCardQR(w http.ResponseWriter, r *http.Request) {
	rec, err := s.cardFromPath(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	size := export.DefaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 64 && v <= 1024 {
			size = v
		}
	}
	png, err := export.VCardQR(rec, size)
	if err != nil {
		s.writeError(w, r, services.Wrap(services.ErrTransient, "api", "vcard qr", "encode qr", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
