package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"bizcard/internal/contact"
	"bizcard/internal/httpapi"
	"bizcard/internal/ocr"
	"bizcard/internal/reconcile"
	"bizcard/internal/scan"
	"bizcard/internal/share"
	"bizcard/internal/testsupport"
)

type stubDetector struct {
	dets []ocr.Detection
}

func (stubDetector) Name() string { return "stub" }

func (s stubDetector) Detect(context.Context, []byte) ([]ocr.Detection, error) {
	return s.dets, nil
}

func newTestServer(t *testing.T, token string) (http.Handler, *reconcile.Reconciler) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken(token))
	st := testsupport.MustOpenStore(t, cfg)
	rec := reconcile.New(st, nil)

	var dets []ocr.Detection
	for i, text := range []string{"Jane Doe", "CEO", "jane@acme.com", "ACME Corp"} {
		dets = append(dets, ocr.Detection{Text: text, Box: contact.RectBox(0, float64(i*40), 100, 20), Confidence: 0.9})
	}
	scanner := scan.New(stubDetector{dets: dets}, nil, rec, scan.Options{UploadDir: cfg.Paths.UploadDir}, nil)

	srv, err := httpapi.New(cfg, httpapi.Deps{
		Cards:   rec,
		Scanner: scanner,
		Health: map[string]httpapi.HealthCheck{
			"store": func(ctx context.Context) error { return st.Ping(ctx) },
		},
	}, nil)
	if err != nil {
		t.Fatalf("httpapi.New: %v", err)
	}
	return srv.Handler(), rec
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthz(t *testing.T) {
	h, _ := newTestServer(t, "")
	rec := do(t, h, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected request id header")
	}
}

func TestClassifyEndpoint(t *testing.T) {
	h, _ := newTestServer(t, "")
	rec := do(t, h, http.MethodPost, "/api/v1/classify",
		`{"fragments":["Jane Doe","CEO","jane@acme.com","www.acme.com","555-0100","ACME Corp"],"explain":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	var body struct {
		Record      contact.Record   `json:"record"`
		Assignments []map[string]any `json:"assignments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Record.Designation != "ceo" || body.Record.Phone != "555-0100" || body.Record.City != "NA" {
		t.Fatalf("record = %#v", body.Record)
	}
	if len(body.Assignments) != 6 {
		t.Fatalf("assignments = %d", len(body.Assignments))
	}
}

func TestClassifyValidation(t *testing.T) {
	h, _ := newTestServer(t, "")
	cases := []struct {
		name string
		body string
		want int
	}{
		{name: "not json", body: "{", want: http.StatusBadRequest},
		{name: "missing fragments", body: `{}`, want: http.StatusBadRequest},
		{name: "wrong type", body: `{"fragments":"Jane"}`, want: http.StatusBadRequest},
		{name: "unknown property", body: `{"fragments":[],"x":1}`, want: http.StatusBadRequest},
		{name: "insufficient data", body: `{"fragments":["Jane Doe",""]}`, want: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/classify", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tc.want, rec.Body)
			}
			if decode[map[string]string](t, rec)["error"] == "" {
				t.Fatal("expected error message")
			}
		})
	}
}

func TestCardsCRUD(t *testing.T) {
	h, _ := newTestServer(t, "")

	rec := do(t, h, http.MethodPost, "/api/v1/cards", `{"name":"Jane Doe","email":"jane@acme.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save status = %d body=%s", rec.Code, rec.Body)
	}
	saved := decode[map[string]contact.Record](t, rec)["card"]
	if saved.ID == 0 || saved.City != "NA" {
		t.Fatalf("saved = %#v", saved)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/cards", `{"name":"Jane Doe"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPatch, "/api/v1/cards", `{"selector":"email","value":"jane@acme.com","field":"city","new_value":"Chennai"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d body=%s", rec.Code, rec.Body)
	}
	rec = do(t, h, http.MethodPatch, "/api/v1/cards", `{"selector":"phone","value":"x","field":"city","new_value":"y"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad selector status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodPatch, "/api/v1/cards", `{"selector":"name","value":"Nobody","field":"city","new_value":"y"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing update status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/cards", "")
	cards := decode[map[string][]contact.Record](t, rec)["cards"]
	if len(cards) != 1 || cards[0].City != "Chennai" {
		t.Fatalf("cards = %#v", cards)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/cards/1/vcard.png", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("qr status = %d type=%q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if _, err := png.DecodeConfig(bytes.NewReader(rec.Body.Bytes())); err != nil {
		t.Fatalf("qr is not a png: %v", err)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/cards/1/image", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("image for card without upload status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodGet, "/api/v1/cards/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodDelete, "/api/v1/cards?selector=name&value=Nobody", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing delete status = %d", rec.Code)
	}
	rec = do(t, h, http.MethodDelete, "/api/v1/cards?selector=id&value=1", "")
	if rec.Code != http.StatusOK || decode[map[string]int64](t, rec)["rows"] != 1 {
		t.Fatalf("delete status = %d body=%s", rec.Code, rec.Body)
	}
	rec = do(t, h, http.MethodGet, "/api/v1/cards/1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", rec.Code)
	}
}

func multipartScan(t *testing.T, image []byte, save bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("card", "jane.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(image); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if save {
		if err := mw.WriteField("save", "true"); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestScanEndpoint(t *testing.T) {
	h, reconciler := newTestServer(t, "")

	body, ctype := multipartScan(t, testsupport.PNG(t), true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	var res struct {
		ScanID string         `json:"scan_id"`
		Record contact.Record `json:"record"`
		Saved  bool           `json:"saved"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Saved || res.Record.Email != "jane@acme.com" || res.ScanID != rec.Header().Get("X-Request-ID") {
		t.Fatalf("result = %#v", res)
	}

	stored, err := reconciler.Get(context.Background(), res.Record.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Image) == 0 {
		t.Fatal("stored card should keep the uploaded image")
	}
	img := do(t, h, http.MethodGet, "/api/v1/cards/1/image", "")
	if img.Code != http.StatusOK || img.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("image status = %d type=%q", img.Code, img.Header().Get("Content-Type"))
	}

	body, ctype = multipartScan(t, testsupport.PNG(t), true)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/scan", body)
	req.Header.Set("Content-Type", ctype)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate scan status = %d body=%s", rec.Code, rec.Body)
	}
	var conflict struct {
		Record      contact.Record    `json:"record"`
		Assignments []json.RawMessage `json:"assignments"`
		Saved       bool              `json:"saved"`
		Error       string            `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &conflict); err != nil {
		t.Fatalf("decode conflict: %v", err)
	}
	if conflict.Saved || conflict.Record.Name != res.Record.Name || len(conflict.Assignments) == 0 {
		t.Fatalf("conflict result = %#v", conflict)
	}
	if !strings.Contains(conflict.Error, "already exists") {
		t.Fatalf("conflict error = %q", conflict.Error)
	}

	body, ctype = multipartScan(t, []byte("GIF89a not allowed"), false)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/scan", body)
	req.Header.Set("Content-Type", ctype)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("gif upload status = %d", rec.Code)
	}
}

func TestBearerToken(t *testing.T) {
	h, _ := newTestServer(t, "s3cret")

	if rec := do(t, h, http.MethodGet, "/api/v1/cards", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cards", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cards", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token status = %d", rec.Code)
	}

	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz should not require a token, status = %d", rec.Code)
	}
}

func TestStartAndStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	srv, err := httpapi.New(cfg, httpapi.Deps{Cards: reconcile.New(st, nil)}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	if _, err := httpapi.New(nil, httpapi.Deps{}, nil); err == nil {
		t.Fatalf("expected error for nil config, got %v", err)
	}
}

func TestShareLinks(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken("s3cret"))
	cfg.API.PublicURL = "https://cards.example.com"
	st := testsupport.MustOpenStore(t, cfg)
	card := testsupport.NewCard(t, st, "Asha Rao", "asha@example.com")
	signer, err := share.NewSigner("share-secret-for-tests")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	srv, err := httpapi.New(cfg, httpapi.Deps{Cards: reconcile.New(st, nil), Share: signer}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h := srv.Handler()

	path := "/api/v1/cards/" + strconv.FormatInt(card.ID, 10) + "/share"
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"expires_in_hours": 2}`))
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("share status = %d body=%s", rec.Code, rec.Body)
	}
	var resp struct {
		URL   string      `json:"url"`
		QRURL string      `json:"qr_url"`
		Share share.Token `json:"share"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(resp.URL, "https://cards.example.com/share/") {
		t.Fatalf("url = %q", resp.URL)
	}

	public := strings.TrimPrefix(resp.URL, "https://cards.example.com")
	got := do(t, h, http.MethodGet, public, "")
	if got.Code != http.StatusOK || !strings.Contains(got.Body.String(), "FN:Asha Rao") {
		t.Fatalf("shared vcard status = %d body=%s", got.Code, got.Body)
	}
	qr := do(t, h, http.MethodGet, strings.TrimPrefix(resp.QRURL, "https://cards.example.com"), "")
	if qr.Code != http.StatusOK || qr.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("shared qr status = %d", qr.Code)
	}

	other := testsupport.NewCard(t, st, "Ravi Kumar", "ravi@example.com")
	forged := "/share/" + strconv.FormatInt(other.ID, 10) + "/vcard?token=" + resp.Share.Value
	if rec := do(t, h, http.MethodGet, forged, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("token reuse for another card status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/share/1/vcard", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"expires_in_hours": 500}`))
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("out of range hours status = %d", rec.Code)
	}
}

func TestShareDisabled(t *testing.T) {
	h, rec := newTestServer(t, "")
	card, err := rec.Save(context.Background(), contact.Record{Name: "Asha Rao"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	path := "/api/v1/cards/" + strconv.FormatInt(card.ID, 10) + "/share"
	if got := do(t, h, http.MethodPost, path, ""); got.Code != http.StatusServiceUnavailable {
		t.Fatalf("share without secret status = %d", got.Code)
	}
	if got := do(t, h, http.MethodGet, "/share/1/vcard?token=x", ""); got.Code != http.StatusNotFound {
		t.Fatalf("public share without secret status = %d", got.Code)
	}
}
