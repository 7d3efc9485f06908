package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"vatfiler/internal/hmrc"
	"vatfiler/internal/oauth"
	"vatfiler/internal/receipts"
	"vatfiler/internal/spreadsheet"
	"vatfiler/pkg/logging"
)

const (
	maxSubmissionBytes = 1 << 20
	maxUploadBytes     = 10 << 20
)

// VATService is the upstream VAT API.
type VATService interface {
	Obligations(ctx context.Context, hdr http.Header, q hmrc.ObligationsQuery) (json.RawMessage, error)
	SubmitReturn(ctx context.Context, hdr http.Header, vrn string, body json.RawMessage) (json.RawMessage, error)
	ViewReturn(ctx context.Context, hdr http.Header, vrn, periodKey string) (json.RawMessage, error)
	Liabilities(ctx context.Context, hdr http.Header, q hmrc.DateRangeQuery) (json.RawMessage, error)
	Payments(ctx context.Context, hdr http.Header, q hmrc.DateRangeQuery) (json.RawMessage, error)
}

// TokenStatus reports the connection state.
type TokenStatus interface {
	Status() (oauth.Status, error)
}

// ReceiptLister reads the receipt log.
type ReceiptLister interface {
	List() ([]receipts.Receipt, error)
	ListForVRN(vrn string) ([]receipts.Receipt, error)
}

// HeaderBuilder produces the fraud-prevention headers for a request.
type HeaderBuilder interface {
	Headers(r *http.Request) http.Header
}

// Handlers serves the /api routes.
type Handlers struct {
	vat      VATService
	status   TokenStatus
	receipts ReceiptLister
	headers  HeaderBuilder
}

// NewHandlers creates the /api handlers.
func NewHandlers(vat VATService, status TokenStatus, receipts ReceiptLister, headers HeaderBuilder) *Handlers {
	return &Handlers{
		vat:      vat,
		status:   status,
		receipts: receipts,
		headers:  headers,
	}
}

// Obligations handles GET /api/obligations?vrn=&status=&scenario=.
func (h *Handlers) Obligations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vrn, err := required(q.Get("vrn"), "vrn")
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.vat.Obligations(r.Context(), h.headers.Headers(r), hmrc.ObligationsQuery{
		VRN:      vrn,
		Status:   q.Get("status"),
		From:     q.Get("from"),
		To:       q.Get("to"),
		Scenario: q.Get("scenario"),
	})
	h.respond(w, r, resp, err)
}

// SubmitReturn handles POST /api/returns?vrn=. The JSON body is forwarded
// as it is.
func (h *Handlers) SubmitReturn(w http.ResponseWriter, r *http.Request) {
	vrn, err := required(r.URL.Query().Get("vrn"), "vrn")
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSubmissionBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, badRequest("request body too large"))
			return
		}
		writeError(w, r, badRequest("failed to read request body"))
		return
	}
	if !json.Valid(body) {
		writeError(w, r, badRequest("request body must be valid JSON"))
		return
	}

	resp, err := h.vat.SubmitReturn(r.Context(), h.headers.Headers(r), vrn, body)
	h.respond(w, r, resp, err)
}

// ViewReturn handles GET /api/returns/view?vrn=&periodKey=.
func (h *Handlers) ViewReturn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vrn, err := required(q.Get("vrn"), "vrn")
	if err != nil {
		writeError(w, r, err)
		return
	}
	periodKey, err := required(q.Get("periodKey"), "periodKey")
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.vat.ViewReturn(r.Context(), h.headers.Headers(r), vrn, periodKey)
	h.respond(w, r, resp, err)
}

// Liabilities handles GET /api/liabilities?vrn=&from=&to=&scenario=.
func (h *Handlers) Liabilities(w http.ResponseWriter, r *http.Request) {
	q, err := dateRangeQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.vat.Liabilities(r.Context(), h.headers.Headers(r), q)
	h.respond(w, r, resp, err)
}

// Payments handles GET /api/payments?vrn=&from=&to=&scenario=.
func (h *Handlers) Payments(w http.ResponseWriter, r *http.Request) {
	q, err := dateRangeQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := h.vat.Payments(r.Context(), h.headers.Headers(r), q)
	h.respond(w, r, resp, err)
}

// Receipts handles GET /api/receipts, optionally filtered by ?vrn=.
func (h *Handlers) Receipts(w http.ResponseWriter, r *http.Request) {
	var (
		list []receipts.Receipt
		err  error
	)
	if vrn := strings.TrimSpace(r.URL.Query().Get("vrn")); vrn != "" {
		list, err = h.receipts.ListForVRN(vrn)
	} else {
		list, err = h.receipts.List()
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Status handles GET /api/status.
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.status.Status()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// ExcelPreview handles POST /api/excel/preview. The multipart form carries
// the workbook as "file" and the cell address of each box as box1..box9.
func (h *Handlers) ExcelPreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, badRequest("expected a multipart form with a file upload"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, badRequest("missing file"))
		return
	}
	defer file.Close()

	cells := spreadsheet.CellMap{
		Box1: r.FormValue("box1"),
		Box2: r.FormValue("box2"),
		Box4: r.FormValue("box4"),
		Box6: r.FormValue("box6"),
		Box7: r.FormValue("box7"),
		Box8: r.FormValue("box8"),
		Box9: r.FormValue("box9"),
	}
	if missing := cells.Missing(); len(missing) > 0 {
		writeError(w, r, badRequest("missing cell address for "+strings.Join(missing, ", ")))
		return
	}

	preview, err := spreadsheet.Read(file, cells)
	if err != nil {
		logging.Warn("API", "Rejected workbook %q: %v", header.Filename, err)
		writeError(w, r, badRequest("could not read workbook: "+err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// Health handles GET /health.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// respond writes a successful upstream body or maps the error.
func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, resp json.RawMessage, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp)
}

func dateRangeQuery(r *http.Request) (hmrc.DateRangeQuery, error) {
	q := r.URL.Query()
	vrn, err := required(q.Get("vrn"), "vrn")
	if err != nil {
		return hmrc.DateRangeQuery{}, err
	}

	from := q.Get("from")
	if from == "" {
		// from_ is what the original UI sends.
		from = q.Get("from_")
	}
	if from, err = required(from, "from"); err != nil {
		return hmrc.DateRangeQuery{}, err
	}
	to, err := required(q.Get("to"), "to")
	if err != nil {
		return hmrc.DateRangeQuery{}, err
	}

	return hmrc.DateRangeQuery{VRN: vrn, From: from, To: to, Scenario: q.Get("scenario")}, nil
}

func required(value, name string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", badRequest("missing required query parameter: " + name)
	}
	return value, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("API", "Failed to encode response: %v", err)
	}
}
