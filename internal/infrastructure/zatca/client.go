package zatca

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"
)

// ── Errores de transporte ────────────────────────────────────────────────────

var (
	// ErrZatcaServer HTTP 500 del portal.
	ErrZatcaServer = errors.New("zatca: error interno del servidor")
	// ErrZatcaUnauthorized HTTP 401: credenciales (CSID) rechazadas.
	ErrZatcaUnauthorized = errors.New("zatca: credenciales rechazadas")
	// ErrZatcaBadRequest HTTP 400 en onboarding.
	ErrZatcaBadRequest = errors.New("zatca: solicitud rechazada")
	// ErrZatcaAccessDenied cualquier otro fallo; solo conserva el mensaje original.
	ErrZatcaAccessDenied = errors.New("zatca: acceso denegado")
)

// Tipos de envío.
const (
	SubmitCompliance = "compliance"
	SubmitClearance  = "clearance"
	SubmitReporting  = "reporting"
)

// ── Puerto (interfaz) ──────────────────────────────────────────────────────────

// SubmitRequest datos de un envío a compliance, clearance o reporting.
type SubmitRequest struct {
	Kind        string
	URL         string
	Username    string // binarySecurityToken
	Password    string // secret
	InvoiceHash string
	UUID        string
	XML         []byte
}

// Submitter define el puerto de salida hacia el portal ZATCA.
// La implementación concreta usa HTTP/JSON; para tests se puede inyectar un mock.
type Submitter interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmissionResponse, error)
}

// ── Respuesta ─────────────────────────────────────────────────────────────────

// ValidationMessage un resultado de validación del portal.
type ValidationMessage struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	Category string `json:"category"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// ValidationGroup grupo de validationResults: lista de mensajes o un valor escalar.
type ValidationGroup struct {
	Name     string
	Messages []ValidationMessage
	Value    string
}

// SubmissionResponse cuerpo JSON devuelto con 200, 202 o 400.
type SubmissionResponse struct {
	HTTPStatus        int                        `json:"-"`
	ValidationResults map[string]json.RawMessage `json:"validationResults"`
	ReportingStatus   string                     `json:"reportingStatus"`
	ClearanceStatus   string                     `json:"clearanceStatus"`
	ClearedInvoice    string                     `json:"clearedInvoice"`
	QRSellerStatus    string                     `json:"qrSellertStatus"`
	QRBuyerStatus     string                     `json:"qrBuyertStatus"`
}

// Groups devuelve validationResults ordenado por nombre.
func (r *SubmissionResponse) Groups() []ValidationGroup {
	names := make([]string, 0, len(r.ValidationResults))
	for k := range r.ValidationResults {
		names = append(names, k)
	}
	sort.Strings(names)

	groups := make([]ValidationGroup, 0, len(names))
	for _, name := range names {
		raw := r.ValidationResults[name]
		g := ValidationGroup{Name: name}
		if err := json.Unmarshal(raw, &g.Messages); err != nil {
			var s string
			if json.Unmarshal(raw, &s) == nil {
				g.Value = s
			} else {
				g.Value = string(raw)
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// Status valor de validationResults.status (PASS, WARNING, ERROR).
func (r *SubmissionResponse) Status() string {
	var s string
	if raw, ok := r.ValidationResults["status"]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// Accepted false si el portal rechazó el documento (HTTP 400, status ERROR o
// estado NOT_CLEARED / NOT_REPORTED).
func (r *SubmissionResponse) Accepted() bool {
	switch {
	case r.HTTPStatus == http.StatusBadRequest:
		return false
	case r.Status() == "ERROR":
		return false
	case r.ClearanceStatus == "NOT_CLEARED", r.ReportingStatus == "NOT_REPORTED":
		return false
	}
	return true
}

// ── Implementación HTTP ────────────────────────────────────────────────────────

// HTTPClient implementa Submitter y el onboarding contra la API REST de ZATCA.
type HTTPClient struct {
	httpClient *http.Client
}

// NewHTTPClient construye el cliente; timeout <= 0 usa 60 s.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{httpClient: &http.Client{Timeout: timeout}}
}

type submitPayload struct {
	InvoiceHash string `json:"invoiceHash"`
	UUID        string `json:"uuid"`
	Invoice     string `json:"invoice"`
}

// Submit envía el XML. No reintenta: el resultado se muestra tal cual al usuario.
func (c *HTTPClient) Submit(ctx context.Context, req SubmitRequest) (*SubmissionResponse, error) {
	payload, err := json.Marshal(submitPayload{
		InvoiceHash: req.InvoiceHash,
		UUID:        req.UUID,
		Invoice:     base64.StdEncoding.EncodeToString(req.XML),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrZatcaAccessDenied, err)
	}
	headers := map[string]string{}
	switch req.Kind {
	case SubmitClearance:
		headers["Clearance-Status"] = "1"
	case SubmitReporting:
		headers["Clearance-Status"] = "0"
	case SubmitCompliance:
	default:
		return nil, fmt.Errorf("zatca: tipo de envío desconocido %q", req.Kind)
	}

	status, body, err := c.post(ctx, req.URL, payload, req.Username, req.Password, headers)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusInternalServerError:
		return nil, ErrZatcaServer
	case http.StatusUnauthorized:
		return nil, ErrZatcaUnauthorized
	case http.StatusOK, http.StatusAccepted, http.StatusBadRequest:
		resp := &SubmissionResponse{HTTPStatus: status}
		if err := json.Unmarshal(body, resp); err != nil {
			return nil, fmt.Errorf("%w: respuesta no es JSON: %v", ErrZatcaAccessDenied, err)
		}
		return resp, nil
	default:
		return nil, fmt.Errorf("%w: HTTP %d", ErrZatcaAccessDenied, status)
	}
}

// post hace la llamada con los headers comunes de la API v2 y devuelve estado y cuerpo.
func (c *HTTPClient) post(ctx context.Context, url string, payload []byte, user, pass string, headers map[string]string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrZatcaAccessDenied, err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("Accept-Version", "V2")
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if user != "" || pass != "" {
		req.SetBasicAuth(user, pass)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, fmt.Errorf("%w: timeout o cancelación: %v", ErrZatcaAccessDenied, ctx.Err())
		}
		return 0, nil, fmt.Errorf("%w: %v", ErrZatcaAccessDenied, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return 0, nil, fmt.Errorf("%w: leer respuesta: %v", ErrZatcaAccessDenied, err)
	}
	return resp.StatusCode, body, nil
}

var _ Submitter = (*HTTPClient)(nil)
