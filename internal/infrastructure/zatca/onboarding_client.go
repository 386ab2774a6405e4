package zatca

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// CSIDResponse respuesta de /compliance y /production/csids.
type CSIDResponse struct {
	RequestID           json.Number `json:"requestID"`
	DispositionMessage  string      `json:"dispositionMessage"`
	BinarySecurityToken string      `json:"binarySecurityToken"`
	Secret              string      `json:"secret"`
}

// Onboarder puerto de emisión de CSID.
type Onboarder interface {
	ComplianceCSID(ctx context.Context, baseURL, csr, otp string) (*CSIDResponse, error)
	ProductionCSID(ctx context.Context, baseURL, user, pass, complianceRequestID string) (*CSIDResponse, error)
	RenewProductionCSID(ctx context.Context, baseURL, user, pass, csr, otp string) (*CSIDResponse, error)
}

// ComplianceCSID solicita el CSID de compliance con el CSR (base64) y el OTP del portal.
func (c *HTTPClient) ComplianceCSID(ctx context.Context, baseURL, csr, otp string) (*CSIDResponse, error) {
	payload, _ := json.Marshal(map[string]string{"csr": csr})
	status, body, err := c.post(ctx, joinURL(baseURL, "/compliance"), payload, "", "", map[string]string{"OTP": otp})
	if err != nil {
		return nil, err
	}
	return parseCSID(status, body)
}

// ProductionCSID canjea el requestID de compliance por el CSID de producción.
func (c *HTTPClient) ProductionCSID(ctx context.Context, baseURL, user, pass, complianceRequestID string) (*CSIDResponse, error) {
	payload, _ := json.Marshal(map[string]string{"compliance_request_id": complianceRequestID})
	status, body, err := c.post(ctx, joinURL(baseURL, "/production/csids"), payload, user, pass, nil)
	if err != nil {
		return nil, err
	}
	return parseCSID(status, body)
}

// RenewProductionCSID renueva el CSID de producción con un CSR nuevo.
func (c *HTTPClient) RenewProductionCSID(ctx context.Context, baseURL, user, pass, csr, otp string) (*CSIDResponse, error) {
	payload, _ := json.Marshal(map[string]string{"csr": csr})
	status, body, err := c.post(ctx, joinURL(baseURL, "/production/csids"), payload, user, pass, map[string]string{"OTP": otp})
	if err != nil {
		return nil, err
	}
	return parseCSID(status, body)
}

func parseCSID(status int, body []byte) (*CSIDResponse, error) {
	switch status {
	case http.StatusInternalServerError:
		return nil, ErrZatcaServer
	case http.StatusUnauthorized:
		return nil, ErrZatcaUnauthorized
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrZatcaBadRequest, strings.TrimSpace(string(body)))
	case http.StatusOK:
		var resp CSIDResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("%w: respuesta no es JSON: %v", ErrZatcaAccessDenied, err)
		}
		if resp.BinarySecurityToken == "" || resp.Secret == "" {
			return nil, fmt.Errorf("%w: la respuesta no trae binarySecurityToken/secret", ErrZatcaAccessDenied)
		}
		return &resp, nil
	default:
		return nil, fmt.Errorf("%w: HTTP %d", ErrZatcaAccessDenied, status)
	}
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

var _ Onboarder = (*HTTPClient)(nil)
