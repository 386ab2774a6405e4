package zatca_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca"
)

const clearedBody = `{
  "validationResults": {
    "infoMessages": [{"type": "INFO", "code": "XSD_ZATCA_VALID", "category": "XSD validation", "status": "PASS", "message": "Complied with UBL 2.1 standards"}],
    "warningMessages": [],
    "errorMessages": [],
    "status": "PASS"
  },
  "clearanceStatus": "CLEARED",
  "clearedInvoice": "PEludm9pY2UvPg=="
}`

func submitRequest(url, kind string) zatca.SubmitRequest {
	return zatca.SubmitRequest{
		Kind: kind, URL: url, Username: "token", Password: "secret",
		InvoiceHash: "aGFzaA==", UUID: "uuid-1", XML: []byte("<Invoice/>"),
	}
}

func TestSubmit_Clearance(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "token", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "V2", r.Header.Get("Accept-Version"))
		assert.Equal(t, "en", r.Header.Get("Accept-Language"))
		assert.Equal(t, "1", r.Header.Get("Clearance-Status"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(clearedBody))
	}))
	defer srv.Close()

	resp, err := zatca.NewHTTPClient(5*time.Second).Submit(context.Background(), submitRequest(srv.URL, zatca.SubmitClearance))
	require.NoError(t, err)

	assert.Equal(t, "aGFzaA==", got["invoiceHash"])
	assert.Equal(t, "uuid-1", got["uuid"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("<Invoice/>")), got["invoice"])

	assert.Equal(t, http.StatusOK, resp.HTTPStatus)
	assert.Equal(t, "CLEARED", resp.ClearanceStatus)
	assert.Equal(t, "PASS", resp.Status())
	assert.True(t, resp.Accepted())

	groups := resp.Groups()
	require.Len(t, groups, 4)
	assert.Equal(t, []string{"errorMessages", "infoMessages", "status", "warningMessages"},
		[]string{groups[0].Name, groups[1].Name, groups[2].Name, groups[3].Name})
	require.Len(t, groups[1].Messages, 1)
	assert.Equal(t, "XSD_ZATCA_VALID", groups[1].Messages[0].Code)
	assert.Equal(t, "PASS", groups[2].Value)
}

func TestSubmit_ReportingEncabezado(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0", r.Header.Get("Clearance-Status"))
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"reportingStatus":"REPORTED","validationResults":{"status":"WARNING"}}`))
	}))
	defer srv.Close()

	resp, err := zatca.NewHTTPClient(0).Submit(context.Background(), submitRequest(srv.URL, zatca.SubmitReporting))
	require.NoError(t, err)
	assert.Equal(t, "REPORTED", resp.ReportingStatus)
	assert.True(t, resp.Accepted())
}

func TestSubmit_Compliance400(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Clearance-Status"))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"validationResults":{"status":"ERROR","errorMessages":[{"type":"ERROR","code":"BR-KSA-37","status":"ERROR","message":"bad"}]}}`))
	}))
	defer srv.Close()

	resp, err := zatca.NewHTTPClient(0).Submit(context.Background(), submitRequest(srv.URL, zatca.SubmitCompliance))
	require.NoError(t, err, "400 trae un cuerpo que se interpreta")
	assert.Equal(t, http.StatusBadRequest, resp.HTTPStatus)
	assert.False(t, resp.Accepted())
}

func TestSubmit_ErroresPorEstado(t *testing.T) {
	cases := []struct {
		status int
		body   string
		err    error
	}{
		{http.StatusInternalServerError, "", zatca.ErrZatcaServer},
		{http.StatusUnauthorized, "", zatca.ErrZatcaUnauthorized},
		{http.StatusForbidden, "", zatca.ErrZatcaAccessDenied},
		{http.StatusOK, "<html>", zatca.ErrZatcaAccessDenied},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := zatca.NewHTTPClient(0).Submit(context.Background(), submitRequest(srv.URL, zatca.SubmitReporting))
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestSubmit_FalloDeTransporte(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := zatca.NewHTTPClient(time.Second).Submit(context.Background(), submitRequest(url, zatca.SubmitClearance))
	assert.ErrorIs(t, err, zatca.ErrZatcaAccessDenied)
}

func TestSubmit_TipoDesconocido(t *testing.T) {
	_, err := zatca.NewHTTPClient(0).Submit(context.Background(), submitRequest("http://localhost", "otro"))
	assert.Error(t, err)
}

// ── Onboarding ──────────────────────────────────────────────────────────────

func TestComplianceCSID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/compliance", r.URL.Path)
		assert.Equal(t, "123345", r.Header.Get("OTP"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Q1NS", body["csr"])
		_, _ = w.Write([]byte(`{"requestID":1234567890123,"dispositionMessage":"ISSUED","binarySecurityToken":"VE9LRU4=","secret":"s3cr3t"}`))
	}))
	defer srv.Close()

	resp, err := zatca.NewHTTPClient(0).ComplianceCSID(context.Background(), srv.URL+"/", "Q1NS", "123345")
	require.NoError(t, err)
	assert.Equal(t, "1234567890123", resp.RequestID.String())
	assert.Equal(t, "VE9LRU4=", resp.BinarySecurityToken)
	assert.Equal(t, "s3cr3t", resp.Secret)
}

func TestProductionCSID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/production/csids", r.URL.Path)
		user, _, _ := r.BasicAuth()
		assert.Equal(t, "compliance-token", user)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "99", body["compliance_request_id"])
		_, _ = w.Write([]byte(`{"requestID":100,"binarySecurityToken":"UFJPRA==","secret":"x"}`))
	}))
	defer srv.Close()

	resp, err := zatca.NewHTTPClient(0).ProductionCSID(context.Background(), srv.URL, "compliance-token", "pw", "99")
	require.NoError(t, err)
	assert.Equal(t, "UFJPRA==", resp.BinarySecurityToken)
}

func TestOnboarding_Errores(t *testing.T) {
	cases := []struct {
		status int
		body   string
		err    error
	}{
		{http.StatusBadRequest, `{"errors":["Invalid-OTP"]}`, zatca.ErrZatcaBadRequest},
		{http.StatusUnauthorized, "", zatca.ErrZatcaUnauthorized},
		{http.StatusInternalServerError, "", zatca.ErrZatcaServer},
		{http.StatusOK, `{"requestID":1}`, zatca.ErrZatcaAccessDenied},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := zatca.NewHTTPClient(0).RenewProductionCSID(context.Background(), srv.URL, "u", "p", "csr", "otp")
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

// ── Reporte ─────────────────────────────────────────────────────────────────

func TestRenderReport(t *testing.T) {
	resp := &zatca.SubmissionResponse{HTTPStatus: 200, ClearanceStatus: "CLEARED"}
	require.NoError(t, json.Unmarshal([]byte(clearedBody), resp))

	html, err := zatca.RenderReport(zatca.SubmitClearance, resp)
	require.NoError(t, err)
	assert.Contains(t, html, "Clearance: CLEARED")
	assert.Contains(t, html, "XSD_ZATCA_VALID")
	assert.Contains(t, html, "#d4edda")

	resp.ValidationResults["status"] = json.RawMessage(`"ERROR"`)
	html, err = zatca.RenderReport(zatca.SubmitClearance, resp)
	require.NoError(t, err)
	assert.Contains(t, html, "#f8d7da")

	_, err = zatca.RenderReport(zatca.SubmitClearance, nil)
	assert.Error(t, err)
}
