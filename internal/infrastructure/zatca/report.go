package zatca

import (
	"bytes"
	"fmt"
	"html/template"
)

var reportTmpl = template.Must(template.New("report").Parse(`<div class="zatca-report">
<h4>{{.Kind}} (HTTP {{.Resp.HTTPStatus}})</h4>
{{- if .Resp.ClearanceStatus}}<p>Clearance: {{.Resp.ClearanceStatus}}</p>{{end}}
{{- if .Resp.ReportingStatus}}<p>Reporting: {{.Resp.ReportingStatus}}</p>{{end}}
{{- if .Resp.QRSellerStatus}}<p>QR vendedor: {{.Resp.QRSellerStatus}}</p>{{end}}
{{- if .Resp.QRBuyerStatus}}<p>QR comprador: {{.Resp.QRBuyerStatus}}</p>{{end}}
<table>
<tr><th>Grupo</th><th>Tipo</th><th>Código</th><th>Categoría</th><th>Estado</th><th>Mensaje</th></tr>
{{- range .Groups}}
{{- $name := .Name}}
{{- if .Messages}}
{{- range .Messages}}
<tr style="background-color:{{if eq .Status "PASS"}}#d4edda{{else}}#f8d7da{{end}}"><td>{{$name}}</td><td>{{.Type}}</td><td>{{.Code}}</td><td>{{.Category}}</td><td>{{.Status}}</td><td>{{.Message}}</td></tr>
{{- end}}
{{- else}}
<tr style="background-color:{{if eq .Value "PASS"}}#d4edda{{else}}#f8d7da{{end}}"><td>{{$name}}</td><td colspan="5">{{.Value}}</td></tr>
{{- end}}
{{- end}}
</table>
</div>`))

// RenderReport tabla HTML con el resultado de un envío. Filas verdes para PASS, rojas en otro caso.
func RenderReport(kind string, resp *SubmissionResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("zatca: respuesta vacía")
	}
	var buf bytes.Buffer
	err := reportTmpl.Execute(&buf, struct {
		Kind   string
		Resp   *SubmissionResponse
		Groups []ValidationGroup
	}{kind, resp, resp.Groups()})
	if err != nil {
		return "", fmt.Errorf("zatca: generar reporte: %w", err)
	}
	return buf.String(), nil
}
