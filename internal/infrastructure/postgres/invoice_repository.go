package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	id, company_id, partner_id, name, kind, state, original_invoice_id, credit_debit_reason,
	simplified, flag_third_party, flag_nominal, flag_export, flag_summary, flag_self_billed,
	issued_at, due_date, delivery_date, currency, payment_means_code, purchase_order_ref,
	amount_total, amount_residual,
	zatca_uuid, icv, pih, hash, hash_hex, qr_code, cleared_hash, zatca_status, submission_report,
	xml_name, hash_xml_name, cleared_xml_name, created_at, updated_at`

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.PartnerID, &inv.Name, &inv.Kind, &inv.State,
		&inv.OriginalInvoiceID, &inv.CreditDebitReason,
		&inv.Simplified, &inv.Flags.ThirdParty, &inv.Flags.Nominal, &inv.Flags.Export,
		&inv.Flags.Summary, &inv.Flags.SelfBilled,
		&inv.IssuedAt, &inv.DueDate, &inv.DeliveryDate, &inv.Currency, &inv.PaymentMeansCode, &inv.PurchaseOrderRef,
		&inv.AmountTotal, &inv.AmountResidual,
		&inv.UUID, &inv.ICV, &inv.PIH, &inv.Hash, &inv.HashHex, &inv.QRCode, &inv.ClearedHash,
		&inv.ZatcaStatus, &inv.SubmissionReport,
		&inv.XMLName, &inv.HashXMLName, &inv.ClearedXMLName, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetByID obtiene una factura por ID; (nil, nil) si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// GetLines líneas de la factura en el orden del ERP.
func (r *InvoiceRepo) GetLines(ctx context.Context, invoiceID int64) ([]*entity.InvoiceLine, error) {
	query := `
		SELECT id, invoice_id, sequence, product_name, barcode, barcode_scheme,
		       quantity, unit_price, discount, tax_category, tax_percent, exemption_code, exemption_text
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY sequence, id`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceLine
	for rows.Next() {
		var l entity.InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Sequence, &l.ProductName, &l.Barcode, &l.BarcodeScheme,
			&l.Quantity, &l.UnitPrice, &l.Discount, &l.TaxCategory, &l.TaxPercent, &l.ExemptionCode, &l.ExemptionText); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// GetPreviousPosted eslabón anterior: mayor ID publicado de la empresa, estrictamente menor que id.
func (r *InvoiceRepo) GetPreviousPosted(ctx context.Context, companyID string, id int64) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE company_id = $1 AND state = $2 AND id < $3
		ORDER BY id DESC LIMIT 1`
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, companyID, entity.InvoiceStatePosted, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get previous invoice: %w", err)
	}
	return inv, nil
}

// GetNextPosted eslabón siguiente: menor ID publicado de la empresa, estrictamente mayor que id.
func (r *InvoiceRepo) GetNextPosted(ctx context.Context, companyID string, id int64) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE company_id = $1 AND state = $2 AND id > $3
		ORDER BY id ASC LIMIT 1`
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, companyID, entity.InvoiceStatePosted, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get next invoice: %w", err)
	}
	return inv, nil
}

// ListPosted facturas publicadas de la empresa en orden de cadena.
func (r *InvoiceRepo) ListPosted(ctx context.Context, companyID string) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE company_id = $1 AND state = $2 ORDER BY id`
	rows, err := r.q.Query(ctx, query, companyID, entity.InvoiceStatePosted)
	if err != nil {
		return nil, fmt.Errorf("list posted invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// UpdateZatca persiste solo los campos del ciclo ZATCA.
func (r *InvoiceRepo) UpdateZatca(ctx context.Context, inv *entity.Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE invoices
		SET zatca_uuid        = $2,
		    icv               = $3,
		    pih               = $4,
		    hash              = $5,
		    hash_hex          = $6,
		    qr_code           = $7,
		    cleared_hash      = $8,
		    zatca_status      = $9,
		    submission_report = $10,
		    xml_name          = $11,
		    hash_xml_name     = $12,
		    cleared_xml_name  = $13,
		    updated_at        = $14
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		inv.ID, inv.UUID, inv.ICV, inv.PIH, inv.Hash, inv.HashHex, inv.QRCode, inv.ClearedHash,
		inv.ZatcaStatus, inv.SubmissionReport, inv.XMLName, inv.HashXMLName, inv.ClearedXMLName,
		inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update invoice %d: sin filas afectadas", inv.ID)
	}
	return nil
}
