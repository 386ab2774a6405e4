package einvoice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/zatca-einvoice/internal/domain"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	domzatca "github.com/jhoicas/zatca-einvoice/internal/domain/zatca"
	infrazatca "github.com/jhoicas/zatca-einvoice/internal/infrastructure/zatca"
	"github.com/jhoicas/zatca-einvoice/pkg/logger"
	pkgzatca "github.com/jhoicas/zatca-einvoice/pkg/zatca"
)

// GenerateConfig opciones del encadenamiento.
type GenerateConfig struct {
	// StrictChain: si la factura anterior no tiene hash, falla con ErrBrokenChain
	// en vez de usar el PIH inicial.
	StrictChain bool
}

// GenerateResult resumen de una generación.
type GenerateResult struct {
	InvoiceID      int64  `json:"invoice_id"`
	UUID           string `json:"uuid"`
	ICV            int64  `json:"icv"`
	PIH            string `json:"pih"`
	Hash           string `json:"hash"`
	HashHex        string `json:"hash_hex"`
	QRCode         string `json:"qr_code"`
	Status         string `json:"status"`
	Signed         bool   `json:"signed"`
	PIHPlaceholder bool   `json:"pih_placeholder"` // true si se usó el PIH inicial por falta de hash en la anterior
	XMLName        string `json:"xml_name"`
	HashXMLName    string `json:"hash_xml_name"`
}

// GenerateUseCase genera el XML ZATCA de una factura publicada y avanza la cadena:
//
//	Validar → PIH anterior → ICV → XML UBL 2.1 → Hash canónico → Firma XAdES → QR → Persistir
//
// Todo ocurre dentro de ChainTxRunner.RunChain: si algo falla no se persiste nada
// y el ICV consumido se revierte con la transacción.
type GenerateUseCase struct {
	tx        ChainTxRunner
	builder   *infrazatca.XMLBuilderService
	canon     *infrazatca.Canonicalizer
	signer    pkgzatca.Signer
	materials MaterialSource
	cfg       GenerateConfig
	log       *logger.Logger
	now       func() time.Time
	newUUID   func() string
}

// GenerateOption personaliza el caso de uso (reloj y UUID fijos en tests).
type GenerateOption func(*GenerateUseCase)

// WithClock reemplaza time.Now.
func WithClock(now func() time.Time) GenerateOption {
	return func(uc *GenerateUseCase) { uc.now = now }
}

// WithUUIDGenerator reemplaza uuid.NewString.
func WithUUIDGenerator(gen func() string) GenerateOption {
	return func(uc *GenerateUseCase) { uc.newUUID = gen }
}

// NewGenerateUseCase construye el caso de uso con todas sus dependencias.
func NewGenerateUseCase(
	tx ChainTxRunner,
	builder *infrazatca.XMLBuilderService,
	canon *infrazatca.Canonicalizer,
	signer pkgzatca.Signer,
	materials MaterialSource,
	cfg GenerateConfig,
	log *logger.Logger,
	opts ...GenerateOption,
) *GenerateUseCase {
	uc := &GenerateUseCase{
		tx:        tx,
		builder:   builder,
		canon:     canon,
		signer:    signer,
		materials: materials,
		cfg:       cfg,
		log:       log.WithComponent("generate"),
		now:       time.Now,
		newUUID:   uuid.NewString,
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

// Generate genera (o regenera) el XML de la factura.
//
// Retorna:
//   - domain.ErrNotFound / domain.ErrForbidden   si la factura no existe o es de otra empresa.
//   - domain.ErrConflict                         si no está publicada, ya fue aceptada por ZATCA
//     o una factura posterior ya encadenó su hash (solo se regenera la cola).
//   - domzatca.ErrInvalidInvoice                 con todas las reglas incumplidas.
//   - domzatca.ErrBrokenChain                    en modo estricto, si la anterior no tiene hash.
func (uc *GenerateUseCase) Generate(ctx context.Context, companyID string, invoiceID int64) (*GenerateResult, error) {
	var result *GenerateResult
	err := uc.tx.RunChain(ctx, companyID, func(r Repos) error {
		res, err := uc.generate(ctx, r, companyID, invoiceID)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Int64("invoice_id", result.InvoiceID).
		Str("company_id", companyID).
		Int64("icv", result.ICV).
		Str("hash", result.Hash).
		Bool("signed", result.Signed).
		Msg("XML ZATCA generado")
	return result, nil
}

func (uc *GenerateUseCase) generate(ctx context.Context, r Repos, companyID string, invoiceID int64) (*GenerateResult, error) {
	// ── 1. Cargar datos ─────────────────────────────────────────────────────────
	inv, err := loadOwned(ctx, r.Invoices, companyID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.State != entity.InvoiceStatePosted {
		return nil, fmt.Errorf("%w: solo se generan facturas publicadas (estado %s)", domain.ErrConflict, inv.State)
	}
	if inv.ZatcaStatus == entity.ZatcaStatusCleared || inv.ZatcaStatus == entity.ZatcaStatusReported {
		return nil, fmt.Errorf("%w: la factura ya fue aceptada por ZATCA (%s)", domain.ErrConflict, inv.ZatcaStatus)
	}
	if inv.Hash != "" {
		next, err := r.Invoices.GetNextPosted(ctx, inv.CompanyID, inv.ID)
		if err != nil {
			return nil, fmt.Errorf("obtener factura siguiente: %w", err)
		}
		if next != nil && next.PIH != "" {
			return nil, fmt.Errorf("%w: la factura %d ya está encadenada por la %d", domain.ErrConflict, inv.ID, next.ID)
		}
	}

	company, err := r.Companies.GetByID(ctx, inv.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("obtener empresa: %w", err)
	}
	if company == nil {
		return nil, fmt.Errorf("%w: empresa %s", domain.ErrNotFound, inv.CompanyID)
	}
	partner, err := r.Partners.GetByID(ctx, inv.PartnerID)
	if err != nil {
		return nil, fmt.Errorf("obtener cliente: %w", err)
	}
	if partner == nil {
		return nil, fmt.Errorf("%w: cliente %s", domain.ErrNotFound, inv.PartnerID)
	}
	lines, err := r.Invoices.GetLines(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("obtener líneas: %w", err)
	}
	var original *entity.Invoice
	if inv.OriginalInvoiceID != nil {
		if original, err = r.Invoices.GetByID(ctx, *inv.OriginalInvoiceID); err != nil {
			return nil, fmt.Errorf("obtener factura original: %w", err)
		}
		if original != nil && (original.CompanyID != inv.CompanyID || original.State != entity.InvoiceStatePosted) {
			return nil, fmt.Errorf("%w: la factura original %d no es una factura publicada de la empresa",
				domain.ErrInvalidInput, original.ID)
		}
	}

	// ── 2. Validar (todo o nada, antes de tocar el contador) ───────────────────
	if err := domzatca.ValidateInvoice(domzatca.ValidationInput{
		Invoice: inv, Company: company, Partner: partner, Lines: lines, Original: original, Now: uc.now(),
	}); err != nil {
		return nil, err
	}

	// ── 3. Material de firma ───────────────────────────────────────────────────
	cfg, err := r.Configs.GetByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("obtener configuración ZATCA: %w", err)
	}
	material, err := uc.materials.Material(cfg)
	if err != nil {
		return nil, fmt.Errorf("cargar material de firma: %w", err)
	}
	signed := material.Certificate != nil && material.Key != nil

	// ── 4. PIH (eslabón anterior) ──────────────────────────────────────────────
	prev, err := r.Invoices.GetPreviousPosted(ctx, inv.CompanyID, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("obtener factura anterior: %w", err)
	}
	pih, fallback, err := domzatca.ResolvePIH(prev, uc.cfg.StrictChain)
	if err != nil {
		return nil, err
	}
	if fallback {
		uc.log.Warn().
			Int64("invoice_id", inv.ID).
			Int64("previous_id", prev.ID).
			Msg("la factura anterior no tiene hash; se usa el PIH inicial")
	}

	// ── 5. UUID estable e ICV ──────────────────────────────────────────────────
	if inv.UUID == "" {
		inv.UUID = uc.newUUID()
	}
	icv, err := r.Counter.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("incrementar ICV: %w", err)
	}

	// ── 6. XML, hash, firma y QR ───────────────────────────────────────────────
	bctx := infrazatca.NewInvoiceBuildContext(inv, company, partner, lines, original)
	bctx.ICV = icv
	bctx.PIH = pih
	bctx.Signed = signed

	doc, err := uc.builder.Build(bctx)
	if err != nil {
		return nil, fmt.Errorf("construir XML: %w", err)
	}
	hash, err := uc.canon.HashDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("hash canónico: %w", err)
	}

	qrIn := infrazatca.QRInput{
		SellerName:   company.Name,
		VATNumber:    company.VAT,
		Timestamp:    inv.IssuedAt,
		TotalWithVAT: bctx.Totals.TaxInclusive,
		VATTotal:     bctx.Totals.TaxTotal,
	}
	if signed {
		sig, err := uc.signer.Sign(doc, hash.Base64, material)
		if err != nil {
			return nil, fmt.Errorf("firmar XML: %w", err)
		}
		qrIn.InvoiceHash = hash.Base64
		qrIn.Signature = sig
		qrIn.Simplified = !bctx.Classification.TaxInvoice
	}
	qr, err := infrazatca.BuildQR(qrIn)
	if err != nil {
		return nil, fmt.Errorf("generar QR: %w", err)
	}
	if signed {
		if err := uc.builder.SetQR(doc, qr); err != nil {
			return nil, err
		}
	}

	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializar XML: %w", err)
	}
	check, err := uc.canon.HashXML(out, infrazatca.Options{})
	if err != nil {
		return nil, fmt.Errorf("verificar hash: %w", err)
	}
	if check.Base64 != hash.Base64 {
		return nil, fmt.Errorf("el hash del documento final no coincide con el calculado (%s != %s)", check.Base64, hash.Base64)
	}

	// ── 7. Persistir artefactos y campos ───────────────────────────────────────
	xmlName, hashName, _ := infrazatca.Filenames(company, inv)
	if err := r.Attachments.Put(ctx, &entity.Attachment{
		InvoiceID: inv.ID, Field: entity.AttachmentSignedXML, Name: xmlName, MimeType: "application/xml", Data: out,
	}); err != nil {
		return nil, fmt.Errorf("guardar XML: %w", err)
	}
	if err := r.Attachments.Put(ctx, &entity.Attachment{
		InvoiceID: inv.ID, Field: entity.AttachmentHashXML, Name: hashName, MimeType: "application/xml", Data: hash.Stripped,
	}); err != nil {
		return nil, fmt.Errorf("guardar XML de hash: %w", err)
	}

	inv.ICV = icv
	inv.PIH = pih
	inv.Hash = hash.Base64
	inv.HashHex = hash.Hex
	inv.QRCode = qr
	inv.XMLName = xmlName
	inv.HashXMLName = hashName
	inv.ZatcaStatus = entity.ZatcaStatusGenerated
	if signed {
		inv.ZatcaStatus = entity.ZatcaStatusSigned
	}
	if err := r.Invoices.UpdateZatca(ctx, inv); err != nil {
		return nil, fmt.Errorf("actualizar factura: %w", err)
	}

	return &GenerateResult{
		InvoiceID:      inv.ID,
		UUID:           inv.UUID,
		ICV:            icv,
		PIH:            pih,
		Hash:           hash.Base64,
		HashHex:        hash.Hex,
		QRCode:         qr,
		Status:         inv.ZatcaStatus,
		Signed:         signed,
		PIHPlaceholder: fallback,
		XMLName:        xmlName,
		HashXMLName:    hashName,
	}, nil
}
