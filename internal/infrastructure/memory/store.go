package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/zatca-einvoice/internal/application/einvoice"
	"github.com/jhoicas/zatca-einvoice/internal/domain/entity"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
)

// Store datos del ERP y estado ZATCA en mapas. Los Get devuelven copias: mutar lo
// leído no cambia lo guardado hasta llamar a UpdateZatca/Put/Save.
type Store struct {
	mu          sync.RWMutex
	nextID      int64
	invoices    map[int64]entity.Invoice
	lines       map[int64][]entity.InvoiceLine
	companies   map[string]entity.Company
	partners    map[string]entity.Partner
	configs     map[string]entity.ZatcaConfiguration
	attachments map[string]entity.Attachment

	chainMu sync.Mutex
	chains  map[string]*sync.Mutex

	counter repository.ICVCounter
}

// NewStore crea un store vacío con su propio contador ICV.
func NewStore() *Store {
	return &Store{
		invoices:    make(map[int64]entity.Invoice),
		lines:       make(map[int64][]entity.InvoiceLine),
		companies:   make(map[string]entity.Company),
		partners:    make(map[string]entity.Partner),
		configs:     make(map[string]entity.ZatcaConfiguration),
		attachments: make(map[string]entity.Attachment),
		chains:      make(map[string]*sync.Mutex),
		counter:     NewCounter(0),
	}
}

// ── Carga de datos ───────────────────────────────────────────────────────────

// AddCompany registra un vendedor.
func (s *Store) AddCompany(c *entity.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[c.ID] = *c
}

// AddPartner registra un comprador.
func (s *Store) AddPartner(p *entity.Partner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partners[p.ID] = *p
}

// AddInvoice registra la factura con sus líneas. ID 0 asigna el siguiente ID secuencial.
func (s *Store) AddInvoice(inv *entity.Invoice, lines []*entity.InvoiceLine) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == 0 {
		s.nextID++
		inv.ID = s.nextID
	} else if inv.ID > s.nextID {
		s.nextID = inv.ID
	}
	s.invoices[inv.ID] = *inv
	copied := make([]entity.InvoiceLine, 0, len(lines))
	for _, l := range lines {
		cp := *l
		cp.InvoiceID = inv.ID
		copied = append(copied, cp)
	}
	s.lines[inv.ID] = copied
	return inv.ID
}

// Repos repositorios sobre este store. counter nil usa el contador interno.
func (s *Store) Repos(counter repository.ICVCounter) einvoice.Repos {
	if counter == nil {
		counter = s.counter
	}
	return einvoice.Repos{
		Invoices:    &invoiceRepo{s},
		Companies:   &companyRepo{s},
		Partners:    &partnerRepo{s},
		Attachments: &attachmentStore{s},
		Configs:     &configRepo{s},
		Counter:     counter,
	}
}

// ── TxRunner ─────────────────────────────────────────────────────────────────

var _ einvoice.ChainTxRunner = (*Store)(nil)

// RunChain serializa por empresa con un mutex. Los adjuntos se guardan solo si fn
// termina sin error; el resto no tiene rollback (el ICV consumido queda consumido).
func (s *Store) RunChain(ctx context.Context, companyID string, fn func(r einvoice.Repos) error) error {
	s.chainMu.Lock()
	m, ok := s.chains[companyID]
	if !ok {
		m = &sync.Mutex{}
		s.chains[companyID] = m
	}
	s.chainMu.Unlock()

	m.Lock()
	defer m.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	repos := s.Repos(nil)
	staged := einvoice.NewStagedAttachments(repos.Attachments)
	repos.Attachments = staged
	if err := fn(repos); err != nil {
		return err
	}
	return staged.Flush(ctx)
}

// ── Repositorios ─────────────────────────────────────────────────────────────

type invoiceRepo struct{ s *Store }

func (r *invoiceRepo) GetByID(_ context.Context, id int64) (*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, nil
	}
	return &inv, nil
}

func (r *invoiceRepo) GetLines(_ context.Context, invoiceID int64) ([]*entity.InvoiceLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stored := r.s.lines[invoiceID]
	out := make([]*entity.InvoiceLine, 0, len(stored))
	for i := range stored {
		l := stored[i]
		out = append(out, &l)
	}
	return out, nil
}

func (r *invoiceRepo) GetPreviousPosted(_ context.Context, companyID string, id int64) (*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var best *entity.Invoice
	for _, inv := range r.s.invoices {
		if inv.CompanyID != companyID || inv.State != entity.InvoiceStatePosted || inv.ID >= id {
			continue
		}
		if best == nil || inv.ID > best.ID {
			cp := inv
			best = &cp
		}
	}
	return best, nil
}

func (r *invoiceRepo) GetNextPosted(_ context.Context, companyID string, id int64) (*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var best *entity.Invoice
	for _, inv := range r.s.invoices {
		if inv.CompanyID != companyID || inv.State != entity.InvoiceStatePosted || inv.ID <= id {
			continue
		}
		if best == nil || inv.ID < best.ID {
			cp := inv
			best = &cp
		}
	}
	return best, nil
}

func (r *invoiceRepo) ListPosted(_ context.Context, companyID string) ([]*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Invoice
	for _, inv := range r.s.invoices {
		if inv.CompanyID == companyID && inv.State == entity.InvoiceStatePosted {
			cp := inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *invoiceRepo) UpdateZatca(_ context.Context, inv *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.invoices[inv.ID]; !ok {
		return fmt.Errorf("update invoice %d: no existe", inv.ID)
	}
	inv.UpdatedAt = time.Now().UTC()
	r.s.invoices[inv.ID] = *inv
	return nil
}

type companyRepo struct{ s *Store }

func (r *companyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

type partnerRepo struct{ s *Store }

func (r *partnerRepo) GetByID(_ context.Context, id string) (*entity.Partner, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.partners[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type configRepo struct{ s *Store }

func (r *configRepo) GetByCompany(_ context.Context, companyID string) (*entity.ZatcaConfiguration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.configs[companyID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *configRepo) Save(_ context.Context, cfg *entity.ZatcaConfiguration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cfg.UpdatedAt = time.Now().UTC()
	r.s.configs[cfg.CompanyID] = *cfg
	return nil
}

type attachmentStore struct{ s *Store }

func attachmentKey(invoiceID int64, field string) string {
	return fmt.Sprintf("%d/%s", invoiceID, field)
}

func (r *attachmentStore) Put(_ context.Context, a *entity.Attachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *a
	cp.Data = append([]byte(nil), a.Data...)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.s.attachments[attachmentKey(a.InvoiceID, a.Field)] = cp
	return nil
}

func (r *attachmentStore) Get(_ context.Context, invoiceID int64, field string) (*entity.Attachment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.attachments[attachmentKey(invoiceID, field)]
	if !ok {
		return nil, nil
	}
	return &a, nil
}
