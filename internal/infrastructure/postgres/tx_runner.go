package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/zatca-einvoice/internal/application/einvoice"
	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
)

// Ensure TxRunner implements einvoice.ChainTxRunner.
var _ einvoice.ChainTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool       *pgxpool.Pool
	counterKey string
	counter    repository.ICVCounter      // nil = contador en la misma tx
	store      repository.AttachmentStore // nil = adjuntos en la misma tx
}

// TxOption reemplaza un repositorio de la tx por un backend externo.
type TxOption func(*TxRunner)

// WithCounter usa otro contador ICV (Redis). Su incremento no se revierte con la tx.
func WithCounter(c repository.ICVCounter) TxOption {
	return func(r *TxRunner) { r.counter = c }
}

// WithAttachmentStore guarda los XML fuera de PostgreSQL (S3). Dentro de RunChain los
// Put quedan retenidos y se suben después del commit.
func WithAttachmentStore(s repository.AttachmentStore) TxOption {
	return func(r *TxRunner) { r.store = s }
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, counterKey string, opts ...TxOption) *TxRunner {
	r := &TxRunner{pool: pool, counterKey: counterKey}
	for _, o := range opts {
		o(r)
	}
	return r
}

// NewRepos repositorios atados a q (pool o tx).
func NewRepos(q Querier, counterKey string) einvoice.Repos {
	return einvoice.Repos{
		Invoices:    NewInvoiceRepository(q),
		Companies:   NewCompanyRepository(q),
		Partners:    NewPartnerRepository(q),
		Attachments: NewAttachmentRepository(q),
		Configs:     NewConfigurationRepository(q),
		Counter:     NewICVCounter(q, counterKey),
	}
}

// Repos repositorios sobre el pool, con los mismos reemplazos que la tx.
func (r *TxRunner) Repos() einvoice.Repos {
	return r.override(NewRepos(r.pool, r.counterKey))
}

// RunChain inicia una transacción, toma el advisory lock de la empresa (un único escritor
// de la cadena PIH hasta el commit), ejecuta fn y hace Commit o Rollback. Los adjuntos
// externos (S3) se suben solo si el commit tuvo éxito.
func (r *TxRunner) RunChain(ctx context.Context, companyID string, fn func(einvoice.Repos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "zatca-chain:"+companyID); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}

	repos := r.override(NewRepos(tx, r.counterKey))
	var staged *einvoice.StagedAttachments
	if r.store != nil {
		staged = einvoice.NewStagedAttachments(r.store)
		repos.Attachments = staged
	}

	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	if staged != nil {
		if err := staged.Flush(ctx); err != nil {
			return fmt.Errorf("subir adjuntos tras el commit: %w", err)
		}
	}
	return nil
}

func (r *TxRunner) override(repos einvoice.Repos) einvoice.Repos {
	if r.counter != nil {
		repos.Counter = r.counter
	}
	if r.store != nil {
		repos.Attachments = r.store
	}
	return repos
}
