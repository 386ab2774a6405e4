package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
)

var _ repository.ICVCounter = (*ICVCounterRepo)(nil)

// ICVCounterRepo contador ICV en zatca_counters. Dentro de una tx, el incremento
// se revierte con el rollback y el valor no se consume.
type ICVCounterRepo struct {
	q   Querier
	key string
}

// NewICVCounter contador identificado por key (ZATCA_COUNTER_KEY).
func NewICVCounter(q Querier, key string) *ICVCounterRepo {
	return &ICVCounterRepo{q: q, key: key}
}

// Next incrementa y lee en una sola sentencia (la fila queda bloqueada hasta el commit).
func (r *ICVCounterRepo) Next(ctx context.Context) (int64, error) {
	const query = `
		INSERT INTO zatca_counters (key, value) VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET value = zatca_counters.value + 1
		RETURNING value`
	var v int64
	if err := r.q.QueryRow(ctx, query, r.key).Scan(&v); err != nil {
		return 0, fmt.Errorf("icv next: %w", err)
	}
	return v, nil
}

// Current último valor entregado (0 si nunca se generó una factura).
func (r *ICVCounterRepo) Current(ctx context.Context) (int64, error) {
	var v int64
	err := r.q.QueryRow(ctx, `SELECT value FROM zatca_counters WHERE key = $1`, r.key).Scan(&v)
	if err != nil {
		if isNoRows(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("icv current: %w", err)
	}
	return v, nil
}
