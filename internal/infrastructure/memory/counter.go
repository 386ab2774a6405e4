// Package memory backend en memoria: contador ICV, adjuntos y repositorios para
// desarrollo local y pruebas. Nada sobrevive al reinicio del proceso.
package memory

import (
	"context"
	"sync/atomic"

	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
)

var _ repository.ICVCounter = (*Counter)(nil)

// Counter ICV con incremento atómico.
type Counter struct {
	v atomic.Int64
}

// NewCounter arranca en start (el primer Next devuelve start+1).
func NewCounter(start int64) *Counter {
	c := &Counter{}
	c.v.Store(start)
	return c
}

func (c *Counter) Next(context.Context) (int64, error)    { return c.v.Add(1), nil }
func (c *Counter) Current(context.Context) (int64, error) { return c.v.Load(), nil }
