// Package ledger define el servicio append-only que espeja los registros
// médicos: por cada write relacional se registra (id, digest) y se obtiene
// una referencia de transacción. El ledger es prueba histórica de que un
// digest existió bajo un id; nunca es el camino primario de lectura.
package ledger

import (
	"context"
	"errors"
	"time"
)

// Op es el tipo de transacción registrada.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Entry es la vista de un registro dentro del ledger.
type Entry struct {
	ID        int64     `json:"id"`
	Digest    string    `json:"digest"`
	Timestamp time.Time `json:"timestamp"`
	Deleted   bool      `json:"deleted"`
	Owner     string    `json:"owner"`
}

var (
	// ErrNotFound indica que el ledger no tiene entrada para ese id.
	ErrNotFound = errors.New("ledger: record not found")

	// ErrExists indica un Add sobre un id ya registrado y vivo.
	ErrExists = errors.New("ledger: record already exists")

	// ErrDeleted indica un Update/Delete sobre un id ya tombstoneado.
	ErrDeleted = errors.New("ledger: record is deleted")

	// ErrUnavailable indica que el servicio de ledger no respondió.
	// El write relacional ya está commiteado cuando esto ocurre: el caller
	// debe degradar (warning) en lugar de fallar la operación completa.
	ErrUnavailable = errors.New("ledger: service unavailable")
)

// IsUnavailable verifica si el error es de disponibilidad (vs. semántico).
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Client es el contrato del ledger. Implementaciones: Memory (hash chain
// in-process), HTTPClient (nodo remoto) y node.Client (nodo raft embebido).
//
// Se construye explícitamente y se inyecta en el mirror; no hay singleton
// perezoso ni side effects de conexión en el primer uso.
type Client interface {
	// Add registra un record nuevo. Retorna la referencia de transacción.
	Add(ctx context.Context, id int64, digest string) (string, error)

	// Update registra un nuevo digest para un record existente.
	Update(ctx context.Context, id int64, digest string) (string, error)

	// Delete tombstonea el record (la historia previa queda).
	Delete(ctx context.Context, id int64) (string, error)

	// Get retorna la entrada actual del record.
	Get(ctx context.Context, id int64) (*Entry, error)

	// ListByOwner retorna los ids registrados por una cuenta de servicio.
	ListByOwner(ctx context.Context, owner string) ([]int64, error)
}
