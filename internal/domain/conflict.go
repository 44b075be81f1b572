package domain

import "fmt"

// ConflictClass identifica el tipo de conflicto de concurrencia reportado por el almacén.
type ConflictClass int

const (
	ConflictSerialization ConflictClass = iota + 1 // 40001 serialization_failure
	ConflictDeadlock                               // 40P01 deadlock_detected
)

func (c ConflictClass) String() string {
	switch c {
	case ConflictSerialization:
		return "serialization"
	case ConflictDeadlock:
		return "deadlock"
	default:
		return "unknown"
	}
}

// ConflictError envuelve un error del almacén que puede resolverse reintentando la transacción.
// Solo el ciclo de reintentos de la venta lo inspecciona.
type ConflictError struct {
	Class ConflictClass
	Err   error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicto de concurrencia (%s): %v", e.Class, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }
