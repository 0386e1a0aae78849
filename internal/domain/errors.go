package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrDuplicateCode     = errors.New("el código ya existe")
	ErrMissingField      = errors.New("campo obligatorio faltante")
	ErrLotMismatch       = errors.New("el lote no pertenece al artículo")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrNoChanges         = errors.New("sin cambios que aplicar")
	ErrInsufficientData  = errors.New("datos históricos insuficientes")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
)

// InsufficientStockError incluye la cantidad disponible para que el caller
// pueda mostrarla sin una segunda consulta.
type InsufficientStockError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: disponible %s, solicitado %s",
		e.Available.String(), e.Requested.String())
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// LotMismatchError indica que el lote seleccionado pertenece a otro artículo.
type LotMismatchError struct {
	LotID      string
	LotItemID  string
	WantItemID string
}

func (e *LotMismatchError) Error() string {
	return fmt.Sprintf("el lote %s pertenece al artículo %s, no a %s",
		e.LotID, e.LotItemID, e.WantItemID)
}

func (e *LotMismatchError) Is(target error) bool {
	return target == ErrLotMismatch
}

// PartialFailureError reporta una escritura multi-paso que falló a mitad de camino,
// junto con el resultado de la compensación (rollback manual).
type PartialFailureError struct {
	Cause       error
	Compensated bool
}

func (e *PartialFailureError) Error() string {
	if e.Compensated {
		return fmt.Sprintf("fallo parcial (compensado): %v", e.Cause)
	}
	return fmt.Sprintf("fallo parcial (compensación fallida): %v", e.Cause)
}

func (e *PartialFailureError) Unwrap() error { return e.Cause }
