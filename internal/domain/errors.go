package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// El motor de posteo y los adaptadores devuelven siempre uno de estos
// sentinelas (envuelto con %w cuando hay contexto adicional); la capa HTTP
// los mapea a códigos de estado con errors.Is.
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")

	// Taxonomía del ledger.
	ErrOutOfStock          = errors.New("stock insuficiente")
	ErrInvalidEventType    = errors.New("tipo de evento inválido")
	ErrInvalidQuantitySign = errors.New("signo de cantidad inválido para el tipo de evento")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia sobre la clave de stock") // transitorio, reintentable
	ErrStaleAggregateState = errors.New("estado del agregado incompatible con la operación")
	ErrTenantMismatch      = errors.New("referencia cruzada entre tenants")
)
