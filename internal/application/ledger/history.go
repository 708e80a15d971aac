package ledger

import (
	"context"

	"github.com/nexus-ims/nexus-api/internal/domain/entity"
	"github.com/nexus-ims/nexus-api/internal/domain/repository"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// HistoryQuery filtros y paginación para el historial.
type HistoryQuery struct {
	Filter   repository.HistoryFilter
	Page     int
	PageSize int
}

// HistoryPage página de historial con saldo acumulado por fila.
type HistoryPage struct {
	Entries  []*entity.LedgerEntry
	Total    int
	Page     int
	PageSize int
}

// GetTransactionHistory historial ordenado por created_at ascendente. El
// saldo acumulado de cada fila se calcula en el repositorio sobre el prefijo
// completo del log (no sobre la página), así el acumulado de la página N no
// depende de si el caller pidió la página N−1. Solo se emite acumulado cuando
// el filtro fija la pareja (sku, bodega).
func (e *Engine) GetTransactionHistory(ctx context.Context, tenantID string, q HistoryQuery) (*HistoryPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	offset := (q.Page - 1) * q.PageSize
	entries, total, err := e.events.List(tenantID, q.Filter, q.PageSize, offset)
	if err != nil {
		return nil, err
	}
	return &HistoryPage{
		Entries:  entries,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}, nil
}
