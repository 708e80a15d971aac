package http

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/nexus-ims/nexus-api/internal/application/dto"
	"github.com/nexus-ims/nexus-api/internal/domain"
	"github.com/nexus-ims/nexus-api/internal/domain/entity"
)

// parseDecimal convierte el string decimal del body; error de dominio si no parsea.
func parseDecimal(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: %s es requerido", domain.ErrInvalidInput, field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s no es un decimal válido", domain.ErrInvalidInput, field)
	}
	return d, nil
}

func toStockEventResponse(ev *entity.StockEvent) dto.StockEventResponse {
	return dto.StockEventResponse{
		ID:            ev.ID,
		TenantID:      ev.TenantID,
		SkuID:         ev.SkuID,
		WarehouseID:   ev.WarehouseID,
		EventType:     ev.EventType,
		QuantityDelta: ev.QuantityDelta.String(),
		ReferenceID:   ev.ReferenceID,
		ReasonCode:    ev.ReasonCode,
		Notes:         ev.Notes,
		CreatedAt:     ev.CreatedAt,
		CreatedBy:     ev.CreatedBy,
	}
}

func toTransferResponse(o *entity.TransferOrder) dto.TransferResponse {
	out := dto.TransferResponse{
		ID:              o.ID,
		TenantID:        o.TenantID,
		FromWarehouseID: o.FromWarehouseID,
		ToWarehouseID:   o.ToWarehouseID,
		Status:          o.Status,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		ReceivedAt:      o.ReceivedAt,
	}
	for _, l := range o.Lines {
		out.Lines = append(out.Lines, dto.TransferLineResponse{
			ID:                l.ID,
			SkuID:             l.SkuID,
			QuantityRequested: l.QuantityRequested.String(),
			QuantityReceived:  l.QuantityReceived.String(),
		})
	}
	return out
}

func toBOMResponse(b *entity.BOM) dto.BOMResponse {
	out := dto.BOMResponse{
		ID:                    b.ID,
		TenantID:              b.TenantID,
		FinishedSkuID:         b.FinishedSkuID,
		Version:               b.Version,
		IsActive:              b.IsActive,
		LandedCost:            b.LandedCost.String(),
		LandedCostDescription: b.LandedCostDescription,
		CreatedAt:             b.CreatedAt,
	}
	for _, l := range b.Lines {
		out.Lines = append(out.Lines, dto.BOMLineResponse{
			ID:             l.ID,
			ComponentSkuID: l.ComponentSkuID,
			Quantity:       l.Quantity.String(),
			Unit:           l.Unit,
		})
	}
	return out
}

func toAssemblyOrderResponse(o *entity.AssemblyOrder) dto.AssemblyOrderResponse {
	out := dto.AssemblyOrderResponse{
		ID:          o.ID,
		TenantID:    o.TenantID,
		BOMID:       o.BOMID,
		BOMVersion:  o.BOMVersion,
		WarehouseID: o.WarehouseID,
		PlannedQty:  o.PlannedQty.String(),
		WasteReason: o.WasteReason,
		Status:      o.Status,
		StartedAt:   o.StartedAt,
		CompletedAt: o.CompletedAt,
	}
	out.ProducedQty = decimalPtrString(o.ProducedQty)
	out.WasteQty = decimalPtrString(o.WasteQty)
	out.CogsPerUnit = decimalPtrString(o.CogsPerUnit)
	return out
}

func toPurchaseOrderResponse(po *entity.PurchaseOrder) dto.PurchaseOrderResponse {
	out := dto.PurchaseOrderResponse{
		ID:           po.ID,
		TenantID:     po.TenantID,
		SupplierName: po.SupplierName,
		WarehouseID:  po.WarehouseID,
		Status:       po.Status,
		Notes:        po.Notes,
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
	}
	for _, l := range po.Lines {
		out.Lines = append(out.Lines, dto.PurchaseLineResponse{
			ID:               l.ID,
			SkuID:            l.SkuID,
			QuantityOrdered:  l.QuantityOrdered.String(),
			QuantityReceived: l.QuantityReceived.String(),
			UnitCost:         l.UnitCost.String(),
		})
	}
	return out
}

func toSalesOrderResponse(o *entity.SalesOrder) dto.SalesOrderResponse {
	out := dto.SalesOrderResponse{
		ID:              o.ID,
		TenantID:        o.TenantID,
		CustomerName:    o.CustomerName,
		OrderReference:  o.OrderReference,
		ShippingAddress: o.ShippingAddress,
		WarehouseID:     o.WarehouseID,
		Status:          o.Status,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, l := range o.Lines {
		out.Lines = append(out.Lines, dto.SalesLineResponse{
			ID:           l.ID,
			SkuID:        l.SkuID,
			Quantity:     l.Quantity.String(),
			UnitPrice:    l.UnitPrice.String(),
			FulfilledQty: l.FulfilledQty.String(),
		})
	}
	return out
}

func toScanSKUResponse(s *entity.SKU) dto.SKUResponse {
	out := dto.SKUResponse{
		ID:           s.ID,
		TenantID:     s.TenantID,
		Code:         s.Code,
		Name:         s.Name,
		ItemTypeID:   s.ItemTypeID,
		Attributes:   s.Attributes,
		IsArchived:   s.IsArchived,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		ReorderPoint: decimalPtrString(s.ReorderPoint),
		UnitCost:     decimalPtrString(s.UnitCost),
	}
	return out
}

func decimalPtrString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}
