package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-ims/nexus-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Explosión de BOM
// ──────────────────────────────────────────────────────────────────────────────

func TestExplode_MultiplicaPorCantidadPlaneada(t *testing.T) {
	bom := &entity.BOM{
		Lines: []*entity.BOMLine{
			{ComponentSkuID: "pata", Quantity: decimal.NewFromInt(4)},
			{ComponentSkuID: "tablero", Quantity: decimal.NewFromInt(1)},
		},
	}

	req := bom.Explode(decimal.NewFromInt(5))

	require.Len(t, req, 2)
	assert.True(t, req["pata"].Equal(decimal.NewFromInt(20)))
	assert.True(t, req["tablero"].Equal(decimal.NewFromInt(5)))
}

func TestExplode_LineasRepetidasSeAcumulan(t *testing.T) {
	// El mismo componente puede aparecer en varias líneas (p. ej. tornillo
	// en dos sub-ensambles); la explosión debe sumarlas.
	bom := &entity.BOM{
		Lines: []*entity.BOMLine{
			{ComponentSkuID: "tornillo", Quantity: decimal.NewFromInt(8)},
			{ComponentSkuID: "tornillo", Quantity: decimal.NewFromInt(4)},
		},
	}

	req := bom.Explode(decimal.NewFromInt(2))

	require.Len(t, req, 1)
	assert.True(t, req["tornillo"].Equal(decimal.NewFromInt(24)), "8×2 + 4×2")
}

func TestExplode_CantidadesFraccionarias(t *testing.T) {
	bom := &entity.BOM{
		Lines: []*entity.BOMLine{
			{ComponentSkuID: "pintura", Quantity: decimal.RequireFromString("0.25"), Unit: "L"},
		},
	}

	req := bom.Explode(decimal.NewFromInt(3))

	assert.True(t, req["pintura"].Equal(decimal.RequireFromString("0.75")))
}
