package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-ims/nexus-api/internal/application/catalog"
	"github.com/nexus-ims/nexus-api/internal/application/dto"
	"github.com/nexus-ims/nexus-api/internal/domain"
	"github.com/nexus-ims/nexus-api/internal/testsupport"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const tenantA = "00000000-0000-0000-0000-00000000000a"

type fixture struct {
	whUC *catalog.WarehouseUseCase
	itUC *catalog.ItemTypeUseCase
	skUC *catalog.SKUUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := testsupport.NewStore()
	itemTypeRepo := testsupport.NewItemTypeRepo(st)
	return &fixture{
		whUC: catalog.NewWarehouseUseCase(testsupport.NewWarehouseRepo(st)),
		itUC: catalog.NewItemTypeUseCase(itemTypeRepo),
		skUC: catalog.NewSKUUseCase(testsupport.NewSKURepo(st), itemTypeRepo),
	}
}

func strptr(s string) *string { return &s }

// ──────────────────────────────────────────────────────────────────────────────
// Bodegas
// ──────────────────────────────────────────────────────────────────────────────

func TestWarehouse_CrearYConsultar(t *testing.T) {
	f := newFixture(t)

	w, err := f.whUC.Create(tenantA, dto.CreateWarehouseRequest{
		Name: "Bodega Central", Code: "BOG-01", Address: "Cra 30 # 1-20", Timezone: "America/Bogota",
	})
	require.NoError(t, err)
	assert.True(t, w.IsActive, "las bodegas nacen activas")

	got, err := f.whUC.GetByID(tenantA, w.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "BOG-01", got.Code)
}

func TestWarehouse_GetDeOtroTenantEsNil(t *testing.T) {
	f := newFixture(t)
	w, err := f.whUC.Create(tenantA, dto.CreateWarehouseRequest{Name: "Central"})
	require.NoError(t, err)

	got, err := f.whUC.GetByID("otro-tenant", w.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWarehouse_NombreRequerido(t *testing.T) {
	f := newFixture(t)
	_, err := f.whUC.Create(tenantA, dto.CreateWarehouseRequest{Code: "X"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWarehouse_UpdateParcial(t *testing.T) {
	f := newFixture(t)
	w, err := f.whUC.Create(tenantA, dto.CreateWarehouseRequest{Name: "Central", Code: "BOG-01"})
	require.NoError(t, err)

	inactive := false
	got, err := f.whUC.Update(tenantA, w.ID, dto.UpdateWarehouseRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, "Central", got.Name, "los campos no enviados no cambian")
}

// ──────────────────────────────────────────────────────────────────────────────
// SKUs
// ──────────────────────────────────────────────────────────────────────────────

func TestSKU_CreateValidaElItemType(t *testing.T) {
	f := newFixture(t)

	_, err := f.skUC.Create(tenantA, dto.CreateSKURequest{
		Code: "SILLA-01", Name: "Silla", ItemTypeID: "no-existe",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	it, err := f.itUC.Create(tenantA, dto.CreateItemTypeRequest{Name: "Terminado", Code: "FIN"})
	require.NoError(t, err)

	sku, err := f.skUC.Create(tenantA, dto.CreateSKURequest{
		Code: "SILLA-01", Name: "Silla", ItemTypeID: it.ID,
		UnitCost: strptr("12.50"),
	})
	require.NoError(t, err)
	require.NotNil(t, sku.UnitCost)
	assert.Equal(t, "12.5", *sku.UnitCost)
	assert.False(t, sku.IsArchived)
}

func TestSKU_DecimalInvalidoRechazado(t *testing.T) {
	f := newFixture(t)
	it, err := f.itUC.Create(tenantA, dto.CreateItemTypeRequest{Name: "Terminado"})
	require.NoError(t, err)

	_, err = f.skUC.Create(tenantA, dto.CreateSKURequest{
		Code: "SILLA-01", Name: "Silla", ItemTypeID: it.ID,
		UnitCost: strptr("doce pesos"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSKU_ArchiveLoSacaDelFlujo(t *testing.T) {
	f := newFixture(t)
	it, err := f.itUC.Create(tenantA, dto.CreateItemTypeRequest{Name: "Terminado"})
	require.NoError(t, err)
	sku, err := f.skUC.Create(tenantA, dto.CreateSKURequest{Code: "SILLA-01", Name: "Silla", ItemTypeID: it.ID})
	require.NoError(t, err)

	require.NoError(t, f.skUC.Archive(tenantA, sku.ID))

	got, err := f.skUC.GetByID(tenantA, sku.ID)
	require.NoError(t, err)
	require.NotNil(t, got, "archivado no es borrado: sigue consultable")
	assert.True(t, got.IsArchived)
}

func TestSKU_ListOrdenadoPorCodigo(t *testing.T) {
	f := newFixture(t)
	it, err := f.itUC.Create(tenantA, dto.CreateItemTypeRequest{Name: "Terminado"})
	require.NoError(t, err)
	for _, code := range []string{"MESA-01", "SILLA-01", "BANCO-01"} {
		_, err := f.skUC.Create(tenantA, dto.CreateSKURequest{Code: code, Name: code, ItemTypeID: it.ID})
		require.NoError(t, err)
	}

	list, err := f.skUC.List(tenantA, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "BANCO-01", list[0].Code)
	assert.Equal(t, "SILLA-01", list[2].Code)
}
