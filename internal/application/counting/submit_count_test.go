package counting_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcounting "github.com/jhoicas/Conteo-api/internal/application/counting"
	"github.com/jhoicas/Conteo-api/internal/domain"
	"github.com/jhoicas/Conteo-api/internal/domain/counting"
	"github.com/jhoicas/Conteo-api/internal/domain/entity"
)

// startedCount conteo full sobre central en estado counting.
func startedCount(t *testing.T, f *fixture) *entity.InventoryCount {
	t.Helper()
	ctx := context.Background()
	count, err := f.create.Create(ctx, appcounting.CreateCountInput{
		Type:       entity.CountTypeFull,
		Warehouses: []string{"central"},
		CreatedBy:  "ana",
	})
	require.NoError(t, err)
	count, err = f.trans.Transition(ctx, count.ID, counting.StatusCounting, "ana")
	require.NoError(t, err)
	return count
}

// ──────────────────────────────────────────────────────────────────────────────
// Submit
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmit_PrimeraVuelta(t *testing.T) {
	f := newFixture()
	seedThreeItems(f)
	count := startedCount(t, f)

	item, err := f.submit.Submit(context.Background(), appcounting.SubmitInput{
		CountID:   count.ID,
		ItemID:    "i1",
		Warehouse: "central",
		Quantity:  dec("12"),
		CountedBy: "luis",
		Notes:     "estante completo",
	})
	require.NoError(t, err)

	require.NotNil(t, item.CountedQuantity)
	assert.True(t, dec("12").Equal(*item.CountedQuantity))
	assert.Equal(t, "luis", item.CountedBy)
	require.Len(t, item.Rounds, 1)
	assert.Equal(t, 1, item.Rounds[0].RoundNumber)

	// Los agregados quedan recalculados en la misma operación.
	updated, _, err := f.query.Get(count.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CountedItems)
	assert.Equal(t, 1, updated.Discrepancies)
	assert.True(t, dec("200").Equal(updated.DiscrepancyValue), "(12-10) × 100")
}

func TestSubmit_VueltasSucesivasLaUltimaGana(t *testing.T) {
	f := newFixture()
	seedThreeItems(f)
	count := startedCount(t, f)
	ctx := context.Background()

	for i, qty := range []string{"12", "11", "10"} {
		item, err := f.submit.Submit(ctx, appcounting.SubmitInput{
			CountID:   count.ID,
			ItemID:    "i1",
			Warehouse: "central",
			Quantity:  dec(qty),
			CountedBy: "luis",
		})
		require.NoError(t, err)
		assert.Equal(t, i+1, item.Rounds[len(item.Rounds)-1].RoundNumber, "las vueltas son consecutivas")
	}

	stored, items, err := f.query.Get(count.ID)
	require.NoError(t, err)
	var i1 *entity.CountItem
	for _, it := range items {
		if it.ItemID == "i1" {
			i1 = it
		}
	}
	require.NotNil(t, i1)
	require.Len(t, i1.Rounds, 3, "el historial completo de vueltas se conserva")
	assert.True(t, dec("10").Equal(*i1.CountedQuantity), "la última vuelta es la vigente")
	assert.Equal(t, 1, stored.CountedItems, "tres vueltas del mismo ítem cuentan una sola vez")
	assert.Equal(t, 0, stored.Discrepancies, "la última vuelta coincide con la foto")
}

func TestSubmit_CantidadNegativa(t *testing.T) {
	f := newFixture()
	seedThreeItems(f)
	count := startedCount(t, f)

	_, err := f.submit.Submit(context.Background(), appcounting.SubmitInput{
		CountID:   count.ID,
		ItemID:    "i1",
		Warehouse: "central",
		Quantity:  dec("-1"),
		CountedBy: "luis",
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSubmit_ItemFueraDelConteo(t *testing.T) {
	f := newFixture()
	seedThreeItems(f)
	count := startedCount(t, f)

	// i3 vive en norte, el conteo solo cubre central.
	_, err := f.submit.Submit(context.Background(), appcounting.SubmitInput{
		CountID:   count.ID,
		ItemID:    "i3",
		Warehouse: "norte",
		Quantity:  dec("5"),
		CountedBy: "luis",
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmit_RechazadoFueraDeDraftOCounting(t *testing.T) {
	f := newFixture()
	seedThreeItems(f)
	count := startedCount(t, f)
	ctx := context.Background()

	_, err := f.trans.Transition(ctx, count.ID, counting.StatusReadyForApproval, "ana")
	require.NoError(t, err)

	_, err = f.submit.Submit(ctx, appcounting.SubmitInput{
		CountID:   count.ID,
		ItemID:    "i1",
		Warehouse: "central",
		Quantity:  dec("12"),
		CountedBy: "luis",
	})
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

// ──────────────────────────────────────────────────────────────────────────────
// SubmitBulk
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmitBulk_RegistraTodas(t *testing.T) {
	f := newFixture()
	seedThreeItems(f)
	count := startedCount(t, f)

	items, err := f.submit.SubmitBulk(context.Background(), []appcounting.SubmitInput{
		{CountID: count.ID, ItemID: "i1", Warehouse: "central", Quantity: dec("12"), CountedBy: "luis"},
		{CountID: count.ID, ItemID: "i2", Warehouse: "central", Quantity: dec("8"), CountedBy: "luis"},
	})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	stored, _, err := f.query.Get(count.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CountedItems)
}

func TestSubmitBulk_SeDetieneEnElPrimerError(t *testing.T) {
	f := newFixture()
	seedThreeItems(f)
	count := startedCount(t, f)

	items, err := f.submit.SubmitBulk(context.Background(), []appcounting.SubmitInput{
		{CountID: count.ID, ItemID: "i1", Warehouse: "central", Quantity: dec("12"), CountedBy: "luis"},
		{CountID: count.ID, ItemID: "no-existe", Warehouse: "central", Quantity: dec("1"), CountedBy: "luis"},
		{CountID: count.ID, ItemID: "i2", Warehouse: "central", Quantity: dec("8"), CountedBy: "luis"},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, items, 1, "solo la vuelta previa al error queda registrada")

	stored, _, err := f.query.Get(count.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CountedItems, "la tercera entrada no debe procesarse")
}
