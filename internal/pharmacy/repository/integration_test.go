package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/repository"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/pharmastock/pharmastock-backend/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repos struct {
	products *repository.ProductRepository
	stores   *repository.StoreRepository
	batches  *repository.BatchRepository
	sales    *repository.SaleRepository
	users    *repository.UserRepository
}

func setup(t *testing.T) (context.Context, repos) {
	t.Helper()
	testutil.SkipIfShort(t)
	suite.Reset(t)

	return testutil.DefaultTestContext(t), repos{
		products: repository.NewProductRepository(suite.DB),
		stores:   repository.NewStoreRepository(suite.DB),
		batches:  repository.NewBatchRepository(suite.DB),
		sales:    repository.NewSaleRepository(suite.DB),
		users:    repository.NewUserRepository(suite.DB),
	}
}

func seedProductAndStore(t *testing.T, ctx context.Context, r repos, name string, minStock int) (*domain.Product, *domain.Store) {
	t.Helper()
	p := suite.Fixtures.Product(name, minStock)
	require.NoError(t, r.products.Create(ctx, p))
	s := suite.Fixtures.Store("Main")
	require.NoError(t, r.stores.Create(ctx, s))
	return p, s
}

func TestIntegration_StockSnapshotAndFEFO(t *testing.T) {
	ctx, r := setup(t)
	today := domain.DateOf(time.Now(), time.UTC)

	p, s := seedProductAndStore(t, ctx, r, "Amoxicillin 500mg", 10)
	late := suite.Fixtures.Batch(p.ID, s.ID, 30, today.AddDays(40), "550.00", "1100.00")
	early := suite.Fixtures.Batch(p.ID, s.ID, 20, today.AddDays(10), "500.00", "1000.00")
	require.NoError(t, r.batches.Create(ctx, late))
	require.NoError(t, r.batches.Create(ctx, early))

	snap, err := r.batches.Snapshot(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, snap.CurrentQuantity)
	assert.True(t, snap.Value.Equal(decimal.NewFromInt(26500)), "got %s", snap.Value)

	price, err := r.batches.LowestActivePrice(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, price.Valid)
	assert.True(t, price.Decimal.Equal(decimal.NewFromInt(1000)))

	var order []int64
	for b, err := range r.batches.ActiveFEFO(ctx, p.ID, 5) {
		require.NoError(t, err)
		order = append(order, b.ID)
	}
	assert.Equal(t, []int64{early.ID, late.ID}, order)

	got, err := r.batches.GetByID(ctx, early.ID)
	require.NoError(t, err)
	assert.Equal(t, early.ExpiryDate.String(), got.ExpiryDate.String())
}

func TestIntegration_DeductDepletesBatch(t *testing.T) {
	ctx, r := setup(t)
	today := domain.DateOf(time.Now(), time.UTC)

	p, s := seedProductAndStore(t, ctx, r, "Paracetamol 500mg", 0)
	b := suite.Fixtures.Batch(p.ID, s.ID, 5, today.AddDays(90), "10.00", "20.00")
	require.NoError(t, r.batches.Create(ctx, b))

	err := suite.DB.WithTx(ctx, func(ctx context.Context) error {
		locked, err := r.batches.LockSaleable(ctx, p.ID, s.ID, today)
		if err != nil {
			return err
		}
		require.Len(t, locked, 1)

		remaining, status, err := r.batches.Deduct(ctx, locked[0].ID, 5)
		if err != nil {
			return err
		}
		assert.Equal(t, 0, remaining)
		assert.Equal(t, domain.BatchDepleted, status)
		return nil
	})
	require.NoError(t, err)

	snap, err := r.batches.Snapshot(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.CurrentQuantity)

	price, err := r.batches.LowestActivePrice(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, price.Valid)

	// the check constraint forbids going negative
	_, _, err = r.batches.Deduct(ctx, b.ID, 1)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestIntegration_LockSaleableSkipsExpired(t *testing.T) {
	ctx, r := setup(t)
	today := domain.DateOf(time.Now(), time.UTC)

	p, s := seedProductAndStore(t, ctx, r, "Cough Syrup", 0)
	require.NoError(t, r.batches.Create(ctx, suite.Fixtures.Batch(p.ID, s.ID, 5, today, "1.00", "2.00")))
	fresh := suite.Fixtures.Batch(p.ID, s.ID, 5, today.AddDays(1), "1.00", "2.00")
	require.NoError(t, r.batches.Create(ctx, fresh))

	err := suite.DB.WithTx(ctx, func(ctx context.Context) error {
		locked, err := r.batches.LockSaleable(ctx, p.ID, s.ID, today)
		require.NoError(t, err)
		require.Len(t, locked, 1)
		assert.Equal(t, fresh.ID, locked[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestIntegration_ExpiringBetweenBoundaries(t *testing.T) {
	ctx, r := setup(t)
	today := domain.DateOf(time.Now(), time.UTC)

	p, s := seedProductAndStore(t, ctx, r, "Insulin", 0)
	for _, offset := range []int{0, 30, 31, 1} {
		require.NoError(t, r.batches.Create(ctx, suite.Fixtures.Batch(p.ID, s.ID, 3, today.AddDays(offset), "1.00", "2.00")))
	}

	got, err := r.batches.ExpiringBetween(ctx, today, today.AddDays(30), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, today.AddDays(1).String(), got[0].ExpiryDate.String())
	assert.Equal(t, today.AddDays(30).String(), got[1].ExpiryDate.String())
	assert.Equal(t, "Insulin", got[0].ProductName)
	assert.Equal(t, "Main", got[0].StoreName)

	n, err := r.batches.CountExpiringBetween(ctx, today, today.AddDays(30))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestIntegration_MonitoredProducts(t *testing.T) {
	ctx, r := setup(t)
	today := domain.DateOf(time.Now(), time.UTC)

	empty, s := seedProductAndStore(t, ctx, r, "Empty", 10)
	stocked := suite.Fixtures.Product("Stocked", 5)
	require.NoError(t, r.products.Create(ctx, stocked))
	require.NoError(t, r.products.Create(ctx, suite.Fixtures.Product("Unmonitored", 0)))
	require.NoError(t, r.batches.Create(ctx, suite.Fixtures.Batch(stocked.ID, s.ID, 7, today.AddDays(60), "1.00", "2.00")))

	got, err := r.products.MonitoredProducts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[int64]domain.MonitoredProduct{}
	for _, m := range got {
		byID[m.ProductID] = m
	}
	assert.Equal(t, 0, byID[empty.ID].CurrentQuantity)
	assert.Equal(t, 7, byID[stocked.ID].CurrentQuantity)
	stockedMonitored := byID[stocked.ID]
	assert.Equal(t, "tab", stockedMonitored.Unit())
}

func TestIntegration_ProductConstraints(t *testing.T) {
	ctx, r := setup(t)
	today := domain.DateOf(time.Now(), time.UTC)

	p, s := seedProductAndStore(t, ctx, r, "Amoxicillin 500mg", 10)
	require.NoError(t, r.products.SetBarcode(ctx, p.ID, "8901234567890"))

	other := suite.Fixtures.Product("Other", 0)
	barcode := "8901234567890"
	other.Barcode = &barcode
	err := r.products.Create(ctx, other)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	found, err := r.products.GetByBarcode(ctx, barcode)
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	first, err := r.products.FindFirst(ctx, "amoxi")
	require.NoError(t, err)
	assert.Equal(t, p.ID, first.ID)

	require.NoError(t, r.batches.Create(ctx, suite.Fixtures.Batch(p.ID, s.ID, 1, today.AddDays(5), "1.00", "2.00")))
	err = r.products.Delete(ctx, p.ID)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	lonely := suite.Fixtures.Product("Lonely", 0)
	require.NoError(t, r.products.Create(ctx, lonely))
	require.NoError(t, r.products.Delete(ctx, lonely.ID))
	_, err = r.products.GetByID(ctx, lonely.ID)
	assert.True(t, errors.IsNotFound(err))
}

func TestIntegration_SaleRoundTrip(t *testing.T) {
	ctx, r := setup(t)
	today := domain.DateOf(time.Now(), time.UTC)

	p, s := seedProductAndStore(t, ctx, r, "Vitamin C", 0)
	b := suite.Fixtures.Batch(p.ID, s.ID, 10, today.AddDays(100), "1.00", "2.50")
	require.NoError(t, r.batches.Create(ctx, b))

	u := suite.Fixtures.User("cashier1", "secret", "cashier")
	require.NoError(t, r.users.Create(ctx, u))

	sale := &domain.Sale{
		ReceiptNumber:   "RCP-TEST-1",
		StoreID:         s.ID,
		TransactionType: domain.TransactionSale,
		TotalAmount:     decimal.RequireFromString("5.00"),
		PerformedBy:     &u.ID,
		Items: []domain.SaleItem{{
			ProductID: p.ID, BatchID: b.ID, Quantity: 2,
			UnitPrice: decimal.RequireFromString("2.50"), LineTotal: decimal.RequireFromString("5.00"),
		}},
	}
	require.NoError(t, suite.DB.WithTx(ctx, func(ctx context.Context) error {
		return r.sales.Create(ctx, sale)
	}))

	loaded, err := r.sales.GetByID(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main", loaded.StoreName)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "Vitamin C", loaded.Items[0].ProductName)
	assert.Equal(t, b.BatchNumber, loaded.Items[0].BatchNumber)

	from := time.Now().Add(-time.Hour)
	summary, err := r.sales.Summary(ctx, from, from.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Transactions)
	assert.True(t, summary.TotalAmount.Equal(decimal.NewFromInt(5)))

	top, err := r.sales.TopProducts(ctx, from, from.Add(2*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, p.ID, top[0].ProductID)
	assert.Equal(t, 2, top[0].QuantitySold)
	assert.Equal(t, 1, top[0].Transactions)
	assert.True(t, top[0].Revenue.Equal(decimal.NewFromInt(5)))

	none, err := r.sales.TopProducts(ctx, from.Add(-48*time.Hour), from.Add(-24*time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	recent, err := r.sales.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "RCP-TEST-1", recent[0].ReceiptNumber)

	byName, err := r.users.GetByUsername(ctx, "cashier1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
	require.NoError(t, r.users.TouchLastLogin(ctx, u.ID, time.Now()))
}
