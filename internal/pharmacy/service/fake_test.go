package service_test

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

// memDB is an in-memory stand-in for the PostgreSQL schema. It aggregates in
// process and follows the same rules as the SQL repositories.
type memDB struct {
	mu       sync.Mutex
	seq      int64
	products map[int64]*domain.Product
	batches  map[int64]*domain.StockBatch
	stores   map[int64]*domain.Store
	sales    map[int64]*domain.Sale
	users    map[string]*domain.User

	// tables listed here fail with PersistenceUnavailable
	down map[string]bool
	now  func() time.Time
}

func newMemDB() *memDB {
	return &memDB{
		products: map[int64]*domain.Product{},
		batches:  map[int64]*domain.StockBatch{},
		stores:   map[int64]*domain.Store{},
		sales:    map[int64]*domain.Sale{},
		users:    map[string]*domain.User{},
		down:     map[string]bool{},
		now:      time.Now,
	}
}

func (m *memDB) nextID() int64 {
	m.seq++
	return m.seq
}

func (m *memDB) check(table string) error {
	if m.down[table] {
		return errors.Unavailable(fmt.Errorf("relation %q does not exist", table))
	}
	return nil
}

func (m *memDB) takeDown(tables ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tables {
		m.down[t] = true
	}
}

// WithTx restores batches and sales when fn fails
func (m *memDB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	batches := make(map[int64]domain.StockBatch, len(m.batches))
	for id, b := range m.batches {
		batches[id] = *b
	}
	products := make(map[int64]domain.Product, len(m.products))
	for id, p := range m.products {
		products[id] = *p
	}
	sales := make(map[int64]*domain.Sale, len(m.sales))
	for id, s := range m.sales {
		sales[id] = s
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.batches = make(map[int64]*domain.StockBatch, len(batches))
		for id, b := range batches {
			m.batches[id] = &b
		}
		m.products = make(map[int64]*domain.Product, len(products))
		for id, p := range products {
			m.products[id] = &p
		}
		m.sales = sales
		return err
	}
	return nil
}

// ---- seeding helpers ----

func (m *memDB) addProduct(code, name string, minStock int) *domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &domain.Product{ID: m.nextID(), ProductCode: code, ProductName: name, MinStock: minStock, Status: domain.ProductActive}
	m.products[p.ID] = p
	return p
}

func (m *memDB) addStore(name string) *domain.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &domain.Store{ID: m.nextID(), StoreCode: strings.ToUpper(name[:3]), StoreName: name, Status: domain.StoreActive}
	m.stores[s.ID] = s
	return s
}

func (m *memDB) addBatch(productID, storeID int64, qty int, expiry domain.Date, cost, price string) *domain.StockBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID()
	b := &domain.StockBatch{
		ID: id, ProductID: productID, StoreID: storeID,
		BatchNumber: fmt.Sprintf("LOT-%d", id), ExpiryDate: expiry,
		InitialQuantity: qty, CurrentQuantity: qty,
		UnitCost: decimal.RequireFromString(cost), SellingPrice: decimal.RequireFromString(price),
		Status: domain.BatchActive,
	}
	m.batches[id] = b
	return b
}

func (m *memDB) batch(id int64) domain.StockBatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.batches[id]
}

func sortFEFO(batches []*domain.StockBatch) {
	slices.SortFunc(batches, func(a, b *domain.StockBatch) int {
		if c := a.ExpiryDate.Compare(b.ExpiryDate.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// ---- products ----

type fakeProducts struct{ db *memDB }

var _ service.ProductStore = fakeProducts{}

func (f fakeProducts) Create(_ context.Context, p *domain.Product) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("products"); err != nil {
		return err
	}
	for _, other := range f.db.products {
		if other.ProductCode == p.ProductCode {
			return errors.Conflict("a product with this code already exists")
		}
		if p.Barcode != nil && other.Barcode != nil && *other.Barcode == *p.Barcode {
			return errors.Conflict("a product with this barcode already exists")
		}
	}
	p.ID = f.db.nextID()
	p.CreatedAt, p.UpdatedAt = time.Now(), time.Now()
	cp := *p
	f.db.products[p.ID] = &cp
	return nil
}

func (f fakeProducts) SetBarcode(_ context.Context, id int64, barcode string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.products[id]
	if !ok {
		return errors.NotFound("product")
	}
	p.Barcode = &barcode
	return nil
}

func (f fakeProducts) find(match func(*domain.Product) bool) (*domain.Product, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("products"); err != nil {
		return nil, err
	}
	var found []*domain.Product
	for _, p := range f.db.products {
		if match(p) {
			found = append(found, p)
		}
	}
	if len(found) == 0 {
		return nil, errors.NotFound("product")
	}
	slices.SortFunc(found, func(a, b *domain.Product) int {
		if c := strings.Compare(a.ProductName, b.ProductName); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	cp := *found[0]
	return &cp, nil
}

func (f fakeProducts) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	return f.find(func(p *domain.Product) bool { return p.ID == id })
}

func (f fakeProducts) GetByBarcode(_ context.Context, barcode string) (*domain.Product, error) {
	return f.find(func(p *domain.Product) bool { return p.Barcode != nil && *p.Barcode == barcode })
}

func (f fakeProducts) GetByCode(_ context.Context, code string) (*domain.Product, error) {
	return f.find(func(p *domain.Product) bool { return p.ProductCode == code })
}

func matchesTerm(p *domain.Product, term string) bool {
	term = strings.ToLower(term)
	fields := []string{p.ProductCode, p.ProductName}
	if p.GenericName != nil {
		fields = append(fields, *p.GenericName)
	}
	if p.Barcode != nil {
		fields = append(fields, *p.Barcode)
	}
	for _, v := range fields {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

func (f fakeProducts) FindFirst(_ context.Context, term string) (*domain.Product, error) {
	return f.find(func(p *domain.Product) bool { return matchesTerm(p, term) })
}

func (f fakeProducts) List(_ context.Context, filter domain.ProductFilter) ([]*domain.Product, int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("products"); err != nil {
		return nil, 0, err
	}
	var all []*domain.Product
	for _, p := range f.db.products {
		if filter.Search != "" && !matchesTerm(p, filter.Search) {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		cp := *p
		all = append(all, &cp)
	}
	slices.SortFunc(all, func(a, b *domain.Product) int {
		if c := strings.Compare(a.ProductName, b.ProductName); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	start := min((filter.Page-1)*filter.PerPage, len(all))
	end := min(start+filter.PerPage, len(all))
	return all[start:end], int64(len(all)), nil
}

func (f fakeProducts) Update(_ context.Context, p *domain.Product) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.products[p.ID]; !ok {
		return errors.NotFound("product")
	}
	cp := *p
	f.db.products[p.ID] = &cp
	return nil
}

func (f fakeProducts) Delete(_ context.Context, id int64) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.products[id]; !ok {
		return errors.NotFound("product")
	}
	for _, b := range f.db.batches {
		if b.ProductID == id {
			return errors.Conflict("product has stock or sales history; set its status to DISCONTINUED instead")
		}
	}
	delete(f.db.products, id)
	return nil
}

func (f fakeProducts) Count(_ context.Context) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("products"); err != nil {
		return 0, err
	}
	return len(f.db.products), nil
}

func (f fakeProducts) MonitoredProducts(_ context.Context) ([]domain.MonitoredProduct, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("products"); err != nil {
		return nil, err
	}
	if err := f.db.check("stock_batches"); err != nil {
		return nil, err
	}
	var out []domain.MonitoredProduct
	for _, p := range f.db.products {
		if p.MinStock <= 0 {
			continue
		}
		qty := 0
		for _, b := range f.db.batches {
			if b.ProductID == p.ID && b.Status == domain.BatchActive {
				qty += b.CurrentQuantity
			}
		}
		out = append(out, domain.MonitoredProduct{
			ProductID: p.ID, ProductName: p.ProductName, MinStock: p.MinStock,
			CurrentQuantity: qty, UnitName: p.UnitName, UnitSymbol: p.UnitSymbol,
		})
	}
	return out, nil
}

// ---- batches ----

type fakeBatches struct{ db *memDB }

var _ service.BatchStore = fakeBatches{}

func (f fakeBatches) Create(_ context.Context, b *domain.StockBatch) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("stock_batches"); err != nil {
		return err
	}
	for _, other := range f.db.batches {
		if other.ProductID == b.ProductID && other.StoreID == b.StoreID && other.BatchNumber == b.BatchNumber {
			return errors.Conflict("this batch number is already registered for the product at this store")
		}
	}
	b.ID = f.db.nextID()
	cp := *b
	f.db.batches[b.ID] = &cp
	return nil
}

func (f fakeBatches) GetByID(_ context.Context, id int64) (*domain.StockBatch, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b, ok := f.db.batches[id]
	if !ok {
		return nil, errors.NotFound("batch")
	}
	cp := *b
	return &cp, nil
}

func (f fakeBatches) Snapshot(_ context.Context, productID int64) (domain.StockSnapshot, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("stock_batches"); err != nil {
		return domain.StockSnapshot{}, err
	}
	snap := domain.StockSnapshot{Value: decimal.Zero}
	for _, b := range f.db.batches {
		if b.ProductID == productID && b.Status == domain.BatchActive {
			snap.CurrentQuantity += b.CurrentQuantity
			snap.Value = snap.Value.Add(b.UnitCost.Mul(decimal.NewFromInt(int64(b.CurrentQuantity))))
		}
	}
	return snap, nil
}

func (f fakeBatches) LowestActivePrice(_ context.Context, productID int64) (decimal.NullDecimal, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("stock_batches"); err != nil {
		return decimal.NullDecimal{}, err
	}
	var price decimal.NullDecimal
	for _, b := range f.db.batches {
		if b.ProductID != productID || !b.Saleable() {
			continue
		}
		if !price.Valid || b.SellingPrice.LessThan(price.Decimal) {
			price = decimal.NewNullDecimal(b.SellingPrice)
		}
	}
	return price, nil
}

func (f fakeBatches) saleable(match func(*domain.StockBatch) bool) []*domain.StockBatch {
	var out []*domain.StockBatch
	for _, b := range f.db.batches {
		if b.Saleable() && match(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sortFEFO(out)
	return out
}

func (f fakeBatches) ActiveFEFO(_ context.Context, productID int64, limit int) iter.Seq2[*domain.StockBatch, error] {
	return func(yield func(*domain.StockBatch, error) bool) {
		f.db.mu.Lock()
		if err := f.db.check("stock_batches"); err != nil {
			f.db.mu.Unlock()
			yield(nil, err)
			return
		}
		batches := f.saleable(func(b *domain.StockBatch) bool { return b.ProductID == productID })
		f.db.mu.Unlock()

		for i, b := range batches {
			if i == limit || !yield(b, nil) {
				return
			}
		}
	}
}

func (f fakeBatches) LockSaleable(_ context.Context, productID, storeID int64, today domain.Date) ([]*domain.StockBatch, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("stock_batches"); err != nil {
		return nil, err
	}
	return f.saleable(func(b *domain.StockBatch) bool {
		return b.ProductID == productID && b.StoreID == storeID && b.ExpiryDate.After(today)
	}), nil
}

func (f fakeBatches) Deduct(_ context.Context, batchID int64, qty int) (int, string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	b, ok := f.db.batches[batchID]
	if !ok {
		return 0, "", errors.NotFound("batch")
	}
	if b.CurrentQuantity-qty < 0 {
		return 0, "", errors.Conflict("insufficient stock in batch")
	}
	b.CurrentQuantity -= qty
	if b.CurrentQuantity == 0 {
		b.Status = domain.BatchDepleted
	}
	return b.CurrentQuantity, b.Status, nil
}

func (f fakeBatches) HasStock(_ context.Context, productID int64) (bool, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, b := range f.db.batches {
		if b.ProductID == productID && b.CurrentQuantity > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeBatches) expiring(after, through domain.Date) []domain.ExpiringBatch {
	var rows []*domain.StockBatch
	for _, b := range f.db.batches {
		if b.Status == domain.BatchActive && b.ExpiryDate.After(after) && !b.ExpiryDate.After(through) {
			rows = append(rows, b)
		}
	}
	sortFEFO(rows)
	out := make([]domain.ExpiringBatch, 0, len(rows))
	for _, b := range rows {
		out = append(out, domain.ExpiringBatch{
			BatchID: b.ID, ProductID: b.ProductID, ProductName: f.db.products[b.ProductID].ProductName,
			BatchNumber: b.BatchNumber, ExpiryDate: b.ExpiryDate, CurrentQuantity: b.CurrentQuantity,
			StoreName: f.db.stores[b.StoreID].StoreName,
		})
	}
	return out
}

func (f fakeBatches) ExpiringBetween(_ context.Context, after, through domain.Date, limit int) ([]domain.ExpiringBatch, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("stock_batches"); err != nil {
		return nil, err
	}
	out := f.expiring(after, through)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakeBatches) CountExpiringBetween(_ context.Context, after, through domain.Date) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("stock_batches"); err != nil {
		return 0, err
	}
	return len(f.expiring(after, through)), nil
}

// ---- stores ----

type fakeStores struct{ db *memDB }

var _ service.StoreDirectory = fakeStores{}

func (f fakeStores) Create(_ context.Context, s *domain.Store) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, other := range f.db.stores {
		if other.StoreCode == s.StoreCode {
			return errors.Conflict("a store with this code already exists")
		}
	}
	s.ID = f.db.nextID()
	cp := *s
	f.db.stores[s.ID] = &cp
	return nil
}

func (f fakeStores) GetByID(_ context.Context, id int64) (*domain.Store, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.stores[id]
	if !ok {
		return nil, errors.NotFound("store")
	}
	cp := *s
	return &cp, nil
}

func (f fakeStores) GetByCode(_ context.Context, code string) (*domain.Store, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, s := range f.db.stores {
		if s.StoreCode == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, errors.NotFound("store")
}

func (f fakeStores) List(_ context.Context) ([]*domain.Store, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []*domain.Store{}
	for _, s := range f.db.stores {
		cp := *s
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *domain.Store) int { return strings.Compare(a.StoreName, b.StoreName) })
	return out, nil
}

func (f fakeStores) Count(_ context.Context) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("stores"); err != nil {
		return 0, err
	}
	return len(f.db.stores), nil
}

// ---- sales ----

type fakeSales struct{ db *memDB }

var _ service.SaleStore = fakeSales{}

func (f fakeSales) Create(_ context.Context, s *domain.Sale) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("sale_transactions"); err != nil {
		return err
	}
	s.ID = f.db.nextID()
	s.TransactionDate = f.db.now()
	for i := range s.Items {
		s.Items[i].ID = f.db.nextID()
		s.Items[i].SaleID = s.ID
	}
	cp := *s
	f.db.sales[s.ID] = &cp
	return nil
}

func (f fakeSales) GetByID(_ context.Context, id int64) (*domain.Sale, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	s, ok := f.db.sales[id]
	if !ok {
		return nil, errors.NotFound("sale")
	}
	cp := *s
	return &cp, nil
}

func (f fakeSales) Summary(_ context.Context, from, to time.Time) (domain.DailySummary, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("sale_transactions"); err != nil {
		return domain.DailySummary{}, err
	}
	out := domain.DailySummary{TotalAmount: decimal.Zero}
	for _, s := range f.db.sales {
		if !s.TransactionDate.Before(from) && s.TransactionDate.Before(to) {
			out.Transactions++
			out.TotalAmount = out.TotalAmount.Add(s.TotalAmount)
		}
	}
	return out, nil
}

func (f fakeSales) TopProducts(_ context.Context, from, to time.Time, limit int) ([]domain.TopProduct, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("sale_transactions"); err != nil {
		return nil, err
	}
	byProduct := map[int64]*domain.TopProduct{}
	seen := map[[2]int64]bool{}
	for _, s := range f.db.sales {
		if s.TransactionDate.Before(from) || !s.TransactionDate.Before(to) {
			continue
		}
		for _, item := range s.Items {
			top, ok := byProduct[item.ProductID]
			if !ok {
				p := f.db.products[item.ProductID]
				top = &domain.TopProduct{ProductID: p.ID, ProductCode: p.ProductCode, ProductName: p.ProductName, Revenue: decimal.Zero}
				byProduct[item.ProductID] = top
			}
			top.QuantitySold += item.Quantity
			top.Revenue = top.Revenue.Add(item.LineTotal)
			if key := [2]int64{item.ProductID, s.ID}; !seen[key] {
				seen[key] = true
				top.Transactions++
			}
		}
	}
	out := []domain.TopProduct{}
	for _, top := range byProduct {
		out = append(out, *top)
	}
	slices.SortFunc(out, func(a, b domain.TopProduct) int {
		if c := cmp.Compare(b.QuantitySold, a.QuantitySold); c != 0 {
			return c
		}
		if c := b.Revenue.Cmp(a.Revenue); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakeSales) Recent(_ context.Context, limit int) ([]domain.Sale, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if err := f.db.check("sale_transactions"); err != nil {
		return nil, err
	}
	out := []domain.Sale{}
	for _, s := range f.db.sales {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b domain.Sale) int { return cmp.Compare(b.ID, a.ID) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- users ----

type fakeUsers struct{ db *memDB }

var _ service.UserStore = fakeUsers{}

func (f fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, other := range f.db.users {
		if other.Username == u.Username {
			return errors.Conflict("a user with this username already exists")
		}
	}
	u.ID = fmt.Sprintf("00000000-0000-4000-8000-%012d", f.db.nextID())
	cp := *u
	f.db.users[u.ID] = &cp
	return nil
}

func (f fakeUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, u := range f.db.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errors.NotFound("user")
}

func (f fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return nil, errors.NotFound("user")
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	u, ok := f.db.users[id]
	if !ok {
		return errors.NotFound("user")
	}
	u.LastLoginAt = &at
	return nil
}

// fixedClock pins "now" to noon UTC on the given date
func fixedClock(day domain.Date) service.Clock {
	now := day.Add(12 * time.Hour)
	return service.Clock{Now: func() time.Time { return now }, Location: time.UTC}
}
