package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iyhunko/catalog-importer/internal/csvload"
	"github.com/iyhunko/catalog-importer/internal/exchange"
	"github.com/iyhunko/catalog-importer/internal/metrics"
	"github.com/iyhunko/catalog-importer/internal/model"
	"github.com/iyhunko/catalog-importer/internal/repository"
	"github.com/iyhunko/catalog-importer/internal/service"
	"github.com/iyhunko/catalog-importer/internal/sqs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testSource   = "catalog.csv"
	testCurrency = "eur"
)

type MockTables struct {
	mock.Mock
}

func (m *MockTables) Initialize(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockTables) BulkInsert(ctx context.Context, products []model.Product) (int, error) {
	args := m.Called(ctx, products)
	return args.Int(0), args.Error(1)
}

type MockProducts struct {
	mock.Mock
}

func (m *MockProducts) List(ctx context.Context, query repository.Query) ([]model.Product, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProducts) FindByID(ctx context.Context, rowID int64) (*model.Product, error) {
	args := m.Called(ctx, rowID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProducts) Create(ctx context.Context, product *model.Product) (*model.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProducts) Update(ctx context.Context, rowID int64, product *model.Product) error {
	return m.Called(ctx, rowID, product).Error(0)
}

func (m *MockProducts) DeleteByID(ctx context.Context, rowID int64) error {
	return m.Called(ctx, rowID).Error(0)
}

type MockReports struct {
	mock.Mock
}

func (m *MockReports) ApplyEuroRate(ctx context.Context, rate float64) (int64, error) {
	args := m.Called(ctx, rate)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReports) Snapshot(ctx context.Context) (*repository.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Snapshot), args.Error(1)
}

type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, source string) (*csvload.Result, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*csvload.Result), args.Error(1)
}

type MockRates struct {
	mock.Mock
}

func (m *MockRates) FetchRate(ctx context.Context, currency string) (float64, error) {
	args := m.Called(ctx, currency)
	return args.Get(0).(float64), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) PublishProductMessage(ctx context.Context, msg sqs.ProductMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type fixture struct {
	tables   *MockTables
	products *MockProducts
	reports  *MockReports
	loader   *MockLoader
	rates    *MockRates
	notifier *MockNotifier
}

func newFixture() *fixture {
	return &fixture{
		tables:   new(MockTables),
		products: new(MockProducts),
		reports:  new(MockReports),
		loader:   new(MockLoader),
		rates:    new(MockRates),
		notifier: new(MockNotifier),
	}
}

func (f *fixture) service(withNotifier bool) *service.ProductService {
	repos := service.Repositories{Tables: f.tables, Products: f.products, Reports: f.reports}
	if !withNotifier {
		return service.NewProductService(repos, f.loader, f.rates, nil, testSource, testCurrency)
	}
	return service.NewProductService(repos, f.loader, f.rates, f.notifier, testSource, testCurrency)
}

func (f *fixture) assertExpectations(t *testing.T) {
	f.tables.AssertExpectations(t)
	f.products.AssertExpectations(t)
	f.reports.AssertExpectations(t)
	f.loader.AssertExpectations(t)
	f.rates.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func shirt() *model.Product {
	return &model.Product{Index: 1, Name: "Shirt", Category: "Apparel", SalePrice: model.Float(10), MarketPrice: model.Float(12)}
}

func TestProductService_ResetTable(t *testing.T) {
	// given
	ctx := context.Background()
	f := newFixture()
	f.tables.On("Initialize", ctx).Return(nil)

	// when
	err := f.service(false).ResetTable(ctx)

	// then
	require.NoError(t, err)
	f.assertExpectations(t)
}

func TestProductService_ImportCatalog(t *testing.T) {
	t.Run("inserts loaded products and reports skipped rows", func(t *testing.T) {
		// given
		ctx := context.Background()
		f := newFixture()
		products := []model.Product{*shirt(), *shirt(), *shirt()}
		f.loader.On("Load", ctx, testSource).Return(&csvload.Result{
			Products: products,
			Skipped:  []csvload.SkippedRow{{Line: 4, Reason: "wrong number of fields"}},
		}, nil)
		f.tables.On("BulkInsert", ctx, products).Return(3, nil)
		importedBefore := testutil.ToFloat64(metrics.ProductsImported)
		skippedBefore := testutil.ToFloat64(metrics.RowsSkipped)

		// when
		summary, err := f.service(false).ImportCatalog(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, service.ImportSummary{Loaded: 3, Skipped: 1, Inserted: 3}, *summary)
		assert.Equal(t, importedBefore+3, testutil.ToFloat64(metrics.ProductsImported))
		assert.Equal(t, skippedBefore+1, testutil.ToFloat64(metrics.RowsSkipped))
		f.assertExpectations(t)
	})

	t.Run("load failure yields no records", func(t *testing.T) {
		// given
		ctx := context.Background()
		f := newFixture()
		loadErr := &csvload.Error{Kind: csvload.KindFetch, Source: testSource, Err: errors.New("connection refused")}
		f.loader.On("Load", ctx, testSource).Return(nil, loadErr)

		// when
		summary, err := f.service(false).ImportCatalog(ctx)

		// then
		require.Error(t, err)
		var csvErr *csvload.Error
		require.ErrorAs(t, err, &csvErr)
		assert.Equal(t, csvload.KindFetch, csvErr.Kind)
		assert.Equal(t, service.ImportSummary{}, *summary)
		f.tables.AssertNotCalled(t, "BulkInsert", mock.Anything, mock.Anything)
	})

	t.Run("insert failure keeps load counts", func(t *testing.T) {
		// given
		ctx := context.Background()
		f := newFixture()
		products := []model.Product{*shirt()}
		f.loader.On("Load", ctx, testSource).Return(&csvload.Result{Products: products}, nil)
		f.tables.On("BulkInsert", ctx, products).Return(0, errors.New("disk full"))

		// when
		summary, err := f.service(false).ImportCatalog(ctx)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert catalog")
		assert.Equal(t, 1, summary.Loaded)
		assert.Zero(t, summary.Inserted)
	})
}

func TestProductService_ListAndGet(t *testing.T) {
	t.Run("list delegates the query", func(t *testing.T) {
		// given
		ctx := context.Background()
		f := newFixture()
		query := repository.Query{Limit: 2}
		f.products.On("List", ctx, query).Return([]model.Product{{RowID: 1}, {RowID: 2}}, nil)

		// when
		products, err := f.service(false).ListProducts(ctx, query)

		// then
		require.NoError(t, err)
		assert.Len(t, products, 2)
		f.assertExpectations(t)
	})

	t.Run("get surfaces not found", func(t *testing.T) {
		// given
		ctx := context.Background()
		f := newFixture()
		f.products.On("FindByID", ctx, int64(999)).Return(nil, repository.ErrNotFound)

		// when
		product, err := f.service(false).GetProduct(ctx, 999)

		// then
		assert.Nil(t, product)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestProductService_CreateProduct(t *testing.T) {
	t.Run("creates product and publishes message", func(t *testing.T) {
		// given
		ctx := context.Background()
		f := newFixture()
		input := shirt()
		created := *input
		created.RowID = 5
		f.products.On("Create", ctx, input).Return(&created, nil)
		f.notifier.On("PublishProductMessage", ctx, mock.MatchedBy(func(msg sqs.ProductMessage) bool {
			return msg.Action == sqs.ActionCreated && msg.RowID == 5 && msg.Product == "Shirt" && msg.EventID != ""
		})).Return(nil)
		before := testutil.ToFloat64(metrics.ProductsCreated)

		// when
		result, err := f.service(true).CreateProduct(ctx, input)

		// then
		require.NoError(t, err)
		assert.Equal(t, int64(5), result.RowID)
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.ProductsCreated))
		f.assertExpectations(t)
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		// given
		ctx := context.Background()
		f := newFixture()
		input := shirt()
		f.products.On("Create", ctx, input).Return(&model.Product{RowID: 1, Name: "Shirt"}, nil)
		f.notifier.On("PublishProductMessage", ctx, mock.Anything).Return(errors.New("queue down"))

		// when
		result, err := f.service(true).CreateProduct(ctx, input)

		// then
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.RowID)
	})

	t.Run("rejects invalid product", func(t *testing.T) {
		// given
		ctx := context.Background()
		f := newFixture()
		input := shirt()
		input.SalePrice = model.Float(-3)

		// when
		result, err := f.service(true).CreateProduct(ctx, input)

		// then
		assert.Nil(t, result)
		assert.ErrorIs(t, err, model.ErrInvalidProduct)
		f.products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestProductService_UpdateProduct(t *testing.T) {
	t.Run("updates product and keeps row id", func(t *testing.T) {
		// given
		ctx := context.Background()
		f := newFixture()
		input := shirt()
		f.products.On("Update", ctx, int64(8), input).Return(nil)
		f.notifier.On("PublishProductMessage", ctx, mock.MatchedBy(func(msg sqs.ProductMessage) bool {
			return msg.Action == sqs.ActionUpdated && msg.RowID == 8
		})).Return(nil)

		// when
		updated, err := f.service(true).UpdateProduct(ctx, 8, input)

		// then
		require.NoError(t, err)
		assert.Equal(t, int64(8), updated.RowID)
		assert.True(t, updated.SameBaseFields(input))
		f.assertExpectations(t)
	})

	t.Run("missing row surfaces not found", func(t *testing.T) {
		// given
		ctx := context.Background()
		f := newFixture()
		input := shirt()
		f.products.On("Update", ctx, int64(42), input).Return(repository.ErrNotFound)

		// when
		updated, err := f.service(true).UpdateProduct(ctx, 42, input)

		// then
		assert.Nil(t, updated)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		f.notifier.AssertNotCalled(t, "PublishProductMessage", mock.Anything, mock.Anything)
	})
}

func TestProductService_DeleteProduct(t *testing.T) {
	t.Run("deletes product and publishes message", func(t *testing.T) {
		// given
		ctx := context.Background()
		f := newFixture()
		existing := shirt()
		existing.RowID = 3
		f.products.On("FindByID", ctx, int64(3)).Return(existing, nil)
		f.products.On("DeleteByID", ctx, int64(3)).Return(nil)
		f.notifier.On("PublishProductMessage", ctx, mock.MatchedBy(func(msg sqs.ProductMessage) bool {
			return msg.Action == sqs.ActionDeleted && msg.RowID == 3 && msg.Product == "Shirt"
		})).Return(nil)
		before := testutil.ToFloat64(metrics.ProductsDeleted)

		// when
		err := f.service(true).DeleteProduct(ctx, 3)

		// then
		require.NoError(t, err)
		assert.Equal(t, before+1, testutil.ToFloat64(metrics.ProductsDeleted))
		f.assertExpectations(t)
	})

	t.Run("missing row surfaces not found", func(t *testing.T) {
		// given
		ctx := context.Background()
		f := newFixture()
		f.products.On("FindByID", ctx, int64(999)).Return(nil, repository.ErrNotFound)

		// when
		err := f.service(true).DeleteProduct(ctx, 999)

		// then
		assert.ErrorIs(t, err, repository.ErrNotFound)
		f.products.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
	})
}

func TestProductService_ApplyEuroPrices(t *testing.T) {
	t.Run("fetches rate and applies it", func(t *testing.T) {
		// given
		ctx := context.Background()
		f := newFixture()
		f.rates.On("FetchRate", ctx, testCurrency).Return(1.08, nil)
		f.reports.On("ApplyEuroRate", ctx, 1.08).Return(int64(30), nil)

		// when
		result, err := f.service(false).ApplyEuroPrices(ctx)

		// then
		require.NoError(t, err)
		assert.Equal(t, service.EuroPrices{Rate: 1.08, RowsAffected: 30}, *result)
		f.assertExpectations(t)
	})

	t.Run("missing rate leaves table untouched", func(t *testing.T) {
		// given
		ctx := context.Background()
		f := newFixture()
		rateErr := &exchange.Error{Kind: exchange.KindMissingField, Currency: testCurrency, Err: exchange.ErrRateMissing}
		f.rates.On("FetchRate", ctx, testCurrency).Return(0.0, rateErr)
		failure := metrics.RateFetchFailures.WithLabelValues(string(exchange.KindMissingField))
		before := testutil.ToFloat64(failure)

		// when
		result, err := f.service(false).ApplyEuroPrices(ctx)

		// then
		assert.Nil(t, result)
		assert.ErrorIs(t, err, exchange.ErrRateMissing)
		assert.Equal(t, before+1, testutil.ToFloat64(failure))
		f.reports.AssertNotCalled(t, "ApplyEuroRate", mock.Anything, mock.Anything)
	})
}

func TestProductService_FetchRate(t *testing.T) {
	t.Run("unclassified failure is counted as unknown", func(t *testing.T) {
		// given
		ctx := context.Background()
		f := newFixture()
		f.rates.On("FetchRate", ctx, testCurrency).Return(0.0, errors.New("boom"))
		failure := metrics.RateFetchFailures.WithLabelValues("unknown")
		before := testutil.ToFloat64(failure)

		// when
		_, err := f.service(false).FetchRate(ctx)

		// then
		require.Error(t, err)
		assert.Equal(t, before+1, testutil.ToFloat64(failure))
	})
}

func TestProductService_Snapshot(t *testing.T) {
	// given
	ctx := context.Background()
	f := newFixture()
	snapshot := &repository.Snapshot{Columns: []string{"rowid"}, Rows: [][]any{{int64(1)}}}
	f.reports.On("Snapshot", ctx).Return(snapshot, nil)

	// when
	result, err := f.service(false).Snapshot(ctx)

	// then
	require.NoError(t, err)
	assert.Equal(t, 1, result.Len())
	f.assertExpectations(t)
}
