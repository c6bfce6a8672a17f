package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/iyhunko/catalog-importer/internal/config"
	"github.com/iyhunko/catalog-importer/internal/csvload"
	"github.com/iyhunko/catalog-importer/internal/exchange"
	"github.com/iyhunko/catalog-importer/internal/repository/sql"
	"github.com/iyhunko/catalog-importer/internal/service"
	sqspkg "github.com/iyhunko/catalog-importer/internal/sqs"
)

const shutdownTimeout = 5 * time.Second

// newProductService wires storage, the CSV loader, the rate client and the optional publisher.
func newProductService(ctx context.Context, conf *config.Config) (*service.ProductService, error) {
	open := sql.SQLiteOpener(conf.Database.Path)
	repos := service.Repositories{
		Tables:   sql.NewTableManager(open, conf.Database.Table),
		Products: sql.NewProductRepository(open, conf.Database.Table),
		Reports:  sql.NewReportRepository(open, conf.Database.Table),
	}

	timeout := conf.ExchangeRate.Timeout()
	loader := csvload.NewLoader(&http.Client{Timeout: timeout})
	rates := exchange.NewClient(conf.ExchangeRate.BaseURL, timeout)

	var notifier service.Notifier
	if conf.AWS.SQSQueueURL != "" {
		sqsClient, err := sqspkg.NewClient(ctx, conf.AWS)
		if err != nil {
			return nil, err
		}
		notifier = sqspkg.NewPublisher(sqsClient, conf.AWS.SQSQueueURL)
		slog.Info("publishing catalog changes", slog.String("queueURL", conf.AWS.SQSQueueURL))
	}

	return service.NewProductService(repos, loader, rates, notifier, conf.Catalog.Source, conf.ExchangeRate.Currency), nil
}

// startupImport recreates the table and imports the catalog.
// A catalog that cannot be loaded leaves an empty table behind.
func startupImport(ctx context.Context, svc *service.ProductService) {
	if err := svc.ResetTable(ctx); err != nil {
		slog.Error("failed to initialize table", slog.Any("err", err))
		return
	}
	if _, err := svc.ImportCatalog(ctx); err != nil {
		slog.Warn("starting with an empty catalog", slog.Any("err", err))
	}
}

func shutdown(server *http.Server) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to shut down server", slog.Any("err", err), slog.String("addr", server.Addr))
	}
}
