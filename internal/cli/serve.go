package cli

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	httpAPI "github.com/iyhunko/catalog-importer/internal/http"
	"github.com/iyhunko/catalog-importer/internal/http/controller"
	"github.com/iyhunko/catalog-importer/internal/metrics"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			conf := opts.conf
			svc, err := newProductService(ctx, conf)
			if err != nil {
				return err
			}
			if !opts.skipImport {
				startupImport(ctx, svc)
			}

			if !conf.DebugMode {
				gin.SetMode(gin.ReleaseMode)
			}
			router := httpAPI.InitRouter(gin.New(), controller.New(conf), controller.NewProductController(svc))
			httpServer := &http.Server{
				Addr:              ":" + conf.HTTPServer.Port,
				Handler:           router,
				ReadHeaderTimeout: 5 * time.Second,
			}

			metricsServer := metrics.StartMetricsServer(conf)
			defer shutdown(metricsServer)

			serveErr := make(chan error, 1)
			go func() {
				slog.Info("http server starting", slog.String("port", conf.HTTPServer.Port))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				return err
			case <-ctx.Done():
				slog.Info("shutting down gracefully")
				shutdown(httpServer)
				return nil
			}
		},
	}
}
