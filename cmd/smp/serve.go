package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/totegamma/smp/client"
	"github.com/totegamma/smp/internal/config"
	"github.com/totegamma/smp/internal/infra/database"
	"github.com/totegamma/smp/internal/infra/gateway"
	"github.com/totegamma/smp/internal/present/rest"
	authmw "github.com/totegamma/smp/internal/present/rest/middleware"
	"github.com/totegamma/smp/internal/service"
	"github.com/totegamma/smp/internal/usecase"
)

const serviceName = "smp"

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the SMP REST server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

func setupTraceProvider(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	var opts []otlptracehttp.Option
	if endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(endpoint))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", serviceName),
		attribute.String("service.version", version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func serve(ctx context.Context, configPath string) error {
	conf, err := config.NewHolder(configPath)
	if err != nil {
		return err
	}
	snap := conf.Current()

	slog.InfoContext(
		ctx, "starting smp",
		slog.String("version", version),
		slog.String("backend", snap.Backend.String()),
		slog.String("flavor", snap.Flavor.String()),
		slog.String("identifierMode", snap.IdentifierMode.String()),
		slog.String("module", "main"),
	)

	if snap.Server.EnableTrace {
		shutdown, err := setupTraceProvider(ctx, snap.Server.TraceEndpoint)
		if err != nil {
			return err
		}
		defer shutdown(context.Background())
	}

	stores, closeStores, err := openStores(snap)
	if err != nil {
		return err
	}
	defer closeStores()
	stores = withCache(ctx, snap, stores)

	var keys *service.KeyProvider
	var signer *service.Signer
	if snap.Signing.CertFile != "" {
		keys, err = service.LoadKeyProvider(snap.Signing.CertFile, snap.Signing.KeyFile)
		if err != nil {
			return err
		}
		signer = service.NewSigner(keys)
	} else {
		slog.WarnContext(
			ctx, "no signing key configured, service metadata requests will fail",
			slog.String("module", "main"),
		)
	}

	var locator usecase.Locator
	if snap.SML.URL != "" {
		opts := client.Options{
			ConnectTimeout: snap.SML.ConnectTimeout,
			RequestTimeout: snap.SML.RequestTimeout,
		}
		if snap.SML.ClientAuth {
			if keys == nil {
				return errors.New("sml.clientAuth requires a signing key pair")
			}
			opts.Certificate = keys.TLSCertificate()
		}
		sml := client.NewSML(client.New(opts), snap.SML.URL, snap.SMP.ID)
		locator = gateway.NewLocatorGateway(sml)
	}

	if snap.Directory.URL != "" {
		dir := client.NewDirectory(client.New(client.Options{RequestTimeout: snap.Directory.Timeout}), snap.Directory.URL)
		notifier := gateway.NewDirectoryGateway(dir, conf)
		stores.BusinessCards.AddListener(notifier)
	}

	var signals *service.SignalService
	if snap.Server.RedisAddr != "" {
		rdb, err := database.NewRedis(ctx, snap.Server.RedisAddr, snap.Server.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()

		signals = service.NewSignalService(rdb)
		publisher := service.NewChangePublisher(signals)
		stores.ServiceGroups.AddListener(publisher)
		stores.ServiceInformation.AddListener(publisher)
		stores.Redirects.AddListener(publisher)
		stores.BusinessCards.AddListener(publisher)
	}

	coordinator := usecase.NewRegistrationCoordinator(locator, stores.Faults, conf)
	auth := service.NewAuthService(stores.Users)

	handler := rest.NewHandler(
		conf,
		usecase.NewServiceGroupUsecase(stores, coordinator, conf),
		usecase.NewServiceMetadataUsecase(stores, conf),
		usecase.NewBusinessCardUsecase(stores, conf),
		signer,
		signals,
		authmw.NewAuthMiddleware(auth, conf),
	)

	e := echo.New()
	e.HideBanner = true
	if snap.Server.EnableTrace {
		e.Use(otelecho.Middleware(serviceName))
	}
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	handler.RegisterRoutes(e)

	go reloadOnHangup(ctx, conf)

	go func() {
		if err := e.Start(snap.Server.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error(
				"server stopped",
				slog.String("error", err.Error()),
				slog.String("module", "main"),
			)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// reloadOnHangup re-reads the configuration file on SIGHUP.
func reloadOnHangup(ctx context.Context, conf *config.Holder) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := conf.Reload(); err != nil {
				slog.ErrorContext(
					ctx, "configuration reload failed",
					slog.String("error", err.Error()),
					slog.String("module", "main"),
				)
				continue
			}
			snap := conf.Current()
			slog.InfoContext(
				ctx, "configuration reloaded",
				slog.String("flavor", snap.Flavor.String()),
				slog.Bool("writableAPIDisabled", snap.SMP.WritableAPIDisabled),
				slog.Bool("smlActive", snap.SML.Active),
				slog.String("module", "main"),
			)
		}
	}
}
