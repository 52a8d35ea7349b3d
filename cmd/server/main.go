// Command server runs the patchdesk API and the document proxy as one
// process. Stores, the audit mirror, and the proxy cache are all selected by
// configuration; with nothing configured the process runs fully in memory.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"patchdesk/internal/audit"
	"patchdesk/internal/audit/publisher"
	auditmemory "patchdesk/internal/audit/store/memory"
	auditpostgres "patchdesk/internal/audit/store/postgres"
	"patchdesk/internal/export"
	"patchdesk/internal/identity"
	"patchdesk/internal/jwtauth"
	"patchdesk/internal/patch/service"
	patchmemory "patchdesk/internal/patch/store/memory"
	patchpostgres "patchdesk/internal/patch/store/postgres"
	"patchdesk/internal/platform/config"
	"patchdesk/internal/platform/httpserver"
	"patchdesk/internal/platform/logger"
	"patchdesk/internal/platform/metrics"
	platformredis "patchdesk/internal/platform/redis"
	"patchdesk/internal/proxy"
	transporthttp "patchdesk/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	ident := identity.FromEnv()
	log := logger.New()
	m := metrics.New()

	// Store selection. Postgres gives transactional status+audit writes;
	// the in-memory pair compensates instead of rolling back.
	var (
		patchStore service.Store
		auditStore audit.Store
		txRunner   service.TxRunner
	)
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("opening postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		for _, schema := range []string{patchpostgres.Schema, auditpostgres.Schema} {
			if _, err := db.Exec(schema); err != nil {
				log.Error("applying schema", "error", err)
				os.Exit(1)
			}
		}
		patchStore = patchpostgres.New(db)
		auditStore = auditpostgres.New(db)
		txRunner = service.NewSQLTx(db)
		log.Info("using postgres stores")
	} else {
		patchStore = patchmemory.New()
		auditStore = auditmemory.New()
		txRunner = service.NewShardedTx()
		log.Info("using in-memory stores")
	}

	timelineOpts := []audit.Option{}
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := publisher.NewKafka(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("connecting kafka mirror", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		timelineOpts = append(timelineOpts, audit.WithMirror(kafka))
		log.Info("audit mirror enabled", "topic", cfg.AuditTopic)
	}
	timeline := audit.NewTimeline(auditStore, log, timelineOpts...)

	patchService := service.New(patchStore, timeline, txRunner, ident, log,
		service.WithMetrics(m))

	builder := export.NewBuilder(ident, timeline, export.WithMetrics(m))
	kiwi := export.NewKiwiSerializer(patchStore, log)
	drive := export.NewDriveClient(cfg.DriveBaseURL, log)
	jwtService := jwtauth.NewService(cfg.JWTSigningKey, "patchdesk")

	router := transporthttp.NewRouter(transporthttp.RouterDeps{
		JWT:           jwtService,
		Auth:          transporthttp.NewAuthHandler(jwtService, cfg.ClientSecretHash, ident.WorkspaceID, log),
		PatchRequests: transporthttp.NewPatchRequestHandler(patchService, log),
		Audit:         transporthttp.NewAuditHandler(timeline, log),
		Export:        transporthttp.NewExportHandler(builder, kiwi, drive, ident, log),
		Logger:        log,
	})

	proxyOpts := []proxy.Option{proxy.WithMetrics(m)}
	if cfg.RedisURL != "" {
		redisClient, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			log.Error("connecting redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		proxyOpts = append(proxyOpts, proxy.WithCache(proxy.NewCache(redisClient, log)))
		log.Info("proxy document cache enabled")
	}
	docProxy := proxy.New(cfg.ProxyAllowedHosts, log, proxyOpts...)

	apiServer := httpserver.New(cfg.Addr, router)
	proxyServer := httpserver.New(cfg.ProxyAddr, docProxy.Handler())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("api server listening", "addr", cfg.Addr)
		if err := apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("proxy server listening", "addr", cfg.ProxyAddr)
		if err := proxyServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Error("api shutdown", "error", err)
		}
		if err := proxyServer.Shutdown(shutdownCtx); err != nil {
			log.Error("proxy shutdown", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
