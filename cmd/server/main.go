package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"custodia/internal/authority"
	authorityhandler "custodia/internal/authority/handler"
	authorityservice "custodia/internal/authority/service"
	"custodia/internal/dossier"
	dossierhandler "custodia/internal/dossier/handler"
	dossierservice "custodia/internal/dossier/service"
	"custodia/internal/forcedtransfer"
	fthandler "custodia/internal/forcedtransfer/handler"
	ftmetrics "custodia/internal/forcedtransfer/metrics"
	ftservice "custodia/internal/forcedtransfer/service"
	httpapi "custodia/internal/http"
	jwttoken "custodia/internal/jwt_token"
	"custodia/internal/ledger"
	ledgerhandler "custodia/internal/ledger/handler"
	ledgermetrics "custodia/internal/ledger/metrics"
	ledgerservice "custodia/internal/ledger/service"
	"custodia/internal/platform/config"
	"custodia/internal/platform/httpserver"
	"custodia/internal/platform/logger"
	"custodia/internal/platform/metrics"
	platformredis "custodia/internal/platform/redis"
	audit "custodia/pkg/platform/audit"
	"custodia/pkg/platform/audit/publisher"
	kafkapublisher "custodia/pkg/platform/audit/publishers/kafka"
	auditmem "custodia/pkg/platform/audit/store/memory"
	auditpg "custodia/pkg/platform/audit/store/postgres"
)

// main wires the stores, services and transport, then runs the server until
// a shutdown signal arrives. Business logic lives in the internal services.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: Postgres when DATABASE_URL is set, in-memory otherwise.
	var (
		authorityStore authority.Store
		ledgerStore    ledger.Store
		dossierStore   dossier.Store
		ftStore        forcedtransfer.Store
		auditStore     audit.Store
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}

		authorityPG := authority.NewPostgresStore(db)
		ledgerPG := ledger.NewPostgresStore(db)
		dossierPG := dossier.NewPostgresStore(db)
		ftPG := forcedtransfer.NewPostgresStore(db)
		auditPG := auditpg.New(db)
		for _, ensure := range []func(context.Context) error{
			authorityPG.EnsureSchema,
			ledgerPG.EnsureSchema,
			dossierPG.EnsureSchema,
			ftPG.EnsureSchema,
			auditPG.EnsureSchema,
		} {
			if err := ensure(ctx); err != nil {
				return err
			}
		}
		authorityStore, ledgerStore, dossierStore, ftStore, auditStore =
			authorityPG, ledgerPG, dossierPG, ftPG, auditPG
		log.Info("using postgres stores")
	} else {
		authorityStore = authority.NewInMemoryStore()
		ledgerStore = ledger.NewInMemoryStore()
		dossierStore = dossier.NewInMemoryStore()
		ftStore = forcedtransfer.NewInMemoryStore()
		auditStore = auditmem.NewInMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	// Audit pipeline: primary store plus an optional Kafka sink.
	publisherOpts := []publisher.Option{}
	if cfg.AuditBuffer > 0 {
		publisherOpts = append(publisherOpts, publisher.WithAsyncBuffer(cfg.AuditBuffer))
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := kafkapublisher.New(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		publisherOpts = append(publisherOpts, publisher.WithSink(kafkaSink))
		log.Info("kafka audit sink enabled", "topic", cfg.AuditTopic)
	}
	auditPub := publisher.NewPublisher(auditStore, publisherOpts...)
	defer auditPub.Close()

	// Services.
	authoritySvc := authorityservice.NewService(authorityStore, auditPub, log)
	ledgerSvc := ledgerservice.NewService(ledgerStore, authoritySvc, auditPub, ledgermetrics.New(), log)
	dossierSvc := dossierservice.NewService(dossierStore, authoritySvc, auditPub, log)
	ftSvc := ftservice.NewService(ftStore, authoritySvc, auditPub, ftmetrics.New(), log)

	// Optional Redis allowlist cache.
	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		ledgerSvc.WithAllowlistCache(ledger.NewAllowlistCache(rdb.Client, cfg.Redis.AllowlistTTL))
		log.Info("allowlist cache enabled")
	}

	// Bootstrap the protocol admin and wire the coordinator's collaborators.
	// Subsequent grants happen through the authority API.
	bootstrapAdmin := os.Getenv("CUSTODIA_BOOTSTRAP_ADMIN")
	if bootstrapAdmin == "" {
		bootstrapAdmin = "protocol-admin"
	}
	if err := authorityStore.Grant(ctx, authority.RoleProtocolAdmin, bootstrapAdmin); err != nil {
		return err
	}
	if err := ftSvc.SetAssetLedger(ctx, bootstrapAdmin, ledgerSvc); err != nil {
		return err
	}
	if err := ftSvc.SetProofRegistry(ctx, bootstrapAdmin, dossierSvc); err != nil {
		return err
	}

	// Transport.
	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	router := httpapi.NewRouter(httpapi.Handlers{
		ForcedTransfers: fthandler.New(ftSvc, log),
		Ledger:          ledgerhandler.New(ledgerSvc, log),
		Dossiers:        dossierhandler.New(dossierSvc, log),
		Authority:       authorityhandler.New(authoritySvc, log),
	}, jwttoken.NewJWTServiceAdapter(jwtService), metrics.New(), log)

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting custodia", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
