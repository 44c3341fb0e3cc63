package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	compensationmodels "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/compensation/models"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/compensation/native"
	compensationservice "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/compensation/service"
	compensationstore "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/compensation/store"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/distribution"
	ledgermodels "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/ledger/models"
	ledgerservice "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/ledger/service"
	ledgerstore "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/ledger/store"
	partyservice "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/party/service"
	partystore "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/party/store"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/platform/config"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/platform/httpserver"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/platform/jwt"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/platform/logger"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/platform/metrics"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/platform/middleware"
	redisclient "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/platform/redis"
	httptransport "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/transport/http"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/domain"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events"
	eventspostgres "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events/store/postgres"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events/publisher"
	"github.com/NGI-TRUSTCHAIN/ssitizens-ledger/pkg/platform/events/worker"

	compensationmetrics "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/compensation/metrics"
	ledgermetrics "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/ledger/metrics"
	partymetrics "github.com/NGI-TRUSTCHAIN/ssitizens-ledger/internal/party/metrics"
)

// partiesRef is late-bound so the ledger can be constructed before the
// registry it resolves roles through.
type partiesRef struct {
	svc *partyservice.Service
}

func (p *partiesRef) EffectiveRole(ctx context.Context, addr domain.Address) (domain.Role, error) {
	return p.svc.EffectiveRole(ctx, addr)
}

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	owner, err := domain.ParseAddress(cfg.OwnerAddress)
	if err != nil {
		log.Error("invalid owner address", "error", err)
		os.Exit(1)
	}
	issuer, err := domain.ParseAddress(cfg.IssuerAddress)
	if err != nil {
		log.Error("invalid issuer address", "error", err)
		os.Exit(1)
	}
	treasury, err := domain.ParseAddress(cfg.TreasuryAddress)
	if err != nil {
		log.Error("invalid treasury address", "error", err)
		os.Exit(1)
	}
	pool := domain.ZeroAddress
	if cfg.PoolAddress != "" {
		if pool, err = domain.ParseAddress(cfg.PoolAddress); err != nil {
			log.Error("invalid pool address", "error", err)
			os.Exit(1)
		}
	}
	minimumTransfer, err := domain.ParseAmount(cfg.MinimumTransfer)
	if err != nil {
		log.Error("invalid minimum transfer", "error", err)
		os.Exit(1)
	}
	minimumSponsored, err := domain.ParseAmount(cfg.MinimumSponsoredBalance)
	if err != nil {
		log.Error("invalid minimum sponsored balance", "error", err)
		os.Exit(1)
	}

	// Stores. Postgres when a DSN is configured, in-memory otherwise.
	var (
		parties     partyservice.Store   = partystore.NewMemoryStore()
		ledgerState ledgerservice.Store  = ledgerstore.NewMemoryStore()
		poolState   compensationservice.Store
		eventLog    events.Log = events.NewMemoryLog()
		outbox      *eventspostgres.Store
	)
	poolState = compensationstore.NewMemoryStore()
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		parties = partystore.NewPostgres(db)
		ledgerState = ledgerstore.NewPostgres(db)
		poolState = compensationstore.NewPostgres(db)
		outbox = eventspostgres.New(db)
		eventLog = outbox
	}

	// Services. The treasury address doubles as the ledger's own identity:
	// the pool allow-lists it for payout requests and never sponsors it.
	nativeSrc := native.NewMemorySource()
	nativeSrc.MarkContract(treasury)
	poolSvc := compensationservice.New(poolState, nativeSrc, eventLog, compensationmetrics.New(), log)
	if err := poolSvc.Bootstrap(ctx, &compensationmodels.Config{Owner: owner, Issuer: issuer}, treasury); err != nil {
		log.Error("failed to bootstrap compensation pool", "error", err)
		os.Exit(1)
	}

	var compensator ledgerservice.Compensator
	if !pool.IsZero() {
		compensator = compensationservice.NewSponsor(poolSvc, treasury)
	}

	// The registry and the ledger reference each other: the ledger resolves
	// roles through the registry, the registry resolves the issuer through
	// the ledger config. The indirection breaks the construction cycle.
	roles := &partiesRef{}
	ledgerSvc := ledgerservice.New(ledgerState, roles, compensator, eventLog, ledgermetrics.New(), log)
	if err := ledgerSvc.Bootstrap(ctx, &ledgermodels.Config{
		Owner:                   owner,
		Issuer:                  issuer,
		Treasury:                treasury,
		Compensation:            pool,
		MinimumTransfer:         minimumTransfer,
		MinimumSponsoredBalance: minimumSponsored,
	}); err != nil {
		log.Error("failed to bootstrap ledger", "error", err)
		os.Exit(1)
	}

	partySvc := partyservice.New(parties, ledgerSvc, eventLog, partymetrics.New(), log)
	roles.svc = partySvc

	batchSvc := distribution.New(ledgerSvc, eventLog, log)

	// Auth.
	tokens := jwt.NewService(cfg.JWTSigningKey, "ssitizens-ledger", "ledger-api")
	var (
		revoked middleware.RevocationChecker
		revoker httptransport.TokenRevoker
	)
	rds, err := redisclient.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if rds != nil {
		defer rds.Close()
		trl := redisclient.NewTRL(rds.Client)
		revoked = trl
		revoker = trl
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Party:           partySvc,
		Ledger:          ledgerSvc,
		Pool:            poolSvc,
		Distribution:    batchSvc,
		Tokens:          tokens,
		Validator:       tokens,
		Revoked:         revoked,
		Revoker:         revoker,
		AdminSecretHash: cfg.AdminSecretHash,
		Metrics:         metrics.New(),
		Logger:          log,
	})

	srv := httpserver.New(cfg.Addr, router)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting ledger server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Outbox drain worker, only when both postgres and Kafka are configured.
	if outbox != nil && len(cfg.KafkaBrokers) > 0 {
		kafka, err := publisher.NewKafka(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		g.Go(func() error {
			return worker.New(outbox, kafka, log).Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
