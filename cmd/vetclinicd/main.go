// vetclinicd es el backend HTTP de la clínica veterinaria.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	rdb "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/vetclinic/internal/config"
	"github.com/dropDatabas3/vetclinic/internal/email"
	accountsctrl "github.com/dropDatabas3/vetclinic/internal/http/controllers/accounts"
	authctrl "github.com/dropDatabas3/vetclinic/internal/http/controllers/auth"
	clinicctrl "github.com/dropDatabas3/vetclinic/internal/http/controllers/clinic"
	recordsctrl "github.com/dropDatabas3/vetclinic/internal/http/controllers/records"
	"github.com/dropDatabas3/vetclinic/internal/http/router"
	accountssvc "github.com/dropDatabas3/vetclinic/internal/http/services/accounts"
	authsvc "github.com/dropDatabas3/vetclinic/internal/http/services/auth"
	clinicsvc "github.com/dropDatabas3/vetclinic/internal/http/services/clinic"
	recordssvc "github.com/dropDatabas3/vetclinic/internal/http/services/records"
	"github.com/dropDatabas3/vetclinic/internal/jwt"
	"github.com/dropDatabas3/vetclinic/internal/ledger"
	ledgernode "github.com/dropDatabas3/vetclinic/internal/ledger/node"
	"github.com/dropDatabas3/vetclinic/internal/metrics"
	"github.com/dropDatabas3/vetclinic/internal/observability/logger"
	"github.com/dropDatabas3/vetclinic/internal/rate"
	"github.com/dropDatabas3/vetclinic/internal/store"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("VETCLINIC_CONFIG"), "ruta del YAML de configuración")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logger todavía no inicializado.
		panic(err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       "info",
		ServiceName: "vetclinicd",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	if err := metrics.Register(nil); err != nil {
		log.Fatal("metrics registration failed", logger.Err(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg)
	if err != nil {
		log.Fatal("store init failed", logger.Err(err))
	}
	defer st.Close()

	ledgerClient, ledgerShutdown, err := buildLedger(cfg)
	if err != nil {
		log.Fatal("ledger init failed", logger.Err(err))
	}
	defer ledgerShutdown()

	issuer, err := jwt.NewIssuer(cfg.JWT.Issuer, cfg.JWT.SeedB64)
	if err != nil {
		log.Fatal("jwt issuer init failed", logger.Err(err))
	}
	issuer.AccessTTL = cfg.AccessTTL()
	if cfg.JWT.SeedB64 == "" {
		log.Warn("no JWT seed configured, tokens die with the process")
	}

	var emailSvc *email.Service
	if cfg.SMTP.Host != "" {
		sender := email.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
		if cfg.SMTP.TLS != "" {
			sender.TLSMode = cfg.SMTP.TLS
		}
		sender.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify
		emailSvc = email.NewService(sender, cfg.Auth.TOTPIssuer)
	} else {
		emailSvc = email.NewService(nil, cfg.Auth.TOTPIssuer)
	}

	var limiter rate.Limiter
	if cfg.Rate.Enabled {
		switch cfg.Rate.Kind {
		case "redis":
			client := rdb.NewClient(&rdb.Options{Addr: cfg.Rate.Redis.Addr, DB: cfg.Rate.Redis.DB})
			limiter = rate.NewRedisLimiter(client, cfg.Rate.Redis.Prefix, cfg.Rate.Login.Limit, cfg.LoginRateWindow())
		default:
			limiter = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, cfg.LoginRateWindow())
		}
	}

	authService := authsvc.NewService(authsvc.Deps{
		Accounts:        st.Accounts,
		Issuer:          issuer,
		MaxFailedLogins: cfg.Auth.MaxFailedLogins,
		LockoutPeriod:   cfg.LockoutPeriod(),
		TOTPIssuer:      cfg.Auth.TOTPIssuer,
		TOTPWindow:      cfg.Auth.TOTPWindow,
		AccessTTL:       cfg.AccessTTL(),
	})
	accountsService := accountssvc.NewService(accountssvc.Deps{
		Accounts:           st.Accounts,
		Email:              emailSvc,
		TempPasswordLength: cfg.Auth.TempPasswordLength,
	})
	recordsService := recordssvc.NewService(recordssvc.Deps{
		Records:      st.Records,
		Appointments: st.Appointments,
		Animals:      st.Animals,
		Ledger:       ledgerClient,
	})
	clinicService := clinicsvc.NewService(clinicsvc.Deps{
		Animals:      st.Animals,
		Appointments: st.Appointments,
		WeightLogs:   st.WeightLogs,
		Facilities:   st.Facilities,
		Accounts:     st.Accounts,
	})

	// /readyz: el store tiene que responder y el ledger estar alcanzable.
	// Un id inexistente alcanza como probe; ErrNotFound es un ledger vivo.
	ready := func(ctx context.Context) error {
		if err := st.Ping(ctx); err != nil {
			return err
		}
		if _, err := ledgerClient.Get(ctx, 0); err != nil && !errors.Is(err, ledger.ErrNotFound) {
			return err
		}
		return nil
	}

	handler := router.New(router.Deps{
		Auth:               authctrl.NewController(authService),
		Accounts:           accountsctrl.NewController(accountsService),
		Records:            recordsctrl.NewController(recordsService),
		Clinic:             clinicctrl.NewController(clinicService),
		Issuer:             issuer,
		RateLimiter:        limiter,
		Ready:              ready,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})

	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}
	g.Go(func() error {
		log.Info("http server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	var metricsSrv *http.Server
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux}
		g.Go(func() error {
			log.Info("metrics server listening", logger.String("addr", cfg.Server.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	// API del nodo de ledger embebido para otras instancias del backend.
	var ledgerSrv *http.Server
	if cfg.Ledger.Mode == "raft" && cfg.Ledger.HTTP.ServeAddr != "" {
		ledgerSrv = &http.Server{Addr: cfg.Ledger.HTTP.ServeAddr, Handler: ledger.Handler(ledgerClient)}
		g.Go(func() error {
			log.Info("ledger api listening", logger.String("addr", cfg.Ledger.HTTP.ServeAddr))
			if err := ledgerSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		if ledgerSrv != nil {
			_ = ledgerSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error", logger.Err(err))
	}
	log.Info("bye")
}

// buildLedger arma el cliente de ledger según el modo configurado.
// Siempre devuelve un cliente construido: no hay inicialización perezosa.
func buildLedger(cfg *config.Config) (ledger.Client, func(), error) {
	noop := func() {}
	switch cfg.Ledger.Mode {
	case "memory":
		return ledger.NewMemory(cfg.Ledger.Owner), noop, nil
	case "http":
		return ledger.NewHTTPClient(cfg.Ledger.HTTP.BaseURL, cfg.LedgerHTTPTimeout()), noop, nil
	case "raft":
		fsm := ledgernode.NewFSM(cfg.Ledger.Owner)
		n, err := ledgernode.New(ledgernode.Options{
			NodeID:    cfg.Ledger.Raft.NodeID,
			Addr:      cfg.Ledger.Raft.Addr,
			Dir:       cfg.Ledger.Raft.Dir,
			FSM:       fsm,
			Peers:     cfg.Ledger.Raft.Peers,
			Bootstrap: cfg.Ledger.Raft.Bootstrap,
		})
		if err != nil {
			return nil, nil, err
		}
		return ledgernode.NewClient(n, fsm), func() { _ = n.Shutdown() }, nil
	default:
		return nil, nil, errors.New("unknown ledger mode " + cfg.Ledger.Mode)
	}
}
