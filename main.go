package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/reelhouse/engine/internal/api"
	"github.com/reelhouse/engine/internal/audit"
	"github.com/reelhouse/engine/internal/config"
	"github.com/reelhouse/engine/internal/game"
	"github.com/reelhouse/engine/internal/jackpot"
	"github.com/reelhouse/engine/internal/ledger"
	"github.com/reelhouse/engine/internal/rng"
	"github.com/reelhouse/engine/internal/wallet"
)

func main() {
	fmt.Println("🎰 Spin & Settlement Engine")

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	poolFloor := decimal.New(cfg.Game.JackpotFloor, 0)

	// Ledger store: Postgres when a DSN is configured, in-memory otherwise.
	var (
		store    ledger.Store
		auditSvc *audit.Service
	)
	if cfg.Database.DSN != "" {
		pg, err := ledger.NewPostgres(cfg.Database.Driver, cfg.Database.DSN, cfg.Game.Currency)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := pg.Migrate(poolFloor); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		store = pg
		auditSvc = audit.New(pg.DB())
	} else {
		log.Println("No database DSN configured, using in-memory ledger store")
		store = ledger.NewMemoryStore(poolFloor)
		auditSvc = audit.NewLogOnly()
	}

	// Game math: YAML file when configured, built-in default otherwise.
	var provider game.Provider
	if cfg.Game.MathFile != "" {
		fp, err := game.LoadFile(cfg.Game.MathFile)
		if err != nil {
			log.Fatalf("Failed to load game math %s: %v", cfg.Game.MathFile, err)
		}
		provider = fp
	} else {
		sp, err := game.NewStaticProvider(game.DefaultConfig())
		if err != nil {
			log.Fatalf("Invalid built-in game math: %v", err)
		}
		provider = sp
	}

	rngSvc := rng.New()
	if _, err := rngSvc.HealthCheck(); err != nil {
		log.Fatalf("RNG health check failed: %v", err)
	}

	walletSvc := wallet.New(store, auditSvc, cfg.Game.Currency)
	jackpotMgr := jackpot.New(store, decimal.NewFromFloat(cfg.Game.JackpotRate), poolFloor)

	engine := game.New(provider, rngSvc, walletSvc, jackpotMgr, auditSvc, store, game.Params{
		Currency:          cfg.Game.Currency,
		HouseEdge:         cfg.Game.HouseEdge,
		MinBet:            cfg.Game.MinBet,
		MaxBet:            cfg.Game.MaxBet,
		LargeWinThreshold: cfg.Game.LargeWinThreshold,
	})

	hub := api.NewHub()
	engine.OnSettled(hub.BroadcastRecord)

	handler := api.New(walletSvc, engine, jackpotMgr, rngSvc, provider, hub, cfg.Game.Currency)
	router := handler.SetupRouter()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Starting server on :%s...", cfg.Server.Port)
	log.Fatal(srv.ListenAndServe())
}
