package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/veritrust/review-verify/src/RVApi/anchor"
	"github.com/veritrust/review-verify/src/RVApi/classifier"
	"github.com/veritrust/review-verify/src/RVApi/config"
	"github.com/veritrust/review-verify/src/RVApi/data"
	"github.com/veritrust/review-verify/src/RVApi/pipeline"
	"github.com/veritrust/review-verify/src/RVApi/webserver"
)

func main() {
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)
	if err := data.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := data.SeedProducts(db); err != nil {
		log.Printf("seed products: %v", err)
	}
	if err := data.LoadSettings(db); err != nil {
		log.Printf("load settings: %v", err)
	}

	rdb := data.MustRedis(cfg.RedisURL)

	// Gateway signing is optional in development; submissions go unsigned
	// when no key is configured.
	var signer anchor.Signer
	if cfg.AnchorSeed != "" {
		s, err := anchor.NewSigner(cfg.AnchorSeed, 42)
		if err != nil {
			log.Fatalf("anchor signer: %v", err)
		}
		signer = s
		log.Printf("anchor signer address: %s", s.Address())
	}

	anchorURL := cfg.AnchorURL
	if v := data.GetSetting("anchor_url"); v != "" {
		anchorURL = v
	}
	classifierURL := cfg.ClassifierURL
	if v := data.GetSetting("classifier_url"); v != "" {
		classifierURL = v
	}

	anchors := anchor.NewGatewayClient(anchorURL, signer)
	var cls classifier.Client = classifier.NewHTTPClient(classifierURL, 0)
	cls = classifier.NewCached(cls, rdb)

	pipe := pipeline.New(db, rdb, anchors, cls)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(time.Duration(cfg.PollInterval) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := data.RefreshSettings(db); err != nil {
					log.Printf("refresh settings: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if cfg.ChainRPCURL != "" {
		data.StartSettlementWatcher(ctx, cfg.ChainRPCURL, rdb)
	} else {
		log.Printf("Warning: CHAIN_RPC_URL not set, settlement watcher disabled")
	}

	router := webserver.New(cfg, db, rdb, pipe)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	log.Printf("ReviewVerify API listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
