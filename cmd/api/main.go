package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MoatazNegm/NexusERP-sub001/internal/config"
	"github.com/MoatazNegm/NexusERP-sub001/internal/httpx"
	kafkax "github.com/MoatazNegm/NexusERP-sub001/internal/kafka"
	"github.com/MoatazNegm/NexusERP-sub001/internal/lifecycle"
	"github.com/MoatazNegm/NexusERP-sub001/internal/postgres"
	"github.com/MoatazNegm/NexusERP-sub001/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		log.Fatalf("settings: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, lifecycle.TopicOrderLifecycle, 1024)
	prod.Start(ctx)

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Repo:     &lifecycle.Repo{DB: db},
		Producer: prod,
		Redis:    rdb,
		Settings: settings,
		Service:  cfg.ServiceName,
	}
	oh.Register(router)
	ah := &httpx.AccountsHandler{Repo: &lifecycle.AccountRepo{DB: db}}
	ah.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	cancel()
	prod.WaitClosed()
}
