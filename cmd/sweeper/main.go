package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MoatazNegm/NexusERP-sub001/internal/config"
	kafkax "github.com/MoatazNegm/NexusERP-sub001/internal/kafka"
	"github.com/MoatazNegm/NexusERP-sub001/internal/lifecycle"
	"github.com/MoatazNegm/NexusERP-sub001/internal/postgres"
	"github.com/MoatazNegm/NexusERP-sub001/internal/redisx"
	"github.com/MoatazNegm/NexusERP-sub001/internal/sweep"
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
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	pBreach := kafkax.NewProducer(cfg.KafkaBrokers, lifecycle.TopicSLABreached, 1024)
	pBreach.Start(ctx)
	pFlag := kafkax.NewProducer(cfg.KafkaBrokers, lifecycle.TopicCompliance, 1024)
	pFlag.Start(ctx)

	svc := &sweep.Service{
		Repo:           &lifecycle.Repo{DB: db},
		Redis:          rdb,
		ProducerBreach: pBreach,
		ProducerFlag:   pFlag,
		Settings:       settings,
		ServiceName:    cfg.ServiceName + "-sweeper",
	}

	go func() {
		log.Printf("sweeper started: interval=%s", cfg.SweepInterval)
		svc.Run(ctx, cfg.SweepInterval)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down sweeper...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	pBreach.Close()
	pFlag.Close()
	pBreach.WaitClosed()
	pFlag.WaitClosed()
}
