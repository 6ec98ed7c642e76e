package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MoatazNegm/NexusERP-sub001/internal/config"
	kafkax "github.com/MoatazNegm/NexusERP-sub001/internal/kafka"
	"github.com/MoatazNegm/NexusERP-sub001/internal/lifecycle"
	"github.com/MoatazNegm/NexusERP-sub001/internal/projector"
	"github.com/MoatazNegm/NexusERP-sub001/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &projector.Service{Redis: rdb}
	consumer := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, lifecycle.TopicOrderLifecycle, cfg.ConsumerWorkers)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("shutting down projector...")
		cancel()
	}()

	log.Printf("projector started: group=%s topic=%s workers=%d", cfg.ConsumerGroup, lifecycle.TopicOrderLifecycle, cfg.ConsumerWorkers)
	if err := consumer.Start(ctx, svc.Handle); err != nil {
		log.Fatalf("consumer: %v", err)
	}
}
