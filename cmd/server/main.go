package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/devfong/cinema-gate/config"
	httpDelivery "github.com/devfong/cinema-gate/internal/delivery/http"
	"github.com/devfong/cinema-gate/internal/delivery/kafka/producer"
	mysqlInfra "github.com/devfong/cinema-gate/internal/infra/mysql"
	redisInfra "github.com/devfong/cinema-gate/internal/infra/redis"
	"github.com/devfong/cinema-gate/internal/metrics"
	"github.com/devfong/cinema-gate/internal/notification"
	mysqlrepo "github.com/devfong/cinema-gate/internal/repository/mysql"
	redisrepo "github.com/devfong/cinema-gate/internal/repository/redis"
	"github.com/devfong/cinema-gate/internal/scheduler"
	"github.com/devfong/cinema-gate/internal/service"
	pkgKafka "github.com/devfong/cinema-gate/pkg/kafka"
	"github.com/devfong/cinema-gate/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l := logger.InitializeZapLogger(logger.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisCli, err := redisInfra.Connect(ctx, cfg.Redis)
	if err != nil {
		l.Fatalf(ctx, "Redis connection failed: %v", err)
	}
	defer redisInfra.Disconnect(redisCli)

	db, err := mysqlInfra.Connect(ctx, cfg.MySQL)
	if err != nil {
		l.Fatalf(ctx, "MySQL connection failed: %v", err)
	}
	defer mysqlInfra.Disconnect(db)

	events := producer.NewNoopEventProducer()
	if cfg.Kafka.Enabled {
		saramaProd, err := pkgKafka.NewProducer(ctx, pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		}, l)
		if err != nil {
			l.Fatalf(ctx, "Kafka producer failed: %v", err)
		}
		events = producer.NewKafkaEventProducer(saramaProd, l)
	}
	defer events.Close()

	// Repositories.
	admissionRepo := redisrepo.NewRedisAdmissionRepository(redisCli, l)
	seatRepo := redisrepo.NewRedisSeatRepository(redisCli, l)
	bookingRepo := redisrepo.NewRedisBookingRepository(redisCli, l)
	bookingStore := mysqlrepo.NewMySQLBookingRepository(db, l)
	theaterStore := mysqlrepo.NewMySQLTheaterRepository(db, l)

	// Fan-out plumbing.
	reg := metrics.NewRegistry()
	hub := notification.NewHub(l)
	pub := notification.NewRedisBroadcaster(redisCli, l)
	listener := notification.NewListener(redisCli, hub, l)

	// Services.
	fleet := service.NewEnvFleetDiscovery()
	capacity := service.NewCapacityCalculator(cfg.Admission, fleet, l)
	tokens := service.NewTokenIssuer(cfg.JWT)
	admissionSvc := service.NewAdmissionService(admissionRepo, capacity, tokens, pub, events, reg, cfg.Admission, l)
	seatSvc := service.NewSeatService(seatRepo, cfg.Seats, reg, l)
	bookingSvc := service.NewBookingService(bookingRepo, bookingStore, pub, events, reg, cfg.Booking, l)
	theaterSvc := service.NewTheaterService(theaterStore, seatRepo, l)

	// Periodic drivers.
	fleetSize := int64(cfg.Admission.FallbackFleetSize)
	if n, err := fleet.ReplicaCount(ctx); err == nil && n > 0 {
		fleetSize = n
	}
	part := scheduler.NewPartitioner(cfg.Queue.PartitionEnabled, int64(cfg.Queue.ReplicaIndex), fleetSize)
	drivers := []*scheduler.Driver{
		scheduler.NewPromotionDriver(admissionSvc, part, cfg.Queue, l),
		scheduler.NewExpiryDriver(admissionSvc, part, cfg.Queue.ExpiryInterval, l),
		scheduler.NewStatsDriver(admissionSvc, pub, part, cfg.Queue.StatsInterval, l),
	}

	listener.Start(ctx)
	for _, d := range drivers {
		d.Start(ctx)
	}

	handler := httpDelivery.NewHandler(admissionSvc, seatSvc, bookingSvc, theaterSvc, hub, reg, drivers, l)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      httpDelivery.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof(ctx, "HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Infof(ctx, "Shutting down")

		// Stop producing work first, then drain streams, then close the
		// listener who feeds them, then stop accepting requests.
		for _, d := range drivers {
			d.Stop(ctx)
		}
		hub.DrainAll(ctx)
		listener.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.Errorf(ctx, "Server exited with error: %v", err)
	}

	l.Infof(ctx, "Server stopped")
}
