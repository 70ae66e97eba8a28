package main

import (
	"log"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/nawoda2/Temporal-Order-Lifecycle/activities"
	"github.com/nawoda2/Temporal-Order-Lifecycle/config"
	"github.com/nawoda2/Temporal-Order-Lifecycle/database"
	"github.com/nawoda2/Temporal-Order-Lifecycle/logger"
	"github.com/nawoda2/Temporal-Order-Lifecycle/repository"
	"github.com/nawoda2/Temporal-Order-Lifecycle/workflows"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	lg := logger.Initialize(cfg.Env)
	defer lg.Sync() //nolint:errcheck

	db, err := database.Connect(cfg)
	if err != nil {
		lg.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		lg.Fatal("Migration failed", zap.Error(err))
	}

	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalAddress,
		Logger:   logger.NewTemporalAdapter(lg),
	})
	if err != nil {
		lg.Fatal("Failed to connect to Temporal", zap.Error(err))
	}
	defer c.Close()

	repo := repository.NewGormOrderRepository(db)
	acts := activities.NewActivities(repo, activities.NewFaultInjector(cfg.InjectFaults), lg)

	w := worker.New(c, cfg.ShippingTaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.ShippingWorkflow)
	// Only the shipping-side activities run on this queue.
	w.RegisterActivity(acts.PrepareOrder)
	w.RegisterActivity(acts.DispatchCarrier)

	lg.Info("Shipping worker starting", zap.String("task_queue", cfg.ShippingTaskQueue))
	if err := w.Run(worker.InterruptCh()); err != nil {
		lg.Fatal("Shipping worker exited", zap.Error(err))
	}
}
