package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/nawoda2/Temporal-Order-Lifecycle/config"
	"github.com/nawoda2/Temporal-Order-Lifecycle/controllers"
	"github.com/nawoda2/Temporal-Order-Lifecycle/kafka"
	"github.com/nawoda2/Temporal-Order-Lifecycle/logger"
	aws_pkg "github.com/nawoda2/Temporal-Order-Lifecycle/pkg/aws"
	"github.com/nawoda2/Temporal-Order-Lifecycle/routes"
	"github.com/nawoda2/Temporal-Order-Lifecycle/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	lg := logger.Initialize(cfg.Env)
	defer lg.Sync() //nolint:errcheck

	c, err := client.Dial(client.Options{
		HostPort: cfg.TemporalAddress,
		Logger:   logger.NewTemporalAdapter(lg),
	})
	if err != nil {
		lg.Fatal("Failed to connect to Temporal", zap.Error(err))
	}
	defer c.Close()

	// Optional notification channels
	var snsClient aws_pkg.SNSPublisher
	if cfg.SNSTopicArn != "" {
		if awsCfg, awsErr := aws_pkg.LoadAWSConfig(context.Background()); awsErr != nil {
			lg.Warn("AWS config unavailable, SNS disabled", zap.Error(awsErr))
		} else {
			snsClient = aws_pkg.NewSNSClient(awsCfg, lg)
		}
	}
	var producer *kafka.Producer
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		producer = kafka.NewProducer(brokers, cfg.KafkaTopic, lg)
		defer producer.Close() //nolint:errcheck
	}

	orderService := services.NewOrderService(c, cfg.OrderTaskQueue, snsClient, cfg.SNSTopicArn, producer, lg)
	orderController := controllers.NewOrderController(orderService)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(logger.RequestLogger(lg), gin.Recovery())

	routes.RegisterOrderRoutes(r, orderController)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Fatal("Server failed", zap.Error(err))
		}
	}()

	lg.Info("Order lifecycle API started", zap.String("port", cfg.Port))
	<-quit
	lg.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Fatal("Server forced to shutdown", zap.Error(err))
	}
	lg.Info("Server exited cleanly")
}
