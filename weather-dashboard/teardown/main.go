package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Jepkosgei3/DevOps-30Days/shared/config"
	"github.com/Jepkosgei3/DevOps-30Days/shared/logging"
	"github.com/aws/aws-sdk-go/service/s3"
	log "github.com/sirupsen/logrus"
)

const defaultBucket = "weather-dashboard-cd"

type Config struct {
	Bucket string
	Region string
}

func loadConfig() Config {
	return Config{
		Bucket: config.Getenv("BUCKET_NAME", defaultBucket),
		Region: config.Getenv("AWS_REGION", "us-east-1"),
	}
}

func main() {
	config.Load()
	logging.Setup(config.Getenv("LOG_LEVEL", "info"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	stdFields := logging.Fields(ctx)

	cfg := loadConfig()
	log.WithFields(stdFields).WithFields(log.Fields{"bucket": cfg.Bucket, "region": cfg.Region}).
		Info("tearing down bucket")

	td := NewTeardown(s3.New(config.AWSSession(cfg.Region)), stdFields)
	if err := td.Run(ctx, cfg.Bucket); err != nil {
		log.WithFields(stdFields).WithFields(log.Fields{"err": err}).Fatal("teardown failed")
	}
}
