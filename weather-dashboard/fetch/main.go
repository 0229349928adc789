package main

import (
	"context"
	"io/ioutil"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Jepkosgei3/DevOps-30Days/shared/config"
	"github.com/Jepkosgei3/DevOps-30Days/shared/fetch"
	"github.com/Jepkosgei3/DevOps-30Days/shared/logging"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	log "github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "http://api.openweathermap.org/data/2.5/weather"
	defaultOutput  = "weather_data.json"
)

var defaultCities = []string{"Nairobi", "Arusha", "Kampala"}

type Config struct {
	APIKey  string
	BaseURL string
	Units   string
	Cities  []string
	Output  string
	// Bucket is optional; empty skips the upload.
	Bucket string
	Region string
	HTTP   fetch.Options
}

func loadConfig() (Config, error) {
	cfg := Config{
		// an absent key is left for the api to reject
		APIKey:  os.Getenv("OPEN_WEATHER_API_KEY"),
		BaseURL: config.Getenv("WEATHER_BASE_URL", defaultBaseURL),
		Units:   config.Getenv("WEATHER_UNITS", "metric"),
		Cities:  config.GetenvList("WEATHER_CITIES", defaultCities),
		Output:  config.Getenv("WEATHER_OUTPUT", defaultOutput),
		Bucket:  os.Getenv("BUCKET_NAME"),
		Region:  config.Getenv("AWS_REGION", "us-east-1"),
	}

	timeout, err := config.GetenvDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return cfg, err
	}
	retryMax, err := config.GetenvInt("HTTP_RETRY_MAX", 0)
	if err != nil {
		return cfg, err
	}
	cfg.HTTP = fetch.Options{Timeout: timeout, RetryMax: retryMax}

	return cfg, nil
}

func run(ctx context.Context, cfg Config, uploader *s3manager.Uploader, stdFields log.Fields) (*Report, error) {
	f := NewFetcher(cfg, fetch.NewClient(cfg.HTTP), stdFields)
	snap, report := f.Snapshot(ctx)

	if err := WriteSnapshot(cfg.Output, snap); err != nil {
		return report, err
	}
	log.WithFields(stdFields).
		WithFields(log.Fields{"path": cfg.Output, "cities": len(snap.Cities), "failed": len(report.Failed)}).
		Info("weather snapshot written")

	if uploader == nil {
		return report, nil
	}

	b, err := ioutil.ReadFile(cfg.Output)
	if err != nil {
		return report, err
	}
	err = uploadSnapshot(ctx, uploader, cfg.Bucket, filepath.Base(cfg.Output), b, time.Now(), stdFields)
	return report, err
}

func main() {
	config.Load()
	logging.Setup(config.Getenv("LOG_LEVEL", "info"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	stdFields := logging.Fields(ctx)

	cfg, err := loadConfig()
	if err != nil {
		log.WithFields(stdFields).WithFields(log.Fields{"err": err}).Fatal("invalid configuration")
	}

	var uploader *s3manager.Uploader
	if cfg.Bucket != "" {
		uploader = s3manager.NewUploader(config.AWSSession(cfg.Region))
	}

	report, err := run(ctx, cfg, uploader, stdFields)
	if err != nil {
		log.WithFields(stdFields).WithFields(log.Fields{"err": err}).Fatal("weather snapshot failed")
	}
	if len(report.Failed) > 0 {
		log.WithFields(stdFields).WithFields(log.Fields{"cities": report.Failed}).
			Warn("some cities were stored with error payloads")
	}
}
