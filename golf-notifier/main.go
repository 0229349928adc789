package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/Jepkosgei3/DevOps-30Days/shared/config"
	"github.com/Jepkosgei3/DevOps-30Days/shared/fetch"
	"github.com/Jepkosgei3/DevOps-30Days/shared/logging"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/service/sns"
	log "github.com/sirupsen/logrus"
)

const defaultAPIURL = "https://api.sportsdata.io/golf/v2/json/Courses"

var (
	retryClient *http.Client
	snsClient   *sns.SNS
)

type Config struct {
	APIKey   string
	TopicARN string
	APIURL   string
	Year     string
}

// loadConfig runs per invocation; credentials are passed through unchecked.
func loadConfig() Config {
	return Config{
		APIKey:   os.Getenv("GOLF_API_KEY"),
		TopicARN: os.Getenv("SNS_TOPIC_ARN"),
		APIURL:   config.Getenv("GOLF_API_URL", defaultAPIURL),
		Year:     config.Getenv("TARGET_YEAR", "2025"),
	}
}

func handler(ctx context.Context, evt events.CloudWatchEvent) (*events.APIGatewayProxyResponse, error) {
	return NewNotifier(loadConfig(), retryClient, snsClient).Handle(ctx, evt)
}

func init() {
	logging.Setup(config.Getenv("LOG_LEVEL", "info"))

	timeout, err := config.GetenvDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		log.WithFields(log.Fields{"err": err}).Warn("falling back to default http timeout")
		timeout = 10 * time.Second
	}
	retryClient = fetch.NewClient(fetch.Options{Timeout: timeout})

	snsClient = sns.New(config.AWSSession(os.Getenv("AWS_REGION")))
}

func main() {
	lambda.Start(handler)
}
