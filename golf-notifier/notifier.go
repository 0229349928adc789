package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Jepkosgei3/DevOps-30Days/shared/fetch"
	"github.com/Jepkosgei3/DevOps-30Days/shared/logging"
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
	log "github.com/sirupsen/logrus"
)

type Notifier struct {
	cfg    Config
	client *http.Client
	sns    snsiface.SNSAPI
	now    func() time.Time
}

func NewNotifier(cfg Config, client *http.Client, snsClient snsiface.SNSAPI) *Notifier {
	return &Notifier{cfg: cfg, client: client, sns: snsClient, now: time.Now}
}

func (n *Notifier) Subject() string {
	return fmt.Sprintf("Golf Tournament Updates for %s", n.cfg.Year)
}

func respond(status int, body string) *events.APIGatewayProxyResponse {
	return &events.APIGatewayProxyResponse{StatusCode: status, Body: body}
}

// Handle runs one fetch, filter, publish pass. Every outcome is reported in
// the response; the returned error is always nil.
func (n *Notifier) Handle(ctx context.Context, evt events.CloudWatchEvent) (*events.APIGatewayProxyResponse, error) {
	stdFields := logging.Fields(ctx)
	log.WithFields(stdFields).
		WithFields(log.Fields{"date": n.now().UTC().Format("2006-01-02"), "source": evt.Source}).
		Info("fetching golf courses")

	courses, err := n.fetchCourses(ctx, stdFields)
	if err != nil {
		log.WithFields(stdFields).WithFields(log.Fields{"err": err}).Error("error fetching data from api")
		return respond(http.StatusInternalServerError, "Error fetching data"), nil
	}

	matches := FilterByYear(courses, n.cfg.Year)
	if len(matches) == 0 {
		log.WithFields(stdFields).WithFields(log.Fields{"year": n.cfg.Year}).Info("no tournaments found")
		return respond(http.StatusOK, fmt.Sprintf("No tournaments available for %s.", n.cfg.Year)), nil
	}

	msg := FormatMessage(matches)
	_, err = n.sns.PublishWithContext(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.cfg.TopicARN),
		Message:  aws.String(msg),
		Subject:  aws.String(n.Subject()),
	})
	if err != nil {
		log.WithFields(stdFields).WithFields(log.Fields{"topic": n.cfg.TopicARN, "err": err}).
			Error("error publishing to sns")
		return respond(http.StatusInternalServerError, "Error publishing to SNS"), nil
	}

	log.WithFields(stdFields).WithFields(log.Fields{"topic": n.cfg.TopicARN, "tournaments": len(matches)}).
		Info("message published to sns")
	return respond(http.StatusOK, "Data processed and sent to SNS"), nil
}

func (n *Notifier) fetchCourses(ctx context.Context, stdFields log.Fields) ([]Course, error) {
	var raw json.RawMessage
	if err := fetch.GetJSON(ctx, n.client, n.cfg.APIURL, url.Values{"key": {n.cfg.APIKey}}, &raw); err != nil {
		return nil, err
	}
	log.WithFields(stdFields).WithFields(log.Fields{"payload": string(raw)}).Debug("api payload")

	var courses []Course
	if err := json.Unmarshal(raw, &courses); err != nil {
		return nil, fmt.Errorf("unexpected courses payload: %w", err)
	}
	return courses, nil
}
