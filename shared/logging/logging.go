package logging

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// Setup points the std logger at stdout. Interactive runs get readable text,
// everything else (lambda, CI) gets JSON.
func Setup(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stdout)

	if term.IsTerminal(int(os.Stdout.Fd())) {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		return
	}
	log.SetFormatter(&log.JSONFormatter{
		DisableTimestamp: true,
	})
}

// Fields returns the standard fields for one invocation. The lambda request id
// is used when present, otherwise a fresh run id.
func Fields(ctx context.Context) log.Fields {
	if lCtx, ok := lambdacontext.FromContext(ctx); ok && lCtx.AwsRequestID != "" {
		return log.Fields{"traceID": lCtx.AwsRequestID}
	}
	return log.Fields{"traceID": uuid.NewString()}
}
