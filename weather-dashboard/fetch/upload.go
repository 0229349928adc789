package main

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	log "github.com/sirupsen/logrus"
)

// snapshotKeys returns the dated archive key and the key the dashboard reads.
func snapshotKeys(name string, t time.Time) (string, string) {
	t = t.UTC()
	archive := path.Join("snapshots", t.Format("2006/01/02"), t.Format("150405")+"-"+name)
	return archive, name
}

// uploadSnapshot copies the written snapshot to the dashboard bucket.
func uploadSnapshot(
	ctx context.Context,
	uploader *s3manager.Uploader,
	bucket, name string,
	body []byte,
	now time.Time,
	stdFields log.Fields,
) error {
	archive, latest := snapshotKeys(name, now)

	for _, key := range []string{archive, latest} {
		_, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			ContentType: aws.String("application/json"),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			Bucket:      aws.String(bucket),
		})
		if err != nil {
			return fmt.Errorf("unable to upload %s to %s: %w", key, bucket, err)
		}
		log.WithFields(stdFields).WithFields(log.Fields{"bucket": bucket, "key": key}).
			Info("weather snapshot uploaded to s3")
	}

	return nil
}
