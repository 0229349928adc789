package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	log "github.com/sirupsen/logrus"
)

type Teardown struct {
	svc       s3iface.S3API
	stdFields log.Fields
}

func NewTeardown(svc s3iface.S3API, stdFields log.Fields) *Teardown {
	return &Teardown{svc: svc, stdFields: stdFields}
}

// DeleteAllObjects empties the bucket in batches of up to 1000 keys.
func (t *Teardown) DeleteAllObjects(ctx context.Context, bucket string) error {
	iter := s3manager.NewDeleteListIterator(t.svc, &s3.ListObjectsInput{
		Bucket: aws.String(bucket),
	})
	if err := s3manager.NewBatchDeleteWithClient(t.svc).Delete(ctx, iter); err != nil {
		return fmt.Errorf("unable to empty bucket(%s): %w", bucket, err)
	}

	log.WithFields(t.stdFields).WithFields(log.Fields{"bucket": bucket}).
		Info("all objects deleted from bucket")
	return nil
}

// DeleteBucket removes the bucket. Errors reported by S3 itself (not empty,
// missing, denied) are logged and swallowed; only client side failures are
// returned.
func (t *Teardown) DeleteBucket(ctx context.Context, bucket string) error {
	_, err := t.svc.DeleteBucketWithContext(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		if aerr, ok := err.(awserr.RequestFailure); ok {
			log.WithFields(t.stdFields).
				WithFields(log.Fields{"bucket": bucket, "code": aerr.Code(), "status": aerr.StatusCode()}).
				Errorf("error deleting bucket: %s", aerr.Message())
			return nil
		}
		return fmt.Errorf("unable to delete bucket(%s): %w", bucket, err)
	}

	log.WithFields(t.stdFields).WithFields(log.Fields{"bucket": bucket}).Info("bucket deleted")
	return nil
}

// Run empties then deletes the bucket. A failed empty stops the run before
// the bucket delete is attempted.
func (t *Teardown) Run(ctx context.Context, bucket string) error {
	if err := t.DeleteAllObjects(ctx, bucket); err != nil {
		return err
	}
	return t.DeleteBucket(ctx, bucket)
}
