package auditlog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/acorn-io/dnswatch/pkg/model"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const DefaultBucket = "dns-change-logs"

// S3Log stores each domain's history as one object, rewritten in full on every
// append. Appends to the same key from one process are serialized.
type S3Log struct {
	Bucket string
	Prefix string
	Svc    s3iface.S3API

	locks sync.Map // key -> *sync.Mutex
}

func NewS3Log(bucket, prefix, region string) (*S3Log, error) {
	config := &aws.Config{
		MaxRetries: aws.Int(3),
	}
	if region != "" {
		config.Region = aws.String(region)
	}

	s, err := session.NewSession(config)
	if err != nil {
		return nil, err
	}

	if bucket == "" {
		bucket = DefaultBucket
	}

	return &S3Log{
		Bucket: bucket,
		Prefix: prefix,
		Svc:    s3.New(s),
	}, nil
}

func (l *S3Log) Append(ctx context.Context, domain string, event model.ChangeEvent) error {
	line, err := encodeEvent(event)
	if err != nil {
		return err
	}

	key := LogKey(l.Prefix, domain)
	mu := l.lock(key)
	defer mu.Unlock()

	existing, err := l.read(ctx, key)
	if err != nil {
		return err
	}

	_, err = l.Svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(l.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(appendLine(existing, line)),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("writing s3://%s/%s: %w", l.Bucket, key, err)
	}
	return nil
}

func (l *S3Log) Events(ctx context.Context, domain string) ([]model.ChangeEvent, error) {
	data, err := l.read(ctx, LogKey(l.Prefix, domain))
	if err != nil {
		return nil, err
	}
	return decodeEvents(data)
}

// read returns the object content, or nil when the object does not exist yet.
func (l *S3Log) read(ctx context.Context, key string) ([]byte, error) {
	out, err := l.Svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading s3://%s/%s: %w", l.Bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3://%s/%s: %w", l.Bucket, key, err)
	}
	return data, nil
}

func (l *S3Log) lock(key string) *sync.Mutex {
	v, _ := l.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu
}

// isNotFound is true only for a missing object. A missing bucket also answers
// 404 and must surface as an error.
func isNotFound(err error) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey
}
