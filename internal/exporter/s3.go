// Package exporter uploads snapshots to S3-compatible object storage.
package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/cargotrack/internal/models"
)

var ErrNoBucket = errors.New("exporter: bucket is required")

type Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

type S3Exporter struct {
	client *s3.Client
	bucket string
	prefix string
	now    func() time.Time
}

// document is the exported file. Users carry no passwords.
type document struct {
	ExportedAt time.Time       `json:"exported_at"`
	Counts     map[string]int  `json:"counts"`
	Snapshot   models.Snapshot `json:"snapshot"`
}

// New builds an exporter from cfg. Static credentials are used when both
// keys are set, the default AWS chain otherwise. optFns are applied to the
// S3 client last.
func New(ctx context.Context, cfg Config, optFns ...func(*s3.Options)) (*S3Exporter, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	opts := []func(*s3.Options){func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}}
	opts = append(opts, optFns...)

	return &S3Exporter{
		client: s3.NewFromConfig(awsCfg, opts...),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		now:    time.Now,
	}, nil
}

// Export writes snap as JSON and returns the object key.
func (e *S3Exporter) Export(ctx context.Context, snap models.Snapshot) (string, error) {
	at := e.now().UTC()
	counts := make(map[string]int, len(models.Kinds))
	for k, n := range snap.Counts() {
		counts[string(k)] = n
	}

	body, err := json.Marshal(document{ExportedAt: at, Counts: counts, Snapshot: snap})
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key := path.Join(e.prefix, "snapshot-"+at.Format("20060102T150405Z")+".json")
	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}
