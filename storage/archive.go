package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"mirage/core"
)

// Archiver uploads msgpack-encoded campaign results to S3 for long-term
// retention. Entirely optional; a failed upload never affects the build.
type Archiver struct {
	client s3iface.S3API
	bucket string
	prefix string
	logger *zap.SugaredLogger
}

// NewArchiver creates an S3 archiver for the given bucket and key prefix
func NewArchiver(region, bucket, prefix string, logger *zap.SugaredLogger) (*Archiver, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &Archiver{
		client: s3.New(sess),
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}, nil
}

// NewArchiverWithClient wires an explicit client; used by tests
func NewArchiverWithClient(client s3iface.S3API, bucket, prefix string, logger *zap.SugaredLogger) *Archiver {
	return &Archiver{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// Archive encodes and uploads one campaign result. The object key embeds the
// campaign id and the archive date.
func (a *Archiver) Archive(ctx context.Context, result *core.CampaignResult) (string, error) {
	data, err := msgpack.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode campaign result: %w", err)
	}

	key := fmt.Sprintf("%s/%s/%s.msgpack",
		a.prefix, time.Now().UTC().Format("2006/01/02"), result.Campaign.ID)
	_, err = a.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/msgpack"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive: %w", err)
	}

	a.logger.Infow("Campaign result archived",
		"bucket", a.bucket, "key", key, "bytes", len(data))
	return key, nil
}
