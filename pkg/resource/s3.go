package resource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/sony/gobreaker"

	"github.com/wdcollab/wdcore/pkg/observability"
)

// S3Config configures an S3-backed Store (grounded on the teacher's
// internal/storage S3Config: region, bucket, optional custom endpoint for
// S3-compatible services, and the part-size/concurrency knobs its
// uploader/downloader use).
type S3Config struct {
	Region           string
	Bucket           string
	Prefix           string
	Endpoint         string
	ForcePathStyle   bool
	UploadPartSize   int64
	DownloadPartSize int64
	Concurrency      int
	RequestTimeout   time.Duration
	MaxSize          int
}

// S3Store is a Store backed by AWS S3 (or an S3-compatible service via
// Endpoint), circuit-broken so a failing bucket doesn't pile up retries
// against it (spec.md §4.8 store contract, over S3 instead of a local
// disk).
type S3Store struct {
	client  *s3.Client
	upload  *manager.Uploader
	dl      *manager.Downloader
	cfg     S3Config
	cb      *gobreaker.CircuitBreaker
	logger  observability.Logger
	metrics observability.MetricsClient
}

// NewS3Store creates an S3Store, loading AWS credentials/region the
// default way (environment, shared config, IRSA) unless Endpoint
// overrides it for a local S3-compatible target.
func NewS3Store(ctx context.Context, cfg S3Config, logger observability.Logger, metrics observability.MetricsClient) (*S3Store, error) {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.UploadPartSize == 0 {
		cfg.UploadPartSize = manager.MinUploadPartSize
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 5
	}

	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(cfg.Endpoint))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("resource: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	cbSettings := gobreaker.Settings{
		Name:        "resource-s3",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("resource store circuit breaker state changed", map[string]interface{}{
					"name": name, "from": from.String(), "to": to.String(),
				})
			}
		},
	}

	return &S3Store{
		client: client,
		upload: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = cfg.UploadPartSize
			u.Concurrency = cfg.Concurrency
		}),
		dl: manager.NewDownloader(client, func(d *manager.Downloader) {
			d.PartSize = cfg.DownloadPartSize
			d.Concurrency = cfg.Concurrency
		}),
		cfg:     cfg,
		cb:      gobreaker.NewCircuitBreaker(cbSettings),
		logger:  logger,
		metrics: metrics,
	}, nil
}

func (s *S3Store) key(id ID) string {
	if s.cfg.Prefix == "" {
		return string(id)
	}
	return s.cfg.Prefix + "/" + string(id)
}

func (s *S3Store) Store(ctx context.Context, data []byte, name string) (ID, error) {
	format, err := checkBlob(data, s.cfg.MaxSize)
	if err != nil {
		return "", err
	}

	id := NewID(data)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	_, err = s.cb.Execute(func() (interface{}, error) {
		_, uploadErr := s.upload.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.cfg.Bucket),
			Key:         aws.String(s.key(id)),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType(format)),
			Metadata:    map[string]string{"resource-name": name},
		})
		return nil, uploadErr
	})
	if err != nil {
		s.recordOp("store", false)
		return "", fmt.Errorf("resource: store %s: %w", id, err)
	}
	s.recordOp("store", true)
	return id, nil
}

func (s *S3Store) Get(ctx context.Context, id ID) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	buf := manager.NewWriteAtBuffer([]byte{})
	_, err := s.cb.Execute(func() (interface{}, error) {
		_, dlErr := s.dl.Download(ctx, buf, &s3.GetObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(s.key(id)),
		})
		return nil, dlErr
	})
	if err != nil {
		s.recordOp("get", false)
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("resource: get %s: %w", id, err)
	}
	s.recordOp("get", true)
	return buf.Bytes(), nil
}

func (s *S3Store) Remove(ctx context.Context, id ID) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	_, err := s.cb.Execute(func() (interface{}, error) {
		_, delErr := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(s.key(id)),
		})
		return nil, delErr
	})
	if err != nil && !isNotFound(err) {
		s.recordOp("remove", false)
		return fmt.Errorf("resource: remove %s: %w", id, err)
	}
	s.recordOp("remove", true)
	return nil
}

func (s *S3Store) recordOp(op string, success bool) {
	if s.metrics != nil {
		s.metrics.RecordOperation("resource_s3", op, success, 0, nil)
	}
}

func isNotFound(err error) bool {
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == 404
	}
	return false
}

func contentType(f Format) string {
	switch f {
	case FormatPNG:
		return "image/png"
	case FormatJPEG:
		return "image/jpeg"
	case FormatGIF:
		return "image/gif"
	case FormatWebP:
		return "image/webp"
	case FormatSVG:
		return "image/svg+xml"
	case FormatTTF:
		return "font/ttf"
	case FormatOTF:
		return "font/otf"
	case FormatWOFF:
		return "font/woff"
	case FormatWOFF2:
		return "font/woff2"
	default:
		return "application/octet-stream"
	}
}
