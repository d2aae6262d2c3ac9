package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	s3Scheme        = "s3://"
	defaultRegion   = "us-east-1"
	jsonContentType = "application/json"

	envS3Endpoint  = "BAKERY_REPORT_S3_ENDPOINT"
	envS3Region    = "BAKERY_REPORT_S3_REGION"
	envS3PathStyle = "BAKERY_REPORT_S3_PATH_STYLE"
)

var ErrMissingBucket = errors.New("s3 report target needs a bucket")

// FileStore writes reports below a local directory.
type FileStore struct {
	Dir string
}

func (s FileStore) Put(_ context.Context, key string, body []byte) error {
	path := filepath.Join(s.Dir, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, body, 0o644)
}

// PutObjectAPI is the part of the S3 client the store needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes reports into one bucket, below an optional prefix.
type S3Store struct {
	client PutObjectAPI
	bucket string
	prefix string
}

func NewS3Store(client PutObjectAPI, bucket, prefix string) (*S3Store, error) {
	if bucket == "" {
		return nil, ErrMissingBucket
	}

	return &S3Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte) error {
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(jsonContentType),
	})

	return err
}

// S3Settings configure the S3 client. Endpoint and path style serve S3 compatible stores like MinIO.
// Without static keys the default AWS credential chain is used.
type S3Settings struct {
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
}

// S3SettingsFromEnv reads the BAKERY_REPORT_S3_* variables. Keys come from the AWS credential chain.
func S3SettingsFromEnv() S3Settings {
	return S3Settings{
		Region:    os.Getenv(envS3Region),
		Endpoint:  os.Getenv(envS3Endpoint),
		PathStyle: strings.EqualFold(os.Getenv(envS3PathStyle), "true"),
	}
}

func NewS3Client(ctx context.Context, settings S3Settings) (*s3.Client, error) {
	region := settings.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if settings.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKeyID, settings.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = settings.PathStyle
		if settings.Endpoint != "" {
			o.BaseEndpoint = aws.String(settings.Endpoint)
		}
	}), nil
}

// StoreFor resolves a report target: "s3://bucket/prefix" or a local directory.
func StoreFor(ctx context.Context, target string, settings S3Settings) (Store, error) {
	if !strings.HasPrefix(target, s3Scheme) {
		return FileStore{Dir: target}, nil
	}

	bucket, prefix, _ := strings.Cut(strings.TrimPrefix(target, s3Scheme), "/")
	if bucket == "" {
		return nil, fmt.Errorf("%w: %q", ErrMissingBucket, target)
	}

	client, err := NewS3Client(ctx, settings)
	if err != nil {
		return nil, err
	}

	return NewS3Store(client, bucket, prefix)
}
