package gateway

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3BlobStore writes submission files and profile photos to S3-compatible
// object storage. Objects are content-addressed: the key is the sha256 of
// the payload, so re-uploading identical bytes is a no-op.
type S3BlobStore struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

type S3Config struct {
	Endpoint   string `yaml:"endpoint"`
	Region     string `yaml:"region"`
	Bucket     string `yaml:"bucket"`
	AccessKey  string `yaml:"accessKey"`
	SecretKey  string `yaml:"secretKey"`
	PublicBase string `yaml:"publicBase"`
}

func NewS3BlobStore(ctx context.Context, conf S3Config) (*S3BlobStore, error) {
	region := conf.Region
	if region == "" {
		region = "auto"
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			conf.AccessKey, conf.SecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load object storage config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
	})

	publicBase := conf.PublicBase
	if publicBase == "" {
		publicBase = fmt.Sprintf("%s/%s", conf.Endpoint, conf.Bucket)
	}

	return &S3BlobStore{
		client:     client,
		bucket:     conf.Bucket,
		publicBase: publicBase,
	}, nil
}

func (s *S3BlobStore) Put(ctx context.Context, filename string, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])
	if ext := filepath.Ext(filename); ext != "" {
		key += ext
	}

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload blob: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.publicBase, key), nil
}
