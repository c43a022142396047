package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

var ErrObjectNotFound = errors.New("object not found")

type Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	URLExpiration   time.Duration
}

// Signer hands out presigned GET URLs for clip and thumbnail objects.
// URLs are cached for half their validity so a burst of dashboard loads
// does not re-sign the same keys.
type Signer struct {
	presigner *s3.PresignClient
	client    *s3.Client
	bucket    string
	expiry    time.Duration
	cache     *expirable.LRU[string, string]
}

func NewSigner(ctx context.Context, cfg Config) (*Signer, error) {
	if cfg.URLExpiration <= 0 {
		cfg.URLExpiration = time.Hour
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Signer{
		presigner: s3.NewPresignClient(client),
		client:    client,
		bucket:    cfg.Bucket,
		expiry:    cfg.URLExpiration,
		cache:     expirable.NewLRU[string, string](512, nil, cfg.URLExpiration/2),
	}, nil
}

// VideoURL signs a playback URL for the given object key.
func (s *Signer) VideoURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrObjectNotFound
	}
	if url, ok := s.cache.Get(key); ok {
		return url, nil
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = s.expiry
	})
	if err != nil {
		return "", err
	}

	s.cache.Add(key, req.URL)
	return req.URL, nil
}

// ThumbnailURL signs a thumbnail URL. Thumbnails are optional: any failure
// is logged and reported as nil rather than propagated.
func (s *Signer) ThumbnailURL(ctx context.Context, key string) *string {
	if key == "" {
		return nil
	}
	url, err := s.VideoURL(ctx, key)
	if err != nil {
		log.Printf("storage: thumbnail sign failed for %s: %v", key, err)
		return nil
	}
	return &url
}

// Stat checks that the object exists. Missing keys map to ErrObjectNotFound
// so handlers can answer 404 instead of handing out a dead URL.
func (s *Signer) Stat(ctx context.Context, key string) error {
	if key == "" {
		return ErrObjectNotFound
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		var noKey *types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noKey) {
			return ErrObjectNotFound
		}
		return err
	}
	return nil
}
