package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	config "github.com/maheshrc27/crosspost/configs"
)

var ErrUnsupportedMedia = errors.New("unsupported media type")

var allowedMediaTypes = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"mp4":  true,
	"mov":  true,
}

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// MediaService stores media on Cloudflare R2 so platforms that only accept
// URLs (Instagram) can fetch it.
type MediaService interface {
	Upload(ctx context.Context, data []byte) (string, error)
}

type r2MediaService struct {
	r2     config.R2
	client ObjectPutter
}

func NewMediaService(r2 config.R2, client ObjectPutter) MediaService {
	return &r2MediaService{r2: r2, client: client}
}

// NewR2Client builds an S3 client pointed at the account's R2 endpoint.
func NewR2Client(ctx context.Context, r2 config.R2) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("load r2 config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID))
	}), nil
}

func (s *r2MediaService) Upload(ctx context.Context, data []byte) (string, error) {
	if s.client == nil {
		return "", &ConfigurationError{Missing: []string{"R2_ACCOUNT_ID", "R2_ACCESS_KEY", "R2_SECRET_KEY"}}
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return "", err
	}
	if kind == filetype.Unknown || !allowedMediaTypes[kind.Extension] {
		return "", ErrUnsupportedMedia
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s.%s", id, kind.Extension)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.r2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(kind.MIME.Value),
	})
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return fmt.Sprintf("%s/%s", s.r2.PublicURL, key), nil
}
