package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	config "github.com/maheshrc27/crosspost/configs"
)

type recordingPutter struct {
	inputs []*s3.PutObjectInput
	err    error
}

func (p *recordingPutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	p.inputs = append(p.inputs, params)
	if p.err != nil {
		return nil, p.err
	}
	return &s3.PutObjectOutput{}, nil
}

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 0x49, 0x48, 0x44, 0x52}

func TestMediaUploadStoresObject(t *testing.T) {
	putter := &recordingPutter{}
	svc := NewMediaService(config.R2{BucketName: "media", PublicURL: "https://cdn.example.com"}, putter)

	url, err := svc.Upload(context.Background(), pngHeader)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if len(putter.inputs) != 1 {
		t.Fatalf("expected one put, got %d", len(putter.inputs))
	}
	in := putter.inputs[0]
	key := aws.ToString(in.Key)
	if aws.ToString(in.Bucket) != "media" || !strings.HasSuffix(key, ".png") || aws.ToString(in.ContentType) != "image/png" {
		t.Errorf("unexpected input bucket=%q key=%q type=%q", aws.ToString(in.Bucket), key, aws.ToString(in.ContentType))
	}
	if url != "https://cdn.example.com/"+key {
		t.Errorf("url = %q", url)
	}
}

func TestMediaUploadRejectsUnknownTypes(t *testing.T) {
	putter := &recordingPutter{}
	svc := NewMediaService(config.R2{}, putter)

	if _, err := svc.Upload(context.Background(), []byte("plain text")); !errors.Is(err, ErrUnsupportedMedia) {
		t.Errorf("expected ErrUnsupportedMedia, got %v", err)
	}
	if len(putter.inputs) != 0 {
		t.Error("object stored for rejected media")
	}
}

func TestMediaUploadWithoutClient(t *testing.T) {
	svc := NewMediaService(config.R2{}, nil)

	var configErr *ConfigurationError
	if _, err := svc.Upload(context.Background(), pngHeader); !errors.As(err, &configErr) {
		t.Errorf("expected ConfigurationError, got %v", err)
	}
}
