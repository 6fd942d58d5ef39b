package storage

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reddish/app/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/crypto/sha3"
)

var (
	ErrEmptyImage       = errors.New("image is empty")
	ErrImageTooLarge    = errors.New("image exceeds the size limit")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

// putObjectAPI is the slice of the S3 client the uploader needs.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores post images in a bucket under content-addressed keys,
// so uploading the same bytes twice yields the same asset.
type S3Uploader struct {
	client   putObjectAPI
	bucket   string
	baseURL  string
	maxBytes int64
}

// NewS3Uploader creates an uploader using the default AWS credential chain.
// baseURL is the public prefix (usually a CDN) that asset keys are appended to.
func NewS3Uploader(ctx context.Context, region, bucket, baseURL string, maxBytes int64) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return newS3Uploader(s3.NewFromConfig(cfg), bucket, baseURL, maxBytes), nil
}

func newS3Uploader(client putObjectAPI, bucket, baseURL string, maxBytes int64) *S3Uploader {
	return &S3Uploader{
		client:   client,
		bucket:   bucket,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		maxBytes: maxBytes,
	}
}

// Upload validates and stores an image, returning the asset reference to keep on the post.
func (u *S3Uploader) Upload(ctx context.Context, data []byte, filename, contentType string) (*models.PostImage, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if u.maxBytes > 0 && int64(len(data)) > u.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, len(data))
	}

	contentType, ext, err := resolveImageType(filename, contentType)
	if err != nil {
		return nil, err
	}

	key := AssetKey(data, ext)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),

		// Content-addressed keys never change, so cache aggressively.
		CacheControl: aws.String("public, max-age=31536000, immutable"),

		Metadata: map[string]string{
			"original-filename": filepath.Base(filename),
			"upload-timestamp":  time.Now().UTC().Format(time.RFC3339),
			"size":              strconv.Itoa(len(data)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &models.PostImage{
		AssetKey:    key,
		URL:         u.baseURL + "/" + key,
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

// AssetKey names an image by the SHA3-256 of its bytes.
func AssetKey(data []byte, ext string) string {
	sum := sha3.Sum256(data)
	return "images/" + hex.EncodeToString(sum[:]) + ext
}

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// resolveImageType prefers the declared content type and falls back to the file extension.
func resolveImageType(filename, contentType string) (string, string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if ext, ok := imageTypes[ct]; ok {
		return ct, ext, nil
	}

	ct = getContentTypeForImage(filepath.Ext(filename))
	if ext, ok := imageTypes[ct]; ok {
		return ct, ext, nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnsupportedImage, contentType)
}

func getContentTypeForImage(extension string) string {
	switch strings.ToLower(extension) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
