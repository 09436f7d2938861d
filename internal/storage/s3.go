package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math/rand"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
)

type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	region   string
}

var _ BlobStore = (*S3Store)(nil)

func NewS3Store(ctx context.Context, region, bucket string) (*S3Store, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg)
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		region:   region,
	}, nil
}

// PutObject uploads under a unique key <prefix>/<ts>_<rand>.<ext> and
// returns the public URL.
func (s *S3Store) PutObject(ctx context.Context, data []byte, filename, contentType, pathPrefix string) (string, error) {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	key := fmt.Sprintf("%s/%d_%s", pathPrefix, time.Now().UnixMilli(), randomSuffix())
	if ext != "" {
		key += "." + ext
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// DeleteObject extracts the key from a public URL and removes the object.
// A URL that does not parse is ignored.
func (s *S3Store) DeleteObject(ctx context.Context, fileURL string) error {
	if fileURL == "" {
		return nil
	}
	u, err := url.Parse(fileURL)
	if err != nil {
		return nil
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return nil
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// Thumbnail renders a 320px-wide JPEG variant for avatar uploads.
func Thumbnail(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	thumb := imaging.Resize(img, 320, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomSuffix() string {
	b := make([]byte, 12)
	for i := range b {
		b[i] = suffixAlphabet[rand.Intn(len(suffixAlphabet))]
	}
	return string(b)
}
