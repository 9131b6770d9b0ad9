package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	cfg "github.com/maheshrc27/creatorsync/configs"
)

const maxThumbnailBytes = 10 * 1024 * 1024

// ThumbnailService mirrors provider thumbnail images into R2 so content
// records survive the providers' expiring CDN links.
type ThumbnailService struct {
	config cfg.Config
	hc     *http.Client
}

// NewThumbnailService returns nil when R2 credentials are absent; callers
// treat a nil service as archival disabled.
func NewThumbnailService(config cfg.Config) *ThumbnailService {
	if config.R2.AccountID == "" || config.R2.AccessKey == "" {
		return nil
	}
	return &ThumbnailService{
		config: config,
		hc:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *ThumbnailService) r2Client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(t.config.R2.AccessKey, t.config.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", t.config.R2.AccountID))
	}), nil
}

func (t *ThumbnailService) Archive(ctx context.Context, platform, platformContentID, thumbnailURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbnailURL, nil)
	if err != nil {
		return err
	}

	resp, err := t.hc.Do(req)
	if err != nil {
		return fmt.Errorf("thumbnail download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes))
	if err != nil {
		return err
	}

	kind, err := filetype.Match(body)
	if err != nil || !filetype.IsImage(body) {
		return fmt.Errorf("thumbnail for %s is not an image", platformContentID)
	}

	client, err := t.r2Client(ctx)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("thumbnails/%s/%s.%s", platform, platformContentID, kind.Extension)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(t.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(kind.MIME.Value),
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
