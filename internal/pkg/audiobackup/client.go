package audiobackup

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/spectrahq/ghosthunter/app/models"
)

// Client wraps the S3 client with audio-archival functionality
type Client struct {
	s3Client *s3.Client
	config   *Config
}

// NewClient creates a new audio backup client
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("audio backup is disabled")
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			// S3-compatible services need path-style URLs
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	client := &Client{
		s3Client: s3Client,
		config:   cfg,
	}

	log.Infof("[AudioBackup] Initialized S3 client for bucket: %s", cfg.BucketName)
	return client, nil
}

// UploadAudio stores one decoded audio payload under the given object key.
func (c *Client) UploadAudio(ctx context.Context, objectKey string, audio []byte) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(audio),
		ContentType:   aws.String("audio/mp4"),
		ContentLength: aws.Int64(int64(len(audio))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectKey, err)
	}
	return nil
}

var (
	setupOnce     sync.Once
	defaultClient *Client
)

// GetClient returns the process-wide backup client, or nil when archival is
// disabled or misconfigured. Archival is strictly best effort.
func GetClient() *Client {
	setupOnce.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			log.Warnf("[AudioBackup] disabled: %v", err)
			return
		}
		if !cfg.IsEnabled() {
			return
		}
		client, err := NewClient(cfg)
		if err != nil {
			log.Warnf("[AudioBackup] disabled: %v", err)
			return
		}
		defaultClient = client
	})
	return defaultClient
}

// ArchiveRecording uploads a recording's audio off-process. Failures are
// logged, never surfaced to the request that stored the recording.
func ArchiveRecording(recording *models.Recording) {
	client := GetClient()
	if client == nil {
		return
	}

	audio, err := base64.StdEncoding.DecodeString(recording.AudioBase64)
	if err != nil {
		log.Warnf("[AudioBackup] recording %s carries invalid base64, skipping", recording.UUID)
		return
	}

	now := time.Now().UTC()
	key := client.config.GetObjectKey(recording.SessionUUID, recording.UUID, now.Year(), int(now.Month()))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := client.UploadAudio(ctx, key, audio); err != nil {
		log.Warnf("[AudioBackup] %v", err)
		return
	}
	log.Infof("[AudioBackup] archived recording %s -> s3://%s/%s", recording.UUID, client.config.BucketName, key)
}
