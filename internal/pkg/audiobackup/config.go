package audiobackup

import (
	"errors"
	"fmt"

	"github.com/spectrahq/ghosthunter/internal/pkg/env"
)

// Config holds S3 audio archival configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("AUDIO_BACKUP_ENABLED", "false") == "true",
	}

	// Validate required fields if audio backup is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when audio backup is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when audio backup is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when audio backup is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if audio backup is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// GetObjectKey generates a standardized S3 object key for a recording
func (c *Config) GetObjectKey(sessionUUID, recordingUUID string, year, month int) string {
	// Format: recordings/YYYY/MM/session/UUID.m4a
	return fmt.Sprintf("recordings/%04d/%02d/%s/%s.m4a", year, month, sessionUUID, recordingUUID)
}
