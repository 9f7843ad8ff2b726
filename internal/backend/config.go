package backend

import (
	"fmt"
	"time"

	"billed/internal/attachments"
	"billed/internal/config"
	gsheet "billed/internal/sheets/google"
)

// Config holds configuration for backend creation
type Config struct {
	Type         BackendType
	DataDir      string
	SQLiteDBPath string
	PostgresURL  string
	ListCacheTTL time.Duration

	Attachments   AttachmentType
	AttachmentDir string
	AttachmentURL string
	S3            attachments.S3Config

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Ledger is used only when SpreadsheetID is set.
	Ledger gsheet.Config
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Type:         BackendType(appConfig.DataBackend),
		DataDir:      appConfig.DataDir,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		PostgresURL:  appConfig.PostgresURL,
		ListCacheTTL: appConfig.ListCacheTTL,

		Attachments:   AttachmentType(appConfig.AttachmentBackend),
		AttachmentDir: appConfig.AttachmentDir,
		AttachmentURL: appConfig.AttachmentBaseURL,
		S3: attachments.S3Config{
			Bucket:          appConfig.S3Bucket,
			Endpoint:        appConfig.S3Endpoint,
			Region:          appConfig.S3Region,
			AccessKeyID:     appConfig.S3AccessKeyID,
			SecretAccessKey: appConfig.S3SecretAccessKey,
			PublicURL:       appConfig.S3PublicURL,
		},

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		Ledger: gsheet.Config{
			SpreadsheetID:   appConfig.GoogleSpreadsheetID,
			SheetName:       appConfig.GoogleSheetName,
			CredentialsJSON: appConfig.GoogleServiceAccountJSON,
			CredentialsFile: appConfig.GoogleServiceAccountFile,
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			return fmt.Errorf("Postgres URL is required for postgres backend")
		}
	}

	switch c.Attachments {
	case LocalAttachments:
		if c.AttachmentDir == "" {
			return fmt.Errorf("attachment directory is required for local attachments")
		}
	case S3Attachments:
		if c.S3.Bucket == "" || c.S3.PublicURL == "" {
			return fmt.Errorf("bucket and public URL are required for s3 attachments")
		}
	default:
		return fmt.Errorf("invalid attachment backend: %s", c.Attachments)
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend}
}
