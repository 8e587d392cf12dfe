// ABOUTME: Object-storage archive for completed analysis reports.
// ABOUTME: Uploads report JSON to a MinIO/S3 bucket keyed by network, address, and fingerprint.

package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/tbraun92/contract-sentinel/internal/types"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// Config for the report archive bucket.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store archives completed reports in an S3-compatible bucket. It satisfies
// the engine's ReportArchiver interface.
type Store struct {
	client *minio.Client
	bucket string
	logger *logrus.Logger
}

func NewStore(cfg Config, logger *logrus.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	return &Store{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// Store uploads one report as JSON under <network>/<address>/<fingerprint>.json.
func (s *Store) Store(ctx context.Context, fingerprint string, report *types.AnalysisReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	key := fmt.Sprintf("%s/%s/%s.json", report.Network, report.ContractAddress, fingerprint)

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload report %s: %w", key, err)
	}

	s.logger.WithFields(logrus.Fields{
		"bucket": s.bucket,
		"key":    key,
		"bytes":  len(body),
	}).Debug("Archived analysis report")

	return nil
}
