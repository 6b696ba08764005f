package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/vulnsmith/internal/analysis"
	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
)

// ArchiveName builds the S3 key prefix for one run.
// Example: vulnsmith/2026-02-10/run-id/.
func ArchiveName(runID string, t time.Time) string {
	return filepath.Join("vulnsmith", t.UTC().Format("2006-01-02"), runID)
}

// Uploader archives run artifacts to S3.
type Uploader struct {
	uploader *s3manager.Uploader
	logger   hclog.Logger
	bucket   string
}

// NewUploader builds an S3 uploader from the s3 configuration section.
// Credentials come from the usual AWS environment or profile.
func NewUploader(logger hclog.Logger, cfg *config.Config) (*Uploader, error) {
	if cfg == nil || cfg.S3.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is not configured")
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	awsConfig := &aws.Config{}
	if cfg.S3.Region != "" {
		awsConfig.Region = aws.String(cfg.S3.Region)
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return &Uploader{
		uploader: s3manager.NewUploader(sess),
		logger:   logger,
		bucket:   cfg.S3.Bucket,
	}, nil
}

// UploadFile uploads one file under the run's archive prefix and returns the
// object location.
func (u *Uploader) UploadFile(runID, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer file.Close()

	key := filepath.Join(ArchiveName(runID, time.Now()), filepath.Base(path))
	result, err := u.uploader.Upload(&s3manager.UploadInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %q to s3: %w", path, err)
	}

	u.logger.Info("artifact uploaded", "bucket", u.bucket, "key", key)
	return result.Location, nil
}

// ArchiveRun uploads the run file and the raw scanner report.
func (u *Uploader) ArchiveRun(cfg *config.Config, run *analysis.Run) error {
	targets := []string{filepath.Join(analysis.RunFolder(cfg, run.ID), "run.json")}
	if run.ReportPath != "" {
		if _, err := os.Stat(run.ReportPath); err == nil {
			targets = append(targets, run.ReportPath)
		}
	}

	for _, path := range targets {
		if _, err := u.UploadFile(run.ID, path); err != nil {
			return err
		}
	}
	return nil
}
