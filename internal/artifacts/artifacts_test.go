package artifacts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scan-io-git/vulnsmith/pkg/shared/config"
)

func TestArchiveName(t *testing.T) {
	ts := time.Date(2026, 2, 10, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "vulnsmith/2026-02-10/run-1", ArchiveName("run-1", ts))
}

func TestNewUploaderRequiresBucket(t *testing.T) {
	_, err := NewUploader(nil, &config.Config{})
	assert.Error(t, err)
}
