package codeql

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v2"
)

const databaseMetadataFile = "codeql-database.yml"

// DatabaseInfo holds the metadata CodeQL writes next to an extracted database.
type DatabaseInfo struct {
	SourceLocationPrefix string           `yaml:"sourceLocationPrefix"`
	PrimaryLanguage      string           `yaml:"primaryLanguage"`
	CreationMetadata     CreationMetadata `yaml:"creationMetadata"`
	Finalized            bool             `yaml:"finalised"`
}

// CreationMetadata is the nested creationMetadata mapping of the database
// metadata file.
type CreationMetadata struct {
	SHA          string `yaml:"sha"`
	CLIVersion   string `yaml:"cliVersion"`
	CreationTime string `yaml:"creationTime"`
}

// DatabaseExists reports whether path holds a finished CodeQL database. The
// metadata file only appears once extraction completed, so a half-built
// database does not count.
func DatabaseExists(path string) bool {
	info, err := os.Stat(filepath.Join(path, databaseMetadataFile))
	return err == nil && !info.IsDir()
}

// ReadDatabaseInfo parses the database metadata file.
func ReadDatabaseInfo(path string) (*DatabaseInfo, error) {
	data, err := os.ReadFile(filepath.Join(path, databaseMetadataFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read database metadata: %w", err)
	}

	var info DatabaseInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse database metadata: %w", err)
	}
	return &info, nil
}

// databaseMatches reports whether an existing database at path was extracted
// for the given language and can serve a new scan. Unreadable metadata means
// the database cannot be trusted and must be rebuilt.
func databaseMatches(path, language string, logger hclog.Logger) bool {
	info, err := ReadDatabaseInfo(path)
	if err != nil {
		logger.Warn("existing database metadata is unreadable, rebuilding", "path", path, "error", err)
		return false
	}
	if info.PrimaryLanguage != language {
		logger.Warn("existing database was built for another language, rebuilding",
			"path", path, "database_language", info.PrimaryLanguage, "requested", language)
		return false
	}
	return true
}

// DatabaseFolderName derives a stable per-project folder name for a CodeQL
// database. The hash suffix keeps projects with the same basename apart.
func DatabaseFolderName(targetPath, language string) string {
	abs, err := filepath.Abs(targetPath)
	if err != nil {
		abs = filepath.Clean(targetPath)
	}
	sum := md5.Sum([]byte(abs))
	return fmt.Sprintf("%s_%s_%s", filepath.Base(abs), language, hex.EncodeToString(sum[:])[:8])
}
