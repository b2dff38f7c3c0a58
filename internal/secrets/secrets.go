// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: ncbi-api-key, pubmed-email, minio-access-key, minio-secret-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// DefaultDir is where the CLI looks for secret files.
const DefaultDir = ".secrets/"

// settings maps secret file names to the configuration keys they supply.
var settings = map[string]string{
	"ncbi-api-key":     "NCBI_API_KEY",
	"pubmed-email":     "PUBMED_EMAIL",
	"minio-access-key": "MINIO_ACCESS_KEY",
	"minio-secret-key": "MINIO_SECRET_KEY",
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string, log *zap.Logger) (map[string]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply registers known secrets as defaults on v, so environment variables
// and config file entries still take precedence. It returns the
// configuration keys that were supplied, sorted.
func Apply(v *viper.Viper, secrets map[string]string) []string {
	var applied []string
	for name, value := range secrets {
		key, ok := settings[name]
		if !ok {
			continue
		}
		v.SetDefault(key, value)
		applied = append(applied, key)
	}
	sort.Strings(applied)
	return applied
}
