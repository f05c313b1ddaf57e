package ml

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/pkg/errors"
)

const artifactExt = ".json"

// StorageMetadata describes a stored artifact file
type StorageMetadata struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	Checksum     string    `json:"checksum"`
	ContentType  string    `json:"content_type"`
	LastModified time.Time `json:"last_modified"`
}

// LocalModelStorage keeps model artifacts as JSON files under basePath.
// A key such as "weight_prediction/weight" maps to
// basePath/weight_prediction/weight.json.
type LocalModelStorage struct {
	logger   *logrus.Logger
	basePath string
}

// NewLocalModelStorage creates a new local model storage
func NewLocalModelStorage(basePath string, logger *logrus.Logger) (*LocalModelStorage, error) {
	if basePath == "" {
		return nil, errors.NewConfigurationError(errors.CodeInvalidConfig, "model storage path is required")
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeStorageError, "failed to create storage directory")
	}

	if logger == nil {
		logger = logrus.New()
	}

	return &LocalModelStorage{
		logger:   logger,
		basePath: basePath,
	}, nil
}

// Save writes data under key, replacing any previous artifact
func (lms *LocalModelStorage) Save(ctx context.Context, key string, data []byte) error {
	path, err := lms.artifactPath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to create artifact directory")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to write artifact")
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to store artifact")
	}

	lms.logger.WithFields(logrus.Fields{
		"key":  key,
		"path": path,
	}).Debug("Stored model artifact")

	return nil
}

// Load reads the artifact stored under key
func (lms *LocalModelStorage) Load(ctx context.Context, key string) ([]byte, error) {
	path, err := lms.artifactPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NewNotFoundError(errors.CodeNoData, "artifact not found").WithContext("key", key)
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "failed to open artifact")
	}

	return data, nil
}

// Delete removes the artifact and any directories left empty
func (lms *LocalModelStorage) Delete(ctx context.Context, key string) error {
	path, err := lms.artifactPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError(errors.CodeNoData, "artifact not found").WithContext("key", key)
		}
		return errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeWriteFailed, "failed to delete artifact")
	}

	dir := filepath.Dir(path)
	for dir != lms.basePath {
		if err := os.Remove(dir); err != nil {
			break // Directory not empty or other error
		}
		dir = filepath.Dir(dir)
	}

	lms.logger.WithField("key", key).Info("Deleted model artifact")
	return nil
}

// Exists checks if an artifact exists
func (lms *LocalModelStorage) Exists(ctx context.Context, key string) (bool, error) {
	path, err := lms.artifactPath(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// List returns every stored artifact key, sorted
func (lms *LocalModelStorage) List(ctx context.Context) ([]string, error) {
	var keys []string

	err := filepath.WalkDir(lms.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, artifactExt) {
			return nil
		}

		rel, err := filepath.Rel(lms.basePath, path)
		if err != nil {
			return err
		}
		keys = append(keys, strings.TrimSuffix(filepath.ToSlash(rel), artifactExt))
		return nil
	})
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "failed to list artifacts")
	}

	sort.Strings(keys)
	return keys, nil
}

// GetMetadata returns metadata about a stored artifact
func (lms *LocalModelStorage) GetMetadata(ctx context.Context, key string) (*StorageMetadata, error) {
	path, err := lms.artifactPath(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, errors.NewNotFoundError(errors.CodeNoData, "artifact not found").WithContext("key", key)
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "failed to get file info")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "failed to open file for checksum")
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage, errors.CodeReadFailed, "failed to calculate checksum")
	}

	return &StorageMetadata{
		Key:          key,
		Size:         info.Size(),
		Checksum:     fmt.Sprintf("%x", hash.Sum(nil)),
		ContentType:  "application/json",
		LastModified: info.ModTime(),
	}, nil
}

// artifactPath maps key onto a file below basePath, rejecting escapes
func (lms *LocalModelStorage) artifactPath(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return "", errors.NewValidationError(errors.CodeInvalidInput, "invalid artifact key").WithContext("key", key)
	}

	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return "", errors.NewValidationError(errors.CodeInvalidInput, "invalid artifact key").WithContext("key", key)
		}
	}

	return filepath.Join(lms.basePath, filepath.FromSlash(key)+artifactExt), nil
}
