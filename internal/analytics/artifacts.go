package analytics

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/inferloop/healthtrack/pkg/interfaces"
	"github.com/inferloop/healthtrack/pkg/models"
)

// ArtifactKey builds the store key for a fitted model of the given kind
func ArtifactKey(name string, metric models.Metric) string {
	return name + "/" + string(metric)
}

// saveArtifact writes artifact to store. Failures are logged and swallowed.
func saveArtifact(ctx context.Context, store interfaces.ArtifactStore, logger *logrus.Logger, artifact *models.ModelArtifact) {
	if store == nil || artifact == nil {
		return
	}

	key := ArtifactKey(artifact.Name, artifact.Metric)

	data, err := json.Marshal(artifact)
	if err != nil {
		logger.WithError(err).WithField("key", key).Warn("Failed to encode model artifact")
		return
	}

	if err := store.Save(ctx, key, data); err != nil {
		logger.WithError(err).WithField("key", key).Warn("Failed to save model artifact")
		return
	}

	logger.WithFields(logrus.Fields{
		"key":   key,
		"bytes": len(data),
	}).Debug("Saved model artifact")
}
