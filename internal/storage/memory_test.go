package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/healthtrack/pkg/errors"
	"github.com/inferloop/healthtrack/pkg/models"
)

func TestMemoryStoreProfiles(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	_, err := store.GetProfile(ctx, "u1")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	profile := &models.UserProfile{UserID: "u1", Height: models.Float(180)}
	store.PutProfile(profile)
	profile.Username = "mutated"

	got, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Username)
	assert.Equal(t, 180.0, *got.Height)
}

func TestMemoryStoreListRecords(t *testing.T) {
	store := NewMemoryStore(nil)
	ctx := context.Background()

	require.NoError(t, store.AddRecords(ctx, "u1", []models.MetricRecord{
		{Date: "2024-01-02", Weight: models.Float(71)},
		{Date: "2024-01-01", Weight: models.Float(70)},
		{Date: "2024-01-03", Weight: models.Float(72)},
	}))
	require.NoError(t, store.AddRecords(ctx, "u2", []models.MetricRecord{{Date: "2024-01-01", Weight: models.Float(90)}}))

	records, err := store.ListRecords(ctx, "u1", nil, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2024-01-03", records[0].Date)
	assert.Equal(t, "2024-01-01", records[2].Date)
	assert.NotZero(t, records[0].ID)
	assert.Equal(t, "u1", records[0].UserID)

	records, err = store.ListRecords(ctx, "u1", nil, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	records, err = store.ListRecords(ctx, "u1", &models.TimeRange{Start: start, End: start.AddDate(0, 0, 5)}, 0)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = store.ListRecords(ctx, "u1", &models.TimeRange{Start: start, End: start.AddDate(0, 0, -1)}, 0)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestMemoryStoreRejectsBadDates(t *testing.T) {
	store := NewMemoryStore(nil)

	err := store.AddRecords(context.Background(), "u1", []models.MetricRecord{
		{Date: "2024-01-01"},
		{Date: "not a date"},
	})
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))

	records, err := store.ListRecords(context.Background(), "u1", nil, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}
