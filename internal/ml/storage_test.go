package ml

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferloop/healthtrack/pkg/errors"
)

func newTestStorage(t *testing.T) (*LocalModelStorage, string) {
	t.Helper()

	dir := t.TempDir()
	storage, err := NewLocalModelStorage(filepath.Join(dir, "models"), nil)
	require.NoError(t, err)
	return storage, filepath.Join(dir, "models")
}

func TestNewLocalModelStorage(t *testing.T) {
	_, err := NewLocalModelStorage("", nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))

	_, base := newTestStorage(t)
	info, err := os.Stat(base)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSaveAndLoad(t *testing.T) {
	storage, base := newTestStorage(t)
	ctx := context.Background()

	payload := []byte(`{"name":"weight_prediction","metric":"weight"}`)
	require.NoError(t, storage.Save(ctx, "weight_prediction/weight", payload))

	_, err := os.Stat(filepath.Join(base, "weight_prediction", "weight.json"))
	require.NoError(t, err)

	loaded, err := storage.Load(ctx, "weight_prediction/weight")
	require.NoError(t, err)
	assert.Equal(t, payload, loaded)

	// overwrite
	require.NoError(t, storage.Save(ctx, "weight_prediction/weight", []byte(`{}`)))
	loaded, err = storage.Load(ctx, "weight_prediction/weight")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), loaded)
}

func TestLoadMissing(t *testing.T) {
	storage, _ := newTestStorage(t)

	_, err := storage.Load(context.Background(), "anomaly_detection/weight")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestRejectsEscapingKeys(t *testing.T) {
	storage, _ := newTestStorage(t)
	ctx := context.Background()

	for _, key := range []string{"", "/etc/passwd", "../outside", "a/../../b", `a\b`, "a//b"} {
		err := storage.Save(ctx, key, []byte("x"))
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation), key)
	}
}

func TestListExistsDelete(t *testing.T) {
	storage, base := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, "weight_prediction/weight", []byte("{}")))
	require.NoError(t, storage.Save(ctx, "anomaly_detection/body_fat", []byte("{}")))

	keys, err := storage.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"anomaly_detection/body_fat", "weight_prediction/weight"}, keys)

	ok, err := storage.Exists(ctx, "weight_prediction/weight")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, storage.Delete(ctx, "weight_prediction/weight"))

	ok, err = storage.Exists(ctx, "weight_prediction/weight")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = os.Stat(filepath.Join(base, "weight_prediction"))
	assert.True(t, os.IsNotExist(err))

	err = storage.Delete(ctx, "weight_prediction/weight")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestGetMetadata(t *testing.T) {
	storage, _ := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.Save(ctx, "weight_prediction/weight", []byte("hello")))

	meta, err := storage.GetMetadata(ctx, "weight_prediction/weight")
	require.NoError(t, err)
	assert.Equal(t, int64(5), meta.Size)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", meta.Checksum)
	assert.Equal(t, "application/json", meta.ContentType)
}
