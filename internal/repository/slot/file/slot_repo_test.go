package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	repo "bucketList/internal/repository"
	"bucketList/internal/repository/slot/file"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStorage_New тестирует создание слота
func TestStorage_New(t *testing.T) {
	fs := afero.NewMemMapFs()

	storage, err := file.New(fs, "/data/bucket/items.json")
	require.NoError(t, err)
	assert.NotNil(t, storage)

	exists, err := afero.DirExists(fs, "/data/bucket")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = file.New(fs, "")
	assert.Error(t, err)
}

// TestStorage_ReadMissing тестирует отсутствие файла
func TestStorage_ReadMissing(t *testing.T) {
	storage, err := file.New(afero.NewMemMapFs(), "/items.json")
	require.NoError(t, err)

	value, err := storage.Read(context.Background())
	assert.ErrorIs(t, err, repo.ErrSlotEmpty)
	assert.Nil(t, value)
}

// TestStorage_WriteRead тестирует перезапись и отсутствие временных файлов
func TestStorage_WriteRead(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	storage, err := file.New(fs, "/data/items.json")
	require.NoError(t, err)

	require.NoError(t, storage.Write(ctx, []byte(`[{"id":"1"}]`)))
	require.NoError(t, storage.Write(ctx, []byte(`[]`)))

	value, err := storage.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(value))

	entries, err := afero.ReadDir(fs, "/data")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "items.json", entries[0].Name())
}

// TestStorage_OsFs тестирует запись на настоящий диск
func TestStorage_OsFs(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "items.json")

	storage, err := file.New(nil, path)
	require.NoError(t, err)
	require.NoError(t, storage.HealthCheck(ctx))
	require.NoError(t, storage.Write(ctx, []byte(`[]`)))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

// TestStorage_ReadOnlyFs тестирует ошибку записи
func TestStorage_ReadOnlyFs(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/data", 0o755))

	storage, err := file.New(afero.NewReadOnlyFs(base), "/data/items.json")
	require.NoError(t, err)

	err = storage.Write(context.Background(), []byte(`[]`))
	assert.Error(t, err)
}

// TestStorage_Close тестирует закрытый слот
func TestStorage_Close(t *testing.T) {
	ctx := context.Background()
	storage, err := file.New(afero.NewMemMapFs(), "/items.json")
	require.NoError(t, err)
	require.NoError(t, storage.Close())

	assert.ErrorIs(t, storage.Write(ctx, []byte(`[]`)), repo.ErrSlotClosed)
	_, err = storage.Read(ctx)
	assert.ErrorIs(t, err, repo.ErrSlotClosed)
	assert.ErrorIs(t, storage.HealthCheck(ctx), repo.ErrSlotClosed)
}
