package uploads

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore_SaveAndResolve(t *testing.T) {
	store := NewDiskStore(t.TempDir())
	convID := uuid.New()

	stored, err := store.Save(convID, File{
		Name:        "photo.png",
		ContentType: "image/png",
		Size:        4,
		Reader:      bytes.NewReader([]byte("data")),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.URL, "/uploads/"+convID.String()+"/"))
	assert.True(t, strings.HasSuffix(stored.URL, ".png"))
	assert.Equal(t, "image/png", stored.MIME)
	assert.Equal(t, "photo.png", stored.Name)
	assert.Equal(t, int64(4), stored.Size)

	parts := strings.Split(stored.URL, "/")
	path, err := store.Resolve(convID, parts[len(parts)-1])
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), content)
}

func TestDiskStore_RejectsOversizedDeclaredSize(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	_, err := store.Save(uuid.New(), File{
		Name:   "big.bin",
		Size:   MaxFileSize + 1,
		Reader: bytes.NewReader(nil),
	})
	assert.True(t, errors.Is(err, ErrFileTooLarge))
}

func TestDiskStore_ResolveRejectsTraversal(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	_, err := store.Resolve(uuid.New(), "../../etc/passwd")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDiskStore_ResolveMissingFile(t *testing.T) {
	store := NewDiskStore(t.TempDir())

	_, err := store.Resolve(uuid.New(), "nope.png")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestIsImageMIME(t *testing.T) {
	assert.True(t, IsImageMIME("image/jpeg"))
	assert.True(t, IsImageMIME("IMAGE/PNG"))
	assert.False(t, IsImageMIME("application/pdf"))
	assert.False(t, IsImageMIME(""))
}
