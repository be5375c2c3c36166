package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir(), "/api/uploads")
	require.NoError(t, err)

	key, err := store.Put(ctx, "../../etc/cat.png", strings.NewReader("meow"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, "_cat.png"), key)
	assert.NotContains(t, key, "/")

	url := store.URL(key)
	assert.Equal(t, "/api/uploads/"+key, url)

	back, ok := store.KeyFromURL(url)
	require.True(t, ok)
	assert.Equal(t, key, back)

	_, ok = store.KeyFromURL("https://cdn.example/x.png")
	assert.False(t, ok)

	f, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "meow", string(data))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, key), ErrNotFound)
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/api/uploads/")
	require.NoError(t, err)

	for _, key := range []string{"", ".", "..", "../secret", "a/b"} {
		_, err := store.Open(context.Background(), key)
		assert.ErrorIs(t, err, ErrNotFound, key)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"photo.jpg":           "photo.jpg",
		"dir/photo.jpg":       "photo.jpg",
		`C:\Users\me\pic.png`: "pic.png",
		"my photo.png":        "myphoto.png",
		"":                    "unnamed",
		"..":                  "unnamed",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeName(in), in)
	}
}
