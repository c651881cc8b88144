package mapview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapchat/internal/storage"
)

func TestViewer_ReplaceReleasesPrevious(t *testing.T) {
	store := storage.NewMemoryStorage()
	v := NewViewer(store, "/maps/")

	first, err := v.ShowMap("<html>X</html>")
	require.NoError(t, err)
	second, err := v.ShowMap("<html>Y</html>")
	require.NoError(t, err)

	assert.Equal(t, 1, store.Len(), "exactly one backing resource alive")

	current := v.Current()
	require.NotNil(t, current)
	assert.Equal(t, second.ID, current.ID)

	doc, err := v.Document(current.ID)
	require.NoError(t, err)
	assert.Equal(t, "<html>Y</html>", string(doc))

	_, err = store.Get(first.ID)
	assert.ErrorIs(t, err, storage.ErrBlobNotFound)
	_, err = v.Document(first.ID)
	assert.ErrorIs(t, err, storage.ErrBlobNotFound)
}

func TestViewer_Clear(t *testing.T) {
	store := storage.NewMemoryStorage()
	v := NewViewer(store, "/maps/")

	_, err := v.ShowMap("<html>X</html>")
	require.NoError(t, err)

	v.Clear()
	assert.Nil(t, v.Current())
	assert.Equal(t, 0, store.Len())

	// clearing an empty viewer is harmless
	v.Clear()
	assert.Nil(t, v.Current())
}

func TestViewer_URLs(t *testing.T) {
	store := storage.NewMemoryStorage()

	s, err := NewViewer(store, "/maps/").ShowMap("<html></html>")
	require.NoError(t, err)
	assert.Equal(t, "/maps/"+s.ID, s.URL)
	assert.Equal(t, "blob:"+s.ID, s.Locator)

	s, err = NewViewer(store, "").ShowMap("<html></html>")
	require.NoError(t, err)
	assert.Equal(t, s.Locator, s.URL)
}

func TestViewer_ManyUpdatesDoNotLeak(t *testing.T) {
	store := storage.NewDiskStorage(t.TempDir())
	require.NoError(t, store.Init())
	v := NewViewer(store, "")

	for i := 0; i < 20; i++ {
		_, err := v.ShowMap("<html>frame</html>")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.Len())

	v.Clear()
	assert.Equal(t, 0, store.Len())
}

func TestSurface_EmbedIsSandboxed(t *testing.T) {
	s := &Surface{ID: "abc", URL: `/maps/abc?x="1"`}
	embed := s.Embed()

	assert.Contains(t, embed, `sandbox="allow-scripts"`)
	assert.NotContains(t, embed, "allow-same-origin")
	assert.Contains(t, embed, `src="/maps/abc?x=&#34;1&#34;"`)
	assert.Contains(t, PlaceholderMarkup(), Placeholder)
}
