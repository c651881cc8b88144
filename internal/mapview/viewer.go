// Package mapview owns the single visible map surface of a session.
package mapview

import (
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"mapchat/internal/storage"
	"mapchat/pkg/logger"
)

const (
	ContentType = "text/html"

	// Sandbox is the iframe sandbox applied to every surface. Scripts may
	// run but the document gets an opaque origin and cannot reach the host.
	Sandbox = "allow-scripts"

	Placeholder = "Generated maps will appear here"
)

// Surface is the live rendering handle for one map document.
type Surface struct {
	ID        string    `json:"id"`
	Locator   string    `json:"locator"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Embed returns the isolated iframe markup for the surface.
func (s *Surface) Embed() string {
	return fmt.Sprintf(`<iframe src="%s" sandbox="%s" referrerpolicy="no-referrer" style="width:100%%;height:100%%;border:0"></iframe>`,
		html.EscapeString(s.URL), Sandbox)
}

// PlaceholderMarkup is shown when no surface is visible.
func PlaceholderMarkup() string {
	return `<p class="initial-message">` + Placeholder + `</p>`
}

// Viewer keeps at most one visible surface. Replacing or clearing a
// surface releases its backing blob.
type Viewer struct {
	store     storage.BlobStore
	urlPrefix string

	mu      sync.Mutex
	current *Surface
}

// NewViewer serves surfaces from store. urlPrefix + surface id is the URL
// the page loads the document from; an empty prefix uses the store locator.
func NewViewer(store storage.BlobStore, urlPrefix string) *Viewer {
	return &Viewer{store: store, urlPrefix: urlPrefix}
}

// ShowMap builds a new surface from mapHTML, makes it visible and releases
// the previous one.
func (v *Viewer) ShowMap(mapHTML string) (*Surface, error) {
	blob, err := v.store.Put(ContentType, []byte(mapHTML))
	if err != nil {
		return nil, fmt.Errorf("create map surface: %w", err)
	}

	surface := &Surface{
		ID:        blob.ID,
		Locator:   blob.Locator,
		URL:       blob.Locator,
		CreatedAt: blob.CreatedAt,
	}
	if v.urlPrefix != "" {
		surface.URL = v.urlPrefix + blob.ID
	}

	v.mu.Lock()
	previous := v.current
	v.current = surface
	v.mu.Unlock()

	if previous != nil {
		v.release(previous)
	}

	logger.WithFields(logrus.Fields{"surface": surface.ID, "bytes": len(mapHTML)}).Debug("map surface shown")
	return surface, nil
}

// Clear removes the visible surface, if any, leaving the placeholder.
func (v *Viewer) Clear() {
	v.mu.Lock()
	previous := v.current
	v.current = nil
	v.mu.Unlock()

	if previous != nil {
		v.release(previous)
	}
}

// Current returns the visible surface, or nil while the placeholder shows.
func (v *Viewer) Current() *Surface {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.current == nil {
		return nil
	}
	s := *v.current
	return &s
}

// Document returns the map document behind surface id. Only the visible
// surface resolves; released surfaces report storage.ErrBlobNotFound.
func (v *Viewer) Document(id string) ([]byte, error) {
	v.mu.Lock()
	visible := v.current != nil && v.current.ID == id
	v.mu.Unlock()

	if !visible {
		return nil, storage.ErrBlobNotFound
	}

	blob, err := v.store.Get(id)
	if err != nil {
		return nil, err
	}
	return blob.Data, nil
}

func (v *Viewer) release(s *Surface) {
	if err := v.store.Release(s.ID); err != nil {
		logger.Warnf("release map surface %s: %v", s.ID, err)
		return
	}
	logger.Debugf("map surface %s released", s.ID)
}
