// Package workspace holds the loaded datasets and applies styles to them.
package workspace

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/symbology/internal/feature"
	"github.com/sells-group/symbology/internal/source"
	"github.com/sells-group/symbology/internal/style"
)

// ErrUnknownDataset is returned for a dataset ID that is not loaded.
var ErrUnknownDataset = eris.New("workspace: unknown dataset")

// Layer is one loaded dataset and its active style.
type Layer struct {
	ID         string
	Title      string
	Collection *feature.Collection

	active atomic.Pointer[activeStyle]
	// commitMu orders style commits so the active style and the recorded
	// entry always come from the same apply.
	commitMu sync.Mutex
}

type activeStyle struct {
	bundle  style.Bundle
	version string
}

// Style returns the active bundle and its version. ok is false until a style
// has been applied.
func (l *Layer) Style() (b style.Bundle, version string, ok bool) {
	a := l.active.Load()
	if a == nil {
		return style.Bundle{}, "", false
	}
	return a.bundle, a.version, true
}

// setStyle swaps in b under a fresh version and returns that version.
func (l *Layer) setStyle(b style.Bundle) string {
	v := uuid.NewString()
	l.active.Store(&activeStyle{bundle: b, version: v})
	return v
}

// commit makes b the active style and runs record with its version before any
// other commit on the layer can start.
func (l *Layer) commit(b style.Bundle, record func(version string)) string {
	l.commitMu.Lock()
	defer l.commitMu.Unlock()

	v := l.setStyle(b)
	record(v)
	return v
}

// Workspace is the set of loaded layers. It is safe for concurrent use.
type Workspace struct {
	mu     sync.RWMutex
	layers map[string]*Layer
}

// New creates an empty workspace.
func New() *Workspace {
	return &Workspace{layers: make(map[string]*Layer)}
}

// Add registers a collection under id, replacing any layer with the same id.
func (w *Workspace) Add(id, title string, c *feature.Collection) *Layer {
	if title == "" {
		title = id
	}
	l := &Layer{ID: id, Title: title, Collection: c}

	w.mu.Lock()
	w.layers[id] = l
	w.mu.Unlock()
	return l
}

// Layer returns the layer registered under id.
func (w *Workspace) Layer(id string) (*Layer, error) {
	w.mu.RLock()
	l, ok := w.layers[id]
	w.mu.RUnlock()
	if !ok {
		return nil, eris.Wrapf(ErrUnknownDataset, "%q", id)
	}
	return l, nil
}

// Layers returns every layer sorted by ID.
func (w *Workspace) Layers() []*Layer {
	w.mu.RLock()
	out := make([]*Layer, 0, len(w.layers))
	for _, l := range w.layers {
		out = append(out, l)
	}
	w.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Load reads every spec concurrently into a new workspace. The first failure
// cancels the remaining loads.
func Load(ctx context.Context, specs []source.Spec, opts source.Options, concurrency int) (*Workspace, error) {
	ws := New()
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if s.ID == "" {
			return nil, eris.New("workspace: dataset without id")
		}
		if seen[s.ID] {
			return nil, eris.Errorf("workspace: duplicate dataset id %q", s.ID)
		}
		seen[s.ID] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for _, s := range specs {
		g.Go(func() error {
			c, err := source.Load(gctx, s, opts)
			if err != nil {
				return err
			}
			ws.Add(s.ID, s.Title, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("workspace loaded",
		zap.String("component", "workspace"),
		zap.Int("datasets", len(specs)),
	)
	return ws, nil
}
