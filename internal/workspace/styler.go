package workspace

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/sells-group/symbology/internal/classify"
	"github.com/sells-group/symbology/internal/feature"
	"github.com/sells-group/symbology/internal/palette"
	"github.com/sells-group/symbology/internal/render"
	"github.com/sells-group/symbology/internal/style"
)

// Defaults are the parameters used when a request or the cache leaves them unset.
type Defaults struct {
	ClassCount  int
	MaxClasses  int
	Method      classify.Method
	Family      string
	SchemeIndex int
	Options     style.Options
	Locale      language.Tag
}

// DefaultDefaults returns the built-in styling defaults.
func DefaultDefaults() Defaults {
	return Defaults{
		ClassCount:  5,
		MaxClasses:  10,
		Method:      classify.EqualInterval,
		Family:      palette.Sequential,
		SchemeIndex: 0,
		Options:     style.DefaultOptions(),
		Locale:      language.Und,
	}
}

// ApplyRequest asks for a dataset to be classified on a field and styled.
// Zero values take the styler defaults. Colors, when present, replace the
// palette lookup and must hold one color per class.
type ApplyRequest struct {
	DatasetID   string          `json:"dataset_id"`
	Field       string          `json:"field"`
	ClassCount  int             `json:"class_count,omitempty"`
	Method      classify.Method `json:"method,omitempty"`
	Family      string          `json:"family,omitempty"`
	SchemeIndex int             `json:"scheme_index,omitempty"`
	Options     *style.Options  `json:"options,omitempty"`
	Colors      []string        `json:"colors,omitempty"`
}

// Result describes an applied style.
type Result struct {
	DatasetID       string          `json:"dataset_id"`
	Version         string          `json:"version"`
	Entry           style.Entry     `json:"entry"`
	Legend          style.Legend    `json:"legend"`
	Summary         feature.Summary `json:"summary"`
	PaletteFellBack bool            `json:"palette_fell_back"`
}

// Selection is what the styling controls show when a dataset is selected.
type Selection struct {
	DatasetID     string               `json:"dataset_id"`
	Title         string               `json:"title"`
	GeometryType  feature.GeometryType `json:"geometry_type"`
	FeatureCount  int                  `json:"feature_count"`
	NumericFields []string             `json:"numeric_fields"`
	Restored      bool                 `json:"restored"`
	Entry         style.Entry          `json:"entry"`
}

// Styler applies classification styles to workspace layers and records them
// in the style cache.
type Styler struct {
	ws       *Workspace
	palettes *palette.Registry
	styles   *style.Cache
	renders  *render.Cache
	defaults Defaults
}

// NewStyler creates a Styler. renders may be nil when no rendered output is cached.
func NewStyler(ws *Workspace, palettes *palette.Registry, styles *style.Cache, renders *render.Cache, defaults Defaults) *Styler {
	return &Styler{
		ws:       ws,
		palettes: palettes,
		styles:   styles,
		renders:  renders,
		defaults: defaults,
	}
}

// Workspace returns the layers the styler works on.
func (s *Styler) Workspace() *Workspace { return s.ws }

// Palettes returns the palette registry.
func (s *Styler) Palettes() *palette.Registry { return s.palettes }

// Defaults returns the styler defaults.
func (s *Styler) Defaults() Defaults { return s.defaults }

// Apply classifies the requested field, builds the style bundle and makes it
// the layer's active style. Nothing changes unless every step succeeds.
func (s *Styler) Apply(ctx context.Context, req ApplyRequest) (Result, error) {
	log := zap.L().With(
		zap.String("component", "styler"),
		zap.String("dataset", req.DatasetID),
	)

	if req.DatasetID == "" || req.Field == "" {
		return Result{}, style.ErrMissingSelection
	}
	if err := ctx.Err(); err != nil {
		return Result{}, eris.Wrap(err, "workspace: apply")
	}
	layer, err := s.ws.Layer(req.DatasetID)
	if err != nil {
		return Result{}, err
	}

	req = s.withDefaults(req)
	if req.ClassCount > s.defaults.MaxClasses {
		return Result{}, eris.Wrapf(classify.ErrInvalidClassCount, "%d exceeds the maximum of %d", req.ClassCount, s.defaults.MaxClasses)
	}

	values := feature.Values(layer.Collection.Features, req.Field)
	breaks, err := classify.Classify(values, req.ClassCount, req.Method)
	if err != nil {
		return Result{}, eris.Wrapf(err, "workspace: classify %s.%s", req.DatasetID, req.Field)
	}

	colors, fellBack, err := s.colors(req)
	if err != nil {
		return Result{}, err
	}
	if fellBack {
		log.Warn("unknown palette, using default scheme",
			zap.String("family", req.Family),
			zap.Int("scheme_index", req.SchemeIndex),
		)
	}

	gt := layer.Collection.GeometryType
	bundle, err := style.NewBundle(req.Field, breaks, colors, gt, *req.Options)
	if err != nil {
		return Result{}, err
	}

	entry := style.Entry{
		Field:        req.Field,
		ClassCount:   req.ClassCount,
		Method:       req.Method,
		Family:       req.Family,
		SchemeIndex:  req.SchemeIndex,
		Breaks:       bundle.Breaks(),
		Colors:       bundle.Colors(),
		Options:      bundle.Options(),
		GeometryType: gt,
	}

	version := layer.commit(bundle, func(string) {
		s.styles.Put(req.DatasetID, entry)
		if s.renders != nil {
			s.renders.Invalidate(req.DatasetID)
		}
	})

	log.Info("style applied",
		zap.String("field", req.Field),
		zap.String("method", string(req.Method)),
		zap.Int("classes", req.ClassCount),
		zap.String("geometry_type", string(gt)),
		zap.Int("values", len(values)),
		zap.String("version", version),
	)

	return Result{
		DatasetID:       req.DatasetID,
		Version:         version,
		Entry:           entry,
		Legend:          style.BuildLegend(bundle, s.defaults.Locale),
		Summary:         feature.Summarize(values),
		PaletteFellBack: fellBack,
	}, nil
}

func (s *Styler) withDefaults(req ApplyRequest) ApplyRequest {
	if req.ClassCount == 0 {
		req.ClassCount = s.defaults.ClassCount
	}
	if req.Method == "" {
		req.Method = s.defaults.Method
	}
	if req.Family == "" {
		req.Family = s.defaults.Family
		if req.SchemeIndex == 0 {
			req.SchemeIndex = s.defaults.SchemeIndex
		}
	}
	if req.Options == nil {
		opts := s.defaults.Options
		req.Options = &opts
	}
	return req
}

func (s *Styler) colors(req ApplyRequest) ([]string, bool, error) {
	if len(req.Colors) > 0 {
		if len(req.Colors) != req.ClassCount {
			return nil, false, eris.Wrapf(style.ErrColorMismatch, "%d colors for %d classes", len(req.Colors), req.ClassCount)
		}
		return append([]string(nil), req.Colors...), false, nil
	}
	return s.palettes.Colors(req.Family, req.SchemeIndex, req.ClassCount)
}

// Select returns the styling state of a dataset: its last applied entry when
// one is cached, otherwise the defaults with no field chosen.
func (s *Styler) Select(datasetID string) (Selection, error) {
	layer, err := s.ws.Layer(datasetID)
	if err != nil {
		return Selection{}, err
	}

	sel := Selection{
		DatasetID:     layer.ID,
		Title:         layer.Title,
		GeometryType:  layer.Collection.GeometryType,
		FeatureCount:  layer.Collection.Len(),
		NumericFields: feature.NumericFields(layer.Collection.Features),
	}
	if e, ok := s.styles.Get(datasetID); ok {
		sel.Restored = true
		sel.Entry = e
		return sel, nil
	}
	sel.Entry = style.Entry{
		ClassCount:   s.defaults.ClassCount,
		Method:       s.defaults.Method,
		Family:       s.defaults.Family,
		SchemeIndex:  s.defaults.SchemeIndex,
		Options:      s.defaults.Options,
		GeometryType: layer.Collection.GeometryType,
	}
	return sel, nil
}

// Legend returns the legend of the dataset's active style.
func (s *Styler) Legend(datasetID string) (style.Legend, error) {
	layer, err := s.ws.Layer(datasetID)
	if err != nil {
		return style.Legend{}, err
	}
	b, _, ok := layer.Style()
	if !ok {
		return style.Legend{}, eris.Wrapf(style.ErrMissingSelection, "dataset %q has no style", datasetID)
	}
	return style.BuildLegend(b, s.defaults.Locale), nil
}

// Render returns the dataset as styled GeoJSON, served from the render cache
// when the active style has not changed. hit reports a cache hit.
func (s *Styler) Render(datasetID string) (data []byte, hit bool, err error) {
	layer, err := s.ws.Layer(datasetID)
	if err != nil {
		return nil, false, err
	}

	var (
		paint   style.Func
		version = "unstyled"
	)
	if b, v, ok := layer.Style(); ok {
		paint = style.BuildStyleFunction(b)
		version = v
	}

	if s.renders != nil {
		if cached := s.renders.Get(datasetID, version); cached != nil {
			return cached, true, nil
		}
	}

	data, err = render.EncodeGeoJSON(layer.Collection.Features, paint)
	if err != nil {
		return nil, false, err
	}
	if s.renders != nil {
		s.renders.Put(datasetID, version, data)
	}
	return data, false, nil
}

// RenderStats reports the rendered output cache statistics.
func (s *Styler) RenderStats() render.CacheStats {
	if s.renders == nil {
		return render.CacheStats{}
	}
	return s.renders.Stats()
}

// StyledDatasets returns the IDs of every dataset with a cached style.
func (s *Styler) StyledDatasets() []string {
	return s.styles.IDs()
}
