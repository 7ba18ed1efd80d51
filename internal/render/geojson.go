// Package render encodes styled datasets and legends for clients.
package render

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/symbology/internal/feature"
	"github.com/sells-group/symbology/internal/style"
)

// StyleProperty is the property key that carries each feature's paint.
const StyleProperty = "_style"

// StyledCollection builds a GeoJSON FeatureCollection in which every feature
// carries its paint under StyleProperty. A nil paint function leaves the
// properties untouched. Source features are never modified.
func StyledCollection(features []*feature.Feature, paint style.Func) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(features)),
	}
	for _, f := range features {
		props := make(map[string]interface{}, len(f.Properties)+1)
		for k, v := range f.Properties {
			props[k] = v
		}
		if paint != nil {
			props[StyleProperty] = paint(f)
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         f.ID,
			Geometry:   f.Geometry,
			Properties: props,
		})
	}
	return fc
}

// EncodeGeoJSON returns the styled collection as JSON bytes.
func EncodeGeoJSON(features []*feature.Feature, paint style.Func) ([]byte, error) {
	data, err := json.Marshal(StyledCollection(features, paint))
	if err != nil {
		return nil, eris.Wrap(err, "render: encode geojson")
	}
	return data, nil
}

// WriteGeoJSON writes the styled collection to w.
func WriteGeoJSON(w io.Writer, features []*feature.Feature, paint style.Func) error {
	data, err := EncodeGeoJSON(features, paint)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "render: write geojson")
	}
	return nil
}
