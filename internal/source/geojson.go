package source

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/symbology/internal/feature"
)

func readGeoJSON(path string) ([]*feature.Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read %s", path)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "source: decode geojson %s", path)
	}

	features := make([]*feature.Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil {
			continue
		}
		id := f.ID
		if id == "" {
			id = indexID(i)
		}
		features = append(features, feature.New(id, f.Geometry, f.Properties))
	}
	return features, nil
}
