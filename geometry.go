package census

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// tigerLayer locates a geography level inside the TIGERweb generalized
// boundary services.
type tigerLayer struct {
	service string
	layer   int
}

var tigerLayers = map[Geography]tigerLayer{
	State:      {"State_County", 0},
	County:     {"State_County", 1},
	Tract:      {"Tracts_Blocks", 0},
	BlockGroup: {"Tracts_Blocks", 1},
}

// GEOIDs per where-clause, bounding the request URL length.
const tigerBatchSize = 50

// attachGeometry fetches boundary shapes for every distinct region in
// records and joins them by GEOID. Batches run sequentially.
func (c *Client) attachGeometry(ctx context.Context, g Geography, records []EstimateRecord) error {
	tl, ok := tigerLayers[g]
	if !ok {
		return &GeometryUnavailableError{Geography: g}
	}

	var ids []string
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.GeoID]; dup {
			continue
		}
		seen[rec.GeoID] = struct{}{}
		ids = append(ids, rec.GeoID)
	}

	url := fmt.Sprintf("%s/%s/MapServer/%d/query", c.tigerURL, tl.service, tl.layer)
	geoms := make(map[string]*geojson.Geometry, len(ids))

	for chunk := range slices.Chunk(ids, tigerBatchSize) {
		quoted := make([]string, len(chunk))
		for i, id := range chunk {
			quoted[i] = "'" + id + "'"
		}
		params := map[string]string{
			"where":          fmt.Sprintf("GEOID IN (%s)", strings.Join(quoted, ",")),
			"outFields":      "GEOID",
			"returnGeometry": "true",
			"f":              "geojson",
		}

		resp, err := c.get(ctx, url, params, endpointTiger)
		if err != nil {
			return err
		}
		if sc := resp.StatusCode(); sc != http.StatusOK {
			resp.Close()
			return &NetworkError{URL: url, Err: fmt.Errorf("unexpected status %d", sc)}
		}

		fc, err := geojson.UnmarshalFeatureCollection(resp.Body())
		resp.Close()
		if err != nil {
			return &NetworkError{URL: url, Err: fmt.Errorf("decoding boundary response: %w", err)}
		}

		for _, f := range fc.Features {
			id, _ := f.Properties["GEOID"].(string)
			if id == "" || f.Geometry == nil {
				continue
			}
			geoms[id] = geojson.NewGeometry(f.Geometry)
		}
	}

	for i := range records {
		records[i].Geometry = geoms[records[i].GeoID]
	}
	return nil
}
