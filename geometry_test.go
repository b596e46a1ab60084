package census

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const countyFeatures = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"GEOID": "34001"},
			"geometry": {
				"type": "Polygon",
				"coordinates": [[[-74.6, 39.2], [-74.3, 39.2], [-74.3, 39.6], [-74.6, 39.6], [-74.6, 39.2]]]
			}
		}
	]
}`

func TestEstimatesIncludeGeometry(t *testing.T) {
	data := &tableHandler{table: [][]any{
		{"NAME", "B04004_034E", "B04004_034M", "state", "county"},
		{"Atlantic County, New Jersey", "12000", "800", "34", "001"},
		{"Bergen County, New Jersey", "45000", "1500", "34", "003"},
	}}

	var tigerWhere string
	tiger := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/State_County/MapServer/1/query" {
			http.NotFound(w, r)
			return
		}
		tigerWhere = r.URL.Query().Get("where")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(countyFeatures))
	}))
	defer tiger.Close()

	c := newEstimatesClient(t, data, WithTIGERBaseURL(tiger.URL))

	req := njRequest()
	req.IncludeGeometry = true
	records, err := c.Estimates(context.Background(), req)
	if err != nil {
		t.Fatalf("Estimates() error = %v", err)
	}

	if !strings.Contains(tigerWhere, "'34001'") || !strings.Contains(tigerWhere, "'34003'") {
		t.Errorf("where clause %q missing requested GEOIDs", tigerWhere)
	}

	if records[0].Geometry == nil {
		t.Fatal("Atlantic record has no geometry")
	}
	if got := records[0].Geometry.Type; got != "Polygon" {
		t.Errorf("geometry type = %q, want Polygon", got)
	}
	// The boundary service returned nothing for Bergen; the record stays
	// geometry-less rather than failing the whole request.
	if records[1].Geometry != nil {
		t.Errorf("Bergen record unexpectedly has geometry")
	}
}

func TestEstimatesGeometryUnavailable(t *testing.T) {
	data := &tableHandler{table: [][]any{
		{"NAME", "B04004_034E", "B04004_034M", "state", "place"},
		{"Newark city, New Jersey", "12000", "800", "34", "51000"},
	}}
	c := newEstimatesClient(t, data)

	req := njRequest()
	req.Geography = Place
	req.IncludeGeometry = true
	_, err := c.Estimates(context.Background(), req)

	var geoErr *GeometryUnavailableError
	if !errors.As(err, &geoErr) {
		t.Fatalf("Estimates() error = %v, want *GeometryUnavailableError", err)
	}
	if geoErr.Geography != Place {
		t.Errorf("error geography = %q, want place", geoErr.Geography)
	}
}

func TestAttachGeometryBatches(t *testing.T) {
	var queries int
	tiger := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type": "FeatureCollection", "features": []}`))
	}))
	defer tiger.Close()

	c := New(WithKey("test"), WithTIGERBaseURL(tiger.URL))

	records := make([]EstimateRecord, 0, tigerBatchSize+1)
	for i := range tigerBatchSize + 1 {
		records = append(records, EstimateRecord{GeoID: "34" + string(rune('A'+i%26)) + string(rune('A'+i/26))})
	}
	if err := c.attachGeometry(context.Background(), County, records); err != nil {
		t.Fatalf("attachGeometry() error = %v", err)
	}
	if queries != 2 {
		t.Errorf("got %d boundary queries, want 2 for %d regions", queries, tigerBatchSize+1)
	}
}
