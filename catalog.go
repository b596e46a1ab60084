package census

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"census/cache"
)

// Survey identifies a published survey program.
type Survey string

const (
	ACS1      Survey = "acs1"
	ACS3      Survey = "acs3"
	ACS5      Survey = "acs5"
	Decennial Survey = "dec"
)

// datasetPath maps a (year, survey) pair onto the API's dataset path. The
// decennial census moved from Summary File 1 to the PL 94-171 redistricting
// file with the 2020 count.
func datasetPath(year int, survey Survey) (string, error) {
	switch survey {
	case ACS1:
		return "acs/acs1", nil
	case ACS3:
		return "acs/acs3", nil
	case ACS5:
		return "acs/acs5", nil
	case Decennial:
		if year >= 2020 {
			return "dec/pl", nil
		}
		return "dec/sf1", nil
	default:
		return "", &InvalidSurveyError{Year: year, Survey: survey}
	}
}

// VariableDescriptor describes one statistical variable in a dataset.
// Labels carry "!!" hierarchy markers, e.g.
// "Estimate!!Total!!Population of one race".
type VariableDescriptor struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Concept string `json:"concept"`
	Group   string `json:"group,omitempty"`
}

// CatalogConfig tunes a single Variables call.
type CatalogConfig struct {
	// UseCache serves the catalog from the configured cache backend when
	// present, fetching and storing it otherwise. Without a backend on the
	// client the flag is a no-op.
	UseCache bool
}

// Pseudo-variables the catalog endpoint lists alongside real ones.
var catalogMetaIDs = map[string]struct{}{
	"for":   {},
	"in":    {},
	"ucgid": {},
}

// Variables returns the variable catalog for a (year, survey) pair, sorted
// by identifier so the sequence is deterministic across calls.
func (c *Client) Variables(ctx context.Context, year int, survey Survey, cfg ...CatalogConfig) ([]VariableDescriptor, error) {
	var conf CatalogConfig
	if len(cfg) > 0 {
		conf = cfg[0]
	}

	path, err := datasetPath(year, survey)
	if err != nil {
		return nil, err
	}

	useCache := conf.UseCache && c.cache != nil
	key := cache.Key(string(survey), year)

	if useCache {
		if vars, ok := c.cachedCatalog(key); ok {
			return vars, nil
		}
	}

	url := fmt.Sprintf("%s/%d/%s/variables.json", c.baseURL, year, path)
	resp, err := c.get(ctx, url, nil, endpointCatalog)
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	switch sc := resp.StatusCode(); {
	case sc == http.StatusOK:
	case sc == http.StatusNotFound:
		return nil, &InvalidSurveyError{Year: year, Survey: survey}
	default:
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("unexpected status %d", sc)}
	}

	var payload struct {
		Variables map[string]struct {
			Label   string `json:"label"`
			Concept string `json:"concept"`
			Group   string `json:"group"`
		} `json:"variables"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("decoding catalog: %w", err)}
	}

	vars := make([]VariableDescriptor, 0, len(payload.Variables))
	for id, v := range payload.Variables {
		if _, meta := catalogMetaIDs[id]; meta {
			continue
		}
		vars = append(vars, VariableDescriptor{
			ID:      id,
			Label:   v.Label,
			Concept: v.Concept,
			Group:   v.Group,
		})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].ID < vars[j].ID })

	if useCache {
		c.storeCatalog(key, vars)
	}
	return vars, nil
}

// cachedCatalog returns the cached sequence for key. A backend error or a
// corrupt entry counts as a miss; the caller refetches and overwrites it.
func (c *Client) cachedCatalog(key string) ([]VariableDescriptor, bool) {
	raw, err := c.cache.Get(key)
	if err != nil {
		c.log.Warn("catalog cache read failed", "key", key, "error", err)
	}
	if err == nil && raw != nil {
		var vars []VariableDescriptor
		if err := json.Unmarshal(raw, &vars); err == nil {
			c.metrics.observeCache("hit")
			return vars, true
		}
		c.log.Warn("catalog cache entry corrupt, refetching", "key", key)
	}
	c.metrics.observeCache("miss")
	return nil, false
}

// storeCatalog writes the fetched sequence back to the cache. Failures are
// logged and otherwise ignored: the caller already has the data.
func (c *Client) storeCatalog(key string, vars []VariableDescriptor) {
	raw, err := json.Marshal(vars)
	if err != nil {
		return
	}
	if err := c.cache.Set(key, raw, c.cacheTTL); err != nil {
		c.log.Warn("catalog cache write failed", "key", key, "error", err)
	}
}
