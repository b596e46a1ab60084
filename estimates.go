package census

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// EstimatesRequest describes one estimates query. Variables are group-item
// identifiers without the column suffix (e.g. "B04004_034"); the client
// requests the estimate (E) and margin-of-error (M) columns for each.
type EstimatesRequest struct {
	Year      int
	Survey    Survey
	Geography Geography

	// Within narrows the query to regions under the named parents.
	Within RegionFilter

	// For lists specific region codes at the requested level. Empty means
	// every matching region.
	For []string

	Variables []string

	// Denominator is an optional summary variable. When set, each record
	// carries the denominator's estimate and margin of error as summary
	// fields plus the derived ratio.
	Denominator string

	// IncludeGeometry joins each record to its boundary geometry.
	IncludeGeometry bool
}

// EstimateRecord is one (region, variable) observation. Estimate and
// MarginOfError are NaN when the dataset suppressed the value (jam codes
// decode as missing). Summary fields and Ratio are nil unless a denominator
// was requested; Ratio stays nil whenever the denominator is zero or
// missing, so an undefined proportion is always flagged rather than
// defaulted.
type EstimateRecord struct {
	GeoID         string            `json:"geoid"`
	Name          string            `json:"name"`
	Variable      string            `json:"variable"`
	Estimate      float64           `json:"estimate"`
	MarginOfError float64           `json:"margin_of_error"`
	SummaryEst    *float64          `json:"summary_estimate,omitempty"`
	SummaryMOE    *float64          `json:"summary_margin_of_error,omitempty"`
	Ratio         *float64          `json:"ratio,omitempty"`
	Geometry      *geojson.Geometry `json:"geometry,omitempty"`
}

// HasRatio reports whether the derived proportion is defined for this record.
func (r EstimateRecord) HasRatio() bool { return r.Ratio != nil }

// ACS jam values mark suppressed or inapplicable cells. They decode as NaN,
// never as real magnitudes.
var jamValues = map[float64]struct{}{
	-222222222: {},
	-333333333: {},
	-555555555: {},
	-666666666: {},
	-888888888: {},
	-999999999: {},
}

// Estimates fetches one EstimateRecord per (matched region × requested
// variable), ordered by API row order then request variable order. Either
// the full result set is returned or an error; there is no partial success.
func (c *Client) Estimates(ctx context.Context, req EstimatesRequest) ([]EstimateRecord, error) {
	if len(req.Variables) == 0 {
		return nil, fmt.Errorf("census: at least one variable is required")
	}
	path, err := datasetPath(req.Year, req.Survey)
	if err != nil {
		return nil, err
	}
	if err := req.Within.validateFor(req.Geography); err != nil {
		return nil, err
	}

	params := map[string]string{
		"get": strings.Join(requestColumns(req), ","),
		"for": fmt.Sprintf("%s:%s", req.Geography, forCodes(req.For)),
	}
	if in := req.Within.inClause(); in != "" {
		params["in"] = in
	}
	if c.key != "" {
		params["key"] = c.key
	} else {
		c.log.Warn("no API key configured; the service enforces strict unkeyed quotas")
	}

	url := fmt.Sprintf("%s/%d/%s", c.baseURL, req.Year, path)
	resp, err := c.get(ctx, url, params, endpointData)
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	switch sc := resp.StatusCode(); sc {
	case http.StatusOK:
	case http.StatusNoContent:
		return nil, &UnknownRegionError{Geography: req.Geography, Within: req.Within, Detail: "no regions matched"}
	case http.StatusNotFound:
		return nil, &InvalidSurveyError{Year: req.Year, Survey: req.Survey}
	case http.StatusBadRequest:
		return nil, badRequestError(resp.Body(), req)
	default:
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("unexpected status %d", sc)}
	}

	table, err := decodeTable(resp.Body())
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	idx := columnIndex(table[0])
	rows := table[1:]
	if len(rows) == 0 {
		return nil, &UnknownRegionError{Geography: req.Geography, Within: req.Within, Detail: "no regions matched"}
	}

	records := make([]EstimateRecord, 0, len(rows)*len(req.Variables))
	for _, row := range rows {
		geoID := geoIDFrom(idx, row)
		name := cellAt(idx, row, "NAME")

		var sumEst, sumMOE *float64
		if req.Denominator != "" {
			sumEst = parseOptional(cellAt(idx, row, req.Denominator+"E"))
			sumMOE = parseOptional(cellAt(idx, row, req.Denominator+"M"))
		}

		for _, v := range req.Variables {
			rec := EstimateRecord{
				GeoID:         geoID,
				Name:          name,
				Variable:      v,
				Estimate:      parseValue(cellAt(idx, row, v+"E")),
				MarginOfError: parseValue(cellAt(idx, row, v+"M")),
			}
			if req.Denominator != "" {
				rec.SummaryEst = sumEst
				rec.SummaryMOE = sumMOE
				rec.Ratio = deriveRatio(rec.Estimate, sumEst)
			}
			records = append(records, rec)
		}
	}

	if req.IncludeGeometry {
		if err := c.attachGeometry(ctx, req.Geography, records); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// requestColumns builds the get= column list: NAME, then each variable's
// estimate and MOE columns, then the denominator's pair, deduplicated in
// case the denominator is also requested directly.
func requestColumns(req EstimatesRequest) []string {
	ids := req.Variables
	if req.Denominator != "" {
		ids = append(append([]string{}, req.Variables...), req.Denominator)
	}

	cols := []string{"NAME"}
	seen := map[string]struct{}{"NAME": {}}
	for _, id := range ids {
		for _, col := range []string{id + "E", id + "M"} {
			if _, dup := seen[col]; dup {
				continue
			}
			seen[col] = struct{}{}
			cols = append(cols, col)
		}
	}
	return cols
}

func forCodes(codes []string) string {
	if len(codes) == 0 {
		return "*"
	}
	return strings.Join(codes, ",")
}

var unknownVariableRe = regexp.MustCompile(`unknown variable '([^']+)'`)

// badRequestError classifies a 400 body. The API reports errors as plain
// text, e.g. "error: unknown variable 'B99999_001E'".
func badRequestError(body []byte, req EstimatesRequest) error {
	msg := strings.TrimSpace(string(body))

	if m := unknownVariableRe.FindStringSubmatch(msg); m != nil {
		return &UnknownVariableError{Variable: requestedIdentifier(m[1], req)}
	}

	lower := strings.ToLower(msg)
	if strings.Contains(lower, "geography") || strings.Contains(lower, "hierarchy") {
		return &UnknownRegionError{Geography: req.Geography, Within: req.Within, Detail: msg}
	}
	return fmt.Errorf("census: api rejected request: %s", msg)
}

// requestedIdentifier maps a rejected column (e.g. "ZZZZZE") back onto the
// identifier the caller actually passed.
func requestedIdentifier(column string, req EstimatesRequest) string {
	if len(column) < 2 {
		return column
	}
	trimmed := column[:len(column)-1]
	for _, v := range append(append([]string{}, req.Variables...), req.Denominator) {
		if v == trimmed {
			return trimmed
		}
	}
	return column
}

// decodeTable unmarshals the API's array-of-arrays payload. Cells arrive as
// strings, bare numbers, or null depending on the dataset; everything is
// normalized to strings with "" marking null.
func decodeTable(body []byte) ([][]string, error) {
	var raw [][]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decoding response table: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("response table has no header row")
	}

	out := make([][]string, len(raw))
	for i, row := range raw {
		cells := make([]string, len(row))
		for j, cell := range row {
			switch v := cell.(type) {
			case nil:
				cells[j] = ""
			case string:
				cells[j] = v
			case float64:
				cells[j] = strconv.FormatFloat(v, 'f', -1, 64)
			default:
				cells[j] = fmt.Sprint(v)
			}
		}
		out[i] = cells
	}
	return out, nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[col] = i
	}
	return idx
}

func cellAt(idx map[string]int, row []string, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseValue decodes a numeric cell. Empty, unparsable, and jammed cells all
// come back as NaN.
func parseValue(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	if _, jammed := jamValues[v]; jammed {
		return math.NaN()
	}
	return v
}

func parseOptional(s string) *float64 {
	v := parseValue(s)
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// deriveRatio computes estimate ÷ denominator. Undefined when the
// denominator is zero or missing, or the estimate itself is missing.
func deriveRatio(est float64, sum *float64) *float64 {
	if sum == nil || *sum == 0 || math.IsNaN(est) {
		return nil
	}
	r := est / *sum
	return &r
}
