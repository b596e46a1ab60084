package census

import (
	"fmt"
	"strings"
)

// Geography is the administrative level a query resolves to. The constant
// values are the literal names the data API uses in for/in clauses.
type Geography string

const (
	State      Geography = "state"
	County     Geography = "county"
	Tract      Geography = "tract"
	BlockGroup Geography = "block group"
	Place      Geography = "place"
	ZCTA       Geography = "zip code tabulation area"
)

// RegionFilter narrows a query to regions under the named parents, e.g.
// {State: "34"} limits a county query to New Jersey. Codes are FIPS codes.
type RegionFilter struct {
	State  string
	County string
	Tract  string
}

// String renders the filter for error messages.
func (f RegionFilter) String() string {
	clause := f.inClause()
	if clause == "" {
		return "(none)"
	}
	return clause
}

// inClause renders the filter as the API's space-separated in= parameter
// value, parents in hierarchy order. Empty when no parent is set.
func (f RegionFilter) inClause() string {
	var parts []string
	if f.State != "" {
		parts = append(parts, "state:"+f.State)
	}
	if f.County != "" {
		parts = append(parts, "county:"+f.County)
	}
	if f.Tract != "" {
		parts = append(parts, "tract:"+f.Tract)
	}
	return strings.Join(parts, " ")
}

// requiredParents lists the filter fields the API insists on for each
// geography level. Levels not listed can be queried nationwide.
var requiredParents = map[Geography][]string{
	Tract:      {"state"},
	BlockGroup: {"state", "county"},
}

// validateFor checks that the filter names every parent the geography level
// requires before any network round trip is made.
func (f RegionFilter) validateFor(g Geography) error {
	for _, parent := range requiredParents[g] {
		missing := false
		switch parent {
		case "state":
			missing = f.State == ""
		case "county":
			missing = f.County == ""
		}
		if missing {
			return &UnknownRegionError{
				Geography: g,
				Within:    f,
				Detail:    fmt.Sprintf("%s queries require a %s filter", g, parent),
			}
		}
	}
	return nil
}

// geoIDColumns is the canonical hierarchy order of the geographic code
// columns the API appends to each row. A region's GEOID is the concatenation
// of whichever of these columns the response carries.
var geoIDColumns = []string{
	"state",
	"county",
	"tract",
	"block group",
	"place",
	"zip code tabulation area",
}

func geoIDFrom(idx map[string]int, row []string) string {
	var b strings.Builder
	for _, col := range geoIDColumns {
		if i, ok := idx[col]; ok && i < len(row) {
			b.WriteString(row[i])
		}
	}
	return b.String()
}
