package census

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// Every taxonomy error must name the offending field and value so the
// caller can correct the request without guessing.
func TestErrorMessagesCarryDetail(t *testing.T) {
	tests := []struct {
		err  error
		want []string
	}{
		{&ConfigWriteError{Path: "/etc/census/credentials.yaml", Err: errors.New("permission denied")}, []string{"/etc/census/credentials.yaml", "permission denied"}},
		{&NetworkError{URL: "https://api.census.gov/data/2017/acs/acs5", Err: errors.New("connection refused")}, []string{"2017/acs/acs5", "connection refused"}},
		{&InvalidSurveyError{Year: 2017, Survey: "acs7"}, []string{"acs7", "2017"}},
		{&UnknownVariableError{Variable: "ZZZZZ"}, []string{"ZZZZZ"}},
		{&UnknownRegionError{Geography: County, Within: RegionFilter{State: "99"}, Detail: "no regions matched"}, []string{"county", "state:99", "no regions matched"}},
		{&GeometryUnavailableError{Geography: ZCTA}, []string{"zip code tabulation area"}},
	}
	for _, tt := range tests {
		msg := tt.err.Error()
		for _, want := range tt.want {
			if !strings.Contains(msg, want) {
				t.Errorf("%T message %q missing %q", tt.err, msg, want)
			}
		}
	}
}

func TestWrappedCausesUnwrap(t *testing.T) {
	cause := errors.New("disk full")

	var err error = &ConfigWriteError{Path: "/tmp/x", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("ConfigWriteError does not unwrap to its cause")
	}

	err = fmt.Errorf("installing key: %w", &NetworkError{URL: "u", Err: cause})
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Error("NetworkError not found through wrapping")
	}
	if !errors.Is(err, cause) {
		t.Error("NetworkError does not unwrap to its cause")
	}
}
