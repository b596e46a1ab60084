package census

import "fmt"

// Typed errors carry the offending field and value so callers can correct
// the request. Dispatch with errors.As; wrapped causes expose Unwrap.

// ConfigWriteError reports a failure to persist the API key to the
// user-scoped credentials file.
type ConfigWriteError struct {
	Path string
	Err  error
}

func (e *ConfigWriteError) Error() string {
	return fmt.Sprintf("census: writing credentials to %s: %v", e.Path, e.Err)
}

func (e *ConfigWriteError) Unwrap() error { return e.Err }

// NetworkError reports a transient connectivity or upstream failure. The
// client performs no internal retry; callers may retry the request as-is.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("census: request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// InvalidSurveyError reports a (year, survey) pair with no published dataset.
type InvalidSurveyError struct {
	Year   int
	Survey Survey
}

func (e *InvalidSurveyError) Error() string {
	return fmt.Sprintf("census: no %q dataset published for year %d", e.Survey, e.Year)
}

// UnknownVariableError reports a requested variable identifier that does not
// exist in the dataset.
type UnknownVariableError struct {
	Variable string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("census: unknown variable %q", e.Variable)
}

// UnknownRegionError reports a region filter that matches no regions, or one
// the dataset's geography hierarchy cannot express.
type UnknownRegionError struct {
	Geography Geography
	Within    RegionFilter
	Detail    string
}

func (e *UnknownRegionError) Error() string {
	return fmt.Sprintf("census: no %q regions matched filter %s: %s", e.Geography, e.Within, e.Detail)
}

// GeometryUnavailableError reports a geometry request for a geography level
// without a published boundary layer.
type GeometryUnavailableError struct {
	Geography Geography
}

func (e *GeometryUnavailableError) Error() string {
	return fmt.Sprintf("census: no boundary layer available for geography %q", e.Geography)
}
