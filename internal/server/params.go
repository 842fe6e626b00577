package server

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"enrprod/internal/analytics"
)

var errInvalidParam = errors.New("invalid query parameter")

// parseFilter reads year_min, year_max and the repeatable energy_type and
// region parameters.
func parseFilter(q url.Values) (analytics.Filter, error) {
	var f analytics.Filter

	for _, p := range []struct {
		name string
		dst  **int
	}{
		{"year_min", &f.YearMin},
		{"year_max", &f.YearMax},
	} {
		v, ok, err := intParam(q, p.name)
		if err != nil {
			return f, err
		}

		if ok {
			*p.dst = &v
		}
	}

	f.EnergyTypes = listParam(q, "energy_type")
	f.Regions = listParam(q, "region")

	if err := f.Validate(); err != nil {
		return f, err
	}

	return f, nil
}

// intParam parses an optional integer parameter.
func intParam(q url.Values, name string) (int, bool, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, false, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s=%q is not an integer", errInvalidParam, name, raw)
	}

	return v, true, nil
}

// listParam collects every non-blank value of a repeated parameter.
func listParam(q url.Values, name string) []string {
	var out []string

	for _, v := range q[name] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}

	return out
}

// dimensionParam parses a single dimension, falling back to def.
func dimensionParam(q url.Values, name string, def analytics.Dimension) (analytics.Dimension, error) {
	raw := q.Get(name)
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}

	return analytics.ParseDimension(raw)
}
