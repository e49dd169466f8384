package recorder

import (
	"net/url"
	"regexp"
)

// firstScalarParam returns the value of the first configured parameter
// name present in params with exactly one value. Multi-valued parameters
// are not candidates.
func firstScalarParam(params url.Values, names []string) (string, bool) {
	for _, name := range names {
		vs, ok := params[name]
		if ok && len(vs) == 1 {
			return vs[0], true
		}
	}
	return "", false
}

// applyPattern reduces a raw extracted value through an optional regular
// expression. A nil pattern passes the raw value through. With a pattern,
// the group named "param" wins if it exists, else the first capture
// group, else the raw value when the pattern has no groups. A
// non-matching value yields ok=false and the observation is skipped.
func applyPattern(re *regexp.Regexp, raw string) (string, bool) {
	if re == nil {
		return raw, true
	}

	m := re.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	if idx := re.SubexpIndex("param"); idx > 0 && idx < len(m) {
		return m[idx], true
	}
	if re.NumSubexp() >= 1 {
		return m[1], true
	}
	return raw, true
}
