package metrics

import "strings"

// Substrate keys encode a family name and an ordered label vector into a
// single flat string:
//
//	family \x1f value1 \x1f value2 ...
//
// The unit separator keeps family prefixes unambiguous: every key for a
// family starts with family+"\x1f", including keys of label-less families.
// Histogram accumulators append a component suffix after a record
// separator:
//
//	family \x1f values... \x1e component
//
// where component is "bNN" for the NN-th bucket, "inf" for the implicit
// overflow bucket, or "sum" for the running sum.
//
// A label value containing \x1f or \x1e would collide with a neighboring
// series and is not supported; gateway identifiers (service, route,
// consumer, status, address) never contain control characters.
const (
	labelSep     = "\x1f"
	componentSep = "\x1e"
)

// seriesKey encodes a family name and label vector into a substrate key.
// The caller retains ownership of lvs; the returned string does not alias
// it.
func seriesKey(family string, lvs []string) string {
	n := len(family) + len(lvs)
	for _, v := range lvs {
		n += len(v)
	}

	var b strings.Builder
	b.Grow(n)
	b.WriteString(family)
	b.WriteString(labelSep)
	for i, v := range lvs {
		if i > 0 {
			b.WriteString(labelSep)
		}
		b.WriteString(v)
	}
	return b.String()
}

// splitSeriesKey decodes the label vector from a substrate key, given the
// family prefix (family name plus separator). It returns nil for a
// label-less family's key.
func splitSeriesKey(key, prefix string) []string {
	rest := key[len(prefix):]
	if rest == "" {
		return nil
	}
	return strings.Split(rest, labelSep)
}

// splitComponent separates a histogram accumulator key into its series part
// and component suffix. ok is false for keys without a component.
func splitComponent(key string) (series, component string, ok bool) {
	i := strings.LastIndex(key, componentSep)
	if i < 0 {
		return key, "", false
	}
	return key[:i], key[i+len(componentSep):], true
}
