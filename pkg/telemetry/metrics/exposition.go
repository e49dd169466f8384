package metrics

import (
	"bufio"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// WriteText renders the full registry into the Prometheus plaintext
// exposition format (version 0.0.4). Every family emits its # HELP and
// # TYPE header even when it has no series yet. Series within a family are
// sorted by label vector so successive scrapes diff cleanly; ordering
// across families follows registration order.
func (r *Registry) WriteText(w io.Writer) error {
	if r.Disabled() {
		return ErrRegistryDisabled
	}

	bw := bufio.NewWriter(w)
	for _, f := range r.families {
		writeHeader(bw, f)
		switch fam := f.(type) {
		case *Counter:
			writeScalarSeries(bw, fam.Name(), fam.LabelNames(), collectScalar(fam.Each))
		case *Gauge:
			writeScalarSeries(bw, fam.Name(), fam.LabelNames(), collectScalar(fam.Each))
		case *Histogram:
			writeHistogramSeries(bw, fam)
		}
	}
	return bw.Flush()
}

func writeHeader(w *bufio.Writer, f Family) {
	w.WriteString("# HELP ")
	w.WriteString(f.Name())
	w.WriteByte(' ')
	w.WriteString(escapeHelp(f.Help()))
	w.WriteByte('\n')
	w.WriteString("# TYPE ")
	w.WriteString(f.Name())
	w.WriteByte(' ')
	w.WriteString(string(f.Type()))
	w.WriteByte('\n')
}

type scalarSeries struct {
	lvs   []string
	value float64
}

// collectScalar drains an Each iterator into a slice sorted by label
// vector.
func collectScalar(each func(func([]string, float64) bool)) []scalarSeries {
	var out []scalarSeries
	each(func(lvs []string, value float64) bool {
		out = append(out, scalarSeries{lvs: lvs, value: value})
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		return compareLabelVectors(out[i].lvs, out[j].lvs) < 0
	})
	return out
}

func writeScalarSeries(w *bufio.Writer, name string, labels []string, series []scalarSeries) {
	for _, s := range series {
		w.WriteString(name)
		writeLabelSet(w, labels, s.lvs, "", 0)
		w.WriteByte(' ')
		w.WriteString(formatValue(s.value))
		w.WriteByte('\n')
	}
}

func writeHistogramSeries(w *bufio.Writer, h *Histogram) {
	bounds := h.Buckets()
	h.Each(func(lvs []string, snap HistogramSnapshot) bool {
		for i, bound := range bounds {
			w.WriteString(h.Name())
			w.WriteString("_bucket")
			writeLabelSet(w, h.LabelNames(), lvs, "le", bound)
			w.WriteByte(' ')
			w.WriteString(strconv.FormatUint(snap.Counts[i], 10))
			w.WriteByte('\n')
		}
		w.WriteString(h.Name())
		w.WriteString("_bucket")
		writeLabelSet(w, h.LabelNames(), lvs, "le", math.Inf(1))
		w.WriteByte(' ')
		w.WriteString(strconv.FormatUint(snap.Count, 10))
		w.WriteByte('\n')

		w.WriteString(h.Name())
		w.WriteString("_sum")
		writeLabelSet(w, h.LabelNames(), lvs, "", 0)
		w.WriteByte(' ')
		w.WriteString(formatValue(snap.Sum))
		w.WriteByte('\n')

		w.WriteString(h.Name())
		w.WriteString("_count")
		writeLabelSet(w, h.LabelNames(), lvs, "", 0)
		w.WriteByte(' ')
		w.WriteString(strconv.FormatUint(snap.Count, 10))
		w.WriteByte('\n')
		return true
	})
}

// writeLabelSet renders {name="value",...}, optionally with a trailing le
// bucket label. Nothing is written for an empty label set without le.
func writeLabelSet(w *bufio.Writer, names, lvs []string, leName string, le float64) {
	if len(names) == 0 && leName == "" {
		return
	}
	w.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteString(name)
		w.WriteString(`="`)
		w.WriteString(escapeLabelValue(labelAt(lvs, i)))
		w.WriteByte('"')
	}
	if leName != "" {
		if len(names) > 0 {
			w.WriteByte(',')
		}
		w.WriteString(leName)
		w.WriteString(`="`)
		w.WriteString(formatBucketBound(le))
		w.WriteByte('"')
	}
	w.WriteByte('}')
}

// labelAt tolerates short vectors from a skewed mid-reset read.
func labelAt(lvs []string, i int) string {
	if i < len(lvs) {
		return lvs[i]
	}
	return ""
}

// compareLabelVectors orders label vectors slot by slot.
func compareLabelVectors(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// formatValue renders a sample value the way the exposition format
// expects.
func formatValue(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// formatBucketBound renders a le= bound; +Inf marks the overflow bucket.
func formatBucketBound(bound float64) string {
	if math.IsInf(bound, 1) {
		return "+Inf"
	}
	return strconv.FormatFloat(bound, 'g', -1, 64)
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// escapeLabelValue escapes backslash, double quote and newline per the
// format's label quoting rules.
func escapeLabelValue(v string) string {
	return labelEscaper.Replace(v)
}

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

// escapeHelp escapes backslash and newline in help text.
func escapeHelp(h string) string {
	return helpEscaper.Replace(h)
}
