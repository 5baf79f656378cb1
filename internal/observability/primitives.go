package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// series holds one value per label set, keyed by the rendered label block.
type series struct {
	name   string
	help   string
	kind   string
	labels []string

	mu     sync.Mutex
	values map[string]float64
}

func newSeries(kind, name, help string, labels []string) series {
	return series{name: name, help: help, kind: kind, labels: labels, values: map[string]float64{}}
}

func (s *series) update(values []string, fn func(cur float64) float64) {
	key := renderLabels(s.labels, values, "")
	s.mu.Lock()
	s.values[key] = fn(s.values[key])
	s.mu.Unlock()
}

func (s *series) write(w io.Writer) error {
	if err := writeHeader(w, s.name, s.help, s.kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range sortedKeys(s.values) {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", s.name, key, s.values[key]); err != nil {
			return err
		}
	}
	return nil
}

// CounterVec only goes up. A vec built without label names is a plain
// counter.
type CounterVec struct{ s series }

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{s: newSeries("counter", name, help, labels)}
}

func (c *CounterVec) Inc(values ...string) { c.Add(1, values...) }

func (c *CounterVec) Add(v float64, values ...string) {
	if c == nil || v < 0 {
		return
	}
	c.s.update(values, func(cur float64) float64 { return cur + v })
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	return c.s.write(w)
}

type GaugeVec struct{ s series }

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{s: newSeries("gauge", name, help, labels)}
}

func (g *GaugeVec) Set(v float64, values ...string) {
	if g == nil {
		return
	}
	g.s.update(values, func(float64) float64 { return v })
}

func (g *GaugeVec) Add(v float64, values ...string) {
	if g == nil {
		return
	}
	g.s.update(values, func(cur float64) float64 { return cur + v })
}

func (g *GaugeVec) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	return g.s.write(w)
}

var defaultBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

type HistogramVec struct {
	name    string
	help    string
	labels  []string
	buckets []float64

	mu   sync.Mutex
	hist map[string]*histogram
}

// histogram keeps per-bucket counts; cumulative totals are computed on write.
type histogram struct {
	counts []uint64
	sum    float64
	total  uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = defaultBuckets
	}
	b := append([]float64(nil), buckets...)
	sort.Float64s(b)
	return &HistogramVec{name: name, help: help, labels: labels, buckets: b, hist: map[string]*histogram{}}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	key := strings.Join(values, "\xff")
	idx := sort.SearchFloat64s(h.buckets, v)

	h.mu.Lock()
	defer h.mu.Unlock()
	hg, ok := h.hist[key]
	if !ok {
		hg = &histogram{counts: make([]uint64, len(h.buckets))}
		h.hist[key] = hg
	}
	if idx < len(hg.counts) {
		hg.counts[idx]++
	}
	hg.sum += v
	hg.total++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if err := writeHeader(w, h.name, h.help, "histogram"); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	keys := make([]string, 0, len(h.hist))
	for k := range h.hist {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		hg := h.hist[key]
		var values []string
		if key != "" || len(h.labels) > 0 {
			values = strings.Split(key, "\xff")
		}
		var cum uint64
		for i, b := range h.buckets {
			cum += hg.counts[i]
			le := fmt.Sprintf("%g", b)
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, renderLabels(h.labels, values, le), cum); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, renderLabels(h.labels, values, "+Inf"), hg.total); err != nil {
			return err
		}
		plain := renderLabels(h.labels, values, "")
		if _, err := fmt.Fprintf(w, "%s_sum%s %f\n%s_count%s %d\n", h.name, plain, hg.sum, h.name, plain, hg.total); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(w io.Writer, name, help, kind string) error {
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
	return err
}

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// renderLabels builds {a="x",b="y"} in label-name order. Missing values
// render as "unknown"; le is appended when non-empty.
func renderLabels(names, values []string, le string) string {
	if len(names) == 0 && le == "" {
		return ""
	}
	parts := make([]string, 0, len(names)+1)
	for i, name := range names {
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		parts = append(parts, name+`="`+labelEscaper.Replace(val)+`"`)
	}
	if le != "" {
		parts = append(parts, `le="`+le+`"`)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
