// Package report renders estimation results and compares two of them.
//
// It is a caller-side helper: the estimator itself never prints.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/born-ml/flops/internal/cost"
)

// Write prints a per-layer table, the totals, and any flagged layers.
func Write(w io.Writer, name string, r cost.EstimationResult) error {
	ew := &errWriter{w: w}
	if name != "" {
		ew.printf("Model: %s\n", name)
	}

	tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "#\tLayer\tKind\tIn\tOut\tActivation\tOps\tParams\tStatus\t")
	for i := range r.Layers {
		l := &r.Layers[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			l.Index, l.Name, l.Kind, size(l.InputSize), size(l.OutputSize),
			l.Activation, Group(l.Ops), Group(l.Params), status(l))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	c := r.Counts()
	ew.printf("Total: %s ops, %s params (%d layers: %d counted, %d zero-cost, %d unsupported, %d invalid; invalid policy: %s)\n",
		Group(r.Total), Group(r.Params), len(r.Layers), c.Counted, c.ZeroCost, c.Unsupported, c.Invalid, r.InvalidPolicy)

	if flagged := r.Flagged(); len(flagged) > 0 {
		ew.printf("Flagged:\n")
		for _, l := range flagged {
			ew.printf("  [%d] %s: %s\n", l.Index, l.Name, l.Note)
		}
	}
	return ew.err
}

// Comparison is the difference between two estimations.
type Comparison struct {
	Base, Other string // Model names
	BaseTotal   int64
	OtherTotal  int64
	Delta       int64   // OtherTotal - BaseTotal
	Ratio       float64 // OtherTotal / BaseTotal, 0 if BaseTotal is 0
	Layers      []LayerDelta
}

// LayerDelta compares the layers at the same position in both models.
// A missing side has Present set to false.
type LayerDelta struct {
	Index        int
	Base, Other  int64
	BasePresent  bool
	OtherPresent bool
}

// Compare diffs two estimation results position by position.
func Compare(baseName string, base cost.EstimationResult, otherName string, other cost.EstimationResult) Comparison {
	c := Comparison{
		Base:       baseName,
		Other:      otherName,
		BaseTotal:  base.Total,
		OtherTotal: other.Total,
		Delta:      other.Total - base.Total,
	}
	if base.Total != 0 {
		c.Ratio = float64(other.Total) / float64(base.Total)
	}

	n := max(len(base.Layers), len(other.Layers))
	c.Layers = make([]LayerDelta, n)
	for i := 0; i < n; i++ {
		d := LayerDelta{Index: i}
		if i < len(base.Layers) {
			d.Base, d.BasePresent = base.Layers[i].Ops, true
		}
		if i < len(other.Layers) {
			d.Other, d.OtherPresent = other.Layers[i].Ops, true
		}
		c.Layers[i] = d
	}
	return c
}

// WriteComparison prints a side-by-side comparison.
func WriteComparison(w io.Writer, c Comparison) error {
	ew := &errWriter{w: w}
	tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "#\t%s\t%s\tDelta\t\n", c.Base, c.Other)
	for _, d := range c.Layers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t\n", d.Index, present(d.Base, d.BasePresent), present(d.Other, d.OtherPresent), signed(d.Other-d.Base))
	}
	fmt.Fprintf(tw, "total\t%s\t%s\t%s\t\n", Group(c.BaseTotal), Group(c.OtherTotal), signed(c.Delta))
	if err := tw.Flush(); err != nil {
		return err
	}
	if c.Ratio != 0 {
		ew.printf("%s / %s = %.3f\n", c.Other, c.Base, c.Ratio)
	}
	return ew.err
}

// Group formats n with thousands separators, e.g. 179050 -> "179,050".
func Group(n int64) string {
	s := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	b.WriteString(sign)
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func signed(n int64) string {
	if n > 0 {
		return "+" + Group(n)
	}
	return Group(n)
}

func present(n int64, ok bool) string {
	if !ok {
		return "-"
	}
	return Group(n)
}

func size(n int) string {
	if n == 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

func status(l *cost.LayerReport) string {
	if l.Approximate {
		return l.Status.String() + "*"
	}
	return l.Status.String()
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

func (e *errWriter) printf(format string, args ...any) {
	fmt.Fprintf(e, format, args...)
}
