package cost

import "errors"

// Status describes how a layer was treated by the estimator.
type Status int

// Layer statuses.
const (
	StatusCounted     Status = iota // Costed by a rule
	StatusZeroCost                  // Shape-only layer, explicitly zero
	StatusUnsupported               // No rule for the kind, contributes zero
	StatusInvalid                   // Descriptor rejected, contributes zero
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusCounted:
		return "counted"
	case StatusZeroCost:
		return "zero-cost"
	case StatusUnsupported:
		return "unsupported"
	case StatusInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// InvalidPolicy selects how invalid descriptors affect an estimation.
type InvalidPolicy int

const (
	// SkipInvalid reports invalid descriptors with zero ops and no error.
	SkipInvalid InvalidPolicy = iota
	// RejectInvalid reports invalid descriptors the same way and also
	// returns an error from Estimate.
	RejectInvalid
)

// String returns the policy name.
func (p InvalidPolicy) String() string {
	if p == RejectInvalid {
		return "reject"
	}
	return "skip-and-report"
}

// LayerReport is the trace entry for one input descriptor.
type LayerReport struct {
	Index       int       // Position in the input sequence
	Name        string    // Descriptor name, or the kind name if unset
	Kind        LayerKind // Descriptor kind
	InputSize   int
	OutputSize  int
	Activation  Activation
	Ops         int64  // Operations contributed to the total
	Params      int64  // Trainable parameters
	Status      Status // How the layer was costed
	Approximate bool   // Some of the layer's cost is unaccounted for
	Note        string // Human-readable remark
	Err         error  // Rejection cause when Status is StatusInvalid
}

// Flagged reports whether the entry needs the reader's attention.
func (r LayerReport) Flagged() bool {
	return r.Status == StatusUnsupported || r.Status == StatusInvalid || r.Approximate
}

// StatusCounts tallies layer reports by status.
type StatusCounts struct {
	Counted     int
	ZeroCost    int
	Unsupported int
	Invalid     int
	Approximate int
}

// EstimationResult is the outcome of one estimation call.
//
// Layers has exactly one entry per input descriptor, in input order. Total
// is the sum of Layers[i].Ops. Params is best-effort: it saturates at
// math.MaxInt64, and layers whose own count overflows contribute nothing and
// are marked approximate.
type EstimationResult struct {
	Layers        []LayerReport
	Total         int64
	Params        int64
	InvalidPolicy InvalidPolicy
}

// Counts returns per-status tallies.
func (r EstimationResult) Counts() StatusCounts {
	var c StatusCounts
	for i := range r.Layers {
		switch r.Layers[i].Status {
		case StatusCounted:
			c.Counted++
		case StatusZeroCost:
			c.ZeroCost++
		case StatusUnsupported:
			c.Unsupported++
		case StatusInvalid:
			c.Invalid++
		}
		if r.Layers[i].Approximate {
			c.Approximate++
		}
	}
	return c
}

// Flagged returns the reports that are unsupported, invalid, or approximate.
func (r EstimationResult) Flagged() []LayerReport {
	var out []LayerReport
	for i := range r.Layers {
		if r.Layers[i].Flagged() {
			out = append(out, r.Layers[i])
		}
	}
	return out
}

// Err joins the errors of all invalid layers, or returns nil.
func (r EstimationResult) Err() error {
	var errs []error
	for i := range r.Layers {
		if r.Layers[i].Err != nil {
			errs = append(errs, r.Layers[i].Err)
		}
	}
	return errors.Join(errs...)
}
