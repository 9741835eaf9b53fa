package cost

import "strings"

// LayerKind identifies the category of a layer.
//
// The set is closed. Kinds without a built-in rule (Conv2D, LSTM, BatchNorm)
// are representable and reported as unsupported unless a rule is registered
// with WithRule. KindUnknown covers tags this package does not recognize.
type LayerKind int

// Layer kinds.
const (
	KindUnknown LayerKind = iota
	KindDense
	KindFlatten
	KindConv2D
	KindLSTM
	KindBatchNorm
)

// String returns the canonical name of the kind.
func (k LayerKind) String() string {
	switch k {
	case KindDense:
		return "Dense"
	case KindFlatten:
		return "Flatten"
	case KindConv2D:
		return "Conv2D"
	case KindLSTM:
		return "LSTM"
	case KindBatchNorm:
		return "BatchNorm"
	default:
		return "Unknown"
	}
}

// ParseKind maps a layer tag to a LayerKind.
//
// Matching is case-insensitive and accepts common aliases (e.g. "linear" for
// Dense). Unrecognized tags return KindUnknown.
func ParseKind(tag string) LayerKind {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "dense", "linear", "fc", "fullyconnected":
		return KindDense
	case "flatten", "reshape":
		return KindFlatten
	case "conv2d", "conv":
		return KindConv2D
	case "lstm":
		return KindLSTM
	case "batchnorm", "batchnormalization", "batch_norm":
		return KindBatchNorm
	default:
		return KindUnknown
	}
}
