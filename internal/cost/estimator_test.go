package cost

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/flops/internal/parallel"
)

func mnistMLP(hidden int) []LayerDescriptor {
	return []LayerDescriptor{
		Flatten(),
		Dense(784, hidden, ReLU()),
		Dense(hidden, hidden, ReLU()),
		Dense(hidden, 10, Softmax()),
	}
}

func opsOf(r EstimationResult) []int64 {
	ops := make([]int64, len(r.Layers))
	for i := range r.Layers {
		ops[i] = r.Layers[i].Ops
	}
	return ops
}

func TestEstimate_MNIST(t *testing.T) {
	tests := []struct {
		name   string
		hidden int
		ops    []int64
		total  int64
	}{
		{"hidden 100", 100, []int64{0, 156900, 20100, 2050}, 179050},
		{"hidden 50", 50, []int64{0, 78450, 5050, 1050}, 84550},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Estimate(mnistMLP(tt.hidden))
			require.NoError(t, err)

			assert.Equal(t, tt.ops, opsOf(result))
			assert.Equal(t, tt.total, result.Total)
			assert.Empty(t, result.Flagged())
			assert.Equal(t, StatusZeroCost, result.Layers[0].Status)
			for _, l := range result.Layers[1:] {
				assert.Equal(t, StatusCounted, l.Status)
			}
		})
	}
}

func TestEstimate_Empty(t *testing.T) {
	for _, layers := range [][]LayerDescriptor{nil, {}} {
		result, err := Estimate(layers)
		require.NoError(t, err)
		assert.Empty(t, result.Layers)
		assert.Zero(t, result.Total)
		assert.Zero(t, result.Params)
	}
}

func TestEstimate_TotalIsSumOfLayers(t *testing.T) {
	layers := []LayerDescriptor{
		Flatten(),
		Dense(13, 7, NoActivation()),
		{Kind: KindConv2D, InputSize: 3, OutputSize: 16},
		Dense(7, 0, ReLU()),
		Dense(7, 5, Other("tanh")),
		Dense(5, 3, Softmax()),
	}

	result, err := Estimate(layers)
	require.NoError(t, err)
	require.Len(t, result.Layers, len(layers))

	var sum int64
	for i, l := range result.Layers {
		assert.Equal(t, i, l.Index)
		assert.Equal(t, layers[i].Kind, l.Kind)
		sum += l.Ops
	}
	assert.Equal(t, sum, result.Total)
	assert.Equal(t, int64(2*13*7+2*7*5+2*5*3+5*3), result.Total)
}

func TestEstimate_UnsupportedKind(t *testing.T) {
	base := []LayerDescriptor{Dense(10, 4, ReLU())}
	withConv := []LayerDescriptor{
		{Name: "conv1", Kind: KindConv2D, InputSize: 3, OutputSize: 8},
		Dense(10, 4, ReLU()),
		{Name: "Gather", Kind: KindUnknown},
	}

	baseResult, err := Estimate(base)
	require.NoError(t, err)
	result, err := Estimate(withConv)
	require.NoError(t, err)

	assert.Equal(t, baseResult.Total, result.Total)
	require.Len(t, result.Layers, 3)

	conv := result.Layers[0]
	assert.Equal(t, StatusUnsupported, conv.Status)
	assert.Zero(t, conv.Ops)
	assert.True(t, conv.Flagged())
	assert.Contains(t, conv.Note, "conv1")

	unknown := result.Layers[2]
	assert.Equal(t, StatusUnsupported, unknown.Status)
	assert.Contains(t, unknown.Note, "Gather")

	counts := result.Counts()
	assert.Equal(t, 2, counts.Unsupported)
	assert.Equal(t, 1, counts.Counted)
}

func TestEstimate_InvalidSkip(t *testing.T) {
	layers := []LayerDescriptor{
		Dense(10, 4, NoActivation()),
		Dense(4, 0, ReLU()),
		Dense(-3, 2, NoActivation()),
	}

	result, err := Estimate(layers)
	require.NoError(t, err)
	require.Len(t, result.Layers, 3)
	assert.Equal(t, SkipInvalid, result.InvalidPolicy)

	for _, l := range result.Layers[1:] {
		assert.Equal(t, StatusInvalid, l.Status)
		assert.Zero(t, l.Ops)
		assert.True(t, l.Flagged())
		assert.NotEmpty(t, l.Note)
		require.Error(t, l.Err)
		assert.ErrorIs(t, l.Err, ErrInvalidDescriptor)
	}
	assert.Equal(t, int64(80), result.Total)

	var de *DescriptorError
	require.ErrorAs(t, result.Layers[2].Err, &de)
	assert.Equal(t, 2, de.Index)

	assert.ErrorIs(t, result.Err(), ErrInvalidDescriptor)
	assert.Equal(t, 2, result.Counts().Invalid)
}

func TestEstimate_InvalidReject(t *testing.T) {
	e := NewEstimator(WithInvalidPolicy(RejectInvalid))

	result, err := e.Estimate([]LayerDescriptor{Flatten(), Dense(0, 10, Softmax()), Dense(5, 2, NoActivation())})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)

	// The full trace is still returned.
	require.Len(t, result.Layers, 3)
	assert.Equal(t, RejectInvalid, result.InvalidPolicy)
	assert.Equal(t, StatusInvalid, result.Layers[1].Status)
	assert.Equal(t, int64(20), result.Total)

	_, err = e.Estimate(mnistMLP(50))
	assert.NoError(t, err)
}

func TestEstimate_OtherActivation(t *testing.T) {
	result, err := Estimate([]LayerDescriptor{Dense(8, 4, Other("Tanh"))})
	require.NoError(t, err)

	l := result.Layers[0]
	assert.Equal(t, StatusCounted, l.Status)
	assert.Equal(t, int64(64), l.Ops)
	assert.True(t, l.Approximate)
	assert.Contains(t, l.Note, "tanh")
	assert.Len(t, result.Flagged(), 1)
	assert.Equal(t, 1, result.Counts().Approximate)
}

func TestEstimate_Policy(t *testing.T) {
	p := DefaultPolicy()
	p.ReLUPerUnit = 2
	p.SoftmaxPerUnit = 10
	p.Activations = map[string]int64{"Sigmoid": 4}

	e := NewEstimator(WithPolicy(p))
	result, err := e.Estimate([]LayerDescriptor{
		Dense(3, 2, ReLU()),
		Dense(2, 2, Softmax()),
		Dense(2, 1, Other("sigmoid")),
	})
	require.NoError(t, err)

	assert.Equal(t, []int64{12 + 4, 8 + 20, 4 + 4}, opsOf(result))
	assert.Empty(t, result.Flagged())

	// The caller's map is copied.
	p.Activations["sigmoid"] = 100
	assert.Equal(t, int64(4), e.Policy().Activations["sigmoid"])
}

func TestEstimate_CustomRule(t *testing.T) {
	conv := RuleFunc(func(d LayerDescriptor, _ Policy) (LayerCost, error) {
		if d.InputSize <= 0 {
			return LayerCost{}, errors.New("missing channels")
		}
		return LayerCost{Ops: int64(d.InputSize * d.OutputSize), Status: StatusCounted}, nil
	})
	e := NewEstimator(WithRule(KindConv2D, conv))

	result, err := e.Estimate([]LayerDescriptor{
		{Kind: KindConv2D, InputSize: 3, OutputSize: 4},
		{Kind: KindConv2D, OutputSize: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(12), result.Layers[0].Ops)
	assert.Equal(t, StatusCounted, result.Layers[0].Status)
	assert.Equal(t, StatusInvalid, result.Layers[1].Status)
	assert.ErrorIs(t, result.Layers[1].Err, ErrInvalidDescriptor)
	assert.Equal(t, int64(12), result.Total)
}

func TestEstimate_NegativeRuleCost(t *testing.T) {
	bad := RuleFunc(func(LayerDescriptor, Policy) (LayerCost, error) {
		return LayerCost{Ops: -5, Status: StatusCounted}, nil
	})
	e := NewEstimator(WithRule(KindConv2D, bad))

	result, err := e.Estimate([]LayerDescriptor{
		Dense(2, 2, NoActivation()),
		{Kind: KindConv2D, InputSize: 3, OutputSize: 4},
		Dense(3, 3, NoActivation()),
	})
	require.NoError(t, err)
	require.Len(t, result.Layers, 3)

	conv := result.Layers[1]
	assert.Equal(t, StatusInvalid, conv.Status)
	assert.Zero(t, conv.Ops)
	assert.ErrorIs(t, conv.Err, ErrInvalidDescriptor)
	assert.NotErrorIs(t, conv.Err, ErrCostOverflow)
	assert.Contains(t, conv.Note, "negative cost")
	assert.Equal(t, int64(8+18), result.Total)

	_, err = NewEstimator(WithRule(KindConv2D, bad), WithInvalidPolicy(RejectInvalid)).
		Estimate([]LayerDescriptor{{Kind: KindConv2D}})
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestEstimate_TotalOverflowKeepsPartialSum(t *testing.T) {
	big := RuleFunc(func(LayerDescriptor, Policy) (LayerCost, error) {
		return LayerCost{Ops: math.MaxInt64, Status: StatusCounted}, nil
	})
	e := NewEstimator(WithRule(KindLSTM, big))

	result, err := e.Estimate([]LayerDescriptor{
		Dense(2, 2, NoActivation()),
		{Kind: KindLSTM},
	})
	require.ErrorIs(t, err, ErrCostOverflow)
	assert.Equal(t, int64(8), result.Total)
	assert.Len(t, result.Layers, 2)
}

func TestEstimate_InvalidPolicy(t *testing.T) {
	tests := map[string]func(*Policy){
		"mac":        func(p *Policy) { p.MACOps = -2 },
		"relu":       func(p *Policy) { p.ReLUPerUnit = -1 },
		"softmax":    func(p *Policy) { p.SoftmaxPerUnit = -5 },
		"activation": func(p *Policy) { p.Activations = map[string]int64{"tanh": -3} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := DefaultPolicy()
			mutate(&p)

			result, err := NewEstimator(WithPolicy(p)).Estimate(mnistMLP(100))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPolicy)
			assert.NotErrorIs(t, err, ErrCostOverflow)
			assert.NotErrorIs(t, err, ErrInvalidDescriptor)
			assert.Empty(t, result.Layers)
			assert.Zero(t, result.Total)
		})
	}
}

func TestEstimate_UnsupportedKindNegativeSize(t *testing.T) {
	result, err := Estimate([]LayerDescriptor{
		{Name: "conv1", Kind: KindConv2D, InputSize: -3, OutputSize: 8},
		{Kind: KindBatchNorm, OutputSize: -1},
		{Kind: KindLSTM, InputSize: 16, OutputSize: 32},
	})
	require.NoError(t, err)

	for _, i := range []int{0, 1} {
		assert.Equal(t, StatusInvalid, result.Layers[i].Status, "layer %d", i)
		assert.ErrorIs(t, result.Layers[i].Err, ErrInvalidDescriptor)
	}
	assert.Equal(t, StatusUnsupported, result.Layers[2].Status)
	assert.Equal(t, 2, result.Counts().Invalid)

	_, err = NewEstimator(WithInvalidPolicy(RejectInvalid)).
		Estimate([]LayerDescriptor{{Kind: KindConv2D, InputSize: -3}})
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestEstimate_ParamsSaturate(t *testing.T) {
	wide := 1 << 31
	e := NewEstimator(WithPolicy(Policy{}))

	result, err := e.Estimate([]LayerDescriptor{
		Dense(wide, wide, NoActivation()),
		Dense(wide, wide, NoActivation()),
	})
	require.NoError(t, err)

	assert.Zero(t, result.Total)
	assert.Equal(t, int64(1<<62+1<<31), result.Layers[0].Params)
	assert.Equal(t, int64(math.MaxInt64), result.Params)
}

func TestEstimate_Overflow(t *testing.T) {
	huge := int(^uint(0) >> 2)
	result, err := Estimate([]LayerDescriptor{Dense(huge, huge, NoActivation()), Dense(2, 2, NoActivation())})
	require.NoError(t, err)

	assert.Equal(t, StatusInvalid, result.Layers[0].Status)
	assert.ErrorIs(t, result.Layers[0].Err, ErrCostOverflow)
	assert.Equal(t, int64(8), result.Total)
}

func TestEstimate_Deterministic(t *testing.T) {
	layers := mnistMLP(100)
	a, err := Estimate(layers)
	require.NoError(t, err)
	b, err := Estimate(layers)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEstimate_ParallelMatchesSequential(t *testing.T) {
	layers := make([]LayerDescriptor, 0, 2000)
	for i := 1; i <= 2000; i++ {
		switch i % 4 {
		case 0:
			layers = append(layers, Flatten())
		case 1:
			layers = append(layers, Dense(i, i%17+1, ReLU()))
		case 2:
			layers = append(layers, LayerDescriptor{Kind: KindLSTM, InputSize: i})
		default:
			layers = append(layers, Dense(i%13+1, i, Softmax()))
		}
	}

	seq, err := Estimate(layers)
	require.NoError(t, err)

	cfg := parallel.Config{Enabled: true, NumWorkers: 8, MinChunkSize: 16}
	par, err := NewEstimator(WithParallel(cfg)).Estimate(layers)
	require.NoError(t, err)

	assert.Equal(t, seq, par)
}

func TestEstimator_ConcurrentUse(t *testing.T) {
	e := NewEstimator()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(hidden int) {
			defer wg.Done()
			result, err := e.Estimate(mnistMLP(hidden))
			assert.NoError(t, err)
			assert.Len(t, result.Layers, 4)
		}(i + 1)
	}
	wg.Wait()
}
