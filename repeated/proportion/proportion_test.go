package proportion

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/example/turboci-repeated/repeated/domain"
)

func TestFreqTestExactBinomial(t *testing.T) {
	res, err := FreqTest(0.9, 3, 3, 0.05)
	require.NoError(t, err)

	assert.InDelta(t, 0.729, res.PValue, 1e-9)
	assert.Equal(t, MethodExactBinomial, res.Method)
	assert.False(t, res.Reject)
	assert.Equal(t, 1.0, res.PHat)
	assert.Contains(t, res.Warning, "low sample size")
}

func TestFreqTestNormalApproximation(t *testing.T) {
	// se = 0.05, z = (0.595 - 0.5) / 0.05 = 1.9
	res, err := FreqTest(0.5, 60, 100, 0.05)
	require.NoError(t, err)

	assert.Equal(t, MethodNormalApproximation, res.Method)
	assert.InDelta(t, 0.5*math.Erfc(1.9/math.Sqrt2), res.PValue, 1e-12)
	assert.True(t, res.Reject)
	assert.Empty(t, res.Warning)
}

func TestFreqTestBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		r          float64
		n, N       int
		wantReject bool
		wantP      float64
	}{
		{"r=0 no successes", 0, 0, 5, false, 1},
		{"r=0 one success", 0, 1, 5, true, 0},
		{"r=1 all successes", 1, 5, 5, false, 1},
		{"r=1 some failures", 1, 3, 5, false, 1},
		{"zero successes", 0.5, 0, 10, false, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := FreqTest(tc.r, tc.n, tc.N, 0.05)
			if err != nil {
				t.Fatalf("FreqTest failed: %v", err)
			}
			if res.Reject != tc.wantReject {
				t.Errorf("Reject = %v, want %v", res.Reject, tc.wantReject)
			}
			if res.PValue != tc.wantP {
				t.Errorf("PValue = %v, want %v", res.PValue, tc.wantP)
			}
			if res.Method != MethodExactBinomial {
				t.Errorf("Method = %s, want %s", res.Method, MethodExactBinomial)
			}
		})
	}
}

func TestFreqTestInvalidArguments(t *testing.T) {
	tests := []struct {
		name  string
		r     float64
		n, N  int
		alpha float64
	}{
		{"negative r", -0.1, 1, 2, 0.05},
		{"r above one", 1.1, 1, 2, 0.05},
		{"NaN r", math.NaN(), 1, 2, 0.05},
		{"zero trials", 0.5, 0, 0, 0.05},
		{"n above N", 0.5, 3, 2, 0.05},
		{"negative n", 0.5, -1, 2, 0.05},
		{"alpha zero", 0.5, 1, 2, 0},
		{"alpha one", 0.5, 1, 2, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FreqTest(tc.r, tc.n, tc.N, tc.alpha)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestBayesTestAllPass(t *testing.T) {
	res, err := BayesTest(0.7, 10, 10, 1, 1, 0.95)
	require.NoError(t, err)

	// Beta(11, 1) has CDF x^11.
	assert.InDelta(t, 1-math.Pow(0.7, 11), res.PosteriorProb, 1e-9)
	assert.True(t, res.Passes)
	assert.Equal(t, 11.0, res.Alpha)
	assert.Equal(t, 1.0, res.Beta)
	assert.Equal(t, MethodBetaPosterior, res.Method)
}

func TestBayesTestBoundaries(t *testing.T) {
	res, err := BayesTest(0, 0, 4, 1, 1, 0.9)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.PosteriorProb)
	assert.True(t, res.Passes)

	res, err = BayesTest(1, 4, 4, 1, 1, 0.9)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.PosteriorProb)
	assert.False(t, res.Passes)
}

func TestBayesTestInvalidArguments(t *testing.T) {
	_, err := BayesTest(0.5, 1, 2, 0, 1, 0.9)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = BayesTest(0.5, 1, 2, 1, 1, 1.5)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = BayesTest(0.5, 3, 2, 1, 1, 0.9)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestFreqTestIdempotent(t *testing.T) {
	first, err := FreqTest(0.8, 17, 20, 0.05)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := FreqTest(0.8, 17, 20, 0.05)
		require.NoError(t, err)
		if math.Float64bits(again.PValue) != math.Float64bits(first.PValue) {
			t.Fatalf("PValue changed between calls: %v != %v", again.PValue, first.PValue)
		}
	}

	b1, _ := BayesTest(0.8, 17, 20, 2, 3, 0.9)
	b2, _ := BayesTest(0.8, 17, 20, 2, 3, 0.9)
	if b1 != b2 {
		t.Fatalf("BayesTest changed between calls: %+v != %+v", b1, b2)
	}
}

func TestProperty_FreqTest_PValueInUnitInterval(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		N := rapid.IntRange(1, 500).Draw(rt, "N")
		n := rapid.IntRange(0, N).Draw(rt, "n")
		r := rapid.Float64Range(0, 1).Draw(rt, "r")

		res, err := FreqTest(r, n, N, 0.05)
		require.NoError(rt, err)
		assert.GreaterOrEqual(rt, res.PValue, 0.0)
		assert.LessOrEqual(rt, res.PValue, 1.0)
	})
}

func TestProperty_FreqTest_Boundaries(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		N := rapid.IntRange(1, 500).Draw(rt, "N")
		n := rapid.IntRange(0, N).Draw(rt, "n")

		zero, err := FreqTest(0, n, N, 0.05)
		require.NoError(rt, err)
		assert.Equal(rt, n > 0, zero.Reject)

		one, err := FreqTest(1, n, N, 0.05)
		require.NoError(rt, err)
		assert.False(rt, one.Reject)
	})
}

func TestProperty_FreqTest_MethodSelection(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		N := rapid.IntRange(1, 1000).Draw(rt, "N")
		n := rapid.IntRange(0, N).Draw(rt, "n")
		r := rapid.Float64Range(0, 1).Draw(rt, "r")

		res, err := FreqTest(r, n, N, 0.05)
		require.NoError(rt, err)

		want := MethodNormalApproximation
		if N < 30 || float64(N)*r*(1-r) < 10 {
			want = MethodExactBinomial
		}
		assert.Equal(rt, want, res.Method)
	})
}

func TestFreqTestBothMethodsReachable(t *testing.T) {
	exact, err := FreqTest(0.5, 10, 20, 0.05)
	require.NoError(t, err)
	normal, err := FreqTest(0.5, 30, 60, 0.05)
	require.NoError(t, err)

	assert.Equal(t, MethodExactBinomial, exact.Method)
	assert.Equal(t, MethodNormalApproximation, normal.Method)
}

func TestProperty_BayesTest_Monotonic(t *testing.T) {
	const tolerance = 1e-12

	rapid.Check(t, func(rt *rapid.T) {
		N := rapid.IntRange(1, 200).Draw(rt, "N")
		n := rapid.IntRange(0, N-1).Draw(rt, "n")
		r := rapid.Float64Range(0.01, 0.98).Draw(rt, "r")
		dr := rapid.Float64Range(0, 0.01).Draw(rt, "dr")

		lower, err := BayesTest(r, n, N, 1, 1, 0.95)
		require.NoError(rt, err)
		moreSuccesses, err := BayesTest(r, n+1, N, 1, 1, 0.95)
		require.NoError(rt, err)
		higherRate, err := BayesTest(r+dr, n, N, 1, 1, 0.95)
		require.NoError(rt, err)

		assert.GreaterOrEqual(rt, moreSuccesses.PosteriorProb+tolerance, lower.PosteriorProb,
			"posterior must not decrease with more successes")
		assert.LessOrEqual(rt, higherRate.PosteriorProb, lower.PosteriorProb+tolerance,
			"posterior must not increase with a higher rate threshold")
	})
}
