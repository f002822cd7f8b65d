// Package proportion implements the one-sided tests used to judge a repeated
// test: a frequentist binomial test against a null success proportion and a
// Beta-Binomial posterior test against a success-rate threshold.
package proportion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/combin"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/example/turboci-repeated/repeated/domain"
)

// Methods reported by the tests.
const (
	MethodExactBinomial       = "exact_binomial"
	MethodNormalApproximation = "normal_approximation"
	MethodBetaPosterior       = "beta_posterior"
)

// Below these the normal approximation is unreliable and the exact tail is used.
const (
	minNormalTrials   = 30
	minNormalVariance = 10
)

// FreqResult is the outcome of a frequentist proportion test.
type FreqResult struct {
	Reject bool
	PValue float64
	PHat   float64
	Method string

	// Warning is set when the sample is too small for the normal approximation.
	Warning string
}

// BayesResult is the outcome of a Bayesian proportion test.
type BayesResult struct {
	Passes        bool
	PosteriorProb float64
	Alpha         float64
	Beta          float64
	Method        string
}

// FreqTest tests H0: p <= r against H1: p > r given n successes in N trials,
// rejecting when the p-value is below alpha.
func FreqTest(r float64, n, N int, alpha float64) (FreqResult, error) {
	if err := checkCounts(r, n, N); err != nil {
		return FreqResult{}, err
	}
	if math.IsNaN(alpha) || alpha <= 0 || alpha >= 1 {
		return FreqResult{}, fmt.Errorf("%w: alpha must be strictly between 0 and 1, got %g",
			domain.ErrInvalidArgument, alpha)
	}

	res := FreqResult{PHat: float64(n) / float64(N)}
	if SmallSample(r, N) {
		res.Warning = fmt.Sprintf("low sample size (N=%d, N*r*(1-r)=%.2f); using %s",
			N, float64(N)*r*(1-r), MethodExactBinomial)
	}

	switch {
	case r == 0:
		// The tail collapses to a point mass at zero successes.
		res.Method = MethodExactBinomial
		res.PValue = 1
		if n > 0 {
			res.PValue = 0
		}
	case r == 1:
		// P(X >= n) is 1 for every n, so H0 is never rejected.
		res.Method = MethodExactBinomial
		res.PValue = 1
	case SmallSample(r, N):
		res.Method = MethodExactBinomial
		res.PValue = binomialUpperTail(r, n, N)
	default:
		res.Method = MethodNormalApproximation
		res.PValue = normalUpperTail(r, n, N)
	}
	res.Reject = res.PValue < alpha
	return res, nil
}

// BayesTest computes the posterior probability that the true success rate
// exceeds r under a Beta(priorSuccesses, priorFailures) prior, passing when
// it is at least thresholdProb.
func BayesTest(r float64, n, N int, priorSuccesses, priorFailures, thresholdProb float64) (BayesResult, error) {
	if err := checkCounts(r, n, N); err != nil {
		return BayesResult{}, err
	}
	if math.IsNaN(priorSuccesses) || priorSuccesses <= 0 || math.IsNaN(priorFailures) || priorFailures <= 0 {
		return BayesResult{}, fmt.Errorf("%w: prior pseudo-counts must be positive, got (%g, %g)",
			domain.ErrInvalidArgument, priorSuccesses, priorFailures)
	}
	if math.IsNaN(thresholdProb) || thresholdProb < 0 || thresholdProb > 1 {
		return BayesResult{}, fmt.Errorf("%w: threshold probability must be between 0 and 1, got %g",
			domain.ErrInvalidArgument, thresholdProb)
	}

	res := BayesResult{
		Alpha:  priorSuccesses + float64(n),
		Beta:   priorFailures + float64(N-n),
		Method: MethodBetaPosterior,
	}
	switch r {
	case 0:
		res.PosteriorProb = 1
	case 1:
		res.PosteriorProb = 0
	default:
		res.PosteriorProb = clamp(1 - mathext.RegIncBeta(res.Alpha, res.Beta, r))
	}
	res.Passes = res.PosteriorProb >= thresholdProb
	return res, nil
}

// SmallSample returns true when N trials at proportion r are too few for
// the normal approximation.
func SmallSample(r float64, N int) bool {
	return N < minNormalTrials || float64(N)*r*(1-r) < minNormalVariance
}

// binomialUpperTail returns P(X >= n) for X ~ Binomial(N, r), summed in log
// space.
func binomialUpperTail(r float64, n, N int) float64 {
	if n == 0 {
		return 1
	}
	logR, logQ := math.Log(r), math.Log1p(-r)
	terms := make([]float64, 0, N-n+1)
	for k := n; k <= N; k++ {
		terms = append(terms,
			combin.LogGeneralizedBinomial(float64(N), float64(k))+
				float64(k)*logR+float64(N-k)*logQ)
	}
	return clamp(math.Exp(floats.LogSumExp(terms)))
}

// normalUpperTail returns the continuity-corrected normal approximation of
// P(X >= n).
func normalUpperTail(r float64, n, N int) float64 {
	se := math.Sqrt(r * (1 - r) / float64(N))
	z := ((float64(n)-0.5)/float64(N) - r) / se
	return clamp(distuv.UnitNormal.Survival(z))
}

func checkCounts(r float64, n, N int) error {
	if math.IsNaN(r) || r < 0 || r > 1 {
		return fmt.Errorf("%w: proportion must be between 0 and 1, got %g", domain.ErrInvalidArgument, r)
	}
	if N <= 0 {
		return fmt.Errorf("%w: trial count must be positive, got %d", domain.ErrInvalidArgument, N)
	}
	if n < 0 || n > N {
		return fmt.Errorf("%w: successes must be between 0 and %d, got %d", domain.ErrInvalidArgument, N, n)
	}
	return nil
}

func clamp(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}
