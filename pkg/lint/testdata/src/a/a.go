// Package a is a test package for the repeated linter.
package a

import "repeated"

func body(*repeated.T) {}

func fn() error { return nil }

const certain = 1.0

func outOfRange(t any) {
	repeated.Run(t, body, repeated.Times(0))                                      // want "Times must be at least 1, got 0"
	repeated.Run(t, body, repeated.Times(10), repeated.Threshold(-1))             // want "Threshold must be at least 0, got -1"
	repeated.Run(t, body, repeated.Times(10), repeated.Null(-0.5))                // want "Null must be between 0 and 1, got -0.5"
	repeated.Run(t, body, repeated.Times(10), repeated.Null(0.5), repeated.CI(certain)) // want "CI must be strictly between 0 and 1, got 1"
	repeated.Run(t, body, repeated.Times(10), repeated.Posterior(0), repeated.SuccessRate(0.7)) // want `Posterior must be in \(0, 1\], got 0`
	repeated.Run(t, body, repeated.Times(10), repeated.Posterior(0.9), repeated.SuccessRate(0.7), repeated.Prior(0, 1)) // want "Prior passes must be positive, got 0"
}

func conflicting(t any) {
	repeated.Run(t, body, repeated.Times(10), repeated.Threshold(3), repeated.Null(0.5)) // want `conflicting decision rules: frequentist \(Null\) and threshold \(Threshold\)`
	repeated.RunFunc(t, fn, repeated.Times(10), repeated.CI(0.9), repeated.Posterior(0.9)) // want "conflicting decision rules"
}

func missingCompanion(t any) {
	repeated.Run(t, body, repeated.Times(10), repeated.CI(0.9))         // want "CI requires Null"
	repeated.Run(t, body, repeated.Times(10), repeated.Posterior(0.9))  // want "Posterior requires SuccessRate"
	repeated.Run(t, body, repeated.Times(10), repeated.SuccessRate(0.7)) // want "SuccessRate requires Posterior"
}

func singleTrial(t any) {
	repeated.Run(t, body, repeated.Null(0.5))                   // want "statistical rule evaluated on a single trial; add repeated.Times"
	repeated.Run(t, body, repeated.Times(1), repeated.Null(0.5)) // want "statistical rule evaluated on a single trial"
}

func optionMaps(t any) {
	repeated.RunOptions(t, map[string]any{"times": 5, "nul": 0.5}, body)          // want `unknown option "nul"`
	repeated.RunOptions(t, map[string]any{"times": 5, "threshold": 3, "H0": 0.5}, body) // want `conflicting decision rules: frequentist \(H0\) and threshold \(threshold\)`
}

// Valid cases - should NOT produce warnings

func valid(t any, n int) {
	repeated.Run(t, body)
	repeated.Run(t, body, repeated.Times(5), repeated.Threshold(3))
	repeated.Run(t, body, repeated.Times(20), repeated.Null(0.8), repeated.CI(0.95))
	repeated.Run(t, body, repeated.Times(n), repeated.Null(0.8))
	repeated.Run(t, body, repeated.Times(20), repeated.Posterior(0.9), repeated.SuccessRate(0.7), repeated.Prior(2, 1))
	repeated.RunFunc(t, fn, repeated.Times(3))
	repeated.RunOptions(t, map[string]any{"n": 10, "null": 0.5, "ci": 0.9}, body)
}
