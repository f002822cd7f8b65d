// Package repeated is a stub for testing the repeated linter.
package repeated

type T struct{}

type Option func()

func Times(n int) Option                       { return nil }
func Threshold(k int) Option                   { return nil }
func Null(p float64) Option                    { return nil }
func CI(c float64) Option                      { return nil }
func Posterior(p float64) Option               { return nil }
func SuccessRate(r float64) Option             { return nil }
func Prior(passes, failures float64) Option    { return nil }
func Run(t any, body func(*T), opts ...Option) {}
func RunFunc(t any, fn func() error, opts ...Option) {}
func RunOptions(t any, options map[string]any, body func(*T)) {}
