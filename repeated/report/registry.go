package report

import (
	"strings"
	"sync"

	"github.com/example/turboci-repeated/repeated/domain"
)

// Registry describes the repeated-trial declaration syntax to the host.
type Registry struct {
	options []string
	help    string
}

var (
	registry     *Registry
	registryOnce sync.Once
)

// Register registers the declaration syntax. Only the first call in a
// process builds the registry; later calls return the same one.
func Register() *Registry {
	registryOnce.Do(func() {
		options := domain.OptionNames()
		registry = &Registry{
			options: options,
			help: "repeated(" + strings.Join(options, ", ") + "): run the test repeatedly " +
				"and decide the outcome by a threshold, frequentist or Bayesian rule",
		}
	})
	return registry
}

// Options returns the named options of the declaration syntax.
func (r *Registry) Options() []string {
	out := make([]string, len(r.options))
	copy(out, r.options)
	return out
}

// Help returns the one-line description of the declaration syntax.
func (r *Registry) Help() string {
	return r.help
}

// Parse resolves named options into a configuration.
func (r *Registry) Parse(opts domain.Options) (domain.Config, error) {
	return domain.ParseOptions(opts)
}
