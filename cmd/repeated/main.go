// Command repeated runs a command many times and judges it with a
// threshold, frequentist or Bayesian rule.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/example/turboci-repeated/cmd/repeated/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		var exit *cli.ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}
