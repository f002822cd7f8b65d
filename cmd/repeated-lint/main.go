// Command repeated-lint runs static analysis on repeated API usage.
//
// Usage:
//
//	repeated-lint ./...
//
// It reports option values outside their valid range, options from more
// than one decision rule, and statistical rules without enough trials.
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/example/turboci-repeated/pkg/lint"
)

func main() {
	singlechecker.Main(lint.Analyzer)
}
