package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			u := a.ui()
			u.Info(fmt.Sprintf("Version: %s", version))
			u.Info("Repeated-trial decision engine for flaky tests")
		},
	}
}
