package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lumen/internal/diag"
)

var explainCmd = &cobra.Command{
	Use:   "explain [code]",
	Short: "Describe diagnostic codes",
	Long:  `Explain lists every diagnostic code, or describes the one given (e.g. ELB1200)`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExplain,
}

func runExplain(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		for _, c := range diag.Codes() {
			if c == diag.UnknownCode {
				continue
			}
			fmt.Fprintf(out, "%-8s %s\n", c.ID(), c.Title())
		}
		return nil
	}

	want := strings.ToUpper(strings.TrimSpace(args[0]))
	for _, c := range diag.Codes() {
		if c.ID() == want {
			fmt.Fprintf(out, "%s\n", c.String())
			return nil
		}
	}
	return fmt.Errorf("unknown diagnostic code: %s", args[0])
}
