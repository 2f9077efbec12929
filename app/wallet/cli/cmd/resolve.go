package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Adopt the longest valid chain of the known peers",
	RunE:  resolveRun,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func resolveRun(cmd *cobra.Command, args []string) error {
	var r resolved
	if _, err := newClient(nodeURL).post("/v1/resolve", nil, &r); err != nil {
		return err
	}

	if r.Replaced {
		pterm.Success.Printfln("Local chain replaced, now %d blocks", r.ChainLength)
		return nil
	}

	pterm.Info.Printfln("Local chain kept, %d blocks", r.ChainLength)
	return nil
}
