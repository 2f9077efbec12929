package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Ask the node to mine the next block",
	RunE:  mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
}

func mineRun(cmd *cobra.Command, args []string) error {
	spinner, _ := pterm.DefaultSpinner.Start("Mining the next block ...")

	var m mined
	if _, err := newClient(nodeURL).post("/v1/mine", nil, &m); err != nil {
		spinner.Fail(err.Error())
		return err
	}

	spinner.Success("Block mined")

	if err := pterm.DefaultTable.WithHasHeader().WithData(chainTable([]block{m.Block})).Render(); err != nil {
		return err
	}

	if m.ConflictPending {
		pterm.Warning.Println("A peer rejected the block, run resolve.")
	}

	return nil
}
