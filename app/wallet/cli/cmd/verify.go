package cmd

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the chain and the open transactions of the node",
	RunE:  verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verifyRun(cmd *cobra.Command, args []string) error {
	var v verification
	err := newClient(nodeURL).get("/v1/verify", &v)

	var se *StatusError
	switch {
	case err == nil:
		pterm.Success.Println("Chain and open transactions are valid")
		return nil

	case errors.As(err, &se):
		pterm.Error.Println(se.Msg)
	}

	return err
}
