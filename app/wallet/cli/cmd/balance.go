package cmd

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance [account]",
	Short: "Print the balance of the wallet or of the given account",
	Args:  cobra.MaximumNArgs(1),
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	var account database.AccountID

	switch len(args) {
	case 1:
		var err error
		if account, err = resolveAccount(args[0]); err != nil {
			return err
		}

	default:
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			return err
		}
		account = database.PublicKeyToAccountID(privateKey.PublicKey)
	}

	var b balance
	if err := newClient(nodeURL).get("/v1/balance/"+string(account), &b); err != nil {
		return err
	}

	pterm.Info.Printfln("Balance of %s (%s): %g", b.Account, b.Name, b.Balance)
	return nil
}
