package cmd

import (
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/powledger/blockchain/foundation/blockchain/database"
	"github.com/powledger/blockchain/foundation/nameservice"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount float64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Sign a transaction with the wallet key and submit it",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Recipient account id or key file name.")
	sendCmd.Flags().Float64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("to")
}

func sendRun(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return err
	}

	recipient, err := resolveAccount(to)
	if err != nil {
		return err
	}

	tx, err := database.NewTx(database.PublicKeyToAccountID(privateKey.PublicKey), recipient, amount)
	if err != nil {
		return err
	}

	signed, err := tx.Sign(privateKey)
	if err != nil {
		return err
	}

	status, err := newClient(nodeURL).post("/v1/tx/submit", signed, nil)
	if err != nil {
		if status == http.StatusConflict {
			pterm.Warning.Println("Transaction added locally but a peer rejected it, run resolve.")
			return nil
		}
		return err
	}

	pterm.Success.Printfln("Transaction %s submitted", signed)
	return nil
}

// resolveAccount accepts an account id or the name of a key file in the
// account path.
func resolveAccount(nameOrAccount string) (database.AccountID, error) {
	if account, err := database.ToAccountID(nameOrAccount); err == nil {
		return account, nil
	}

	ns, err := nameservice.New(accountPath)
	if err != nil {
		return "", err
	}

	account, err := ns.Resolve(nameOrAccount)
	if err != nil {
		return "", errors.New("recipient is neither an account id nor a known key name")
	}

	return account, nil
}
