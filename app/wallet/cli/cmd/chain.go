package cmd

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the chain of the node",
	RunE:  chainRun,
}

func init() {
	rootCmd.AddCommand(chainCmd)
}

func chainRun(cmd *cobra.Command, args []string) error {
	var c chain
	if err := newClient(nodeURL).get("/v1/chain", &c); err != nil {
		return err
	}

	pterm.Info.Printfln("Chain of %d blocks", c.Length)
	return pterm.DefaultTable.WithHasHeader().WithData(chainTable(c.Blocks)).Render()
}

// chainTable lays the blocks out one row per block with its transactions
// listed in the last column.
func chainTable(blocks []block) pterm.TableData {
	data := pterm.TableData{{"Index", "Hash", "Previous", "Proof", "Transactions"}}

	for _, b := range blocks {
		txs := make([]string, len(b.Transactions))
		for i, tx := range b.Transactions {
			txs[i] = fmt.Sprintf("%s -> %s: %g", short(tx.SenderName), short(tx.RecipientName), tx.Amount)
		}

		data = append(data, []string{
			fmt.Sprint(b.Index),
			short(b.Hash),
			short(b.PreviousHash),
			fmt.Sprint(b.Proof),
			strings.Join(txs, "\n"),
		})
	}

	return data
}

// short trims long hex values for display.
func short(s string) string {
	const width = 12
	if len(s) <= width {
		return s
	}
	return s[:width] + ".."
}
