// This program is the wallet and operator tool for a ledger node.
package main

import "github.com/powledger/blockchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
