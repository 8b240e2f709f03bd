// This program provides wallet functionality against a running ledger node.
package main

import "github.com/meritledger/meritledger/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
