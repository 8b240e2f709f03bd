package cmd

import (
	"fmt"

	"github.com/meritledger/meritledger/foundation/ledger/signature"
	"github.com/spf13/cobra"
)

// addressCmd represents the address command.
var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the account address",
	Long:  `Prints the ledger address owned by the configured private key.`,
	RunE:  addressRun,
}

func init() {
	rootCmd.AddCommand(addressCmd)
}

func addressRun(cmd *cobra.Command, args []string) error {
	privateKey, err := getPrivateKey()
	if err != nil {
		return err
	}

	fmt.Println(signature.AddressFromPublicKey(privateKey.PublicKey))
	return nil
}
