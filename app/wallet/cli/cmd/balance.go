package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/meritledger/meritledger/foundation/ledger/signature"
	"github.com/spf13/cobra"
)

// balanceCmd represents the balance command.
var balanceCmd = &cobra.Command{
	Use:   "balance [account]",
	Short: "Print an account balance",
	Long:  `Queries the node for the balance of the specified account, defaulting to the account owned by the configured private key.`,
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	var account string

	if len(args) > 0 {
		account = args[0]
	} else {
		privateKey, err := getPrivateKey()
		if err != nil {
			return err
		}
		account = signature.AddressFromPublicKey(privateKey.PublicKey)
	}

	resp, err := http.Get(fmt.Sprintf("%s/v1/balances/list/%s", url, account))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node returned status %d", resp.StatusCode)
	}

	var result struct {
		Balances []struct {
			Account string  `json:"account"`
			Balance float64 `json:"balance"`
		} `json:"balances"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}

	for _, b := range result.Balances {
		fmt.Printf("%s: %.6f\n", b.Account, b.Balance)
	}

	return nil
}
