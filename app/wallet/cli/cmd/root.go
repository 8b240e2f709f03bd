// Package cmd implements the wallet command line tooling.
package cmd

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	url         string
	accountName string
	accountPath string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Wallet tooling for the merit ledger",
	Long:  `A command line wallet for generating keys, checking balances, and sending transactions to a ledger node.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the public node api.")
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "The account to use.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zledger/accounts/", "Path to the directory with private key files.")
}

// getPrivateKey loads the configured account's private key from disk.
func getPrivateKey() (*ecdsa.PrivateKey, error) {
	return crypto.LoadECDSA(filepath.Join(accountPath, accountName))
}
