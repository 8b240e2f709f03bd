package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/meritledger/meritledger/foundation/ledger/database"
	"github.com/meritledger/meritledger/foundation/ledger/signature"
	"github.com/spf13/cobra"
)

var (
	sendTo    string
	sendValue string
	sendFee   string
	sendChain uint16
)

// sendCmd represents the send command.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a transaction",
	Long:  `Signs a transaction with the configured private key and submits it to the node's pending pool.`,
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendTo, "to", "t", "", "Account receiving the funds.")
	sendCmd.Flags().StringVarP(&sendValue, "value", "v", "0", "Value to send.")
	sendCmd.Flags().StringVarP(&sendFee, "fee", "f", "0.001", "Fee paid by the sender.")
	sendCmd.Flags().Uint16VarP(&sendChain, "chain", "c", 1, "Chain id the transaction belongs to.")
	sendCmd.MarkFlagRequired("to")
}

func sendRun(cmd *cobra.Command, args []string) error {
	privateKey, err := getPrivateKey()
	if err != nil {
		return err
	}

	value, err := strconv.ParseFloat(sendValue, 64)
	if err != nil {
		return fmt.Errorf("parsing value: %w", err)
	}
	fee, err := strconv.ParseFloat(sendFee, 64)
	if err != nil {
		return fmt.Errorf("parsing fee: %w", err)
	}

	fromID, err := database.ToAccountID(signature.AddressFromPublicKey(privateKey.PublicKey))
	if err != nil {
		return err
	}
	toID, err := database.ToAccountID(sendTo)
	if err != nil {
		return fmt.Errorf("to account: %w", err)
	}

	tx, err := database.NewTx(sendChain, fromID, toID, value, fee)
	if err != nil {
		return err
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		return err
	}

	payload := struct {
		ChainID uint16  `json:"chain_id"`
		From    string  `json:"from"`
		To      string  `json:"to"`
		Value   float64 `json:"value"`
		Fee     float64 `json:"fee"`
		V       string  `json:"v"`
		R       string  `json:"r"`
		S       string  `json:"s"`
	}{
		ChainID: signedTx.ChainID,
		From:    string(signedTx.FromID),
		To:      string(signedTx.ToID),
		Value:   signedTx.Value,
		Fee:     signedTx.Fee,
		V:       signedTx.V.String(),
		R:       signedTx.R.String(),
		S:       signedTx.S.String(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/send", url), "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	fmt.Printf("status %d: %s\n", resp.StatusCode, body)
	return nil
}
