package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/textchain/blockchain/foundation/blockchain/database"
)

var pendingURL string

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Print the transactions waiting in the node's mempool",
	Run:   pendingRun,
}

func init() {
	rootCmd.AddCommand(pendingCmd)
	pendingCmd.Flags().StringVarP(&pendingURL, "url", "u", "http://localhost:8080", "Url of the node.")
}

func pendingRun(cmd *cobra.Command, args []string) {
	resp, err := http.Get(fmt.Sprintf("%s/pending", pendingURL))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var txs []database.Tx
	if err := json.NewDecoder(resp.Body).Decode(&txs); err != nil {
		log.Fatal(err)
	}

	for _, tx := range txs {
		fmt.Println(tx)
	}
}
