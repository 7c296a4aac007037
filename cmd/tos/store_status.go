package main

import (
	"github.com/spf13/cobra"
)

func init() {
	requireQueryID(storeStatusCmd)
	storeCmd.AddCommand(storeStatusCmd)
}

var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a snapshot is ready",
	Long: `Report "ready" when a snapshot is stored under the query id and
"not_ready" otherwise.`,
	Args: cobra.NoArgs,
	RunE: runStoreStatus,
}

func runStoreStatus(cmd *cobra.Command, args []string) error {
	db := mustOpenStore()
	defer db.Close()

	status, err := db.Status(storeQueryID)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		outputHuman("%s: %s\n", storeQueryID, status)
		return nil
	}
	return outputJSON(StatusResponse{Status: string(status), QueryID: storeQueryID})
}
