package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var searchMaxResults int

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run a free-text business search",
	Long:  "Interprets a natural-language query (or a website URL, which yields suggested queries instead) and prints the result set as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("search"); err != nil {
			return err
		}

		svc := buildSearchService(cfg)

		resp, err := svc.SearchBusiness(cmd.Context(), args[0], searchMaxResults)
		if err != nil {
			return eris.Wrap(err, "search")
		}

		zap.L().Info("search complete",
			zap.String("query", args[0]),
			zap.Int("results", resp.TotalResults),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(resp), "encode results")
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 20, "maximum result count")
	rootCmd.AddCommand(searchCmd)
}
