package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadgrid/leadgen/internal/search"
)

var importOutPath string

var importCmd = &cobra.Command{
	Use:   "import [payload.json]",
	Short: "Convert a raw provider payload into the result format",
	Long:  "Reads a scraping-provider dataset payload from a JSON file and converts it to the normalized search result format without calling the provider.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read %s", args[0])
		}

		var payload any
		if err := json.Unmarshal(raw, &payload); err != nil {
			return eris.Wrap(err, "parse payload JSON")
		}

		svc := search.NewService(nil, nil, nil, nil)
		resp, err := svc.ImportPayload(payload)
		if err != nil {
			return eris.Wrap(err, "convert payload")
		}

		out := os.Stdout
		if importOutPath != "" {
			f, err := os.Create(importOutPath)
			if err != nil {
				return eris.Wrapf(err, "create %s", importOutPath)
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return eris.Wrap(err, "encode results")
		}

		zap.L().Info("import complete",
			zap.String("payload", args[0]),
			zap.Int("businesses", resp.TotalResults),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importOutPath, "out", "", "output file (defaults to stdout)")
	rootCmd.AddCommand(importCmd)
}
