package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leadgrid/leadgen/internal/model"
)

var (
	enrichName    string
	enrichAddress string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [website]",
	Short: "Extract contacts from a business website",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := buildEnrichService(cfg)

		req := model.EnrichmentRequest{
			Name:    enrichName,
			Website: args[0],
		}
		if enrichAddress != "" {
			req.Address = &enrichAddress
		}
		if req.Name == "" {
			req.Name = args[0]
		}

		resp := svc.Enrich(cmd.Context(), req)

		zap.L().Info("enrichment complete",
			zap.String("website", args[0]),
			zap.Int("contacts", len(resp.Contacts)),
			zap.String("status", string(resp.Status)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(resp), "encode result")
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichName, "name", "", "business name (defaults to the website)")
	enrichCmd.Flags().StringVar(&enrichAddress, "address", "", "business address hint")
	rootCmd.AddCommand(enrichCmd)
}
