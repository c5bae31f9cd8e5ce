package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspekt",
		Short: "Workshop document capture and inspection report tool",
		Long: `Inspekt normalizes photographed workshop paperwork into clean document
scans, recognizes license plates and vehicle details with a vision LLM, and
composes inspection reports with archived attachments into shareable PDFs.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newRecognizeCmd())
	cmd.AddCommand(newReportCmd())

	return cmd
}
