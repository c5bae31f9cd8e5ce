package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/workshoplabs/inspekt/internal/attachments"
	"github.com/workshoplabs/inspekt/internal/compose"
	"github.com/workshoplabs/inspekt/internal/config"
	"github.com/workshoplabs/inspekt/internal/inline"
	"github.com/workshoplabs/inspekt/internal/report"
	"github.com/workshoplabs/inspekt/internal/storage"
)

func newReportCmd() *cobra.Command {
	var (
		reportPath string
		outPath    string
		attachURLs []string
		share      bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compose an inspection report PDF",
		Long: `Renders a report model file into the branded report page and appends one
A4 page per attachment. Attachment URLs that cannot be fetched degrade to a
placeholder page instead of failing the document.`,
		Example: `  # Compose a report with two photo attachments
  inspekt report --file report.yaml --attach https://cdn.example.com/a.jpg \
    --attach https://cdn.example.com/b.jpg -o report.pdf

  # Compose, upload and print a WhatsApp share link
  inspekt report --file report.yaml --share`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			rpt, err := report.Load(reportPath)
			if err != nil {
				return err
			}

			var list []attachments.Attachment
			for i, u := range attachURLs {
				list = append(list, attachments.Attachment{
					Name: fmt.Sprintf("attachment_%d", i+1),
					Type: attachments.TypePhoto,
					URL:  u,
				})
			}

			compositor := compose.New(inline.NewFetcher(cfg.ProxyA, cfg.ProxyB))
			pdfData, err := compositor.Compose(cmd.Context(), rpt, list)
			if err != nil {
				return err
			}

			if share {
				return shareReport(cmd, cfg, rpt, pdfData)
			}

			if outPath == "" {
				outPath = "report_" + rpt.RequestID + ".pdf"
			}
			if err := os.WriteFile(outPath, pdfData, 0644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			slog.Info("Report written", "path", outPath, "bytes", len(pdfData))
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportPath, "file", "f", "", "Report model file (YAML)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output PDF path")
	cmd.Flags().StringArrayVar(&attachURLs, "attach", nil, "Attachment image URL (repeatable)")
	cmd.Flags().BoolVar(&share, "share", false, "Upload the PDF and print a WhatsApp share link")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// shareReport uploads the PDF to the configured object store and prints the
// public URL plus a wa.me link for the client's phone number.
func shareReport(cmd *cobra.Command, cfg *config.Config, rpt *report.Report, pdfData []byte) error {
	if cfg.Storage.Endpoint == "" {
		return fmt.Errorf("sharing requires object storage, set INSPEKT_S3_ENDPOINT")
	}
	store, err := storage.New(cfg.Storage)
	if err != nil {
		return err
	}
	if err := store.EnsureBucket(cmd.Context()); err != nil {
		return err
	}

	url, err := store.Upload(cmd.Context(), "report_"+rpt.RequestID+".pdf", pdfData, "application/pdf")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, url)

	if rpt.Client.Phone != "" {
		link, err := storage.WhatsAppLink(rpt.Client.Phone, "Your inspection report: "+url)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, link)
	}
	return nil
}
