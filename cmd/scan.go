package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/workshoplabs/inspekt/internal/camera"
	"github.com/workshoplabs/inspekt/internal/capture"
	"github.com/workshoplabs/inspekt/internal/config"
)

func newScanCmd() *cobra.Command {
	var (
		imagePath string
		outDir    string
		vpWidth   int
		vpHeight  int
		scale     float64
		panX      float64
		panY      float64
		rotation  int
		filter    string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Normalize a photographed document into a clean scan",
		Long: `Reads a photographed document, applies the view transform and filter,
and writes the normalized JPEG scan next to the source or into --out.`,
		Example: `  # Plain scan with the document filter
  inspekt scan --image photo.jpg --filter document

  # Rotate a landscape shot upright and zoom in
  inspekt scan --image photo.jpg --rotation 90 --scale 1.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			sess := capture.NewSession(capture.DocumentScaleBounds).
				WithScale(scale).
				WithPan(panX, panY).
				RotatedBy(rotation)
			switch capture.Mode(filter) {
			case capture.FilterOriginal, "":
			case capture.FilterDocument, capture.FilterBlackAndWhite:
				sess = sess.WithFilter(capture.Mode(filter))
			default:
				return fmt.Errorf("unknown filter %q", filter)
			}

			source := camera.FileCapture{Path: imagePath}
			var doc *capture.Document
			err = camera.WithStream(cmd.Context(), source, func(s camera.Stream) error {
				data, err := s.Still(cmd.Context())
				if err != nil {
					return err
				}
				img, err := capture.StdImageSource{}.Decode(data)
				if err != nil {
					return err
				}

				vp := capture.Viewport{Width: vpWidth, Height: vpHeight}
				if vp.Width <= 0 || vp.Height <= 0 {
					// Default the viewport to the source frame itself.
					b := img.Bounds()
					vp = capture.Viewport{Width: b.Dx(), Height: b.Dy()}
				}

				doc, err = capture.Render(img, vp, sess, capture.RenderOptions{
					OutputWidth: cfg.OutputWidth,
					Quality:     cfg.JPEGQuality,
				})
				return err
			})
			if err != nil {
				return err
			}

			if outDir == "" {
				outDir = filepath.Dir(imagePath)
			}
			outPath := filepath.Join(outDir, doc.Name)
			if err := os.WriteFile(outPath, doc.Data, 0644); err != nil {
				return fmt.Errorf("write scan: %w", err)
			}

			slog.Info("Scan written", "path", outPath, "width", doc.Width, "height", doc.Height)
			return nil
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Source photo to normalize")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (defaults to the source directory)")
	cmd.Flags().IntVar(&vpWidth, "viewport-width", 0, "Viewport width in pixels (defaults to source width)")
	cmd.Flags().IntVar(&vpHeight, "viewport-height", 0, "Viewport height in pixels (defaults to source height)")
	cmd.Flags().Float64Var(&scale, "scale", 1.0, "Zoom level")
	cmd.Flags().Float64Var(&panX, "pan-x", 0, "Horizontal pan in viewport pixels")
	cmd.Flags().Float64Var(&panY, "pan-y", 0, "Vertical pan in viewport pixels")
	cmd.Flags().IntVar(&rotation, "rotation", 0, "Rotation in degrees (90-degree steps)")
	cmd.Flags().StringVarP(&filter, "filter", "f", "original", "Filter: original, document or black_and_white")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}
