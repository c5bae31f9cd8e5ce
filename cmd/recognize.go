package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/workshoplabs/inspekt/internal/camera"
	"github.com/workshoplabs/inspekt/internal/config"
	"github.com/workshoplabs/inspekt/internal/recognize"
)

func newRecognizeCmd() *cobra.Command {
	var (
		imagePath string
		mode      string
	)

	cmd := &cobra.Command{
		Use:   "recognize",
		Short: "Extract plate, vehicle or text data from a photo",
		Long: `Sends a photo to the vision model and prints the recognized data as JSON.

Requires GEMINI_API_KEY in the environment or a .env file.`,
		Example: `  # Read a license plate
  inspekt recognize --image plate.jpg --mode plate

  # Identify the vehicle
  inspekt recognize --image car.jpg --mode car_details`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			m, err := recognize.ParseMode(mode)
			if err != nil {
				return err
			}

			client, err := recognize.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel)
			if err != nil {
				return err
			}

			var result *recognize.Result
			err = camera.WithStream(cmd.Context(), camera.FileCapture{Path: imagePath}, func(s camera.Stream) error {
				data, err := s.Still(cmd.Context())
				if err != nil {
					return err
				}
				result, err = client.Recognize(cmd.Context(), data, m)
				return err
			})
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Fprintln(os.Stdout, string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Photo to recognize")
	cmd.Flags().StringVarP(&mode, "mode", "m", "plate", "Recognition mode: plate, car_details or text_correction")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}
