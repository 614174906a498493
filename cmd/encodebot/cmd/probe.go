package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumenmedia/encodebot/pkg/ffmpeg"
	"github.com/lumenmedia/encodebot/pkg/utils/format"
)

var probeJSON bool

var probeCmd = &cobra.Command{
	Use:   "probe <file>",
	Short: "Inspect a media file",
	Long:  "Probe prints the container and stream metadata ffprobe reports for a file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := ffmpeg.Probe(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if probeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Printf("format: %s\n", result.FormatName)
		fmt.Printf("duration: %s\n", format.Duration(result.Duration))
		fmt.Printf("size: %s\n", format.Bytes(result.Size))
		if result.HasVideo() {
			fmt.Printf("video: %s %dx%d %.2ffps\n",
				result.VideoCodec, result.Width, result.Height, result.FPS)
		}
		if result.HasAudio() {
			fmt.Printf("audio: %s %dch %dHz\n",
				result.AudioCodec, result.AudioChannels, result.AudioSampleRate)
		}
		return nil
	},
}

func init() {
	probeCmd.Flags().BoolVar(&probeJSON, "json", false, "output raw probe data as JSON")
	rootCmd.AddCommand(probeCmd)
}
