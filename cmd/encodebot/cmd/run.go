package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lumenmedia/encodebot/internal/config"
	"github.com/lumenmedia/encodebot/internal/janitor"
	"github.com/lumenmedia/encodebot/internal/job"
	"github.com/lumenmedia/encodebot/internal/notify"
	"github.com/lumenmedia/encodebot/internal/settings"
	"github.com/lumenmedia/encodebot/pkg/plan"
)

var runFlags struct {
	op             string
	outDir         string
	resolution     string
	crf            int
	start          string
	end            string
	aspect         string
	at             string
	subtitlePath   string
	burnIn         bool
	audioPath      string
	watermarkText  string
	watermarkImage string
}

var runCmd = &cobra.Command{
	Use:   "run --op <operation> <input>...",
	Short: "Run one media operation locally",
	Long: `Run executes a single operation against local files, with the same
pipeline a chat frontend uses: plan, supervised ffmpeg, progress reporting
and cleanup. The result lands in --out.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.op, "op", "", "operation: transcode, trim, crop, compress, extract-audio, thumbnail, extract-subtitle, add-subtitle, remove-subtitle, add-audio, remove-audio, merge")
	f.StringVar(&runFlags.outDir, "out", ".", "directory to place the result in")
	f.StringVar(&runFlags.resolution, "resolution", plan.DefaultResolution, "target resolution for transcode")
	f.IntVar(&runFlags.crf, "crf", 0, "constant rate factor (0 = operation default)")
	f.StringVar(&runFlags.start, "start", "", "trim start (HH:MM:SS, MM:SS or seconds)")
	f.StringVar(&runFlags.end, "end", "", "trim end")
	f.StringVar(&runFlags.aspect, "aspect", "", "crop aspect ratio (16:9, 9:16, 1:1, 4:3)")
	f.StringVar(&runFlags.at, "at", "", "thumbnail position")
	f.StringVar(&runFlags.subtitlePath, "subtitle", "", "subtitle file for add-subtitle")
	f.BoolVar(&runFlags.burnIn, "burn-in", false, "burn the subtitle into the video instead of soft-muxing")
	f.StringVar(&runFlags.audioPath, "audio", "", "audio file for add-audio")
	f.StringVar(&runFlags.watermarkText, "watermark-text", "", "text watermark for transcode")
	f.StringVar(&runFlags.watermarkImage, "watermark-image", "", "image watermark for transcode")
	runCmd.MarkFlagRequired("op")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The CLI is usable without any environment: fill the required settings
	// with local defaults, still overridable via env.
	viper.SetDefault("WORK_DIR", os.TempDir())
	viper.SetDefault("DATABASE_PATH", filepath.Join(os.TempDir(), "encodebot.db"))

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		return err
	}

	op, err := buildOperation(cfg)
	if err != nil {
		return err
	}

	log := slog.Default()

	// Sweep workspaces orphaned by earlier crashes before starting new work.
	jan := janitor.New(cfg.WorkDir, cfg.CleanupMaxAge, log)
	if _, err := jan.Sweep(ctx); err != nil {
		log.Warn("startup sweep failed", "error", err)
	}

	store, err := settings.Open(cfg.DatabasePath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	sink := notify.Throttle(notify.NewConsole(log), cfg.ProgressInterval)
	coord := job.NewCoordinator(&localTransport{outDir: runFlags.outDir}, sink, store, job.Options{
		WorkRoot:       cfg.WorkDir,
		GracePeriod:    cfg.FFmpegGracePeriod,
		MaxJobDuration: cfg.MaxJobDuration,
		Logger:         log,
	})

	sources := make([]job.Source, 0, len(args))
	for _, a := range args {
		abs, err := filepath.Abs(a)
		if err != nil {
			return err
		}
		if _, err := os.Stat(abs); err != nil {
			return fmt.Errorf("input not found: %s", a)
		}
		sources = append(sources, job.Source{Path: abs, Name: filepath.Base(abs)})
	}

	h, err := coord.Submit(ctx, job.Request{Sources: sources, Op: op})
	if err != nil {
		return err
	}

	// Ctrl-C cancels the job; the handle still finishes cleanup before exit.
	go func() {
		<-ctx.Done()
		h.Cancel()
	}()

	if err := h.Wait(); err != nil {
		return err
	}
	if h.Phase() == job.PhaseCancelled {
		return errors.New("cancelled")
	}
	return nil
}

// buildOperation maps the run flags onto a plan operation.
func buildOperation(cfg *config.Config) (plan.Operation, error) {
	switch runFlags.op {
	case "transcode":
		return plan.Transcode{
			Resolution:     runFlags.resolution,
			Codec:          cfg.DefaultCodec,
			Preset:         cfg.DefaultPreset,
			CRF:            orDefault(runFlags.crf, cfg.DefaultCRF),
			AudioBitrate:   cfg.DefaultAudioBitrate,
			WatermarkText:  runFlags.watermarkText,
			WatermarkImage: runFlags.watermarkImage,
			Threads:        cfg.FFmpegThreads,
		}, nil
	case "trim":
		return plan.Trim{Start: runFlags.start, End: runFlags.end}, nil
	case "crop":
		return plan.Crop{AspectRatio: runFlags.aspect}, nil
	case "compress":
		return plan.Compress{CRF: runFlags.crf}, nil
	case "extract-audio":
		return plan.ExtractAudio{}, nil
	case "thumbnail":
		return plan.ExtractThumbnail{AtTime: runFlags.at}, nil
	case "extract-subtitle":
		return plan.ExtractSubtitle{}, nil
	case "add-subtitle":
		return plan.AddSubtitle{Path: runFlags.subtitlePath, BurnIn: runFlags.burnIn}, nil
	case "remove-subtitle":
		return plan.RemoveSubtitle{}, nil
	case "add-audio":
		return plan.AddAudio{AudioPath: runFlags.audioPath}, nil
	case "remove-audio":
		return plan.RemoveAudio{}, nil
	case "merge":
		return plan.MergeSequence{}, nil
	default:
		return nil, fmt.Errorf("unknown operation %q", runFlags.op)
	}
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// localTransport delivers results to a local directory. Download is never
// used because CLI sources are already local paths.
type localTransport struct {
	outDir string
}

func (t *localTransport) Download(_ context.Context, src job.Source, _ string) (string, error) {
	return "", fmt.Errorf("no remote source available for %q", src.FileID)
}

func (t *localTransport) Upload(_ context.Context, up job.Upload) error {
	if err := os.MkdirAll(t.outDir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(t.outDir, up.FileName)

	// Copy instead of rename: the workspace may be on another filesystem.
	in, err := os.Open(up.Path)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
