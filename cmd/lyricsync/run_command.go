package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lyricsync/internal/config"
	"lyricsync/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		outputPath    string
		extractVocals bool
		maxLine       int
		metric        string
		workDir       string
	)

	cmd := &cobra.Command{
		Use:   "run <audio> <lyrics>",
		Short: "Align lyrics to a song and write a karaoke subtitle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(nil, func(cfg *config.Config, svc *pipeline.Service) error {
				req := pipeline.Request{
					AudioPath:     args[0],
					LyricsPath:    args[1],
					OutputPath:    outputPath,
					ExtractVocals: cfg.Vocals.Enabled,
					MaxLineLength: maxLine,
					Metric:        metric,
					WorkDir:       workDir,
				}
				if cmd.Flags().Changed("extract-vocals") {
					req.ExtractVocals = extractVocals
				}

				out := cmd.OutOrStdout()
				res, err := svc.Run(cmd.Context(), req)
				if err != nil {
					fmt.Fprintln(out, statusLine(out, false, "alignment failed"))
					return err
				}
				fmt.Fprintln(out, statusLine(out, true, fmt.Sprintf("Wrote %s", res.OutputPath)))
				fmt.Fprintf(out, "Run:       %s\n", res.RunID)
				fmt.Fprintf(out, "Lines:     %d\n", res.Lines)
				fmt.Fprintf(out, "Syllables: %d\n", res.Syllables)
				fmt.Fprintf(out, "Cache hit: %s\n", yesNo(res.CacheHit))
				fmt.Fprintf(out, "Elapsed:   %s\n", res.Elapsed.Round(time.Millisecond))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Subtitle path (defaults to the audio path with .ass)")
	cmd.Flags().BoolVar(&extractVocals, "extract-vocals", true, "Separate vocals with demucs before alignment (defaults to vocals.enabled)")
	cmd.Flags().IntVar(&maxLine, "max-line", 0, "Rewrap lines longer than this many characters (0 uses layout.max_line_length)")
	cmd.Flags().StringVar(&metric, "metric", "", "Line length metric: roman or native (defaults to layout.metric)")
	cmd.Flags().StringVar(&workDir, "work-dir", "", "Keep intermediate audio in this directory")
	return cmd
}
