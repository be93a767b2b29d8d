package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lyricsync/internal/align"
	"lyricsync/internal/config"
	"lyricsync/internal/pipeline"
)

type syllableRow struct {
	Line  int    `json:"line" yaml:"line"`
	Index int    `json:"index" yaml:"index"`
	Kana  string `json:"kana" yaml:"kana"`
	Kanji string `json:"kanji,omitempty" yaml:"kanji,omitempty"`
	Roman string `json:"roman" yaml:"roman"`
}

// lyricsOptions skips the alignment cache; these commands never align.
func lyricsOptions() []pipeline.Option {
	return []pipeline.Option{pipeline.WithCache(nil)}
}

func newSyllablesCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "syllables <lyrics>",
		Short: "Show how a lyrics file splits into syllables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			switch format {
			case "table", "json", "yaml":
			default:
				return fmt.Errorf("unknown format %q (want table, json or yaml)", format)
			}
			return ctx.withPipeline(lyricsOptions(), func(_ *config.Config, svc *pipeline.Service) error {
				text, err := svc.LoadLyrics(args[0])
				if err != nil {
					return err
				}
				var rows []syllableRow
				for li, line := range text.Lines() {
					syllables, err := line.Syllables()
					if err != nil {
						return fmt.Errorf("line %d: %w", li+1, err)
					}
					for si, syl := range syllables {
						rows = append(rows, syllableRow{Line: li + 1, Index: si + 1, Kana: syl.Kana, Kanji: syl.Kanji, Roman: syl.Roman})
					}
				}

				switch format {
				case "json":
					return writeJSON(cmd, rows)
				case "yaml":
					return writeYAML(cmd, rows)
				}
				tableRows := make([][]string, 0, len(rows))
				for _, row := range rows {
					tableRows = append(tableRows, []string{
						strconv.Itoa(row.Line),
						strconv.Itoa(row.Index),
						row.Kana,
						row.Kanji,
						strconv.Quote(row.Roman),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Line", "#", "Kana", "Kanji", "Roman"},
					tableRows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")
	return cmd
}

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transcript <lyrics>",
		Short: "Print the normalized words sent to the aligner, one lyric line per row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withPipeline(lyricsOptions(), func(_ *config.Config, svc *pipeline.Service) error {
				text, err := svc.LoadLyrics(args[0])
				if err != nil {
					return err
				}
				vocab := align.NewCharTokenizer("").Vocabulary()
				out := cmd.OutOrStdout()
				for li, line := range text.Lines() {
					words, err := line.Transcript(vocab)
					if err != nil {
						return fmt.Errorf("line %d: %w", li+1, err)
					}
					fmt.Fprintln(out, strings.Join(words, " "))
				}
				return nil
			})
		},
	}
}
