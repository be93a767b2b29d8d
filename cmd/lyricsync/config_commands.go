package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lyricsync/internal/config"
	"lyricsync/internal/deps"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Install uv (for uvx) and ffmpeg before running `lyricsync run`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				fmt.Fprintln(out, statusLine(out, false, "Configuration invalid"))
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintf(out, "Romanizer:   %s\n", cfg.Romanization.Engine)
			fmt.Fprintf(out, "Furigana:    %s\n", yesNo(cfg.Romanization.AutoFurigana))
			fmt.Fprintf(out, "CUDA:        %s\n", yesNo(cfg.Alignment.CUDAEnabled))
			fmt.Fprintf(out, "Cache:       %s\n", cfg.AlignmentCachePath())
			fmt.Fprintln(out, statusLine(out, true, "Configuration valid"))
			printDependencies(out, deps.CheckBinaries(deps.Requirements(cfg)))
			return nil
		},
	}
}

func printDependencies(out io.Writer, statuses []deps.Status) {
	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		state := "available"
		switch {
		case !status.Available && status.Optional:
			state = "optional, " + status.Detail
		case !status.Available:
			state = status.Detail
		}
		rows = append(rows, []string{status.Name, status.Command, state})
	}
	fmt.Fprintln(out, renderTable([]string{"Dependency", "Command", "Status"}, rows, nil))
	for _, missing := range deps.Missing(statuses) {
		fmt.Fprintln(out, statusLine(out, false, fmt.Sprintf("%s missing: %s", missing.Name, missing.Description)))
	}
}
