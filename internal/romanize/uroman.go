package romanize

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"lyricsync/internal/services"
)

const (
	// UromanCommand is the default uroman executable.
	UromanCommand = "uroman"
	// UromanLanguage is the ISO 639-3 code passed to uroman.
	UromanLanguage = "jpn"

	defaultUromanTimeout = 30 * time.Second
)

// Uroman romanizes through the external uroman tool using its edges output format.
type Uroman struct {
	command       string
	language      string
	timeout       time.Duration
	workDir       string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewUroman creates a uroman romanizer. Temporary files are written under workDir
// (os.TempDir when empty).
func NewUroman(command, workDir string) *Uroman {
	if strings.TrimSpace(command) == "" {
		command = UromanCommand
	}
	return &Uroman{
		command:  command,
		language: UromanLanguage,
		timeout:  defaultUromanTimeout,
		workDir:  workDir,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (u *Uroman) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	u.commandRunner = runner
}

// Romanize implements Romanizer.
func (u *Uroman) Romanize(text string) ([]Edge, error) {
	if text == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), u.timeout)
	defer cancel()

	dir, err := os.MkdirTemp(u.workDir, "uroman-")
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "romanization", "prepare uroman", "failed to create temp dir", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input.txt")
	output := filepath.Join(dir, "output.jsonl")
	// Newlines would split the input into several records; spaces keep rune offsets intact.
	flattened := strings.NewReplacer("\r", " ", "\n", " ").Replace(text)
	if err := os.WriteFile(input, []byte(flattened+"\n"), 0o644); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "romanization", "prepare uroman", "failed to write input", err)
	}

	args := []string{
		"-l", u.language,
		"--rom_format", "edges",
		"-i", input,
		"-o", output,
	}
	if err := u.run(ctx, args...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "romanization", "run uroman", "uroman failed", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "romanization", "read uroman output", "missing output", err)
	}
	edges, err := ParseUromanEdges(data)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "romanization", "parse uroman output", "malformed edges", err)
	}
	if err := CheckEdges(text, edges); err != nil {
		return nil, services.Wrap(services.ErrValidation, "romanization", "check uroman edges", fmt.Sprintf("edges do not cover %q", text), err)
	}
	return edges, nil
}

func (u *Uroman) run(ctx context.Context, args ...string) error {
	if u.commandRunner != nil {
		return u.commandRunner(ctx, u.command, args...)
	}
	cmd := exec.CommandContext(ctx, u.command, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", u.command, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// ParseUromanEdges decodes uroman edges output: one JSON array per input line whose
// entries are [start, end, text, ...]. Only the first non-empty line is read.
func ParseUromanEdges(data []byte) ([]Edge, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var raw [][]json.RawMessage
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, fmt.Errorf("decode edges: %w", err)
		}
		edges := make([]Edge, 0, len(raw))
		for i, entry := range raw {
			if len(entry) < 3 {
				return nil, fmt.Errorf("edge %d: expected at least 3 fields, got %d", i, len(entry))
			}
			var edge Edge
			if err := json.Unmarshal(entry[0], &edge.Start); err != nil {
				return nil, fmt.Errorf("edge %d start: %w", i, err)
			}
			if err := json.Unmarshal(entry[1], &edge.End); err != nil {
				return nil, fmt.Errorf("edge %d end: %w", i, err)
			}
			if err := json.Unmarshal(entry[2], &edge.Text); err != nil {
				return nil, fmt.Errorf("edge %d text: %w", i, err)
			}
			edges = append(edges, edge)
		}
		return edges, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("decode edges: empty output")
}
