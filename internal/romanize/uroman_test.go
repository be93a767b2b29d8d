package romanize_test

import (
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"testing"

	"lyricsync/internal/romanize"
	"lyricsync/internal/services"
)

func argValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func TestUromanRomanizeParsesEdges(t *testing.T) {
	u := romanize.NewUroman("", t.TempDir())
	var gotName string
	var gotInput string
	u.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		data, err := os.ReadFile(argValue(args, "-i"))
		if err != nil {
			return err
		}
		gotInput = string(data)
		out := `[[0, 1, "ha", "rom"], [1, 2, "shi", "rom"], [2, 3, "ru", "rom"]]` + "\n"
		return os.WriteFile(argValue(args, "-o"), []byte(out), 0o644)
	})

	edges, err := u.Romanize("はしる")
	if err != nil {
		t.Fatalf("Romanize: %v", err)
	}
	want := []romanize.Edge{{0, 1, "ha"}, {1, 2, "shi"}, {2, 3, "ru"}}
	if !reflect.DeepEqual(edges, want) {
		t.Fatalf("unexpected edges: %v", edges)
	}
	if gotName != romanize.UromanCommand {
		t.Fatalf("unexpected command %q", gotName)
	}
	if strings.TrimSpace(gotInput) != "はしる" {
		t.Fatalf("unexpected input %q", gotInput)
	}
}

func TestUromanRejectsGappedEdges(t *testing.T) {
	u := romanize.NewUroman("uroman.py", t.TempDir())
	u.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		return os.WriteFile(argValue(args, "-o"), []byte(`[[0, 1, "ha", "rom"]]`), 0o644)
	})
	_, err := u.Romanize("はしる")
	if !errors.Is(err, romanize.ErrInvalidEdges) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected invalid edges validation error, got %v", err)
	}
}

func TestUromanRunnerFailure(t *testing.T) {
	u := romanize.NewUroman("", t.TempDir())
	u.WithCommandRunner(func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	})
	if _, err := u.Romanize("あ"); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestParseUromanEdgesMalformed(t *testing.T) {
	for _, in := range []string{"", "not json", `[[0, 1]]`} {
		if _, err := romanize.ParseUromanEdges([]byte(in)); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}
