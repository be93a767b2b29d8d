package services_test

import (
	"context"
	"testing"

	"lyricsync/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-123")
	ctx = services.WithStage(ctx, "alignment")
	ctx = services.WithSong(ctx, "aozora")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-123" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "alignment" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if song, ok := services.SongFromContext(ctx); !ok || song != "aozora" {
		t.Fatalf("unexpected song: %v %v", song, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
