package service

import (
	"context"
	"errors"
	"testing"

	"cubedraft/internal/config"
	"cubedraft/internal/repository"

	"github.com/rs/zerolog"
)

func newDirectoryHarness(identity *fakeIdentity) (*DirectoryService, *fakeRows) {
	rows := newFakeRows()
	cfg := &config.Config{SpreadsheetID: "sheet"}
	repo := repository.NewDirectoryRepository(rows, cfg, zerolog.Nop())
	return NewDirectoryService(repo, identity, zerolog.Nop()), rows
}

func TestEnsureRegisteredIsIdempotent(t *testing.T) {
	svc, rows := newDirectoryHarness(&fakeIdentity{})
	ctx := context.Background()

	if err := svc.EnsureRegistered(ctx, "Alice", "u1"); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	// A second registration keeps the first name, even if it changed upstream.
	if err := svc.EnsureRegistered(ctx, "Alicia", "u1"); err != nil {
		t.Fatalf("repeat registration failed: %v", err)
	}

	got := rows.tabRows("PlayerDirectory")
	if len(got) != 2 { // header + one entry
		t.Fatalf("directory has %d rows, want 2", len(got))
	}
	if got[1][0] != "Alice" || got[1][1] != "u1" {
		t.Errorf("directory row = %v, want [Alice u1]", got[1])
	}

	name, found, err := svc.ResolveName(ctx, "u1")
	if err != nil || !found || name != "Alice" {
		t.Errorf("ResolveName = (%q, %v, %v), want (Alice, true, nil)", name, found, err)
	}
}

func TestDisplayNameFallbacks(t *testing.T) {
	t.Run("directory hit", func(t *testing.T) {
		svc, _ := newDirectoryHarness(&fakeIdentity{})
		ctx := context.Background()
		if err := svc.EnsureRegistered(ctx, "Bob", "u2"); err != nil {
			t.Fatal(err)
		}
		if got := svc.DisplayName(ctx, "u2"); got != "Bob" {
			t.Errorf("DisplayName = %q, want Bob", got)
		}
	})

	t.Run("identity fallback", func(t *testing.T) {
		svc, _ := newDirectoryHarness(&fakeIdentity{names: map[string]string{"u3": "Carol"}})
		if got := svc.DisplayName(context.Background(), "u3"); got != "Carol" {
			t.Errorf("DisplayName = %q, want Carol", got)
		}
	})

	t.Run("placeholder on fetch failure", func(t *testing.T) {
		svc, _ := newDirectoryHarness(&fakeIdentity{err: errors.New("api down")})
		if got := svc.DisplayName(context.Background(), "u4"); got != "player-u4" {
			t.Errorf("DisplayName = %q, want player-u4", got)
		}
	})
}

func TestPodMaterialization(t *testing.T) {
	rows := newFakeRows()
	msgr := newFakeMessenger()
	cfg := &config.Config{SpreadsheetID: "sheet"}
	log := zerolog.Nop()

	directory := NewDirectoryService(
		repository.NewDirectoryRepository(rows, cfg, log),
		&fakeIdentity{names: map[string]string{
			"u1": "Alice", "u2": "Bob", "u3": "Carol", "u4": "Dave",
			"u5": "Erin", "u6": "Frank", "u7": "Grace", "u8": "Heidi",
		}},
		log,
	)
	bracket := NewBracketService(
		repository.NewBracketRepository(rows, cfg, log),
		repository.NewMatchLogRepository(rows, cfg, log),
		msgr, cfg, log,
	)
	pods := NewPodService(repository.NewPodLogRepository(rows, cfg, log), directory, bracket, log)

	ctx := context.Background()
	members := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8"}
	if err := pods.Materialize(ctx, "CUBE", members); err != nil {
		t.Fatalf("Materialize failed: %v", err)
	}

	if used, err := pods.NameUsed(ctx, "cube"); err != nil || !used {
		t.Errorf("NameUsed after materialize = (%v, %v), want (true, nil)", used, err)
	}

	podRows := rows.tabRows("PodLog")
	if len(podRows) != 9 { // header + 8 members
		t.Fatalf("pod log has %d rows, want 9", len(podRows))
	}
	if podRows[1][0] != "Alice" || podRows[1][1] != "u1" || podRows[1][2] != "CUBE" {
		t.Errorf("pod log row = %v, want [Alice u1 CUBE]", podRows[1])
	}

	bracketRows := rows.tabRows("Bracket")
	if len(bracketRows) != 5 { // header + 4 round-1 matchups
		t.Fatalf("bracket has %d rows, want 5", len(bracketRows))
	}

	directoryRows := rows.tabRows("PlayerDirectory")
	if len(directoryRows) != 9 { // header + 8 registrations
		t.Errorf("directory has %d rows, want 9", len(directoryRows))
	}
}
