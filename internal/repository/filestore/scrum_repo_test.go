package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KangGunn/Madcamp-Week4/internal/domain/scrum"
)

func TestScrumRepoRoundTripsThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrum.json")
	ctx := context.Background()

	repo, err := NewScrumRepo(path, nil)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	if _, err := repo.Get(ctx, "C1"); !errors.Is(err, scrum.ErrNotSet) {
		t.Fatalf("expected ErrNotSet, got %v", err)
	}
	if err := repo.Save(ctx, scrum.Setting{ChannelID: "C2", Time: "10:00"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, scrum.Setting{ChannelID: "C1", Time: "09:00"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var onDisk map[string]map[string]string
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if onDisk["C1"]["scrum_time"] != "09:00" {
		t.Fatalf("unexpected file layout %s", data)
	}

	reopened, err := NewScrumRepo(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	list, _ := reopened.List(ctx)
	if len(list) != 2 || list[0].ChannelID != "C1" || list[1].Time != "10:00" {
		t.Fatalf("unexpected settings %+v", list)
	}
}

func TestScrumRepoIgnoresLegacyLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrum.json")
	if err := os.WriteFile(path, []byte(`{"scrum_time": "09:00"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	repo, err := NewScrumRepo(path, nil)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	list, _ := repo.List(context.Background())
	if len(list) != 0 {
		t.Fatalf("legacy data must be ignored, got %+v", list)
	}
}

func TestScrumRepoSkipsBadEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrum.json")
	body := `{"C1": {"scrum_time": "09:00"}, "C2": "oops", "C3": {}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	repo, err := NewScrumRepo(path, nil)
	if err != nil {
		t.Fatalf("new repo: %v", err)
	}
	list, _ := repo.List(context.Background())
	if len(list) != 1 || list[0].ChannelID != "C1" {
		t.Fatalf("unexpected settings %+v", list)
	}
}

func TestScrumRepoRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scrum.json")
	if err := os.WriteFile(path, []byte(`{not json`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewScrumRepo(path, nil); err == nil {
		t.Fatalf("expected decode error")
	}
}
