package worker

import (
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/landscape/internal/scene"
)

func TestVariationTasks(t *testing.T) {
	cfg := scene.Default()
	tasks := VariationTasks(cfg, 3, "out", "dusk", ".webp", true)

	if len(tasks) != 3 {
		t.Fatalf("Expected 3 tasks, got %d", len(tasks))
	}
	for i, tk := range tasks {
		if tk.Scene.Seed != cfg.Seed+int64(i) {
			t.Errorf("task %d: seed %d, want %d", i, tk.Scene.Seed, cfg.Seed+int64(i))
		}
		if !tk.Force {
			t.Errorf("task %d: force not set", i)
		}
	}
	if want := filepath.Join("out", "dusk_002.webp"); tasks[2].OutPath != want {
		t.Errorf("OutPath = %s, want %s", tasks[2].OutPath, want)
	}
	if tasks[0].Name != "dusk_000" {
		t.Errorf("Name = %s", tasks[0].Name)
	}
}
