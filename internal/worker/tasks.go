package worker

import (
	"fmt"
	"path/filepath"

	"github.com/MeKo-Tech/landscape/internal/scene"
)

// VariationTasks builds n tasks rendering scene.Variation(cfg, i) into
// dir/<prefix>_<i><ext>.
func VariationTasks(cfg scene.SceneConfig, n int, dir, prefix, ext string, force bool) []Task {
	tasks := make([]Task, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%s_%03d", prefix, i)
		tasks = append(tasks, Task{
			Name:    name,
			OutPath: filepath.Join(dir, name+ext),
			Scene:   scene.Variation(cfg, i),
			Force:   force,
		})
	}
	return tasks
}
