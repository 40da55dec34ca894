// Package worker renders batches of scenes in parallel.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MeKo-Tech/landscape/internal/scene"
)

// Generator renders one scene to a file.
// This matches the signature of pipeline.Generator.Generate.
type Generator interface {
	Generate(ctx context.Context, cfg scene.SceneConfig, outPath string, force bool) (path string, err error)
}

// Task is a single render.
type Task struct {
	Name    string
	OutPath string
	Scene   scene.SceneConfig
	Force   bool
}

// Pixels is the canvas area of the task's scene.
func (t Task) Pixels() int64 {
	return int64(t.Scene.Width) * int64(t.Scene.Height)
}

// Result is the outcome of one task.
type Result struct {
	Task    Task
	Path    string
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called once per finished task, in completion order.
type ProgressFunc func(r Result, completed, total int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Generator  Generator
	OnProgress ProgressFunc
}

// Pool renders tasks on a fixed number of workers.
type Pool struct {
	workers    int
	generator  Generator
	onProgress ProgressFunc
}

// New creates a worker pool. Fewer than one worker means one.
func New(cfg Config) *Pool {
	return &Pool{
		workers:    max(cfg.Workers, 1),
		generator:  cfg.Generator,
		onProgress: cfg.OnProgress,
	}
}

// Run renders every task and returns one Result per task, in task order.
// Tasks not yet started when ctx is cancelled fail with the ctx error
// without reaching the generator.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	next := make(chan int, len(tasks))
	for i := range tasks {
		next <- i
	}
	close(next)

	results := make([]Result, len(tasks))
	finished := make(chan int)

	var wg sync.WaitGroup
	for range min(p.workers, len(tasks)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				results[i] = p.render(ctx, tasks[i])
				finished <- i
			}
		}()
	}
	go func() {
		wg.Wait()
		close(finished)
	}()

	completed := 0
	for i := range finished {
		completed++
		if p.onProgress != nil {
			p.onProgress(results[i], completed, len(tasks))
		}
	}
	return results
}

func (p *Pool) render(ctx context.Context, task Task) Result {
	if err := ctx.Err(); err != nil {
		return Result{Task: task, Err: fmt.Errorf("%s not started: %w", task.Name, err)}
	}

	start := time.Now()
	path, err := p.generator.Generate(ctx, task.Scene, task.OutPath, task.Force)
	return Result{
		Task:    task,
		Path:    path,
		Err:     err,
		Elapsed: time.Since(start),
	}
}
