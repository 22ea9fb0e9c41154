package config

import (
	"fmt"
	"io/fs"
	"os"
)

// Task sets selectable by name.
const (
	TaskSetTraining   = "training"
	TaskSetEvaluation = "evaluation"
)

// TasksEnv maps task directories to environment variable names.
type TasksEnv struct {
	TrainingDir   string
	EvaluationDir string
}

var tasksEnv = &TasksEnv{
	TrainingDir:   "ARCSOLVE_TASKS_TRAINING_DIR",
	EvaluationDir: "ARCSOLVE_TASKS_EVALUATION_DIR",
}

// TasksConfig locates the ARC task JSON directories.
type TasksConfig struct {
	TrainingDir   string `toml:"training_dir"`
	EvaluationDir string `toml:"evaluation_dir"`
}

// FS opens the named task set as a filesystem rooted at its directory.
func (c *TasksConfig) FS(set string) (fs.FS, error) {
	switch set {
	case TaskSetTraining, "":
		return os.DirFS(c.TrainingDir), nil
	case TaskSetEvaluation:
		return os.DirFS(c.EvaluationDir), nil
	default:
		return nil, fmt.Errorf("unknown task set %q", set)
	}
}

func (c *TasksConfig) Finalize(env *TasksEnv) error {
	if c.TrainingDir == "" {
		c.TrainingDir = "data/training"
	}
	if c.EvaluationDir == "" {
		c.EvaluationDir = "data/evaluation"
	}
	if env != nil {
		setString(env.TrainingDir, &c.TrainingDir)
		setString(env.EvaluationDir, &c.EvaluationDir)
	}
	return nil
}

func (c *TasksConfig) Merge(overlay *TasksConfig) {
	if overlay.TrainingDir != "" {
		c.TrainingDir = overlay.TrainingDir
	}
	if overlay.EvaluationDir != "" {
		c.EvaluationDir = overlay.EvaluationDir
	}
}
