package coordinator

import (
	"fmt"
	"time"
)

// Task represents one training assignment handed to a worker node. The
// coordinator advances the task on every sync tick until the final step.
type Task struct {
	ArtifactID string    `json:"artifact_id"`
	Step       int       `json:"step"`
	TotalSteps int       `json:"total_steps"`
	Loss       float64   `json:"loss"`
	Accuracy   float64   `json:"accuracy"`
	Samples    uint64    `json:"samples"`
	Started    time.Time `json:"started"`
}

// Steps assigned by workload class. Accelerated nodes take the longer
// transformer workloads; everyone else trains the small classifier.
const (
	heavySteps = 100
	lightSteps = 50
)

// artifactPool bounds the number of distinct artifacts per workload class.
// Assignments cycle through the pool, so enough workers land on the same
// artifact and compete against its best known accuracy.
const artifactPool = 10

// newTask assigns a fresh workload sized to the node's hardware. The
// sequence number picks the artifact round-robin from the bounded pool.
func newTask(seq uint64, accelerators int, samples uint64) *Task {
	task := Task{
		Loss:    10.0,
		Samples: samples,
		Started: time.Now().UTC(),
	}

	if accelerators > 0 {
		task.ArtifactID = fmt.Sprintf("transformer-xl-%d", seq%artifactPool)
		task.TotalSteps = heavySteps
		return &task
	}

	task.ArtifactID = fmt.Sprintf("mlp-classifier-%d", seq%artifactPool)
	task.TotalSteps = lightSteps

	return &task
}

// done reports whether the task has reached its final step.
func (t *Task) done() bool {
	return t.Step >= t.TotalSteps
}
