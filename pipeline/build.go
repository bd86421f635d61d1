package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Artifact is one output file flowing through the pipeline. Stages
// transform Contents in place; the write stage persists it.
type Artifact struct {
	// Path is the destination-relative output path.
	Path string
	// SourcePath is the source file this artifact was compiled from.
	SourcePath string
	// Contents is the current artifact body.
	Contents []byte
	// SourceMap is the positional debugging metadata, when enabled.
	SourceMap []byte
}

// Build carries the per-run state threaded through every stage.
type Build struct {
	// RunID uniquely identifies this pipeline run.
	RunID string
	// StartedAt is when the run began.
	StartedAt time.Time
	// Sources is the resolved list of input files.
	Sources []string
	// Artifacts accumulates outputs as stages run.
	Artifacts []*Artifact
	// Meta holds small cross-stage values (counts, notes).
	Meta map[string]any
}

// NewBuild creates a Build with a fresh run ID.
func NewBuild() *Build {
	return &Build{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Meta:      make(map[string]any),
	}
}

// Artifact returns the artifact for the given destination path, or nil.
func (b *Build) Artifact(path string) *Artifact {
	for _, a := range b.Artifacts {
		if a.Path == path {
			return a
		}
	}
	return nil
}
