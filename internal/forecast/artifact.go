package forecast

import (
	"fmt"

	"github.com/vk/forecastgrid/internal/artifact"
)

// Artifact is the persisted form of a trained model.
type Artifact struct {
	Model        string `json:"model"`
	TargetColumn string `json:"target_column"`
	TimeColumn   string `json:"time_column"`
	TrainedFrom  string `json:"trained_from"`
	TrainedUntil string `json:"trained_until"`
	Observations int    `json:"observations"`
	State        State  `json:"state"`
}

// ReadArtifact loads a model artifact and checks the model is known.
func ReadArtifact(path string) (*Artifact, error) {
	var a Artifact
	if err := artifact.ReadJSON(path, &a); err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}
	if _, err := Lookup(a.Model); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &a, nil
}
