package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"nsecli/internal/config"
	"nsecli/pkg/contracts/domain"
)

// WriteRunMetadata records the outcome of a pipeline run as JSON at its
// well-known path, overwriting the previous run's record.
func WriteRunMetadata(paths *config.Paths, meta domain.RunMetadata) error {
	if err := os.MkdirAll(filepath.Dir(paths.RunMetadataJSON), 0755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run metadata: %w", err)
	}
	if err := os.WriteFile(paths.RunMetadataJSON, data, 0644); err != nil {
		return fmt.Errorf("failed to write run metadata: %w", err)
	}
	return nil
}

// ReadRunMetadata loads the last run's record, if any.
func ReadRunMetadata(paths *config.Paths) (*domain.RunMetadata, error) {
	data, err := os.ReadFile(paths.RunMetadataJSON)
	if err != nil {
		return nil, err
	}
	var meta domain.RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse run metadata: %w", err)
	}
	return &meta, nil
}
