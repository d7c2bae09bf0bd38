package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/forPelevin/trendclip/internal/types"
)

func WriteManifest(path string, m types.Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}
