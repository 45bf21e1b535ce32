package ptt

import (
	"encoding/json"
	"fmt"
	"os"
)

// writeReport serializes the ordered run records to path. Array order is
// execution order.
func writeReport(path string, results []RunRecord) error {
	data, err := json.MarshalIndent(results, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
