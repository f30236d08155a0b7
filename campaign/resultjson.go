package campaign

import (
	"encoding/json"
	"fmt"
	"os"
)

// SaveResult renders a SimulationResult to indented JSON matching the
// "Simulation result JSON" shape of spec.md §6.
func SaveResult(res *SimulationResult) ([]byte, error) {
	raw, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("campaign: encoding result: %w", err)
	}
	return raw, nil
}

// SaveResultFile writes res's JSON rendering to path.
func SaveResultFile(res *SimulationResult, path string) error {
	raw, err := SaveResult(res)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("campaign: writing result file: %w", err)
	}
	return nil
}
