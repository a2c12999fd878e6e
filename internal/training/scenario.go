package training

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scenario is one incident from the training dataset. The JSON field
// names follow the dataset's column names.
type Scenario struct {
	Title       string `json:"title"`
	Description string `json:"desc"`
	Location    string `json:"twp"`
}

// LoadScenarios reads the scenario dataset from a JSON file.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	var scenarios []Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("scenario dataset %s is empty", path)
	}
	return scenarios, nil
}
