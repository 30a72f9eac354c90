package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/weft-dev/weft/internal/errors"
)

// readJSONVars decodes a JSON object file into scope variables.
func readJSONVars(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var vars map[string]any
	if err := json.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("%s is not a JSON object: %w", path, err)
	}
	return vars, nil
}

// errorsIsMissingConfig reports whether err is the absent-weft.json
// case, which serve treats as a soft default rather than a failure.
func errorsIsMissingConfig(err error) bool {
	var we *errors.Error
	if stderrors.As(err, &we) {
		return we.Code == "E601"
	}
	return false
}
