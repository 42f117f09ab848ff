package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/shinji-kodama/mdpipe/internal/model"
)

// FindToolConfig searches startDir and its parents for the formatter
// suite's config file (mdsf.json). It mirrors the suite's own discovery
// so the path can be passed explicitly to commands that do not search
// themselves.
func FindToolConfig(startDir string) (string, bool) {
	return findUp(startDir, DefaultToolConfigName)
}

// CheckToolConfig verifies that the file at path is readable and parses
// as JSON with comments. mdsf tolerates // and /* */ comments plus
// trailing commas, so the raw bytes are stripped to plain JSON before
// validating.
func CheckToolConfig(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("cannot read tool config %s", path), err)
	}
	if !json.Valid(jsonc.ToJSON(raw)) {
		return model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("tool config %s is not valid JSON", path))
	}
	return nil
}
