package config

import (
	"errors"
	"os"

	"github.com/subosito/gotenv"
)

// loadDotEnv loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables already present in the environment are kept, and a
// missing file is not an error.
func loadDotEnv(path string) error {
	err := gotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
