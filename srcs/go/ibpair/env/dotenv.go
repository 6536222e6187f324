package env

import (
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// LoadFiles adds the variables of the given .env files to the process
// environment. Variables already set are kept.
func LoadFiles(filenames ...string) error {
	if len(filenames) == 0 {
		return nil
	}
	if err := godotenv.Load(filenames...); err != nil {
		return errors.Wrap(err, "load env file")
	}
	return nil
}
