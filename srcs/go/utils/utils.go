package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

func LogEnvWithPrefix(prefix string, logPrefix string) {
	envs := os.Environ()
	sort.Strings(envs)
	for _, kv := range envs {
		if strings.HasPrefix(kv, prefix) {
			fmt.Printf("[%s]: %s\n", logPrefix, kv)
		}
	}
}

func LogSlurmEnv() {
	LogEnvWithPrefix(`SLURM_`, `slurm-env`)
}

func LogIBPairEnv() {
	LogEnvWithPrefix(`IBPAIR_`, `ibpair-env`)
}

func ProgName() string {
	return filepath.Base(os.Args[0])
}

func Measure(f func() error) (time.Duration, error) {
	t0 := time.Now()
	err := f()
	d := time.Since(t0)
	return d, err
}

// PollEvery calls f every period until it returns true or ctx is done. It
// returns the number of failed calls and whether f eventually succeeded.
func PollEvery(ctx context.Context, f func() bool, period time.Duration) (int, bool) {
	var failed int
	for {
		if f() {
			return failed, true
		}
		failed++
		select {
		case <-ctx.Done():
			return failed, false
		case <-time.After(period):
		}
	}
}

func pluralize(n int, singular, plural string) string {
	if n != 1 {
		return plural
	}
	return singular
}

func Pluralize(n int, singular, plural string) string {
	return fmt.Sprintf("%d %s", n, pluralize(n, singular, plural))
}
