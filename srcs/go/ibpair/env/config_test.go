package env

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lsds/ibpair/srcs/go/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEnv(t *testing.T, envs map[string]string) {
	lookupEnv = func(key string) (string, bool) {
		val, ok := envs[key]
		return val, ok
	}
	hostname = func() (string, error) { return "login01", nil }
	t.Cleanup(func() {
		lookupEnv = os.LookupEnv
		hostname = os.Hostname
	})
}

func slurmEnv() map[string]string {
	return map[string]string{
		SlurmLocalIDEnvKey:  "3",
		SlurmNodeIDEnvKey:   "1",
		SlurmNumNodesEnvKey: "4",
		SlurmNodeListEnvKey: "gpu-[01-04]",
	}
}

func Test_ParseConfigFromEnv_slurm(t *testing.T) {
	withEnv(t, slurmEnv())
	c, err := ParseConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 3, c.LocalRank)
	assert.Equal(t, 1, c.NodeIndex)
	assert.Equal(t, []string{"gpu-01", "gpu-02", "gpu-03", "gpu-04"}, c.Nodes)
	assert.Equal(t, plan.DefaultDeviceList, c.Devices)
	assert.Equal(t, plan.DefaultBasePort, c.BasePort)
	assert.Equal(t, DefaultBench, c.Bench)
	assert.Empty(t, c.JobID)

	a, err := plan.Resolve(c.Input())
	require.NoError(t, err)
	assert.Equal(t, "gpu-04", a.Peer)
}

func Test_ParseConfigFromEnv_overrides(t *testing.T) {
	envs := slurmEnv()
	envs[LocalRankEnvKey] = "0"
	envs[NodeListEnvKey] = "a,b"
	envs[NumNodesEnvKey] = "2"
	envs[NodeIndexEnvKey] = "0"
	envs[DevicesEnvKey] = "mlx5_4,mlx5_5"
	envs[BasePortEnvKey] = "20000"
	envs[BenchEnvKey] = "/opt/perftest/ib_write_bw"
	withEnv(t, envs)
	c, err := ParseConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{
		LocalRank: 0,
		NodeIndex: 0,
		Nodes:     []string{"a", "b"},
		Devices:   plan.DeviceList{"mlx5_4", "mlx5_5"},
		BasePort:  20000,
		Bench:     "/opt/perftest/ib_write_bw",
	}, *c)
}

func Test_ParseConfigFromEnv_jobID(t *testing.T) {
	envs := slurmEnv()
	envs[SlurmJobIDEnvKey] = "81234"
	withEnv(t, envs)
	c, err := ParseConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "81234", c.JobID)

	envs[JobIDEnvKey] = "rrun-1"
	c, err = ParseConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "rrun-1", c.JobID)
}

func Test_ParseConfigFromEnv_nodeIndexByName(t *testing.T) {
	envs := slurmEnv()
	delete(envs, SlurmNodeIDEnvKey)
	envs[SlurmNodeNameEnvKey] = "gpu-03"
	withEnv(t, envs)
	c, err := ParseConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 2, c.NodeIndex)

	delete(envs, SlurmNodeNameEnvKey)
	_, err = ParseConfigFromEnv()
	assert.EqualError(t, err, `login01 not in ["gpu-01" "gpu-02" "gpu-03" "gpu-04"]`)
}

func Test_ParseConfigFromEnv_errors(t *testing.T) {
	tests := []struct {
		name string
		edit func(map[string]string)
	}{
		{"missing local rank", func(e map[string]string) { delete(e, SlurmLocalIDEnvKey) }},
		{"malformed local rank", func(e map[string]string) { e[SlurmLocalIDEnvKey] = "x" }},
		{"negative local rank", func(e map[string]string) { e[SlurmLocalIDEnvKey] = "-1" }},
		{"missing node list", func(e map[string]string) { delete(e, SlurmNodeListEnvKey) }},
		{"empty node list", func(e map[string]string) { e[SlurmNodeListEnvKey] = "" }},
		{"bad node list", func(e map[string]string) { e[SlurmNodeListEnvKey] = "gpu-[01-" }},
		{"node count mismatch", func(e map[string]string) { e[SlurmNumNodesEnvKey] = "5" }},
		{"malformed node count", func(e map[string]string) { e[SlurmNumNodesEnvKey] = "four" }},
		{"node index out of range", func(e map[string]string) { e[SlurmNodeIDEnvKey] = "4" }},
		{"bad devices", func(e map[string]string) { e[DevicesEnvKey] = "," }},
		{"bad base port", func(e map[string]string) { e[BasePortEnvKey] = "99999" }},
	}
	for _, tt := range tests {
		envs := slurmEnv()
		tt.edit(envs)
		withEnv(t, envs)
		_, err := ParseConfigFromEnv()
		assert.Error(t, err, tt.name)
	}
}

func Test_LoadFiles(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "ibpair.env")
	require.NoError(t, os.WriteFile(filename, []byte("IBPAIR_TEST_DEVICES=mlx5_9\nIBPAIR_TEST_KEEP=from-file\n"), 0644))
	t.Setenv("IBPAIR_TEST_KEEP", "from-env")
	os.Unsetenv("IBPAIR_TEST_DEVICES")
	defer os.Unsetenv("IBPAIR_TEST_DEVICES")

	require.NoError(t, LoadFiles(filename))
	assert.Equal(t, "mlx5_9", os.Getenv("IBPAIR_TEST_DEVICES"))
	assert.Equal(t, "from-env", os.Getenv("IBPAIR_TEST_KEEP"))

	assert.NoError(t, LoadFiles())
	assert.Error(t, LoadFiles(filepath.Join(t.TempDir(), "missing.env")))
}
