package env

// Set by the scheduler for every task.
const (
	SlurmLocalIDEnvKey  = `SLURM_LOCALID`
	SlurmNodeIDEnvKey   = `SLURM_NODEID`
	SlurmNumNodesEnvKey = `SLURM_NNODES`
	SlurmNodeListEnvKey = `SLURM_JOB_NODELIST`
	SlurmNodeNameEnvKey = `SLURMD_NODENAME`
	SlurmJobIDEnvKey    = `SLURM_JOB_ID`
)

// Set by users or by `ibpair rrun`, these take precedence over the scheduler
// variables.
const (
	LocalRankEnvKey = `IBPAIR_LOCAL_RANK`
	NodeIndexEnvKey = `IBPAIR_NODE_INDEX`
	NodeNameEnvKey  = `IBPAIR_NODE_NAME`
	NumNodesEnvKey  = `IBPAIR_NUM_NODES`
	NodeListEnvKey  = `IBPAIR_NODES`
	DevicesEnvKey   = `IBPAIR_DEVICES`
	BasePortEnvKey  = `IBPAIR_BASE_PORT`
	BenchEnvKey     = `IBPAIR_BENCH`
	JobIDEnvKey     = `IBPAIR_JOB_ID`
)
