package proc

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

type Envs map[string]string

func (e Envs) keys() []string {
	var ks []string
	for k := range e {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

func Merge(e, f Envs) Envs {
	g := make(Envs)
	for k, v := range e {
		g[k] = v
	}
	for k, v := range f {
		g[k] = v
	}
	return g
}

// Proc represents a general purpose process
type Proc struct {
	Name     string
	Prog     string
	Args     []string
	Envs     Envs
	Hostname string
	LogDir   string
}

// Cmd creates the local command, Envs are added on top of os.Environ().
func (p Proc) Cmd() *exec.Cmd {
	cmd := exec.Command(p.Prog, p.Args...)
	cmd.Env = updatedEnvFrom(p.Envs, os.Environ())
	return cmd
}

// CommandLine is Prog and Args joined for logging.
func (p Proc) CommandLine() string {
	return strings.Join(append([]string{p.Prog}, p.Args...), " ")
}

// Script renders the process as a shell command for a remote login shell.
func (p Proc) Script() string {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "env")
	for _, k := range p.Envs.keys() {
		fmt.Fprintf(buf, " %s=%s", k, shellQuote(p.Envs[k]))
	}
	fmt.Fprintf(buf, " %s", shellQuote(p.Prog))
	for _, a := range p.Args {
		fmt.Fprintf(buf, " %s", shellQuote(a))
	}
	return buf.String()
}

func shellQuote(s string) string {
	if len(s) > 0 && strings.IndexFunc(s, needQuote) < 0 {
		return s
	}
	return `'` + strings.Replace(s, `'`, `'\''`, -1) + `'`
}

func needQuote(r rune) bool {
	switch {
	case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
		return false
	case strings.ContainsRune("-_./:,=@%+", r):
		return false
	}
	return true
}

func parseEnv(envs []string) Envs {
	envMap := make(Envs)
	for _, kv := range envs {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}
	return envMap
}

func updatedEnvFrom(newValues Envs, oldEnvs []string) []string {
	envMap := Merge(parseEnv(oldEnvs), newValues)
	var envs []string
	for _, k := range envMap.keys() {
		envs = append(envs, fmt.Sprintf("%s=%s", k, envMap[k]))
	}
	return envs
}
