package launch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/lsds/ibpair/srcs/go/proc"
	"github.com/lsds/ibpair/srcs/go/utils/runner/local"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

func countOpenFiles() int {
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		Skip("/proc/self/fd is not available")
	}
	return len(entries)
}

var _ = Describe("LocalRunner", func() {
	var (
		dir string
		p   proc.Proc
		r   LocalRunner
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "ibpair-runner")
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)
		wd, err := os.Getwd()
		Expect(err).ToNot(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		DeferCleanup(os.Chdir, wd)
		p = proc.Proc{
			Name: "n01.lr1",
			Prog: "/bin/sh",
			Args: []string{"-c", `echo out; echo "Couldn't connect to n03" >&2; exit 1`},
		}
		r = LocalRunner{}
		ctx = context.Background()
	})

	It("should return the exit error with the last stderr line", func() {
		err := r.Run(ctx, p, Attempt{N: 1, ID: "a1"})

		var exitErr *local.ExitError
		Expect(errors.As(err, &exitErr)).To(BeTrue())
		Expect(exitErr.LastStderr).To(Equal("Couldn't connect to n03"))
	})

	It("should keep the output of every attempt under the log dir", func() {
		p.LogDir = filepath.Join(dir, "logs")

		Expect(r.Run(ctx, p, Attempt{N: 1, ID: "a1"})).ToNot(Succeed())
		Expect(r.Run(ctx, p, Attempt{N: 2, ID: "a2"})).ToNot(Succeed())

		for _, id := range []string{"a1", "a2"} {
			bs, err := os.ReadFile(filepath.Join(p.LogDir, "n01.lr1."+id+".stdout.log"))
			Expect(err).ToNot(HaveOccurred())
			Expect(string(bs)).To(Equal("out\n"))
			bs, err = os.ReadFile(filepath.Join(p.LogDir, "n01.lr1."+id+".stderr.log"))
			Expect(err).ToNot(HaveOccurred())
			Expect(string(bs)).To(Equal("Couldn't connect to n03\n"))
		}
	})

	It("should not write log files without a log dir", func() {
		Expect(r.Run(ctx, p, Attempt{N: 1, ID: "a1"})).ToNot(Succeed())

		entries, err := os.ReadDir(dir)
		Expect(err).ToNot(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("should not leak files over many failed attempts", func() {
		p.LogDir = filepath.Join(dir, "logs")
		Expect(r.Run(ctx, p, Attempt{N: 1, ID: "warmup"})).ToNot(Succeed())
		before := countOpenFiles()

		for i := 0; i < 50; i++ {
			Expect(r.Run(ctx, p, Attempt{N: i + 2, ID: "retry"})).ToNot(Succeed())
		}

		Expect(countOpenFiles()).To(BeNumerically("<=", before+2))
	})
})
