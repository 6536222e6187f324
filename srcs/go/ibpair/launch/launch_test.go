package launch

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/lsds/ibpair/srcs/go/ibpair/probe"
	"github.com/lsds/ibpair/srcs/go/plan"
	"github.com/lsds/ibpair/srcs/go/proc"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Launcher", func() {
	var (
		mockCtrl *gomock.Controller
		runner   *MockRunner
		clock    *MockClock
		l        *Launcher
		ctx      context.Context
		server   plan.Assignment
		client   plan.Assignment
		p        proc.Proc
	)

	errFailed := errors.New("exit status 1")

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		runner = NewMockRunner(mockCtrl)
		clock = NewMockClock(mockCtrl)
		clock.EXPECT().Now().Return(time.Unix(0, 0)).AnyTimes()
		l = &Launcher{
			Runner: runner,
			Clock:  clock,
			Policy: DefaultPolicy(),
		}
		ctx = context.Background()
		server = plan.Assignment{LocalRank: 1, Role: plan.Server, Port: 18515, Self: "n01", Peer: "n02", NumNodes: 4, PeerIndex: 2}
		client = plan.Assignment{LocalRank: 0, Role: plan.Client, Port: 18515, Self: "n01", Peer: "n03", NumNodes: 4, PeerIndex: 2}
		p = proc.Proc{Name: "n01.lr1", Prog: "ib_write_bw"}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should retry a server until it succeeds", func() {
		var seen []Attempt
		gomock.InOrder(
			runner.EXPECT().Run(gomock.Any(), p, gomock.Any()).
				DoAndReturn(func(_ context.Context, _ proc.Proc, at Attempt) error {
					seen = append(seen, at)
					return errFailed
				}).Times(3),
			runner.EXPECT().Run(gomock.Any(), p, gomock.Any()).
				DoAndReturn(func(_ context.Context, _ proc.Proc, at Attempt) error {
					seen = append(seen, at)
					return nil
				}),
		)
		clock.EXPECT().Sleep(gomock.Any(), DefaultBackoff).Return(nil).Times(3)

		r, err := l.Run(ctx, server, p)

		Expect(err).ToNot(HaveOccurred())
		Expect(r.Attempts).To(Equal(4))
		Expect(r.State).To(Equal(StateDone))
		Expect(seen).To(HaveLen(4))
		ids := map[string]bool{}
		for i, at := range seen {
			Expect(at.N).To(Equal(i + 1))
			ids[at.ID] = true
		}
		Expect(ids).To(HaveLen(4))
	})

	It("should wait once before the first client attempt", func() {
		gomock.InOrder(
			clock.EXPECT().Sleep(gomock.Any(), DefaultRendezvousDelay).Return(nil),
			runner.EXPECT().Run(gomock.Any(), p, gomock.Any()).Return(errFailed),
			clock.EXPECT().Sleep(gomock.Any(), DefaultBackoff).Return(nil),
			runner.EXPECT().Run(gomock.Any(), p, gomock.Any()).Return(nil),
		)

		r, err := l.Run(ctx, client, p)

		Expect(err).ToNot(HaveOccurred())
		Expect(r.Attempts).To(Equal(2))
	})

	It("should give up after max attempts", func() {
		l.Policy.MaxAttempts = 2
		runner.EXPECT().Run(gomock.Any(), p, gomock.Any()).Return(errFailed).Times(2)
		clock.EXPECT().Sleep(gomock.Any(), DefaultBackoff).Return(nil).Times(1)

		r, err := l.Run(ctx, server, p)

		Expect(errors.Is(err, ErrAttemptsExhausted)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("exit status 1"))
		Expect(r.Attempts).To(Equal(2))
	})

	It("should stop when cancelled during an attempt", func() {
		ctx, cancel := context.WithCancel(ctx)
		runner.EXPECT().Run(gomock.Any(), p, gomock.Any()).
			DoAndReturn(func(context.Context, proc.Proc, Attempt) error {
				cancel()
				return errFailed
			})

		r, err := l.Run(ctx, server, p)

		Expect(err).To(Equal(context.Canceled))
		Expect(r.Attempts).To(Equal(1))
	})

	It("should stop when cancelled during backoff", func() {
		runner.EXPECT().Run(gomock.Any(), p, gomock.Any()).Return(errFailed)
		clock.EXPECT().Sleep(gomock.Any(), DefaultBackoff).Return(context.Canceled)

		r, err := l.Run(ctx, server, p)

		Expect(err).To(Equal(context.Canceled))
		Expect(r.State).To(Equal(StateBackoff))
	})

	It("should warn about a taken port before a server attempt", func() {
		var asked []int
		l.PortOwner = func(_ context.Context, port int) (*probe.Listener, error) {
			asked = append(asked, port)
			return &probe.Listener{Pid: 42, Name: "ib_write_bw"}, nil
		}
		runner.EXPECT().Run(gomock.Any(), p, gomock.Any()).Return(nil)

		_, err := l.Run(ctx, server, p)

		Expect(err).ToNot(HaveOccurred())
		Expect(asked).To(Equal([]int{18515}))
	})

	Context("with file rendezvous", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = os.MkdirTemp("", "ibpair-launch")
			Expect(err).ToNot(HaveOccurred())
			DeferCleanup(os.RemoveAll, dir)
			l.Policy.Rendezvous = RendezvousFile
			l.Policy.RendezvousDir = dir
			l.Policy.PollInterval = 10 * time.Millisecond
			l.Policy.RendezvousTimeout = 100 * time.Millisecond
			l.Policy.JobID = "4242"
		})

		It("should announce the server while it runs", func() {
			runner.EXPECT().Run(gomock.Any(), p, gomock.Any()).
				DoAndReturn(func(_ context.Context, _ proc.Proc, at Attempt) error {
					bs, err := os.ReadFile(filepath.Join(dir, "4242.n01.18515.ready"))
					Expect(err).ToNot(HaveOccurred())
					Expect(string(bs)).To(Equal(at.ID + "\n"))
					return nil
				})

			_, err := l.Run(ctx, server, p)

			Expect(err).ToNot(HaveOccurred())
			Expect(l.marker("n01", 18515).exists()).To(BeFalse())
		})

		It("should start the client once the marker exists", func() {
			Expect(l.marker("n03", 18515).write("x")).To(Succeed())
			gomock.InOrder(
				clock.EXPECT().Sleep(gomock.Any(), DefaultGrace).Return(nil),
				runner.EXPECT().Run(gomock.Any(), p, gomock.Any()).Return(nil),
			)

			_, err := l.Run(ctx, client, p)

			Expect(err).ToNot(HaveOccurred())
		})

		It("should ignore a marker left by another job", func() {
			stale := marker{dir: dir, job: "4241", node: "n03", port: 18515}
			Expect(stale.write("x")).To(Succeed())
			runner.EXPECT().Run(gomock.Any(), p, gomock.Any()).Return(nil)

			r, err := l.Run(ctx, client, p)

			Expect(err).ToNot(HaveOccurred())
			Expect(r.Attempts).To(Equal(1))
		})

		It("should try anyway when the marker never shows up", func() {
			runner.EXPECT().Run(gomock.Any(), p, gomock.Any()).Return(nil)

			r, err := l.Run(ctx, client, p)

			Expect(err).ToNot(HaveOccurred())
			Expect(r.Attempts).To(Equal(1))
		})
	})
})

var _ = Describe("Policy", func() {
	It("should require a directory for file rendezvous", func() {
		p := DefaultPolicy()
		p.Rendezvous = RendezvousFile
		Expect(p.Validate()).ToNot(Succeed())
		p.RendezvousDir = "/tmp"
		Expect(p.Validate()).To(Succeed())
	})

	It("should parse rendezvous names", func() {
		var r Rendezvous
		Expect(r.Set("file")).To(Succeed())
		Expect(r).To(Equal(RendezvousFile))
		Expect(r.Set("tcp")).ToNot(Succeed())
	})
})

var _ = Describe("RealClock", func() {
	It("should return early when cancelled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(RealClock{}.Sleep(ctx, time.Hour)).To(Equal(context.Canceled))
	})
})
