// Package ssh is a thin wrapper of golang.org/x/crypto/ssh for running one
// command per session and streaming its output.
package ssh

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/lsds/ibpair/srcs/go/utils/iostream"
	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
)

var defaultTimeout = 8 * time.Second

// Config names the remote login. Empty fields fall back to the current user,
// port 22 and ~/.ssh/id_rsa.
type Config struct {
	User    string
	Host    string
	KeyFile string
}

func withDefaultPort(host string) string {
	_, _, err := net.SplitHostPort(host)
	if err == nil {
		return host
	}
	const defaultPort = "22"
	return net.JoinHostPort(host, defaultPort)
}

func withDefaultUser(name string) string {
	if len(name) == 0 {
		if u, err := user.Current(); err == nil {
			return u.Username
		}
	}
	return name
}

func withDefaultKeyFile(keyFile string) string {
	if len(keyFile) > 0 {
		return keyFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "id_rsa")
}

func completeConfig(config Config) Config {
	return Config{
		User:    withDefaultUser(config.User),
		Host:    withDefaultPort(config.Host),
		KeyFile: withDefaultKeyFile(config.KeyFile),
	}
}

func loadKey(filename string) (ssh.Signer, error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "read ssh key")
	}
	return ssh.ParsePrivateKey(buf)
}

func newSSHClient(config Config) (*ssh.Client, error) {
	key, err := loadKey(config.KeyFile)
	if err != nil {
		return nil, err
	}
	clientConfig := &ssh.ClientConfig{
		User: config.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(key),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         defaultTimeout,
	}
	return ssh.Dial("tcp", config.Host, clientConfig)
}

// Client is a wrapper for ssh.Client
type Client struct {
	config Config
	client *ssh.Client
}

// New dials the remote host.
func New(cfg Config) (*Client, error) {
	cfg = completeConfig(cfg)
	client, err := newSSHClient(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "ssh %s@%s", cfg.User, cfg.Host)
	}
	return &Client{config: cfg, client: client}, nil
}

func (c *Client) String() string {
	return fmt.Sprintf("%s@%s", c.config.User, c.config.Host)
}

// Watch runs cmd in a new session and copies its output to redirectors until
// the command exits or ctx is done.
func (c *Client) Watch(ctx context.Context, cmd string, redirectors []*iostream.StdWriters) error {
	session, err := c.client.NewSession()
	if err != nil {
		return err
	}
	defer session.Close()
	stdout, err := session.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		return err
	}
	// a pty makes the remote process receive SIGHUP when the session closes
	if err := session.RequestPty("xterm", 80, 40, nil); err != nil {
		return err
	}
	results := iostream.StdReaders{Stdout: stdout, Stderr: stderr}
	ioDone := results.Stream(redirectors...)
	if err := session.Start(cmd); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		ioDone.Wait() // before session.Wait()
		done <- session.Wait()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		session.Signal(ssh.SIGTERM)
		session.Close()
		return ctx.Err()
	}
}

// Close closes the client
func (c *Client) Close() error {
	return c.client.Close()
}
