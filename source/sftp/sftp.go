// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sftp reads an export from an SFTP server.
package sftp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"github.com/poiesic/importagent/source"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultDialTimeout bounds the TCP connect and SSH handshake.
const DefaultDialTimeout = 30 * time.Second

// ErrAuthRequired is returned when neither a password nor a private key is configured.
var ErrAuthRequired = errors.New("sftp source needs a password or a private key")

// Source is a file on an SFTP server. The connection is opened lazily on
// first use and kept until Close.
type Source struct {
	opts        source.Options
	dialTimeout time.Duration
	logger      *slog.Logger

	mu   sync.Mutex
	ssh  *ssh.Client
	sftp *sftp.Client
}

var _ source.Source = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDialTimeout overrides DefaultDialTimeout.
func WithDialTimeout(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.dialTimeout = d
		}
	}
}

// New creates a Source. It does not connect.
func New(opts source.Options, options ...Option) (*Source, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Password == "" && opts.PrivateKey == "" && opts.PrivateKeyFile == "" {
		return nil, ErrAuthRequired
	}

	s := &Source{
		opts:        opts,
		dialTimeout: DefaultDialTimeout,
		logger:      slog.Default(),
	}
	for _, o := range options {
		o(s)
	}
	return s, nil
}

// Stat returns the remote file's size and modification time.
func (s *Source) Stat(ctx context.Context) (source.Metadata, error) {
	client, err := s.client(ctx)
	if err != nil {
		return source.Metadata{}, err
	}
	info, err := client.Stat(s.opts.File)
	if err != nil {
		return source.Metadata{}, fmt.Errorf("stat %s: %w", s.opts.File, err)
	}
	return source.Metadata{Size: info.Size(), ModifiedAt: info.ModTime()}, nil
}

// Open starts downloading the remote file.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	client, err := s.client(ctx)
	if err != nil {
		return nil, err
	}
	f, err := client.Open(s.opts.File)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.opts.File, err)
	}
	return &contextReader{ctx: ctx, file: f}, nil
}

// Close tears down the SFTP session and the SSH connection.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.sftp != nil {
		errs = append(errs, s.sftp.Close())
		s.sftp = nil
	}
	if s.ssh != nil {
		errs = append(errs, s.ssh.Close())
		s.ssh = nil
	}
	return errors.Join(errs...)
}

func (s *Source) client(ctx context.Context) (*sftp.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sftp != nil {
		return s.sftp, nil
	}

	config, err := s.clientConfig()
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	dialer := net.Dialer{Timeout: s.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	// ssh.NewClientConn ignores config.Timeout; bound the SSH and SFTP
	// handshakes with a connection deadline instead.
	deadline := time.Now().Add(s.dialTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("set handshake deadline: %w", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("start sftp session: %w", err)
	}

	if err := conn.SetDeadline(time.Time{}); err != nil {
		_ = sftpClient.Close()
		_ = sshClient.Close()
		return nil, fmt.Errorf("clear handshake deadline: %w", err)
	}

	s.logger.Debug("connected to sftp server", "addr", addr, "user", s.opts.User)
	s.ssh = sshClient
	s.sftp = sftpClient
	return sftpClient, nil
}

func (s *Source) clientConfig() (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	key := []byte(s.opts.PrivateKey)
	if len(key) == 0 && s.opts.PrivateKeyFile != "" {
		var err error
		key, err = os.ReadFile(s.opts.PrivateKeyFile)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
	}
	if len(key) > 0 {
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if s.opts.Password != "" {
		auth = append(auth, ssh.Password(s.opts.Password))
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if s.opts.KnownHostsFile != "" {
		cb, err := knownhosts.New(s.opts.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("load known hosts: %w", err)
		}
		hostKeyCallback = cb
	} else {
		s.logger.Warn("sftp host key is not verified, set knownHostsFile", "host", s.opts.Host)
	}

	return &ssh.ClientConfig{
		User:            s.opts.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         s.dialTimeout,
	}, nil
}

// contextReader stops reading once its context is done.
type contextReader struct {
	ctx  context.Context
	file *sftp.File
}

func (r *contextReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.file.Read(p)
}

func (r *contextReader) Close() error {
	return r.file.Close()
}
