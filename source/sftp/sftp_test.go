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

package sftp

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/poiesic/importagent/core"
	"github.com/poiesic/importagent/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// startServer runs an in-process SSH server with an SFTP subsystem over the
// local filesystem and returns its port.
func startServer(t *testing.T, password string) int {
	t.Helper()

	_, hostKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(hostKey)
	require.NoError(t, err)

	config := &ssh.ServerConfig{
		PasswordCallback: func(_ ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if string(pass) == password {
				return nil, nil
			}
			return nil, errors.New("wrong password")
		},
	}
	config.AddHostKey(signer)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go serveConn(conn, config)
		}
	}()

	return listener.Addr().(*net.TCPAddr).Port
}

func serveConn(conn net.Conn, config *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		_ = conn.Close()
		return
	}
	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			_ = newChannel.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			return
		}
		go func(in <-chan *ssh.Request) {
			for req := range in {
				ok := req.Type == "subsystem" && len(req.Payload) > 4 && string(req.Payload[4:]) == "sftp"
				_ = req.Reply(ok, nil)
			}
		}(requests)

		server, err := sftp.NewServer(channel)
		if err != nil {
			return
		}
		go func() {
			_ = server.Serve()
			_ = server.Close()
		}()
	}
}

func writeExport(t *testing.T, contents string, mtime time.Time) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "INFECT_export_month.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func TestNew(t *testing.T) {
	_, err := New(source.Options{File: "/upload/x.csv"})
	assert.ErrorIs(t, err, source.ErrHostRequired)

	_, err = New(source.Options{Host: "h", File: "/upload/x.csv"})
	assert.ErrorIs(t, err, ErrAuthRequired)

	s, err := New(source.Options{Host: "h", User: "u", Password: "p", File: "/upload/x.csv"})
	require.NoError(t, err)
	assert.Equal(t, 22, s.opts.Port)
	assert.Equal(t, source.TypeSFTP, s.opts.Type)
}

func TestClientConfig_PrivateKey(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "test")
	require.NoError(t, err)

	s, err := New(source.Options{Host: "h", User: "u", PrivateKey: string(pem.EncodeToMemory(block)), File: "/f"})
	require.NoError(t, err)

	config, err := s.clientConfig()
	require.NoError(t, err)
	assert.Len(t, config.Auth, 1)
	assert.Equal(t, "u", config.User)
}

func TestClientConfig_BadKey(t *testing.T) {
	s, err := New(source.Options{Host: "h", User: "u", PrivateKey: "not a key", File: "/f"})
	require.NoError(t, err)

	_, err = s.clientConfig()
	assert.ErrorContains(t, err, "parse private key")
}

func TestClientConfig_MissingKnownHosts(t *testing.T) {
	s, err := New(source.Options{
		Host:           "h",
		User:           "u",
		Password:       "p",
		KnownHostsFile: filepath.Join(t.TempDir(), "known_hosts"),
		File:           "/f",
	})
	require.NoError(t, err)

	_, err = s.clientConfig()
	assert.ErrorContains(t, err, "known hosts")
}

func TestSource_StatAndOpen(t *testing.T) {
	port := startServer(t, "s3cret")
	mtime := time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)
	path := writeExport(t, "header\nA,1\nB,2\n", mtime)

	s, err := New(source.Options{Host: "127.0.0.1", Port: port, User: "infect", Password: "s3cret", File: path},
		WithDialTimeout(5*time.Second))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	meta, err := s.Stat(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len("header\nA,1\nB,2\n")), meta.Size)
	assert.Equal(t, mtime.Unix(), meta.ModifiedAt.Unix())

	fp, _, err := source.Fingerprint(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, core.NewFingerprint(meta.Size, meta.ModifiedAt), fp)

	r, err := s.Open(ctx)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "header\nA,1\nB,2\n", string(data))
}

func TestSource_WrongPassword(t *testing.T) {
	port := startServer(t, "s3cret")

	s, err := New(source.Options{Host: "127.0.0.1", Port: port, User: "infect", Password: "guess", File: "/f"})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Stat(context.Background())
	assert.ErrorContains(t, err, "ssh handshake")
}

func TestSource_StalledHandshake(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	// Accept and never speak SSH.
	stalled := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err == nil {
			stalled <- conn
		}
	}()
	t.Cleanup(func() {
		select {
		case conn := <-stalled:
			_ = conn.Close()
		default:
		}
	})

	port := listener.Addr().(*net.TCPAddr).Port
	s, err := New(source.Options{Host: "127.0.0.1", Port: port, User: "infect", Password: "pw", File: "/f"},
		WithDialTimeout(100*time.Millisecond))
	require.NoError(t, err)
	defer s.Close()

	done := make(chan error, 1)
	go func() {
		_, err := s.Stat(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "ssh handshake")
	case <-time.After(5 * time.Second):
		t.Fatal("handshake did not time out")
	}
}

func TestSource_MissingFile(t *testing.T) {
	port := startServer(t, "pw")

	s, err := New(source.Options{Host: "127.0.0.1", Port: port, User: "infect", Password: "pw",
		File: filepath.Join(t.TempDir(), "missing.csv")})
	require.NoError(t, err)
	defer s.Close()

	_, _, err = source.Fingerprint(context.Background(), s)
	assert.ErrorIs(t, err, core.ErrSourceUnavailable)
}

func TestSource_CanceledRead(t *testing.T) {
	port := startServer(t, "pw")
	path := writeExport(t, "header\nA,1\n", time.Now())

	s, err := New(source.Options{Host: "127.0.0.1", Port: port, User: "infect", Password: "pw", File: path})
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	r, err := s.Open(ctx)
	require.NoError(t, err)
	defer r.Close()

	cancel()
	_, err = r.Read(make([]byte, 4))
	assert.ErrorIs(t, err, context.Canceled)
}
