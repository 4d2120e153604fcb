// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package services

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*HTTPServerService)(nil)

// fakeServer blocks in ListenAndServe until Shutdown or exit is closed.
type fakeServer struct {
	listenErr   error // returned immediately when set
	shutdownErr error
	started     chan struct{}
	exit        chan error
	shutdowns   int
	deadline    time.Time
}

func newFakeServer() *fakeServer {
	return &fakeServer{started: make(chan struct{}), exit: make(chan error, 1)}
}

func (f *fakeServer) ListenAndServe() error {
	close(f.started)
	if f.listenErr != nil {
		return f.listenErr
	}
	return <-f.exit
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdowns++
	f.deadline, _ = ctx.Deadline()
	f.exit <- http.ErrServerClosed
	return f.shutdownErr
}

func serveAsync(ctx context.Context, svc *HTTPServerService) <-chan error {
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	return done
}

func waitErr(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
		return nil
	}
}

func TestHTTPServerService_CleanShutdown(t *testing.T) {
	var buf bytes.Buffer
	srv := newFakeServer()
	svc := NewHTTPServerService(srv, 3*time.Second, zerolog.New(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	done := serveAsync(ctx, svc)
	<-srv.started
	before := time.Now()
	cancel()

	if err := waitErr(t, done); !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve() = %v, want context.Canceled", err)
	}
	if srv.shutdowns != 1 {
		t.Errorf("Shutdown called %d times, want 1", srv.shutdowns)
	}
	// The shutdown context is fresh, not the canceled parent.
	if d := srv.deadline.Sub(before); d < 2*time.Second || d > 4*time.Second {
		t.Errorf("shutdown deadline %v after cancel, want about 3s", d)
	}

	out := buf.String()
	for _, want := range []string{"HTTP server started", "HTTP server shutting down", `"service":"http"`, `"timeout":`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestHTTPServerService_ServerExits(t *testing.T) {
	listenErr := errors.New("bind: address already in use")
	shutdownErr := errors.New("connections still active")

	tests := []struct {
		name     string
		setup    func(*fakeServer)
		cancel   bool
		wantErr  error
		wantNil  bool
		wantText string
	}{
		{
			name:     "listen failure is wrapped",
			setup:    func(f *fakeServer) { f.listenErr = listenErr },
			wantErr:  listenErr,
			wantText: "http server failed",
		},
		{
			name:    "server closed elsewhere is not a failure",
			setup:   func(f *fakeServer) { f.exit <- http.ErrServerClosed },
			wantNil: true,
		},
		{
			name:     "shutdown failure is reported",
			setup:    func(f *fakeServer) { f.shutdownErr = shutdownErr },
			cancel:   true,
			wantErr:  shutdownErr,
			wantText: "http server shutdown failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newFakeServer()
			tt.setup(srv)
			svc := NewHTTPServerService(srv, time.Second, zerolog.Nop())

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			done := serveAsync(ctx, svc)
			<-srv.started
			if tt.cancel {
				cancel()
			}

			err := waitErr(t, done)
			if tt.wantNil {
				if err != nil {
					t.Errorf("Serve() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Serve() = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("Serve() = %q, want it to mention %q", err, tt.wantText)
			}
		})
	}
}

func TestNewHTTPServerService_Defaults(t *testing.T) {
	for _, timeout := range []time.Duration{0, -time.Second} {
		svc := NewHTTPServerService(newFakeServer(), timeout, zerolog.Nop())
		if svc.shutdownTimeout != 10*time.Second {
			t.Errorf("timeout %v: shutdownTimeout = %v, want 10s", timeout, svc.shutdownTimeout)
		}
	}
	if got := NewHTTPServerService(newFakeServer(), time.Second, zerolog.Nop()).String(); got != "http-server" {
		t.Errorf("String() = %q, want http-server", got)
	}
}

func TestHTTPServerService_ServesRequests(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	server := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}),
		ReadHeaderTimeout: time.Second,
	}
	svc := NewHTTPServerService(server, time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := serveAsync(ctx, svc)

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("status = %d, want 200", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never accepted a request: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := waitErr(t, done); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() = %v, want context.Canceled", err)
	}
}
