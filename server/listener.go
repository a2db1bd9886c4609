package server

import (
	"net"
	"sync"

	"github.com/mytestbed/oml/internal/xlog"
	"github.com/mytestbed/oml/storage"
)

// Listener accepts OMSP client connections on a TCP socket and serves each
// one on its own goroutine (spec.md §5: "one thread per accepted connection
// plus the accept thread").
type Listener struct {
	adapter storage.Adapter

	mu sync.Mutex
	wg sync.WaitGroup
	ln net.Listener
}

// NewListener returns a Listener that inserts accepted connections' data
// through adapter.
func NewListener(a storage.Adapter) *Listener {
	return &Listener{adapter: a}
}

// Listen binds addr, recording the resulting net.Listener so Addr and Serve
// can use it. Split from Serve so a caller can read the bound address (e.g.
// when addr requests an ephemeral port) before accepting connections.
func (l *Listener) Listen(network, addr string) error {
	ln, err := net.Listen(network, addr)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.ln = ln
	l.mu.Unlock()

	return nil
}

// Addr returns the bound listener's address, or nil if Listen has not been
// called yet.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ln == nil {
		return nil
	}

	return l.ln.Addr()
}

// Serve accepts connections on the listener bound by Listen until Close is
// called.
func (l *Listener) Serve() error {
	l.mu.Lock()
	ln := l.ln
	l.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}

		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			xlog.Infof("server: accepted connection from %s", conn.RemoteAddr())
			NewConn(conn, l.adapter).Serve()
		}()
	}
}

// ListenAndServe binds addr and accepts connections until Close is called.
func (l *Listener) ListenAndServe(network, addr string) error {
	if err := l.Listen(network, addr); err != nil {
		return err
	}

	return l.Serve()
}

// Close stops accepting new connections and waits for in-flight ones to
// finish (spec.md §5: "the server closes a connection on EOF, on
// irrecoverable protocol error, or on shutdown").
func (l *Listener) Close() error {
	l.mu.Lock()
	ln := l.ln
	l.mu.Unlock()

	if ln == nil {
		return nil
	}

	err := ln.Close()
	l.wg.Wait()

	return err
}
