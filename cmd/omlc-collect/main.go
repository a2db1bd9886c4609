// Command omlc-collect is the reference OML collector: it accepts client
// connections over TCP and persists their measurements through a storage
// adapter (spec.md §4.8, §6 "Exit codes").
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mytestbed/oml/internal/xlog"
	"github.com/mytestbed/oml/server"
	"github.com/mytestbed/oml/storage"
	"github.com/mytestbed/oml/storage/sqladapter"
	"github.com/mytestbed/oml/storage/textadapter"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("omlc-collect", flag.ContinueOnError)
	addr := fs.String("listen", ":3003", "address to accept OMSP connections on")
	dataDir := fs.String("data-dir", "./oml-data", "directory backing domain databases")
	backend := fs.String("backend", "sqlite", "storage backend: sqlite or text")
	logLevel := fs.String("log-level", "info", "log verbosity: debug, info, warn, error")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	xlog.SetLevel(*logLevel)

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "omlc-collect: %v\n", err)
		return 1
	}

	var adapter storage.Adapter
	switch *backend {
	case "sqlite":
		adapter = sqladapter.New(*dataDir)
	case "text":
		adapter = textadapter.New(*dataDir)
	default:
		fmt.Fprintf(os.Stderr, "omlc-collect: unknown backend %q\n", *backend)
		return 1
	}

	ln := server.NewListener(adapter)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		xlog.Infof("omlc-collect: shutting down")
		ln.Close()
	}()

	xlog.Infof("omlc-collect: listening on %s (backend=%s, data-dir=%s)", *addr, *backend, *dataDir)
	if err := ln.ListenAndServe("tcp", *addr); err != nil {
		xlog.Errorf("omlc-collect: %v", err)
		return 2
	}

	return 0
}
