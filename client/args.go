package client

import (
	"flag"
	"strings"
	"time"
)

// ParseArgs consumes the `--oml-*` flags from args and removes them, per
// spec.md §6 "CLI": "accepts the above via --oml-<option> on the host
// program's command line, consuming and removing them from the argv."
//
// remaining is args with every recognized --oml-* flag (and its value)
// stripped out, in original order, suitable for the host program's own flag
// parsing.
func ParseArgs(progName string, args []string) (remaining []string, cfg *Config, err error) {
	fs := flag.NewFlagSet(progName, flag.ContinueOnError)
	fs.SetOutput(noopWriter{})

	domain := fs.String("oml-domain", "", "experiment identifier")
	id := fs.String("oml-id", "", "node/sender identifier")
	collect := fs.String("oml-collect", "", "comma-separated list of sink URIs")
	samples := fs.Int("oml-samples", 1, "default sample threshold per MP")
	interval := fs.Float64("oml-interval", 0, "default sampling interval in seconds")
	logFile := fs.String("oml-log-file", "", "file to append diagnostic log to")
	logLevel := fs.String("oml-log-level", "info", "log verbosity")

	recognized, rest := splitRecognized(args)
	if err := fs.Parse(recognized); err != nil {
		return nil, nil, err
	}

	cfg, err = newConfig(
		WithDomain(*domain),
		WithSenderID(*id),
		WithDefaultSamples(*samples),
		WithDefaultInterval(time.Duration(*interval*float64(time.Second))),
		WithLogFile(*logFile),
		WithLogLevel(*logLevel),
	)
	if err != nil {
		return nil, nil, err
	}
	if *collect != "" {
		cfg.URIs = append(cfg.URIs, strings.Split(*collect, ",")...)
	}

	return rest, cfg, nil
}

// splitRecognized partitions args into the --oml-* flags (and their
// "--flag value" or "--flag=value" forms) and everything else, preserving
// relative order within each partition.
func splitRecognized(args []string) (recognized, rest []string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "--oml-") {
			rest = append(rest, a)
			continue
		}

		recognized = append(recognized, a)
		if strings.Contains(a, "=") {
			continue
		}
		// "--oml-foo value" form: consume the following value token too,
		// unless this is the last argument.
		if i+1 < len(args) {
			i++
			recognized = append(recognized, args[i])
		}
	}

	return recognized, rest
}

type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
