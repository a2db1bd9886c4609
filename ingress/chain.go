package ingress

import "fmt"

// ForEncapsulation returns the Filter for a connection's encapsulation
// header value (spec.md §4.4: the preamble before "protocol:" naming a
// wrapping codec). An empty name selects Null.
func ForEncapsulation(name string) (Filter, error) {
	switch name {
	case "", "none":
		return &Null{}, nil
	case "gzip", "zlib":
		return &Inflate{}, nil
	case "zstd":
		return &Zstd{}, nil
	case "lz4":
		return &LZ4{}, nil
	default:
		return nil, fmt.Errorf("ingress: unsupported encapsulation %q", name)
	}
}
