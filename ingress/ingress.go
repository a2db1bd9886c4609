// Package ingress implements the server-side decompression filters that sit
// in front of OMSP parsing when a connection carries an encapsulation header
// (spec.md §4.4, §9 Design Note "Gzip resync").
//
// A Filter consumes compressed bytes as they arrive and produces decoded
// OMSP bytes for the protocol parser to read. Filters are truncation
// tolerant: if a member is cut short by a dropped connection or a protocol
// error, the filter discards bytes up to the next codec frame boundary and
// resumes decoding from there rather than failing the whole connection.
package ingress

// Filter decodes one compression codec's framing. Consume reports how many
// bytes of in were accepted (buffer the rest and retry once more data
// arrives); Produce drains whatever decoded output is ready, appending to
// out and returning the extended slice.
type Filter interface {
	Consume(in []byte) (consumed int)
	Produce(out []byte) []byte
}

// Null is the identity filter, used when a connection carries no
// encapsulation header.
type Null struct {
	pending []byte
}

func (f *Null) Consume(in []byte) int {
	f.pending = append(f.pending, in...)
	return len(in)
}

func (f *Null) Produce(out []byte) []byte {
	out = append(out, f.pending...)
	f.pending = f.pending[:0]
	return out
}
