// Package compress provides the codecs available to OML's compressed sinks
// and the server's ingress decompression (spec.md §5 "compressed sink",
// §9 gzip/zstd/lz4 URI prefixes).
//
// A Codec operates on one whole buffer at a time — one flushed write group
// from a sink, or one decoded member on the ingress side — never on a
// continuous stream. That keeps the member boundary aligned with a frame
// boundary so a reader that loses sync can resync at the next member header
// instead of needing to reparse everything that came before it.
//
// Supported algorithms:
//
//   - None: no compression, data passed through unmodified
//   - Gzip/Zlib: klauspost/compress/gzip, selected by the "gzip+"/"zlib+"
//     sink URI prefix
//   - Zstd: klauspost/compress/zstd, selected by "zstd+"
//   - LZ4: pierrec/lz4/v4, selected by "lz4+"
//
// Pick a codec with NewCodec:
//
//	codec, err := compress.NewCodec(compress.Zstd)
//	compressed, err := codec.Compress(rowBytes)
//	original, err := codec.Decompress(compressed)
package compress
