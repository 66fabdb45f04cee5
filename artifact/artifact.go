// Package artifact serializes compiled decoding graphs.
//
// Building a large decoding graph can take longer than a realtime budget
// allows, so control software compiles it once, stores the artifact, and
// loads it at session start. An artifact is bound to the exact (code,
// noise model) pair through their fingerprints; Load refuses a payload
// whose fingerprints do not match the bound configuration.
//
// Payloads are checksummed and optionally compressed. LZ4 favors load
// latency, zstd favors artifact size.
package artifact

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/qecflow/rtdec/blobstore"
	"github.com/qecflow/rtdec/code"
	"github.com/qecflow/rtdec/graph"
	"github.com/qecflow/rtdec/noise"
)

// Compression selects the payload codec.
type Compression uint8

const (
	// CompressionNone stores the payload raw.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression.
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses zstd.
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// FormatVersion is the current on-disk format version.
const FormatVersion = 1

var magic = [4]byte{'R', 'T', 'D', 'A'}

// Header layout, little-endian:
//
//	magic[4] version[1] compression[1] reserved[2]
//	codeFP[8] modelFP[8]
//	numChecks[4] numQubits[4] numEdges[4]
//	payloadLen[4] payloadCRC[4]
const headerSize = 4 + 1 + 1 + 2 + 8 + 8 + 4 + 4 + 4 + 4 + 4

// Edge payload entry: U[4] V[4] Qubit[4] Weight[8].
const edgeSize = 4 + 4 + 4 + 8

// ErrCorruptArtifact is returned when an artifact fails structural or
// checksum validation.
var ErrCorruptArtifact = errors.New("corrupt graph artifact")

// MismatchError is returned when an artifact was compiled for a different
// code or noise model than the one it is being loaded against.
type MismatchError struct {
	Field string // "code" or "model"
	Want  uint64
	Got   uint64
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("artifact %s fingerprint %016x does not match %016x", e.Field, e.Got, e.Want)
}

// Encode serializes a compiled graph.
func Encode(g *graph.Graph, compression Compression) ([]byte, error) {
	payload := make([]byte, g.NumEdges()*edgeSize)
	for i := 0; i < g.NumEdges(); i++ {
		e := g.Edge(int32(i))
		off := i * edgeSize
		binary.LittleEndian.PutUint32(payload[off:], e.U)
		binary.LittleEndian.PutUint32(payload[off+4:], e.V)
		binary.LittleEndian.PutUint32(payload[off+8:], e.Qubit)
		binary.LittleEndian.PutUint64(payload[off+12:], math.Float64bits(e.Weight))
	}

	compressed, compression, err := compress(payload, compression)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, headerSize+len(compressed))
	copy(buf[0:], magic[:])
	buf[4] = FormatVersion
	buf[5] = uint8(compression)
	binary.LittleEndian.PutUint64(buf[8:], g.CodeFingerprint())
	binary.LittleEndian.PutUint64(buf[16:], g.ModelFingerprint())
	binary.LittleEndian.PutUint32(buf[24:], uint32(g.NumChecks()))
	binary.LittleEndian.PutUint32(buf[28:], uint32(g.NumQubits()))
	binary.LittleEndian.PutUint32(buf[32:], uint32(g.NumEdges()))
	binary.LittleEndian.PutUint32(buf[36:], uint32(len(compressed)))
	binary.LittleEndian.PutUint32(buf[40:], crc32.ChecksumIEEE(compressed))
	copy(buf[headerSize:], compressed)
	return buf, nil
}

// Decode deserializes an artifact into a usable graph.
func Decode(data []byte) (*graph.Graph, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes is smaller than the header", ErrCorruptArtifact, len(data))
	}
	if [4]byte(data[0:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptArtifact)
	}
	if v := data[4]; v != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %d", ErrCorruptArtifact, v)
	}
	compression := Compression(data[5])

	codeFP := binary.LittleEndian.Uint64(data[8:])
	modelFP := binary.LittleEndian.Uint64(data[16:])
	numChecks := binary.LittleEndian.Uint32(data[24:])
	numQubits := binary.LittleEndian.Uint32(data[28:])
	numEdges := binary.LittleEndian.Uint32(data[32:])
	payloadLen := binary.LittleEndian.Uint32(data[36:])
	payloadCRC := binary.LittleEndian.Uint32(data[40:])

	if int(payloadLen) != len(data)-headerSize {
		return nil, fmt.Errorf("%w: payload length %d does not match %d trailing bytes",
			ErrCorruptArtifact, payloadLen, len(data)-headerSize)
	}
	compressed := data[headerSize:]
	if crc32.ChecksumIEEE(compressed) != payloadCRC {
		return nil, fmt.Errorf("%w: payload checksum mismatch", ErrCorruptArtifact)
	}

	payload, err := decompress(compressed, compression, int(numEdges)*edgeSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	if len(payload) != int(numEdges)*edgeSize {
		return nil, fmt.Errorf("%w: payload holds %d bytes, want %d edges",
			ErrCorruptArtifact, len(payload), numEdges)
	}

	edges := make([]graph.Edge, numEdges)
	for i := range edges {
		off := i * edgeSize
		edges[i] = graph.Edge{
			U:      binary.LittleEndian.Uint32(payload[off:]),
			V:      binary.LittleEndian.Uint32(payload[off+4:]),
			Qubit:  binary.LittleEndian.Uint32(payload[off+8:]),
			Weight: math.Float64frombits(binary.LittleEndian.Uint64(payload[off+12:])),
		}
	}

	g, err := graph.FromEdges(codeFP, modelFP, int(numChecks), int(numQubits), edges)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArtifact, err)
	}
	return g, nil
}

// Name returns the canonical blob name for a (code, model) pair.
func Name(desc *code.Description, model *noise.Model) string {
	return fmt.Sprintf("graphs/%016x-%016x.rtda", desc.Fingerprint(), model.Fingerprint())
}

// Save encodes g and writes it to the store under its canonical name.
func Save(ctx context.Context, store blobstore.BlobStore, g *graph.Graph, compression Compression) (string, error) {
	data, err := Encode(g, compression)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("graphs/%016x-%016x.rtda", g.CodeFingerprint(), g.ModelFingerprint())
	if err := store.Put(ctx, name, data); err != nil {
		return "", err
	}
	return name, nil
}

// Load fetches and decodes the artifact for (desc, model), verifying that
// it was compiled for exactly that pair. Returns blobstore.ErrNotFound if
// no artifact has been saved.
func Load(ctx context.Context, store blobstore.BlobStore, desc *code.Description, model *noise.Model) (*graph.Graph, error) {
	blob, err := store.Open(ctx, Name(desc, model))
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return nil, err
	}

	g, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if g.CodeFingerprint() != desc.Fingerprint() {
		return nil, &MismatchError{Field: "code", Want: desc.Fingerprint(), Got: g.CodeFingerprint()}
	}
	if g.ModelFingerprint() != model.Fingerprint() {
		return nil, &MismatchError{Field: "model", Want: model.Fingerprint(), Got: g.ModelFingerprint()}
	}
	return g, nil
}
