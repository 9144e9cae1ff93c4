// Package persistence saves and loads fitted models together with
// their preprocessing pipelines.
//
// The file format is self-describing: a fixed header records the
// format version, the codec and compression names, and a CRC32
// checksum of the compressed payload. Loading validates all of them
// before decoding, so corruption and incompatible writers fail fast.
//
// Layout (little endian):
//
//	magic       [8]byte  "CLUSTKIT"
//	version     uint16
//	codec       uint8 length + bytes
//	compression uint8 length + bytes
//	checksum    uint32 (CRC32-IEEE of the payload bytes)
//	payloadLen  uint64
//	payload     []byte
package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/clusterkit/clusterkit/codec"
	"github.com/clusterkit/clusterkit/distance"
	"github.com/clusterkit/clusterkit/kmeans"
	"github.com/clusterkit/clusterkit/preprocess"
)

var (
	// ErrBadMagic is returned when the file does not start with the
	// snapshot magic.
	ErrBadMagic = errors.New("not a clusterkit snapshot")

	// ErrChecksum is returned when the payload checksum does not match.
	ErrChecksum = errors.New("snapshot checksum mismatch")

	// ErrUnsupportedVersion is returned for snapshots written by a
	// newer format version.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

var magic = [8]byte{'C', 'L', 'U', 'S', 'T', 'K', 'I', 'T'}

// FormatVersion is the current snapshot format version.
const FormatVersion uint16 = 1

// maxNameLen bounds codec/compression names in the header.
const maxNameLen = 255

// ModelState is the serialized form of a fitted model.
type ModelState struct {
	K             int         `json:"k"`
	Metric        string      `json:"metric"`
	MaxIterations int         `json:"max_iterations"`
	Tolerance     float64     `json:"tolerance"`
	Centroids     [][]float64 `json:"centroids"`
	Inertia       float64     `json:"inertia"`
	Iterations    int         `json:"iterations"`
	Converged     bool        `json:"converged"`
}

// Snapshot bundles a fitted model with the pipeline that produced its
// feature matrix.
type Snapshot struct {
	Model    ModelState           `json:"model"`
	Pipeline *preprocess.Pipeline `json:"pipeline,omitempty"`
}

// FromModel captures a snapshot of a fitted model and optional pipeline.
func FromModel(m *kmeans.Model, p *preprocess.Pipeline) *Snapshot {
	return &Snapshot{
		Model: ModelState{
			K:             m.K,
			Metric:        m.Metric.String(),
			MaxIterations: m.MaxIterations,
			Tolerance:     m.Tolerance,
			Centroids:     m.Centroids,
			Inertia:       m.Inertia,
			Iterations:    m.Iterations,
			Converged:     m.Converged,
		},
		Pipeline: p,
	}
}

// ToModel reconstructs a fitted model from the snapshot.
func (s *Snapshot) ToModel() (*kmeans.Model, error) {
	metric, ok := distance.MetricByName(s.Model.Metric)
	if !ok {
		return nil, fmt.Errorf("unknown metric in snapshot: %q", s.Model.Metric)
	}

	m := kmeans.New(s.Model.K)
	m.Metric = metric
	if s.Model.MaxIterations > 0 {
		m.MaxIterations = s.Model.MaxIterations
	}
	if s.Model.Tolerance > 0 {
		m.Tolerance = s.Model.Tolerance
	}
	m.Centroids = s.Model.Centroids
	m.Inertia = s.Model.Inertia
	m.Iterations = s.Model.Iterations
	m.Converged = s.Model.Converged
	return m, nil
}

// Options configures Save.
type Options struct {
	// Codec encodes the payload. Defaults to codec.Default.
	Codec codec.Codec

	// Compression wraps the encoded payload. Defaults to none.
	Compression codec.Compression
}

// Save writes the snapshot to w.
func Save(w io.Writer, snap *Snapshot, optFns ...func(*Options)) error {
	opts := Options{Codec: codec.Default, Compression: codec.CompressionNone}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Compression == "" {
		opts.Compression = codec.CompressionNone
	}

	encoded, err := opts.Codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	payload, err := codec.Compress(opts.Compression, encoded)
	if err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}

	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, FormatVersion); err != nil {
		return err
	}
	if err := writeName(w, opts.Codec.Name()); err != nil {
		return err
	}
	if err := writeName(w, string(opts.Compression)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, crc32.ChecksumIEEE(payload)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(len(payload))); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// Load reads a snapshot from r, validating magic, version, codec,
// compression and checksum.
func Load(r io.Reader) (*Snapshot, error) {
	var gotMagic [8]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMagic, err)
	}
	if gotMagic != magic {
		return nil, ErrBadMagic
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version > FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	codecName, err := readName(r)
	if err != nil {
		return nil, err
	}
	c, ok := codec.ByName(codecName)
	if !ok {
		return nil, fmt.Errorf("unknown codec in snapshot: %q", codecName)
	}

	compressionName, err := readName(r)
	if err != nil {
		return nil, err
	}
	compression, ok := codec.CompressionByName(compressionName)
	if !ok {
		return nil, fmt.Errorf("unknown compression in snapshot: %q", compressionName)
	}

	var checksum uint32
	if err := binary.Read(r, binary.LittleEndian, &checksum); err != nil {
		return nil, err
	}

	var payloadLen uint64
	if err := binary.Read(r, binary.LittleEndian, &payloadLen); err != nil {
		return nil, err
	}
	if payloadLen > math.MaxInt32 {
		return nil, fmt.Errorf("implausible payload length %d", payloadLen)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(payload) != checksum {
		return nil, ErrChecksum
	}

	encoded, err := codec.Decompress(compression, payload)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}

	var snap Snapshot
	if err := c.Unmarshal(encoded, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

func writeName(w io.Writer, name string) error {
	if len(name) == 0 || len(name) > maxNameLen {
		return fmt.Errorf("invalid header name %q", name)
	}
	if _, err := w.Write([]byte{byte(len(name))}); err != nil {
		return err
	}
	_, err := io.WriteString(w, name)
	return err
}

func readName(r io.Reader) (string, error) {
	var lenByte [1]byte
	if _, err := io.ReadFull(r, lenByte[:]); err != nil {
		return "", err
	}
	buf := make([]byte, lenByte[0])
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
