package maybenot

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/gob"
	"fmt"
	"io"
)

// wireMachine is the gob-encoded payload. Kept distinct from Machine so the
// wire shape can evolve independently of the in-memory type without
// touching every call site.
type wireMachine struct {
	AllowedPaddingBytes    uint64
	MaxPaddingFrac         float64
	AllowedBlockedMicrosec uint64
	MaxBlockingFrac        float64
	States                 []State
	IncludeSmallPackets    bool
}

// Serialize renders m as a two-character decimal version prefix followed by
// base64 of zlib-compressed gob-encoded state, per spec §6. The stdlib
// covers this concern directly (no pack library offers compression,
// base64 framing, or a binary codec); see DESIGN.md.
func (m *Machine) Serialize() (string, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	enc := gob.NewEncoder(zw)
	w := wireMachine{
		AllowedPaddingBytes:    m.AllowedPaddingBytes,
		MaxPaddingFrac:         m.MaxPaddingFrac,
		AllowedBlockedMicrosec: m.AllowedBlockedMicrosec,
		MaxBlockingFrac:        m.MaxBlockingFrac,
		States:                 m.States,
		IncludeSmallPackets:    m.IncludeSmallPackets,
	}
	if err := enc.Encode(w); err != nil {
		return "", wrapError(KindSerialization, err, "encoding machine")
	}
	if err := zw.Close(); err != nil {
		return "", wrapError(KindSerialization, err, "compressing machine")
	}
	return fmt.Sprintf("%02d%s", Version, base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// DeserializeMachine parses the form produced by Serialize. A version
// mismatch, truncated input, decompression overflow, or trailing garbage is
// a KindSerialization error.
func DeserializeMachine(s string) (*Machine, error) {
	if len(s) < 2 {
		return nil, newError(KindSerialization, "input shorter than the 2-digit version prefix")
	}
	versionStr, rest := s[:2], s[2:]
	var version int
	if _, err := fmt.Sscanf(versionStr, "%02d", &version); err != nil {
		return nil, wrapError(KindSerialization, err, "parsing version prefix %q", versionStr)
	}
	if version != Version {
		return nil, newError(KindSerialization, "version mismatch: got %d, want %d", version, Version)
	}
	raw, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "base64 decoding machine")
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, wrapError(KindSerialization, err, "opening compressed machine")
	}
	defer zr.Close()

	limited := io.LimitReader(zr, MaxDecompressedSize+1)
	decompressed, err := io.ReadAll(limited)
	if err != nil {
		return nil, wrapError(KindSerialization, err, "decompressing machine")
	}
	if len(decompressed) > MaxDecompressedSize {
		return nil, newError(KindSerialization, "decompressed machine exceeds %d bytes", MaxDecompressedSize)
	}

	var w wireMachine
	r := bytes.NewReader(decompressed)
	dec := gob.NewDecoder(r)
	if err := dec.Decode(&w); err != nil {
		return nil, wrapError(KindSerialization, err, "decoding machine")
	}
	if r.Len() > 0 {
		return nil, newError(KindSerialization, "%d trailing byte(s) after decoding machine", r.Len())
	}

	m := &Machine{
		AllowedPaddingBytes:    w.AllowedPaddingBytes,
		MaxPaddingFrac:         w.MaxPaddingFrac,
		AllowedBlockedMicrosec: w.AllowedBlockedMicrosec,
		MaxBlockingFrac:        w.MaxBlockingFrac,
		States:                 w.States,
		IncludeSmallPackets:    w.IncludeSmallPackets,
	}
	if err := m.Validate(); err != nil {
		return nil, wrapError(KindSerialization, err, "deserialized machine fails validation")
	}
	return m, nil
}
