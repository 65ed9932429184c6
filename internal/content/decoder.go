package content

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sentinel texts recorded on posts whose payload never decoded. They are
// stored in place of real content and must never classify as regular text.
const (
	SentinelNoContent = "no-content-available"
	SentinelCorrupted = "corrupted"
)

// ErrEncoded marks a container whose payload is encrypted. Broadcast posts
// are public; an encrypted one cannot be displayed.
var ErrEncoded = errors.New("content is encoded")

const flagEncoded = 0x01

// Decoded is the unpacked broadcast payload.
type Decoded struct {
	Version     byte
	ServiceCode uint32
	Text        string
}

// Decode unpacks a broadcast container: version byte, flags byte, big-endian
// uint32 service code, zlib-compressed UTF-8 text. The text is returned
// trimmed.
func Decode(raw []byte) (Decoded, error) {
	var out Decoded
	if len(raw) < 6 {
		return out, fmt.Errorf("container too short: %d bytes", len(raw))
	}
	out.Version = raw[0]
	flags := raw[1]
	if flags&flagEncoded != 0 {
		return out, ErrEncoded
	}
	out.ServiceCode = binary.BigEndian.Uint32(raw[2:6])
	blob := raw[6:]
	if len(blob) == 0 {
		return out, errors.New("container has empty blob")
	}
	reader, err := zlib.NewReader(bytes.NewReader(blob))
	if err != nil {
		return out, fmt.Errorf("failed to open blob: %w", err)
	}
	defer reader.Close()
	text, err := io.ReadAll(reader)
	if err != nil {
		return out, fmt.Errorf("failed to decompress blob: %w", err)
	}
	out.Text = strings.TrimSpace(string(text))
	return out, nil
}

// Encode packs text into a container. Used by tests and tooling; the
// ingestion path only decodes.
func Encode(version byte, serviceCode uint32, text string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(version)
	buf.WriteByte(0)
	var code [4]byte
	binary.BigEndian.PutUint32(code[:], serviceCode)
	buf.Write(code[:])
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte(text)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
