package render

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// PlantUML uses the base64 bit layout with its own alphabet.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

var encoding = base64.NewEncoding(alphabet).WithPadding(base64.NoPadding)

// Encode compresses src with raw deflate and encodes it for use in a
// PlantUML server URL. Incomplete trailing groups are filled with '0',
// the encoding of zero bits.
func Encode(src []byte) (string, error) {
	var buf bytes.Buffer
	zw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := zw.Write(src); err != nil {
		return "", fmt.Errorf("deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("deflate: %w", err)
	}
	return encode64(buf.Bytes()), nil
}

func encode64(data []byte) string {
	s := encoding.EncodeToString(data)
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("0", 4-rem)
	}
	return s
}

// Decode reverses Encode.
func Decode(s string) ([]byte, error) {
	data, err := encoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	zr := flate.NewReader(bytes.NewReader(data))
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return out, nil
}
