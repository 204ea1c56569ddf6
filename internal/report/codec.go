package report

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"

	"github.com/HendryAvila/lifetest/internal/catalog"
	"github.com/HendryAvila/lifetest/internal/scoring"
)

// ErrUndecodable means a transport code could not be turned back into a
// record. No part of the input is trusted in that case.
var ErrUndecodable = errors.New("result unavailable: transport code is undecodable")

const (
	codePrefix = "v1."

	// maxDecoded caps the inflated payload so a crafted code cannot balloon.
	maxDecoded = 64 << 10
)

var codeEncoding = base64.RawURLEncoding.Strict()

// Encode packs a record into a compact URL-safe string: a version prefix
// followed by unpadded base64url of zlib-compressed JSON. The zlib checksum
// lets Decode reject tampered codes.
func Encode(r Record) (string, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encoding record: %w", err)
	}

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", fmt.Errorf("creating zlib writer: %w", err)
	}
	if _, err := zw.Write(body); err != nil {
		return "", fmt.Errorf("compressing record: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compressing record: %w", err)
	}
	return codePrefix + codeEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode. Any malformed, truncated or inconsistent input
// yields ErrUndecodable and a zero record.
func Decode(code string) (Record, error) {
	r, err := decode(strings.TrimSpace(code))
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return r, nil
}

// DecodeVerified is Decode followed by Verify against cat and engine. A
// code whose record fails verification is as undecodable as a corrupt one.
func DecodeVerified(code string, cat *catalog.Catalog, engine *scoring.Engine) (Record, error) {
	r, err := Decode(code)
	if err != nil {
		return Record{}, err
	}
	if err := Verify(r, cat, engine); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return r, nil
}

func decode(code string) (Record, error) {
	payload, ok := strings.CutPrefix(code, codePrefix)
	if !ok {
		return Record{}, errors.New("unknown version prefix")
	}
	raw, err := codeEncoding.DecodeString(payload)
	if err != nil {
		return Record{}, fmt.Errorf("base64: %w", err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return Record{}, fmt.Errorf("zlib: %w", err)
	}
	defer zr.Close()
	body, err := io.ReadAll(io.LimitReader(zr, maxDecoded+1))
	if err != nil {
		return Record{}, fmt.Errorf("inflate: %w", err)
	}
	if len(body) > maxDecoded {
		return Record{}, errors.New("payload too large")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	var r Record
	if err := dec.Decode(&r); err != nil {
		return Record{}, fmt.Errorf("json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Record{}, errors.New("trailing data after record")
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}
