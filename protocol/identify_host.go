//go:build !tinygo

package protocol

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// IdentifyChunk is the dictionary chunk size the host asks for. It keeps
// an identify_response within one frame.
const IdentifyChunk = 40

// DictionaryInfo is the parsed identify dictionary.
type DictionaryInfo struct {
	Version  string            `json:"version"`
	Config   map[string]string `json:"config"`
	Messages map[string]int    `json:"messages"`
}

// Verify checks that the device numbers its messages the way this
// package does.
func (d *DictionaryInfo) Verify() error {
	for _, def := range Messages {
		key := def.Name
		if def.Format != "" {
			key += " " + def.Format
		}
		id, ok := d.Messages[key]
		if !ok {
			return fmt.Errorf("device does not know %q", key)
		}
		if id != int(def.ID) {
			return fmt.Errorf("%s: device id %d, host id %d", def.Name, id, def.ID)
		}
	}
	return nil
}

// Identify downloads and inflates the device dictionary. Messages that
// arrive in between are discarded.
func (l *Link) Identify(timeout time.Duration) (*DictionaryInfo, error) {
	var z []byte
	for {
		if err := l.Send(Identify{Offset: uint32(len(z)), Count: IdentifyChunk}); err != nil {
			return nil, err
		}
		chunk, err := l.awaitChunk(uint32(len(z)), timeout)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			break
		}
		z = append(z, chunk...)
	}

	r, err := zlib.NewReader(bytes.NewReader(z))
	if err != nil {
		return nil, fmt.Errorf("identify: %w", err)
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("identify: inflate: %w", err)
	}
	info := new(DictionaryInfo)
	if err := json.Unmarshal(raw, info); err != nil {
		return nil, fmt.Errorf("identify: %w", err)
	}
	return info, nil
}

func (l *Link) awaitChunk(offset uint32, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return nil, fmt.Errorf("identify: no response for offset %d", offset)
		}
		r, err := l.Receive(left)
		if err != nil {
			return nil, fmt.Errorf("identify: %w", err)
		}
		resp, ok := r.Message.(IdentifyResponse)
		if ok && resp.Offset == offset {
			return resp.Data, nil
		}
	}
}
