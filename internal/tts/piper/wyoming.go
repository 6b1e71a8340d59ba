package piper

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Wyoming frames each event as
//
//	<json_length> <payload_length>\n
//	<json_bytes>\n
//	<payload_bytes>   (if payload_length > 0)

// Limits on a single frame read from the server.
const (
	maxJSONLen    = 1 << 20
	maxPayloadLen = 16 << 20
)

type event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

func writeEvent(w io.Writer, evt event, payload []byte) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshalling %s event: %w", evt.Type, err)
	}

	frame := make([]byte, 0, len(body)+len(payload)+24)
	frame = strconv.AppendInt(frame, int64(len(body)), 10)
	frame = append(frame, ' ')
	frame = strconv.AppendInt(frame, int64(len(payload)), 10)
	frame = append(frame, '\n')
	frame = append(frame, body...)
	frame = append(frame, '\n')
	frame = append(frame, payload...)

	_, err = w.Write(frame)
	return err
}

func readEvent(r io.Reader) (*event, []byte, error) {
	header := make([]byte, 0, 32)
	b := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, nil, fmt.Errorf("reading header: %w", err)
		}
		if b[0] == '\n' {
			break
		}
		if len(header) >= 64 {
			return nil, nil, fmt.Errorf("wyoming header too long")
		}
		header = append(header, b[0])
	}

	fields := strings.Fields(string(header))
	if len(fields) != 2 {
		return nil, nil, fmt.Errorf("invalid wyoming header: %q", header)
	}
	jsonLen, err := strconv.Atoi(fields[0])
	if err != nil || jsonLen < 0 {
		return nil, nil, fmt.Errorf("invalid json_length %q", fields[0])
	}
	if jsonLen > maxJSONLen {
		return nil, nil, fmt.Errorf("json_length %d exceeds %d", jsonLen, maxJSONLen)
	}
	payloadLen, err := strconv.Atoi(fields[1])
	if err != nil || payloadLen < 0 {
		return nil, nil, fmt.Errorf("invalid payload_length %q", fields[1])
	}
	if payloadLen > maxPayloadLen {
		return nil, nil, fmt.Errorf("payload_length %d exceeds %d", payloadLen, maxPayloadLen)
	}

	body := make([]byte, jsonLen+1) // trailing newline
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, fmt.Errorf("reading json: %w", err)
	}
	var evt event
	if err := json.Unmarshal(body[:jsonLen], &evt); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling event: %w", err)
	}

	var payload []byte
	if payloadLen > 0 {
		payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, nil, fmt.Errorf("reading payload: %w", err)
		}
	}
	return &evt, payload, nil
}

// infoVoices extracts installed voices from an "info" event.
func infoVoices(evt *event) []voiceInfo {
	programs, _ := evt.Data["tts"].([]any)
	var out []voiceInfo
	for _, p := range programs {
		prog, ok := p.(map[string]any)
		if !ok {
			continue
		}
		list, _ := prog["voices"].([]any)
		for _, v := range list {
			entry, ok := v.(map[string]any)
			if !ok {
				continue
			}
			if installed, ok := entry["installed"].(bool); ok && !installed {
				continue
			}
			name, _ := entry["name"].(string)
			langs, _ := entry["languages"].([]any)
			for _, l := range langs {
				if code, ok := l.(string); ok && name != "" {
					out = append(out, voiceInfo{name: name, language: code})
				}
			}
		}
	}
	return out
}

type voiceInfo struct {
	name     string
	language string
}

func intField(data map[string]any, key string, def int) int {
	if v, ok := data[key].(float64); ok && v > 0 {
		return int(v)
	}
	return def
}
