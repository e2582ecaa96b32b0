package client

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Envelope is the uniform response wrapper {code, message, data, success}.
type Envelope struct {
	Code    int
	Message string
	Success bool
	// Data is the raw payload. When the response had no data field it holds
	// the whole response body.
	Data json.RawMessage
}

type wireEnvelope struct {
	code    *int
	success *bool
	message string
	data    json.RawMessage
	hasData bool
}

func decodeWire(b []byte) (wireEnvelope, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return wireEnvelope{}, false
	}
	var w wireEnvelope
	if raw, ok := fields["code"]; ok {
		var code int
		if json.Unmarshal(raw, &code) == nil {
			w.code = &code
		}
	}
	if raw, ok := fields["success"]; ok {
		var success bool
		if json.Unmarshal(raw, &success) == nil {
			w.success = &success
		}
	}
	for _, key := range []string{"message", "msg"} {
		if raw, ok := fields[key]; ok && w.message == "" {
			json.Unmarshal(raw, &w.message) //nolint:errcheck // non-string message is ignored
		}
	}
	w.data, w.hasData = fields["data"]
	return w, w.code != nil || w.success != nil
}

// parseEnvelope decodes body. ok is false when body is not an envelope at
// all (an array, a scalar, or an object with neither code nor success), in
// which case the caller treats the whole body as the payload.
//
// Business success is the success flag when present, otherwise code == 200.
func parseEnvelope(body []byte) (env Envelope, ok bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Envelope{Success: true, Data: trimmed}, false
	}
	w, ok := decodeWire(trimmed)
	if !ok {
		return Envelope{Success: true, Data: trimmed}, false
	}
	env.Message = w.message
	if w.code != nil {
		env.Code = *w.code
	}
	if w.success != nil {
		env.Success = *w.success
	} else {
		env.Success = env.Code == 200
	}
	if !w.hasData {
		env.Data = trimmed
		return env, true
	}
	env.Data = unwrapNested(w.data)
	return env, true
}

// unwrapNested strips one extra envelope layer (data.data) that some
// endpoints return, but only when the payload is itself a full envelope.
func unwrapNested(data json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return data
	}
	inner, ok := decodeWire(trimmed)
	if ok && inner.code != nil && inner.hasData && (inner.success != nil || inner.message != "") {
		return inner.data
	}
	return data
}

// isNull reports an absent or JSON null payload.
func isNull(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
