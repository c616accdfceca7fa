package upstream

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"aviratoDash/internal/shared/normalization"
)

// Envelope is the {status, data, meta} wrapper the PMS puts around replies.
// Bare arrays and objects are accepted and surface as Data.
type Envelope struct {
	Status  string
	Message string
	Data    any
	Meta    map[string]any
}

// OK reports whether the envelope signals success. A missing status is
// treated as success since several lookup endpoints omit it.
func (e *Envelope) OK() bool {
	s := strings.ToLower(strings.TrimSpace(e.Status))
	return s == "" || s == "success" || s == "ok"
}

// Items returns Data as a flat list of objects, unwrapping {"items": [...]}
// style containers.
func (e *Envelope) Items() []map[string]any {
	if obj, ok := e.Data.(map[string]any); ok {
		if nested, found := normalization.Lookup(obj, "items", "results", "rows"); found {
			return normalization.Flatten(nested)
		}
	}
	return normalization.Flatten(e.Data)
}

func decodeEnvelope(body []byte) (*Envelope, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return &Envelope{}, nil
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return &Envelope{Data: payload}, nil
	}
	_, hasData := obj["data"]
	_, hasStatus := obj["status"]
	if !hasData && !hasStatus {
		return &Envelope{Data: obj}, nil
	}
	return &Envelope{
		Status:  normalization.AsString(obj["status"]),
		Message: normalization.String(obj, "message", "error", "detail"),
		Data:    obj["data"],
		Meta:    normalization.AsMap(obj["meta"]),
	}, nil
}

// errorMessage pulls a human-readable message out of an error body.
func errorMessage(body []byte) string {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		if msg := normalization.String(obj, "message", "error", "detail"); msg != "" {
			return msg
		}
	}
	msg := strings.TrimSpace(string(body))
	return truncate(msg, maxErrorBody)
}

const maxErrorBody = 256

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
