package bus

import (
	"encoding/json"
	"log/slog"
	"reflect"
)

// clonePayload deep-copies a payload through a JSON round trip, preserving
// the concrete type. Payloads crossing the bus must be JSON-serializable;
// anything else is delivered as-is with a warning, mirroring a shallow-copy
// fallback.
func clonePayload(payload any) any {
	if payload == nil {
		return nil
	}
	t := reflect.TypeOf(payload)
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		// Immutable already.
		return payload
	}

	data, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("payload clone failed, delivering original", "error", err)
		return payload
	}

	ptr := t.Kind() == reflect.Ptr
	if ptr {
		t = t.Elem()
	}
	out := reflect.New(t)
	if err := json.Unmarshal(data, out.Interface()); err != nil {
		slog.Warn("payload clone failed, delivering original", "error", err)
		return payload
	}
	if ptr {
		return out.Interface()
	}
	return out.Elem().Interface()
}
