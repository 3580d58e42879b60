// Package logger provides structured logging for ChatVault.
package logger

import (
	"log/slog"
	"strings"
	"sync/atomic"
)

// contentKeys name attributes that carry conversation text. Their
// values are redacted when content redaction is enabled so log files
// never retain what users wrote.
var contentKeys = []string{
	"preview",
	"message_text",
	"last_message_preview",
}

// sensitiveKeyPatterns name attributes that always redact,
// regardless of the content redaction switch.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"encryption_key",
	"credential",
}

// redactedValue is the placeholder for redacted data.
const redactedValue = "***REDACTED***"

// redactContent is the process-wide content redaction switch,
// set from configuration at logger construction.
var redactContent atomic.Bool

// SetContentRedaction toggles redaction of conversation text attributes.
func SetContentRedaction(enabled bool) {
	redactContent.Store(enabled)
}

// ContentRedactionEnabled reports the current redaction setting.
func ContentRedactionEnabled() bool {
	return redactContent.Load()
}

// redactSensitive rewrites attributes that carry secrets or, when
// enabled, conversation content.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		keyLower := strings.ToLower(a.Key)

		for _, pattern := range sensitiveKeyPatterns {
			if strings.Contains(keyLower, pattern) {
				if a.Value.String() != "" {
					return slog.String(a.Key, redactedValue)
				}
				return a
			}
		}

		if redactContent.Load() {
			for _, key := range contentKeys {
				if keyLower == key {
					if a.Value.String() != "" {
						return slog.String(a.Key, redactedValue)
					}
					return a
				}
			}
		}
	}

	// Handle nested groups recursively.
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// IsSensitiveKey checks if a key name suggests secret content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
