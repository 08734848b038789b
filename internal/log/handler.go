package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// sensitiveKeys contains attribute keys that are always masked.
var sensitiveKeys = map[string]bool{
	// Sign-in
	"password": true,
	"passwd":   true,
	"username": true,
	"user":     true,
	"email":    true,
	"login":    true,

	// HTTP and browser session
	"authorization": true,
	"cookie":        true,
	"cookies":       true,
	"set-cookie":    true,
	"session":       true,
	"session_id":    true,
	"jsessionid":    true,
	"li_at":         true,
	"csrf":          true,
	"csrf_token":    true,
}

// sensitiveKeywords mask any key containing them.
// The bare word "key" is left out: "cache_key" or "sort_key" are not
// secrets.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "cookie",
}

// labelKeys hold people's names and are masked when labels are redacted.
var labelKeys = map[string]bool{
	"label":        true,
	"target_label": true,
}

// sensitivePatterns mask values regardless of their key.
var sensitivePatterns = []*regexp.Regexp{
	// E-mail addresses, typically the sign-in username
	regexp.MustCompile(`(?i)^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`),

	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Bearer and basic credentials
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),

	// Cookie headers carrying a session cookie
	regexp.MustCompile(`(?i)(^|;\s*)(li_at|jsessionid|li_rm)=`),
}

// SecureHandler wraps an slog.Handler and masks sensitive attributes
// before passing records to it.
//
// Design decision: We use a handler wrapper rather than a custom logger
// so that every slog API and any underlying handler (text, JSON) is
// covered, including loggers handed to chromedp for its own messages.
type SecureHandler struct {
	// handler receives the sanitized records.
	handler slog.Handler

	// redactLabels also masks profile labels.
	redactLabels bool
}

// NewSecureHandler creates a new SecureHandler wrapping the given handler.
// If handler is nil, the returned SecureHandler uses slog.Default().Handler().
func NewSecureHandler(handler slog.Handler, redactLabels bool) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler, redactLabels: redactLabels}
}

// Enabled delegates to the underlying handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(h.sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new handler with the sanitized attributes added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = h.sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized), redactLabels: h.redactLabels}
}

// WithGroup returns a new handler with the given group name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name), redactLabels: h.redactLabels}
}

// sanitizeAttr masks a single attribute, recursing into groups.
func (h *SecureHandler) sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = h.sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	key := strings.ToLower(a.Key)
	if sensitiveKeys[key] || containsSensitiveKeyword(key) {
		return slog.String(a.Key, MaskValue)
	}
	if h.redactLabels && labelKeys[key] {
		return slog.String(a.Key, MaskValue)
	}

	// Errors are flattened to strings with embedded e-mail addresses masked.
	switch a.Value.Kind() {
	case slog.KindString:
		if isSensitiveValue(a.Value.String()) {
			return slog.String(a.Key, MaskValue)
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok && err != nil {
			return slog.String(a.Key, maskInline(err.Error()))
		}
	}
	return a
}

// containsSensitiveKeyword checks if the key contains a sensitive keyword.
func containsSensitiveKeyword(key string) bool {
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(key, keyword) {
			return true
		}
	}
	return false
}

// isSensitiveValue checks if a value matches a sensitive pattern.
func isSensitiveValue(value string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(value) {
			return true
		}
	}
	return false
}

// inlineEmail finds e-mail addresses inside longer text.
var inlineEmail = regexp.MustCompile(`(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)

// maskInline masks e-mail addresses embedded in a message.
func maskInline(s string) string {
	return inlineEmail.ReplaceAllString(s, MaskValue)
}

// Options configures NewLogger.
type Options struct {
	// Verbose sets the level to Debug instead of Info.
	Verbose bool

	// JSON selects the JSON handler instead of the text handler.
	JSON bool

	// RedactLabels masks profile labels.
	RedactLabels bool
}

// NewLogger creates a logger writing to w through a SecureHandler.
// The crawl reports its progress at Info level, so Info is the default.
func NewLogger(w io.Writer, opts Options) *slog.Logger {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(NewSecureHandler(handler, opts.RedactLabels))
}
