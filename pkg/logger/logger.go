package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

// Logger is the shared logging interface for every module.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Fatalf(format string, v ...interface{})

	WithModule(name string) Logger
	WithFields(fields map[string]interface{}) Logger
}

const (
	levelDebug = 0
	levelInfo  = 1
	levelWarn  = 2
	levelError = 3
)

// NewLogger creates a leveled logger. If logFile is non-empty the output goes to
// that file as well as stderr.
func NewLogger(level, logFile string) Logger {
	out := io.Writer(os.Stderr)
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Printf("[ERROR] failed to open log file %s: %v", logFile, err)
		} else {
			out = io.MultiWriter(os.Stderr, f)
		}
	}

	return &stdLogger{
		out:   log.New(out, "", log.LstdFlags),
		level: parseLevel(level),
	}
}

type stdLogger struct {
	out    *log.Logger
	level  int
	module string
	fields map[string]interface{}
}

func parseLevel(l string) int {
	switch strings.ToLower(l) {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (l *stdLogger) WithModule(name string) Logger {
	clone := *l
	clone.module = name
	return &clone
}

func (l *stdLogger) WithFields(fields map[string]interface{}) Logger {
	clone := *l
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	clone.fields = merged
	return &clone
}

func (l *stdLogger) logf(level int, tag, format string, v ...interface{}) {
	if l.level > level {
		return
	}
	var b strings.Builder
	b.WriteString(tag)
	if l.module != "" {
		fmt.Fprintf(&b, " [%s]", strings.ToUpper(l.module))
	}
	b.WriteString(" ")
	fmt.Fprintf(&b, format, v...)
	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, l.fields[k])
		}
	}
	l.out.Print(b.String())
}

func (l *stdLogger) Debugf(format string, v ...interface{}) {
	l.logf(levelDebug, "[DEBUG]", format, v...)
}

func (l *stdLogger) Infof(format string, v ...interface{}) {
	l.logf(levelInfo, "[INFO]", format, v...)
}

func (l *stdLogger) Warnf(format string, v ...interface{}) {
	l.logf(levelWarn, "[WARN]", format, v...)
}

func (l *stdLogger) Errorf(format string, v ...interface{}) {
	l.logf(levelError, "[ERROR]", format, v...)
}

func (l *stdLogger) Fatalf(format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	if l.module != "" {
		msg = fmt.Sprintf("[%s] %s", strings.ToUpper(l.module), msg)
	}
	l.out.Fatalf("[FATAL] %s", msg)
}

type ctxKey struct{}

// NewContext attaches a logger to a context so nested components share one
// configured instance.
func NewContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or a default info-level logger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok {
		return l
	}
	return NewLogger("info", "")
}
