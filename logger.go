package inventory

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type defLogger struct {
	name string
}

func (d defLogger) Debug(msg string, args ...any) { d.print("DBG", msg, args...) }
func (d defLogger) Info(msg string, args ...any)  { d.print("INF", msg, args...) }
func (d defLogger) Warn(msg string, args ...any)  { d.print("WRN", msg, args...) }
func (d defLogger) Error(msg string, args ...any) { d.print("ERR", msg, args...) }

func (d defLogger) print(level, msg string, args ...any) {
	name := d.name
	if name == "" {
		name = "inventory"
	}
	fmt.Printf("[%s] %s %s%s\n", level, strings.ToUpper(name), msg, formatArgs(args))
}

func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
			continue
		}
		fmt.Fprintf(&b, " %v", args[i])
	}
	return b.String()
}

type defLoggerProvider struct{}

func (defLoggerProvider) GetLogger(name string) Logger {
	return defLogger{name: name}
}

// ResolveLogger picks the logger for a component. An explicit logger wins,
// then the provider, then the stdout fallback.
func ResolveLogger(name string, provider LoggerProvider, logger Logger) (LoggerProvider, Logger) {
	if provider == nil {
		provider = defLoggerProvider{}
	}
	if logger != nil {
		return provider, logger
	}
	if l := provider.GetLogger(name); l != nil {
		return provider, l
	}
	return provider, defLogger{name: name}
}

// ZapLoggerProvider adapts a zap logger to LoggerProvider.
type ZapLoggerProvider struct {
	base *zap.SugaredLogger
}

// NewZapLoggerProvider wraps the given zap logger.
func NewZapLoggerProvider(l *zap.Logger) *ZapLoggerProvider {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLoggerProvider{base: l.Sugar()}
}

// GetLogger returns a named child logger.
func (p *ZapLoggerProvider) GetLogger(name string) Logger {
	return zapLogger{s: p.base.Named(name)}
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }
func (l zapLogger) Info(msg string, args ...any)  { l.s.Infow(msg, args...) }
func (l zapLogger) Warn(msg string, args ...any)  { l.s.Warnw(msg, args...) }
func (l zapLogger) Error(msg string, args ...any) { l.s.Errorw(msg, args...) }
