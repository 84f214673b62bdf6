// Package logging defines the small logger interface the digitizer core
// accepts, plus an adapter onto the standard library logger used by the
// command-line entry points.
package logging

import (
	"fmt"
	"log"
	"strings"
)

// Logger receives structured diagnostic messages from the pipeline.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is a single key/value pair attached to a log message.
type Field struct {
	Key   string
	Value interface{}
}

func String(key, value string) Field        { return Field{Key: key, Value: value} }
func Int(key string, value int) Field       { return Field{Key: key, Value: value} }
func Float(key string, value float64) Field { return Field{Key: key, Value: value} }
func Err(err error) Field                   { return Field{Key: "error", Value: err} }

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(string, ...Field) {}
func (Nop) Info(string, ...Field)  {}
func (Nop) Warn(string, ...Field)  {}
func (Nop) Error(string, ...Field) {}
func (Nop) With(...Field) Logger   { return Nop{} }

// Std writes to a *log.Logger as "LEVEL msg key=value ...".
type Std struct {
	l      *log.Logger
	debug  bool
	fields []Field
}

// NewStd wraps l. Debug messages are dropped unless debug is true.
func NewStd(l *log.Logger, debug bool) *Std {
	return &Std{l: l, debug: debug}
}

func (s *Std) Debug(msg string, fields ...Field) {
	if s.debug {
		s.emit("DEBUG", msg, fields)
	}
}

func (s *Std) Info(msg string, fields ...Field)  { s.emit("INFO", msg, fields) }
func (s *Std) Warn(msg string, fields ...Field)  { s.emit("WARN", msg, fields) }
func (s *Std) Error(msg string, fields ...Field) { s.emit("ERROR", msg, fields) }

// With returns a logger that prefixes every message with fields.
func (s *Std) With(fields ...Field) Logger {
	merged := make([]Field, 0, len(s.fields)+len(fields))
	merged = append(merged, s.fields...)
	merged = append(merged, fields...)
	return &Std{l: s.l, debug: s.debug, fields: merged}
}

func (s *Std) emit(level, msg string, fields []Field) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, f := range s.fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	// calldepth 3 points Lshortfile at the caller of Debug/Info/...
	_ = s.l.Output(3, b.String())
}
