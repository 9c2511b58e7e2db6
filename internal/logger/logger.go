// Package logger provides leveled logging in text or JSON-lines form.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents a logging level.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger provides leveled logging.
type Logger struct {
	level  Level
	json   bool
	logger *log.Logger

	mu  sync.Mutex // guards out in JSON mode
	out io.Writer
}

var defaultLogger *Logger

// Init initializes the default logger with the specified level and format ("text" or "json").
func Init(level string, format string) {
	InitWithWriter(level, format, os.Stderr)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(level string, format string, w io.Writer) {
	flags := log.LstdFlags | log.Lmicroseconds
	isJSON := strings.ToLower(format) == "json"
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}
	defaultLogger = &Logger{
		level:  ParseLevel(level),
		json:   isJSON,
		logger: log.New(w, "", flags),
		out:    w,
	}
}

// Enabled reports whether messages at l would be written.
func Enabled(l Level) bool {
	return defaultLogger != nil && defaultLogger.level <= l
}

func output(l Level, format string, args ...interface{}) {
	if !Enabled(l) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if defaultLogger.json {
		line, err := json.Marshal(struct {
			Time  string `json:"time"`
			Level string `json:"level"`
			Msg   string `json:"msg"`
		}{time.Now().UTC().Format(time.RFC3339Nano), l.String(), msg})
		if err != nil {
			return
		}
		defaultLogger.mu.Lock()
		_, _ = defaultLogger.out.Write(append(line, '\n'))
		defaultLogger.mu.Unlock()
		return
	}
	_ = defaultLogger.logger.Output(3, "["+l.String()+"] "+msg)
}

func Debug(format string, args ...interface{}) {
	output(DebugLevel, format, args...)
}

func Info(format string, args ...interface{}) {
	output(InfoLevel, format, args...)
}

func Warn(format string, args ...interface{}) {
	output(WarnLevel, format, args...)
}

func Error(format string, args ...interface{}) {
	output(ErrorLevel, format, args...)
}

func Fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf("[FATAL] "+format, args...)
	if defaultLogger != nil {
		_ = defaultLogger.logger.Output(2, msg)
	}
	os.Exit(1)
}

// Printf adapts the package logger to libraries that expect Errorf/Warnf/Debugf,
// such as the resty HTTP client.
type Printf struct {
	Prefix string
}

func (p Printf) Errorf(format string, v ...interface{}) {
	output(ErrorLevel, p.Prefix+strings.TrimSuffix(format, "\n"), v...)
}

func (p Printf) Warnf(format string, v ...interface{}) {
	output(WarnLevel, p.Prefix+strings.TrimSuffix(format, "\n"), v...)
}

func (p Printf) Debugf(format string, v ...interface{}) {
	output(DebugLevel, p.Prefix+strings.TrimSuffix(format, "\n"), v...)
}
