package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level represents the logging level
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
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level
func ParseLevel(s string) (Level, error) {
	switch s {
	case "debug", "DEBUG":
		return DebugLevel, nil
	case "info", "INFO":
		return InfoLevel, nil
	case "warn", "WARN":
		return WarnLevel, nil
	case "error", "ERROR":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level: %s", s)
	}
}

// Logger is the main logger interface
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	SetLevel(level Level)
	Close() error
}

// Sink represents a logging destination
type Sink interface {
	Write(level Level, timestamp time.Time, message string) error
	Close() error
}

var levelColors = map[Level]string{
	DebugLevel: "\033[36m", // cyan
	InfoLevel:  "\033[32m", // green
	WarnLevel:  "\033[33m", // yellow
	ErrorLevel: "\033[31m", // red
}

// ConsoleSink writes logs to stdout, or stderr for warnings and errors.
type ConsoleSink struct {
	useStderr bool
	colorize  bool
}

func NewConsoleSink(useStderr, colorize bool) *ConsoleSink {
	return &ConsoleSink{useStderr: useStderr, colorize: colorize}
}

func (s *ConsoleSink) Write(level Level, timestamp time.Time, message string) error {
	out := os.Stdout
	if s.useStderr && level >= WarnLevel {
		out = os.Stderr
	}

	tag := level.String()
	if s.colorize {
		tag = levelColors[level] + tag + "\033[0m"
	}

	_, err := fmt.Fprintf(out, "[%s] %s: %s\n", timestamp.Format("15:04:05"), tag, message)
	return err
}

func (s *ConsoleSink) Close() error {
	return nil
}

// FileSink appends logs to a file
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

func NewFileSink(filename string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &FileSink{file: file}, nil
}

func (s *FileSink) Write(level Level, timestamp time.Time, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := fmt.Fprintf(s.file, "[%s] %s: %s\n",
		timestamp.Format("2006-01-02 15:04:05"), level.String(), message)
	return err
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// MultiLogger fans messages out to every configured sink.
type MultiLogger struct {
	mu    sync.RWMutex
	sinks []Sink
	level Level
}

func NewMultiLogger(sinks ...Sink) *MultiLogger {
	return &MultiLogger{sinks: sinks, level: InfoLevel}
}

func (l *MultiLogger) log(level Level, format string, args ...interface{}) {
	l.mu.RLock()
	min := l.level
	sinks := l.sinks
	l.mu.RUnlock()

	if level < min {
		return
	}

	message := fmt.Sprintf(format, args...)
	now := time.Now()
	for _, sink := range sinks {
		if err := sink.Write(level, now, message); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write to log sink: %v\n", err)
		}
	}
}

func (l *MultiLogger) Debug(format string, args ...interface{}) {
	l.log(DebugLevel, format, args...)
}

func (l *MultiLogger) Info(format string, args ...interface{}) {
	l.log(InfoLevel, format, args...)
}

func (l *MultiLogger) Warn(format string, args ...interface{}) {
	l.log(WarnLevel, format, args...)
}

func (l *MultiLogger) Error(format string, args ...interface{}) {
	l.log(ErrorLevel, format, args...)
}

func (l *MultiLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *MultiLogger) Close() error {
	var failed int
	for _, sink := range l.sinks {
		if err := sink.Close(); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to close %d sinks", failed)
	}
	return nil
}

var (
	globalMu     sync.Mutex
	globalLogger Logger
)

// Initialize replaces the global logger. Later calls win, so configuration
// loaded after startup can re-route logging.
func Initialize(sinks ...Sink) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if len(sinks) == 0 {
		sinks = []Sink{NewConsoleSink(true, true)}
	}
	globalLogger = NewMultiLogger(sinks...)
}

// Get returns the global logger instance
func Get() Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewMultiLogger(NewConsoleSink(true, true))
	}
	return globalLogger
}

func Debug(format string, args ...interface{}) {
	Get().Debug(format, args...)
}

func Info(format string, args ...interface{}) {
	Get().Info(format, args...)
}

func Warn(format string, args ...interface{}) {
	Get().Warn(format, args...)
}

func Error(format string, args ...interface{}) {
	Get().Error(format, args...)
}

func SetLevel(level Level) {
	Get().SetLevel(level)
}
