// Package logging provides categorized file-based logging for deckforge.
// Logs are written to <dir>/logs/ with separate files per category.
// When debug mode is off every logger is a silent no-op, so call sites
// never need to guard their log statements.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryRender   Category = "render"   // Headless browser, screenshots
	CategoryGenerate Category = "generate" // Model API calls
	CategoryRepair   Category = "repair"   // Generate-execute-fix loop
	CategoryExecute  Category = "execute"  // Builder subprocess runs
	CategorySink     Category = "sink"     // Artifact delivery (local, GCS)
	CategoryMerge    Category = "merge"    // Deck merging
	CategoryCLI      Category = "cli"      // Command-level events
)

// Log levels
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Options controls where and how much a Log writes.
type Options struct {
	Dir        string          // Base directory, log files go to Dir/logs
	Debug      bool            // When false, New returns a no-op Log
	Level      string          // debug/info/warn/error, default info
	Categories map[string]bool // nil means all categories enabled
}

// Log owns the per-category loggers for one run. It is safe for
// concurrent use.
type Log struct {
	dir        string
	debug      bool
	level      int
	categories map[string]bool

	mu      sync.Mutex
	loggers map[Category]*Logger
}

// New creates a Log writing to opts.Dir/logs. The directory is created
// lazily on the first write, so a disabled Log touches nothing on disk.
func New(opts Options) *Log {
	level := LevelInfo
	switch opts.Level {
	case "debug":
		level = LevelDebug
	case "info", "":
		level = LevelInfo
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	}
	return &Log{
		dir:        filepath.Join(opts.Dir, "logs"),
		debug:      opts.Debug,
		level:      level,
		categories: opts.Categories,
		loggers:    make(map[Category]*Logger),
	}
}

// Nop returns a Log that discards everything.
func Nop() *Log {
	return &Log{loggers: make(map[Category]*Logger)}
}

func (l *Log) categoryEnabled(c Category) bool {
	if !l.debug {
		return false
	}
	if l.categories == nil {
		return true
	}
	enabled, ok := l.categories[string(c)]
	if !ok {
		return true
	}
	return enabled
}

// Get returns (or creates) the logger for a category. Disabled
// categories get a no-op logger, never nil.
func (l *Log) Get(category Category) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lg, ok := l.loggers[category]; ok {
		return lg
	}

	lg := &Logger{category: category, level: l.level}
	if l.categoryEnabled(category) {
		if err := os.MkdirAll(l.dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "[logging] Warning: could not create %s: %v\n", l.dir, err)
		} else {
			date := time.Now().Format("2006-01-02")
			logPath := filepath.Join(l.dir, fmt.Sprintf("%s_%s.log", date, category))
			file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
			} else {
				lg.file = file
				lg.logger = log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds)
			}
		}
	}
	l.loggers[category] = lg
	return lg
}

// CloseAll closes every open log file. Call at shutdown.
func (l *Log) CloseAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, lg := range l.loggers {
		if lg.file != nil {
			lg.file.Close()
		}
	}
	l.loggers = make(map[Category]*Logger)
}

// Logger writes to one category's file. A Logger with no backing file
// silently drops everything.
type Logger struct {
	category Category
	level    int
	logger   *log.Logger
	file     *os.File
}

// Debug logs a debug message (only if level <= debug)
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || l.level > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message (only if level <= info)
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || l.level > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning message (only if level <= warn)
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || l.level > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error message (always written if the file is open)
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// Timer helps measure operation duration.
type Timer struct {
	logger *Logger
	op     string
	start  time.Time
}

// StartTimer begins timing an operation on this logger's category.
func (l *Logger) StartTimer(operation string) *Timer {
	return &Timer{logger: l, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	t.logger.Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithInfo ends the timer and logs at info level.
func (t *Timer) StopWithInfo() time.Duration {
	elapsed := time.Since(t.start)
	t.logger.Info("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if the duration exceeds threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		t.logger.Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		t.logger.Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
