package catalog

import "time"

// LogLevel is the severity of a panel log entry.
type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelWarn    LogLevel = "warn"
	LevelError   LogLevel = "error"
	LevelSuccess LogLevel = "success"
)

// LogTimeLayout renders local wall-clock time at second precision, 24h.
const LogTimeLayout = "15:04:05"

// LogEntry is an immutable record shown in the panel's terminal pane.
type LogEntry struct {
	Timestamp string   `json:"timestamp"`
	Level     LogLevel `json:"level"`
	Message   string   `json:"message"`
}

// NewLogEntry stamps msg with the local time of now.
func NewLogEntry(now time.Time, level LogLevel, msg string) LogEntry {
	return LogEntry{
		Timestamp: now.Local().Format(LogTimeLayout),
		Level:     level,
		Message:   msg,
	}
}
