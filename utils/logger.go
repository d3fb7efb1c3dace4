/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger = logrus.Logger

const timestampFormat = "2006-01-02 15:04:05.000"

// CallerField, when set on an entry, replaces the caller found by logrus.
// Adapters that wrap a logger set it so lines point past the adapter.
const CallerField = "caller"

func entryCaller(entry *logrus.Entry) string {
	if v, ok := entry.Data[CallerField]; ok {
		return fmt.Sprint(v)
	}
	if entry.Caller != nil {
		return fmt.Sprintf("%s:%d", filepath.Base(entry.Caller.File), entry.Caller.Line)
	}
	return ""
}

// LogOptions configures every logger created through NewLogger.
type LogOptions struct {
	Level      string
	Format     string // text or json
	File       string // empty disables file output
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var (
	optionsMu      sync.RWMutex
	options        = LogOptions{Level: "info", Format: "text"}
	consoleOut     io.Writer = os.Stdout
	fileOut        io.Writer
	registryMu     sync.RWMutex
	loggerRegistry = map[string]*logrus.Logger{}
)

// Configure applies opts to the registry. Loggers created earlier pick up the
// new level; format and file output apply to loggers created afterwards.
func Configure(opts LogOptions) {
	optionsMu.Lock()
	options = opts
	if opts.File != "" {
		fileOut = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    defaultInt(opts.MaxSizeMB, 10),
			MaxBackups: defaultInt(opts.MaxBackups, 3),
			MaxAge:     defaultInt(opts.MaxAgeDays, 28),
			Compress:   opts.Compress,
		}
	} else {
		fileOut = nil
	}
	optionsMu.Unlock()
	ConfigureLogLevel(opts.Level)
}

// SetConsoleOutput redirects console output of all loggers.
func SetConsoleOutput(w io.Writer) {
	optionsMu.Lock()
	defer optionsMu.Unlock()
	consoleOut = w
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

// ConfigureLogLevel sets the level of every registered logger.
func ConfigureLogLevel(levelStr string) {
	lvl := ParseLogLevel(levelStr)
	registryMu.RLock()
	for _, lg := range loggerRegistry {
		lg.SetLevel(lvl)
	}
	registryMu.RUnlock()
	logrus.SetLevel(lvl)
}

// SetLoggerLevel changes the level of one named logger.
func SetLoggerLevel(name string, lvlStr string) bool {
	registryMu.RLock()
	lg, ok := loggerRegistry[name]
	registryMu.RUnlock()
	if !ok {
		return false
	}
	lg.SetLevel(ParseLogLevel(lvlStr))
	return true
}

// NewLogger returns the logger registered under name, creating it on first use.
func NewLogger(name string) *logrus.Logger {
	registryMu.Lock()
	defer registryMu.Unlock()
	if l, ok := loggerRegistry[name]; ok {
		return l
	}

	optionsMu.RLock()
	opts, console, file := options, consoleOut, fileOut
	optionsMu.RUnlock()

	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(ParseLogLevel(opts.Level))
	l.SetReportCaller(true)
	if strings.EqualFold(opts.Format, "json") {
		l.SetFormatter(&JSONLogFormatter{LoggerName: name})
	} else {
		l.SetFormatter(&ConsoleFormatter{LoggerName: name, Colored: true})
	}
	l.AddHook(&writerHook{writer: console, formatter: l.Formatter})
	if file != nil {
		l.AddHook(&writerHook{writer: file, formatter: &JSONLogFormatter{LoggerName: name}})
	}
	loggerRegistry[name] = l
	return l
}

type writerHook struct {
	mu        sync.Mutex
	writer    io.Writer
	formatter logrus.Formatter
}

func (h *writerHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *writerHook) Fire(e *logrus.Entry) error {
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.writer.Write(b)
	return err
}

// ConsoleFormatter renders log4j style lines:
// "2025-01-02 15:04:05.000    INFO 1234   - [   HTTP] store.go:42 : message key=value".
type ConsoleFormatter struct {
	LoggerName string
	Colored    bool
}

func (f *ConsoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	lvl := fmt.Sprintf("%7s", strings.ToUpper(entry.Level.String()))
	name := fmt.Sprintf("[%8s]", f.LoggerName)
	caller := entryCaller(entry)
	if caller != "" {
		caller = " " + caller
	}
	if f.Colored {
		lvl = levelColor(entry.Level).Sprint(lvl)
		name = color.CyanString(name)
		caller = color.New(color.Faint).Sprint(caller)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %-6d - %s%s : %s", entry.Time.Format(timestampFormat), lvl, os.Getpid(), name, caller, entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		if k == CallerField {
			continue
		}
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func levelColor(level logrus.Level) *color.Color {
	switch level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return color.New(color.FgRed)
	case logrus.WarnLevel:
		return color.New(color.FgYellow)
	case logrus.InfoLevel:
		return color.New(color.FgGreen)
	case logrus.DebugLevel:
		return color.New(color.FgBlue)
	default:
		return color.New(color.FgMagenta)
	}
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// JSONLogFormatter writes one JSON object per entry. Request fields set by the
// HTTP logger are lifted to the top level.
type JSONLogFormatter struct {
	LoggerName string
}

type jsonLogRecord struct {
	Time      string                 `json:"time"`
	Level     string                 `json:"level"`
	Logger    string                 `json:"logger"`
	Caller    string                 `json:"caller,omitempty"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id,omitempty"`
	Method    string                 `json:"method,omitempty"`
	Path      string                 `json:"path,omitempty"`
	Status    int                    `json:"status,omitempty"`
	Latency   string                 `json:"latency,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	rec := jsonLogRecord{
		Time:    entry.Time.Format(timestampFormat),
		Level:   entry.Level.String(),
		Logger:  f.LoggerName,
		Message: entry.Message,
	}
	rec.Caller = entryCaller(entry)

	extra := make(map[string]interface{}, len(entry.Data))
	for k, v := range entry.Data {
		switch k {
		case CallerField:
		case "request_id":
			rec.RequestID = fmt.Sprint(v)
		case "method":
			rec.Method = fmt.Sprint(v)
		case "path":
			rec.Path = fmt.Sprint(v)
		case "latency":
			rec.Latency = fmt.Sprint(v)
		case "status":
			if n, ok := v.(int); ok {
				rec.Status = n
			} else {
				extra[k] = v
			}
		default:
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		rec.Fields = extra
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
