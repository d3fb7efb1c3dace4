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
	"bytes"
	"encoding/json"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel(" warning "))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("bogus"))
}

func TestNewLoggerIsRegisteredOnce(t *testing.T) {
	a := NewLogger("REGISTRY")
	b := NewLogger("REGISTRY")
	assert.Same(t, a, b)

	assert.True(t, SetLoggerLevel("REGISTRY", "error"))
	assert.Equal(t, logrus.ErrorLevel, a.GetLevel())
	assert.False(t, SetLoggerLevel("MISSING", "error"))
}

func TestConsoleFormatter(t *testing.T) {
	f := &ConsoleFormatter{LoggerName: "STORE"}
	entry := &logrus.Entry{
		Time:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "slow query",
		Data:    logrus.Fields{"table": "series", "duration": "3s"},
	}
	b, err := f.Format(entry)
	require.NoError(t, err)

	line := string(b)
	assert.Contains(t, line, "2025-01-02 03:04:05.000")
	assert.Contains(t, line, "WARN")
	assert.Contains(t, line, "[   STORE]")
	assert.Contains(t, line, "slow query duration=3s table=series")
}

func TestJSONLogFormatterLiftsRequestFields(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "HTTP"}
	entry := &logrus.Entry{
		Time:    time.Now(),
		Level:   logrus.InfoLevel,
		Message: "request",
		Data: logrus.Fields{
			"method":     "GET",
			"path":       "/api/health",
			"status":     200,
			"request_id": "abc",
			"ip":         "127.0.0.1",
		},
	}
	b, err := f.Format(entry)
	require.NoError(t, err)

	var rec jsonLogRecord
	require.NoError(t, json.Unmarshal(b, &rec))
	assert.Equal(t, "HTTP", rec.Logger)
	assert.Equal(t, "GET", rec.Method)
	assert.Equal(t, "/api/health", rec.Path)
	assert.Equal(t, 200, rec.Status)
	assert.Equal(t, "abc", rec.RequestID)
	assert.Equal(t, "127.0.0.1", rec.Fields["ip"])
}

func TestConsoleOutputHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	SetConsoleOutput(&buf)
	t.Cleanup(func() { SetConsoleOutput(os.Stdout) })

	l := NewLogger("LEVELTEST")
	l.SetLevel(logrus.InfoLevel)
	l.Debug("hidden")
	l.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestCallerFieldOverridesFrame(t *testing.T) {
	entry := &logrus.Entry{
		Time:    time.Now(),
		Level:   logrus.InfoLevel,
		Message: "connected",
		Caller:  &runtime.Frame{File: "/src/database/logger.go", Line: 107},
		Data:    logrus.Fields{CallerField: "factory.go:88", "type": "sqlite"},
	}

	b, err := (&ConsoleFormatter{LoggerName: "DATABASE"}).Format(entry)
	require.NoError(t, err)
	line := string(b)
	assert.Contains(t, line, " factory.go:88 : connected type=sqlite")
	assert.NotContains(t, line, "logger.go:107")
	assert.NotContains(t, line, "caller=")

	b, err = (&JSONLogFormatter{LoggerName: "DATABASE"}).Format(entry)
	require.NoError(t, err)
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &rec))
	assert.Equal(t, "factory.go:88", rec["caller"])
	assert.NotContains(t, rec["fields"], CallerField)
}
