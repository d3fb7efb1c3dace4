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

package database

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/tomoncle/comicdb/utils"
)

func TestDefaultLoggerReportsCallSite(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetReportCaller(true)
	l.SetFormatter(&utils.ConsoleFormatter{LoggerName: loggerName})

	NewDefaultLogger(l).Warn("Slow query detected", "operation", "SELECT")

	line := buf.String()
	assert.Contains(t, line, " logger_test.go:")
	assert.NotContains(t, line, " logger.go:")
	assert.Contains(t, line, "Slow query detected operation=SELECT")
}
