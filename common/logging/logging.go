// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package logging configures the logrus loggers shared by the state query
// components.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// New creates a logger writing to stderr with the given level and format.
func New(level, format string) (*logrus.Logger, error) {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter is like New but writes to the given writer.
func NewWithWriter(out io.Writer, level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	switch strings.ToLower(format) {
	case "", FormatText:
		logger.SetFormatter(&Formatter{})
	case FormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return logger, nil
}

// Discard returns a logger dropping all output, for tests and embedding.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Component scopes a logger to one component.
func Component(logger logrus.FieldLogger, name string) logrus.FieldLogger {
	if logger == nil {
		logger = Discard()
	}
	return logger.WithField("component", name)
}

// Formatter renders entries as a single line: time, level, message, fields.
type Formatter struct{}

func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	_, _ = fmt.Fprintf(buf, "%s %-7s %s", entry.Time.Format(time.RFC3339), strings.ToUpper(entry.Level.String()), firstUpper(entry.Message))
	printFields(buf, entry.Data)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func firstUpper(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// printFields writes fields sorted by name so that lines are stable.
func printFields(w io.Writer, fields logrus.Fields) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, " %s=%v", k, fields[k])
	}
}
