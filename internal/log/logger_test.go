package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/lijingwei9060/ether-packet/internal/config"
)

func TestNewLogrusLevels(t *testing.T) {
	tests := []struct {
		input    string
		expected logrus.Level
	}{
		{"trace", logrus.TraceLevel},
		{"debug", logrus.DebugLevel},
		{"info", logrus.InfoLevel},
		{"warn", logrus.WarnLevel},
		{"warning", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l, err := newLogrus(config.LogConfig{Level: tt.input, Format: "json"}, &bytes.Buffer{})
			if err != nil {
				t.Fatalf("newLogrus(%q) returned error: %v", tt.input, err)
			}
			if l.GetLevel() != tt.expected {
				t.Errorf("level = %v, expected %v", l.GetLevel(), tt.expected)
			}
		})
	}
}

func TestInitInvalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LogConfig
		want string
	}{
		{"level", config.LogConfig{Level: "loud", Format: "json"}, "invalid log level"},
		{"format", config.LogConfig{Level: "info", Format: "xml"}, "unsupported log format"},
		{"file without path", config.LogConfig{
			Level:   "info",
			Format:  "json",
			Outputs: config.LogOutputsConfig{File: config.FileOutputConfig{Enabled: true}},
		}, "requires 'path'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Init(tt.cfg)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogrus(config.LogConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("newLogrus failed: %v", err)
	}

	adapter := &logrusAdapter{entry: logrus.NewEntry(l)}
	adapter.WithField("frame", 3).WithError(errors.New("boom")).Warn("decode failed")
	adapter.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d: %q", len(lines), buf.String())
	}

	var record map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("Output is not JSON: %v", err)
	}
	if record["msg"] != "decode failed" || record["level"] != "warning" {
		t.Errorf("Unexpected record: %v", record)
	}
	if record["frame"] != float64(3) || record["error"] != "boom" {
		t.Errorf("Fields missing from record: %v", record)
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogrus(config.LogConfig{Level: "info", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("newLogrus failed: %v", err)
	}

	l.WithField("prefix", "decoder").Info("started")
	out := buf.String()
	if !strings.Contains(out, "decoder:") || !strings.Contains(out, "started") {
		t.Errorf("Unexpected text output: %q", out)
	}
}

func TestPatternFormat(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogrus(config.LogConfig{
		Level:      "debug",
		Format:     "pattern",
		Pattern:    "[%level] %field %msg (%func)\n",
		TimeFormat: "15:04",
	}, &buf)
	if err != nil {
		t.Fatalf("newLogrus failed: %v", err)
	}

	l.WithFields(logrus.Fields{"b": 2, "a": "x"}).Debug("hello")

	want := "[debug] a=x,b=2 hello (TestPatternFormat)\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestInitWithFileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	cfg := config.LogConfig{
		Level:  "debug",
		Format: "json",
		Outputs: config.LogOutputsConfig{
			File: config.FileOutputConfig{
				Enabled: true,
				Path:    logPath,
				Rotation: config.RotationConfig{
					MaxSizeMB:  10,
					MaxBackups: 3,
					MaxAgeDays: 7,
				},
			},
		},
	}

	if err := Init(cfg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { setLogger(newDefault()) })

	GetLogger().WithField("key", "value").Info("test message")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Log file was not created at %s: %v", logPath, err)
	}
	if !strings.Contains(string(data), "test message") {
		t.Errorf("Log file does not contain the message: %q", data)
	}
	if !GetLogger().IsDebugEnabled() || GetLogger().IsTraceEnabled() {
		t.Error("Unexpected level gates after Init")
	}
}

func TestNewAppenderConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	w, err := newAppender(&console, config.LogOutputsConfig{})
	if err != nil {
		t.Fatalf("newAppender failed: %v", err)
	}
	if w != io.Writer(&console) {
		t.Error("Expected the console writer when file output is disabled")
	}
}

func TestGetLoggerDefault(t *testing.T) {
	if GetLogger() == nil {
		t.Fatal("Expected default logger, got nil")
	}
	if !GetLogger().IsInfoEnabled() {
		t.Error("Expected default logger to enable info")
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestFanout(t *testing.T) {
	var a, b bytes.Buffer
	w := fanout{&a, failingWriter{}, &b}

	n, err := w.Write([]byte("line\n"))
	if n != 5 {
		t.Errorf("Expected n=5, got %d", n)
	}
	if err == nil {
		t.Error("Expected error from failing writer")
	}
	if a.String() != "line\n" || b.String() != "line\n" {
		t.Errorf("Writers after a failure must still receive the line: %q %q", a.String(), b.String())
	}
}
