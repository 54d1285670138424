package fixtures

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-kiln-monitor/internal/core/model"
)

// AlertFeed writes a JSONL alert feed file for tests
type AlertFeed struct {
	path string
}

// NewAlertFeed creates an empty feed file in baseDir
func NewAlertFeed(baseDir, name string) (*AlertFeed, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(baseDir, name)
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return nil, err
	}
	return &AlertFeed{path: path}, nil
}

func (f *AlertFeed) Path() string {
	return f.path
}

// Append writes each alert as one push envelope line
func (f *AlertFeed) Append(alerts ...model.Alert) error {
	for _, a := range alerts {
		line, err := sonic.Marshal(model.AlertEnvelope{Type: model.EnvelopeAlert, Alert: a})
		if err != nil {
			return err
		}
		if err := f.AppendRaw(string(line) + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// AppendRaw writes text verbatim, letting tests split a line across writes
func (f *AlertFeed) AppendRaw(text string) error {
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.WriteString(text)
	return err
}

// Truncate empties the feed, as log rotation would
func (f *AlertFeed) Truncate() error {
	return os.Truncate(f.path, 0)
}

// Replace swaps the feed for a new file holding the given alerts
func (f *AlertFeed) Replace(alerts ...model.Alert) error {
	tmp := f.path + ".tmp"
	var content []byte
	for _, a := range alerts {
		line, err := sonic.Marshal(model.AlertEnvelope{Type: model.EnvelopeAlert, Alert: a})
		if err != nil {
			return err
		}
		content = append(content, line...)
		content = append(content, '\n')
	}
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return fmt.Errorf("write replacement feed: %w", err)
	}
	return os.Rename(tmp, f.path)
}
