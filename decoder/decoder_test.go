package decoder

import (
	"bytes"
	"testing"

	"github.com/ausocean/utils/logging"
)

func TestOpenMissingFile(t *testing.T) {
	l := logging.New(logging.Debug, &bytes.Buffer{}, true)
	d := New(l)

	_, err := d.Open("/nonexistent/path/does-not-exist.mp4")
	if err == nil {
		t.Fatal("expected error opening a nonexistent file")
	}
}

func TestCloseIdempotent(t *testing.T) {
	l := logging.New(logging.Debug, &bytes.Buffer{}, true)
	d := New(l)

	if err := d.Close(); err != nil {
		t.Fatalf("Close on unopened decoder: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestSeekUnopened(t *testing.T) {
	l := logging.New(logging.Debug, &bytes.Buffer{}, true)
	d := New(l)

	if err := d.Seek(10); err == nil {
		t.Fatal("expected error seeking an unopened decoder")
	}
}

func TestDecodeNextUnopened(t *testing.T) {
	l := logging.New(logging.Debug, &bytes.Buffer{}, true)
	d := New(l)

	if _, _, err := d.DecodeNext(); err == nil {
		t.Fatal("expected error decoding from an unopened decoder")
	}
}
