package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/vts/format"
)

type dumbLogger struct{}

func (dl *dumbLogger) Log(l int8, m string, a ...interface{})  {}
func (dl *dumbLogger) SetLevel(l int8)                         {}
func (dl *dumbLogger) Debug(msg string, args ...interface{})   {}
func (dl *dumbLogger) Info(msg string, args ...interface{})    {}
func (dl *dumbLogger) Warning(msg string, args ...interface{}) {}
func (dl *dumbLogger) Error(msg string, args ...interface{})   {}
func (dl *dumbLogger) Fatal(msg string, args ...interface{})   {}

func TestOutputFormatNTSC(t *testing.T) {
	c := Config{Standard: format.NTSC, Layout: format.RGB24}
	got := c.OutputFormat()
	want := format.NTSCFormat(format.RGB24)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("OutputFormat mismatch (-want +got):\n%s", diff)
	}
}

func TestOutputFormatPAL(t *testing.T) {
	c := Config{Standard: format.PAL, Layout: format.YUV420P}
	got := c.OutputFormat()
	want := format.PALFormat(format.YUV420P)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("OutputFormat mismatch (-want +got):\n%s", diff)
	}
}

func TestLogInvalidField(t *testing.T) {
	c := Config{Logger: &dumbLogger{}}
	c.LogInvalidField("Port", DefaultPort)
}
