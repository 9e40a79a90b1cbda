package logging

import (
	"bytes"
	"testing"
)

func TestLoggerFormatting(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Printf("Reserved %d pages at %#x\n", 16, 0x10000)
	l.Infof("console up")
	l.Warnf("vector %d has no handler", 40)

	want := "Reserved 16 pages at 0x10000\n[info] console up\n[warn] vector 40 has no handler\n"
	if buf.String() != want {
		t.Fatalf("unexpected log output:\ngot:  %q\nwant: %q", buf.String(), want)
	}
}
