package progress_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/repobak/repobak/internal/test"
	"github.com/repobak/repobak/internal/ui/progress"
)

func TestWriterPrinterLevels(t *testing.T) {
	for _, tt := range []struct {
		verbosity uint
		stdout    string
		stderr    string
	}{
		{0, "", "error\n"},
		{1, "p\n", "error\n"},
		{2, "p\nv\n", "error\n"},
		{3, "p\nv\nvv\n", "error\n"},
	} {
		var stdout, stderr bytes.Buffer
		p := progress.NewWriterPrinter(&stdout, &stderr, tt.verbosity)

		p.E("error")
		p.P("p")
		p.V("v\n")
		p.VV("%s", "vv")

		test.Equals(t, tt.stdout, stdout.String())
		test.Equals(t, tt.stderr, stderr.String())
	}
}

func TestWriterPrinterConcurrent(t *testing.T) {
	var stdout bytes.Buffer
	p := progress.NewWriterPrinter(&stdout, &stdout, 1)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.P("line")
		}()
	}
	wg.Wait()

	test.Equals(t, n*len("line\n"), stdout.Len())
}

func TestNoopPrinter(t *testing.T) {
	var p progress.Printer = &progress.NoopPrinter{}
	p.E("ignored %v", 1)
	p.P("ignored")
}
