package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"cinewrap/internal/enrich"
)

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// enrichProgress redraws a single status line on interactive terminals and
// stays silent otherwise.
func enrichProgress(w io.Writer) func(enrich.Snapshot) {
	if !isTerminal(w) {
		return nil
	}
	return func(snap enrich.Snapshot) {
		fmt.Fprintf(w, "\rEnriching films: %d/%d", snap.Processed, snap.Total)
		if snap.Processed >= snap.Total {
			fmt.Fprintln(w)
		}
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
