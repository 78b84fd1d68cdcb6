package terminal

import (
	"fmt"
	"io"
	"os"
	"prowl/utils"
)

// transcriptWriter writes to the terminal and, while a transcript is
// open, appends the same output to a file.
type transcriptWriter struct {
	w          io.Writer
	color      bool
	transcript io.WriteCloser
}

func newTranscriptWriter(w io.Writer, color bool) *transcriptWriter {
	return &transcriptWriter{w: w, color: color}
}

func (t *transcriptWriter) Write(p []byte) (int, error) {
	if t.transcript != nil {
		if _, err := t.transcript.Write(p); err != nil {
			return 0, err
		}
	}
	return t.w.Write(p)
}

// Echo records s in the transcript only.
func (t *transcriptWriter) Echo(s string) {
	if t.transcript != nil {
		io.WriteString(t.transcript, s)
	}
}

// Output prints command output, highlighting addresses on a color
// terminal. The transcript always gets the plain text.
func (t *transcriptWriter) Output(out string) {
	t.Echo(out)
	if len(out) == 0 || out[len(out)-1] != '\n' {
		t.Echo("\n")
	}
	utils.PrintOutput(t.w, out, t.color)
}

func (t *transcriptWriter) Error(err error) {
	t.Echo(err.Error() + "\n")
	utils.PrintError(t.w, err, t.color)
}

func (t *transcriptWriter) OpenTranscript(path string, appendOnly bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendOnly {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}

	f, err := os.OpenFile(path, flags, 0600)
	if err != nil {
		return fmt.Errorf("open transcript: %w", err)
	}
	if err := t.CloseTranscript(); err != nil {
		f.Close()
		return err
	}
	t.transcript = f
	return nil
}

func (t *transcriptWriter) CloseTranscript() error {
	if t.transcript == nil {
		return nil
	}
	err := t.transcript.Close()
	t.transcript = nil
	return err
}
