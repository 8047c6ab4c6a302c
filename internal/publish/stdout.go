package publish

import (
	"context"
	"fmt"
	"io"
)

// Writer prints the post instead of publishing it. Used for dry runs.
type Writer struct {
	w io.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (p *Writer) Name() string {
	return "stdout"
}

func (p *Writer) Post(_ context.Context, text string, image []byte, altText string) error {
	if _, err := fmt.Fprintln(p.w, text); err != nil {
		return err
	}
	if len(image) > 0 {
		_, err := fmt.Fprintf(p.w, "[image: %d bytes, alt %q]\n", len(image), altText)
		return err
	}
	return nil
}
