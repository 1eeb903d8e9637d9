package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/jsamuelsen/quote-engine/internal/domain"
)

var (
	okMark    = color.New(color.FgGreen).Sprint("✓")
	faint     = color.New(color.Faint)
	heading   = color.New(color.Bold)
	classInks = map[domain.Classification]*color.Color{
		domain.ClassActive:  color.New(color.FgGreen),
		domain.ClassClosed:  color.New(color.FgBlue),
		domain.ClassTrashed: color.New(color.FgRed),
	}
)

func classLabel(c domain.Classification) string {
	if ink, ok := classInks[c]; ok {
		return ink.Sprint(c)
	}

	return string(c)
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func done(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", okMark, fmt.Sprintf(format, args...))
}
