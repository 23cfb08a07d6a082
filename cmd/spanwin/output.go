package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/1broseidon/spanwin/internal/display"
	"github.com/1broseidon/spanwin/internal/launcher"
	"github.com/1broseidon/spanwin/internal/placement"
)

// wantJSON reports whether output should be JSON: when forced, or when stdout
// is not a terminal.
func wantJSON(forced bool) bool {
	if forced {
		return true
	}
	return !term.IsTerminal(int(os.Stdout.Fd()))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeDisplays(w io.Writer, catalog display.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tLABEL\tGEOMETRY\tUSABLE\tORIENTATION\tRATIO\tFLAGS")
	for i, s := range catalog.Screens {
		marker := ""
		if i == catalog.Current {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s%d\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			marker, i,
			s.Label,
			formatRect(s.Bounds()),
			formatRect(s.Usable()),
			s.Orientation.Type,
			s.DevicePixelRatio,
			displayFlags(s),
		)
	}
	return tw.Flush()
}

func writeGroups(w io.Writer, groups []placement.Group) error {
	if len(groups) == 0 {
		_, err := fmt.Fprintln(w, "no two displays share a resolution")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOLUTION\tKIND\tDISPLAYS")
	for _, g := range groups {
		kind := "landscape"
		if g.Portrait() {
			kind = "portrait"
		}
		labels := make([]string, len(g.Screens))
		for i, s := range g.Screens {
			labels[i] = fmt.Sprintf("%s@%d", s.Label, s.Left)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", g.Key(), kind, strings.Join(labels, " "))
	}
	return tw.Flush()
}

func writePlacement(w io.Writer, catalog display.Catalog, p placement.Placement) error {
	_, err := fmt.Fprintf(w, "current:   %s\nplacement: %s\n", catalog.CurrentScreen().Label, p.String())
	return err
}

func writeOpenResult(w io.Writer, res launcher.Result) error {
	_, err := fmt.Fprintf(w, "window:    0x%x\npid:       %d\nmatched:   %s\nplacement: %s\n",
		uint32(res.Window), res.PID, res.MatchedBy, res.Placement.String())
	return err
}

func formatRect(r display.Rect) string {
	return fmt.Sprintf("%dx%d%+d%+d", r.Width, r.Height, r.X, r.Y)
}

func displayFlags(s display.Descriptor) string {
	var flags []string
	if s.IsPrimary {
		flags = append(flags, "primary")
	}
	if s.IsInternal {
		flags = append(flags, "internal")
	}
	if s.IsExtended {
		flags = append(flags, "extended")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}
