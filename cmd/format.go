package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/dsrosen6/hyprdisplay/internal/display"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	valueColor   = color.New(color.FgHiBlack)
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func printSection(title string) {
	fmt.Println()
	_, _ = headerColor.Printf("▸ %s\n", title)
	fmt.Println()
}

func printSuccess(msg string) {
	_, _ = successColor.Printf("✓ %s\n", msg)
}

func printWarning(msg string) {
	_, _ = warningColor.Printf("⚠ %s\n", msg)
}

// PrintError prints an error message to stderr.
func PrintError(msg string) {
	_, _ = errorColor.Fprintf(os.Stderr, "✗ %s\n", msg)
}

func printLabelValue(label, value string) {
	_, _ = labelColor.Printf("  %s: ", label)
	_, _ = valueColor.Println(value)
}

func printList(items []string, indent int) {
	pad := strings.Repeat("  ", indent)
	for _, item := range items {
		_, _ = infoColor.Printf("%s• %s\n", pad, item)
	}
}

func printMonitors(monitors []display.MonitorDescriptor) {
	for _, m := range monitors {
		kind := "external"
		if m.Internal {
			kind = "internal"
		}
		printSection(fmt.Sprintf("%s (%s)", m.Name, kind))
		if m.Description != "" {
			printLabelValue("description", m.Description)
		}
		printLabelValue("current", m.Current.String())
		printLabelValue("preferred", m.PreferredMode().String())
		printLabelValue("position", fmt.Sprintf("%dx%d", m.X, m.Y))
		printLabelValue("rotation", m.Rotation.String())
		if m.Scale != 0 {
			printLabelValue("scale", strconv.FormatFloat(m.Scale, 'f', -1, 64))
		}
		printLabelValue("focused", fmt.Sprintf("%t", m.Primary))

		modes := make([]string, 0, len(m.Modes))
		for _, r := range m.Modes {
			modes = append(modes, r.String())
		}
		_, _ = labelColor.Println("  modes:")
		printList(modes, 2)
	}
}

// writeValue renders v as JSON or YAML.
func writeValue(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q: want %s, %s or %s", format, formatText, formatJSON, formatYAML)
	}
}
