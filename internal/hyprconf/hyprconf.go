// Package hyprconf renders layout plans as Hyprland monitor directives and reads
// them back.
package hyprconf

import (
	"bufio"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dsrosen6/hyprdisplay/internal/display"
)

const (
	headerPrefix   = "# hyprdisplay:"
	keyword        = "monitor"
	disableArg     = "disable"
	transformArg   = "transform"
	mirrorArg      = "mirror"
	primaryComment = "primary"
	defaultScale   = "1"
)

var ErrMissingHeader = errors.New("missing hyprdisplay header")

// Document is a parsed rendering: the enabled plan and the monitors it disables.
type Document struct {
	Plan     display.LayoutPlan
	Disabled []string
}

// Serialize renders the plan followed by a disable directive for every known
// monitor the plan leaves out, so applying the text covers all detected hardware.
// Output depends only on the inputs.
func Serialize(plan display.LayoutPlan, known []string) string {
	var b strings.Builder

	b.WriteString(headerPrefix)
	fmt.Fprintf(&b, " mode=%s", plan.Mode)
	if plan.Ordering != "" {
		fmt.Fprintf(&b, " ordering=%s", plan.Ordering)
	}
	b.WriteString("\n")

	for _, m := range plan.Monitors {
		fmt.Fprintf(&b, "%s = %s", keyword, strings.Join(monitorArgs(m), ", "))
		if m.Primary {
			fmt.Fprintf(&b, " # %s", primaryComment)
		}
		b.WriteString("\n")
	}

	for _, name := range disabledNames(plan, known) {
		fmt.Fprintf(&b, "%s = %s, %s\n", keyword, name, disableArg)
	}

	return b.String()
}

func monitorArgs(m display.PlacedMonitor) []string {
	args := []string{
		m.Name,
		m.Resolution.String(),
		fmt.Sprintf("%dx%d", m.X, m.Y),
		formatScale(m.Scale),
		transformArg,
		strconv.Itoa(m.Rotation.Transform()),
	}
	if m.MirrorOf != "" {
		args = append(args, mirrorArg, m.MirrorOf)
	}
	return args
}

func formatScale(s float64) string {
	if display.NormalizeScale(s) == 0 {
		return defaultScale
	}
	return strconv.FormatFloat(s, 'f', -1, 64)
}

func disabledNames(plan display.LayoutPlan, known []string) []string {
	var out []string
	for _, name := range known {
		if plan.Contains(name) || slices.Contains(out, name) {
			continue
		}
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Parse reads text produced by Serialize back into a Document. The recovered plan
// is validated before it is returned.
func Parse(text string) (*Document, error) {
	doc := &Document{}
	headerSeen := false

	scn := bufio.NewScanner(strings.NewReader(text))
	n := 0
	for scn.Scan() {
		n++
		line := strings.TrimSpace(scn.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			if strings.HasPrefix(line, headerPrefix) {
				if err := parseHeader(strings.TrimPrefix(line, headerPrefix), &doc.Plan); err != nil {
					return nil, fmt.Errorf("line %d: %w", n, err)
				}
				headerSeen = true
			}
			continue
		}

		if err := doc.parseDirective(line); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
	}

	if err := scn.Err(); err != nil {
		return nil, fmt.Errorf("scanning config: %w", err)
	}

	if !headerSeen {
		return nil, ErrMissingHeader
	}

	if err := doc.Plan.Validate(); err != nil {
		return nil, fmt.Errorf("validating parsed plan: %w", err)
	}

	return doc, nil
}

func parseHeader(s string, plan *display.LayoutPlan) error {
	for _, field := range strings.Fields(s) {
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			return fmt.Errorf("invalid header field %q", field)
		}

		var err error
		switch key {
		case "mode":
			plan.Mode, err = display.ParseDisplayMode(val)
		case "ordering":
			plan.Ordering, err = display.ParseExtendOrdering(val)
		default:
			err = fmt.Errorf("unknown header field %q", key)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (d *Document) parseDirective(line string) error {
	key, val, ok := strings.Cut(line, "=")
	if !ok || strings.TrimSpace(key) != keyword {
		return fmt.Errorf("not a monitor directive: %q", line)
	}

	val, comment, _ := strings.Cut(val, "#")
	args := KeywordFields(val)
	if len(args) == 0 || args[0] == "" {
		return errors.New("monitor directive without a name")
	}

	if len(args) == 2 && args[1] == disableArg {
		d.Disabled = append(d.Disabled, args[0])
		return nil
	}

	if len(args) < 4 {
		return fmt.Errorf("monitor %s: expected name, resolution, position and scale", args[0])
	}

	m := display.PlacedMonitor{
		Name:    args[0],
		Primary: strings.TrimSpace(comment) == primaryComment,
	}

	r, err := display.ParseResolution(args[1])
	if err != nil {
		return fmt.Errorf("monitor %s: %w", m.Name, err)
	}
	m.Resolution = r

	x, y, ok := strings.Cut(args[2], "x")
	if !ok {
		return fmt.Errorf("monitor %s: invalid position %q", m.Name, args[2])
	}
	if m.X, err = strconv.ParseInt(x, 10, 64); err != nil {
		return fmt.Errorf("monitor %s: invalid x position: %w", m.Name, err)
	}
	if m.Y, err = strconv.ParseInt(y, 10, 64); err != nil {
		return fmt.Errorf("monitor %s: invalid y position: %w", m.Name, err)
	}

	scale, err := strconv.ParseFloat(args[3], 64)
	if err != nil || scale <= 0 {
		return fmt.Errorf("monitor %s: invalid scale %q", m.Name, args[3])
	}
	m.Scale = display.NormalizeScale(scale)

	rest := args[4:]
	if len(rest)%2 != 0 {
		return fmt.Errorf("monitor %s: dangling argument %q", m.Name, rest[len(rest)-1])
	}
	for i := 0; i < len(rest); i += 2 {
		switch rest[i] {
		case transformArg:
			t, err := strconv.ParseInt(rest[i+1], 10, 64)
			if err != nil || t < 0 || t > 3 {
				return fmt.Errorf("monitor %s: invalid transform %q", m.Name, rest[i+1])
			}
			m.Rotation = display.RotationFromTransform(t)
		case mirrorArg:
			m.MirrorOf = rest[i+1]
		default:
			return fmt.Errorf("monitor %s: unknown argument %q", m.Name, rest[i])
		}
	}

	d.Plan.Monitors = append(d.Plan.Monitors, m)
	return nil
}

// KeywordFields splits the value side of a monitor directive into trimmed fields.
func KeywordFields(val string) []string {
	parts := strings.Split(val, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// KeywordArgs converts rendered text into the arguments of `hyprctl keyword
// monitor`, one per directive, in file order.
func KeywordArgs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, val, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(key) != keyword {
			continue
		}

		val, _, _ = strings.Cut(val, "#")
		out = append(out, strings.Join(KeywordFields(val), ","))
	}
	return out
}
