package drawing

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/neti77/anotequest-v1-sub000/core"
)

var (
	pathCommand = regexp.MustCompile(`([MmLlHhVvZz])([^MmLlHhVvZz]*)`)
	// A sign or a second decimal point starts a new number: "10-5" and
	// "1.5.5" are two coordinates each.
	pathNumber = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)
)

// PathData renders points as an SVG path: "M x y L x y ...".
func PathData(path []core.Position) string {
	if len(path) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, p := range path {
		if i == 0 {
			sb.WriteString("M ")
		} else {
			sb.WriteString(" L ")
		}
		sb.WriteString(formatCoord(p.X))
		sb.WriteByte(' ')
		sb.WriteString(formatCoord(p.Y))
	}
	return sb.String()
}

// ParsePath reads the M, L, H, V and Z commands of an SVG path, absolute and
// relative, into a point list. Extra coordinate pairs after M or L continue as
// implicit line-tos.
func ParsePath(d string) ([]core.Position, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, fmt.Errorf("empty path")
	}

	var (
		points []core.Position
		cur    core.Position
		first  core.Position
	)
	locs := pathCommand.FindAllStringSubmatchIndex(d, -1)
	if len(locs) == 0 || strings.TrimSpace(d[:locs[0][0]]) != "" {
		return nil, fmt.Errorf("path %q must start with a command", d)
	}
	for _, loc := range locs {
		cmd := d[loc[2]:loc[3]]
		args, err := parseCoords(d[loc[4]:loc[5]])
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", d, err)
		}
		rel := cmd == strings.ToLower(cmd)

		switch strings.ToUpper(cmd) {
		case "M", "L":
			if len(args) == 0 || len(args)%2 != 0 {
				return nil, fmt.Errorf("path %q: %s needs coordinate pairs, got %d values", d, cmd, len(args))
			}
			for i := 0; i+1 < len(args); i += 2 {
				next := core.Position{X: args[i], Y: args[i+1]}
				if rel {
					next = core.Position{X: cur.X + next.X, Y: cur.Y + next.Y}
				}
				cur = next
				if strings.ToUpper(cmd) == "M" && i == 0 {
					first = cur
				}
				points = append(points, cur)
			}
		case "H":
			for _, x := range args {
				if rel {
					x += cur.X
				}
				cur.X = x
				points = append(points, cur)
			}
		case "V":
			for _, y := range args {
				if rel {
					y += cur.Y
				}
				cur.Y = y
				points = append(points, cur)
			}
		case "Z":
			if len(args) > 0 {
				return nil, fmt.Errorf("path %q: %s takes no coordinates", d, cmd)
			}
			if len(points) > 0 {
				cur = first
				points = append(points, first)
			}
		}
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("path %q has no points", d)
	}
	return points, nil
}

// StrokeFromPath builds a freehand stroke from SVG path data.
func StrokeFromPath(d string, b Brush) (core.Stroke, error) {
	path, err := ParsePath(d)
	if err != nil {
		return core.Stroke{}, err
	}
	if len(path) < 2 {
		return core.Stroke{}, fmt.Errorf("path %q has a single point", d)
	}
	return core.Stroke{
		Path:       path,
		Color:      b.Color,
		BrushWidth: b.Width,
		Tool:       core.ToolFreehand,
	}, nil
}

func parseCoords(s string) ([]float64, error) {
	var coords []float64
	last := 0
	for _, loc := range pathNumber.FindAllStringIndex(s, -1) {
		if gap := s[last:loc[0]]; strings.Trim(gap, " \t\r\n,") != "" {
			return nil, fmt.Errorf("unexpected %q in path data", gap)
		}
		v, err := strconv.ParseFloat(s[loc[0]:loc[1]], 64)
		if err != nil || math.IsInf(v, 0) {
			return nil, fmt.Errorf("coordinate %q out of range", s[loc[0]:loc[1]])
		}
		coords = append(coords, v)
		last = loc[1]
	}
	if rest := s[last:]; strings.Trim(rest, " \t\r\n,") != "" {
		return nil, fmt.Errorf("unexpected %q in path data", rest)
	}
	return coords, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
