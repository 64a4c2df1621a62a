// Package pollutant fetches pollutant time series per station and enriches
// catalog stations with them.
package pollutant

import "fmt"

// Code identifies one of the criteria pollutants tracked by the portal.
type Code string

// The six tracked criteria pollutants.
const (
	CO   Code = "CO"
	NO2  Code = "NO2"
	O3   Code = "O3"
	SO2  Code = "SO2"
	PM10 Code = "PM10"
	PM25 Code = "PM2.5"
)

// Codes returns the tracked pollutant codes in their fixed order.
func Codes() []Code {
	return []Code{CO, NO2, O3, SO2, PM10, PM25}
}

// CodeStrings returns the tracked codes as plain strings, for components that
// must not import this package.
func CodeStrings() []string {
	codes := Codes()
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}

// Window is the requested span of historical data. Its integer value is the
// portal's "rango" form parameter.
type Window int

// Supported time windows.
const (
	WindowDay      Window = 1
	WindowWeek     Window = 2
	WindowTwoWeeks Window = 3
	WindowMonth    Window = 4
)

func (w Window) String() string {
	switch w {
	case WindowDay:
		return "day"
	case WindowWeek:
		return "week"
	case WindowTwoWeeks:
		return "two-weeks"
	case WindowMonth:
		return "month"
	default:
		return fmt.Sprintf("window(%d)", int(w))
	}
}

// Valid reports whether the window is one of the portal's accepted ranges.
func (w Window) Valid() bool {
	return w >= WindowDay && w <= WindowMonth
}

// ParseWindow converts a user-facing window name to a Window.
func ParseWindow(s string) (Window, error) {
	switch s {
	case "day":
		return WindowDay, nil
	case "week":
		return WindowWeek, nil
	case "two-weeks", "twoweeks":
		return WindowTwoWeeks, nil
	case "month":
		return WindowMonth, nil
	default:
		return 0, fmt.Errorf("unknown time window %q (want day, week, two-weeks or month)", s)
	}
}
