// Package ui holds terminal colours used for development request logs.
package ui

const (
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	Gray    = "\033[90m" // Bright black, often appears as gray

	ResetColor = "\033[0m" // Reset to default color
)

var MethodColors = map[string]string{
	"GET":    Green,
	"POST":   Blue,
	"PUT":    Cyan,
	"DELETE": Yellow,
	"PATCH":  Magenta,
}

// StatusColor picks a colour for an HTTP status code
func StatusColor(status int) string {
	switch {
	case status >= 500:
		return Red
	case status >= 400:
		return Yellow
	case status >= 300:
		return Cyan
	}
	return Green
}

// Method pads and colours an HTTP method for log output
func Method(method string) string {
	color, ok := MethodColors[method]
	if !ok {
		color = Gray
	}
	return color + padRight(method, 7) + ResetColor
}

func padRight(s string, n int) string {
	for len(s) < n {
		s += " "
	}
	return s
}
