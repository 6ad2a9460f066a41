package ytdlp

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Progress is one byte-level progress report parsed from the backend's
// --newline output.
type Progress struct {
	Percent    float64
	Downloaded int64
	Total      int64
	Speed      float64 // bytes per second
	ETA        time.Duration
}

// Matches lines like:
//
//	[download]  42.1% of 10.00MiB at 1.21MiB/s ETA 00:05
//	[download] 100.0% of ~512.00KiB at Unknown B/s ETA Unknown
var progressRe = regexp.MustCompile(
	`^\[download\]\s+([\d.]+)% of ~?\s*([\d.]+)(KiB|MiB|GiB|B)(?: at\s+([\d.]+)(KiB|MiB|GiB|B)/s)?(?: ETA (\d+):(\d+)(?::(\d+))?)?`)

func parseProgressLine(line string) (Progress, bool) {
	m := progressRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Progress{}, false
	}

	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Progress{}, false
	}

	total := parseSize(m[2], m[3])
	if total <= 0 {
		// Progress without a known total carries no usable signal.
		return Progress{}, false
	}

	p := Progress{
		Percent: percent,
		Total:   total,
	}
	p.Downloaded = int64(percent / 100 * float64(total))

	if m[4] != "" {
		p.Speed = float64(parseSize(m[4], m[5]))
	}

	if m[6] != "" {
		p.ETA = parseETA(m[6], m[7], m[8])
	}

	return p, true
}

func parseSize(num, unit string) int64 {
	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}

	switch unit {
	case "KiB":
		value *= 1024
	case "MiB":
		value *= 1024 * 1024
	case "GiB":
		value *= 1024 * 1024 * 1024
	}
	return int64(value)
}

func parseETA(first, second, third string) time.Duration {
	a, _ := strconv.Atoi(first)
	b, _ := strconv.Atoi(second)
	if third == "" {
		return time.Duration(a)*time.Minute + time.Duration(b)*time.Second
	}
	c, _ := strconv.Atoi(third)
	return time.Duration(a)*time.Hour + time.Duration(b)*time.Minute + time.Duration(c)*time.Second
}
