package bytes

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	KB = 1024
	MB = KB * 1024
	GB = MB * 1024
	TB = GB * 1024
)

var ErrInvalidMem = errors.New("invalid memory size")

func FmtMem(bytes uint64) string {
	switch {
	case bytes >= TB:
		t := bytes / TB
		rem := bytes % TB
		return fmt.Sprintf("%dTB %dGB", t, rem/GB)
	case bytes >= GB:
		g := bytes / GB
		rem := bytes % GB
		return fmt.Sprintf("%dGB %dMB", g, rem/MB)
	case bytes >= MB:
		m := bytes / MB
		rem := bytes % MB
		return fmt.Sprintf("%dMB %dKB", m, rem/KB)
	case bytes >= KB:
		k := bytes / KB
		return fmt.Sprintf("%dKB %dB", k, bytes%KB)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

// FmtMemCompact renders the size with the largest unit that divides it exactly,
// so the result can be fed back to ParseMem without loss.
func FmtMemCompact(bytes uint64) string {
	switch {
	case bytes == 0:
		return "0B"
	case bytes%TB == 0:
		return fmt.Sprintf("%dTB", bytes/TB)
	case bytes%GB == 0:
		return fmt.Sprintf("%dGB", bytes/GB)
	case bytes%MB == 0:
		return fmt.Sprintf("%dMB", bytes/MB)
	case bytes%KB == 0:
		return fmt.Sprintf("%dKB", bytes/KB)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

// ParseMem parses sizes like "512", "512B", "64KB", "250MB", "1.5GB" (binary units, case-insensitive).
func ParseMem(s string) (int64, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if raw == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidMem)
	}

	var mult float64 = 1
	for _, u := range []struct {
		suffix string
		mult   float64
	}{
		{"TB", TB}, {"GB", GB}, {"MB", MB}, {"KB", KB}, {"B", 1},
	} {
		if strings.HasSuffix(raw, u.suffix) {
			raw = strings.TrimSpace(strings.TrimSuffix(raw, u.suffix))
			mult = u.mult
			break
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMem, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: negative size %q", ErrInvalidMem, s)
	}
	return int64(v * mult), nil
}
