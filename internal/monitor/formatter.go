package monitor

import "fmt"

// FormatFPS formats a frame rate as "X.X fps"
func FormatFPS(fps float64) string {
	return fmt.Sprintf("%.1f fps", fps)
}

// FormatPercentage formats a ratio (0-1) as percentage
func FormatPercentage(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatCount formats a counter as "123", "45.2K" or "1.2M"
func FormatCount(n uint64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// FormatFingerprint formats a state fingerprint as a short hex tag
func FormatFingerprint(fp uint64) string {
	if fp == 0 {
		return "-"
	}
	return fmt.Sprintf("%016x", fp)[:8]
}

// FormatDuration formats duration in seconds to "Xh Ym" or "Xm"
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
