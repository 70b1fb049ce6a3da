package listing

import "fmt"

// FormatSize renders a byte count the way the file table shows it:
// "N B" below 1 KiB, one decimal KB below 1 MiB, one decimal MB above.
func FormatSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}
