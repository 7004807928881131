package progress

import (
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCount renders n rounded to a whole number with thousands separators.
func FormatCount(n float64) string {
	return printer.Sprintf("%.0f", n)
}

// FormatDecimal renders n with one decimal place and thousands separators.
func FormatDecimal(n float64) string {
	return printer.Sprintf("%.1f", n)
}

func logStatus(s Status) {
	log.WithFields(log.Fields{
		"transfer_id":     s.ID,
		"filename":        s.Filename,
		"last_mbps":       s.LastRate / 1e6,
		"cumulative_mbps": s.CumulativeRate / 1e6,
		"elapsed_s":       s.Elapsed.Seconds(),
		"completed_bytes": s.CompletedBytes,
		"total_bytes":     s.TotalBytes,
		"percent":         s.PercentComplete,
	}).Infof("Status: %s %s Last: %.2f MB/s, Cumulative: %.1f MB/s, Elapsed: %.1f s, Completed: %s/%s bytes (%.1f%%)",
		s.ID, s.Filename,
		s.LastRate/1e6,
		s.CumulativeRate/1e6,
		s.Elapsed.Seconds(),
		FormatCount(float64(s.CompletedBytes)),
		FormatCount(float64(s.TotalBytes)),
		s.PercentComplete)
}

func logCumulative(c CumulativeStatus) {
	log.WithFields(log.Fields{
		"total_bytes": c.TotalBytes,
		"rate_kbps":   c.RatePerSecond / 1e3,
		"elapsed_s":   c.Elapsed.Seconds(),
	}).Infof("Cumulative Status: %s kB/s, Elapsed: %.1f s",
		FormatDecimal(c.RatePerSecond/1e3),
		c.Elapsed.Seconds())
}
