package document

import (
	"fmt"
	"strings"
	"time"
)

// SerialVars returns the tokens a serial format can reference.
func SerialVars(now time.Time, code string) map[string]string {
	return map[string]string{
		"YEAR":  fmt.Sprintf("%04d", now.Year()),
		"MONTH": fmt.Sprintf("%02d", int(now.Month())),
		"DAY":   fmt.Sprintf("%02d", now.Day()),
		"CODE":  code,
	}
}

// MaterializeSerial expands {{TOKEN}} occurrences of format with vars.
// Unknown tokens are kept.
func MaterializeSerial(format string, vars map[string]string) string {
	var sb strings.Builder
	rest := format
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			break
		}
		end := strings.Index(rest[open+2:], "}}")
		if end < 0 {
			break
		}
		key := rest[open+2 : open+2+end]
		sb.WriteString(rest[:open])
		if v, ok := vars[strings.TrimSpace(key)]; ok {
			sb.WriteString(v)
		} else {
			sb.WriteString(rest[open : open+4+end])
		}
		rest = rest[open+4+end:]
	}
	sb.WriteString(rest)
	return sb.String()
}
