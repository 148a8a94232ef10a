package logger

import (
	"fmt"
	"strings"
)

// SanitizeForLog escapes control characters so user input cannot forge log
// lines or drive the terminal. Printable Unicode is kept as is.
func SanitizeForLog(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch r {
		case '\n':
			result.WriteString("\\n")
		case '\r':
			result.WriteString("\\r")
		case '\t':
			result.WriteString("\\t")
		default:
			if r < 32 || r == 127 {
				result.WriteString(fmt.Sprintf("\\x%02x", r))
			} else {
				result.WriteRune(r)
			}
		}
	}
	return result.String()
}

// MaskEmail keeps the first character of the local part and the domain:
// "maria@civic.org" becomes "m***@civic.org". Input without an @ is masked whole.
// The result is also passed through SanitizeForLog.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		if email == "" {
			return ""
		}
		return "***"
	}

	local, domain := email[:at], email[at+1:]
	first := []rune(local)[0]
	return SanitizeForLog(string(first) + "***@" + domain)
}
