package studiotimer

import (
	"fmt"
	"strings"
)

// MaxInputDigits is the width of the HHMMSS entry field.
const MaxInputDigits = 6

// ParseDigits converts keypad entry into seconds. Digits are right-aligned
// into HHMMSS, so "5" is 00:00:05 and "130" is 00:01:30. Non-digit runes
// are ignored and only the trailing six digits count.
func ParseDigits(s string) int {
	d := digitsOnly(s)
	if len(d) > MaxInputDigits {
		d = d[len(d)-MaxInputDigits:]
	}
	d = strings.Repeat("0", MaxInputDigits-len(d)) + d

	h := int(d[0]-'0')*10 + int(d[1]-'0')
	m := int(d[2]-'0')*10 + int(d[3]-'0')
	sec := int(d[4]-'0')*10 + int(d[5]-'0')
	return h*3600 + m*60 + sec
}

// FormatInput renders pending keypad entry as HH:MM:SS without normalizing,
// so "99" shows as 00:00:99 exactly as typed.
func FormatInput(s string) string {
	d := digitsOnly(s)
	if len(d) > MaxInputDigits {
		d = d[len(d)-MaxInputDigits:]
	}
	d = strings.Repeat("0", MaxInputDigits-len(d)) + d
	return d[0:2] + ":" + d[2:4] + ":" + d[4:6]
}

// FormatSeconds renders a non-negative second count as HH:MM:SS.
func FormatSeconds(n int) string {
	if n < 0 {
		n = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", n/3600, (n/60)%60, n%60)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
