package logging

import (
	"regexp"

	"go.uber.org/zap"
)

// WhatsApp export senders are usually phone numbers. They go through logs as
// session metadata, so mask all but the last two digits.
var phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)

// RedactPhone masks phone numbers in s, keeping the last two digits.
func RedactPhone(s string) string {
	return phonePattern.ReplaceAllStringFunc(s, func(m string) string {
		digits := 0
		for _, r := range m {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		if digits < 8 {
			return m
		}
		return "[PHONE:****" + lastTwoDigits(m) + "]"
	})
}

// Sender returns a zap field with the sender name redacted if it looks like a
// phone number.
func Sender(name string) zap.Field {
	return zap.String("sender", RedactPhone(name))
}

func lastTwoDigits(s string) string {
	var last []rune
	for _, r := range s {
		if r >= '0' && r <= '9' {
			last = append(last, r)
			if len(last) > 2 {
				last = last[1:]
			}
		}
	}
	return string(last)
}
