package chat

import (
	"bufio"
	"regexp"
	"strings"
	"time"
)

// Header patterns for the two common WhatsApp export flavors:
//
//	1/1/24, 10:00 AM - Alice: need a ride
//	[01/01/24, 10:00:15] Alice: need a ride
var (
	dashHeader    = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{2,4}, \d{1,2}:\d{2}(?::\d{2})? ?(?:[AaPp][Mm])?) - (.*)$`)
	bracketHeader = regexp.MustCompile(`^\[(\d{1,2}/\d{1,2}/\d{2,4}, \d{1,2}:\d{2}(?::\d{2})? ?(?:[AaPp][Mm])?)\] (.*)$`)
)

// Timestamp layouts tried in order. Exports vary by device locale.
var timestampLayouts = []string{
	"1/2/06, 3:04 PM",
	"1/2/06, 3:04:05 PM",
	"1/2/2006, 3:04 PM",
	"1/2/2006, 3:04:05 PM",
	"1/2/06, 15:04",
	"1/2/06, 15:04:05",
	"1/2/2006, 15:04",
	"1/2/2006, 15:04:05",
}

// Parse converts raw WhatsApp export text into an ordered message sequence.
//
// Each message starts with a header line (timestamp, sender, text). Lines
// that do not match the header pattern continue the previous message's text.
// A non-matching line with no previous message is a *ParseError, and no
// partial output is returned. Service notices (header lines without a
// sender, like encryption banners) and "<Media omitted>" bodies are elided.
//
// Empty input yields an empty slice and no error.
func Parse(raw string) ([]Message, error) {
	messages := make([]Message, 0)

	// Tracks whether continuation lines currently have a message to attach
	// to. Continuations of elided service notices are dropped.
	attached := false
	sawHeader := false

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := normalizeSpaces(scanner.Text())
		if strings.TrimSpace(line) == "" {
			continue
		}

		ts, rest, ok := matchHeader(line)
		if !ok {
			if !sawHeader {
				return nil, &ParseError{Line: lineNum, Text: line}
			}
			if attached {
				messages[len(messages)-1].Text += "\n" + line
			}
			continue
		}
		sawHeader = true

		sender, text, hasSender := splitSender(rest)
		if !hasSender || isMediaOmitted(text) {
			// Service notice or media placeholder: nothing to extract from.
			attached = false
			continue
		}

		messages = append(messages, Message{
			Sender:    sender,
			Timestamp: ts,
			Text:      text,
			Index:     len(messages),
		})
		attached = true
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// matchHeader tries both header flavors and parses the timestamp.
func matchHeader(line string) (time.Time, string, bool) {
	var stamp, rest string
	if m := dashHeader.FindStringSubmatch(line); m != nil {
		stamp, rest = m[1], m[2]
	} else if m := bracketHeader.FindStringSubmatch(line); m != nil {
		stamp, rest = m[1], m[2]
	} else {
		return time.Time{}, "", false
	}

	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, stamp); err == nil {
			return ts, rest, true
		}
	}
	return time.Time{}, "", false
}

// splitSender separates "Alice: text" into sender and text. Header lines
// without a "sender: " prefix are WhatsApp service notices.
func splitSender(rest string) (string, string, bool) {
	idx := strings.Index(rest, ": ")
	if idx <= 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+2:], true
}

func isMediaOmitted(text string) bool {
	t := strings.TrimSpace(text)
	return t == "<Media omitted>" || t == "image omitted" || t == "video omitted"
}

// normalizeSpaces replaces the narrow no-break and no-break spaces some
// exports place before AM/PM with a plain space.
func normalizeSpaces(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.ReplaceAll(s, " ", " ")
	return s
}
