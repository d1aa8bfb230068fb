package upstream

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/noah-isme/exam-console-api/internal/models"
)

// EventParser decodes the upload endpoint's newline-delimited event stream.
// The response arrives as an incrementally-growing text buffer; Feed parses
// only completed events (terminated by a blank line) and keeps any partial
// trailing event buffered until a later chunk completes it.
type EventParser struct {
	buf []byte
}

const eventDelimiter = "\n\n"

// Feed appends a chunk and returns every event completed by it, in order.
func (p *EventParser) Feed(chunk []byte) []models.ImportEvent {
	p.buf = append(p.buf, chunk...)

	var events []models.ImportEvent
	for {
		idx := bytes.Index(p.buf, []byte(eventDelimiter))
		if idx < 0 {
			return events
		}
		block := p.buf[:idx]
		p.buf = p.buf[idx+len(eventDelimiter):]
		if event, ok := parseBlock(block); ok {
			events = append(events, event)
		}
	}
}

// Flush drains a trailing event that ended without a blank-line terminator,
// which happens when the stream closes right after its last event.
func (p *EventParser) Flush() []models.ImportEvent {
	block := bytes.TrimSpace(p.buf)
	p.buf = nil
	if len(block) == 0 {
		return nil
	}
	if event, ok := parseBlock(block); ok {
		return []models.ImportEvent{event}
	}
	return nil
}

func parseBlock(block []byte) (models.ImportEvent, bool) {
	var payload []byte
	for _, line := range strings.Split(string(block), "\n") {
		line = strings.TrimRight(line, "\r")
		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			payload = append(payload, strings.TrimSpace(rest)...)
		}
	}
	if len(payload) == 0 {
		return models.ImportEvent{}, false
	}
	var event models.ImportEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return models.ImportEvent{}, false
	}
	return event, true
}
