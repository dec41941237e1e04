// Package ics renders workshops as iCalendar documents (RFC 5545). It is
// a pure formatting concern; nothing here touches storage.
package ics

import (
	"fmt"
	"strings"
	"time"

	"github.com/atelierhq/atelier-api/internal/domain"
)

const timestampLayout = "20060102T150405Z"

// Render produces a single-event VCALENDAR for the workshop.
func Render(w domain.Workshop) []byte {
	var b strings.Builder

	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:-//atelierhq//atelier-api//FR")
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "METHOD:PUBLISH")

	writeLine(&b, "BEGIN:VEVENT")
	writeLine(&b, fmt.Sprintf("UID:workshop-%v@atelierhq", w.ID))
	writeLine(&b, "DTSTAMP:"+time.Now().UTC().Format(timestampLayout))
	writeLine(&b, "DTSTART:"+w.StartAt.UTC().Format(timestampLayout))
	writeLine(&b, "DTEND:"+w.EndAt.UTC().Format(timestampLayout))
	writeLine(&b, "SUMMARY:"+escape(w.Title))

	if w.Description != "" {
		writeLine(&b, "DESCRIPTION:"+escape(w.Description))
	}

	if w.IsRemote {
		if w.VisioLink != "" {
			writeLine(&b, "LOCATION:"+escape(w.VisioLink))
		}
	} else if w.Location != "" {
		writeLine(&b, "LOCATION:"+escape(w.Location))
	}

	if w.LifecycleStatus == domain.WorkshopCanceled {
		writeLine(&b, "STATUS:CANCELLED")
	} else {
		writeLine(&b, "STATUS:CONFIRMED")
	}

	writeLine(&b, "END:VEVENT")
	writeLine(&b, "END:VCALENDAR")

	return []byte(b.String())
}

// writeLine folds content at 75 octets as the format requires and
// terminates with CRLF.
func writeLine(b *strings.Builder, line string) {
	const limit = 75

	for len(line) > limit {
		b.WriteString(line[:limit])
		b.WriteString("\r\n ")
		line = line[limit:]
	}

	b.WriteString(line)
	b.WriteString("\r\n")
}

// escape backslash-escapes the characters reserved by the text value type.
func escape(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\n", `\n`,
	)

	return r.Replace(s)
}
