package ics

import "strings"

const sampleFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//freetime//test//EN
BEGIN:VEVENT
UID:standup
SUMMARY:Standup
DTSTART;TZID=Europe/Berlin:20250310T093000
DTEND;TZID=Europe/Berlin:20250310T100000
RRULE:FREQ=DAILY;BYDAY=MO,TU,WE,TH,FR;COUNT=10
EXDATE;TZID=Europe/Berlin:20250312T093000
ATTENDEE;PARTSTAT=ACCEPTED:mailto:me@example.com
END:VEVENT
BEGIN:VEVENT
UID:standup
RECURRENCE-ID;TZID=Europe/Berlin:20250313T093000
SUMMARY:Standup (moved)
DTSTART;TZID=Europe/Berlin:20250313T110000
DTEND;TZID=Europe/Berlin:20250313T113000
END:VEVENT
BEGIN:VEVENT
UID:review
SUMMARY:Design review
DTSTART:20250311T130000Z
DURATION:PT1H30M
TRANSP:TRANSPARENT
ATTENDEE;PARTSTAT=TENTATIVE:mailto:Me@Example.com
ORGANIZER:mailto:boss@example.com
END:VEVENT
BEGIN:VEVENT
UID:holiday
SUMMARY:Holiday
DTSTART;VALUE=DATE:20250314
DTEND;VALUE=DATE:20250315
END:VEVENT
BEGIN:VEVENT
UID:cancelled
SUMMARY:Old sync
STATUS:CANCELLED
DTSTART:20250310T150000Z
DTEND:20250310T160000Z
ORGANIZER:mailto:me@example.com
END:VEVENT
BEGIN:VEVENT
SUMMARY:No uid
DTSTART:20250310T150000Z
END:VEVENT
END:VCALENDAR
`

func feedBody(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}
