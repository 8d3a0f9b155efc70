package bill

import (
	"fmt"
	"time"
)

var frenchMonths = [...]string{
	"Jan", "Fév", "Mar", "Avr", "Mai", "Jui",
	"Jui", "Aoû", "Sep", "Oct", "Nov", "Déc",
}

// FormatDate renders an ISO date the way the bill list shows it, e.g. "4 Avr. 04".
// It returns an error when raw is not a valid YYYY-MM-DD date.
func FormatDate(raw string) (string, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return "", fmt.Errorf("parsing date %q: %w", raw, err)
	}
	return fmt.Sprintf("%d %s. %02d", t.Day(), frenchMonths[t.Month()-1], t.Year()%100), nil
}

// FormatStatus returns the label shown for a bill status.
// Unknown statuses are shown as they are.
func FormatStatus(s Status) string {
	switch s {
	case StatusPending:
		return "En attente"
	case StatusAccepted:
		return "Accepté"
	case StatusRefused:
		return "Refused"
	}
	return string(s)
}

// normalize fills the display fields of b. A malformed date keeps the raw string.
func normalize(b Bill) (Bill, error) {
	b.DisplayStatus = FormatStatus(b.Status)
	display, err := FormatDate(b.Date)
	if err != nil {
		b.DisplayDate = b.Date
		return b, err
	}
	b.DisplayDate = display
	return b, nil
}
