package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

var (
	ErrInvalidDisplayDate = errors.New("invalid display date")
	ErrUnknownMonth       = errors.New("unknown month abbreviation")
)

// monthAbbr is indexed by time.Month - 1. June and July keep four letters so
// that every month maps to a distinct key.
var monthAbbr = [12]string{
	"Jan.", "Fév.", "Mar.", "Avr.", "Mai.", "Juin.",
	"Juil.", "Aoû.", "Sep.", "Oct.", "Nov.", "Déc.",
}

// MonthAbbreviations maps the display abbreviation back to its month.
var MonthAbbreviations = func() map[string]time.Month {
	m := make(map[string]time.Month, len(monthAbbr))
	for i, a := range monthAbbr {
		m[a] = time.Month(i + 1)
	}
	return m
}()

var inputLayouts = []string{isoLayout, time.RFC3339, "2006-01-02T15:04:05"}

// FormatDate renders an ISO date as "<day> <Abbr> <yy>", e.g. "27 Juin. 24".
func FormatDate(iso string) (string, error) {
	iso = strings.TrimSpace(iso)
	for _, layout := range inputLayouts {
		if t, err := time.Parse(layout, iso); err == nil {
			return Date{Time: t}.Display(), nil
		}
	}
	return "", fmt.Errorf("format date %q: %w", iso, ErrInvalidDate)
}

// Display returns the French short form of the date.
func (d Date) Display() string {
	return fmt.Sprintf("%d %s %02d", d.Time.Day(), monthAbbr[d.Time.Month()-1], d.Time.Year()%100)
}

// ParseDate is the inverse of FormatDate. Years are read as 20yy.
func ParseDate(display string) (time.Time, error) {
	parts := strings.Fields(display)
	if len(parts) != 3 {
		return time.Time{}, ErrInvalidDisplayDate
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, ErrInvalidDisplayDate
	}
	month, ok := MonthAbbreviations[parts[1]]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownMonth, parts[1])
	}
	yy, err := strconv.Atoi(parts[2])
	if err != nil || yy < 0 || yy > 99 {
		return time.Time{}, ErrInvalidDisplayDate
	}
	t := time.Date(2000+yy, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, ErrInvalidDisplayDate
	}
	return t, nil
}

// StatusLabel returns the display label of a bill status, empty when unknown.
func StatusLabel(s Status) string {
	switch s {
	case StatusPending:
		return "En attente"
	case StatusAccepted:
		return "Accepté"
	case StatusRefused:
		return "Refused"
	}
	return ""
}
