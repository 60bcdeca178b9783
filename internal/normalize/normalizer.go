package normalize

import (
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	emailPattern        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	durationHourPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:小时|hours|hour|hrs|hr|h)`)
	durationMinPattern  = regexp.MustCompile(`(\d+)\s*(?:分钟|minutes|minute|mins|min|m)`)
)

// dateLayouts are tried in order once relative phrases and ISO forms fail.
var dateLayouts = []struct {
	layout   string
	yearless bool
}{
	{layout: "2006-1-2"},
	{layout: "1-2", yearless: true},
	{layout: "1/2", yearless: true},
	{layout: "2006/1/2"},
	{layout: "2-1-2006"},
}

var isoLayouts = []string{
	dateLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Normalizer resolves candidates into Fields. It holds no mutable state and
// is safe for concurrent use.
type Normalizer struct {
	cfg    Config
	logger *slog.Logger
}

// New constructs a Normalizer. A nil logger discards debug output.
func New(cfg Config, logger *slog.Logger) *Normalizer {
	if cfg.location == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Normalizer{cfg: cfg, logger: logger}
}

// Config returns the defaults n applies.
func (n *Normalizer) Config() Config {
	return n.cfg
}

// Normalize resolves c against the reference instant ref. "Today" is the
// calendar date of ref in the configured location.
func (n *Normalizer) Normalize(c Candidate, ref time.Time) (Fields, error) {
	today := DateOf(ref.In(n.cfg.Location()))

	title, err := resolveTitle(c.Title)
	if err != nil {
		return Fields{}, err
	}

	date, err := resolveDate(c.Date, today)
	if err != nil {
		return Fields{}, err
	}

	fields := Fields{
		Title:         title,
		Date:          date,
		Location:      optionalText(c.Location, maxLocationLength),
		Description:   optionalText(c.Description, maxDescriptionLength),
		Participants:  resolveParticipants(c.Participants),
		Reminder:      n.resolveReminder(c.Reminder),
		Category:      n.resolveCategory(c.Category),
		CalDAVUID:     c.CalDAVUID,
		CalDAVHref:    c.CalDAVHref,
		GoogleEventID: c.GoogleEventID,
	}

	fields.AllDay = c.AllDay.True() || timeAbsent(c.StartTime) || durationAbsent(c.Duration)
	if !fields.AllDay {
		start, err := n.resolveStart(c.StartTime)
		if err != nil {
			return Fields{}, err
		}
		duration, err := n.resolveDuration(c.Duration, c.EndTime, start)
		if err != nil {
			return Fields{}, err
		}
		fields.StartTime = &start
		fields.Duration = &duration
	}

	n.logger.Debug("candidate normalized",
		"title", fields.Title,
		"date", fields.Date.String(),
		"all_day", fields.AllDay,
	)
	return fields, nil
}

func resolveTitle(v Text) (string, error) {
	text, ok := v.Value()
	if !ok {
		return "", fieldError("title", "title is required")
	}
	title := strings.TrimSpace(text)
	if title == "" {
		return "", fieldError("title", "title is required")
	}
	return truncateRunes(title, maxTitleLength), nil
}

func resolveDate(v DateValue, today Date) (Date, error) {
	switch v.kind {
	case KindAbsent:
		return today, nil
	case KindStructured:
		if !v.date.valid() {
			return Date{}, fieldError("date", "%s is not a calendar date between 0001 and 9999", v.date)
		}
		return v.date, nil
	case KindText:
	default:
		return Date{}, fieldError("date", "unsupported date value")
	}

	text := strings.TrimSpace(v.text)
	if text == "" {
		return today, nil
	}
	if d, ok := resolveRelative(strings.ToLower(text), today); ok {
		return d, nil
	}
	for _, layout := range isoLayouts {
		if parsed, err := time.Parse(layout, text); err == nil && DateOf(parsed).valid() {
			return DateOf(parsed), nil
		}
	}
	for _, candidate := range dateLayouts {
		parsed, err := time.Parse(candidate.layout, text)
		if err != nil {
			continue
		}
		d := DateOf(parsed)
		if candidate.yearless {
			d.Year = today.Year
			if !d.valid() {
				return Date{}, fieldError("date", "%q does not exist in %d", text, today.Year)
			}
		}
		return d, nil
	}
	return Date{}, fieldError("date", "unrecognized date %q", text)
}

func timeAbsent(v TimeValue) bool {
	switch v.kind {
	case KindAbsent:
		return true
	case KindText:
		return strings.TrimSpace(v.text) == ""
	}
	return false
}

func durationAbsent(v DurationValue) bool {
	switch v.kind {
	case KindAbsent:
		return true
	case KindText:
		return strings.TrimSpace(v.text) == ""
	}
	return false
}

func (n *Normalizer) resolveStart(v TimeValue) (TimeOfDay, error) {
	switch v.kind {
	case KindAbsent:
		return n.cfg.DefaultStartTime(), nil
	case KindStructured:
		return v.clock, nil
	case KindText:
		text := strings.TrimSpace(v.text)
		if text == "" {
			return n.cfg.DefaultStartTime(), nil
		}
		t, err := parseClock(text)
		if err != nil {
			return TimeOfDay{}, fieldError("start_time", "invalid start time %q", text)
		}
		return t, nil
	}
	return TimeOfDay{}, fieldError("start_time", "unsupported start time value")
}

func (n *Normalizer) resolveDuration(v DurationValue, end Text, start TimeOfDay) (int, error) {
	switch v.kind {
	case KindNumber:
		if v.minutes <= 0 || v.minutes > MaxDurationMinutes {
			return 0, fieldError("duration", "duration %d must be between 1 and %d minutes", v.minutes, MaxDurationMinutes)
		}
		return v.minutes, nil
	case KindText:
		return parseDurationText(v.text)
	}

	if endText, ok := end.Value(); ok {
		if endClock, err := parseClock(strings.TrimSpace(endText)); err == nil {
			if minutes := (endClock.Seconds() - start.Seconds()) / 60; minutes > 0 {
				return minutes, nil
			}
		}
	}
	return n.cfg.DefaultDuration(), nil
}

// parseDurationText sums the first hour and first minute quantities found
// in text, e.g. "1h30m", "1.5 hours", "90分钟".
func parseDurationText(text string) (int, error) {
	lowered := strings.ToLower(strings.TrimSpace(text))
	total := 0
	matched := false

	if m := durationHourPattern.FindStringSubmatch(lowered); m != nil {
		hours, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			total += int(hours * 60)
			matched = true
		}
	}
	if m := durationMinPattern.FindStringSubmatch(lowered); m != nil {
		minutes, err := strconv.Atoi(m[1])
		if err == nil {
			total += minutes
			matched = true
		}
	}

	if !matched {
		return 0, fieldError("duration", "unrecognized duration %q", text)
	}
	if total <= 0 || total > MaxDurationMinutes {
		return 0, fieldError("duration", "duration %q must be between 1 and %d minutes", text, MaxDurationMinutes)
	}
	return total, nil
}

func optionalText(v Text, limit int) *string {
	text, ok := v.Value()
	if !ok {
		return nil
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	trimmed = truncateRunes(trimmed, limit)
	return &trimmed
}

func resolveParticipants(v ParticipantsValue) *string {
	var raw string
	switch v.kind {
	case KindText:
		raw = v.text
	case KindList:
		raw = strings.Join(v.list, ",")
	default:
		return nil
	}

	valid := make([]string, 0)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" && emailPattern.MatchString(entry) {
			valid = append(valid, entry)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	joined := strings.Join(valid, ",")
	return &joined
}

func (n *Normalizer) resolveReminder(v ReminderValue) int {
	var minutes int
	switch v.kind {
	case KindNumber:
		truncated := math.Trunc(v.number)
		if math.IsNaN(truncated) || truncated < 0 || truncated > MaxReminderMinutes {
			return n.cfg.DefaultReminder()
		}
		minutes = int(truncated)
	case KindText:
		parsed, err := strconv.Atoi(strings.TrimSpace(v.text))
		if err != nil {
			return n.cfg.DefaultReminder()
		}
		minutes = parsed
	default:
		return n.cfg.DefaultReminder()
	}
	if minutes < 0 || minutes > MaxReminderMinutes {
		return n.cfg.DefaultReminder()
	}
	return minutes
}

func (n *Normalizer) resolveCategory(v Text) Category {
	text, ok := v.Value()
	if !ok {
		return n.cfg.DefaultCategory()
	}
	if c, valid := ParseCategory(text); valid {
		return c
	}
	return n.cfg.DefaultCategory()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
