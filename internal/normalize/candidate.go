package normalize

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Kind tags the shape a candidate value arrived in.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindText
	KindNumber
	KindStructured
	KindList
	KindBool
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindStructured:
		return "structured"
	case KindList:
		return "list"
	case KindBool:
		return "bool"
	default:
		return "unsupported"
	}
}

// Candidate is partially specified event data as produced by an extraction
// step or submitted by a client. Every field is optional; the zero value of
// each field is absent.
type Candidate struct {
	Title         Text              `yaml:"title"`
	Date          DateValue         `yaml:"date"`
	StartTime     TimeValue         `yaml:"start_time"`
	EndTime       Text              `yaml:"end_time"`
	Duration      DurationValue     `yaml:"duration"`
	AllDay        Flag              `yaml:"all_day"`
	Location      Text              `yaml:"location"`
	Description   Text              `yaml:"description"`
	Participants  ParticipantsValue `yaml:"participants"`
	Reminder      ReminderValue     `yaml:"reminder"`
	Category      Text              `yaml:"category"`
	CalDAVUID     string            `yaml:"caldav_uid"`
	CalDAVHref    string            `yaml:"caldav_href"`
	GoogleEventID string            `yaml:"google_event_id"`
}

// DisplayTitle returns the trimmed title text, or "Unknown" when the
// candidate carries none.
func (c Candidate) DisplayTitle() string {
	if title, ok := c.Title.Value(); ok {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			return trimmed
		}
	}
	return "Unknown"
}

// DecodeCandidates reads a YAML (or JSON) list of candidates.
func DecodeCandidates(data []byte) ([]Candidate, error) {
	var candidates []Candidate
	if err := yaml.Unmarshal(data, &candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// Text is a free-text candidate value.
type Text struct {
	kind Kind
	text string
}

// TextOf returns a text value.
func TextOf(s string) Text { return Text{kind: KindText, text: s} }

// Kind reports the shape of t.
func (t Text) Kind() Kind { return t.kind }

// Value returns the text and whether t carries text.
func (t Text) Value() (string, bool) { return t.text, t.kind == KindText }

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Text) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	switch {
	case isNull(node):
		*t = Text{}
	case isScalar(node, "!!str"):
		*t = TextOf(node.Value)
	default:
		*t = Text{kind: KindUnsupported}
	}
	return nil
}

// DateValue is a candidate date: free text or an already structured date.
type DateValue struct {
	kind Kind
	text string
	date Date
}

// DateText returns a textual date value.
func DateText(s string) DateValue { return DateValue{kind: KindText, text: s} }

// DateStructured returns a structured date value.
func DateStructured(d Date) DateValue { return DateValue{kind: KindStructured, date: d} }

// Kind reports the shape of v.
func (v DateValue) Kind() Kind { return v.kind }

// UnmarshalYAML implements yaml.Unmarshaler. YAML timestamps and
// {year, month, day} mappings decode as structured dates.
func (v *DateValue) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	switch {
	case isNull(node):
		*v = DateValue{}
	case isScalar(node, "!!str"):
		*v = DateText(node.Value)
	case isScalar(node, "!!timestamp"):
		var ts time.Time
		if err := node.Decode(&ts); err != nil {
			*v = DateText(node.Value)
			return nil
		}
		*v = DateStructured(DateOf(ts))
	case node.Kind == yaml.MappingNode:
		var parts struct {
			Year  int `yaml:"year"`
			Month int `yaml:"month"`
			Day   int `yaml:"day"`
		}
		d := Date{}
		if err := node.Decode(&parts); err == nil {
			d = Date{Year: parts.Year, Month: time.Month(parts.Month), Day: parts.Day}
		}
		if !d.valid() {
			*v = DateValue{kind: KindUnsupported}
			return nil
		}
		*v = DateStructured(d)
	default:
		*v = DateValue{kind: KindUnsupported}
	}
	return nil
}

// TimeValue is a candidate start time: free text or a structured time of day.
type TimeValue struct {
	kind  Kind
	text  string
	clock TimeOfDay
}

// TimeText returns a textual time value.
func TimeText(s string) TimeValue { return TimeValue{kind: KindText, text: s} }

// TimeStructured returns a structured time value.
func TimeStructured(t TimeOfDay) TimeValue { return TimeValue{kind: KindStructured, clock: t} }

// Kind reports the shape of v.
func (v TimeValue) Kind() Kind { return v.kind }

// UnmarshalYAML implements yaml.Unmarshaler. {hour, minute, second} mappings
// decode as structured times.
func (v *TimeValue) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	switch {
	case isNull(node):
		*v = TimeValue{}
	case isScalar(node, "!!str"):
		*v = TimeText(node.Value)
	case node.Kind == yaml.MappingNode:
		var clock struct {
			Hour   int `yaml:"hour"`
			Minute int `yaml:"minute"`
			Second int `yaml:"second"`
		}
		if err := node.Decode(&clock); err != nil {
			*v = TimeValue{kind: KindUnsupported}
			return nil
		}
		t := TimeOfDay{Hour: clock.Hour, Minute: clock.Minute, Second: clock.Second}
		if !t.valid() {
			*v = TimeValue{kind: KindUnsupported}
			return nil
		}
		*v = TimeStructured(t)
	default:
		*v = TimeValue{kind: KindUnsupported}
	}
	return nil
}

// DurationValue is a candidate duration: whole minutes or text such as "1h30m".
type DurationValue struct {
	kind    Kind
	minutes int
	text    string
}

// DurationMinutes returns a whole-minute duration value.
func DurationMinutes(n int) DurationValue { return DurationValue{kind: KindNumber, minutes: n} }

// DurationText returns a textual duration value.
func DurationText(s string) DurationValue { return DurationValue{kind: KindText, text: s} }

// Kind reports the shape of v.
func (v DurationValue) Kind() Kind { return v.kind }

// UnmarshalYAML implements yaml.Unmarshaler. Only integers count as minutes;
// fractional numbers are unsupported.
func (v *DurationValue) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	switch {
	case isNull(node):
		*v = DurationValue{}
	case isScalar(node, "!!str"):
		*v = DurationText(node.Value)
	case isScalar(node, "!!int"):
		var n int
		if err := node.Decode(&n); err != nil {
			*v = DurationValue{kind: KindUnsupported}
			return nil
		}
		*v = DurationMinutes(n)
	default:
		*v = DurationValue{kind: KindUnsupported}
	}
	return nil
}

// Flag is a candidate boolean.
type Flag struct {
	kind Kind
	set  bool
}

// FlagOf returns a boolean value.
func FlagOf(b bool) Flag { return Flag{kind: KindBool, set: b} }

// Kind reports the shape of f.
func (f Flag) Kind() Kind { return f.kind }

// True reports whether f is an explicit true.
func (f Flag) True() bool { return f.kind == KindBool && f.set }

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Flag) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	switch {
	case isNull(node):
		*f = Flag{}
	case isScalar(node, "!!bool"):
		var b bool
		if err := node.Decode(&b); err != nil {
			*f = Flag{kind: KindUnsupported}
			return nil
		}
		*f = FlagOf(b)
	default:
		*f = Flag{kind: KindUnsupported}
	}
	return nil
}

// ParticipantsValue is a comma separated string or a list of addresses.
type ParticipantsValue struct {
	kind Kind
	text string
	list []string
}

// ParticipantsText returns a comma separated participants value.
func ParticipantsText(s string) ParticipantsValue {
	return ParticipantsValue{kind: KindText, text: s}
}

// ParticipantsList returns a list participants value.
func ParticipantsList(addresses ...string) ParticipantsValue {
	return ParticipantsValue{kind: KindList, list: append([]string(nil), addresses...)}
}

// Kind reports the shape of v.
func (v ParticipantsValue) Kind() Kind { return v.kind }

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *ParticipantsValue) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	switch {
	case isNull(node):
		*v = ParticipantsValue{}
	case isScalar(node, "!!str"):
		*v = ParticipantsText(node.Value)
	case node.Kind == yaml.SequenceNode:
		entries := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			item = resolveAlias(item)
			if item.Kind == yaml.ScalarNode && !isNull(item) {
				entries = append(entries, item.Value)
			}
		}
		*v = ParticipantsList(entries...)
	default:
		*v = ParticipantsValue{kind: KindUnsupported}
	}
	return nil
}

// ReminderValue is a candidate reminder in minutes: a number or numeric text.
type ReminderValue struct {
	kind   Kind
	number float64
	text   string
}

// ReminderNumber returns a numeric reminder value.
func ReminderNumber(n float64) ReminderValue { return ReminderValue{kind: KindNumber, number: n} }

// ReminderText returns a textual reminder value.
func ReminderText(s string) ReminderValue { return ReminderValue{kind: KindText, text: s} }

// Kind reports the shape of v.
func (v ReminderValue) Kind() Kind { return v.kind }

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *ReminderValue) UnmarshalYAML(node *yaml.Node) error {
	node = resolveAlias(node)
	switch {
	case isNull(node):
		*v = ReminderValue{}
	case isScalar(node, "!!str"):
		*v = ReminderText(node.Value)
	case isScalar(node, "!!int"), isScalar(node, "!!float"):
		var n float64
		if err := node.Decode(&n); err != nil {
			*v = ReminderValue{kind: KindUnsupported}
			return nil
		}
		*v = ReminderNumber(n)
	default:
		*v = ReminderValue{kind: KindUnsupported}
	}
	return nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	return node == nil || (node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null")
}

func isScalar(node *yaml.Node, tag string) bool {
	return node != nil && node.Kind == yaml.ScalarNode && node.ShortTag() == tag
}
