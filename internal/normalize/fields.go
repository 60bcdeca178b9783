package normalize

import "strings"

// Category classifies an event.
type Category string

const (
	CategoryWork        Category = "work"
	CategoryPersonal    Category = "personal"
	CategoryMeeting     Category = "meeting"
	CategoryAppointment Category = "appointment"
	CategoryOther       Category = "other"
)

// Categories lists every recognised category.
func Categories() []Category {
	return []Category{CategoryWork, CategoryPersonal, CategoryMeeting, CategoryAppointment, CategoryOther}
}

// Valid reports whether c is a recognised category.
func (c Category) Valid() bool {
	switch c {
	case CategoryWork, CategoryPersonal, CategoryMeeting, CategoryAppointment, CategoryOther:
		return true
	}
	return false
}

// ParseCategory lower-cases and trims value, reporting whether it names a
// recognised category.
func ParseCategory(value string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(value)))
	return c, c.Valid()
}

// Fields is a fully resolved event record. StartTime and Duration are nil
// exactly when AllDay is set.
type Fields struct {
	Title         string     `json:"title"`
	Date          Date       `json:"date"`
	AllDay        bool       `json:"all_day"`
	StartTime     *TimeOfDay `json:"start_time"`
	Duration      *int       `json:"duration"`
	Location      *string    `json:"location"`
	Description   *string    `json:"description"`
	Participants  *string    `json:"participants"`
	Reminder      int        `json:"reminder"`
	Category      Category   `json:"category"`
	CalDAVUID     string     `json:"caldav_uid,omitempty"`
	CalDAVHref    string     `json:"caldav_href,omitempty"`
	GoogleEventID string     `json:"google_event_id,omitempty"`
}

// ParticipantList splits Participants into its addresses.
func (f Fields) ParticipantList() []string {
	if f.Participants == nil || *f.Participants == "" {
		return nil
	}
	return strings.Split(*f.Participants, ",")
}
