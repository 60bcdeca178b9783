package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const candidatesYAML = `
- title: Team sync
  date: 2026-02-12
  start_time: "10:00"
  duration: 1h
  participants: [alice@example.com, not-an-email]
  reminder: 30
  category: Meeting
- title: Dentist
  date: tomorrow
  all_day: true
  reminder: "120"
- title: Review
  duration: 1.5
  start_time: {hour: 16, minute: 15}
  end_time: "17:00"
- date: next friday
`

func TestDecodeCandidatesYAML(t *testing.T) {
	t.Parallel()

	candidates, err := DecodeCandidates([]byte(candidatesYAML))
	require.NoError(t, err)
	require.Len(t, candidates, 4)

	sync := candidates[0]
	assert.Equal(t, KindText, sync.Title.Kind())
	assert.Equal(t, KindStructured, sync.Date.Kind())
	assert.Equal(t, KindText, sync.StartTime.Kind())
	assert.Equal(t, KindText, sync.Duration.Kind())
	assert.Equal(t, KindList, sync.Participants.Kind())
	assert.Equal(t, KindNumber, sync.Reminder.Kind())
	assert.Equal(t, KindAbsent, sync.AllDay.Kind())

	dentist := candidates[1]
	assert.Equal(t, KindText, dentist.Date.Kind())
	assert.True(t, dentist.AllDay.True())
	assert.Equal(t, KindText, dentist.Reminder.Kind())

	review := candidates[2]
	assert.Equal(t, KindUnsupported, review.Duration.Kind())
	assert.Equal(t, KindStructured, review.StartTime.Kind())

	assert.Equal(t, "Unknown", candidates[3].DisplayTitle())
	assert.Equal(t, "Team sync", sync.DisplayTitle())

	n := New(DefaultConfig(), nil)

	fields, err := n.Normalize(sync, referenceInstant)
	require.NoError(t, err)
	assert.Equal(t, Date{2026, time.February, 12}, fields.Date)
	assert.Equal(t, 60, *fields.Duration)
	assert.Equal(t, "alice@example.com", *fields.Participants)
	assert.Equal(t, CategoryMeeting, fields.Category)

	fields, err = n.Normalize(dentist, referenceInstant)
	require.NoError(t, err)
	assert.True(t, fields.AllDay)
	assert.Equal(t, Date{2026, time.February, 11}, fields.Date)
	assert.Equal(t, 120, fields.Reminder)

	fields, err = n.Normalize(review, referenceInstant)
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 16, Minute: 15}, *fields.StartTime)
	assert.Equal(t, 45, *fields.Duration)

	_, err = n.Normalize(candidates[3], referenceInstant)
	requireFieldError(t, err, "title")
}

func TestDecodeCandidatesRejectsOutOfRangeDates(t *testing.T) {
	t.Parallel()

	payload := `
- title: Far future
  date: {year: 10000, month: 1, day: 1}
  start_time: "10:00"
  duration: 30
- title: Before year one
  date: {year: -5, month: 6, day: 1}
- title: Last day
  date: {year: 9999, month: 12, day: 31}
`
	candidates, err := DecodeCandidates([]byte(payload))
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	n := New(DefaultConfig(), nil)
	for _, c := range candidates[:2] {
		assert.Equal(t, KindUnsupported, c.Date.Kind(), c.DisplayTitle())
		_, err := n.Normalize(c, referenceInstant)
		requireFieldError(t, err, "date")
	}

	fields, err := n.Normalize(candidates[2], referenceInstant)
	require.NoError(t, err)
	assert.Equal(t, "9999-12-31", fields.Date.String())
}

func TestDecodeCandidatesJSON(t *testing.T) {
	t.Parallel()

	payload := `[{"title": "Lunch", "date": "2026-02-13", "start_time": "12:00", "duration": 45, "reminder": null, "all_day": false, "caldav_uid": "abc"}]`
	candidates, err := DecodeCandidates([]byte(payload))
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, KindText, c.Date.Kind())
	assert.Equal(t, KindNumber, c.Duration.Kind())
	assert.Equal(t, KindAbsent, c.Reminder.Kind())
	assert.Equal(t, KindBool, c.AllDay.Kind())
	assert.Equal(t, "abc", c.CalDAVUID)
}

func TestFieldsJSONEncoding(t *testing.T) {
	t.Parallel()

	start := TimeOfDay{Hour: 9, Minute: 30}
	duration := 30
	fields := Fields{
		Title:     "Standup",
		Date:      Date{2026, time.February, 10},
		StartTime: &start,
		Duration:  &duration,
		Reminder:  15,
		Category:  CategoryWork,
	}

	encoded, err := json.Marshal(fields)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"date":"2026-02-10"`)
	assert.Contains(t, string(encoded), `"start_time":"09:30:00"`)
	assert.Contains(t, string(encoded), `"location":null`)

	var decoded Fields
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, fields, decoded)
}
