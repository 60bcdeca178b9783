// Package normalize turns loosely typed candidate event data into fully
// resolved event fields.
//
// A Normalizer applies an ordered set of field rules to a Candidate against
// an injected reference instant:
//   - title: required, trimmed and truncated.
//   - date: relative phrases ("tomorrow", "下周一", "this friday"), ISO dates
//     and a handful of lenient layouts.
//   - all_day, start_time, duration: an event is all-day unless both a start
//     time and a duration are supplied.
//   - location, description, participants, reminder, category: optional and
//     defaulted when missing or out of range.
//
// The first failing rule is reported as an *Error; errors.Is(err, ErrInvalid)
// holds for every normalization failure.
package normalize
