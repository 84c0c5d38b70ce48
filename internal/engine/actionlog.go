package engine

import "time"

// ActionLogEntry is the tagged union for one Game.ActionLog row. The
// original representation used a single loosely-typed struct with many
// optional fields; the discriminator here is mandatory so a reader never
// has to guess which fields are populated.
type ActionLogEntry interface {
	Kind() string
	Time() time.Time
}

// ActionRecord is logged whenever applyAIDecision mutates a seat.
type ActionRecord struct {
	SeatIndex int
	Action    Action
	Amount    int64
	HandNumber int
	Reasoning string
	Timestamp time.Time
}

func (ActionRecord) Kind() string        { return "action" }
func (a ActionRecord) Time() time.Time   { return a.Timestamp }

// PhaseRecord marks a street or hand-loop transition.
type PhaseRecord struct {
	Phase      Phase
	HandNumber int
	Timestamp  time.Time
}

func (PhaseRecord) Kind() string       { return "phase" }
func (p PhaseRecord) Time() time.Time  { return p.Timestamp }

// SystemRecord is an informational entry not tied to a single seat action,
// e.g. a pot award announcement or a timeout notice.
type SystemRecord struct {
	Content    string
	HandNumber int
	Timestamp  time.Time
}

func (SystemRecord) Kind() string      { return "system" }
func (s SystemRecord) Time() time.Time { return s.Timestamp }

// legacyActionLogRow is the shape of an action log row persisted before the
// tagged union existed — every field optional, no discriminator.
type legacyActionLogRow struct {
	SeatIndex  *int
	Action     string
	Amount     *int64
	Phase      string
	HandNumber int
	Timestamp  time.Time
	Reasoning  string
	Content    string
}

// DecodeActionLogEntry migrates a legacy untagged row into the tagged
// union: a row with a non-empty Action is an ActionRecord, otherwise a
// SystemRecord (there is no way to recover a legacy PhaseRecord, since the
// original schema had no phase-only row shape).
func DecodeActionLogEntry(row legacyActionLogRow) ActionLogEntry {
	if row.Action != "" {
		seat := 0
		if row.SeatIndex != nil {
			seat = *row.SeatIndex
		}
		amount := int64(0)
		if row.Amount != nil {
			amount = *row.Amount
		}
		return ActionRecord{
			SeatIndex:  seat,
			Action:     Action(row.Action),
			Amount:     amount,
			HandNumber: row.HandNumber,
			Reasoning:  row.Reasoning,
			Timestamp:  row.Timestamp,
		}
	}
	return SystemRecord{
		Content:    row.Content,
		HandNumber: row.HandNumber,
		Timestamp:  row.Timestamp,
	}
}
