// Package segment derives conversation-level and per-day summaries from an
// ordered sequence of message events (§4.C).
package segment

import (
	"time"

	"github.com/nextlevelbuilder/goclaw-analytics/internal/events"
)

// ResponsePair is an adjacent (INCOMING, OUTGOING) event pair (§3).
type ResponsePair struct {
	PrevTS           time.Time // the incoming event's timestamp
	CurTS            time.Time // the immediately-following outgoing event's timestamp
	AgentPhoneNumber string
	ContactNumber    string
}

// Summary is the per-partition result of segmentation (§4.C).
type Summary struct {
	UserID  int64
	OrgID   int64
	ChatID  string
	Date    *time.Time // nil for the lifetime pipeline, set for the daily pipeline

	StarterDirection events.Direction
	LastDirection    events.Direction
	ConversationStarter string // "employee" | "contact"
	LastMessageFrom     string // "employee" | "contact"

	ContactMessageCount int
	AgentMessageCount   int
	UniqueMessages      int
	FollowUpCount       int

	FirstContactTS *time.Time
	FirstAgentTS   *time.Time
	FirstEventTS   time.Time // the partition's earliest message, used as the lifetime row's created_at

	AgentPhoneNumber string // from the first OUTGOING event seen, "" if none
	ContactNumber    string // from the first INCOMING event seen, "" if none

	ResponsePairs []ResponsePair
}

// directionLabel maps a direction to the "employee"/"contact" vocabulary
// used by conversation_starter / last_message_from (§4.C Mapping).
func directionLabel(d events.Direction) string {
	if d == events.Outgoing {
		return "employee"
	}
	return "contact"
}

// Segment computes a Summary over one partition's event sequence, already
// ordered by (message_timestamp, event_id). The caller supplies UserID,
// OrgID, ChatID, and (for the daily pipeline) Date, since those are the
// partition key rather than something derivable purely from the events in
// degenerate partitions.
func Segment(key struct {
	UserID int64
	OrgID  int64
	ChatID string
	Date   *time.Time
}, ordered []events.Event) Summary {
	s := Summary{UserID: key.UserID, OrgID: key.OrgID, ChatID: key.ChatID, Date: key.Date}
	if len(ordered) == 0 {
		return s
	}

	s.StarterDirection = ordered[0].Direction
	s.LastDirection = ordered[len(ordered)-1].Direction
	s.FirstEventTS = ordered[0].MessageTimestamp
	s.ConversationStarter = directionLabel(s.StarterDirection)
	s.LastMessageFrom = directionLabel(s.LastDirection)

	seenMessages := map[string]bool{}
	var prev *events.Event
	for i := range ordered {
		e := &ordered[i]

		switch e.Direction {
		case events.Incoming:
			s.ContactMessageCount++
			if s.FirstContactTS == nil {
				ts := e.MessageTimestamp
				s.FirstContactTS = &ts
				s.ContactNumber = e.SenderNumber
			}
		case events.Outgoing:
			s.AgentMessageCount++
			if s.FirstAgentTS == nil {
				ts := e.MessageTimestamp
				s.FirstAgentTS = &ts
				s.AgentPhoneNumber = e.AgentPhoneNumber
			}
		}

		if !seenMessages[e.MessageID] {
			seenMessages[e.MessageID] = true
			s.UniqueMessages++
		}

		if prev != nil {
			if prev.Direction == events.Outgoing && e.Direction == events.Outgoing {
				s.FollowUpCount++
			}
			if prev.Direction == events.Incoming && e.Direction == events.Outgoing {
				s.ResponsePairs = append(s.ResponsePairs, ResponsePair{
					PrevTS:           prev.MessageTimestamp,
					CurTS:            e.MessageTimestamp,
					AgentPhoneNumber: e.AgentPhoneNumber,
					ContactNumber:    prev.SenderNumber,
				})
			}
		}
		prev = e
	}

	return s
}
