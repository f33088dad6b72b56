package livefeed

import (
	"github.com/neevany/timingsrc/interval"
	"github.com/neevany/timingsrc/schedule"
)

func sideName(s interval.Side) string {
	if s == interval.Low {
		return "low"
	}
	return "high"
}

// DueEventPayload is the wire shape of a schedule.DueEvent: the cue's
// data is included, but the cue's pointer identity is not meaningful
// off-process so it is flattened into plain fields.
type DueEventPayload struct {
	Key       string      `json:"key"`
	Endpoint  float64     `json:"endpoint"`
	Side      string      `json:"side"`
	Direction string      `json:"direction"`
	Timestamp float64     `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// PayloadsFromDue flattens a batch of due events for broadcast.
func PayloadsFromDue(due []schedule.DueEvent) []DueEventPayload {
	out := make([]DueEventPayload, len(due))
	for i, ev := range due {
		out[i] = DueEventPayload{
			Key:       ev.Cue.Key,
			Endpoint:  ev.Endpoint,
			Side:      sideName(ev.Side),
			Direction: string(ev.Direction),
			Timestamp: ev.Timestamp,
			Data:      ev.Cue.Data,
		}
	}
	return out
}

// Callback returns a schedule.ChangeHandler that broadcasts every due
// batch to hub's connected clients. Wire it with Schedule.AddCallback
// alongside the event-bridge callback; both read the same batch, and
// neither can block the other since Hub.BroadcastDueEvents never
// blocks on a slow client.
func Callback(hub *Hub) schedule.ChangeHandler {
	return func(due []schedule.DueEvent, _ *schedule.Schedule) {
		if len(due) == 0 {
			return
		}
		hub.BroadcastDueEvents(PayloadsFromDue(due))
	}
}
