package services

import (
	"fmt"
	"log/slog"

	"court-reservation/utils"

	pubnub "github.com/pubnub/go"
)

// PubNubPublisher pushes slot changes onto a per-court channel so
// clients watching a court calendar see availability move in realtime.
// Publishes run behind a circuit breaker; when the realtime backend is
// down, bookings keep working and fan-out is shed.
type PubNubPublisher struct {
	pn      *pubnub.PubNub
	breaker *utils.CircuitBreaker
}

func NewPubNubPublisher(pn *pubnub.PubNub) *PubNubPublisher {
	return &PubNubPublisher{
		pn:      pn,
		breaker: utils.NewCircuitBreaker("pubnub"),
	}
}

func (p *PubNubPublisher) PublishSlotChange(change SlotChange) {
	channel := fmt.Sprintf("court-%s", change.CourtID)
	err := p.breaker.Do(func() error {
		_, _, err := p.pn.Publish().
			Channel(channel).
			Message(map[string]any{
				"type":           "slot_change",
				"change":         change.Change,
				"reservation_id": change.ReservationID,
				"start_time":     change.StartTime.Unix(),
				"end_time":       change.EndTime.Unix(),
			}).
			Execute()
		return err
	})
	if err != nil {
		slog.Error("publish slot change", "channel", channel, "error", err)
	}
}
