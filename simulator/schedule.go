package simulator

import (
	"math/rand"

	"github.com/the-lightning-land/jammed/jdb"
)

// HonestScheduleConfig parameterizes the random honest payment flow.
type HonestScheduleConfig struct {
	EndTime float64

	// Senders and Receivers are the candidate sets payments are drawn
	// from, uniformly.
	Senders   []jdb.NodeID
	Receivers []jdb.NodeID

	// Amounts are drawn uniformly from [MinAmount, MaxAmount].
	MinAmount int64
	MaxAmount int64

	// PaymentsPerSecond is the rate of the Poisson arrival process.
	PaymentsPerSecond float64

	// The processing delay of a payment is MinProcessingDelay plus an
	// exponentially distributed extra with the given expectation.
	MinProcessingDelay           float64
	ExpectedExtraProcessingDelay float64

	// MustRouteVia is copied onto every generated event.
	MustRouteVia []jdb.NodeID
}

// NewHonestSchedule draws a schedule of honest payments from the given
// random source. The first event lands at t=0; inter-arrival delays are
// exponential with mean 1/PaymentsPerSecond. Draws where sender and
// receiver coincide produce no event but still advance time.
func NewHonestSchedule(config *HonestScheduleConfig, rng *rand.Rand) *Schedule {
	schedule := NewSchedule(config.EndTime)

	for t := 0.0; t <= config.EndTime; t += rng.ExpFloat64() / config.PaymentsPerSecond {
		sender := config.Senders[rng.Intn(len(config.Senders))]
		receiver := config.Receivers[rng.Intn(len(config.Receivers))]
		amount := config.MinAmount + rng.Int63n(config.MaxAmount-config.MinAmount+1)
		delay := config.MinProcessingDelay + rng.ExpFloat64()*config.ExpectedExtraProcessingDelay

		if sender == receiver {
			continue
		}

		schedule.Push(t, Event{
			Sender:          sender,
			Receiver:        receiver,
			Amount:          amount,
			DesiredResult:   true,
			ProcessingDelay: delay,
			MustRouteVia:    config.MustRouteVia,
		})
	}

	return schedule
}

// JammingScheduleConfig parameterizes the attack flow.
type JammingScheduleConfig struct {
	EndTime float64

	Sender   jdb.NodeID
	Receiver jdb.NodeID

	// JamAmount is the amount of every jam, typically the dust limit.
	JamAmount int64

	// JamDelay is both the processing delay of jam HTLCs and the pause
	// between batches.
	JamDelay float64
}

// NewJammingSchedule seeds a schedule with a single jam event at t=0. The
// engine pushes successor events batch by batch as the attack progresses.
func NewJammingSchedule(config *JammingScheduleConfig) *Schedule {
	schedule := NewSchedule(config.EndTime)

	schedule.Push(0, Event{
		Sender:          config.Sender,
		Receiver:        config.Receiver,
		Amount:          config.JamAmount,
		DesiredResult:   false,
		ProcessingDelay: config.JamDelay,
	})

	return schedule
}
