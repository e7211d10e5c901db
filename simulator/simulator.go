// Package simulator executes schedules of payments against a network
// model: it builds routes, wraps payments, drives them hop by hop through
// directional channel state, and records the resulting fee flows.
package simulator

import (
	"math/rand"

	"github.com/the-lightning-land/jammed/jdb"
)

// Config carries the simulation parameters.
type Config struct {
	// MaxNumRoutesHonest bounds how many routes are tried per honest
	// event.
	MaxNumRoutesHonest int

	// MaxNumAttemptsPerRouteHonest bounds forwarding attempts per honest
	// route.
	MaxNumAttemptsPerRouteHonest int

	// MaxNumAttemptsPerRouteJamming bounds forwarding attempts per jam
	// route, typically higher than the honest bound.
	MaxNumAttemptsPerRouteJamming int

	// MaxTargetPairsPerRoute bounds how many target pairs a single jam
	// route threads.
	MaxTargetPairsPerRoute int

	// MaxRouteLength caps route length; zero means the protocol default.
	MaxRouteLength int

	// NoBalanceFailures disables the probabilistic balance failures of
	// honest payments. Jams never fail on balance.
	NoBalanceFailures bool

	// DustLimit rejects payments below it on any layer when positive.
	DustLimit int64

	// JamDelay is the pause between jamming batches.
	JamDelay float64

	// Logger receives progress output; nil means silent.
	Logger Logger

	// Rand is the source of all randomized choices. Fixing its seed makes
	// a run reproducible.
	Rand *rand.Rand
}

// Stats counts payment outcomes of one run. Every forwarding attempt
// counts as sent.
type Stats struct {
	NumSent            int
	NumFailed          int
	NumReachedReceiver int
}

// Result is the output of a single run.
type Result struct {
	Stats    Stats
	Revenues map[jdb.NodeID]float64
}

// Simulator executes a schedule of events against a network model. One
// simulator owns its model's mutable state for exactly one run at a time.
type Simulator struct {
	graph  *jdb.Graph
	cfg    *Config
	logger Logger
	rng    *rand.Rand

	// targets are the channel directions the attacker wants to occupy,
	// used only for jam events.
	targets []jdb.NodePair
}

// New creates a simulator over the given network model.
func New(graph *jdb.Graph, config *Config) *Simulator {
	logger := config.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	rng := config.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}

	return &Simulator{
		graph:  graph,
		cfg:    config,
		logger: logger,
		rng:    rng,
	}
}

// SetTargets sets the attacker's target hops for jam events.
func (s *Simulator) SetTargets(targets []jdb.NodePair) {
	s.targets = targets
}

// ExecuteSchedule runs the event loop until the schedule empties or the
// next event falls past the end time, then drains all remaining in-flight
// HTLCs. The model's queues and ledger reflect the completed run; the
// caller resets them between runs.
func (s *Simulator) ExecuteSchedule(schedule *Schedule) Stats {
	var stats Stats

	for {
		now, event, ok := schedule.PopEarliest()
		if !ok {
			break
		}
		if now > schedule.EndTime() {
			s.logger.Debugf("Reached simulation end time %v, now is %v",
				schedule.EndTime(), now)
			break
		}

		if event.DesiredResult {
			s.executeHonestEvent(now, event, &stats)
		} else {
			s.executeJamEvent(now, event, schedule, &stats)
		}
	}

	s.logger.Infof("Schedule executed: %v sent, %v failed, %v reached receiver",
		stats.NumSent, stats.NumFailed, stats.NumReachedReceiver)

	s.drain()

	return stats
}

// Run executes a schedule and returns the run's stats and revenues.
func (s *Simulator) Run(schedule *Schedule) *Result {
	stats := s.ExecuteSchedule(schedule)
	return &Result{
		Stats:    stats,
		Revenues: s.graph.Revenues(),
	}
}

// executeHonestEvent tries routes in order, retrying each on balance
// failures and replacing it when it's jammed. The first successful forward
// ends the event.
func (s *Simulator) executeHonestEvent(now float64, event Event, stats *Stats) {
	router := NewRouter(s.graph, float64(event.Amount), s.cfg.MaxRouteLength)
	routes := router.Routes(event.Sender, event.Receiver, event.MustRouteVia)

	for numRoutes := 0; numRoutes < s.cfg.MaxNumRoutesHonest; numRoutes++ {
		route, ok := routes.Next()
		if !ok {
			if numRoutes == 0 {
				s.logger.Debugf("Could not send from %v to %v: %v",
					event.Sender, event.Receiver, jdb.NoRouteError)
			}
			return
		}

		payment, err := NewPayment(s.graph, route, float64(event.Amount),
			event.ProcessingDelay, true, s.cfg.DustLimit)
		if err != nil {
			s.logger.Debugf("Could not create payment: %v", err)
			continue
		}

		for attempt := 0; attempt < s.cfg.MaxNumAttemptsPerRouteHonest; attempt++ {
			stats.NumSent++
			err := s.forward(now, payment)
			if err == nil {
				stats.NumReachedReceiver++
				return
			}

			stats.NumFailed++
			if _, jammed := err.(jdb.SlotsJammedError); jammed {
				// Retrying the same route won't free any slots; try
				// another one.
				break
			}
		}
	}
}

// executeJamEvent runs one jamming batch: it pulls routes threading
// yet-unjammed targets and sends jams until every target in the batch is
// jammed or no more routes exist, then reschedules itself one jam delay
// later.
func (s *Simulator) executeJamEvent(now float64, event Event, schedule *Schedule, stats *Stats) {
	if len(s.targets) == 0 {
		s.logger.Warnf("No target hops set, dropping jam event")
		return
	}

	unjammed := make(map[jdb.NodePair]bool, len(s.targets))
	for _, pair := range s.targets {
		unjammed[pair] = true
	}

	router := NewRouter(s.graph, float64(event.Amount), s.cfg.MaxRouteLength)
	routes := router.JamRoutes(event.Sender, event.Receiver, s.targets,
		func(pair jdb.NodePair) bool { return unjammed[pair] },
		s.cfg.MaxTargetPairsPerRoute)

	for len(unjammed) > 0 {
		route, ok := routes.Next()
		if !ok {
			s.logger.Debugf("Ran out of jam routes at time %v with %v targets not jammed",
				now, len(unjammed))
			break
		}

		payment, err := NewPayment(s.graph, route, float64(event.Amount),
			event.ProcessingDelay, false, s.cfg.DustLimit)
		if err != nil {
			s.logger.Debugf("Could not create jam payment: %v", err)
			continue
		}

		for attempt := 0; attempt < s.cfg.MaxNumAttemptsPerRouteJamming; attempt++ {
			stats.NumSent++
			err := s.forward(now, payment)
			if err == nil {
				// The jam sits in the slots it occupied until it
				// resolves; keep pushing through the same route.
				stats.NumReachedReceiver++
				continue
			}

			stats.NumFailed++
			jam, ok := err.(jdb.SlotsJammedError)
			if !ok {
				break
			}

			pair := jdb.NodePair{From: jam.From, To: jam.To}
			if unjammed[pair] {
				s.logger.Debugf("Jammed target hop %v-%v at time %v", jam.From, jam.To, now)
				delete(unjammed, pair)
			} else if jam.From == event.Sender || jam.To == event.Receiver {
				s.logger.Warnf("Jammer's own slots depleted between %v and %v",
					jam.From, jam.To)
			}
			break
		}
	}

	nextBatch := now + s.cfg.JamDelay
	if nextBatch <= schedule.EndTime() {
		schedule.Push(nextBatch, event)
	}
}

// forward drives a payment hop by hop. Unconditional fees are paid on
// entry into each hop regardless of the eventual outcome; an HTLC is
// inserted per committed hop. Hops beyond a failure point stay untouched.
func (s *Simulator) forward(now float64, payment *Payment) error {
	upstream := payment.Sender

	for i := range payment.Hops {
		hop := &payment.Hops[i]
		downstream := hop.Downstream
		direction := jdb.DirectionBetween(upstream, downstream)

		channel := s.graph.Hop(upstream, downstream).Channel(hop.ChanID)
		state := channel.Direction(direction)

		if hop.UpfrontFee != 0 {
			s.graph.AddUpfrontRevenue(upstream, -hop.UpfrontFee)
			s.graph.AddUpfrontRevenue(downstream, hop.UpfrontFee)
		}

		if payment.DesiredResult && !s.cfg.NoBalanceFailures {
			// The channel must accommodate the amount plus the upfront
			// fee; the failure probability grows with how much of the
			// capacity that takes.
			probLowBalance := (hop.Amount + hop.UpfrontFee) / float64(channel.Capacity)
			if s.rng.Float64() < probLowBalance {
				return jdb.BalanceFailureError{AtHop: i, From: upstream, To: downstream}
			}
		}

		if !state.HasFreeSlot() {
			earliest, _ := state.PeekEarliest()
			if earliest.ResolutionTime > now {
				return jdb.SlotsJammedError{AtHop: i, From: upstream, To: downstream}
			}
			outdated, _ := state.PopEarliest()
			s.resolveHtlc(outdated)
		}

		err := state.TryInsert(jdb.Htlc{
			ResolutionTime: now + payment.ProcessingDelay,
			DesiredResult:  payment.DesiredResult,
			SuccessFee:     hop.SuccessFee,
			Upstream:       upstream,
			Downstream:     downstream,
		})
		if err != nil {
			return err
		}

		upstream = downstream
	}

	return nil
}

// resolveHtlc applies an HTLC's fee effect: the success fee moves from the
// upstream to the downstream node only if the desired result is true. A
// jam resolves with no transfer.
func (s *Simulator) resolveHtlc(htlc jdb.Htlc) {
	if !htlc.DesiredResult {
		return
	}
	s.graph.AddSuccessRevenue(htlc.Upstream, -htlc.SuccessFee)
	s.graph.AddSuccessRevenue(htlc.Downstream, htlc.SuccessFee)
}

// drain resolves every HTLC still in flight at the end of a run, realizing
// the lazily deferred resolutions.
func (s *Simulator) drain() {
	s.graph.ForEachChannelDirection(func(_, _ jdb.NodeID, _ jdb.ChanID, state *jdb.ChannelDirection) {
		for {
			htlc, ok := state.PopEarliest()
			if !ok {
				break
			}
			s.resolveHtlc(htlc)
		}
	})
}
