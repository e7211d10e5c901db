// Package experiment sweeps simulations over a grid of unconditional-fee
// coefficients, averages the results over multiple runs, and writes them
// to result files.
package experiment

import (
	"math/rand"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/jammed/jdb"
	"github.com/the-lightning-land/jammed/simulator"
)

const (
	// JammerSender and JammerReceiver are the attacker's own nodes, wired
	// into the topology against the target hops.
	JammerSender   = jdb.NodeID("JammerSender")
	JammerReceiver = jdb.NodeID("JammerReceiver")

	// jammerChannelCapacity is large enough to never constrain a jam.
	jammerChannelCapacity = 100000000
)

// Config parameterizes an experiment.
type Config struct {
	// Graph is the network model the experiment runs against. The
	// experiment adds the jammer's channels to it.
	Graph *jdb.Graph

	// TargetNode marks a victim: its in- and out-edges become target hops
	// unless TargetHops is set explicitly.
	TargetNode jdb.NodeID

	// TargetHops are the channel directions the attacker jams.
	TargetHops []jdb.NodePair

	// HonestSenders and HonestReceivers are the candidate sets of the
	// honest payment flow. If empty, they default to the neighbors on the
	// target node's in- and out-edges.
	HonestSenders   []jdb.NodeID
	HonestReceivers []jdb.NodeID

	HonestMustRouteVia []jdb.NodeID

	// Duration is the simulated end time of every run.
	Duration float64

	// NumRuns is how many runs are averaged per grid cell.
	NumRuns int

	// UpfrontBaseCoeffs and UpfrontRateCoeffs span the grid. Each cell
	// derives the unconditional-fee coefficients of every channel
	// direction from its success-case ones.
	UpfrontBaseCoeffs []float64
	UpfrontRateCoeffs []float64

	// NormalizeForDuration divides averaged stats and revenues by the
	// duration, making different durations comparable.
	NormalizeForDuration bool

	// Honest payment flow parameters.
	HonestPaymentsPerSecond      float64
	MinProcessingDelay           float64
	ExpectedExtraProcessingDelay float64
	MinAmount                    int64
	MaxAmount                    int64

	// Jamming flow parameters.
	DustLimit int64
	JamDelay  float64

	// Simulator carries the forwarding engine parameters.
	Simulator *simulator.Config

	// Seed fixes all randomized choices of the experiment.
	Seed int64

	Logger simulator.Logger
}

// Experiment runs honest and jamming simulation series over the fee grid.
type Experiment struct {
	cfg     *Config
	graph   *jdb.Graph
	targets []jdb.NodePair
	logger  simulator.Logger
	rng     *rand.Rand

	honestSenders   []jdb.NodeID
	honestReceivers []jdb.NodeID
}

// New prepares an experiment: it derives the target hops and honest
// candidate sets, and wires the jammer's channels into the model.
func New(config *Config) (*Experiment, error) {
	logger := config.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	e := &Experiment{
		cfg:    config,
		graph:  config.Graph,
		logger: logger,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}

	if err := e.resolveTargets(); err != nil {
		return nil, err
	}
	if err := e.resolveHonestFlow(); err != nil {
		return nil, err
	}

	sendTo := make([]jdb.NodeID, len(e.targets))
	receiveFrom := make([]jdb.NodeID, len(e.targets))
	for i, pair := range e.targets {
		sendTo[i] = pair.From
		receiveFrom[i] = pair.To
	}

	// The jammer must never run out of slots on its own channels before
	// the targets do.
	jammerNumSlots := len(e.targets) * (e.graph.DefaultNumSlots() + 1)
	err := e.graph.AddJammerChannels(JammerSender, sendTo, JammerReceiver,
		receiveFrom, jammerNumSlots, jammerChannelCapacity)
	if err != nil {
		return nil, errors.Errorf("Could not add jammer channels: %v", err)
	}

	return e, nil
}

func (e *Experiment) resolveTargets() error {
	if len(e.cfg.TargetHops) > 0 {
		e.targets = e.cfg.TargetHops
		return nil
	}

	if e.cfg.TargetNode == "" {
		return errors.Errorf("Neither target hops nor a target node are specified")
	}
	if !e.graph.HasNode(e.cfg.TargetNode) {
		return errors.Errorf("Target node %v is not in the graph", e.cfg.TargetNode)
	}

	for _, edge := range e.graph.InEdges(e.cfg.TargetNode) {
		e.targets = append(e.targets, jdb.NodePair{From: edge.From, To: edge.To})
	}
	for _, edge := range e.graph.OutEdges(e.cfg.TargetNode) {
		e.targets = append(e.targets, jdb.NodePair{From: edge.From, To: edge.To})
	}
	if len(e.targets) == 0 {
		return errors.Errorf("Target node %v has no edges to jam", e.cfg.TargetNode)
	}

	e.logger.Infof("Set %v target hops around node %v", len(e.targets), e.cfg.TargetNode)
	return nil
}

func (e *Experiment) resolveHonestFlow() error {
	e.honestSenders = e.cfg.HonestSenders
	e.honestReceivers = e.cfg.HonestReceivers
	if len(e.honestSenders) > 0 && len(e.honestReceivers) > 0 {
		return nil
	}

	if e.cfg.TargetNode == "" {
		return errors.Errorf("Honest senders and receivers are not specified, and there is no target node to derive them from")
	}

	if len(e.honestSenders) == 0 {
		seenFrom := make(map[jdb.NodeID]bool)
		for _, edge := range e.graph.InEdges(e.cfg.TargetNode) {
			if !seenFrom[edge.From] {
				seenFrom[edge.From] = true
				e.honestSenders = append(e.honestSenders, edge.From)
			}
		}
	}
	if len(e.honestReceivers) == 0 {
		seenTo := make(map[jdb.NodeID]bool)
		for _, edge := range e.graph.OutEdges(e.cfg.TargetNode) {
			if !seenTo[edge.To] {
				seenTo[edge.To] = true
				e.honestReceivers = append(e.honestReceivers, edge.To)
			}
		}
	}

	if len(e.honestSenders) == 0 || len(e.honestReceivers) == 0 {
		return errors.Errorf("Target node %v has no incoming or outgoing edges to derive an honest flow from", e.cfg.TargetNode)
	}

	e.logger.Infof("Derived %v honest senders and %v honest receivers from target node %v",
		len(e.honestSenders), len(e.honestReceivers), e.cfg.TargetNode)
	return nil
}

// Targets returns the resolved target hops.
func (e *Experiment) Targets() []jdb.NodePair {
	return e.targets
}

// Run sweeps the fee grid, running a jamming and an honest simulation
// series, and returns the aggregated results.
func (e *Experiment) Run() (*Results, error) {
	results := &Results{
		Params: Params{
			TargetNode:           e.cfg.TargetNode,
			NumTargetHops:        len(e.targets),
			Duration:             e.cfg.Duration,
			NumRuns:              e.cfg.NumRuns,
			NormalizedForDuration: e.cfg.NormalizeForDuration,
			DustLimit:            e.cfg.DustLimit,
			JamDelay:             e.cfg.JamDelay,
		},
	}

	for _, baseCoeff := range e.cfg.UpfrontBaseCoeffs {
		for _, rateCoeff := range e.cfg.UpfrontRateCoeffs {
			e.logger.Infof("Starting simulations with upfront fee coefficients: base %v, rate %v",
				baseCoeff, rateCoeff)
			e.graph.SetUpfrontFeeCoeffs(baseCoeff, rateCoeff)

			jamming, err := e.runSeries(baseCoeff, rateCoeff, e.newJammingSchedule, true)
			if err != nil {
				return nil, err
			}
			results.Jamming = append(results.Jamming, jamming)

			honest, err := e.runSeries(baseCoeff, rateCoeff, e.newHonestSchedule, false)
			if err != nil {
				return nil, err
			}
			results.Honest = append(results.Honest, honest)
		}
	}

	return results, nil
}

func (e *Experiment) newHonestSchedule() *simulator.Schedule {
	return simulator.NewHonestSchedule(&simulator.HonestScheduleConfig{
		EndTime:                      e.cfg.Duration,
		Senders:                      e.honestSenders,
		Receivers:                    e.honestReceivers,
		MinAmount:                    e.cfg.MinAmount,
		MaxAmount:                    e.cfg.MaxAmount,
		PaymentsPerSecond:            e.cfg.HonestPaymentsPerSecond,
		MinProcessingDelay:           e.cfg.MinProcessingDelay,
		ExpectedExtraProcessingDelay: e.cfg.ExpectedExtraProcessingDelay,
		MustRouteVia:                 e.cfg.HonestMustRouteVia,
	}, e.rng)
}

func (e *Experiment) newJammingSchedule() *simulator.Schedule {
	return simulator.NewJammingSchedule(&simulator.JammingScheduleConfig{
		EndTime:   e.cfg.Duration,
		Sender:    JammerSender,
		Receiver:  JammerReceiver,
		JamAmount: e.cfg.DustLimit,
		JamDelay:  e.cfg.JamDelay,
	})
}

// runSeries averages NumRuns runs of one schedule kind in one grid cell.
func (e *Experiment) runSeries(baseCoeff, rateCoeff float64,
	newSchedule func() *simulator.Schedule, jamming bool) (CellResult, error) {

	simConfig := *e.cfg.Simulator
	simConfig.JamDelay = e.cfg.JamDelay
	simConfig.DustLimit = e.cfg.DustLimit
	simConfig.Logger = e.logger
	simConfig.Rand = e.rng

	sum := CellResult{
		UpfrontBaseCoeff: baseCoeff,
		UpfrontRateCoeff: rateCoeff,
		Revenues:         make(map[jdb.NodeID]float64),
	}

	for run := 0; run < e.cfg.NumRuns; run++ {
		e.logger.Debugf("Run %v of %v", run+1, e.cfg.NumRuns)

		sim := simulator.New(e.graph, &simConfig)
		if jamming {
			sim.SetTargets(e.targets)
		}

		// Schedules deplete during execution, so every run draws a fresh
		// one.
		result := sim.Run(newSchedule())

		sum.Stats.NumSent += float64(result.Stats.NumSent)
		sum.Stats.NumFailed += float64(result.Stats.NumFailed)
		sum.Stats.NumReachedReceiver += float64(result.Stats.NumReachedReceiver)
		for node, revenue := range result.Revenues {
			sum.Revenues[node] += revenue
		}

		e.graph.Reset()
	}

	scale := 1 / float64(e.cfg.NumRuns)
	if e.cfg.NormalizeForDuration {
		scale /= e.cfg.Duration
	}

	sum.Stats.NumSent *= scale
	sum.Stats.NumFailed *= scale
	sum.Stats.NumReachedReceiver *= scale
	for node := range sum.Revenues {
		sum.Revenues[node] *= scale
	}

	return sum, nil
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}

func (noopLogger) Infof(format string, args ...interface{}) {}

func (noopLogger) Warnf(format string, args ...interface{}) {}
