package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-errors/errors"
	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
	"github.com/the-lightning-land/jammed/experiment"
	"github.com/the-lightning-land/jammed/jdb"
	"github.com/the-lightning-land/jammed/lndc"
	"github.com/the-lightning-land/jammed/simulator"
	"github.com/the-lightning-land/jammed/snapshot"
)

var (
	// Commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	commit string
	// Version stores the version string of this build. This should be set using -ldflags during compilation.
	version string
	// Stores the date of this build. This should be set using -ldflags during compilation.
	date string
)

// jammedMain is the true entry point for jammed. This is required since defers
// created in the top-level scope of a main method aren't executed if os.Exit() is called.
func jammedMain() error {
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.ShowVersion {
		fmt.Printf("version=%s commit=%s date=%s\n", version, commit, date)
		return nil
	}

	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	log.Infof("Version %s (commit %s)", version, commit)
	log.Infof("Built on %s", date)

	snap, err := loadSnapshot(cfg)
	if err != nil {
		return errors.Errorf("Could not load channel graph: %v", err)
	}

	log.Infof("Loaded %v channel entries", len(snap.Channels))

	graph, err := snap.Graph(cfg.NumSlots)
	if err != nil {
		return errors.Errorf("Could not build network model: %v", err)
	}

	if !cfg.KeepSnapshotFees {
		graph.SetSuccessFees(cfg.SuccessBaseFee, cfg.SuccessFeeRate)
	}

	targetHops, err := parseTargetHops(cfg.TargetHops)
	if err != nil {
		return err
	}

	exp, err := experiment.New(&experiment.Config{
		Graph:                        graph,
		TargetNode:                   jdb.NodeID(cfg.TargetNode),
		TargetHops:                   targetHops,
		HonestSenders:                nodeIDs(cfg.HonestSenders),
		HonestReceivers:              nodeIDs(cfg.HonestReceivers),
		Duration:                     cfg.Duration,
		NumRuns:                      cfg.NumRuns,
		UpfrontBaseCoeffs:            cfg.UpfrontBaseCoeffs,
		UpfrontRateCoeffs:            cfg.UpfrontRateCoeffs,
		NormalizeForDuration:         true,
		HonestPaymentsPerSecond:      cfg.HonestPaymentsPerSecond,
		MinProcessingDelay:           cfg.MinProcessingDelay,
		ExpectedExtraProcessingDelay: cfg.ExpectedExtraProcessingDelay,
		MinAmount:                    cfg.MinAmount,
		MaxAmount:                    cfg.MaxAmount,
		DustLimit:                    cfg.DustLimit,
		JamDelay:                     cfg.JamDelay,
		Seed:                         cfg.Seed,
		Logger:                       log.StandardLogger(),
		Simulator: &simulator.Config{
			MaxNumRoutesHonest:            cfg.MaxRoutesHonest,
			MaxNumAttemptsPerRouteHonest:  cfg.MaxAttemptsHonest,
			MaxNumAttemptsPerRouteJamming: cfg.MaxAttemptsJamming,
			MaxTargetPairsPerRoute:        cfg.MaxTargetPairsPerRoute,
			MaxRouteLength:                cfg.MaxRouteLength,
			NoBalanceFailures:             cfg.NoBalanceFailures,
		},
	})
	if err != nil {
		return errors.Errorf("Could not set up experiment: %v", err)
	}

	log.Infof("Jamming %v target hops", len(exp.Targets()))

	results, err := exp.Run()
	if err != nil {
		return errors.Errorf("Could not run experiment: %v", err)
	}

	if err := os.MkdirAll(cfg.ResultsDir, 0755); err != nil {
		return errors.Errorf("Could not create results directory: %v", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	jsonPath := filepath.Join(cfg.ResultsDir, timestamp+"-results.json")
	csvPath := filepath.Join(cfg.ResultsDir, timestamp+"-results.csv")

	if err := results.WriteJSON(jsonPath); err != nil {
		return err
	}
	if err := results.WriteCSV(csvPath); err != nil {
		return err
	}

	log.Infof("Results written to %v and %v", jsonPath, csvPath)

	return nil
}

func loadSnapshot(cfg *config) (*snapshot.Snapshot, error) {
	if cfg.Source == "lnd" {
		client, err := lndc.NewClient(&lndc.Config{
			RpcServer:    cfg.LndNode.RpcServer,
			MacaroonPath: cfg.LndNode.MacaroonPath,
			TlsCertPath:  cfg.LndNode.TlsCertPath,
		})
		if err != nil {
			return nil, err
		}

		return client.Snapshot()
	}

	return snapshot.Load(cfg.Snapshot)
}

// parseTargetHops parses from/to node pairs.
func parseTargetHops(raw []string) ([]jdb.NodePair, error) {
	var pairs []jdb.NodePair
	for _, s := range raw {
		parts := strings.Split(s, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, errors.Errorf("Could not parse target hop %v, expected from/to", s)
		}
		pairs = append(pairs, jdb.NodePair{
			From: jdb.NodeID(parts[0]),
			To:   jdb.NodeID(parts[1]),
		})
	}
	return pairs, nil
}

func nodeIDs(names []string) []jdb.NodeID {
	ids := make([]jdb.NodeID, len(names))
	for i, name := range names {
		ids[i] = jdb.NodeID(name)
	}
	return ids
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := jammedMain(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			log.WithError(err).Println("Failed running jammed.")
		}
		os.Exit(1)
	}
}
