package main

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/go-errors/errors"
	"github.com/jessevdk/go-flags"
)

const (
	// Per-channel-direction slot budget, per BOLT 2's max_accepted_htlcs.
	defaultNumSlots = 483

	// Payments below the dust limit are trimmed from the commitment
	// transaction, which makes it the natural jam amount.
	defaultDustLimit = 354

	defaultHonestPaymentsPerSecond      = 0.1
	defaultMinProcessingDelay           = 1.0
	defaultExpectedExtraProcessingDelay = 3.0

	// One minimal plus two expected extra processing delays: a jam batch
	// waits until its HTLCs are surely resolvable.
	defaultJamDelay = defaultMinProcessingDelay + 2*defaultExpectedExtraProcessingDelay

	defaultSuccessBaseFee = 1.0
	defaultSuccessFeeRate = 5.0 / 1000000
)

type lndNodeConfig struct {
	RpcServer    string `long:"rpcserver" description:"host:port of ln daemon"`
	MacaroonPath string `long:"macaroonpath" description:"path to macaroon file"`
	TlsCertPath  string `long:"tlscertpath" description:"path to TLS certificate"`
}

type config struct {
	ShowVersion bool `short:"v" long:"version" description:"Display version information and exit."`
	Debug       bool `long:"debug" description:"Start in debug mode."`

	Snapshot string `long:"snapshot" description:"Path to a channel graph snapshot file (listchannels scheme)."`
	Source   string `long:"source" description:"Where the channel graph comes from." choice:"snapshot" choice:"lnd"`

	TargetNode string   `long:"targetnode" description:"The node whose adjacent hops the attacker jams."`
	TargetHops []string `long:"targethop" description:"An explicit target hop as from/to. May be given multiple times."`

	HonestSenders   []string `long:"honestsender" description:"A candidate sender of honest payments. May be given multiple times."`
	HonestReceivers []string `long:"honestreceiver" description:"A candidate receiver of honest payments. May be given multiple times."`

	Duration float64 `long:"duration" description:"Simulated duration of every run in seconds."`
	NumRuns  int     `long:"numruns" description:"Number of runs to average per parameter combination."`
	Seed     int64   `long:"seed" description:"Seed of all randomized choices."`

	UpfrontBaseCoeffs []float64 `long:"upfrontbasecoeff" description:"A base coefficient of the unconditional fee grid. May be given multiple times."`
	UpfrontRateCoeffs []float64 `long:"upfrontratecoeff" description:"A rate coefficient of the unconditional fee grid. May be given multiple times."`

	NumSlots  int   `long:"numslots" description:"Slot budget per channel direction."`
	DustLimit int64 `long:"dustlimit" description:"Minimum payment amount; also the jam amount."`

	SuccessBaseFee    float64 `long:"successbasefee" description:"Success-case base fee set on all channels (satoshis)."`
	SuccessFeeRate    float64 `long:"successfeerate" description:"Success-case fee rate set on all channels (proportion)."`
	KeepSnapshotFees  bool    `long:"keepsnapshotfees" description:"Keep the success-case fees of the snapshot instead of setting defaults."`
	NoBalanceFailures bool    `long:"nobalancefailures" description:"Disable probabilistic balance failures of honest payments."`

	HonestPaymentsPerSecond      float64 `long:"honestpaymentspersecond" description:"Rate of the honest payment flow."`
	MinProcessingDelay           float64 `long:"minprocessingdelay" description:"Minimum HTLC processing delay in seconds."`
	ExpectedExtraProcessingDelay float64 `long:"expectedextraprocessingdelay" description:"Expected extra HTLC processing delay in seconds."`
	MinAmount                    int64   `long:"minamount" description:"Minimum honest payment amount."`
	MaxAmount                    int64   `long:"maxamount" description:"Maximum honest payment amount."`

	JamDelay               float64 `long:"jamdelay" description:"Pause between jamming batches in seconds."`
	MaxAttemptsHonest      int     `long:"maxattemptshonest" description:"Forwarding attempts per honest route."`
	MaxAttemptsJamming     int     `long:"maxattemptsjamming" description:"Forwarding attempts per jam route."`
	MaxRoutesHonest        int     `long:"maxrouteshonest" description:"Routes tried per honest payment."`
	MaxTargetPairsPerRoute int     `long:"maxtargetpairsperroute" description:"Target hops a single jam route threads at most."`
	MaxRouteLength         int     `long:"maxroutelength" description:"Maximum route length in nodes."`

	ResultsDir string `long:"resultsdir" description:"Directory result files are written into."`

	LndNode *lndNodeConfig `group:"LND" namespace:"lnd"`
}

func loadConfig() (*config, error) {
	defaultCfg := config{
		Source:                       "snapshot",
		Duration:                     300,
		NumRuns:                      10,
		UpfrontBaseCoeffs:            nil,
		UpfrontRateCoeffs:            nil,
		NumSlots:                     defaultNumSlots,
		DustLimit:                    defaultDustLimit,
		SuccessBaseFee:               defaultSuccessBaseFee,
		SuccessFeeRate:               defaultSuccessFeeRate,
		HonestPaymentsPerSecond:      defaultHonestPaymentsPerSecond,
		MinProcessingDelay:           defaultMinProcessingDelay,
		ExpectedExtraProcessingDelay: defaultExpectedExtraProcessingDelay,
		MinAmount:                    1000,
		MaxAmount:                    100000,
		JamDelay:                     defaultJamDelay,
		MaxAttemptsHonest:            1,
		MaxAttemptsJamming:           483,
		MaxRoutesHonest:              10,
		MaxTargetPairsPerRoute:       5,
		MaxRouteLength:               20,
		ResultsDir:                   "results",
		LndNode: &lndNodeConfig{
			RpcServer:    "localhost:10009",
			MacaroonPath: "admin.macaroon",
			TlsCertPath:  "tls.cert",
		},
	}

	preCfg := defaultCfg

	if _, err := flags.Parse(&preCfg); err != nil {
		return nil, err
	}

	cfg := preCfg

	cfg.Snapshot = cleanAndExpandPath(cfg.Snapshot)
	cfg.ResultsDir = cleanAndExpandPath(cfg.ResultsDir)
	cfg.LndNode.MacaroonPath = cleanAndExpandPath(cfg.LndNode.MacaroonPath)
	cfg.LndNode.TlsCertPath = cleanAndExpandPath(cfg.LndNode.TlsCertPath)

	if cfg.Source == "snapshot" && cfg.Snapshot == "" && !cfg.ShowVersion {
		return nil, errors.Errorf("No snapshot file given")
	}

	// A grid without coefficients still runs the zero cell, which is the
	// today's-protocol baseline.
	if len(cfg.UpfrontBaseCoeffs) == 0 {
		cfg.UpfrontBaseCoeffs = []float64{0}
	}
	if len(cfg.UpfrontRateCoeffs) == 0 {
		cfg.UpfrontRateCoeffs = []float64{0}
	}

	return &cfg, nil
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
// This function is taken from https://github.com/btcsuite/btcd
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		user, err := user.Current()
		if err == nil {
			homeDir = user.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
