package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kestrel-sim/dramcore/internal/config"
	"github.com/kestrel-sim/dramcore/internal/ctrl"
	"github.com/kestrel-sim/dramcore/internal/logging"
	"github.com/kestrel-sim/dramcore/internal/uapi"

	dramsim "github.com/kestrel-sim/dramcore"
)

func main() {
	var (
		traceFile  = flag.String("trace", "", "Path to a trace file (one \"<T> <addr>\" line per request)")
		configFile = flag.String("config", "", "Path to a YAML overrides file naming organization/timing presets")
		orgName    = flag.String("organization", "DDR4_8Gb_x8", "Organization preset name (ignored if -config is set)")
		timingName = flag.String("timing", "DDR4_3200W", "Timing preset name (ignored if -config is set)")
		channels   = flag.Int("channels", 1, "Number of independent channels to simulate")
		closedPage = flag.Bool("closed-page", false, "Use closed-page row policy instead of open-page")
		maxCycles  = flag.Int64("max-cycles", 10_000_000, "Abort if the trace hasn't drained after this many cycles (0 = unbounded)")
		verbose    = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logging.SetDefault(logging.NewLogger(logConfig))
	logger := logging.Default()

	if *traceFile == "" {
		logger.Error("missing required -trace flag")
		os.Exit(1)
	}

	opts, err := buildOptions(*configFile, *orgName, *timingName, *channels, *closedPage)
	if err != nil {
		logger.Error("failed to resolve configuration", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	opts.Observer = dramsim.NewPrometheusObserver(registry)

	sim, err := dramsim.NewSimulator(opts)
	if err != nil {
		logger.Error("failed to build simulator", "error", err)
		os.Exit(1)
	}

	f, err := os.Open(*traceFile)
	if err != nil {
		logger.Error("failed to open trace", "path", *traceFile, "error", err)
		os.Exit(1)
	}
	defer f.Close()

	trace, err := uapi.LoadTrace(f)
	if err != nil {
		logger.Error("failed to parse trace", "error", err)
		os.Exit(1)
	}

	logger.Info("running simulation", "organization", *orgName, "timing", *timingName, "channels", *channels)
	if err := sim.Run(trace, *maxCycles); err != nil {
		logger.Error("simulation aborted", "error", err)
		os.Exit(1)
	}

	snap := sim.Metrics().Finalize()
	fmt.Printf("avg queue depth: %.2f\n", snap.AvgQueueDepth)
	fmt.Printf("avg read latency: %.2f ns\n", snap.AvgReadLatencyNs)
	for _, r := range snap.Ranks {
		fmt.Printf("rank %d: active=%d idle=%d background=%.2f nJ cmd=%.2f nJ total=%.2f nJ\n",
			r.Rank, r.ActiveCycles, r.IdleCycles, r.TotalBackgroundNj, r.TotalCmdEnergyNj, r.TotalEnergyNj)
	}
}

// buildOptions resolves -config (if given) or the -organization/-timing
// preset pair into dramsim.Options.
func buildOptions(configFile, orgName, timingName string, channels int, closedPage bool) (dramsim.Options, error) {
	if configFile != "" {
		f, err := os.Open(configFile)
		if err != nil {
			return dramsim.Options{}, err
		}
		defer f.Close()

		overrides, err := config.LoadOverrides(f)
		if err != nil {
			return dramsim.Options{}, err
		}
		org, timing, err := overrides.Resolve()
		if err != nil {
			return dramsim.Options{}, err
		}

		n := overrides.NumChannels
		if n == 0 {
			n = channels
		}
		return dramsim.Options{
			Organization:     org,
			Timing:           timing,
			NumChannels:      n,
			ControllerConfig: controllerConfigFrom(overrides),
			RowPolicyClosed:  overrides.RowPolicy == "closed",
		}, nil
	}

	org, ok := config.OrganizationPresets[orgName]
	if !ok {
		return dramsim.Options{}, fmt.Errorf("unknown organization preset: %s", orgName)
	}
	timing, ok := config.TimingPresets[timingName]
	if !ok {
		return dramsim.Options{}, fmt.Errorf("unknown timing preset: %s", timingName)
	}
	return dramsim.Options{
		Organization:    org,
		Timing:          timing,
		NumChannels:     channels,
		RowPolicyClosed: closedPage,
	}, nil
}

// controllerConfigFrom builds a ctrl.Config from any non-zero fields in
// overrides.Controller, falling back to ctrl.DefaultConfig() for the rest.
func controllerConfigFrom(overrides config.Overrides) ctrl.Config {
	cfg := ctrl.DefaultConfig()
	oc := overrides.Controller
	if oc.ActiveBufferSize != 0 {
		cfg.ActiveBufferSize = oc.ActiveBufferSize
	}
	if oc.PriorityBufferSize != 0 {
		cfg.PriorityBufferSize = oc.PriorityBufferSize
	}
	if oc.ReadBufferSize != 0 {
		cfg.ReadBufferSize = oc.ReadBufferSize
	}
	if oc.WriteBufferSize != 0 {
		cfg.WriteBufferSize = oc.WriteBufferSize
	}
	if oc.RCThreshold != 0 {
		cfg.RCThreshold = oc.RCThreshold
	}
	if oc.MAJThreshold != 0 {
		cfg.MAJThreshold = oc.MAJThreshold
	}
	if oc.WriteLowWatermark != 0 {
		cfg.WriteLowWatermark = oc.WriteLowWatermark
	}
	if oc.WriteHighWatermark != 0 {
		cfg.WriteHighWatermark = oc.WriteHighWatermark
	}
	return cfg
}
