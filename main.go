// Command deepq runs an online deep Q-network experiment described by a
// JSON configuration file.
//
// Usage:
//
//	deepq -config experiment.json [-index 0] [-seed 1] [-returns out.bin]
//		[-plot out.html] [-checkpoint policy] [-every 10000] [-v]
//
// Running with -default writes a default Cartpole configuration to the
// -config path and exits.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/logrusorgru/aurora"
	"github.com/pkg/errors"
	"github.com/samuelfneumann/deepq/agent"
	"github.com/samuelfneumann/deepq/agent/nonlinear/discrete/deepq"
	"github.com/samuelfneumann/deepq/environment/envconfig"
	"github.com/samuelfneumann/deepq/experiment"
	"github.com/samuelfneumann/deepq/experiment/checkpointer"
	"github.com/samuelfneumann/deepq/experiment/plot"
	"github.com/samuelfneumann/deepq/experiment/tracker"
	"github.com/samuelfneumann/deepq/utils/floatutils"
	"github.com/samuelfneumann/deepq/utils/progressbar"
)

func main() {
	configFile := flag.String("config", "", "path to the JSON experiment "+
		"configuration")
	index := flag.Int("index", 0, "index of the agent configuration to run")
	seed := flag.Uint64("seed", 1, "seed of the environment and agent")
	returns := flag.String("returns", "returns.bin", "path to save the "+
		"episodic returns to")
	plotFile := flag.String("plot", "", "path to save an HTML learning "+
		"curve to")
	checkpoint := flag.String("checkpoint", "", "filename prefix of policy "+
		"checkpoints, checkpointing is disabled if empty")
	every := flag.Int("every", 10_000, "number of timesteps between "+
		"checkpoints")
	writeDefault := flag.Bool("default", false, "write a default "+
		"configuration to the -config path and exit")
	verbose := flag.Bool("v", false, "log at debug level")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	deepq.SetLogger(logger)
	experiment.SetLogger(logger)

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, aurora.Red("a -config file is required"))
		flag.Usage()
		os.Exit(2)
	}

	if *writeDefault {
		if err := saveDefault(*configFile); err != nil {
			logger.Error("could not write default configuration", "err", err)
			os.Exit(1)
		}
		logger.Info("wrote default configuration", "path", *configFile)
		return
	}

	opts := runOpts{
		index:      *index,
		seed:       *seed,
		returns:    *returns,
		plot:       *plotFile,
		checkpoint: *checkpoint,
		every:      *every,
	}
	data, err := run(*configFile, opts)
	if err != nil {
		logger.Error("experiment failed", "err", err)
		os.Exit(1)
	}

	summarize(data)
}

// runOpts are the command line options of a single run
type runOpts struct {
	index      int
	seed       uint64
	returns    string
	plot       string
	checkpoint string
	every      int
}

// run runs the experiment configured in configFile and returns the
// episodic returns
func run(configFile string, opts runOpts) ([]float64, error) {
	config, err := loadConfig(configFile)
	if err != nil {
		return nil, err
	}

	ret := tracker.NewReturn(opts.returns)
	exp, a, err := config.CreateExp(opts.index, opts.seed,
		[]tracker.Tracker{ret}, nil)
	if err != nil {
		return nil, err
	}
	if closer, ok := a.(agent.Closer); ok {
		defer closer.Close()
	}

	online, ok := exp.(*experiment.Online)
	if ok {
		online.SetProgressBar(progressbar.NewManualProgressBarTo(os.Stderr,
			40, int(config.MaxSteps)))
	}

	if opts.checkpoint != "" && ok {
		d, isDeepQ := a.(*deepq.DeepQ)
		if !isDeepQ {
			return nil, errors.Errorf("run: cannot checkpoint agent %T", a)
		}
		names, runID := checkpointer.RunEnumerator(opts.checkpoint, ".bin")
		check, err := checkpointer.NewNStep(opts.every, d.Policy(), names)
		if err != nil {
			return nil, errors.WithMessage(err, "run")
		}
		online.RegisterCheckpointer(check)
		slog.Info("checkpointing policy", "run", runID, "every", opts.every)
	}

	if err := exp.Run(); err != nil {
		return nil, err
	}
	if err := exp.Save(); err != nil {
		return nil, err
	}

	if opts.plot != "" && len(ret.Data()) == 0 {
		slog.Warn("no episodes finished, skipping plot", "path", opts.plot)
	} else if opts.plot != "" {
		series := plot.Series{Name: string(config.AgentConf.Type),
			Data: ret.Data()}
		if err := plot.Save(opts.plot, plot.DefaultConfig(),
			series); err != nil {
			return nil, errors.WithMessage(err, "run")
		}
	}

	return ret.Data(), nil
}

// loadConfig reads an experiment configuration from a JSON file
func loadConfig(filename string) (experiment.Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return experiment.Config{}, errors.Wrap(err, "loadConfig")
	}

	var config experiment.Config
	if err := json.Unmarshal(data, &config); err != nil {
		return experiment.Config{}, errors.Wrapf(err, "loadConfig: could "+
			"not decode %v", filename)
	}
	return config, nil
}

// defaultConfig returns an experiment running the default DQN agent on
// Cartpole
func defaultConfig() (experiment.Config, error) {
	agentConf, err := deepq.DefaultConfig()
	if err != nil {
		return experiment.Config{}, errors.WithMessage(err, "defaultConfig")
	}

	return experiment.Config{
		Type:      experiment.OnlineExp,
		MaxSteps:  100_000,
		EnvConf:   envconfig.NewConfig(envconfig.Cartpole, envconfig.Balance, 500),
		AgentConf: deepq.NewConfigList(deepq.NewConfigListFrom(agentConf)),
	}, nil
}

// saveDefault writes the default experiment configuration to filename
func saveDefault(filename string) error {
	config, err := defaultConfig()
	if err != nil {
		return err
	}
	return errors.WithMessage(writeConfig(filename, config), "saveDefault")
}

// writeConfig writes an experiment configuration to a JSON file
func writeConfig(filename string, config experiment.Config) error {
	data, err := json.MarshalIndent(config, "", "\t")
	if err != nil {
		return errors.Wrap(err, "writeConfig: could not encode configuration")
	}
	return errors.Wrap(os.WriteFile(filename, data, 0o644), "writeConfig")
}

// summarize prints a coloured summary of the episodic returns
func summarize(returns []float64) {
	if len(returns) == 0 {
		fmt.Println(aurora.Yellow("no episodes finished"))
		return
	}

	last := len(returns) - 10
	if last < 0 {
		last = 0
	}
	best, _ := floatutils.MaxSlice(returns)

	fmt.Printf("%v %v\n", aurora.Bold("episodes:"), len(returns))
	fmt.Printf("%v %v\n", aurora.Bold("mean return:"),
		aurora.Blue(fmt.Sprintf("%.2f", floatutils.Mean(returns...))))
	fmt.Printf("%v %v\n", aurora.Bold("final mean return:"),
		aurora.Green(fmt.Sprintf("%.2f", floatutils.Mean(returns[last:]...))))
	fmt.Printf("%v %v\n", aurora.Bold("best return:"),
		aurora.Green(fmt.Sprintf("%.2f", best)))
}
