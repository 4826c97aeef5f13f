package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/obscuranet/maybenot"
	"github.com/obscuranet/maybenot/simulator"
)

var (
	simulateConfigPath string
	simulateTrace      string
	simulateTracePath  string
	simulateOutputPath string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "run the discrete-event simulator over a base trace and a machine-set config",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simulateConfigPath, "config", "", "path to a machine-set YAML config (required)")
	simulateCmd.Flags().StringVar(&simulateTrace, "trace", "", "inline base trace, e.g. \"0,s 18,s 25,r\"")
	simulateCmd.Flags().StringVar(&simulateTracePath, "trace-file", "", "path to a file containing the base trace")
	simulateCmd.Flags().StringVar(&simulateOutputPath, "output", "", "write the resulting trace here instead of stdout")
	_ = simulateCmd.MarkFlagRequired("config")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := LoadMachineSetConfig(simulateConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid machine-set config: %w", err)
	}

	trace, err := resolveBaseTrace()
	if err != nil {
		return err
	}

	rng := simulator.NewPartitionedRNG(cfg.Seed)
	start := time.Unix(0, 0)

	clientMachines, err := cfg.Client.Build()
	if err != nil {
		return fmt.Errorf("client machines: %w", err)
	}
	serverMachines, err := cfg.Server.Build()
	if err != nil {
		return fmt.Errorf("server machines: %w", err)
	}

	clientFW, err := maybenot.NewFramework(clientMachines, cfg.GlobalMaxPaddingFrac, cfg.GlobalMaxBlockingFrac, start, rng.For(simulator.SubsystemMachines))
	if err != nil {
		return fmt.Errorf("client framework: %w", err)
	}
	serverFW, err := maybenot.NewFramework(serverMachines, cfg.GlobalMaxPaddingFrac, cfg.GlobalMaxBlockingFrac, start, rng.For(simulator.SubsystemMachines))
	if err != nil {
		return fmt.Errorf("server framework: %w", err)
	}

	delay := time.Duration(cfg.NetworkDelayMicros) * time.Microsecond
	queue := simulator.NewSimQueue()
	events, err := simulator.ParseTrace(trace, delay, start)
	if err != nil {
		return fmt.Errorf("parsing base trace: %w", err)
	}
	for _, e := range events {
		queue.Push(e)
	}

	logrus.Infof("simulating: client_machines=%d server_machines=%d network_delay=%s mtu=%d max_trace_length=%d",
		len(clientMachines), len(serverMachines), delay, cfg.MTU, cfg.MaxTraceLength)

	sim := simulator.NewSimulator(queue, clientFW, serverFW, delay, cfg.MTU, cfg.MaxTraceLength)
	result, err := sim.Run()
	if err != nil {
		return fmt.Errorf("running simulation: %w", err)
	}

	logrus.Infof("done: events=%d padding_bytes=%d nonpadding_bytes=%d padding_fraction=%.4f simulated_duration=%s",
		sim.Metrics.EventsProcessed, sim.Metrics.TotalPaddingBytes, sim.Metrics.TotalNonPaddingBytes,
		sim.Metrics.PaddingFraction(), sim.Metrics.SimulatedDuration)

	out := simulator.WriteTrace(result, start)
	if simulateOutputPath == "" {
		fmt.Println(out)
		return nil
	}
	return os.WriteFile(simulateOutputPath, []byte(out+"\n"), 0o644)
}

func resolveBaseTrace() (string, error) {
	switch {
	case simulateTrace != "":
		return simulateTrace, nil
	case simulateTracePath != "":
		data, err := os.ReadFile(simulateTracePath)
		if err != nil {
			return "", fmt.Errorf("reading trace file: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("one of --trace or --trace-file is required")
	}
}
