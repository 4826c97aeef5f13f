package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/obscuranet/maybenot"
)

var (
	convertConfigPath string
	convertMachineIdx int
	convertClient     bool
	convertEncoded    string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "serialize a machine from a machine-set config, or print the name/structure of an encoded machine",
	RunE:  runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertConfigPath, "config", "", "path to a machine-set YAML config")
	convertCmd.Flags().IntVar(&convertMachineIdx, "index", 0, "index of the machine to convert within its endpoint's list")
	convertCmd.Flags().BoolVar(&convertClient, "client", true, "select the client endpoint instead of the server")
	convertCmd.Flags().StringVar(&convertEncoded, "decode", "", "an encoded machine string to decode instead of reading --config")
}

func runConvert(cmd *cobra.Command, args []string) error {
	if convertEncoded != "" {
		m, err := maybenot.DeserializeMachine(convertEncoded)
		if err != nil {
			return fmt.Errorf("decoding machine: %w", err)
		}
		fmt.Printf("name=%s states=%d max_padding_frac=%v max_blocking_frac=%v\n", m.Name(), len(m.States), m.MaxPaddingFrac, m.MaxBlockingFrac)
		return nil
	}

	if convertConfigPath == "" {
		return fmt.Errorf("one of --config or --decode is required")
	}
	cfg, err := LoadMachineSetConfig(convertConfigPath)
	if err != nil {
		return err
	}
	endpoint := cfg.Server
	if convertClient {
		endpoint = cfg.Client
	}
	if convertMachineIdx < 0 || convertMachineIdx >= len(endpoint.Machines) {
		return fmt.Errorf("index %d out of range [0, %d)", convertMachineIdx, len(endpoint.Machines))
	}
	m, err := endpoint.Machines[convertMachineIdx].Build()
	if err != nil {
		return fmt.Errorf("building machine: %w", err)
	}
	encoded, err := m.Serialize()
	if err != nil {
		return fmt.Errorf("serializing machine: %w", err)
	}
	fmt.Printf("name=%s\n%s\n", m.Name(), encoded)
	return nil
}

var validateConfigPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "validate a machine-set YAML config without running a simulation",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateConfigPath, "config", "", "path to a machine-set YAML config (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := LoadMachineSetConfig(validateConfigPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid: %v\n", err)
		return err
	}
	clientMachines, _ := cfg.Client.Build()
	serverMachines, _ := cfg.Server.Build()
	fmt.Printf("ok: %d client machine(s), %d server machine(s)\n", len(clientMachines), len(serverMachines))
	for i, m := range clientMachines {
		fmt.Printf("  client[%d] name=%s states=%d\n", i, m.Name(), len(m.States))
	}
	for i, m := range serverMachines {
		fmt.Printf("  server[%d] name=%s states=%d\n", i, m.Name(), len(m.States))
	}
	return nil
}
