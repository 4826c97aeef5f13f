package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/obscuranet/maybenot"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "machines.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfigYAML = `
network_delay_micros: 5
mtu: 1400
max_trace_length: 1000
seed: 7
global_max_padding_frac: 0
global_max_blocking_frac: 0
client:
  machines:
    - allowed_padding_bytes: 1000
      max_padding_frac: 0.2
      states:
        - action:
            kind: send_padding
            timeout: {kind: uniform, param1: 5, param2: 5}
          transitions:
            NormalSent:
              - target: 0
                prob: 1.0
server:
  machines: []
`

func TestLoadMachineSetConfig_ValidYAML(t *testing.T) {
	path := writeTempYAML(t, validConfigYAML)
	cfg, err := LoadMachineSetConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MTU != 1400 {
		t.Errorf("MTU = %d, want 1400", cfg.MTU)
	}
	if len(cfg.Client.Machines) != 1 {
		t.Fatalf("len(Client.Machines) = %d, want 1", len(cfg.Client.Machines))
	}
	if cfg.Client.Machines[0].States[0].Action.Kind != "send_padding" {
		t.Errorf("action kind = %q, want send_padding", cfg.Client.Machines[0].States[0].Action.Kind)
	}
}

func TestLoadMachineSetConfig_NonexistentFile(t *testing.T) {
	if _, err := LoadMachineSetConfig("/nonexistent/path.yaml"); err == nil {
		t.Fatal("expected error for nonexistent file")
	}
}

func TestLoadMachineSetConfig_MalformedYAML(t *testing.T) {
	path := writeTempYAML(t, "{{invalid yaml")
	if _, err := LoadMachineSetConfig(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestLoadMachineSetConfig_RejectsUnknownKeys(t *testing.T) {
	path := writeTempYAML(t, "mtu: 1400\nbogus_field: 1\n")
	if _, err := LoadMachineSetConfig(path); err == nil {
		t.Fatal("expected strict decoding to reject an unknown top-level key")
	}
}

func TestMachineSetConfig_Validate_Valid(t *testing.T) {
	path := writeTempYAML(t, validConfigYAML)
	cfg, err := LoadMachineSetConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected a valid config, got: %v", err)
	}
}

func TestMachineSetConfig_Validate_RejectsOutOfRangeFraction(t *testing.T) {
	cfg := &MachineSetConfig{MTU: 1400, MaxTraceLength: 10, GlobalMaxPaddingFrac: 1.5}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an out-of-range global_max_padding_frac to fail validation")
	}
}

func TestMachineSetConfig_Validate_RejectsZeroMTU(t *testing.T) {
	cfg := &MachineSetConfig{MaxTraceLength: 10}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected a zero MTU to fail validation")
	}
}

func TestMachineConfig_Build_UnknownActionKind(t *testing.T) {
	mc := MachineConfig{
		States: []StateConfig{{Action: &ActionConfig{Kind: "not-a-kind"}}},
	}
	if _, err := mc.Build(); err == nil {
		t.Fatal("expected an unknown action kind to fail Build")
	}
}

func TestMachineConfig_Build_UnknownEventName(t *testing.T) {
	mc := MachineConfig{
		States: []StateConfig{{
			Transitions: map[string][]TransConfig{"NotAnEvent": {{Target: 0, Prob: 1}}},
		}},
	}
	if _, err := mc.Build(); err == nil {
		t.Fatal("expected an unknown event name to fail Build")
	}
}

func TestMachineConfig_Build_RoundTripsIntoValidMachine(t *testing.T) {
	path := writeTempYAML(t, validConfigYAML)
	cfg, err := LoadMachineSetConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	machines, err := cfg.Client.Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(machines) != 1 {
		t.Fatalf("len(machines) = %d, want 1", len(machines))
	}
	if err := machines[0].Validate(); err != nil {
		t.Errorf("built machine should validate cleanly, got: %v", err)
	}
	if machines[0].States[0].Action.Kind != maybenot.ActionSendPadding {
		t.Errorf("action kind = %v, want ActionSendPadding", machines[0].States[0].Action.Kind)
	}
}
