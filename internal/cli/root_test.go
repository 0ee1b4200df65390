package cli

import "testing"

func TestPortFlagDefaultsToEnvChain(t *testing.T) {
	t.Setenv("PORT", "")

	cmd := newRootCmd()
	flag := cmd.PersistentFlags().Lookup("port")
	if flag == nil {
		t.Fatal("port flag not registered")
	}
	// empty default: the config file and env overrides pick the port
	if flag.DefValue != "" {
		t.Fatalf("port default = %q, want empty", flag.DefValue)
	}

	t.Setenv("PORT", "9999")
	if got := newRootCmd().PersistentFlags().Lookup("port").DefValue; got != "9999" {
		t.Fatalf("port default with PORT set = %q, want 9999", got)
	}
}
