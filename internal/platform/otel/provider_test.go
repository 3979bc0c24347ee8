package otel

import (
	"context"
	"testing"
)

func TestSetup_NoopWhenEndpointEmpty(t *testing.T) {
	t.Setenv("TRACKASONE_OTEL_ENDPOINT", "")
	t.Setenv("TRACKASONE_OTEL_ENABLED", "")

	shutdown, err := Setup(context.Background(), "test-service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetup_RejectsBadSampleRatio(t *testing.T) {
	t.Setenv("TRACKASONE_OTEL_SAMPLE_RATIO", "often")

	if _, err := Setup(context.Background(), "test-service"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestConfigActive(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{name: "empty", cfg: Config{}, want: false},
		{name: "endpoint", cfg: Config{Endpoint: "http://localhost:4318"}, want: true},
		{name: "disabled", cfg: Config{Endpoint: "http://localhost:4318", Enabled: "FALSE"}, want: false},
		{name: "enabled true", cfg: Config{Endpoint: "http://localhost:4318", Enabled: "true"}, want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.active(); got != tc.want {
				t.Fatalf("active() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestConfigSampler(t *testing.T) {
	always := Config{SampleRatio: 1}.sampler().Description()
	never := Config{SampleRatio: 0}.sampler().Description()
	ratio := Config{SampleRatio: 0.25}.sampler().Description()
	if always == never || ratio == always || ratio == never {
		t.Fatalf("expected distinct samplers, got %q %q %q", always, never, ratio)
	}
}

func TestSetupWithConfig_CreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so no export succeeds.
	cfg := Config{Endpoint: "http://192.0.2.1:4318", SampleRatio: 1}

	shutdown, err := SetupWithConfig(context.Background(), "test-service", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupWithConfig_NoopShutdownIgnoresCancelledContext(t *testing.T) {
	shutdown, err := SetupWithConfig(context.Background(), "noop-test", Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("noop shutdown should not error: %v", err)
	}
}
