package config

import "testing"

func TestDefaultFilterLimit(t *testing.T) {
	cfg := Default()
	if cfg.FilterLimit != 10 {
		t.Fatalf("got %d, want 10", cfg.FilterLimit)
	}
	if cfg.ReducerCutoff != 10 {
		t.Fatalf("got %d, want 10", cfg.ReducerCutoff)
	}
}

func TestLoadNoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.NumMappers != 32 || cfg.NumReducers != 8 {
		t.Fatalf("got %+v", cfg)
	}
	if cfg.Provider != "s3" {
		t.Fatalf("got provider %q, want s3", cfg.Provider)
	}
}
