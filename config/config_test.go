package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ClassifyMaxBatch != 100 {
		t.Errorf("ClassifyMaxBatch = %d, want 100", cfg.ClassifyMaxBatch)
	}
	if cfg.ReminderThreshold.Hours() != 24 {
		t.Errorf("ReminderThreshold = %v, want 24h", cfg.ReminderThreshold)
	}
	if cfg.AnnotatorRPM != 60 {
		t.Errorf("AnnotatorRPM = %d, want 60", cfg.AnnotatorRPM)
	}
	if cfg.DigestTime != "09:00" {
		t.Errorf("DigestTime = %q, want 09:00", cfg.DigestTime)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CLASSIFY_MAX_BATCH", "250")
	t.Setenv("ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ClassifyMaxBatch != 250 {
		t.Errorf("ClassifyMaxBatch = %d, want 250", cfg.ClassifyMaxBatch)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false after ENV=production")
	}
}
