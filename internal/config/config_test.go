package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "MAX_UPLOAD_BYTES", "MAX_ANSWERS", "MAX_LOCATIONS"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("unexpected default port %q", cfg.Port)
	}
	if cfg.MaxUploadBytes != 52428800 {
		t.Errorf("unexpected upload limit %d", cfg.MaxUploadBytes)
	}
	if cfg.MaxAnswers != 200 || cfg.MaxLocations != 200 {
		t.Errorf("unexpected batch limits %d/%d", cfg.MaxAnswers, cfg.MaxLocations)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_ANSWERS", "25")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("PORT override ignored, got %q", cfg.Port)
	}
	if cfg.MaxAnswers != 25 {
		t.Errorf("MAX_ANSWERS override ignored, got %d", cfg.MaxAnswers)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Errorf("MAX_UPLOAD_BYTES override ignored, got %d", cfg.MaxUploadBytes)
	}
}

func TestLoad_BadIntFallsBack(t *testing.T) {
	t.Setenv("MAX_ANSWERS", "not-a-number")
	t.Setenv("MAX_UPLOAD_BYTES", "-1")

	cfg := Load()
	if cfg.MaxAnswers != 200 {
		t.Errorf("bad int should fall back, got %d", cfg.MaxAnswers)
	}
	if cfg.MaxUploadBytes != 52428800 {
		t.Errorf("non-positive limit should fall back, got %d", cfg.MaxUploadBytes)
	}
}

func TestValidate_RequiresAPIKey(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Error("missing API key should fail validation")
	}
	cfg.FormfillAPIKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
