package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Paths.Templates != "templates" || cfg.Paths.Content != "content" {
		t.Errorf("unexpected default paths: %+v", cfg.Paths)
	}
	if cfg.Forms.Endpoint != "http://127.0.0.1:8080" {
		t.Errorf("expected form endpoint to default to the local server, got %s", cfg.Forms.Endpoint)
	}
	if cfg.Leads.Store != StoreMemory || cfg.Applications.Store != StoreMemory {
		t.Errorf("expected memory stores by default, got %s/%s", cfg.Leads.Store, cfg.Applications.Store)
	}
	if cfg.Applications.Collection != "merchant_applications" {
		t.Errorf("unexpected collection: %s", cfg.Applications.Collection)
	}
	if cfg.IsProduction() {
		t.Errorf("expected local environment by default")
	}
}

func TestLoadHonoursCloudRunPort(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{"PORT": "9000"}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Fatalf("expected PORT fallback, got %s", cfg.Server.Port)
	}

	cfg, err = Load(WithEnvMap(map[string]string{"PORT": "9000", "MH_PORT": "7000"}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Fatalf("expected MH_PORT to win, got %s", cfg.Server.Port)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"MH_PORT":              "9090",
		"MH_READ_TIMEOUT":      "20s",
		"MH_FORM_ENDPOINT":     "https://forms.example.com/",
		"MH_LEAD_STORE":        "SQLite",
		"MH_SQLITE_PATH":       "/tmp/leads.db",
		"MH_APPLICATION_STORE": "firestore",
		"MH_FIRESTORE_PROJECT": "mh-prod",
		"MH_PUBSUB_PROJECT":    "mh-prod",
		"MH_PUBSUB_TOPIC":      "merchant-applications",
		"MH_SITE_URL":          "https://example.com/",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Addr() != ":9090" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 20*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Forms.Endpoint != "https://forms.example.com" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.Forms.Endpoint)
	}
	if cfg.Leads.Store != StoreSQLite {
		t.Errorf("expected store name normalised, got %s", cfg.Leads.Store)
	}
	if cfg.Site.URL != "https://example.com" {
		t.Errorf("unexpected site url: %s", cfg.Site.URL)
	}
	if cfg.Notify.PubSubTopic != "merchant-applications" {
		t.Errorf("unexpected topic: %s", cfg.Notify.PubSubTopic)
	}
}

func TestLoadChecksEncryptionKeyLength(t *testing.T) {
	for key, valid := range map[string]bool{
		"":                                 true,
		"0123456789abcdef":                 true,
		"0123456789abcdef0123456789abcdef": true,
		"short":                            false,
	} {
		_, err := Load(WithEnvMap(map[string]string{"MH_SESSION_ENCRYPTION_KEY": key}), WithoutSystemEnv(), WithEnvFile(""))
		if valid {
			if err != nil {
				t.Errorf("key %q: unexpected error %v", key, err)
			}
			continue
		}
		var vErr *ValidationError
		if !errors.As(err, &vErr) || len(vErr.Fields()) != 1 || vErr.Fields()[0] != "Session.EncryptionKey" {
			t.Errorf("key %q: expected Session.EncryptionKey validation error, got %v", key, err)
		}
	}
}

func TestLoadValidationErrors(t *testing.T) {
	env := map[string]string{
		"MH_ENV":               "prod",
		"MH_LEAD_STORE":        "redis",
		"MH_APPLICATION_STORE": "firestore",
		"MH_PUBSUB_TOPIC":      "apps",
	}

	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error")
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	want := map[string]bool{
		"Leads.Store":                   true,
		"Applications.FirestoreProject": true,
		"Notify.PubSubProject":          true,
		"Session.SigningKey":            true,
	}
	fields := vErr.Fields()
	if len(fields) != len(want) {
		t.Fatalf("unexpected fields: %v", fields)
	}
	for _, f := range fields {
		if !want[f] {
			t.Errorf("unexpected field %s", f)
		}
	}
}

func TestEnvironmentValuesPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nexport MH_PORT=7070\nMH_SITE_NAME=\"Haus\"\nMH_ENV=staging\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	values, err := EnvironmentValues(WithEnvFile(path), WithoutSystemEnv(), WithEnvMap(map[string]string{"MH_ENV": "local"}))
	if err != nil {
		t.Fatalf("EnvironmentValues: %v", err)
	}
	if values["MH_PORT"] != "7070" {
		t.Errorf("expected dotenv port, got %q", values["MH_PORT"])
	}
	if values["MH_SITE_NAME"] != "Haus" {
		t.Errorf("expected quotes stripped, got %q", values["MH_SITE_NAME"])
	}
	if values["MH_ENV"] != "local" {
		t.Errorf("expected explicit map to win, got %q", values["MH_ENV"])
	}

	cfg, err := Load(WithEnvFile(path), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Site.Name != "Haus" || cfg.Server.Port != "7070" {
		t.Errorf("dotenv values not applied: %+v %+v", cfg.Site, cfg.Server)
	}
}

func TestMissingEnvFileIsIgnored(t *testing.T) {
	if _, err := EnvironmentValues(WithEnvFile(filepath.Join(t.TempDir(), "missing.env")), WithoutSystemEnv()); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}
