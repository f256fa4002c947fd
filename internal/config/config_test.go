package config

import (
	"strings"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "PORT", "TRYON_BACKEND", "GEMINI_API_KEY", "API_KEY", "GEMINI_MODEL",
		"PROJECT_ID", "GOOGLE_CLOUD_PROJECT", "LOCATION", "VTO_MODEL", "USE_SDK",
		"REQUEST_TIMEOUT", "MAX_UPLOAD_BYTES", "SESSION_IDLE_TIMEOUT", "REDIS_ADDR", "HISTORY_TTL",
	} {
		t.Setenv(k, "")
	}

	c := FromEnv()

	if c.Env != "development" || c.Port != "8080" {
		t.Errorf("unexpected env/port: %s/%s", c.Env, c.Port)
	}
	if c.Backend != BackendGemini || c.GeminiModel != "gemini-2.5-flash-image" {
		t.Errorf("unexpected backend defaults: %s/%s", c.Backend, c.GeminiModel)
	}
	if c.Location != "us-central1" || c.VTOModel != "virtual-try-on-preview-08-04" || c.UseSDK {
		t.Errorf("unexpected vertex defaults: %+v", c)
	}
	if c.RequestTimeout != 120*time.Second || c.MaxUploadBytes != 10*1024*1024 || c.SessionIdleTimeout != 2*time.Hour {
		t.Errorf("unexpected limits: %v %d %v", c.RequestTimeout, c.MaxUploadBytes, c.SessionIdleTimeout)
	}
	if c.RedisAddr != "" || c.HistoryTTL != 24*time.Hour {
		t.Errorf("unexpected history defaults: %q %v", c.RedisAddr, c.HistoryTTL)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("TRYON_BACKEND", "Vertex")
	t.Setenv("PROJECT_ID", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "fallback-project")
	t.Setenv("USE_SDK", "true")
	t.Setenv("REQUEST_TIMEOUT", "45")
	t.Setenv("SESSION_IDLE_TIMEOUT", "30m")
	t.Setenv("MAX_UPLOAD_BYTES", "not-a-number")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "legacy-key")

	c := FromEnv()

	if c.Backend != BackendVertex {
		t.Errorf("Backend = %s", c.Backend)
	}
	if c.ProjectID != "fallback-project" {
		t.Errorf("ProjectID = %s", c.ProjectID)
	}
	if !c.UseSDK {
		t.Errorf("UseSDK should be true")
	}
	if c.RequestTimeout != 45*time.Second {
		t.Errorf("RequestTimeout = %v", c.RequestTimeout)
	}
	if c.SessionIdleTimeout != 30*time.Minute {
		t.Errorf("SessionIdleTimeout = %v", c.SessionIdleTimeout)
	}
	if c.MaxUploadBytes != 10*1024*1024 {
		t.Errorf("invalid MAX_UPLOAD_BYTES should fall back, got %d", c.MaxUploadBytes)
	}
	if c.GeminiAPIKey != "legacy-key" {
		t.Errorf("GeminiAPIKey = %s", c.GeminiAPIKey)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Backend:        BackendGemini,
		GeminiAPIKey:   "key",
		RequestTimeout: time.Minute,
		MaxUploadBytes: 1024,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid gemini", mutate: func(c *Config) {}},
		{name: "gemini without key", mutate: func(c *Config) { c.GeminiAPIKey = "" }, wantErr: "GEMINI_API_KEY"},
		{name: "vertex without project", mutate: func(c *Config) { c.Backend = BackendVertex }, wantErr: "PROJECT_ID"},
		{name: "valid vertex", mutate: func(c *Config) { c.Backend = BackendVertex; c.ProjectID = "p" }},
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "dalle" }, wantErr: "TRYON_BACKEND"},
		{name: "zero timeout", mutate: func(c *Config) { c.RequestTimeout = 0 }, wantErr: "REQUEST_TIMEOUT"},
		{name: "zero upload size", mutate: func(c *Config) { c.MaxUploadBytes = 0 }, wantErr: "MAX_UPLOAD_BYTES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %s", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := map[string]bool{
		"development": true,
		"production":  false,
		"staging":     false,
	}
	for env, want := range tests {
		if got := (Config{Env: env}).IsDevelopment(); got != want {
			t.Errorf("IsDevelopment() for %q = %v, want %v", env, got, want)
		}
	}
}
