package config

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid minimal config",
			config: Config{Storage: StorageConfig{Bucket: "media"}},
		},
		{
			name:    "missing bucket",
			config:  Config{},
			wantErr: true,
		},
		{
			name: "watcher enabled without inbox dir",
			config: Config{
				Storage: StorageConfig{Bucket: "media"},
				Watcher: WatcherConfig{Enabled: true},
			},
			wantErr: true,
		},
		{
			name: "watcher enabled with inbox dir",
			config: Config{
				Storage: StorageConfig{Bucket: "media"},
				Watcher: WatcherConfig{Enabled: true, InboxDir: "/var/transcripts"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Config{Storage: StorageConfig{Bucket: "media"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d", cfg.Server.Port)
	}
	if cfg.Worker.MaxWorkers != 2 || cfg.Worker.JobQueueSize != 50 {
		t.Errorf("worker defaults = %+v", cfg.Worker)
	}
	if cfg.LLM.DefaultModel == "" {
		t.Error("default model not set")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default log level = %q", cfg.Logging.Level)
	}
}
