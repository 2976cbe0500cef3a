package config

import (
	"fmt"
	"os"

	supa "github.com/supabase-community/supabase-go"
)

// Supabase groups the connection settings read from the environment.
type Supabase struct {
	URL        string
	ServiceKey string
}

// SupabaseFromEnv reads SUPABASE_URL and SUPABASE_SERVICE_KEY. Both are
// required; there is no anonymous-key fallback because the pipeline writes
// records.
func SupabaseFromEnv() (Supabase, error) {
	url := os.Getenv("SUPABASE_URL")
	key := os.Getenv("SUPABASE_SERVICE_KEY")
	if url == "" || key == "" {
		return Supabase{}, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set")
	}
	return Supabase{URL: url, ServiceKey: key}, nil
}

// NewSupabaseClient initializes the Supabase client used by the HTTP
// handlers for record reads and patches.
func (s Supabase) NewSupabaseClient() (*supa.Client, error) {
	client, err := supa.NewClient(s.URL, s.ServiceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase client: %w", err)
	}
	return client, nil
}
