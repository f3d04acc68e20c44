package config

// DatabaseConfig holds storage configuration
type DatabaseConfig struct {
	URL     string
	Backend string
}

// GetConnectionString returns the PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return c.URL
}

// IsMemory reports whether state is kept in process memory
func (c *DatabaseConfig) IsMemory() bool {
	return c.Backend == BackendMemory
}
