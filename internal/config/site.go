package config

// RawConfig is what the operator typed. It is never modified after capture.
type RawConfig struct {
	ProjectName string `json:"project_name"`
	DomainName  string `json:"domain_name"`
	PortNumber  string `json:"port_number"`
}

// ProcessedConfig is RawConfig plus the values derived from it.
// Identifier always matches ^[a-z0-9-]+$ and is at most 50 characters.
type ProcessedConfig struct {
	RawConfig
	Identifier string `json:"identifier"`
	Upstream   string `json:"upstream"`
	Domain     string `json:"domain"` // lowercased, trimmed DomainName
	Port       int    `json:"port"`
}
