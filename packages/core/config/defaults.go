package config

// DefaultHost is the WorkflowMax API endpoint
const DefaultHost = "https://api.workflowmax.com"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Host:         DefaultHost,
		QueueDir:     "~/.stopwatch/queue",
		Timeout:      30000, // 30 seconds
		MaxRedirects: 10,
		UploadRate:   2,
		ValidateSSL:  BoolPtr(true),
		Verbose:      BoolPtr(false),
		NoColor:      BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.Host == defaults.Host &&
		c.APIKey == "" &&
		c.AccountKey == "" &&
		c.Email == "" &&
		c.StaffID == "" &&
		c.QueueDir == defaults.QueueDir &&
		c.Timeout == defaults.Timeout &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.UploadRate == defaults.UploadRate &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == defaults.Proxy &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor()
}

// Validate reports settings the WorkflowMax client cannot work without
func (c *Config) Validate() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "apiKey")
	}
	if c.AccountKey == "" {
		missing = append(missing, "accountKey")
	}
	if c.StaffID == "" && c.Email == "" {
		missing = append(missing, "email or staffId")
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	return nil
}
