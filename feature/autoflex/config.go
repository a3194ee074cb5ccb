package autoflex

// Config holds configuration for the Autoflex10 API client.
type Config struct {
	// BaseURL is the authentication endpoint base. The data API URL is
	// returned dynamically by authentication.
	BaseURL string `mapstructure:"base_url" default:"https://api.autoflex10.work/v2"`
	// ApiKey is the Autoflex API key.
	ApiKey string `mapstructure:"api_key" default:""`
	// Username is the Autoflex account username.
	Username string `mapstructure:"username" default:""`
	// Password is the Autoflex account password.
	Password string `mapstructure:"password" default:""`
	// Organization is the optional organization name.
	Organization string `mapstructure:"organization" default:""`
	// TimeoutSeconds is the per-request timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"15"`
}
