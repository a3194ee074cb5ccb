// Package config provides configuration management for the Key Manager.
//
// It utilizes Viper for loading configuration from environment variables
// and an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Log: Logging level and format
//   - Database: MySQL connection details for the movement history log
//   - Autoflex: external inventory API credentials
//   - Keys: key management feature settings (auto-sync)
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
