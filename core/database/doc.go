// Package database handles the optional MySQL connection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly configure
// MySQL connections based on the application's configuration. The database is used
// solely for the append-only key movement history; the application runs fine without it.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logger.Warn("Movement history disabled", zap.Error(err))
//	}
package database
