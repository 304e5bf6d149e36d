// Package config loads the application configuration.
//
// Configuration comes from environment variables, optionally seeded from a .env
// file via godotenv. Defaults are declared as struct tags on each partial config
// (server, database, log, gateway, sync, storage, mail) and registered in Viper
// through a reflection walk, so SERVER_PORT, DATABASE_HOST, GATEWAY_URL and
// friends all resolve without explicit binding calls.
package config
