package database

// Config holds configuration for the database connection.
type Config struct {
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port.
	Port int `mapstructure:"port" default:"3306"`
	// User is the database user.
	User string `mapstructure:"user" default:"root"`
	// Password is the database password.
	Password string `mapstructure:"password" default:""`
	// Name is the database name, or the file path when the driver is sqlite.
	Name string `mapstructure:"name" default:"inventory_db"`
	// Driver is the database driver (mysql, sqlite).
	Driver string `mapstructure:"driver" default:"mysql"`
	// TimeoutSeconds bounds connection setup and per-query I/O.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// LockWaitSeconds bounds row-lock waits inside transactions (mysql only).
	LockWaitSeconds int `mapstructure:"lock_wait_seconds" default:"10"`
}
