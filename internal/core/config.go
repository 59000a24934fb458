package core

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to any of the
// server components.
type Config struct {
	// Hostname or IP address on which the server will listen for game traffic.
	Hostname string `mapstructure:"hostname"`
	// UDP port for game traffic.
	Port int `mapstructure:"port"`
	// Maximum number of concurrently connected clients.
	MaxConnections int `mapstructure:"max_connections"`

	Logging struct {
		// Full path to file to which logs will be written. Blank will write to stdout.
		LogFilePath string `mapstructure:"log_file_path"`
		// Minimum level of a log required to be written. Options: trace, debug, info, warn, error
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"logging"`

	GameServer struct {
		// Hard cap on players per game regardless of what the host requests.
		MaxPlayers int `mapstructure:"max_players"`
		// Lowest client version the server will accept during the hello exchange.
		MinClientVersion int `mapstructure:"min_client_version"`
		// Generate 4-letter game codes instead of 6-letter ones.
		UseV1Codes bool `mapstructure:"use_v1_codes"`
		// Number of join attempts allowed per address per throttle window.
		JoinRateLimit int `mapstructure:"join_rate_limit"`
		// Length of the join throttle window in seconds.
		JoinRateWindow int `mapstructure:"join_rate_window"`
	} `mapstructure:"game_server"`

	Database struct {
		// Engine is one of sqlite or postgres.
		Engine string `mapstructure:"engine"`
		// Path to the database file when the engine is sqlite.
		Filename string `mapstructure:"filename"`
		// Hostname of the Postgres database instance.
		Host string `mapstructure:"host"`
		// Port on which the Postgres instance is accepting connections.
		Port int `mapstructure:"port"`
		// Name of the database.
		Name string `mapstructure:"name"`
		// Username and password of a user with full RW privileges to ${name}.
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		// Set to verify-full if the Postgres instance supports SSL.
		SSLMode string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	API struct {
		// Port for the HTTP admin API. Zero disables it.
		Port int `mapstructure:"port"`
	} `mapstructure:"api"`

	Notifier struct {
		// Command to spawn for game announcements. Blank disables the notifier.
		Command string `mapstructure:"command"`
		// Arguments passed to the command.
		Args []string `mapstructure:"args"`
	} `mapstructure:"notifier"`

	Debugging struct {
		// Enable extra info-providing mechanisms for the server.
		PprofEnabled bool `mapstructure:"pprof_enabled"`
		// Port on which a pprof server will be started if debug mode is enabled.
		PprofPort int `mapstructure:"pprof_port"`
		// Log packets to stdout.
		PacketLoggingEnabled bool `mapstructure:"packet_logging_enabled"`
		// Enable database-level query logging.
		DatabaseLoggingEnabled bool `mapstructure:"database_logging_enabled"`
	} `mapstructure:"debugging"`
}

const envVarPrefix = "SKELD"

// LoadConfig initializes Viper with the contents of the config file under configPath.
func LoadConfig(configPath string) *Config {
	viper.AddConfigPath(configPath)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if errors.Is(err, viper.ConfigFileNotFoundError{}) {
			fmt.Printf("error reading config file: no config file in path %s", configPath)
		} else {
			fmt.Printf("error reading config file: %v", err)
		}
		os.Exit(1)
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, database.host can be set using: <envVarPrefix>_DATABASE_HOST
	for _, k := range viper.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := viper.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			fmt.Printf("error binding %s to %s", k, envVarPrefix+"_"+envVar)
			os.Exit(1)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		fmt.Printf("error unmarshaling config object: %v", err)
		os.Exit(1)
	}
	return config
}

func setDefaults() {
	viper.SetDefault("hostname", "0.0.0.0")
	viper.SetDefault("port", 22023)
	viper.SetDefault("max_connections", 1000)
	viper.SetDefault("logging.log_level", "info")
	viper.SetDefault("game_server.max_players", 10)
	viper.SetDefault("game_server.min_client_version", 0)
	viper.SetDefault("game_server.join_rate_limit", 10)
	viper.SetDefault("game_server.join_rate_window", 60)
	viper.SetDefault("database.engine", "sqlite")
	viper.SetDefault("database.filename", "skeld.db")
}

const databaseURITemplate = "host=%s port=%d dbname=%s user=%s password=%s sslmode=%s"

// DatabaseURL returns a Postgres connection string generated from the
// provided config values.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		databaseURITemplate,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Username,
		c.Database.Password,
		c.Database.SSLMode,
	)
}

// ListenAddress returns the address for the game traffic socket.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%v", c.Hostname, c.Port)
}
