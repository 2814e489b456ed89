package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	Interface      string
	ReplayFile     string
	DispatcherPath string
	PcapPath       string
	DBPath         string
	Addr           string
	AdminUser      string
	AdminPassHash  string
	AutoAddTargets bool
	Passive        bool
	Verbose        bool
}

// Load parses command line flags and environment variables to populate
// Config. Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	cfg.Interface = getEnv("ZIZZANIA_INTERFACE", "wlan0")
	cfg.DispatcherPath = getEnv("ZIZZANIA_DISPATCHER", "")
	cfg.PcapPath = getEnv("ZIZZANIA_PCAP", "")
	cfg.DBPath = getEnv("ZIZZANIA_DB", getDefaultDBPath())
	cfg.Addr = getEnv("ZIZZANIA_ADDR", ":8080")
	cfg.AdminUser = getEnv("ZIZZANIA_ADMIN_USER", "admin")
	cfg.AdminPassHash = getEnv("ZIZZANIA_ADMIN_PASS_HASH", "")
	cfg.AutoAddTargets = getEnvBool("ZIZZANIA_AUTO_ADD_TARGETS", false)
	cfg.Passive = getEnvBool("ZIZZANIA_PASSIVE", false)
	cfg.Verbose = getEnvBool("ZIZZANIA_VERBOSE", false)

	flag.StringVar(&cfg.Interface, "i", cfg.Interface, "monitor-mode interface to capture from")
	flag.StringVar(&cfg.ReplayFile, "r", "", "replay frames from a pcap file instead of a live interface")
	flag.StringVar(&cfg.DispatcherPath, "dispatcher", cfg.DispatcherPath, "path to the dispatcher's named pipe (empty disables the dispatcher)")
	flag.StringVar(&cfg.PcapPath, "pcap", cfg.PcapPath, "path to save captured frames as pcap (empty disables dumping)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the SQLite audit-trail database")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP status/dashboard listen address")
	flag.StringVar(&cfg.AdminUser, "admin-user", cfg.AdminUser, "HTTP basic-auth username for admin endpoints")
	flag.StringVar(&cfg.AdminPassHash, "admin-pass-hash", cfg.AdminPassHash, "bcrypt hash of the admin password")
	flag.BoolVar(&cfg.AutoAddTargets, "auto-add-targets", cfg.AutoAddTargets, "automatically track every BSSID observed")
	flag.BoolVar(&cfg.Passive, "passive", cfg.Passive, "never enqueue dispatcher actions")
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "enable verbose diagnostic logging")

	flag.Parse()

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getDefaultDBPath returns the default audit database path in the user's
// home directory, creating the directory if needed.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("warning: could not get user home directory, using current dir: %v", err)
		return "zizzaniad.db"
	}

	dir := filepath.Join(home, ".zizzaniad")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("warning: could not create %s, using current dir: %v", dir, err)
		return "zizzaniad.db"
	}

	return filepath.Join(dir, "zizzaniad.db")
}
