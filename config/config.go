// Package config decodes the registry service's environment-variable
// configuration.
package config

import "github.com/joeshaw/envdecode"

// Config holds the full environment-variable configuration for the
// registry-server binary.
type Config struct {
	ListenAddress string `env:"LISTEN_ADDRESS,optional,default=:3000" description:"address to listen on"`

	Hostname     string `env:"HOSTNAME,optional" description:"hostname reported in JSON responses; defaults to os.Hostname()"`
	MachineGUID  string `env:"MACHINE_GUID,required" description:"this registry node's own machine GUID"`
	AnnouncedURL string `env:"REGISTRY_URL,required" description:"the URL this registry announces to other nodes"`

	CookieDomain  string `env:"REGISTRY_COOKIE_DOMAIN,optional" description:"Domain attribute for the second Set-Cookie header"`
	CookieMaxAge  int    `env:"REGISTRY_PERSONS_EXPIRATION,optional,default=2592000" description:"person cookie lifetime in seconds"`
	VerifyCookies bool   `env:"REGISTRY_VERIFY_COOKIES,optional,default=false" description:"enable the cookie-capability probe on access"`

	Enabled bool `env:"REGISTRY_ENABLED,optional,default=true" description:"globally enable or disable the registry"`

	Postgres         string `env:"POSTGRES,optional" description:"connection string for the Postgres journal, without password"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,optional" description:"password for the Postgres journal"`

	KafkaBrokers      string `env:"KAFKA_BROKERS,optional" description:"comma-separated Kafka brokers for counter publication"`
	KafkaTopic        string `env:"KAFKA_TOPIC,optional,default=registry.counters" description:"Kafka topic for counter publication"`
	TelemetryInterval int    `env:"REGISTRY_TELEMETRY_INTERVAL_SECONDS,optional,default=10" description:"how often counters are published"`

	LogLevel string `env:"LOG_LEVEL,optional,default=info" description:"logrus level: debug, info, warning, error"`
}

// Load decodes Config from the environment.
func Load() (*Config, error) {
	c := &Config{}
	if err := envdecode.Decode(c); err != nil {
		return nil, err
	}
	return c, nil
}
