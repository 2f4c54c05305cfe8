package config

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"tunetrivia/internal/gamedata"
)

type Config struct {
	Port        string
	DatabaseURL string

	DefaultMaxPlayers int
	DefaultRounds     int
	RoundTimeLimit    int // seconds

	CatalogURL string
	CatalogTTL time.Duration

	AllowedOrigins []string

	LogLevel  string
	LogPretty bool

	EventRate  float64 // events per second per connection
	EventBurst int
}

var defaults = map[string]any{
	"PORT":                "8080",
	"DATABASE_URL":        "",
	"DEFAULT_MAX_PLAYERS": gamedata.MaxPlayers,
	"DEFAULT_ROUNDS":      gamedata.DefaultRounds,
	"ROUND_TIME_LIMIT":    30,
	"CATALOG_URL":         "",
	"CATALOG_TTL":         10 * time.Minute,
	"ALLOWED_ORIGINS":     "*",
	"LOG_LEVEL":           "info",
	"LOG_PRETTY":          true,
	"EVENT_RATE":          20.0,
	"EVENT_BURST":         40,
}

// Load reads the environment, with an optional config.yaml in the working
// directory underneath it.
func Load() Config {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn().Err(err).Msg("ignoring unreadable config file")
		}
	}

	return Config{
		Port:              v.GetString("PORT"),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		DefaultMaxPlayers: positiveInt(v, "DEFAULT_MAX_PLAYERS"),
		DefaultRounds:     positiveInt(v, "DEFAULT_ROUNDS"),
		RoundTimeLimit:    positiveInt(v, "ROUND_TIME_LIMIT"),
		CatalogURL:        v.GetString("CATALOG_URL"),
		CatalogTTL:        positiveDuration(v, "CATALOG_TTL"),
		AllowedOrigins:    splitList(v.GetString("ALLOWED_ORIGINS")),
		LogLevel:          v.GetString("LOG_LEVEL"),
		LogPretty:         v.GetBool("LOG_PRETTY"),
		EventRate:         positiveFloat(v, "EVENT_RATE"),
		EventBurst:        positiveInt(v, "EVENT_BURST"),
	}
}

// Game returns the room defaults derived from the configuration.
func (c Config) Game() gamedata.Config {
	return gamedata.Config{
		MaxPlayers: c.DefaultMaxPlayers,
		Rounds:     c.DefaultRounds,
		TimeLimit:  c.RoundTimeLimit,
	}
}

func positiveInt(v *viper.Viper, key string) int {
	if n := v.GetInt(key); n > 0 {
		return n
	}
	return defaults[key].(int)
}

func positiveFloat(v *viper.Viper, key string) float64 {
	if f := v.GetFloat64(key); f > 0 {
		return f
	}
	return defaults[key].(float64)
}

func positiveDuration(v *viper.Viper, key string) time.Duration {
	if d := v.GetDuration(key); d > 0 {
		return d
	}
	return defaults[key].(time.Duration)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
