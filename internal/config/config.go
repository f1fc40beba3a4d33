package config

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rocketscienceinc/fourinarow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinarow-backend/internal/transport"
)

type Config struct {
	LogLevel       string        `yaml:"log-level" env:"FOURINAROW_LOG_LEVEL" env-default:"info"`
	Transport      string        `yaml:"transport" env:"FOURINAROW_TRANSPORT" env-default:"udp"`
	Port           string        `yaml:"port" env:"FOURINAROW_PORT" env-default:"4444"`
	ReceiveTimeout time.Duration `yaml:"receive-timeout" env:"FOURINAROW_RECEIVE_TIMEOUT" env-default:"0s"`
	RoundPause     time.Duration `yaml:"round-pause" env:"FOURINAROW_ROUND_PAUSE" env-default:"1s"`
	HTTPPort       string        `yaml:"http-port" env:"FOURINAROW_HTTP_PORT" env-default:"9090"`
	SpectatorPort  string        `yaml:"spectator-port" env:"FOURINAROW_SPECTATOR_PORT" env-default:"9091"`
	Board          Board         `yaml:"board"`
	Redis          Redis         `yaml:"redis"`
}

type Board struct {
	Rows         int    `yaml:"rows" env:"FOURINAROW_BOARD_ROWS" env-default:"6"`
	Cols         int    `yaml:"cols" env:"FOURINAROW_BOARD_COLS" env-default:"7"`
	FirstSymbol  string `yaml:"first-symbol" env:"FOURINAROW_BOARD_FIRST_SYMBOL" env-default:"X"`
	SecondSymbol string `yaml:"second-symbol" env:"FOURINAROW_BOARD_SECOND_SYMBOL" env-default:"O"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"FOURINAROW_REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"FOURINAROW_REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"FOURINAROW_REDIS_PORT" env-default:"6379"`
	Channel string `yaml:"channel" env:"FOURINAROW_REDIS_CHANNEL" env-default:"fourinarow:events"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// Rules builds validated board rules from the board section.
func (that *Config) Rules() (entity.Rules, error) {
	first, err := symbol(that.Board.FirstSymbol)
	if err != nil {
		return entity.Rules{}, fmt.Errorf("invalid first symbol: %w", err)
	}

	second, err := symbol(that.Board.SecondSymbol)
	if err != nil {
		return entity.Rules{}, fmt.Errorf("invalid second symbol: %w", err)
	}

	rules := entity.Rules{
		Rows:    that.Board.Rows,
		Cols:    that.Board.Cols,
		Symbols: [2]rune{first, second},
	}

	if err = rules.Validate(); err != nil {
		return entity.Rules{}, fmt.Errorf("invalid board: %w", err)
	}

	return rules, nil
}

// Network maps the transport name onto a supported network.
func (that *Config) Network() (string, error) {
	switch that.Transport {
	case transport.NetworkUDP, transport.NetworkTCP:
		return that.Transport, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTransport, that.Transport)
	}
}

func (that *Config) ListenAddr() string {
	return ":" + that.Port
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func symbol(text string) (rune, error) {
	if utf8.RuneCountInString(text) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSymbol, text)
	}

	r, _ := utf8.DecodeRuneInString(text)

	return r, nil
}
