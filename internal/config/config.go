package config

import (
	"os"
	"time"

	"github.com/kiryu-dev/duel-chess/internal/domain"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidBoard    = errors.New("board dimensions must be positive")
	ErrInvalidDuration = errors.New("duration is out of range")
	ErrInvalidWeight   = errors.New("invalid duel weight")
	ErrInvalidSpawn    = errors.New("spawn count must not be negative")
)

const portEnv = "SERVER_PORT"

type ServerConfig struct {
	Port string        `yaml:"port"`
	Tick time.Duration `yaml:"tick"`
}

type BoardConfig struct {
	Rows     int     `yaml:"rows"`
	Columns  int     `yaml:"columns"`
	CellSize float64 `yaml:"cell_size"`
}

type TeamConfig struct {
	Human bool `yaml:"human"`
}

type TeamsConfig struct {
	A TeamConfig `yaml:"a"`
	B TeamConfig `yaml:"b"`
}

func (t TeamsConfig) IsHuman(team domain.Team) bool {
	if team == domain.TeamA {
		return t.A.Human
	}
	return t.B.Human
}

type BotConfig struct {
	ThinkDelay time.Duration `yaml:"think_delay"`
}

type DuelConfig struct {
	Timeout       time.Duration      `yaml:"timeout"`
	FallbackDelay time.Duration      `yaml:"fallback_delay"`
	ResultDelay   time.Duration      `yaml:"result_delay"`
	RawWeights    map[string]int     `yaml:"weights"`
	Weights       domain.WeightTable `yaml:"-"` // RawWeights over the default table
}

type ArenaConfig struct {
	URL           string        `yaml:"url"`
	CallbackURL   string        `yaml:"callback_url"`
	FightDuration time.Duration `yaml:"fight_duration"`
}

type SpawnConfig struct {
	CountPerTeam int `yaml:"count_per_team"`
}

// GameConfig is everything a game session needs.
type GameConfig struct {
	Board BoardConfig `yaml:"board"`
	Teams TeamsConfig `yaml:"teams"`
	Bot   BotConfig   `yaml:"bot"`
	Duel  DuelConfig  `yaml:"duel"`
	Spawn SpawnConfig `yaml:"spawn"`
}

type config struct {
	GameConfig `yaml:",inline"`
	Server     ServerConfig `yaml:"server"`
	Arena      ArenaConfig  `yaml:"arena"`
}

func Default() config {
	return config{
		GameConfig: GameConfig{
			Board: BoardConfig{Rows: 6, Columns: 6, CellSize: 1},
			Teams: TeamsConfig{A: TeamConfig{Human: true}, B: TeamConfig{Human: false}},
			Bot:   BotConfig{ThinkDelay: 400 * time.Millisecond},
			Duel: DuelConfig{
				Timeout:       30 * time.Second,
				FallbackDelay: time.Second,
				Weights:       domain.DefaultWeights(),
			},
			Spawn: SpawnConfig{CountPerTeam: 5},
		},
		Server: ServerConfig{Port: ":8080", Tick: 50 * time.Millisecond},
		Arena:  ArenaConfig{FightDuration: 1500 * time.Millisecond},
	}
}

// New reads the YAML file at cfgPath on top of Default.
func New(cfgPath string) (config, error) {
	file, err := os.Open(cfgPath)
	if err != nil {
		return config{}, err
	}
	defer func() {
		_ = file.Close()
	}()
	cfg := Default()
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return config{}, errors.WithMessage(err, "decode yaml config")
	}
	if port := os.Getenv(portEnv); port != "" {
		cfg.Server.Port = port
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c *config) validate() error {
	if c.Board.Rows <= 0 || c.Board.Columns <= 0 {
		return errors.WithMessagef(ErrInvalidBoard, "%dx%d", c.Board.Rows, c.Board.Columns)
	}
	if c.Server.Tick <= 0 {
		return errors.WithMessage(ErrInvalidDuration, "server.tick")
	}
	if c.Duel.Timeout <= 0 {
		return errors.WithMessage(ErrInvalidDuration, "duel.timeout")
	}
	if c.Duel.FallbackDelay < 0 || c.Duel.ResultDelay < 0 || c.Bot.ThinkDelay < 0 || c.Arena.FightDuration < 0 {
		return errors.WithMessage(ErrInvalidDuration, "delays must not be negative")
	}
	if c.Spawn.CountPerTeam < 0 {
		return ErrInvalidSpawn
	}
	weights := domain.DefaultWeights()
	for name, w := range c.Duel.RawWeights {
		kind, err := domain.ParsePieceType(name)
		if err != nil {
			return errors.WithMessage(ErrInvalidWeight, err.Error())
		}
		if w < 0 {
			return errors.WithMessagef(ErrInvalidWeight, "%s: %d", name, w)
		}
		weights[kind] = w
	}
	c.Duel.Weights = weights
	return nil
}
