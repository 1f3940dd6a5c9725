package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrUnknownDifficulty は未知の難易度名が指定されたことを表します。
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Difficulty はAIの強さです。MoveDelay ごとに1操作を行い、MistakeChance の確率でミスをします。
type Difficulty struct {
	Name          string        `json:"name"`
	MoveDelay     time.Duration `json:"move_delay"`
	MistakeChance float64       `json:"mistake_chance"`
}

var (
	Easy   = Difficulty{Name: "easy", MoveDelay: 390 * time.Millisecond, MistakeChance: 0.3}
	Medium = Difficulty{Name: "medium", MoveDelay: 195 * time.Millisecond, MistakeChance: 0.1}
	Hard   = Difficulty{Name: "hard", MoveDelay: 104 * time.Millisecond, MistakeChance: 0.02}
)

// DemoDifficulty はデモモードでAIが使う難易度です。
var DemoDifficulty = Medium

var difficulties = map[string]Difficulty{
	Easy.Name:   Easy,
	Medium.Name: Medium,
	Hard.Name:   Hard,
}

// ParseDifficulty は難易度名 (easy / medium / hard) から Difficulty を返します。
func ParseDifficulty(name string) (Difficulty, error) {
	d, ok := difficulties[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Difficulty{}, fmt.Errorf("%w: %q", ErrUnknownDifficulty, name)
	}
	return d, nil
}

// Config はサーバーとゲームの設定です。
type Config struct {
	Port               string
	TickRate           int           // ルームごとの1秒あたりのシミュレーション回数
	BroadcastInterval  time.Duration // ルームごとのスナップショット送信の最小間隔
	AIDifficulty       Difficulty
	BattleTargetScore  int
	RepeatChance       float64
	SoundsEnabled      bool
	AuthJWTSecret      string
	BypassAuth         bool
	CORSAllowedOrigins []string
}

// Load は .env を読み込んだ後、環境変数から設定を作成します。
// APP_ENV=production のときは .env を読み込みません。
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Printf("[Config] warning: Error loading .env file (this is fine in production): %v", err)
		}
	}
	return FromEnv()
}

// FromEnv は現在の環境変数だけから設定を作成します。
// 数値として解釈できない値があれば、変数名を含むエラーを返します。
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		AuthJWTSecret: os.Getenv("AUTH_JWT_SECRET"),
	}

	var err error
	if cfg.TickRate, err = getInt("TICK_RATE", 60); err != nil {
		return nil, err
	}
	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("TICK_RATE must be positive: %d", cfg.TickRate)
	}

	broadcastMS, err := getInt("BROADCAST_INTERVAL_MS", 50)
	if err != nil {
		return nil, err
	}
	cfg.BroadcastInterval = time.Duration(broadcastMS) * time.Millisecond

	if cfg.AIDifficulty, err = ParseDifficulty(getEnv("AI_DIFFICULTY", Medium.Name)); err != nil {
		return nil, fmt.Errorf("AI_DIFFICULTY: %w", err)
	}
	if cfg.BattleTargetScore, err = getInt("BATTLE_TARGET_SCORE", 1000); err != nil {
		return nil, err
	}
	if cfg.RepeatChance, err = getFloat("REPEAT_CHANCE", 0.05); err != nil {
		return nil, err
	}
	if cfg.RepeatChance < 0 || cfg.RepeatChance > 1 {
		return nil, fmt.Errorf("REPEAT_CHANCE must be between 0 and 1: %v", cfg.RepeatChance)
	}
	if cfg.SoundsEnabled, err = getBool("SOUNDS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.BypassAuth, err = getBool("BYPASS_AUTH", false); err != nil {
		return nil, err
	}

	for _, origin := range strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}
	return cfg, nil
}

// TickInterval は TickRate から1ティックの長さを返します。
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// AuthEnabled はJWT認証を行うかどうかを返します。
func (c *Config) AuthEnabled() bool {
	return c.AuthJWTSecret != "" && !c.BypassAuth
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
