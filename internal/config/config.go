package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ReminderConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Time     string   `mapstructure:"time"`     // "08:00"
	Workdays []string `mapstructure:"workdays"` // ["Mon","Tue",...]
	Holidays []string `mapstructure:"holidays"` // ["2026-01-01"]
	Timezone string   `mapstructure:"timezone"` // overrides the top-level timezone
}

type PracticeConfig struct {
	WeeklyGoalMinutes int `mapstructure:"weekly_goal_minutes"`
}

type FeedbackConfig struct {
	Sound   bool    `mapstructure:"sound"`
	Haptics bool    `mapstructure:"haptics"`
	Ambient string  `mapstructure:"ambient"` // "none", "rain", "ocean", "forest"
	Volume  float64 `mapstructure:"volume"`  // 0..1
}

type FocusConfig struct {
	Mode             string `mapstructure:"mode"`
	FocusMinutes     int    `mapstructure:"focus_minutes"` // custom mode only
	BreakMinutes     int    `mapstructure:"break_minutes"` // custom mode only
	LongBreakMinutes int    `mapstructure:"long_break_minutes"`
	Cycles           int    `mapstructure:"cycles"` // work sessions before a long break
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
	Output string `mapstructure:"output"` // "" = data dir file, "stderr", "stdout", or a path
}

type Config struct {
	Theme    string         `mapstructure:"theme"`
	Timezone string         `mapstructure:"timezone"`
	Practice PracticeConfig `mapstructure:"practice"`
	Feedback FeedbackConfig `mapstructure:"feedback"`
	Focus    FocusConfig    `mapstructure:"focus"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Log      LogConfig      `mapstructure:"log"`
}

func Default() Config {
	return Config{
		Theme:    "default",
		Practice: PracticeConfig{WeeklyGoalMinutes: 150},
		Feedback: FeedbackConfig{
			Sound:   true,
			Haptics: true,
			Ambient: "none",
			Volume:  0.5,
		},
		Focus: FocusConfig{
			Mode:             "pomodoro",
			FocusMinutes:     25,
			BreakMinutes:     5,
			LongBreakMinutes: 15,
			Cycles:           4,
		},
		Reminder: ReminderConfig{
			Enabled:  false,
			Time:     "08:00",
			Workdays: []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
			Holidays: []string{},
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

func defaults() map[string]any { return flatten(Default()) }

// flatten maps c onto its viper keys.
func flatten(d Config) map[string]any {
	return map[string]any{
		"theme":                        d.Theme,
		"timezone":                     d.Timezone,
		"practice.weekly_goal_minutes": d.Practice.WeeklyGoalMinutes,
		"feedback.sound":               d.Feedback.Sound,
		"feedback.haptics":             d.Feedback.Haptics,
		"feedback.ambient":             d.Feedback.Ambient,
		"feedback.volume":              d.Feedback.Volume,
		"focus.mode":                   d.Focus.Mode,
		"focus.focus_minutes":          d.Focus.FocusMinutes,
		"focus.break_minutes":          d.Focus.BreakMinutes,
		"focus.long_break_minutes":     d.Focus.LongBreakMinutes,
		"focus.cycles":                 d.Focus.Cycles,
		"reminder.enabled":             d.Reminder.Enabled,
		"reminder.time":                d.Reminder.Time,
		"reminder.workdays":            d.Reminder.Workdays,
		"reminder.holidays":            d.Reminder.Holidays,
		"reminder.timezone":            d.Reminder.Timezone,
		"log.level":                    d.Log.Level,
		"log.format":                   d.Log.Format,
		"log.output":                   d.Log.Output,
	}
}

// Keys lists every settable key, sorted.
func Keys() []string {
	var keys []string
	for k := range defaults() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the value of key in c.
func Lookup(c Config, key string) (any, bool) {
	v, ok := flatten(c)[strings.ToLower(strings.TrimSpace(key))]
	return v, ok
}

// Path is ~/.config/bloom/config.yaml; the directory is created.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".config", "bloom")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), err
	}
	return LoadFrom(path)
}

// LoadFrom reads path over the defaults. A missing file is fine.
// BLOOM_* environment variables override both, e.g. BLOOM_FOCUS_CYCLES.
// Defaults come from viper, so decoding starts from a zero Config: a
// list in the file replaces the default list instead of overlaying it.
func LoadFrom(path string) (Config, error) {
	var cfg Config
	v := newViper(path)
	v.SetEnvPrefix("BLOOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.ReadInConfig() // ok if missing
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("config unmarshal: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// Set validates and writes a single key to the config file at path.
// The value is parsed as the type of the key's default.
func Set(path, key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	def, ok := defaults()[key]
	if !ok {
		return fmt.Errorf("unknown config key %q", key)
	}
	typed, err := parseAs(def, value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}

	v := newViper(path)
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}
	v.Set(key, typed)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	for k, d := range defaults() {
		v.SetDefault(k, d)
	}
	return v
}

func parseAs(def any, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch def.(type) {
	case bool:
		return strconv.ParseBool(value)
	case int:
		return strconv.Atoi(value)
	case float64:
		return strconv.ParseFloat(value, 64)
	case []string:
		var out []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	case string:
		return value, nil
	}
	return nil, fmt.Errorf("unsupported type %s", reflect.TypeOf(def))
}

func (c *Config) normalize() {
	for i, d := range c.Reminder.Workdays {
		c.Reminder.Workdays[i] = weekdayAbbr(d)
	}
	if c.Practice.WeeklyGoalMinutes <= 0 {
		c.Practice.WeeklyGoalMinutes = Default().Practice.WeeklyGoalMinutes
	}
	if c.Feedback.Volume < 0 {
		c.Feedback.Volume = 0
	} else if c.Feedback.Volume > 1 {
		c.Feedback.Volume = 1
	}
	if c.Focus.Cycles < 1 {
		c.Focus.Cycles = Default().Focus.Cycles
	}
}

// weekdayAbbr turns "monday", "MON" or "Mon" into "Mon".
func weekdayAbbr(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if len(d) > 3 {
		d = d[:3]
	}
	if d == "" {
		return d
	}
	return strings.ToUpper(d[:1]) + d[1:]
}

// Location is the zone used for calendar days and streaks.
func (c Config) Location() *time.Location {
	return loadLocation(c.Timezone, time.Local)
}

// ReminderLocation is the zone the reminder time is read in.
func (c Config) ReminderLocation() *time.Location {
	return loadLocation(c.Reminder.Timezone, c.Location())
}

func loadLocation(tz string, fallback *time.Location) *time.Location {
	if tz = strings.TrimSpace(tz); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return fallback
}
