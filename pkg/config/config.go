// Package config provides configuration loading for the workdesk YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/workdesk/workdesk/pkg/clock"
	"gopkg.in/yaml.v3"
)

// Config represents the structure of the workdesk.yaml file.
type Config struct {
	Calendar  CalendarConfig      `yaml:"calendar"`
	Roles     map[string][]string `yaml:"roles" validate:"dive,keys,required,endkeys,dive,required"`
	AdminRole string              `yaml:"admin_role" validate:"required"`
	SLA       SLAConfig           `yaml:"sla"`
}

// CalendarConfig describes the working hours used for SLA deadlines.
type CalendarConfig struct {
	Timezone string   `yaml:"timezone"`
	DayStart string   `yaml:"day_start" validate:"omitempty,datetime=15:04"`
	DayEnd   string   `yaml:"day_end" validate:"omitempty,datetime=15:04"`
	Weekdays []string `yaml:"weekdays" validate:"dive,oneof=sunday monday tuesday wednesday thursday friday saturday"`
	Holidays []string `yaml:"holidays" validate:"dive,datetime=2006-01-02"`
}

// SLAConfig controls the background deadline scan.
type SLAConfig struct {
	Schedule string `yaml:"schedule"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Calendar: CalendarConfig{
			Timezone: "UTC",
			DayStart: "09:00",
			DayEnd:   "17:00",
			Weekdays: []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		},
		Roles:     map[string][]string{},
		AdminRole: "admin",
		SLA:       SLAConfig{Schedule: "@every 5m"},
	}
}

// LoadConfig loads configuration from a YAML file. Missing sections keep their defaults.
func LoadConfig(filepath string) (Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", filepath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadConfigOrDefault loads path when it is set and falls back to Default otherwise.
func LoadConfigOrDefault(filepath string) (Config, error) {
	if filepath == "" {
		return Default(), nil
	}

	return LoadConfig(filepath)
}

// Validate checks field formats.
func (c Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}

	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// ClockCalendar converts the calendar section into a clock.Calendar.
func (c Config) ClockCalendar() (clock.Calendar, error) {
	cal := clock.DefaultCalendar()

	if c.Calendar.Timezone != "" {
		loc, err := time.LoadLocation(c.Calendar.Timezone)
		if err != nil {
			return clock.Calendar{}, fmt.Errorf("calendar timezone: %w", err)
		}

		cal.Location = loc
	}

	if c.Calendar.DayStart != "" {
		d, err := clockOffset(c.Calendar.DayStart)
		if err != nil {
			return clock.Calendar{}, fmt.Errorf("calendar day_start: %w", err)
		}

		cal.DayStart = d
	}

	if c.Calendar.DayEnd != "" {
		d, err := clockOffset(c.Calendar.DayEnd)
		if err != nil {
			return clock.Calendar{}, fmt.Errorf("calendar day_end: %w", err)
		}

		cal.DayEnd = d
	}

	if cal.DayEnd <= cal.DayStart {
		return clock.Calendar{}, errors.New("calendar day_end must be after day_start")
	}

	if len(c.Calendar.Weekdays) > 0 {
		cal.Weekdays = cal.Weekdays[:0:0]

		for _, name := range c.Calendar.Weekdays {
			day, ok := weekdays[strings.ToLower(name)]
			if !ok {
				return clock.Calendar{}, fmt.Errorf("calendar weekday %q unknown", name)
			}

			cal.Weekdays = append(cal.Weekdays, day)
		}
	}

	for _, h := range c.Calendar.Holidays {
		day, err := time.ParseInLocation("2006-01-02", h, cal.Location)
		if err != nil {
			return clock.Calendar{}, fmt.Errorf("calendar holiday %q: %w", h, err)
		}

		cal.Holidays = append(cal.Holidays, day)
	}

	return cal, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func clockOffset(hhmm string) (time.Duration, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}

	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
