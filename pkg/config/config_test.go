package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "workdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
calendar:
  timezone: Europe/Berlin
  day_start: "08:30"
  day_end: "16:00"
  weekdays: [monday, tuesday]
  holidays: ["2025-12-25"]
roles:
  reviewer: [alice, bob]
  approver: [carol]
sla:
  schedule: "@every 1m"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "bob"}, cfg.Roles["reviewer"])
	assert.Equal(t, "@every 1m", cfg.SLA.Schedule)

	cal, err := cfg.ClockCalendar()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", cal.Location.String())
	assert.Equal(t, 8*time.Hour+30*time.Minute, cal.DayStart)
	assert.Equal(t, 16*time.Hour, cal.DayEnd)
	assert.Equal(t, []time.Weekday{time.Monday, time.Tuesday}, cal.Weekdays)
	require.Len(t, cal.Holidays, 1)
	assert.Equal(t, time.December, cal.Holidays[0].Month())
}

func TestLoadConfig_KeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
roles:
  reviewer: [alice]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "@every 5m", cfg.SLA.Schedule)
	assert.Equal(t, "09:00", cfg.Calendar.DayStart)
	assert.Equal(t, "admin", cfg.AdminRole)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad time", "calendar:\n  day_start: \"9am\"\n"},
		{"bad weekday", "calendar:\n  weekdays: [funday]\n"},
		{"bad holiday", "calendar:\n  holidays: [\"25/12/2025\"]\n"},
		{"empty member", "roles:\n  reviewer: [\"\"]\n"},
		{"empty admin role", "admin_role: \"\"\n"},
		{"not yaml", "roles: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestClockCalendar_RejectsInvertedDay(t *testing.T) {
	cfg := Default()
	cfg.Calendar.DayStart = "18:00"

	_, err := cfg.ClockCalendar()
	assert.Error(t, err)
}

func TestLoadConfigOrDefault(t *testing.T) {
	cfg, err := LoadConfigOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
