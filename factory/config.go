/*
Package factory builds engine configuration from data files.

PURPOSE:
  Holiday tables and statutory thresholds change without code changes:
  holidays are gazetted every year, and the day thresholds are legislation.
  This package loads both from YAML/JSON files so deployments can swap them
  out; the built-in nz package remains the no-file default.

HOLIDAY FILE SCHEMA (YAML or JSON, year-keyed):
  years:
    2026:
      national: ["2026-01-01", "2026-02-06"]
      regional:
        auckland: "2026-01-26"
        wellington: "2026-01-19"

STATUTE FILE SCHEMA (only set what changes; the rest keeps RTA defaults):
  strike_threshold_working_days: 5
  arrears_termination_days: 21
  strike_window_days: 90
  filing_window_days: 28
  remedy_window_days: 14
  service_cutoff_hour: 17
  blackout_start: "12-25"
  blackout_end: "01-15"

SEE ALSO:
  - engine/workday.go: HolidayProvider consumed by the calendar
  - engine/statute.go: Statute defaults the overrides merge onto
  - nz/holidays.go: Built-in tables used when no file is configured
*/
package factory

import (
	"fmt"
	"sort"
	"time"

	"dario.cat/mergo"
	"github.com/spf13/viper"

	"github.com/ronven594/rentally-sub000/engine"
)

// =============================================================================
// HOLIDAY TABLES
// =============================================================================

// Table is a file-loaded, year-keyed holiday table.
type Table struct {
	years map[int]engine.YearHolidays
}

var _ engine.HolidayProvider = (*Table)(nil)

func (t *Table) HolidaysFor(year int) (engine.YearHolidays, bool) {
	table, ok := t.years[year]
	return table, ok
}

func (t *Table) Years() []int {
	years := make([]int, 0, len(t.years))
	for y := range t.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

type holidayFile struct {
	Years map[int]holidayYear `mapstructure:"years"`
}

type holidayYear struct {
	National []string          `mapstructure:"national"`
	Regional map[string]string `mapstructure:"regional"`
}

// LoadHolidayTable reads a year-keyed holiday file.
func LoadHolidayTable(path string) (*Table, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read holiday table %s: %w", path, err)
	}

	var file holidayFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("parse holiday table %s: %w", path, err)
	}
	if len(file.Years) == 0 {
		return nil, fmt.Errorf("holiday table %s: no years defined", path)
	}

	table := &Table{years: make(map[int]engine.YearHolidays, len(file.Years))}
	for year, raw := range file.Years {
		parsed := engine.YearHolidays{Regional: make(map[engine.Region]engine.TimePoint, len(raw.Regional))}
		for _, s := range raw.National {
			tp, err := engine.ParseDate(s)
			if err != nil {
				return nil, fmt.Errorf("holiday table %s, year %d: %w", path, year, err)
			}
			parsed.National = append(parsed.National, tp)
		}
		for region, s := range raw.Regional {
			tp, err := engine.ParseDate(s)
			if err != nil {
				return nil, fmt.Errorf("holiday table %s, year %d, region %s: %w", path, year, region, err)
			}
			parsed.Regional[engine.Region(region)] = tp
		}
		table.years[year] = parsed
	}
	return table, nil
}

// =============================================================================
// STATUTE OVERRIDES
// =============================================================================

type statuteFile struct {
	StrikeThresholdWorkingDays int    `mapstructure:"strike_threshold_working_days"`
	ArrearsTerminationDays     int    `mapstructure:"arrears_termination_days"`
	StrikeWindowDays           int    `mapstructure:"strike_window_days"`
	FilingWindowDays           int    `mapstructure:"filing_window_days"`
	RemedyWindowDays           int    `mapstructure:"remedy_window_days"`
	ServiceCutoffHour          int    `mapstructure:"service_cutoff_hour"`
	BlackoutStart              string `mapstructure:"blackout_start"`
	BlackoutEnd                string `mapstructure:"blackout_end"`
}

// LoadStatute reads threshold overrides and merges them over the defaults.
// Fields absent from the file keep their DefaultStatute values.
func LoadStatute(path string) (engine.Statute, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return engine.Statute{}, fmt.Errorf("read statute config %s: %w", path, err)
	}

	var file statuteFile
	if err := v.Unmarshal(&file); err != nil {
		return engine.Statute{}, fmt.Errorf("parse statute config %s: %w", path, err)
	}

	override := engine.Statute{
		StrikeThresholdWorkingDays: file.StrikeThresholdWorkingDays,
		ArrearsTerminationDays:     file.ArrearsTerminationDays,
		StrikeWindowDays:           file.StrikeWindowDays,
		FilingWindowDays:           file.FilingWindowDays,
		RemedyWindowDays:           file.RemedyWindowDays,
		ServiceCutoffHour:          file.ServiceCutoffHour,
	}
	var err error
	if file.BlackoutStart != "" {
		if override.BlackoutStart, err = parseMonthDay(file.BlackoutStart); err != nil {
			return engine.Statute{}, fmt.Errorf("statute config %s: blackout_start: %w", path, err)
		}
	}
	if file.BlackoutEnd != "" {
		if override.BlackoutEnd, err = parseMonthDay(file.BlackoutEnd); err != nil {
			return engine.Statute{}, fmt.Errorf("statute config %s: blackout_end: %w", path, err)
		}
	}

	statute := engine.DefaultStatute()
	if err := mergo.Merge(&statute, override, mergo.WithOverride); err != nil {
		return engine.Statute{}, fmt.Errorf("merge statute overrides: %w", err)
	}
	return statute, nil
}

// parseMonthDay parses "MM-DD".
func parseMonthDay(s string) (engine.MonthDay, error) {
	t, err := time.Parse("01-02", s)
	if err != nil {
		return engine.MonthDay{}, fmt.Errorf("invalid month-day %q (want MM-DD)", s)
	}
	return engine.MonthDay{Month: t.Month(), Day: t.Day()}, nil
}
