package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type DatabaseCfg struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type SourceCfg struct {
	// Dir holds the four legacy CSV exports (DB_CLIENTES.csv etc.).
	Dir string `mapstructure:"dir"`
}

// DefaultsCfg carries the values applied when the legacy export is silent.
type DefaultsCfg struct {
	AppointmentDurationMin int    `mapstructure:"appointment_duration_min"`
	ServiceDurationMin     int    `mapstructure:"service_duration_min"`
	ServiceModality        string `mapstructure:"service_modality"`
	CalendarColor          string `mapstructure:"calendar_color"`
	PlaceholderPassword    string `mapstructure:"placeholder_password"`
	MinClinicalNoteLen     int    `mapstructure:"min_clinical_note_len"`
	PaymentMethodID        int64  `mapstructure:"payment_method_id"`
	LocationID             int64  `mapstructure:"location_id"`
}

type VerifyCfg struct {
	// FinancialTolerance is the allowed absolute gap, in whole pesos, between
	// precio_cobrado and the sum of its parts before a row is flagged.
	FinancialTolerance int `mapstructure:"financial_tolerance"`
}

type LoggingCfg struct {
	Level  string `mapstructure:"level"`
	RunLog string `mapstructure:"run_log"`
}

type Config struct {
	Database DatabaseCfg `mapstructure:"database"`
	Source   SourceCfg   `mapstructure:"source"`
	Defaults DefaultsCfg `mapstructure:"defaults"`
	Verify   VerifyCfg   `mapstructure:"verify"`
	Logging  LoggingCfg  `mapstructure:"logging"`
}

var cfg *Config

// Load populates global config from a viper instance
func Load(v *viper.Viper) error {
	// set defaults
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("source.dir", "./csv_exports")
	v.SetDefault("defaults.appointment_duration_min", 60)
	v.SetDefault("defaults.service_duration_min", 60)
	v.SetDefault("defaults.service_modality", "PRESENCIAL")
	v.SetDefault("defaults.calendar_color", "#3B82F6")
	v.SetDefault("defaults.placeholder_password", "temp1234")
	v.SetDefault("defaults.min_clinical_note_len", 20)
	v.SetDefault("defaults.payment_method_id", 1)
	v.SetDefault("defaults.location_id", 1)
	v.SetDefault("verify.financial_tolerance", 100)
	v.SetDefault("logging.level", "info")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	cfg = &c
	return nil
}

func Get() *Config {
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg
}
