package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestNewConfig(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := newConfig()

		convey.Convey("Then it matches the original deployment", func() {
			convey.So(cfg.FreshnessWindow, convey.ShouldEqual, 24*time.Hour)
			convey.So(cfg.UpstreamURL, convey.ShouldEqual, "https://financialmodelingprep.com/api/v3/income-statement")
			convey.So(cfg.DatabaseURL, convey.ShouldEqual, "financial_data.db")
			convey.So(cfg.CORSOrigin, convey.ShouldEqual, "https://jessica-ix.github.io/ValueGlance-fronend")
			convey.So(cfg.RedisAddr, convey.ShouldBeEmpty)
			convey.So(cfg.validate(), convey.ShouldBeNil)
		})
	})
}

func TestLoadConfig(t *testing.T) {
	convey.Convey("Given environment overrides", t, func() {
		t.Setenv(configFileEnv, "")
		t.Setenv("API_KEY", "env-key")
		t.Setenv("DATABASE_URL", "postgres://u:p@db/finance")
		t.Setenv("FRESHNESS_WINDOW", "2h")
		t.Setenv("DB_MAX_OPEN_CONNS", "3")

		cfg, err := loadConfig()
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then env values win over defaults", func() {
			convey.So(cfg.APIKey, convey.ShouldEqual, "env-key")
			convey.So(cfg.DatabaseURL, convey.ShouldEqual, "postgres://u:p@db/finance")
			convey.So(cfg.FreshnessWindow, convey.ShouldEqual, 2*time.Hour)
			convey.So(cfg.DBMaxOpenConns, convey.ShouldEqual, 3)
		})

		convey.Convey("Then untouched keys keep their defaults", func() {
			convey.So(cfg.UpstreamTimeout, convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.RedisTTL, convey.ShouldEqual, time.Hour)
		})
	})

	convey.Convey("Given a YAML config file", t, func() {
		path := filepath.Join(t.TempDir(), "incomewatch.yaml")
		err := os.WriteFile(path, []byte("addr: \":8088\"\ncors_origin: https://app.example\nredis_addr: localhost:6379\n"), 0o600)
		convey.So(err, convey.ShouldBeNil)
		t.Setenv(configFileEnv, path)

		cfg, err := loadConfig()
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":8088")
		convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
		convey.So(cfg.CORSOrigin, convey.ShouldEqual, "https://app.example")
	})

	convey.Convey("Given an invalid freshness window", t, func() {
		t.Setenv(configFileEnv, "")
		t.Setenv("FRESHNESS_WINDOW", "0s")

		_, err := loadConfig()
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "freshness_window")
	})

	convey.Convey("Given a missing config file", t, func() {
		t.Setenv(configFileEnv, filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := loadConfig()
		convey.So(err, convey.ShouldNotBeNil)
	})
}
