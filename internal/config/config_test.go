package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/vmatch/internal/config"
	"github.com/okian/vmatch/internal/domain/matching"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.CatalogDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.RegistryDriver, convey.ShouldEqual, config.DriverMemory)
			convey.So(cfg.SeedDemoData, convey.ShouldBeTrue)
			convey.So(cfg.StoreTimeout(), convey.ShouldEqual, 3*time.Second)
		})

		convey.Convey("And the default policy is strict majority", func() {
			p, err := cfg.Policy()
			convey.So(err, convey.ShouldBeNil)
			convey.So(p, convey.ShouldEqual, matching.StrictMajority)
		})

		convey.Convey("And it should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configurations", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":        func(c *config.Config) { c.Addr = "" },
			"zero queue":        func(c *config.Config) { c.QueueSize = 0 },
			"zero workers":      func(c *config.Config) { c.WorkerCount = 0 },
			"zero timeout":      func(c *config.Config) { c.StoreTimeoutMS = 0 },
			"unknown policy":    func(c *config.Config) { c.EligibilityPolicy = "majority-ish" },
			"unknown catalog":   func(c *config.Config) { c.CatalogDriver = "sqlite" },
			"unknown registry":  func(c *config.Config) { c.RegistryDriver = "etcd" },
			"postgres no dsn":   func(c *config.Config) { c.CatalogDriver = config.DriverPostgres },
			"redis no addr":     func(c *config.Config) { c.RegistryDriver, c.RedisAddr = config.DriverRedis, "" },
			"postgres registry": func(c *config.Config) { c.RegistryDriver, c.PostgresDSN = config.DriverPostgres, "postgres://x" },
		}
		for name, mutate := range cases {
			convey.Convey("When "+name, func() {
				cfg := config.New(context.Background())
				mutate(cfg)

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}
	})
}
