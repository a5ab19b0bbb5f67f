package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/vmatch/internal/adapters/http/api"
	"github.com/okian/vmatch/internal/adapters/http/swagger"
	app "github.com/okian/vmatch/internal/app"
	"github.com/okian/vmatch/internal/config"
	"github.com/okian/vmatch/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			_ = os.Setenv("VMATCH_ADDR", ":8080")
			_ = os.Setenv("VMATCH_QUEUE_SIZE", "1000")
			_ = os.Setenv("VMATCH_WORKER_COUNT", "4")
			defer func() {
				_ = os.Unsetenv("VMATCH_ADDR")
				_ = os.Unsetenv("VMATCH_QUEUE_SIZE")
				_ = os.Unsetenv("VMATCH_WORKER_COUNT")
			}()

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When opening the default stores", func() {
			ctx := context.Background()
			st, err := openStores(ctx, config.New(ctx), logger.Get())
			convey.So(err, convey.ShouldBeNil)
			defer st.close()

			convey.Convey("Then everything is served from memory with demo data", func() {
				vols, err := st.catalog.ListVolunteers(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(vols), convey.ShouldEqual, 3)
				convey.So(st.registrations, convey.ShouldNotBeNil)
				convey.So(st.notifications, convey.ShouldNotBeNil)
				convey.So(st.history, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When seeding is disabled", func() {
			ctx := context.Background()
			cfg := config.New(ctx)
			cfg.SeedDemoData = false
			st, err := openStores(ctx, cfg, logger.Get())
			convey.So(err, convey.ShouldBeNil)
			defer st.close()

			convey.Convey("Then the catalog starts empty", func() {
				events, err := st.catalog.ListEvents(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(events, convey.ShouldBeEmpty)
			})
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should return when the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics updater", func() {
			svc := app.New()

			convey.Convey("Then it should return when the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When updating metrics directly", func() {
			svc := app.New()
			convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given the assembled application", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		st, err := openStores(ctx, config.New(ctx), logger.Get())
		convey.So(err, convey.ShouldBeNil)
		defer st.close()

		svc := app.New(
			app.WithWorkerCount(2),
			app.WithCatalog(st.catalog),
			app.WithRegistrations(st.registrations),
			app.WithNotifications(st.notifications),
			app.WithHistory(st.history),
		)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		mux := http.NewServeMux()
		swagger.Register(ctx, mux)
		api.NewServer(svc, svc).Register(ctx, mux)

		convey.Convey("When a volunteer is matched over HTTP", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/match", strings.NewReader(`{"volunteerId":1,"eventId":101}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			convey.Convey("Then the registration is committed", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"matched":true`)
			})
		})

		convey.Convey("When the docs are requested", func() {
			req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", http.NoBody)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestMainApplicationErrorHandling(t *testing.T) {
	convey.Convey("Given main application error handling", t, func() {
		convey.Convey("When testing invalid configuration", func() {
			_ = os.Setenv("VMATCH_ADDR", "")
			defer func() { _ = os.Unsetenv("VMATCH_ADDR") }()

			convey.Convey("Then configuration loading should fail", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When redis is selected but unreachable", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			cfg := config.New(ctx)
			cfg.RegistryDriver = config.DriverRedis
			cfg.RedisAddr = "127.0.0.1:1"

			convey.Convey("Then opening the stores fails", func() {
				st, err := openStores(ctx, cfg, logger.Get())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(st, convey.ShouldBeNil)
			})
		})

		convey.Convey("When testing service creation with invalid options", func() {
			svc := app.New(
				app.WithWorkerCount(0),
				app.WithQueueSize(0),
			)

			convey.Convey("Then defaults are kept", func() {
				stats := svc.GetStats()
				convey.So(stats["workerCount"], convey.ShouldEqual, 4)
				convey.So(stats["queueCapacity"], convey.ShouldEqual, 10_000)
			})
		})
	})
}
