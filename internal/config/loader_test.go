package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/relay/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"RELAY_CONFIG",
	"RELAY_ADDR",
	"RELAY_LOG_LEVEL",
	"RELAY_LOG_FORMAT",
	"RELAY_SOLVER_TIMEOUT_MS",
	"RELAY_SOLVER_MAX_NODES",
	"RELAY_JOB_QUEUE_SIZE",
	"RELAY_DEFAULT_TEAM_SIZE",
	"RELAY_DEFAULT_MIN_WOMEN",
	"RELAY_DATASET_PATH",
}

func clearConfigEnvVars() {
	for _, name := range configEnvVars {
		_ = os.Unsetenv(name)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigDefaults(t *testing.T) {
	convey.Convey("Given a new config", t, func() {
		cfg := config.New()

		convey.Convey("Then it carries usable defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.SolverTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.ShutdownTimeout(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.DefaultTeamSize, convey.ShouldEqual, 4)
			convey.So(cfg.DefaultMinWomen, convey.ShouldEqual, 1)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When minimum women exceeds the team size", func() {
			cfg.DefaultMinWomen = 5

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then the defaults are returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When environment variables are set", func() {
			_ = os.Setenv("RELAY_ADDR", ":8080")
			_ = os.Setenv("RELAY_SOLVER_TIMEOUT_MS", "1500")
			_ = os.Setenv("RELAY_LOG_FORMAT", "JSON")
			_ = os.Setenv("RELAY_DATASET_PATH", "/data/roster.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then they override the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SolverTimeout(), convey.ShouldEqual, 1500*time.Millisecond)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.DatasetPath, convey.ShouldEqual, "/data/roster.yaml")
			})
		})

		convey.Convey("When a YAML file and env vars are both present", func() {
			path := writeConfigFile(t, `
addr: ":9090"
solver_max_nodes: 5000
default_team_size: 5
default_min_women: 2
`)
			_ = os.Setenv("RELAY_CONFIG", path)
			_ = os.Setenv("RELAY_SOLVER_MAX_NODES", "750")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env wins over file and file wins over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.SolverMaxNodes, convey.ShouldEqual, 750)
				convey.So(cfg.DefaultTeamSize, convey.ShouldEqual, 5)
				convey.So(cfg.DefaultMinWomen, convey.ShouldEqual, 2)
				convey.So(cfg.JobQueueSize, convey.ShouldEqual, config.New().JobQueueSize)
			})
		})

		convey.Convey("When the YAML file is broken", func() {
			_ = os.Setenv("RELAY_CONFIG", writeConfigFile(t, `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file does not exist", func() {
			_ = os.Setenv("RELAY_CONFIG", "/non/existent/relay.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When addr is blanked out", func() {
			_ = os.Setenv("RELAY_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a number does not parse", func() {
			_ = os.Setenv("RELAY_JOB_QUEUE_SIZE", "lots")

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}
