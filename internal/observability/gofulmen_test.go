package observability

import (
	"testing"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
)

func TestLoggerInitialization(t *testing.T) {
	origCLI, origServer := CLILogger, ServerLogger
	t.Cleanup(func() {
		CLILogger, ServerLogger = origCLI, origServer
	})

	t.Run("NoLoggers", func(t *testing.T) {
		CLILogger, ServerLogger = nil, nil
		if Logger() != nil {
			t.Fatal("Logger should be nil before initialization")
		}
	})

	t.Run("CLI logger creation", func(t *testing.T) {
		InitCLILogger("resumeforge-test", true)

		if CLILogger == nil {
			t.Fatal("CLI logger should not be nil after initialization")
		}
		if Logger() != CLILogger {
			t.Fatal("Logger should fall back to the CLI logger")
		}

		CLILogger.Debug("Test CLI log message", zap.String("test", "value"))
	})

	t.Run("Server logger takes precedence", func(t *testing.T) {
		t.Setenv(EnvironmentVar, "test")
		InitServerLogger("resumeforge-test", "warn", "resumeforge")

		if ServerLogger == nil {
			t.Fatal("Server logger should not be nil after initialization")
		}
		if Logger() != ServerLogger {
			t.Fatal("Logger should prefer the server logger")
		}

		ServerLogger.Warn("Test structured log message",
			zap.String("component", "test"),
			zap.Int("request_id", 123))
	})
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]string{
		"trace":    "TRACE",
		"DEBUG":    "DEBUG",
		" info ":   "INFO",
		"warning":  "WARN",
		"error":    "ERROR",
		"nonsense": "INFO",
		"":         "INFO",
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEnvironment(t *testing.T) {
	t.Setenv(EnvironmentVar, "")
	if got := environment(); got != "production" {
		t.Errorf("environment() = %q, want production", got)
	}
	t.Setenv(EnvironmentVar, "staging")
	if got := environment(); got != "staging" {
		t.Errorf("environment() = %q, want staging", got)
	}
}

// TestGofulmenCrucibleIntegration verifies that gofulmen properly uses embedded crucible
func TestGofulmenCrucibleIntegration(t *testing.T) {
	t.Run("Crucible version access", func(t *testing.T) {
		version := crucible.GetVersion()

		if version.Gofulmen == "" {
			t.Error("Gofulmen version should not be empty")
		}
		if version.Crucible == "" {
			t.Error("Crucible version should not be empty")
		}
	})

	t.Run("Logger uses crucible schemas for validation", func(t *testing.T) {
		config := &logging.LoggerConfig{
			Profile:      logging.ProfileSimple,
			DefaultLevel: "INFO",
			Service:      "schema-test",
			Environment:  "test",
			Sinks: []logging.SinkConfig{
				{
					Type:   "console",
					Format: "console",
					Console: &logging.ConsoleSinkConfig{
						Stream:   "stderr",
						Colorize: false,
					},
				},
			},
		}

		logger, err := logging.New(config)
		if err != nil {
			t.Fatalf("Failed to create logger (schema validation failed): %v", err)
		}
		if logger == nil {
			t.Fatal("Logger should not be nil after creation")
		}
	})
}
