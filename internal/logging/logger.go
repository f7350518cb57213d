package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init installs the process-wide slog logger. Production gets JSON lines at
// info level, everything else the text handler at debug. A non-empty level
// ("debug", "info", "warn", "error") overrides the environment default.
func Init(environment, level string) {
	slog.SetDefault(slog.New(newHandler(environment, level)))
}

func newHandler(environment, level string) slog.Handler {
	production := strings.EqualFold(environment, "production")

	opts := &slog.HandlerOptions{Level: parseLevel(level, production)}
	if production {
		return slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.NewTextHandler(os.Stdout, opts)
}

func parseLevel(level string, production bool) slog.Level {
	var parsed slog.Level
	if level != "" && parsed.UnmarshalText([]byte(level)) == nil {
		return parsed
	}
	if production {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// WithTool returns a logger carrying the tool name and caller identity.
func WithTool(toolName, userID, orgID string) *slog.Logger {
	return slog.With(
		"tool", toolName,
		"user_id", userID,
		"org_id", orgID,
	)
}

// WithSession scopes a logger to a session and the branch it is on.
func WithSession(logger *slog.Logger, sessionID, branch string) *slog.Logger {
	return logger.With(
		"session_id", sessionID,
		"branch", branch,
	)
}
