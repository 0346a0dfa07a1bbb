package logger

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// instanceID labels records from this process. When the deployment doesn't
// inject one, derive it from the host plus a random suffix so replicas stay
// distinguishable.
func instanceID(v string) string {
	if v != "" {
		return v
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "messaging"
	}
	return host + "-" + uuid.NewString()[:8]
}

func serviceAttrs(cfg Config) []slog.Attr {
	return []slog.Attr{
		slog.String("service", cfg.Service),
		slog.String("version", cfg.Version),
		slog.String("env", string(cfg.Env)),
		slog.String("instance_id", cfg.InstanceID),
	}
}
