package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the
// configuration. Pattern: CPROOF_[SECTION]_[KEY]
// (e.g., CPROOF_API_ANNOTATOR_URL).
func ApplyEnvOverrides(cfg *Config) {
	// API
	setEnvString(&cfg.API.AnnotatorURL, "CPROOF_API_ANNOTATOR_URL")
	setEnvString(&cfg.API.VerifierURL, "CPROOF_API_VERIFIER_URL")
	setEnvString(&cfg.API.AuthToken, "CPROOF_API_AUTH_TOKEN")
	setEnvDuration(&cfg.API.Timeout, "CPROOF_API_TIMEOUT")
	setEnvBool(&cfg.API.Rate.Enabled, "CPROOF_API_RATE_ENABLED")
	setEnvFloat64(&cfg.API.Rate.RequestsPerSecond, "CPROOF_API_RATE_REQUESTS_PER_SECOND")
	setEnvInt(&cfg.API.Rate.Burst, "CPROOF_API_RATE_BURST")

	// Verification
	setEnvBoolPtr(&cfg.Verification.InlineDependencies, "CPROOF_VERIFICATION_INLINE_DEPENDENCIES")
	setEnvBool(&cfg.Verification.PreserveTempArtifacts, "CPROOF_VERIFICATION_PRESERVE_TEMP_ARTIFACTS")
	setEnvInt64(&cfg.Verification.MaxFileSize, "CPROOF_VERIFICATION_MAX_FILE_SIZE")

	// Paths
	setEnvString(&cfg.Paths.ProjectRoot, "CPROOF_PATHS_PROJECT_ROOT")
	setEnvString(&cfg.Paths.TempDir, "CPROOF_PATHS_TEMP_DIR")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "CPROOF_WATCH_DEBOUNCE")

	// Observability
	setEnvBool(&cfg.Observability.Enabled, "CPROOF_OBSERVABILITY_ENABLED")
	setEnvInt(&cfg.Observability.Port, "CPROOF_OBSERVABILITY_PORT")
	setEnvString(&cfg.Observability.OTLPEndpoint, "CPROOF_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.EnableTracing, "CPROOF_OBSERVABILITY_ENABLE_TRACING")
	setEnvBool(&cfg.Observability.EnableMetrics, "CPROOF_OBSERVABILITY_ENABLE_METRICS")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		log.Printf("Applying env override: %s=%s", key, val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = i
		}
	}
}

func setEnvInt64(target *int64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			log.Printf("Applying env override: %s=%s", key, val)
			*target = d
		}
	}
}
