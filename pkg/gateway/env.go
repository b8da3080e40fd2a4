package gateway

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvChatTimeout overrides the per-attempt deadline, in whole seconds.
const EnvChatTimeout = "VOXGATE_CHAT_TIMEOUT"

// LoadEnvFile loads environment variables from the given dotenv files
// (default ".env") without overriding variables already set. Call it before
// Load when API keys or the timeout override live in a dotenv file.
func LoadEnvFile(paths ...string) error {
	return godotenv.Load(paths...)
}

// TimeoutFromEnv returns the per-attempt deadline: EnvChatTimeout when it
// holds a positive integer, DefaultAttemptTimeout otherwise.
func TimeoutFromEnv() time.Duration {
	v := os.Getenv(EnvChatTimeout)
	if v == "" {
		return DefaultAttemptTimeout
	}

	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return DefaultAttemptTimeout
	}

	return time.Duration(secs) * time.Second
}
