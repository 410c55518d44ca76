package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type lookupFunc func(key string) (string, bool)

// envLookup reads variables from the process environment, falling back to
// dotenvPath. A missing dotenv file is not an error.
func envLookup(dotenvPath string) lookupFunc {
	file, err := godotenv.Read(dotenvPath)
	if err != nil {
		file = map[string]string{}
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}
}

// parseEnv overlays every variable that is set. Durations use
// time.ParseDuration syntax; malformed values panic like the other layers.
func parseEnv(config *Config, lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(fmt.Errorf("%s: %w", key, err))
			}
			*dst = d
		}
	}

	str("HTTP_ADDRESS", &config.HTTPAddress)
	str("GRPC_ADDRESS", &config.GRPCAddress)
	str("DATABASE_URL", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	dur("ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration)
	dur("REFRESH_TOKEN_TTL", &config.RefreshTokenValidityDuration)
	if v, ok := lookup("POSTS_PER_PAGE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("POSTS_PER_PAGE: %w", err))
		}
		config.PostsPerPage = n
	}
	str("LOG_LEVEL", &config.LogLevel)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
}
