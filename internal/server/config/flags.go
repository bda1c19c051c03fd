package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/flagx"
)

var knownFlags = []string{
	"-a", "-l", "-d", "-s", "-k", "-m", "-t", "-r", "-i", "-w", "-o", "-x", "-z",
	"-u", "-p", "-b", "-g", "-e", "-f", "-n",
}

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     gRPC bind address (e.g., ":50051")
//	-l string     HTTP bind address (e.g., ":8080")
//	-d string     PostgreSQL DSN
//	-s string     JWT HMAC secret key
//	-k string     encryption secret
//	-m string     environment ("production" forbids the fallback key)
//	-t int        access token validity, minutes
//	-r int        refresh token validity, minutes
//	-i duration   revalidation interval (e.g., "5m")
//	-w int        revalidation workers
//	-o string     breach oracle base URL
//	-x duration   breach oracle timeout
//	-z duration   backup interval, 0 disables backups
//	-u string     S3 root user
//	-p string     S3 root password
//	-b string     S3 bucket name
//	-g string     S3 region
//	-e string     S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-f string     log format, json or text
//	-n string     comma separated CORS origins
//
// args is first filtered down to the flags recognized here using
// flagx.FilterArgs, so -c/-config and foreign flags pass through untouched.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "l", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "jwt secret key")
	fs.StringVar(&config.EncryptionSecret, "k", config.EncryptionSecret, "encryption secret")
	fs.StringVar(&config.Environment, "m", config.Environment, "environment")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.DurationVar(&config.CheckInterval, "i", config.CheckInterval, "revalidation interval")
	fs.IntVar(&config.CheckWorkers, "w", config.CheckWorkers, "revalidation workers")
	fs.StringVar(&config.OracleBaseURL, "o", config.OracleBaseURL, "breach oracle base URL")
	fs.DurationVar(&config.OracleTimeout, "x", config.OracleTimeout, "breach oracle timeout")
	fs.DurationVar(&config.BackupInterval, "z", config.BackupInterval, "backup interval")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format (json|text)")
	origins := fs.String("n", strings.Join(config.AllowedOrigins, ","), "allowed CORS origins, comma separated")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
	config.AllowedOrigins = splitOrigins(*origins)
	return nil
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
