package config

import (
	"flag"
	"os"
	"time"

	"pixvault/internal/flagx"
)

// serverFlags lists the flags this component owns. os.Args is filtered to
// this set before parsing so other components can define their own flags.
var serverFlags = []string{
	"-a", "-d", "-s", "-t",
	"-pending-ttl", "-resend-ttl", "-signed-url-ttl", "-retention-days",
	"-s3-access-key", "-s3-secret-key", "-s3-bucket", "-s3-region",
	"-s3-endpoint", "-s3-public-endpoint",
	"-smtp-host", "-smtp-port", "-smtp-user", "-smtp-password", "-smtp-from",
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Duration flags are accepted as integers in minutes and converted to
// time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	pendingCodeTTL := fs.Int("pending-ttl", int(config.PendingCodeTTL.Minutes()), "verification code validity at signup (in minutes)")
	resendCodeTTL := fs.Int("resend-ttl", int(config.ResendCodeTTL.Minutes()), "verification code validity on resend (in minutes)")
	signedURLTTL := fs.Int("signed-url-ttl", int(config.SignedURLTTL.Seconds()), "signed image URL validity (in seconds)")

	fs.IntVar(&config.ImageRetentionDays, "retention-days", config.ImageRetentionDays, "days before soft-deleted images are purged")

	fs.StringVar(&config.S3AccessKey, "s3-access-key", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "s3-secret-key", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "s3-bucket", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "s3-region", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "s3-endpoint", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3PublicEndpoint, "s3-public-endpoint", config.S3PublicEndpoint, "externally reachable S3 endpoint for signed URLs")

	fs.StringVar(&config.SMTPHost, "smtp-host", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "smtp-port", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SMTPUser, "smtp-user", config.SMTPUser, "SMTP user")
	fs.StringVar(&config.SMTPPassword, "smtp-password", config.SMTPPassword, "SMTP password")
	fs.StringVar(&config.SMTPFrom, "smtp-from", config.SMTPFrom, "sender address for verification emails")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	config.PendingCodeTTL = time.Duration(*pendingCodeTTL) * time.Minute
	config.ResendCodeTTL = time.Duration(*resendCodeTTL) * time.Minute
	config.SignedURLTTL = time.Duration(*signedURLTTL) * time.Second
}
