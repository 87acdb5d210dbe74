package config

import (
	"fmt"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL          string `env:"DB_URI,required"`
	DatabaseName string `env:"DB_NAME" envDefault:"membership"`
	BaseURL      string `env:"BASE_URL"`
	Port         string `env:"PORT" envDefault:"8080"`

	DiscordBotToken        string `env:"DISCORD_BOT_TOKEN,required"`
	DiscordGuildID         string `env:"DISCORD_GUILD_ID,required"`
	DiscordInviteChannelID string `env:"DISCORD_INVITE_CHANNEL_ID,required"`

	MerchantAccount string `env:"WAYFORPAY_MERCHANT_ACCOUNT"`
	MerchantSecret  string `env:"WAYFORPAY_MERCHANT_SECRET"`
	MerchantDomain  string `env:"WAYFORPAY_MERCHANT_DOMAIN" envDefault:"upworkrevolution.com"`

	SendgridAPIKey string `env:"SENDGRID_API_KEY"`
	MailFromName   string `env:"MAIL_FROM_NAME" envDefault:"Upwork Revolution"`
	MailFromEmail  string `env:"MAIL_FROM_EMAIL" envDefault:"info@mail.upworkrevolution.com"`

	// Subscription policy knobs. The scheduler windows are derived from
	// these instead of constants scattered across the jobs.
	WarningLeadDays      int           `env:"WARNING_LEAD_DAYS" envDefault:"30"`
	HardExpiryDays       int           `env:"HARD_EXPIRY_DAYS" envDefault:"40"`
	GraceWindow          time.Duration `env:"GRACE_WINDOW" envDefault:"1h"`
	ProvisionalGrantDays int           `env:"PROVISIONAL_GRANT_DAYS" envDefault:"1"`

	WarningCronSpec     string `env:"WARNING_CRON_SPEC" envDefault:"0 */6 * * *"`
	ExpiryCronSpec      string `env:"EXPIRY_CRON_SPEC" envDefault:"30 3 * * *"`
	WarnedResetCronSpec string `env:"WARNED_RESET_CRON_SPEC" envDefault:"0 4 * * *"`
	FulfillmentCronSpec string `env:"FULFILLMENT_CRON_SPEC" envDefault:"@every 1m"`
}

// New sets up all config related services
func New() (*Config, error) {

	// .env is optional, real deployments configure through the environment
	_ = godotenv.Load()

	//setup zap logger and replace default logger
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	conf := &Config{}
	if err := env.Parse(conf); err != nil {
		return nil, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	return conf, nil
}

// HardExpiry returns the hard-expiry threshold as a duration.
func (c *Config) HardExpiry() time.Duration {
	return time.Duration(c.HardExpiryDays) * 24 * time.Hour
}

// WarningLead returns the warning lead time as a duration.
func (c *Config) WarningLead() time.Duration {
	return time.Duration(c.WarningLeadDays) * 24 * time.Hour
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}
