package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.App.Port)
	assert.Equal(t, "Asia/Kathmandu", cfg.App.Timezone.String())
	assert.Equal(t, 2*time.Second, cfg.Gateway.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.Cache.CatalogTTL)
	assert.Equal(t, 12*time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, "Rs.", cfg.Invoice.CurrencySymbol)
	assert.Equal(t, 18, cfg.Invoice.RowsPerPage)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.Cashiers)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	v.Set("GATEWAY_BASE_URL", "http://gw.local/api/fonepay/")
	v.Set("GATEWAY_POLL_INTERVAL", "500ms")
	v.Set("FONEPAY_BOT_TOKEN", "bot-secret")
	v.Set("CASHIERS", "sonish:$2a$10$abc, yadu:$2a$10$def")
	v.Set("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "http://gw.local/api/fonepay", cfg.Gateway.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Gateway.PollInterval)
	assert.Equal(t, "bot-secret", cfg.Gateway.BotToken)
	assert.Equal(t, []CashierSeed{
		{Username: "sonish", PasswordHash: "$2a$10$abc"},
		{Username: "yadu", PasswordHash: "$2a$10$def"},
	}, cfg.Cashiers)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestFromViperRejectsBadInput(t *testing.T) {
	v := viper.New()
	v.Set("CASHIERS", "janaki")
	_, err := FromViper(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("INVOICE_ROWS_PER_PAGE", 0)
	_, err = FromViper(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("TIMEZONE", "Mars/Olympus")
	_, err = FromViper(v)
	assert.Error(t, err)
}
