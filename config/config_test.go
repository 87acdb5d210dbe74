package config

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	os.Setenv("DISCORD_BOT_TOKEN", "test-token")
	os.Setenv("DISCORD_GUILD_ID", "1")
	os.Setenv("DISCORD_INVITE_CHANNEL_ID", "2")

	conf, err := New()

	assert.NoError(t, err)
	assert.NotEmpty(t, conf)
	assert.Equal(t, 30, conf.WarningLeadDays)
	assert.Equal(t, 40, conf.HardExpiryDays)
	assert.Equal(t, time.Hour, conf.GraceWindow)
}

func TestNewMissingRequired(t *testing.T) {
	os.Unsetenv("DB_URI")
	os.Setenv("DISCORD_BOT_TOKEN", "test-token")
	os.Setenv("DISCORD_GUILD_ID", "1")
	os.Setenv("DISCORD_INVITE_CHANNEL_ID", "2")

	_, err := New()

	assert.Error(t, err)
}

func TestHardExpiryAndWarningLead(t *testing.T) {
	conf := &Config{HardExpiryDays: 40, WarningLeadDays: 30}

	assert.Equal(t, 40*24*time.Hour, conf.HardExpiry())
	assert.Equal(t, 30*24*time.Hour, conf.WarningLead())
}

func TestErrorStatus(t *testing.T) {

	ErrorStatus("error it borked", http.StatusBadRequest, httptest.NewRecorder(), errors.New("bad request"))
	assert.True(t, true)
}
