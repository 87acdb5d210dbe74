package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/upworkrevolution/membership-api/api"
	"github.com/upworkrevolution/membership-api/config"
	"github.com/upworkrevolution/membership-api/databases"
	"github.com/upworkrevolution/membership-api/discord"
	"github.com/upworkrevolution/membership-api/models"
	"github.com/upworkrevolution/membership-api/payments"
)

// App stores the router, db connection and discord session, so it can be reused
type App struct {
	Router   *mux.Router
	Config   config.Config
	Gateway  *discord.Gateway
	Ledger   *discord.InviteLedger
	dbHelper databases.DatabaseHelper
	resolver *discord.Resolver
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := mux.NewRouter()

	orderDB := databases.NewOrderDatabase(a.dbHelper)
	userDB := databases.NewUserDatabase(a.dbHelper)

	p := Payment{
		OrderDB:         orderDB,
		Gateway:         a.Gateway,
		Ledger:          a.Ledger,
		Issuer:          payments.NewClient(a.Config.MerchantAccount, a.Config.MerchantSecret, a.Config.MerchantDomain),
		GuildID:         a.Config.DiscordGuildID,
		InviteChannelID: a.Config.DiscordInviteChannelID,
	}
	wh := Webhook{OrderDB: orderDB, UserDB: userDB}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Handle("/payment", api.TimeoutMiddleware(15*time.Second)(http.HandlerFunc(p.CreatePaymentHandler))).Methods("POST")
	apiCreate.Handle("/response", http.HandlerFunc(p.PaymentResponseHandler)).Methods("GET", "POST")

	// provider callback URLs are registered with the merchant account and
	// live outside the versioned prefix
	r.Handle("/callback_success", api.TimeoutMiddleware(api.QueryTimeout)(http.HandlerFunc(wh.PaymentSuccessHandler))).Methods("POST")
	r.Handle("/callback_failure", api.TimeoutMiddleware(api.QueryTimeout)(http.HandlerFunc(wh.PaymentFailureHandler))).Methods("POST")

	return r
}

// Initialize is invoked by main to connect with the database, open the
// discord session and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("membership-api has connected to the database")

	a.Gateway, err = discord.NewGateway(a.Config.DiscordBotToken)
	if err != nil {
		zap.S().With(err).Error("failed to create discord gateway")
		return err
	}
	a.Ledger = discord.NewInviteLedger(a.Gateway)
	a.resolver = discord.NewResolver(
		a.Ledger,
		a.Gateway,
		databases.NewOrderDatabase(a.dbHelper),
		databases.NewUserDatabase(a.dbHelper),
		a.Config.ProvisionalGrantDays,
	)

	guildID := a.Config.DiscordGuildID
	a.Gateway.OnReady(func() {
		if err := a.Ledger.Refresh(guildID); err != nil {
			zap.S().Errorw("failed to seed invite ledger", "guildId", guildID, "error", err)
			return
		}
		zap.S().Infow("invite ledger seeded", "guildId", guildID)
	})
	a.Gateway.OnMemberJoin(func(join discord.MemberJoin) {
		ctx, cancel := api.WithQueryTimeout(nil)
		defer cancel()
		a.resolver.HandleMemberJoin(ctx, join)
	})

	if err := a.Gateway.Open(); err != nil {
		zap.S().With(err).Error("failed to open discord session")
		return err
	}

	// initialize api router
	a.initializeRoutes()
	return nil

}

// DatabaseHelper exposes the db connection for wiring the scheduler in main.
func (a *App) DatabaseHelper() databases.DatabaseHelper {
	return a.dbHelper
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
