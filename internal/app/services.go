package app

import (
	"fmt"
	"net/http"

	"vatfiler/internal/api"
	"vatfiler/internal/config"
	"vatfiler/internal/fraud"
	"vatfiler/internal/hmrc"
	"vatfiler/internal/oauth"
	"vatfiler/internal/receipts"
	"vatfiler/internal/server"
	"vatfiler/pkg/logging"
)

// vendorName is the product name in the vendor fraud-prevention headers.
const vendorName = "vatfiler"

// Services holds all initialized components.
type Services struct {
	Settings *config.Config

	Tokens   *oauth.Provider
	Flow     *oauth.Flow
	Watcher  *oauth.TokenFileWatcher
	Fraud    *fraud.Builder
	Receipts *receipts.Log
	VAT      *hmrc.Client

	Limiter *server.RateLimiter
	Router  http.Handler
	Server  *server.Server
}

// InitializeServices builds every component from settings. Nothing touches
// the network until the server runs.
func InitializeServices(settings *config.Config, version string) (*Services, error) {
	httpClient := &http.Client{Timeout: settings.Authority.Timeout}

	exchanger := oauth.NewExchanger(oauth.ExchangerConfig{
		BaseURL:      settings.Authority.BaseURL,
		ClientID:     settings.Authority.ClientID,
		ClientSecret: settings.Authority.ClientSecret,
		RedirectURI:  settings.Authority.RedirectURI,
		Scope:        settings.Authority.Scope,
		HTTPClient:   httpClient,
	})

	tokenStore := oauth.NewTokenStore(settings.TokenFile())
	provider := oauth.NewProvider(tokenStore, exchanger)
	flow := oauth.NewFlow(oauth.NewStateStore(settings.OAuth.StateTTL), exchanger, provider)

	deviceID, err := fraud.DeviceID(settings.FraudPrevention.DeviceIDMode, settings.DeviceIDFile())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve device id: %w", err)
	}
	headers := fraud.NewBuilder(deviceID, fraud.Config{
		VendorName:      vendorName,
		VendorVersion:   version,
		DefaultPublicIP: settings.FraudPrevention.DefaultPublicIP,
		LocalIPs:        settings.FraudPrevention.LocalIPs,
		Timezone:        settings.FraudPrevention.Timezone,
		UserIDs:         settings.FraudPrevention.UserIDs,
	})

	receiptLog := receipts.NewLog(settings.ReceiptsFile())
	vat := hmrc.NewClient(hmrc.Config{
		BaseURL:    settings.Authority.BaseURL,
		HTTPClient: httpClient,
	}, provider, receiptLog)

	limiter := server.NewRateLimiter(settings.Server.RateLimitPerMinute)
	var authLimiter api.Middleware
	if limiter != nil {
		authLimiter = limiter.Middleware
	}

	router := api.NewRouter(api.RouterConfig{
		Handlers:    api.NewHandlers(vat, provider, receiptLog, headers),
		OAuth:       oauth.NewHandler(flow),
		AuthLimiter: authLimiter,
	})

	logging.Info("Services", "Authority %s, data in %s, device id %s",
		settings.Authority.BaseURL, settings.Storage.DataDir, logging.Truncate(deviceID))

	return &Services{
		Settings: settings,
		Tokens:   provider,
		Flow:     flow,
		Watcher:  oauth.NewTokenFileWatcher(settings.TokenFile(), provider),
		Fraud:    headers,
		Receipts: receiptLog,
		VAT:      vat,
		Limiter:  limiter,
		Router:   router,
		Server: server.New(server.Options{
			Addr:          settings.Server.Listen,
			Handler:       router,
			NotifySystemd: true,
		}),
	}, nil
}
