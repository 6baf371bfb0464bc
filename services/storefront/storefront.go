package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"

	"github.com/sahnaf-tech/storefront/core"
	"github.com/sahnaf-tech/storefront/core/access"
	"github.com/sahnaf-tech/storefront/core/backend"
	"github.com/sahnaf-tech/storefront/core/catalog"
	"github.com/sahnaf-tech/storefront/core/csql"
	"github.com/sahnaf-tech/storefront/core/logger"
	"github.com/sahnaf-tech/storefront/core/notify"
	"github.com/sahnaf-tech/storefront/core/store"
)

// store drivers
const (
	storePostgres = "postgres"
	storeMongo    = "mongo"
	storeMemory   = "memory"
)

// Service holds the configuration for this service
//
// use POSTGRES="host=localhost port=5432 user=postgres dbname=postgres sslmode=disable"
// and POSTGRES_PASSWORD="docker"
type Service struct {
	Store            string `env:"STORE,default=postgres" description:"the persistent store: postgres, mongo or memory"`
	Postgres         string `env:"POSTGRES" description:"the connection string for the Postgres DB without password"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" description:"password to the Postgres DB"`
	PostgresSchema   string `env:"POSTGRES_SCHEMA,default=storefront" description:"the schema all tables live in"`
	MongoURI         string `env:"MONGO_URI" description:"the connection URI of the MongoDB deployment"`
	MongoDatabase    string `env:"MONGO_DATABASE,default=storefront" description:"the MongoDB database"`

	Port          int    `env:"PORT,default=3000" description:"the port the HTTP server listens on"`
	LogLevel      string `env:"LOG_LEVEL,default=info" description:"the log level: debug, info, warn or error"`
	AdminEmails   string `env:"ADMIN_EMAILS" description:"comma separated e-mail addresses of the admins"`
	SessionSecret string `env:"SESSION_SECRET,required" description:"the secret the session cookie is signed with"`
	SecureCookie  bool   `env:"SESSION_SECURE_COOKIE,default=true" description:"send the session cookie over HTTPS only"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID" description:"the OAuth client ID ID tokens must be issued for"`
	GoogleCertsURL string `env:"GOOGLE_CERTS_URL" description:"the download URL of the identity provider certificates"`
	Backdoor       string `env:"BACKDOOR_TOKENS" description:"comma separated token=email pairs accepted as bearer tokens, development only"`

	KafkaBrokers string `env:"KAFKA_BROKERS" description:"comma separated Kafka brokers for change notifications"`
	KafkaTopic   string `env:"KAFKA_TOPIC,default=storefront_catalog" description:"the topic change notifications are written to"`

	GasDefaultPrice string `env:"GAS_DEFAULT_PRICE,default=1300.00" description:"the price the gas price is seeded with"`
}

// loadService decodes the service configuration from the environment and
// checks the combinations envdecode cannot express
func loadService() (*Service, error) {
	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		return nil, err
	}
	switch service.Store {
	case storePostgres:
		if service.Postgres == "" {
			return nil, errors.New("POSTGRES is required for the postgres store")
		}
	case storeMongo:
		if service.MongoURI == "" {
			return nil, errors.New("MONGO_URI is required for the mongo store")
		}
	case storeMemory:
	default:
		return nil, fmt.Errorf("unknown STORE '%s'", service.Store)
	}
	price, err := catalog.NewPrice(service.GasDefaultPrice)
	if err == nil {
		err = price.Validate("GAS_DEFAULT_PRICE")
	}
	if err != nil {
		return nil, fmt.Errorf("GAS_DEFAULT_PRICE: %w", err)
	}
	if _, err := logrus.ParseLevel(service.LogLevel); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return service, nil
}

// openStore connects to the configured store
func (s *Service) openStore(ctx context.Context) (store.Store, error) {
	switch s.Store {
	case storeMemory:
		logger.FromContext(ctx).Warnln("using the in-memory store, all data is lost on exit")
		return store.NewMemory(), nil
	case storeMongo:
		return store.NewMongo(ctx, s.MongoURI, s.MongoDatabase)
	default:
		db, err := csql.OpenWithSchema(ctx, s.Postgres, s.PostgresPassword, s.PostgresSchema)
		if err != nil {
			return nil, err
		}
		return store.NewPostgres(ctx, db)
	}
}

// verifier returns the token verifier for bearer tokens and sign-in
func (s *Service) verifier() access.TokenVerifier {
	verifiers := access.Verifiers{}
	if s.GoogleClientID != "" {
		verifiers = append(verifiers, access.NewJwtVerifier(&access.JwtVerifierBuilder{
			PublicKeyDownloadURL: s.GoogleCertsURL,
			Audience:             s.GoogleClientID,
		}))
	} else {
		logger.Default().Warnln("GOOGLE_CLIENT_ID is not set, sign-in with the identity provider is disabled")
	}
	if s.Backdoor != "" {
		logger.Default().Warnln("backdoor tokens are enabled")
		verifiers = append(verifiers, access.ParseBackdoor(s.Backdoor))
	}
	return verifiers
}

// newRouter wires all routes. Everything is served below /api.
func (s *Service) newRouter(st store.Store, notifier core.Notifier) *mux.Router {
	gate := access.NewGate(s.AdminEmails)
	if len(strings.TrimSpace(s.AdminEmails)) == 0 {
		logger.Default().Warnln("ADMIN_EMAILS is not set, nobody can use the admin routes")
	}
	sessions := access.NewSessions(s.SessionSecret, s.SecureCookie)
	verifier := s.verifier()
	gasDefaultPrice := catalog.MustPrice(s.GasDefaultPrice)

	router := mux.NewRouter()
	logger.AddRequestID(router)

	api := router.PathPrefix("/api").Subrouter()
	// the backend installs the CORS middleware, it must wrap the identity
	// middleware so that rejected tokens are answered with CORS headers
	backend.New(&backend.Builder{
		Store:           st,
		Router:          api,
		Gate:            gate,
		Notifier:        notifier,
		GasDefaultPrice: &gasDefaultPrice,
	})
	api.Use(access.NewIdentityMiddleware(&access.IdentityMiddlewareBuilder{
		Verifier: verifier,
		Sessions: sessions,
	}))
	access.HandleAuthRoutes(api, &access.AuthRoutesBuilder{
		Gate:     gate,
		Verifier: verifier,
		Sessions: sessions,
	})
	return router
}

// notifier returns the Kafka notifier, or nil if no brokers are configured
func (s *Service) notifier() *notify.KafkaNotifier {
	var brokers []string
	for _, broker := range strings.Split(s.KafkaBrokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	if len(brokers) == 0 {
		return nil
	}
	logger.Default().Infoln("publishing catalog changes to", s.KafkaTopic)
	return notify.NewKafkaNotifier(&notify.KafkaNotifierBuilder{
		Brokers: brokers,
		Topic:   s.KafkaTopic,
	})
}

func main() {
	service, err := loadService()
	if err != nil {
		panic(err)
	}
	level, _ := logrus.ParseLevel(service.LogLevel)
	logger.InitLogger(level)
	rlog := logger.Default()

	ctx := context.Background()
	st, err := service.openStore(ctx)
	if err != nil {
		rlog.WithError(err).Fatalln("cannot open store")
	}
	defer st.Close()

	var notifier core.Notifier
	if kafkaNotifier := service.notifier(); kafkaNotifier != nil {
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
	}

	router := service.newRouter(st, notifier)

	logWriter := logrus.StandardLogger().Writer()
	defer logWriter.Close()
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", service.Port),
		Handler: handlers.RecoveryHandler(handlers.RecoveryLogger(logrus.StandardLogger()))(
			handlers.CombinedLoggingHandler(logWriter, router)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		rlog.Infof("listen on port :%d", service.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rlog.WithError(err).Fatalln("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	rlog.Infoln("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		rlog.WithError(err).Errorln("shutdown failed")
	}
}
