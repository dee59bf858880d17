package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/loggier/app-corte/internal/auth"
	"github.com/loggier/app-corte/internal/db"
	"github.com/loggier/app-corte/internal/handlers"
	"github.com/loggier/app-corte/internal/middleware"
	"github.com/loggier/app-corte/internal/notify"
	"github.com/loggier/app-corte/internal/refdata"
	"github.com/loggier/app-corte/internal/upload"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using process environment")
	}
	log.SetFormatter(&log.JSONFormatter{})

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	database := client.Database(db.DatabaseName())

	vehicles := &db.MongoVehicleCollection{Collection: database.Collection(db.VehiclesCollection)}
	brands := &db.MongoBrandCollection{Collection: database.Collection(db.BrandsCollection)}
	modelColl := &db.MongoModelCollection{Collection: database.Collection(db.ModelsCollection)}
	users := &db.MongoUserCollection{Collection: database.Collection(db.UsersCollection)}

	authService, err := auth.NewService()
	if err != nil {
		log.WithError(err).Fatal("failed to create auth service")
	}

	publisher, err := notify.NewPublisher()
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MQTT broker")
	}
	defer publisher.Close()

	gateway := refdata.NewGateway(brands, modelColl)
	uploader := upload.NewClient(os.Getenv("BACKEND_BASE_URL"))

	authHandler := handlers.NewAuthHandler(authService, users)
	vehicleHandler := handlers.NewVehicleHandler(vehicles, gateway, uploader, publisher)
	refdataHandler := handlers.NewRefdataHandler(gateway)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/profile", authHandler.GetProfile)
	mux.HandleFunc("/api/vehicles", vehicleHandler.Collection)
	mux.HandleFunc("/api/vehicles/", vehicleHandler.ByID)
	mux.HandleFunc("/api/brands", refdataHandler.Brands)
	mux.HandleFunc("/api/models", refdataHandler.Models)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()
	handler := rateLimiter.RateLimit(120, 60)(authMiddleware.Authenticate(mux))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("HTTP server listening")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
