package container

import (
	"log/slog"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Phoomss/ChaiCharoen-Catering/internal/config"
	"github.com/Phoomss/ChaiCharoen-Catering/internal/models"
	"github.com/Phoomss/ChaiCharoen-Catering/internal/services"
)

// Container holds all application dependencies
type Container struct {
	Logger     *slog.Logger
	Config     *config.Config
	Cloudinary *cloudinary.Cloudinary
	// Database clients
	MongoDBClient *mongo.Client
	RedisClient   *redis.Client

	UserService    *services.UserService
	PackageService *services.PackageService
	BookingService *services.BookingService
}

// NewContainer creates a new dependency injection container
func NewContainer(
	cfg *config.Config,
	logger *slog.Logger,
	cld *cloudinary.Cloudinary,
	mongoDBClient *mongo.Client,
	redisClient *redis.Client,
) *Container {
	// Initialize repositories
	mongoRepo := models.MongodbNewRepo(mongoDBClient)

	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.RabbitMQURL != "" {
		notifier = services.NewAmqpNotifier(cfg.RabbitMQURL)
	}

	userService := services.NewUserService(mongoRepo, cfg.JWTSecret)
	packageService := services.NewPackageService(mongoRepo)
	bookingService := services.NewBookingService(
		mongoRepo, mongoRepo, mongoRepo, notifier, logger, cfg.BookingDailyCap)

	return &Container{
		Logger:         logger,
		Config:         cfg,
		Cloudinary:     cld,
		MongoDBClient:  mongoDBClient,
		RedisClient:    redisClient,
		UserService:    userService,
		PackageService: packageService,
		BookingService: bookingService,
	}
}
