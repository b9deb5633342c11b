package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"organization_service/internal/config"
	mongodb "organization_service/internal/database/mongo"
	redisdb "organization_service/internal/database/redis"
	"organization_service/internal/events"
	grpcServer "organization_service/internal/grpc"
	"organization_service/internal/handlers"
	"organization_service/internal/repository"
	"organization_service/internal/service"
	"organization_service/pkg/discovery"

	"github.com/gofiber/fiber/v3"
)

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("/organization", "log", "organization_service")
	err := os.MkdirAll(logDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	cfg := config.New()

	mongoClient, mongoDatabase, err := mongodb.Connect(mongodb.DefaultConfig(cfg.MongoURI, cfg.MongoDatabase))
	if err != nil {
		log.Fatalf("Fatal error connecting to MongoDB: %s", err)
	}
	defer mongodb.Disconnect(mongoClient)

	redisClient := redisdb.Connect()

	eventPublisher, err := events.NewEventPublisher(cfg.RabbitURI())
	if err != nil {
		log.Printf("Warning: event publisher unavailable: %v", err)
		eventPublisher, _ = events.NewEventPublisher("")
	}
	defer eventPublisher.Close()

	roleRepo := repository.NewRoleRepository(mongoDatabase)
	entityRepo := repository.NewOrgEntityRepository(mongoDatabase)
	assignmentRepo := repository.NewAssignmentRepository(mongoDatabase)
	principalRepo := repository.NewPrincipalRepository(mongoDatabase)
	membershipRepo := repository.NewTeamMemberRepository(mongoDatabase)
	redisRepo := repository.NewRedisRepo(redisClient)

	roleService := service.NewRoleService(roleRepo)
	entityService := service.NewEntityService(entityRepo)
	assignmentService := service.NewAssignmentService(assignmentRepo, roleRepo, entityRepo, principalRepo, eventPublisher)
	authorizationService := service.NewAuthorizationService(assignmentService, membershipRepo, eventPublisher)
	integrityService := service.NewIntegrityService(entityRepo, eventPublisher)
	jwtService := service.NewJWTService(cfg)

	app := fiber.New(fiber.Config{})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.Status(200).SendString("OK")
	})

	app.Use("/protected", handlers.RequireAuth(jwtService))

	handlers.NewPrincipalHandler(principalRepo, jwtService).RegisterRoutes(app)
	handlers.NewAuthorizationHandler(authorizationService, entityService, principalRepo, redisRepo).RegisterRoutes(app)
	handlers.NewRoleHandler(roleService, assignmentService).RegisterRoutes(app)
	handlers.NewEntityHandler(entityService, integrityService).RegisterRoutes(app)

	registry, err := discovery.NewServiceRegistry(cfg)
	if err != nil {
		log.Printf("Warning: service discovery unavailable: %v", err)
	} else {
		if err := registry.Register(); err != nil {
			log.Printf("Warning: consul registration failed: %v", err)
		}
		defer registry.Deregister()
	}

	healthServer := grpcServer.NewHealthServer(cfg.ServiceName)
	go func() {
		if err := healthServer.Serve(cfg.GrpcPort); err != nil {
			log.Printf("gRPC health server stopped: %v", err)
		}
	}()
	defer healthServer.Stop()

	shutdownChan := make(chan os.Signal, 1)
	doneChan := make(chan bool, 1)

	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
		doneChan <- true
	}()

	<-shutdownChan
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}

	<-doneChan
	log.Println("Server exited, goodbye!")
}
