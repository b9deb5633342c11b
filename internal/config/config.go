package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port             string
	GrpcPort         string
	ConsulAddress    string
	ServiceName      string
	ServiceID        string
	ServiceAddress   string
	MongoURI         string
	MongoDatabase    string
	RabbitMQUser     string
	RabbitMQPassword string
	RabbitMQPort     string
	JWTSecret        string
	JWTExpired       int64
}

func New() *Config {
	jwt_expired_str := getEnv("TOKEN_EXPIRY_TIME", "24")
	jwt_expired, _ := strconv.Atoi(jwt_expired_str)

	return &Config{
		Port:             getEnv("PORT", "9200"),
		GrpcPort:         getEnv("GRPC_PORT", "9201"),
		MongoURI:         getEnv("MONGO_URI", ""),
		MongoDatabase:    getEnv("ORG_SERVICE_MONGO_DB", "organization"),
		RabbitMQUser:     getEnv("RABBITMQ_USER", ""),
		RabbitMQPassword: getEnv("RABBITMQ_PASSWORD", ""),
		RabbitMQPort:     getEnv("RABBITMQ_PORT", ""),
		ConsulAddress:    "consul-server:" + getEnv("CONSUL_PORT", "8500"),
		ServiceName:      getEnv("ORG_SERVICE_NAME", "organization-service"),
		ServiceID:        getEnv("ORG_SERVICE_NAME", "organization-service") + "-" + getEnv("ORG_HOSTNAME", "1"),
		ServiceAddress:   getEnv("ORG_SERVICE_ADDRESS", "organization-service"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTExpired:       int64(jwt_expired),
	}
}

// RabbitURI assembles the broker URI, empty when the broker is not
// configured so event publishing degrades to disabled.
func (c *Config) RabbitURI() string {
	if c.RabbitMQUser == "" || c.RabbitMQPort == "" {
		return ""
	}
	return "amqp://" + c.RabbitMQUser + ":" + c.RabbitMQPassword + "@rabbitmq:" + c.RabbitMQPort + "/"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Error Retriving ENV: %s not exist", key)
	return fallback
}
