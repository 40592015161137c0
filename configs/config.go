package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxOpen   int    `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	DBMaxIdle   int    `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`

	Port      string `envconfig:"PORT" default:"8080"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	JWTTTLHrs int    `envconfig:"JWT_EXPIRE_HOURS" default:"72"`
	TimeZone  string `envconfig:"APP_TIMEZONE" default:"Asia/Jakarta"`

	PointsPerBooking int `envconfig:"POINTS_PER_BOOKING" default:"10"`
	PointsExpiryDays int `envconfig:"POINTS_EXPIRY_DAYS" default:"365"`

	SuperAdminEmail    string `envconfig:"SUPER_ADMIN_EMAIL"`
	SuperAdminPassword string `envconfig:"SUPER_ADMIN_PASSWORD"`
	SuperAdminName     string `envconfig:"SUPER_ADMIN_FULL_NAME" default:"Super Admin"`

	CloudinaryURL    string `envconfig:"CLOUDINARY_URL"`
	CloudinaryFolder string `envconfig:"CLOUDINARY_FOLDER" default:"field_images"`

	BrevoAPIKey     string `envconfig:"BREVO_API_KEY"`
	EmailSender     string `envconfig:"EMAIL_SENDER"`
	EmailSenderName string `envconfig:"EMAIL_SENDER_NAME"`

	RabbitURL      string `envconfig:"RABBIT_URL"`
	EventsExchange string `envconfig:"EVENTS_EXCHANGE" default:"field_booking.events"`

	OtelEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Env          string `envconfig:"ENV" default:"dev"`
}

// Load reads .env (if present) into the process environment and then
// decodes the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	var c Config
	err := envconfig.Process("", &c)
	return c, err
}
