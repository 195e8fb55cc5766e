package deps

import (
	"context"
	"log"

	"github.com/ayilmaz/meetspot/config"
	"github.com/ayilmaz/meetspot/internal/db"
	"github.com/ayilmaz/meetspot/internal/http/fcm"
	"github.com/ayilmaz/meetspot/internal/http/google"
	"github.com/ayilmaz/meetspot/util/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies is the explicitly constructed service context: every external
// collaborator is built once at startup and handed to the components that
// need it.
type Dependencies struct {
	DB         *db.DB
	Cloudinary *storage.Cloudinary
	Identity   *google.IdentityClient
	FCM        *fcm.Client
}

func New(cfg *config.Config) *Dependencies {
	database, err := db.New(cfg.Dsn)
	if err != nil {
		log.Panicln("failed to connect to database", "error", err)
	}

	cloudinary := storage.NewCloudinary(cfg)
	identity := google.NewIdentityClient(cfg.GoogleClientID)

	fcmClient, err := fcm.NewClient(context.Background(), cfg.FCMCredentialsFile, cfg.FCMProjectID)
	if err != nil {
		// Push delivery is best-effort; the service still runs without it.
		log.Printf("fcm client unavailable, notifications disabled: %v", err)
	}

	deps := Dependencies{
		DB:         database,
		Cloudinary: cloudinary,
		Identity:   identity,
		FCM:        fcmClient,
	}
	return &deps
}

func (d *Dependencies) Pool() *pgxpool.Pool {
	return d.DB.Pool()
}

// Close releases held resources. Call after all in-flight work has drained.
func (d *Dependencies) Close() {
	d.DB.Close()
}
