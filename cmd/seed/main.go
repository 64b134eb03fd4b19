package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"ms-reservations/internal/auth"
	"ms-reservations/internal/catalog"
	catalogdb "ms-reservations/internal/catalog/db"
	"ms-reservations/internal/config"
	"ms-reservations/internal/database/migrations"
	"ms-reservations/internal/logger"
	"ms-reservations/internal/models"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// --- Sample data ---

var sampleUsers = []models.User{
	{Name: "Admin Voyages", Email: "admin@voyages.example.com", Role: models.RoleAdmin, Active: true},
	{Name: "Amina Haddad", Email: "amina@example.com", Role: models.RoleCustomer, Active: true},
	{Name: "Youssef Benali", Email: "youssef@example.com", Role: models.RoleCustomer, Active: true},
}

func available(v bool) *bool { return &v }

var sampleDestinations = []models.DestinationRequest{
	{
		Name: models.LocalizedName{Fr: "Marrakech", En: "Marrakesh", Ar: "مراكش"},
		Description: models.LocalizedDescription{
			Fr: "Souks, riads et la place Jemaa el-Fna au coucher du soleil.",
			En: "Souks, riads and Jemaa el-Fna square at sunset.",
			Ar: "الأسواق والرياضات وساحة جامع الفنا عند الغروب.",
		},
		UnitPrice: 690, Currency: "EUR", DurationDays: 5, Category: "cultural", Country: "Maroc", City: "Marrakech",
	},
	{
		Name: models.LocalizedName{Fr: "Djerba", En: "Djerba", Ar: "جربة"},
		Description: models.LocalizedDescription{
			Fr: "Plages de sable fin et villages blancs de l'île des rêves.",
			En: "Fine sandy beaches and white villages on the island of dreams.",
			Ar: "شواطئ رملية وقرى بيضاء في جزيرة الأحلام.",
		},
		UnitPrice: 1450, Currency: "TND", DurationDays: 7, Category: "beach", Country: "Tunisie", City: "Houmt Souk",
	},
	{
		Name: models.LocalizedName{Fr: "Tassili n'Ajjer", En: "Tassili n'Ajjer", Ar: "طاسيلي ناجر"},
		Description: models.LocalizedDescription{
			Fr: "Randonnée chamelière entre arches de grès et peintures rupestres.",
			En: "Camel trek among sandstone arches and rock art.",
			Ar: "رحلة على الجمال بين أقواس الحجر الرملي والنقوش الصخرية.",
		},
		UnitPrice: 98000, Currency: "DZD", DurationDays: 10, Category: "desert", Country: "Algérie", City: "Djanet",
	},
	{
		Name: models.LocalizedName{Fr: "Chefchaouen", En: "Chefchaouen", Ar: "شفشاون"},
		Description: models.LocalizedDescription{
			Fr: "La perle bleue du Rif, ruelles et sentiers de montagne.",
			En: "The blue pearl of the Rif, alleys and mountain trails.",
			Ar: "اللؤلؤة الزرقاء في الريف، أزقة ومسارات جبلية.",
		},
		UnitPrice: 3200, Currency: "MAD", DurationDays: 3, Category: "mountain", Country: "Maroc", City: "Chefchaouen",
		Available: available(false),
	},
}

// --- Main ---

func main() {
	migrate := flag.Bool("migrate", true, "apply migrations before seeding")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the printed admin token")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	log.SetFlags(0)
	appLogger, err := logger.New(cfg.LogDir, "seed", nil)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLogger.Close()

	if *migrate {
		runner := migrations.NewRunner(cfg.Database.DSN, migrations.OptionsFromConfig(cfg.Migrations), appLogger)
		if err := runner.RunMigrations(); err != nil {
			log.Fatalf("❌ Failed to run migrations: %v", err)
		}
		_ = runner.Close()
	}

	connector := pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN))
	sqldb := sql.OpenDB(connector)
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	log.Println("Seeding users...")
	adminID, err := seedUsers(ctx, db)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	log.Println("Seeding destinations...")
	if err := seedDestinations(ctx, db, appLogger); err != nil {
		log.Fatalf("❌ %v", err)
	}

	if cfg.Auth.JWTSecret != "" {
		token, err := auth.SignToken([]byte(cfg.Auth.JWTSecret), adminID, string(models.RoleAdmin), *tokenTTL)
		if err != nil {
			log.Fatalf("❌ Failed to sign admin token: %v", err)
		}
		fmt.Printf("Admin token (valid %s):\n%s\n", *tokenTTL, token)
	}

	log.Println("✅ Done.")
}

// --- Helper Functions ---

// seedUsers inserts the sample accounts that do not exist yet and returns the
// admin's id.
func seedUsers(ctx context.Context, db *bun.DB) (string, error) {
	users := &auth.UserDB{Bun: db}
	var adminID string

	for _, u := range sampleUsers {
		existing := new(models.User)
		err := db.NewSelect().Model(existing).Where("email = ?", u.Email).Scan(ctx)
		if err == nil {
			log.Printf("  user %s already present", u.Email)
			if u.Role == models.RoleAdmin {
				adminID = existing.ID
			}
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("lookup user %s: %w", u.Email, err)
		}

		user := u
		user.ID = uuid.NewString()
		user.CreatedAt = time.Now().UTC()
		if err := users.CreateUser(ctx, &user); err != nil {
			return "", err
		}
		log.Printf("  created %s %s", user.Role, user.Email)
		if user.Role == models.RoleAdmin {
			adminID = user.ID
		}
	}
	return adminID, nil
}

// seedDestinations goes through the catalog service so the sample data passes
// the same validation as the admin API.
func seedDestinations(ctx context.Context, db *bun.DB, appLogger *logger.Logger) error {
	count, err := db.NewSelect().Model((*models.Destination)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("count destinations: %w", err)
	}
	if count > 0 {
		log.Printf("  %d destinations already present, skipping", count)
		return nil
	}

	service := catalog.NewCatalogService(&catalogdb.DB{Bun: db}, appLogger)
	for _, req := range sampleDestinations {
		dest, err := service.CreateDestination(ctx, req)
		if err != nil {
			return fmt.Errorf("create destination %s: %w", req.Name.Fr, err)
		}
		log.Printf("  created destination %s (%s)", dest.Name.Fr, dest.ID)
	}
	return nil
}
