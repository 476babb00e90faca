package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// ─── Models ──────────────────────────────────────────────────────────────────

// Estimate is a served cost estimate kept so the report endpoints can
// regenerate PDFs by ID. The estimation pipeline itself never writes here.
type Estimate struct {
	ID           string    `json:"id"`
	Origin       string    `json:"origin"`
	Destination  string    `json:"destination"`
	Days         int       `json:"days"`
	Travelers    int       `json:"travelers"`
	ResultJSON   string    `json:"result_json"`
	PDFData      []byte    `json:"pdf_data,omitempty"`
	TravelerName string    `json:"traveler_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// SetResult stores an arbitrary estimate payload as JSON.
func (e *Estimate) SetResult(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e.ResultJSON = string(data)
	return nil
}

// ─── Init ─────────────────────────────────────────────────────────────────────

// InitDB connects to Postgres when configured. Without DATABASE_URL or
// DB_HOST the store stays disabled: estimates are still served, only the
// report endpoints are unavailable.
func InitDB() {
	if os.Getenv("DATABASE_URL") == "" && os.Getenv("DB_HOST") == "" {
		log.Println("⚠️  No database configured, estimate reports disabled")
		return
	}

	dsn := buildDSN()

	var err error
	DB, err = sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("❌ Failed to open database: %v", err)
	}

	DB.SetMaxOpenConns(10)
	DB.SetMaxIdleConns(5)
	DB.SetConnMaxLifetime(5 * time.Minute)

	// Retry: the database may take a moment to accept connections
	for i := 0; i < 10; i++ {
		if err = DB.Ping(); err == nil {
			break
		}
		log.Printf("⏳ Waiting for database... attempt %d/10: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatalf("❌ Failed to connect to database after retries: %v", err)
	}

	migrate()
	log.Println("✅ Database connected and migrated")
}

func Available() bool {
	return DB != nil
}

func buildDSN() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	pass := getEnv("DB_PASSWORD", "postgres")
	name := getEnv("DB_NAME", "tripcost")
	sslmode := getEnv("DB_SSLMODE", "disable")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, pass, name, sslmode)
}

// ─── Migrations ───────────────────────────────────────────────────────────────

func migrate() {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS estimates (
			id            TEXT PRIMARY KEY,
			origin        TEXT NOT NULL,
			destination   TEXT NOT NULL,
			days          INTEGER DEFAULT 1,
			travelers     INTEGER DEFAULT 1,
			result_json   TEXT NOT NULL,
			pdf_data      BYTEA,
			traveler_name TEXT,
			created_at    TIMESTAMPTZ DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_estimates_created_at
			ON estimates(created_at DESC)`,
	}

	for _, m := range migrations {
		if _, err := DB.Exec(m); err != nil {
			log.Fatalf("❌ Migration failed: %v\nSQL: %s", err, m)
		}
	}
}

// ─── CRUD ─────────────────────────────────────────────────────────────────────

func SaveEstimate(e *Estimate) error {
	_, err := DB.Exec(`
		INSERT INTO estimates (id, origin, destination, days, travelers, result_json, traveler_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.Origin, e.Destination, e.Days, e.Travelers, e.ResultJSON, e.TravelerName)
	return err
}

func GetEstimate(id string) (*Estimate, error) {
	e := &Estimate{}
	var pdf []byte
	var travelerName sql.NullString
	err := DB.QueryRow(`
		SELECT id, origin, destination, days, travelers, result_json, pdf_data, traveler_name, created_at
		FROM estimates WHERE id = $1`, id).
		Scan(&e.ID, &e.Origin, &e.Destination, &e.Days, &e.Travelers,
			&e.ResultJSON, &pdf, &travelerName, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.PDFData = pdf
	e.TravelerName = travelerName.String
	return e, nil
}

func UpdateEstimatePDF(id string, pdfData []byte, travelerName string) error {
	_, err := DB.Exec(`
		UPDATE estimates SET pdf_data = $1, traveler_name = $2 WHERE id = $3`,
		pdfData, travelerName, id)
	return err
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
