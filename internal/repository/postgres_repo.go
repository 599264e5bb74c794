package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/dorian5656/nhsa-crm-sync/internal/model"
)

type DBConfig struct {
	Host string
	Port string
	User string
	Pass string
	Name string
	// URL, when set, overrides the discrete fields. Accepts a postgres URL,
	// a keyword/value DSN or a MySQL DSN (the old import host).
	URL string
}

// DriverAndDSN picks the database/sql driver from the configured URL shape.
func (c *DBConfig) DriverAndDSN() (string, string) {
	if c.URL != "" {
		if strings.HasPrefix(c.URL, "mysql://") {
			return "mysql", strings.TrimPrefix(c.URL, "mysql://")
		}
		if strings.Contains(c.URL, "@tcp(") {
			return "mysql", c.URL
		}
		return "postgres", c.URL
	}
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Pass, c.Name)
	return "postgres", dsn
}

type Repo struct {
	DB     *sql.DB
	driver string
}

func NewRepo(cfg *DBConfig) (*Repo, error) {
	driver, dsn := cfg.DriverAndDSN()
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(time.Hour)
	// ping
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return &Repo{DB: db, driver: driver}, nil
}

// NewRepoFromDB wraps an existing handle; used by tests.
func NewRepoFromDB(db *sql.DB) *Repo {
	return &Repo{DB: db, driver: "postgres"}
}

func (r *Repo) Close() error {
	return r.DB.Close()
}

func (r *Repo) RunMigrations(ctx context.Context) error {
	// The MySQL fallback is a read-only source; its schema is owned by the
	// importer on that host.
	if r.driver != "postgres" {
		return nil
	}
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
		`CREATE TABLE IF NOT EXISTS admins (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            username VARCHAR(100) UNIQUE NOT NULL,
            password_hash TEXT NOT NULL,
            created_at TIMESTAMP DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS medical_consumables (
            id BIGSERIAL PRIMARY KEY,
            consumable_code TEXT,
            serial_number TEXT,
            consumable_category TEXT,
            enterprise_name TEXT,
            model TEXT,
            specification TEXT,
            spec_model_id TEXT,
            single_product_name TEXT,
            single_product_code TEXT,
            registrant TEXT,
            registration_cert_no TEXT,
            registration_record_no TEXT,
            old_registration_record_no TEXT,
            original_registration_record_no TEXT,
            registration_product_name TEXT,
            old_registration_product_name TEXT,
            udi_di TEXT,
            status INT DEFAULT 1,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
        );`,
		`CREATE TABLE IF NOT EXISTS sync_history (
            id BIGSERIAL PRIMARY KEY,
            sync_time TIMESTAMP WITH TIME ZONE DEFAULT now(),
            sync_type TEXT NOT NULL,
            status TEXT NOT NULL,
            duration_ms BIGINT DEFAULT 0,
            details JSONB
        );`,
	}
	for _, q := range queries {
		if _, err := r.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// FetchConsumables pulls the whole import table into memory in one pass.
// The probe query keeps a missing table from surfacing as an opaque scan
// error mid-run.
func (r *Repo) FetchConsumables(ctx context.Context) ([]model.ConsumableRecord, error) {
	if _, err := r.DB.ExecContext(ctx, `SELECT 1 FROM medical_consumables LIMIT 1`); err != nil {
		return nil, fmt.Errorf("probe medical_consumables: %w", err)
	}

	query := `
        SELECT id, consumable_code, serial_number, consumable_category,
               enterprise_name, model, specification, spec_model_id,
               single_product_name, single_product_code, registrant,
               registration_cert_no, registration_record_no,
               old_registration_record_no, original_registration_record_no,
               registration_product_name, old_registration_product_name,
               udi_di, status
        FROM medical_consumables`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.ConsumableRecord
	for rows.Next() {
		var rec model.ConsumableRecord
		var (
			code, serial, category, enterprise, mdl, spec, specModelID  sql.NullString
			prodName, prodCode, registrant, certNo, recordNo            sql.NullString
			oldRecordNo, origRecordNo, prodRegName, oldProdRegName, udi sql.NullString
			status                                                      sql.NullInt64
		)
		if err := rows.Scan(
			&rec.ID, &code, &serial, &category,
			&enterprise, &mdl, &spec, &specModelID,
			&prodName, &prodCode, &registrant,
			&certNo, &recordNo,
			&oldRecordNo, &origRecordNo,
			&prodRegName, &oldProdRegName,
			&udi, &status,
		); err != nil {
			return nil, err
		}
		rec.ConsumableCode = code.String
		rec.SerialNumber = serial.String
		rec.Category = category.String
		rec.EnterpriseName = enterprise.String
		rec.Model = mdl.String
		rec.Specification = spec.String
		rec.SpecModelID = specModelID.String
		rec.SingleProductName = prodName.String
		rec.SingleProductCode = prodCode.String
		rec.Registrant = registrant.String
		rec.RegistrationCertNo = certNo.String
		rec.RegistrationRecordNo = recordNo.String
		rec.OldRegistrationRecordNo = oldRecordNo.String
		rec.OriginalRegistrationRecordNo = origRecordNo.String
		rec.RegistrationProductName = prodRegName.String
		rec.OldRegistrationProductName = oldProdRegName.String
		rec.UDIDI = udi.String
		rec.Status = 1
		if status.Valid {
			rec.Status = int(status.Int64)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *Repo) CreateSyncHistory(ctx context.Context, syncType, status string, durationMs int64, details json.RawMessage) error {
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO sync_history (sync_type, status, duration_ms, details)
        VALUES ($1,$2,$3,$4)
    `, syncType, status, durationMs, []byte(details))
	return err
}

func (r *Repo) GetSyncHistory(ctx context.Context, limit int) ([]model.SyncHistory, error) {
	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, sync_time, sync_type, status, duration_ms, details
        FROM sync_history
        ORDER BY sync_time DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []model.SyncHistory
	for rows.Next() {
		var h model.SyncHistory
		var details []byte
		if err := rows.Scan(&h.ID, &h.SyncTime, &h.SyncType, &h.Status, &h.DurationMs, &details); err != nil {
			return nil, err
		}
		h.Details = json.RawMessage(details)
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *Repo) UpsertAdmin(ctx context.Context, username, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO admins (username, password_hash) VALUES ($1,$2)
        ON CONFLICT (username) DO UPDATE SET password_hash = $2
    `, username, passwordHash)
	return err
}

func (r *Repo) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	row := r.DB.QueryRowContext(ctx, `
        SELECT id, username, password_hash, created_at
        FROM admins WHERE username = $1 LIMIT 1
    `, username)

	var a model.Admin
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
