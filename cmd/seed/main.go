package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicware/clinic-appointment-service/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedStaff(context.Background(), pool); err != nil {
		log.Fatalf("seed staff: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedStaff(ctx context.Context, pool *pgxpool.Pool) error {
	staff := []struct {
		role  string
		count int
	}{
		{"doctor", 5},
		{"receptionist", 3},
		{"scheduler", 2},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, group := range staff {
		log.Printf("seeding %d %ss", group.count, group.role)
		for i := 0; i < group.count; i++ {
			name := gofakeit.Name()
			subject := gofakeit.Username()

			_, err := tx.Exec(ctx, `
				INSERT INTO staff_members (subject, role, name, created_at)
				VALUES ($1, $2, $3, now())
				ON CONFLICT (role, subject) DO NOTHING
			`, subject, group.role, name)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("staff seeded")
	return nil
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d pending appointments", count)

	const batchSize = 100

	// Half-hour slots starting tomorrow morning; unique by construction
	// so the batch never trips the slot index.
	slot := time.Now().AddDate(0, 0, 1).Truncate(time.Hour)

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()
			address := gofakeit.Address().Address
			age := gofakeit.Number(18, 90)
			slot = slot.Add(30 * time.Minute)

			_, err := tx.Exec(ctx, `
				INSERT INTO appointments (id, patient_name, age, address, slot, patient_subject, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, 'Pending', now(), now())
			`, id, name, age, address, slot, email)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("appointments seeded: %d/%d", end, count)
	}

	log.Println("appointments seeded")
	return nil
}
