package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicware/clinic-appointment-service/internal/auth"
	"github.com/clinicware/clinic-appointment-service/internal/config"
	"github.com/clinicware/clinic-appointment-service/internal/db"
)

// The simulator hammers the booking flow with a deliberately small slot
// window so many workers fight over the same slots, then mixes in
// scheduler decisions and patient reads. At the end it reports how many
// bookings succeeded versus hit a slot conflict; with N workers per slot
// exactly one booking per slot should ever succeed.

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	DecideRatio  float64
	ReadRatio    float64
	PatientCount int
	SlotCount    int
	PostgresDSN  string
	JWTSecret    string
}

type patientIdentity struct {
	subject string
	token   string
}

type createdAppointment struct {
	id      uuid.UUID
	patient patientIdentity
}

type DataPool struct {
	Patients       []patientIdentity
	Slots          []time.Time
	SchedulerToken string

	mu           sync.RWMutex
	appointments []createdAppointment
}

func (dp *DataPool) AddAppointment(id uuid.UUID, patient patientIdentity) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, createdAppointment{id: id, patient: patient})
}

func (dp *DataPool) GetRandomAppointment(rng *rand.Rand) (createdAppointment, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return createdAppointment{}, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	Booking OperationMetrics
	Decide  OperationMetrics
	ListOwn OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d booking=%.2f decide=%.2f read=%.2f slots=%d",
		cfg.Duration, cfg.Workers, cfg.BookingRatio, cfg.DecideRatio, cfg.ReadRatio, cfg.SlotCount)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := buildDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("build data pool: %v", err)
	}

	log.Printf("prepared: %d patients, %d contended slots", len(dataPool.Patients), len(dataPool.Slots))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDurationEnv("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.5),
		DecideRatio:  getFloat("SIM_DECIDE_RATIO", 0.2),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
		PatientCount: getInt("SIM_PATIENT_COUNT", 200),
		SlotCount:    getInt("SIM_SLOT_COUNT", 50),
		PostgresDSN:  baseCfg.PostgresDSN,
		JWTSecret:    baseCfg.JWTSecret,
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.DecideRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.DecideRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

// buildDataPool mints patient identities locally and picks a scheduler
// from the staff directory so decisions pass the membership check.
func buildDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	verifier := auth.NewVerifier(cfg.JWTSecret)
	dataPool := &DataPool{}

	gofakeit.Seed(time.Now().UnixNano())

	for i := 0; i < cfg.PatientCount; i++ {
		subject := gofakeit.Email()
		token, err := verifier.Sign(auth.Identity{Subject: subject, Role: auth.RolePatient}, 2*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("sign patient token: %w", err)
		}
		dataPool.Patients = append(dataPool.Patients, patientIdentity{subject: subject, token: token})
	}

	var schedulerSubject string
	err := pool.QueryRow(ctx, `
		SELECT subject FROM staff_members
		WHERE role = 'scheduler'
		LIMIT 1
	`).Scan(&schedulerSubject)
	if err != nil {
		return nil, fmt.Errorf("load scheduler from staff directory (run cmd/seed first): %w", err)
	}

	dataPool.SchedulerToken, err = verifier.Sign(auth.Identity{Subject: schedulerSubject, Role: auth.RoleScheduler}, 2*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("sign scheduler token: %w", err)
	}

	// A deliberately narrow slot window far in the future so runs do not
	// collide with seeded data.
	base := time.Now().AddDate(0, 1, 0).Truncate(time.Hour)
	for i := 0; i < cfg.SlotCount; i++ {
		dataPool.Slots = append(dataPool.Slots, base.Add(time.Duration(i)*30*time.Minute))
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, rng)
			case r < s.config.BookingRatio+s.config.DecideRatio:
				s.doDecide(ctx, rng)
			default:
				s.doListOwn(ctx, rng)
			}
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	patient := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	slot := s.pool.Slots[rng.Intn(len(s.pool.Slots))]

	start := time.Now()

	reqBody := map[string]any{
		"patient_name": gofakeit.Name(),
		"age":          rng.Intn(70) + 18,
		"address":      gofakeit.Address().Address,
		"slot":         slot.Format(time.RFC3339),
	}
	body, _ := json.Marshal(reqBody)

	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/patient/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+patient.token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusCreated {
			success = true
			var envelope struct {
				Data struct {
					ID uuid.UUID `json:"id"`
				} `json:"data"`
			}
			bodyBytes, _ := io.ReadAll(resp.Body)
			if len(bodyBytes) > 0 {
				_ = json.Unmarshal(bodyBytes, &envelope)
				if envelope.Data.ID != uuid.Nil {
					s.pool.AddAppointment(envelope.Data.ID, patient)
				}
			}
		} else if resp.StatusCode == http.StatusConflict {
			conflict = true
		}
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doDecide(ctx context.Context, rng *rand.Rand) {
	appt, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	action := "approve"
	if rng.Float64() < 0.2 {
		action = "reject"
	}

	start := time.Now()

	body, _ := json.Marshal(map[string]string{"action": action})
	req, _ := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/scheduler/appointments/%s/decide", s.config.APIBaseURL, appt.id), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.pool.SchedulerToken)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			success = true
		} else if resp.StatusCode == http.StatusConflict {
			// Double decisions land here; expected under contention.
			conflict = true
		}
	}

	s.metrics.Decide.Record(latency, success, conflict)
}

func (s *Simulator) doListOwn(ctx context.Context, rng *rand.Rand) {
	patient := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET", s.config.APIBaseURL+"/patient/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+patient.token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		defer resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ListOwn.Record(latency, success, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n================================================================================")
	fmt.Println("SIMULATION REPORT")
	fmt.Println("================================================================================")
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Contended slots: %d\n", s.config.SlotCount)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Decide", &s.metrics.Decide)
	printOperationReport("List own", &s.metrics.ListOwn)

	booked := atomic.LoadInt64(&s.metrics.Booking.Success)
	if booked > int64(s.config.SlotCount) {
		fmt.Printf("WARNING: %d bookings succeeded for %d slots, slot uniqueness violated!\n",
			booked, s.config.SlotCount)
	}
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errCount := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errCount > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errCount, float64(errCount)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
