// README: Smoke cases for the car-rental API; includes HTTP, DB, Redis, concurrency and throughput checks.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/envelope"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/infra"
	"github.com/ZaFrontEndMan/get-a-car-sub002/internal/modules/pricing"
)

const (
	statusPass    = "PASS"
	statusFail    = "FAIL"
	statusPending = "PENDING"
	statusSkip    = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

// bookingDates are far enough ahead that smoke bookings never collide with real ones.
var bookingDates = map[string]any{
	"pickupDate":  time.Now().AddDate(2, 0, 0).Format("2006-01-02"),
	"dropoffDate": time.Now().AddDate(2, 0, 3).Format("2006-01-02"),
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusFail, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Migration: apply (optional)",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: statusSkip, Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				if err := infra.ApplyMigrations(ctx, r.db, r.cfg.MigrationsDir); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "Migration: tables exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationsDir)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
					if !exists {
						return Result{Status: statusFail, Note: "missing table: " + t}
					}
				}
				return Result{Status: statusPass, Note: fmt.Sprintf("tables=%d", len(tables))}
			},
		},
		{
			Name: "API: health",
			Run: func(ctx context.Context, r *Runner) Result {
				res, body := r.do(ctx, http.MethodGet, base+"/health", nil, false)
				if res.Status != statusPass {
					return res
				}
				if got, err := envelope.Decode[string](bytes.NewReader(body)); err != nil || got != "OK" {
					return Result{Status: statusFail, Note: fmt.Sprintf("body=%q err=%v", got, err)}
				}
				return res
			},
		},

		// URL filter codec
		expectURL("Filter: canonical drops defaults",
			base+"/api/filters/canonical?type=SUV&minPrice=0&maxPrice=2000&withDriver=TRUE&utm=x",
			"?type=SUV&withDriver=true"),
		expectURL("Filter: canonical keeps key order",
			base+"/api/filters/canonical?maxPrice=800&vendor=a,b&type=SUV",
			"?vendor=a%2Cb&type=SUV&maxPrice=800"),
		expectURL("Search: response carries canonical url",
			base+"/api/cars?transmission=Automatic&minPrice=abc",
			"?transmission=Automatic"),
		{
			Name: "Search: empty query yields bare path",
			Run: func(ctx context.Context, r *Runner) Result {
				res, body := r.do(ctx, http.MethodGet, base+"/api/cars", nil, false)
				if res.Status != statusPass {
					return res
				}
				got, err := envelope.Decode[struct {
					URL string `json:"url"`
				}](bytes.NewReader(body))
				if err != nil || strings.Contains(got.URL, "?") {
					return Result{Status: statusFail, Note: fmt.Sprintf("url=%q err=%v", got.URL, err)}
				}
				return res
			},
		},

		// Pricing
		statusCase("Pricing: invalid car id -> 400", http.MethodPost, base+"/api/pricing/quote",
			map[string]any{"carId": "not a car", "rentalDays": 2}, false, http.StatusBadRequest),
		statusCase("Pricing: unknown car -> 404", http.MethodPost, base+"/api/pricing/quote",
			map[string]any{"carId": "does-not-exist", "rentalDays": 2}, false, http.StatusNotFound),
		{
			Name: "Pricing: quote totals add up",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.cfg.CarID == "" {
					return Result{Status: statusSkip, Note: "car-id not set"}
				}
				res, body := r.do(ctx, http.MethodPost, base+"/api/pricing/quote",
					map[string]any{"carId": r.cfg.CarID, "rentalDays": 3}, false)
				if res.Status != statusPass {
					return res
				}
				q, err := envelope.Decode[pricing.Quote](bytes.NewReader(body))
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				b := q.Breakdown
				if b.TotalPrice != b.BasePrice+b.ServicesPrice || b.BasePrice != q.Rates.For(q.Period)*3 {
					return Result{Status: statusFail, Note: fmt.Sprintf("breakdown=%+v", b)}
				}
				return res
			},
		},

		// Auth boundaries
		statusCase("Booking: anonymous -> 401", http.MethodPost, base+"/api/bookings",
			map[string]any{"carId": "c1"}, false, http.StatusUnauthorized),
		statusCase("Vendor: anonymous -> 401", http.MethodGet, base+"/api/vendor/bookings",
			nil, false, http.StatusUnauthorized),
		{
			Name: "Booking: dropoff before pickup -> 400",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.cfg.Token == "" || r.cfg.CarID == "" {
					return Result{Status: statusSkip, Note: "token or car-id not set"}
				}
				res, _ := r.do(ctx, http.MethodPost, base+"/api/bookings", map[string]any{
					"carId":       r.cfg.CarID,
					"pickupDate":  bookingDates["dropoffDate"],
					"dropoffDate": bookingDates["pickupDate"],
				}, true)
				return expectStatus(res, http.StatusBadRequest)
			},
		},

		manualCase("Booking: vendor confirm/reject flow", "needs a vendor token for the car's vendor"),
		manualCase("Booking: pending expiry", "shorten GETACAR_BOOKING_PENDING_TTL and watch status"),

		// Data consistency
		{
			Name: "Consistency: every booking has events",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				var orphans int
				err := r.db.QueryRow(ctx, `
					SELECT COUNT(*) FROM bookings b
					WHERE NOT EXISTS (SELECT 1 FROM booking_events e WHERE e.booking_id = b.id)`,
				).Scan(&orphans)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if orphans > 0 {
					return Result{Status: statusFail, Note: fmt.Sprintf("orphans=%d", orphans)}
				}
				return Result{Status: statusPass}
			},
		},

		// Concurrency
		{
			Name: "Concurrency: same car and dates booked once",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.cfg.Token == "" || r.cfg.CarID == "" {
					return Result{Status: statusSkip, Note: "token or car-id not set"}
				}
				return concurrentBooking(ctx, r, base+"/api/bookings")
			},
		},

		// Performance
		{
			Name: "Perf: search throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, http.MethodGet, base+"/api/cars?type=SUV&maxPrice=1500", nil)
			},
		},
		{
			Name: "Perf: quote throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.cfg.CarID == "" {
					return Result{Status: statusSkip, Note: "car-id not set"}
				}
				return perfLoad(ctx, r, http.MethodPost, base+"/api/pricing/quote",
					map[string]any{"carId": r.cfg.CarID, "rentalDays": 5})
			},
		},
	}
}

// do sends one request and reports PASS for any 2xx response.
func (r *Runner) do(ctx context.Context, method, url string, body any, auth bool) (Result, []byte) {
	req, err := r.newRequest(ctx, method, url, body, auth)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}, nil
	}
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}, nil
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	res := Result{Latency: time.Since(start), Note: fmt.Sprintf("status=%d", resp.StatusCode)}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		res.Status = statusPass
	case resp.StatusCode == http.StatusNotImplemented:
		res.Status = statusPending
	default:
		res.Status = statusFail
	}
	return res, raw
}

func (r *Runner) newRequest(ctx context.Context, method, url string, body any, auth bool) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if auth && r.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.Token)
	}
	return req, nil
}

func statusCase(name, method, url string, body any, auth bool, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			res, _ := r.do(ctx, method, url, body, auth)
			return expectStatus(res, want)
		},
	}
}

func expectStatus(res Result, want int) Result {
	if res.Note == fmt.Sprintf("status=%d", want) {
		res.Status = statusPass
	} else if res.Status != statusPending {
		res.Status = statusFail
	}
	return res
}

// expectURL checks that the enveloped "url" field ends with suffix.
func expectURL(name, url, suffix string) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			res, body := r.do(ctx, http.MethodGet, url, nil, false)
			if res.Status != statusPass {
				return res
			}
			got, err := envelope.Decode[struct {
				URL string `json:"url"`
			}](bytes.NewReader(body))
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			if !strings.HasSuffix(got.URL, suffix) {
				return Result{Status: statusFail, Latency: res.Latency, Note: fmt.Sprintf("url=%q", got.URL)}
			}
			return res
		},
	}
}

func manualCase(name, note string) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			return Result{Status: statusSkip, Note: note}
		},
	}
}

func concurrentBooking(ctx context.Context, r *Runner, url string) Result {
	payload := map[string]any{"carId": r.cfg.CarID}
	for k, v := range bookingDates {
		payload[k] = v
	}
	var (
		wg                  sync.WaitGroup
		mu                  sync.Mutex
		created, conflicted int
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := r.newRequest(ctx, http.MethodPost, url, payload, true)
			if err != nil {
				return
			}
			resp, err := r.httpc.Do(req)
			if err != nil {
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			mu.Lock()
			defer mu.Unlock()
			switch resp.StatusCode {
			case http.StatusCreated:
				created++
			case http.StatusConflict:
				conflicted++
			}
		}()
	}
	wg.Wait()

	note := fmt.Sprintf("created=%d conflict=%d", created, conflicted)
	if created <= 1 {
		return Result{Status: statusPass, Note: note}
	}
	return Result{Status: statusFail, Note: note}
}

func perfLoad(ctx context.Context, r *Runner, method, url string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var (
		mu              sync.Mutex
		wg              sync.WaitGroup
		count, errCount int64
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, err := r.newRequest(ctx, method, url, payload, false)
				if err != nil {
					return
				}
				resp, err := r.httpc.Do(req)
				mu.Lock()
				if err != nil || resp.StatusCode >= 500 {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
				if err == nil {
					_, _ = io.Copy(io.Discard, resp.Body)
					resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

var createTableRe = regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)

func extractTables(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	var tables []string
	for _, path := range files {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		for _, m := range createTableRe.FindAllStringSubmatch(string(b), -1) {
			tables = append(tables, m[1])
		}
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables declared in %s", dir)
	}
	return tables, nil
}
