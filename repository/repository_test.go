package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"

	"go-soilwater/config"
	"go-soilwater/models"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), ErrNotFound},
		{"duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, ErrDuplicate},
		{"other mysql", &mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err)
			if tt.want == nil {
				if got != tt.err {
					t.Errorf("translate() = %v, want the original error", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("translate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNullable(t *testing.T) {
	if v := nullable(math.Inf(-1)); v.Valid {
		t.Errorf("nullable(-Inf) = %+v, want NULL", v)
	}
	if v := nullable(math.NaN()); v.Valid {
		t.Errorf("nullable(NaN) = %+v, want NULL", v)
	}
	if v := nullable(-12.5); !v.Valid || v.Float64 != -12.5 {
		t.Errorf("nullable(-12.5) = %+v", v)
	}
	if v := fromNullable(sql.NullFloat64{}); !math.IsInf(v, -1) {
		t.Errorf("fromNullable(NULL) = %v, want -Inf", v)
	}
}

func TestPageNormalize(t *testing.T) {
	tests := []struct {
		in, want Page
		offset   int
	}{
		{Page{}, Page{Number: 1, Size: 10}, 0},
		{Page{Number: 3, Size: 20}, Page{Number: 3, Size: 20}, 40},
		{Page{Number: 2, Size: 1000}, Page{Number: 2, Size: 100}, 100},
		{Page{Number: -4, Size: -1}, Page{Number: 1, Size: 10}, 0},
	}
	for _, tt := range tests {
		got := tt.in.Normalize()
		if got != tt.want || got.offset() != tt.offset {
			t.Errorf("%+v.Normalize() = %+v (offset %d), want %+v (offset %d)", tt.in, got, got.offset(), tt.want, tt.offset)
		}
	}
}

// openTestDB 需要 SOILWATER_TEST_DSN 指向一个可写的空库，否则跳过
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("SOILWATER_TEST_DSN")
	if dsn == "" {
		t.Skip("SOILWATER_TEST_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := config.Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

func TestMySQLRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	operators := NewOperatorStore(db)
	name := fmt.Sprintf("op_%d", time.Now().UnixNano())
	op, err := operators.Create(ctx, name, "hash")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := operators.Create(ctx, name, "hash"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Create(duplicate) error = %v, want ErrDuplicate", err)
	}
	found, err := operators.FindByUsername(ctx, name)
	if err != nil || found.ID != op.ID {
		t.Fatalf("FindByUsername() = %+v, %v", found, err)
	}

	records := NewRecordStore(db)
	rec := &models.EstimationRecord{
		PublicID: name, UserID: op.ID, Task: "soil_water_calculator",
		Status: models.StatusSuccess, Message: "total water calculated", Payload: "{}", Result: "0.02",
	}
	if err := records.SaveEstimation(ctx, rec); err != nil {
		t.Fatalf("SaveEstimation() error = %v", err)
	}
	got, err := records.GetEstimation(ctx, op.ID, name)
	if err != nil || got.ID != rec.ID || got.Result != "0.02" {
		t.Fatalf("GetEstimation() = %+v, %v", got, err)
	}
	if _, err := records.GetEstimation(ctx, op.ID+1, name); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEstimation(other user) error = %v, want ErrNotFound", err)
	}
	list, total, err := records.ListEstimations(ctx, op.ID, EstimationFilter{Task: "soil_water_calculator"})
	if err != nil || total != 1 || len(list) != 1 {
		t.Fatalf("ListEstimations() = %v, %d, %v", list, total, err)
	}

	cal := &models.CalibrationRecord{
		UserID: op.ID, Sensor: "sensor-1",
		Model: models.CalibrationModel{Degree: 1, Coefficients: []float64{0.1, -399.5}, RSquared: 1, AIC: math.Inf(-1), BIC: math.Inf(-1), FullScale: 4095},
	}
	if err := records.SaveCalibration(ctx, cal); err != nil {
		t.Fatalf("SaveCalibration() error = %v", err)
	}
	cals, err := records.ListCalibrations(ctx, op.ID, "sensor-1")
	if err != nil || len(cals) != 1 {
		t.Fatalf("ListCalibrations() = %v, %v", cals, err)
	}
	if m := cals[0].Model; len(m.Coefficients) != 2 || !math.IsInf(m.AIC, -1) || m.FullScale != 4095 {
		t.Errorf("stored model = %+v", m)
	}
}
