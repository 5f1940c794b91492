package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

type runRow struct {
	ID        string `gorm:"primaryKey"`
	World     string
	Timestamp time.Time
	Dt        float64
	Duration  float64
	Steps     int
	Metrics   datatypes.JSON
	Vehicles  []vehicleRow `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

func (runRow) TableName() string { return "runs" }

type vehicleRow struct {
	ID    uint   `gorm:"primaryKey;autoIncrement"`
	RunID string `gorm:"index"`
	Name  string
	Class string
}

func (vehicleRow) TableName() string { return "run_vehicles" }

type sampleRow struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	RunID   string `gorm:"index:idx_run_vehicle_seq"`
	Vehicle string `gorm:"index:idx_run_vehicle_seq"`
	Seq     int    `gorm:"index:idx_run_vehicle_seq"`
	Time    float64
	X       float64
	Y       float64
	Yaw     float64
	VX      float64
	VY      float64
	W       float64
	// Control applied during the tick that produced this sample; empty for
	// the initial state.
	Control datatypes.JSON
}

func (sampleRow) TableName() string { return "run_samples" }

// SQLiteStore keeps runs in a SQLite database.
type SQLiteStore struct {
	path string
	db   *gorm.DB
	log  zerolog.Logger
}

func NewSQLiteStore(path string, log zerolog.Logger) *SQLiteStore {
	return &SQLiteStore{path: path, log: log}
}

func (s *SQLiteStore) Init() error {
	dsn := s.path
	if dsn == "" {
		dsn = "file::memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("open sqlite %q: %w", dsn, err)
	}

	if s.path == "" {
		// Every pooled connection would otherwise open its own empty database.
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&runRow{}, &vehicleRow{}, &sampleRow{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	s.db = db
	s.log.Debug().Str("path", dsn).Msg("sqlite run store ready")
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	s.db = nil
	return sqlDB.Close()
}

func (s *SQLiteStore) Save(world string, result *dynamo.Result) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("sqlite store not initialized")
	}
	meta := newMetadata(newRunID(world), world, result)

	metrics, err := json.Marshal(meta.Metrics)
	if err != nil {
		return "", err
	}
	run := runRow{
		ID:        meta.ID,
		World:     meta.World,
		Timestamp: meta.Timestamp,
		Dt:        meta.Dt,
		Duration:  meta.Duration,
		Steps:     meta.Steps,
		Metrics:   datatypes.JSON(metrics),
	}
	for _, v := range meta.Vehicles {
		run.Vehicles = append(run.Vehicles, vehicleRow{Name: v.Name, Class: v.Class})
	}

	samples := make([]sampleRow, 0)
	for _, tr := range result.Trajectories {
		for i, x := range tr.States {
			row := sampleRow{RunID: meta.ID, Vehicle: tr.Vehicle, Seq: i, Time: tr.Times[i]}
			if len(x) >= 6 {
				row.X, row.Y, row.Yaw, row.VX, row.VY, row.W = x[0], x[1], x[2], x[3], x[4], x[5]
			}
			if i > 0 && i-1 < len(tr.Controls) && tr.Controls[i-1] != nil {
				u, err := json.Marshal(tr.Controls[i-1])
				if err != nil {
					return "", err
				}
				row.Control = datatypes.JSON(u)
			}
			samples = append(samples, row)
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return err
		}
		if len(samples) > 0 {
			return tx.Create(&samples).Error
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("save run %s: %w", meta.ID, err)
	}

	s.log.Debug().Str("run", meta.ID).Int("samples", len(samples)).Msg("run saved")
	return meta.ID, nil
}

func (s *SQLiteStore) List() ([]RunMetadata, error) {
	if s.db == nil {
		return nil, fmt.Errorf("sqlite store not initialized")
	}
	var rows []runRow
	if err := s.db.Preload("Vehicles").Order("timestamp").Find(&rows).Error; err != nil {
		return nil, err
	}
	runs := make([]RunMetadata, 0, len(rows))
	for _, r := range rows {
		meta, err := r.metadata()
		if err != nil {
			return nil, err
		}
		runs = append(runs, *meta)
	}
	return runs, nil
}

func (s *SQLiteStore) Load(runID string) (*RunMetadata, error) {
	if s.db == nil {
		return nil, fmt.Errorf("sqlite store not initialized")
	}
	var row runRow
	err := s.db.Preload("Vehicles").First(&row, "id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return row.metadata()
}

func (s *SQLiteStore) LoadTrajectory(runID, vehicle string) (*dynamo.Trajectory, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	tr := &dynamo.Trajectory{Vehicle: vehicle}
	for _, v := range meta.Vehicles {
		if v.Name == vehicle {
			tr.Class = v.Class
		}
	}
	if tr.Class == "" {
		return nil, fmt.Errorf("%w: %s/%s", ErrRunNotFound, runID, vehicle)
	}

	var rows []sampleRow
	err = s.db.Where("run_id = ? AND vehicle = ?", runID, vehicle).Order("seq").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i, r := range rows {
		tr.Times = append(tr.Times, r.Time)
		tr.States = append(tr.States, dynamo.State{r.X, r.Y, r.Yaw, r.VX, r.VY, r.W})
		if i == 0 {
			continue
		}
		var u dynamo.Control
		if len(r.Control) > 0 {
			if err := json.Unmarshal(r.Control, &u); err != nil {
				return nil, err
			}
		}
		tr.Controls = append(tr.Controls, u)
	}
	return tr, nil
}

func (r runRow) metadata() (*RunMetadata, error) {
	meta := &RunMetadata{
		ID:        r.ID,
		World:     r.World,
		Timestamp: r.Timestamp,
		Dt:        r.Dt,
		Duration:  r.Duration,
		Steps:     r.Steps,
		Vehicles:  make([]VehicleInfo, 0, len(r.Vehicles)),
	}
	if len(r.Metrics) > 0 {
		if err := json.Unmarshal(r.Metrics, &meta.Metrics); err != nil {
			return nil, err
		}
	}
	for _, v := range r.Vehicles {
		meta.Vehicles = append(meta.Vehicles, VehicleInfo{Name: v.Name, Class: v.Class})
	}
	return meta, nil
}
