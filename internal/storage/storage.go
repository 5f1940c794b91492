// Package storage records simulation runs and reads them back.
//
// Two backends implement [Backend]: "file" writes one directory per run
// holding metadata.json and one CSV per vehicle, "sqlite" keeps runs in a
// SQLite database through GORM.
package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

// ErrRunNotFound is returned for unknown run or vehicle ids.
var ErrRunNotFound = errors.New("storage: run not found")

// ErrBadName is returned for run IDs and vehicle names that cannot be used as
// a single path element.
var ErrBadName = errors.New("storage: name is not a valid path element")

type VehicleInfo struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

type RunMetadata struct {
	ID        string             `json:"id"`
	World     string             `json:"world"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Vehicles  []VehicleInfo      `json:"vehicles"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Backend is implemented by every run store.
type Backend interface {
	Init() error
	Close() error

	// Save stores a result under a new run id derived from world.
	Save(world string, result *dynamo.Result) (string, error)
	List() ([]RunMetadata, error)
	Load(runID string) (*RunMetadata, error)
	LoadTrajectory(runID, vehicle string) (*dynamo.Trajectory, error)
}

type Config struct {
	Type string
	// Dir is the run directory of the file backend.
	Dir string
	// Path is the database file of the sqlite backend; empty means in memory.
	Path string
}

// NewBackend creates a storage backend based on configuration.
func NewBackend(cfg Config, log zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "", "file":
		return NewFileStore(cfg.Dir), nil
	case "sqlite":
		return NewSQLiteStore(cfg.Path, log), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}

func newMetadata(id, world string, result *dynamo.Result) RunMetadata {
	meta := RunMetadata{
		ID:        id,
		World:     world,
		Timestamp: time.Now(),
		Dt:        result.Dt,
		Duration:  result.Duration,
		Steps:     result.StepsTaken,
		Vehicles:  make([]VehicleInfo, 0, len(result.Trajectories)),
		Metrics:   result.Metrics,
	}
	for _, tr := range result.Trajectories {
		meta.Vehicles = append(meta.Vehicles, VehicleInfo{Name: tr.Vehicle, Class: tr.Class})
	}
	return meta
}

func newRunID(world string) string {
	return fmt.Sprintf("%s_%d", world, time.Now().UnixNano())
}
