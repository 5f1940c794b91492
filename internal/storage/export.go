package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/mv2dsim/internal/dynamo"
)

type ExportData struct {
	World    string             `json:"world"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	Vehicles []ExportVehicle    `json:"vehicles"`
	Metrics  map[string]float64 `json:"metrics"`
}

type ExportVehicle struct {
	Name     string      `json:"name"`
	Class    string      `json:"class"`
	Times    []float64   `json:"times"`
	States   [][]float64 `json:"states"`
	Controls [][]float64 `json:"controls"`
}

// ExportJSON writes a result as indented JSON to path, or to stdout when path is "-".
func ExportJSON(path, world string, result *dynamo.Result) error {
	if path == "-" {
		return WriteJSON(os.Stdout, world, result)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, world, result)
}

func WriteJSON(w io.Writer, world string, result *dynamo.Result) error {
	data := ExportData{
		World:    world,
		Dt:       result.Dt,
		Duration: result.Duration,
		Steps:    result.StepsTaken,
		Vehicles: make([]ExportVehicle, len(result.Trajectories)),
		Metrics:  result.Metrics,
	}

	for i, tr := range result.Trajectories {
		v := ExportVehicle{
			Name:     tr.Vehicle,
			Class:    tr.Class,
			Times:    tr.Times,
			States:   make([][]float64, len(tr.States)),
			Controls: make([][]float64, len(tr.Controls)),
		}
		for j, s := range tr.States {
			v.States[j] = s
		}
		for j, c := range tr.Controls {
			v.Controls[j] = c
		}
		data.Vehicles[i] = v
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
