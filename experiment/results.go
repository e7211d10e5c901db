package experiment

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/jammed/jdb"
)

// AvgStats are run stats averaged over a simulation series.
type AvgStats struct {
	NumSent            float64 `json:"num_sent"`
	NumFailed          float64 `json:"num_failed"`
	NumReachedReceiver float64 `json:"num_reached_receiver"`
}

// CellResult is the averaged outcome of one grid cell.
type CellResult struct {
	UpfrontBaseCoeff float64                 `json:"upfront_base_coeff"`
	UpfrontRateCoeff float64                 `json:"upfront_rate_coeff"`
	Stats            AvgStats                `json:"stats"`
	Revenues         map[jdb.NodeID]float64 `json:"revenues"`
}

// Params records the experiment parameters alongside its results.
type Params struct {
	TargetNode            jdb.NodeID `json:"target_node,omitempty"`
	NumTargetHops         int        `json:"num_target_hops"`
	Duration              float64    `json:"duration"`
	NumRuns               int        `json:"num_runs_per_simulation"`
	NormalizedForDuration bool       `json:"results_normalized"`
	DustLimit             int64      `json:"dust_limit"`
	JamDelay              float64    `json:"jam_delay"`
}

// Results aggregates both simulation series over the whole grid.
type Results struct {
	Params  Params       `json:"params"`
	Honest  []CellResult `json:"honest"`
	Jamming []CellResult `json:"jamming"`
}

// WriteJSON dumps the results into a JSON file.
func (r *Results) WriteJSON(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Errorf("Could not create results file: %v", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(r); err != nil {
		return errors.Errorf("Could not encode results: %v", err)
	}

	return nil
}

// nodes returns all node names appearing in any revenue map, sorted.
func (r *Results) nodes() []jdb.NodeID {
	seen := make(map[jdb.NodeID]bool)
	for _, series := range [][]CellResult{r.Honest, r.Jamming} {
		for _, cell := range series {
			for node := range cell.Revenues {
				seen[node] = true
			}
		}
	}
	nodes := make([]jdb.NodeID, 0, len(seen))
	for node := range seen {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}

// WriteCSV dumps the results into a CSV file, one block per simulation
// series.
func (r *Results) WriteCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Errorf("Could not create results file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	nodes := r.nodes()

	series := []struct {
		name  string
		cells []CellResult
	}{
		{"honest", r.Honest},
		{"jamming", r.Jamming},
	}

	for _, s := range series {
		header := []string{
			"upfront_base_coeff",
			"upfront_rate_coeff",
			"sent",
			"failed",
			"reached_receiver",
		}
		for _, node := range nodes {
			header = append(header, fmt.Sprintf("%s_%s", s.name[:1], node))
		}
		if err := writer.Write(header); err != nil {
			return errors.Errorf("Could not write results: %v", err)
		}

		for _, cell := range s.cells {
			record := []string{
				formatFloat(cell.UpfrontBaseCoeff),
				formatFloat(cell.UpfrontRateCoeff),
				formatFloat(cell.Stats.NumSent),
				formatFloat(cell.Stats.NumFailed),
				formatFloat(cell.Stats.NumReachedReceiver),
			}
			for _, node := range nodes {
				record = append(record, formatFloat(cell.Revenues[node]))
			}
			if err := writer.Write(record); err != nil {
				return errors.Errorf("Could not write results: %v", err)
			}
		}
	}

	return nil
}

// ReadResults loads a results file written by WriteJSON.
func ReadResults(path string) (*Results, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("Could not open results file: %v", err)
	}
	defer file.Close()

	results := &Results{}
	if err := json.NewDecoder(file).Decode(results); err != nil {
		return nil, errors.Errorf("Could not decode results: %v", err)
	}

	return results, nil
}

func formatFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}
