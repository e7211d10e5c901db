// Package snapshot reads channel graph snapshots in the scheme of Core
// Lightning's listchannels output and converts them into a network model.
package snapshot

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/the-lightning-land/jammed/jdb"
)

const (
	// Fees are given in millisatoshi (base) and per-millionth (rate),
	// while the model works in satoshi and proportions.
	millisatPerSat = 1000
	millionth      = 1000000
)

// Channel is one directed channel entry of a snapshot. Each undirected
// channel appears twice, once per direction; a direction absent from the
// snapshot is disabled.
type Channel struct {
	Source              string  `json:"source"`
	Destination         string  `json:"destination"`
	ShortChannelID      string  `json:"short_channel_id"`
	Satoshis            int64   `json:"satoshis"`
	Active              bool    `json:"active"`
	BaseFeeMillisatoshi float64 `json:"base_fee_millisatoshi"`
	FeePerMillionth     float64 `json:"fee_per_millionth"`
}

// Snapshot is a parsed channel list.
type Snapshot struct {
	Channels []Channel `json:"channels"`
}

// Load reads and parses a snapshot file.
func Load(path string) (*Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Errorf("Could not open snapshot file: %v", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse decodes a snapshot from a reader.
func Parse(r io.Reader) (*Snapshot, error) {
	snapshot := &Snapshot{}

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(snapshot); err != nil {
		return nil, errors.Errorf("Could not decode snapshot: %v", err)
	}

	return snapshot, nil
}

// Graph builds the network model from the snapshot. Every active channel
// entry becomes one enabled channel direction with the given default slot
// budget. Malformed entries fail the conversion.
func (s *Snapshot) Graph(defaultNumSlots int) (*jdb.Graph, error) {
	graph := jdb.NewGraph(defaultNumSlots)

	for _, entry := range s.Channels {
		if _, err := jdb.ParseShortChanID(entry.ShortChannelID); err != nil {
			return nil, errors.Errorf("Could not parse short channel id %v: %v",
				entry.ShortChannelID, err)
		}

		if !entry.Active {
			continue
		}

		state := jdb.NewChannelDirection(
			defaultNumSlots,
			entry.BaseFeeMillisatoshi/millisatPerSat,
			entry.FeePerMillionth/millionth,
		)

		err := graph.AddChannelDirection(
			jdb.NodeID(entry.Source),
			jdb.NodeID(entry.Destination),
			jdb.ChanID(entry.ShortChannelID),
			entry.Satoshis,
			state,
		)
		if err != nil {
			return nil, errors.Errorf("Could not add channel %v: %v",
				entry.ShortChannelID, err)
		}
	}

	return graph, nil
}
