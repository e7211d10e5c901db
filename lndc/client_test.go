package lndc

import (
	"testing"

	"github.com/lightningnetwork/lnd/lnrpc"
)

func TestChannelEntries(t *testing.T) {
	edge := &lnrpc.ChannelEdge{
		ChannelId: 613315282598428673,
		Node1Pub:  "02aaaa",
		Node2Pub:  "03bbbb",
		Capacity:  500000,
		Node1Policy: &lnrpc.RoutingPolicy{
			FeeBaseMsat:      1000,
			FeeRateMilliMsat: 5,
		},
		Node2Policy: &lnrpc.RoutingPolicy{
			FeeBaseMsat:      2000,
			FeeRateMilliMsat: 10,
			Disabled:         true,
		},
	}

	entries := channelEntries(edge)

	if len(entries) != 2 {
		t.Fatalf("Two entries expected; got %v", len(entries))
	}

	if entries[0].ShortChannelID != "557807x665x1" {
		t.Errorf("Expected short channel id 557807x665x1; got %v", entries[0].ShortChannelID)
	}

	if entries[0].Source != "02aaaa" || entries[0].Destination != "03bbbb" {
		t.Errorf("Expected direction 02aaaa -> 03bbbb; got %v -> %v",
			entries[0].Source, entries[0].Destination)
	}

	if entries[0].Active {
		t.Errorf("Expected disabled policy to disable the direction")
	}

	if entries[1].BaseFeeMillisatoshi != 1000 || entries[1].FeePerMillionth != 5 {
		t.Errorf("Expected fee 1000/5; got %v/%v",
			entries[1].BaseFeeMillisatoshi, entries[1].FeePerMillionth)
	}

	if entries[0].Satoshis != 500000 || entries[1].Satoshis != 500000 {
		t.Errorf("Expected capacity 500000 on both directions")
	}
}

func TestChannelEntriesMissingPolicy(t *testing.T) {
	edge := &lnrpc.ChannelEdge{
		ChannelId: 613315282598428673,
		Node1Pub:  "02aaaa",
		Node2Pub:  "03bbbb",
		Capacity:  500000,
		Node1Policy: &lnrpc.RoutingPolicy{
			FeeBaseMsat: 1000,
		},
	}

	entries := channelEntries(edge)

	if len(entries) != 1 {
		t.Fatalf("One entry expected; got %v", len(entries))
	}

	if entries[0].Source != "03bbbb" || entries[0].Destination != "02aaaa" {
		t.Errorf("Expected direction 03bbbb -> 02aaaa; got %v -> %v",
			entries[0].Source, entries[0].Destination)
	}
}
