package jdb

import (
	"fmt"

	"github.com/go-errors/errors"
)

// SlotsJammedError reports that a hop on the route had all slots occupied
// by HTLCs that can't be resolved yet.
type SlotsJammedError struct {
	AtHop int
	From  NodeID
	To    NodeID
}

func (err SlotsJammedError) Error() string {
	return fmt.Sprintf("Slots jammed at hop %v from %v to %v", err.AtHop, err.From, err.To)
}

// BalanceFailureError reports a probabilistic balance failure at a hop.
type BalanceFailureError struct {
	AtHop int
	From  NodeID
	To    NodeID
}

func (err BalanceFailureError) Error() string {
	return fmt.Sprintf("Balance failure at hop %v from %v to %v", err.AtHop, err.From, err.To)
}

// NoCapableChannelError reports that no channel between two nodes is
// enabled in the required direction with enough capacity for the amount.
type NoCapableChannelError struct {
	From   NodeID
	To     NodeID
	Amount float64
}

func (err NoCapableChannelError) Error() string {
	return fmt.Sprintf("No capable channel from %v to %v for amount %v", err.From, err.To, err.Amount)
}

// no route between sender and receiver
var NoRouteError = errors.New("No route between sender and receiver")

// all slots of a channel direction are occupied
var SlotsFullError = errors.New("All slots are occupied")
