package simulator

import (
	"github.com/go-errors/errors"
	"github.com/the-lightning-land/jammed/jdb"
)

// HopPayment is the per-hop slice of a payment: what one node asks the
// next to forward. A routing node sees only the amount, not its split into
// body plus success fee.
type HopPayment struct {
	// Downstream is the node this hop forwards to.
	Downstream jdb.NodeID

	// ChanID is the channel chosen for this hop at construction.
	ChanID jdb.ChanID

	// Body is what the downstream node forwards further (or keeps, at the
	// receiver).
	Body float64

	// Amount is body plus the success-case fee of this hop. This is what
	// the HTLC encodes.
	Amount float64

	// SuccessFee is paid to the downstream node if the payment resolves
	// successfully.
	SuccessFee float64

	// UpfrontFee is paid to the downstream node on entry, unconditionally.
	UpfrontFee float64
}

// Payment is a route-bound payment, built once per route attempt and
// consumed hop by hop by the forwarding engine.
type Payment struct {
	Sender          jdb.NodeID
	Hops            []HopPayment
	DesiredResult   bool
	ProcessingDelay float64
}

// NewPayment builds a payment for a route, walking the route backwards
// from the receiver and wrapping fees hop by hop. At each hop the cheapest
// qualifying channel is chosen. A positive dustLimit rejects payments
// whose amount falls below it on any layer.
func NewPayment(graph *jdb.Graph, route []jdb.NodeID, receiverAmount float64,
	processingDelay float64, desiredResult bool, dustLimit int64) (*Payment, error) {

	if len(route) < 2 {
		return nil, errors.Errorf("Route needs at least two nodes, got %v", len(route))
	}

	hops := make([]HopPayment, len(route)-1)
	amount := receiverAmount

	for i := len(route) - 2; i >= 0; i-- {
		upstream, downstream := route[i], route[i+1]
		direction := jdb.DirectionBetween(upstream, downstream)

		hop := graph.Hop(upstream, downstream)
		if hop == nil {
			return nil, jdb.NoCapableChannelError{From: upstream, To: downstream, Amount: amount}
		}
		cid, ok := hop.CheapestChanID(amount, direction)
		if !ok {
			return nil, jdb.NoCapableChannelError{From: upstream, To: downstream, Amount: amount}
		}

		state := hop.Channel(cid).Direction(direction)
		body := amount
		successFee := state.SuccessFee(body)
		amount = body + successFee
		upfrontFee := state.UpfrontFee(amount)

		if dustLimit > 0 && amount < float64(dustLimit) {
			return nil, errors.Errorf("Payment amount %v on hop %v is below the dust limit %v",
				amount, i, dustLimit)
		}

		hops[i] = HopPayment{
			Downstream: downstream,
			ChanID:     cid,
			Body:       body,
			Amount:     amount,
			SuccessFee: successFee,
			UpfrontFee: upfrontFee,
		}
	}

	return &Payment{
		Sender:          route[0],
		Hops:            hops,
		DesiredResult:   desiredResult,
		ProcessingDelay: processingDelay,
	}, nil
}

// Amount returns what the sender pays on entry: the outermost amount.
func (p *Payment) Amount() float64 {
	return p.Hops[0].Amount
}
