package jdb

// ChannelDirection models the forwarding state of a channel in one
// direction: the fee coefficients, the slot budget, and the priority queue
// of in-flight HTLCs.
//
// The success-case fee is base + rate * body, where body is what the
// downstream node forwards further. The unconditional (upfront) fee is
// base + rate * amount, where amount is body plus the success-case fee.
type ChannelDirection struct {
	SuccessBaseFee float64
	SuccessFeeRate float64
	UpfrontBaseFee float64
	UpfrontFeeRate float64

	numSlots int
	htlcs    HtlcQueue
}

// NewChannelDirection creates a directional state with the given slot
// budget and success-case fee coefficients. Upfront fee coefficients start
// at zero and are typically derived later from the success-case ones.
func NewChannelDirection(numSlots int, successBaseFee, successFeeRate float64) *ChannelDirection {
	return &ChannelDirection{
		SuccessBaseFee: successBaseFee,
		SuccessFeeRate: successFeeRate,
		numSlots:       numSlots,
	}
}

// NumSlots returns the maximum number of in-flight HTLCs.
func (d *ChannelDirection) NumSlots() int {
	return d.numSlots
}

// NumSlotsOccupied returns the number of queued HTLCs. Some of them may be
// outdated with respect to the current simulated time.
func (d *ChannelDirection) NumSlotsOccupied() int {
	return d.htlcs.Len()
}

// HasFreeSlot is true if the queue has room for another HTLC.
func (d *ChannelDirection) HasFreeSlot() bool {
	return d.htlcs.Len() < d.numSlots
}

// TryInsert queues an HTLC, or fails with SlotsFullError if all slots are
// occupied.
func (d *ChannelDirection) TryInsert(h Htlc) error {
	if !d.HasFreeSlot() {
		return SlotsFullError
	}
	d.htlcs.Push(h)
	return nil
}

// PeekEarliest returns the earliest-resolving HTLC without removing it.
func (d *ChannelDirection) PeekEarliest() (Htlc, bool) {
	return d.htlcs.PeekEarliest()
}

// PopEarliest removes and returns the earliest-resolving HTLC.
func (d *ChannelDirection) PopEarliest() (Htlc, bool) {
	return d.htlcs.PopEarliest()
}

// SuccessFee returns the success-case fee for a payment body.
func (d *ChannelDirection) SuccessFee(body float64) float64 {
	return d.SuccessBaseFee + d.SuccessFeeRate*body
}

// UpfrontFee returns the unconditional fee for a payment amount.
func (d *ChannelDirection) UpfrontFee(amount float64) float64 {
	return d.UpfrontBaseFee + d.UpfrontFeeRate*amount
}

// ComputeFees returns the success-case and unconditional fees for a hop
// forwarding the given body and amount.
func (d *ChannelDirection) ComputeFees(body, amount float64) (float64, float64) {
	return d.SuccessFee(body), d.UpfrontFee(amount)
}

// TotalFee is the channel selection sort key: the total fee charged for
// forwarding the given amount downstream.
func (d *ChannelDirection) TotalFee(amount float64) float64 {
	successFee := d.SuccessFee(amount)
	return successFee + d.UpfrontFee(amount+successFee)
}

// IsJammed reports whether the direction is jammed at the given time: all
// slots are occupied, and the earliest HTLC resolves strictly in the
// future.
func (d *ChannelDirection) IsJammed(time float64) bool {
	if d.HasFreeSlot() {
		return false
	}
	earliest, ok := d.htlcs.PeekEarliest()
	if !ok {
		return false
	}
	return earliest.ResolutionTime > time
}

// Reset drops all in-flight HTLCs.
func (d *ChannelDirection) Reset() {
	d.htlcs = HtlcQueue{}
}
