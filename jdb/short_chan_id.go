package jdb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-errors/errors"
)

// ShortChanID is the decoded form of a short channel id as it appears in
// snapshots, e.g. "585x1x0" or "585:1:0".
type ShortChanID struct {
	BlockHeight uint32
	TxIndex     uint32
	TxPosition  uint16
}

// ParseShortChanID decodes a short channel id string in either the
// x-separated or the colon-separated format.
func ParseShortChanID(str string) (ShortChanID, error) {
	shortChanID := ShortChanID{}

	parts := strings.Split(str, "x")
	if len(parts) != 3 {
		parts = strings.Split(str, ":")
	}

	if len(parts) != 3 {
		return shortChanID, errors.Errorf("Unable to parse short channel id with format 123x45x6 or 123:45:6")
	}

	blockHeight, err := strconv.Atoi(parts[0])
	if err != nil {
		return shortChanID, errors.Errorf("Could not parse block height: %v", err)
	}
	shortChanID.BlockHeight = uint32(blockHeight)

	txIndex, err := strconv.Atoi(parts[1])
	if err != nil {
		return shortChanID, errors.Errorf("Could not parse tx index: %v", err)
	}
	shortChanID.TxIndex = uint32(txIndex)

	txPosition, err := strconv.Atoi(parts[2])
	if err != nil {
		return shortChanID, errors.Errorf("Could not parse tx position: %v", err)
	}
	shortChanID.TxPosition = uint16(txPosition)

	return shortChanID, nil
}

// ShortChanIDFromInt decodes the packed 64-bit form used by lnd.
func ShortChanIDFromInt(chanID uint64) ShortChanID {
	return ShortChanID{
		BlockHeight: uint32(chanID >> 40),
		TxIndex:     uint32(chanID>>16) & 0xFFFFFF,
		TxPosition:  uint16(chanID),
	}
}

// ToUint64 returns the packed 64-bit form.
func (c ShortChanID) ToUint64() uint64 {
	return (uint64(c.BlockHeight) << 40) | (uint64(c.TxIndex) << 16) | (uint64(c.TxPosition))
}

func (c ShortChanID) String() string {
	return fmt.Sprintf("%dx%dx%d", c.BlockHeight, c.TxIndex, c.TxPosition)
}

// ChanID returns the id in the string form the snapshot format uses.
func (c ShortChanID) ChanID() ChanID {
	return ChanID(c.String())
}
