package chain

import (
	"fmt"
	"math/big"
	"strings"

	"ClubVote/internal/model"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// VotingEvent 合约最小 ABI
const votingEventABI = `[
	{"name":"createEvent","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"_name","type":"string"},
		{"name":"_description","type":"string"},
		{"name":"_startTime","type":"uint256"},
		{"name":"_endTime","type":"uint256"}
	],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"finalizeEvent","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"_eventId","type":"uint256"},
		{"name":"_winner","type":"string"}
	],"outputs":[]},
	{"name":"eventCount","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"getEventDetails","type":"function","stateMutability":"view","inputs":[
		{"name":"_eventId","type":"uint256"}
	],"outputs":[
		{"name":"id","type":"uint256"},
		{"name":"name","type":"string"},
		{"name":"description","type":"string"},
		{"name":"startTime","type":"uint256"},
		{"name":"endTime","type":"uint256"},
		{"name":"finalized","type":"bool"},
		{"name":"winner","type":"string"}
	]}
]`

const (
	methodCreateEvent     = "createEvent"
	methodFinalizeEvent   = "finalizeEvent"
	methodEventCount      = "eventCount"
	methodGetEventDetails = "getEventDetails"
)

func parseContractABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(votingEventABI))
}

func decodeEventCount(parsed abi.ABI, out []byte) (uint64, error) {
	vals, err := parsed.Unpack(methodEventCount, out)
	if err != nil {
		return 0, fmt.Errorf("unpack eventCount: %w", err)
	}
	if len(vals) != 1 {
		return 0, fmt.Errorf("eventCount 返回 %d 个值", len(vals))
	}
	n, ok := vals[0].(*big.Int)
	if !ok || !n.IsUint64() {
		return 0, fmt.Errorf("eventCount 返回值无效: %v", vals[0])
	}
	return n.Uint64(), nil
}

// decodeEventDetails 解析 getEventDetails 返回的 (id, name, description, startTime, endTime, finalized, winner)
func decodeEventDetails(parsed abi.ABI, index uint64, out []byte) (*model.ChainEvent, error) {
	vals, err := parsed.Unpack(methodGetEventDetails, out)
	if err != nil {
		return nil, &DecodeError{Index: index, Err: err}
	}
	if len(vals) != 7 {
		return nil, &DecodeError{Index: index, Err: fmt.Errorf("expected 7 fields, got %d", len(vals))}
	}
	id, ok1 := vals[0].(*big.Int)
	name, ok2 := vals[1].(string)
	desc, ok3 := vals[2].(string)
	start, ok4 := vals[3].(*big.Int)
	end, ok5 := vals[4].(*big.Int)
	finalized, ok6 := vals[5].(bool)
	winner, ok7 := vals[6].(string)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6 && ok7) {
		return nil, &DecodeError{Index: index, Err: fmt.Errorf("unexpected field types %T", vals)}
	}
	if !id.IsUint64() || !start.IsInt64() || !end.IsInt64() {
		return nil, &DecodeError{Index: index, Err: fmt.Errorf("numeric field out of range")}
	}
	return &model.ChainEvent{
		ID:          id.Uint64(),
		Name:        name,
		Description: desc,
		StartTime:   start.Int64(),
		EndTime:     end.Int64(),
		Finalized:   finalized,
		Winner:      winner,
	}, nil
}
