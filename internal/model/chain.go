package model

// ChainEvent 链上 VotingEvent 合约中的活动（没有候选名单，与本地 Event 互不同步）
type ChainEvent struct {
	ID          uint64 `json:"id"` // 合约分配，从 1 开始
	Name        string `json:"name"`
	Description string `json:"description"`
	StartTime   int64  `json:"start_time"` // Unix 秒
	EndTime     int64  `json:"end_time"`   // Unix 秒
	Finalized   bool   `json:"finalized"`
	Winner      string `json:"winner"` // finalize 前为空
}

// ChainEventStatus 链上活动只有 ongoing -> finalized 两个状态，仅由 finalizeEvent 驱动
type ChainEventStatus string

const (
	ChainEventOngoing   ChainEventStatus = "ongoing"
	ChainEventFinalized ChainEventStatus = "finalized"
)

// Status 根据 finalized 标记给出状态，与墙钟无关
func (e *ChainEvent) Status() ChainEventStatus {
	if e.Finalized {
		return ChainEventFinalized
	}
	return ChainEventOngoing
}

// TransactionHandle 已确认交易的回执摘要
type TransactionHandle struct {
	Hash        string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	GasUsed     uint64 `json:"gas_used"`
	From        string `json:"from"`
}
