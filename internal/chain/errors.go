package chain

import (
	"errors"
	"fmt"

	"ClubVote/internal/utils/dateparse"
)

var (
	// ErrWalletUnavailable 未发现钱包（超时）或钱包提供的节点不可用
	ErrWalletUnavailable = errors.New("ethereum wallet not found")
	// ErrConnectionRejected 用户拒绝授权账户
	ErrConnectionRejected = errors.New("user denied account access")
	// ErrNotConnected 关闭自动连接时，未先调用 Connect
	ErrNotConnected = errors.New("wallet not connected")
	// ErrInvalidTimeRange 起止时间无法解析
	ErrInvalidTimeRange = dateparse.ErrInvalidTimeRange
	// ErrTransactionRejected 钱包拒绝签名
	ErrTransactionRejected = errors.New("transaction rejected by wallet")
	// ErrTransactionFailed 交易发送失败或链上执行失败(revert)
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrConfirmationTimeout 等待上链确认超时；交易可能仍会被打包
	ErrConfirmationTimeout = errors.New("transaction confirmation timed out")
	// ErrConfirmationAbandoned 调用方取消或客户端关闭，放弃等待确认
	ErrConfirmationAbandoned = errors.New("transaction confirmation abandoned")
	// ErrWalletNotFound WalletSource 暂未发现钱包，调用方会继续轮询
	ErrWalletNotFound = errors.New("wallet not present")
	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("chain client closed")
)

// DecodeError 单条链上活动无法解析；ListEvents 会跳过该条继续
type DecodeError struct {
	Index uint64
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode chain event %d: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
