package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"ClubVote/internal/config"
	"ClubVote/internal/metrics"
	"ClubVote/internal/model"
	"ClubVote/internal/utils/dateparse"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
)

// State 钱包连接状态
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateFailed       State = "failed"
)

// maxListPrealloc ListEvents 预分配上限
const maxListPrealloc = 1024

// Options 客户端参数，对应 config.ChainConfig
type Options struct {
	ContractAddress     common.Address
	WalletPollInterval  time.Duration
	WalletTimeout       time.Duration
	ConfirmPollInterval time.Duration
	ConfirmTimeout      time.Duration
	GasLimit            uint64
	LazyConnect         bool
}

// OptionsFromConfig 由配置生成 Options，合约地址不合法时报错
func OptionsFromConfig(cfg config.ChainConfig) (Options, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return Options{}, fmt.Errorf("contract_address 不是合法地址: %q", cfg.ContractAddress)
	}
	return Options{
		ContractAddress:     common.HexToAddress(cfg.ContractAddress),
		WalletPollInterval:  cfg.WalletPollInterval,
		WalletTimeout:       cfg.WalletTimeout,
		ConfirmPollInterval: cfg.ConfirmPollInterval,
		ConfirmTimeout:      cfg.ConfirmTimeout,
		GasLimit:            cfg.GasLimit,
		LazyConnect:         cfg.LazyConnect,
	}, nil
}

func (o *Options) applyDefaults() {
	if o.WalletPollInterval <= 0 {
		o.WalletPollInterval = time.Second
	}
	if o.WalletTimeout <= 0 {
		o.WalletTimeout = 10 * time.Second
	}
	if o.ConfirmPollInterval <= 0 {
		o.ConfirmPollInterval = 2 * time.Second
	}
	if o.ConfirmTimeout <= 0 {
		o.ConfirmTimeout = 2 * time.Minute
	}
	if o.GasLimit == 0 {
		o.GasLimit = 500000
	}
}

type connection struct {
	wallet  Wallet
	backend Backend
	account common.Address
	chainID *big.Int
}

// Client VotingEvent 合约客户端：钱包连接、只读查询、交易提交与确认
type Client struct {
	opts    Options
	source  WalletSource
	abi     abi.ABI
	logger  *logrus.Logger
	metrics *metrics.Recorder

	connectMu sync.Mutex // 串行化连接流程

	mu      sync.RWMutex
	state   State
	lastErr error
	conn    *connection

	closed    chan struct{}
	closeOnce sync.Once
}

// NewClient 创建客户端，不会立即连接钱包
func NewClient(opts Options, source WalletSource, logger *logrus.Logger, rec *metrics.Recorder) (*Client, error) {
	if source == nil {
		return nil, fmt.Errorf("wallet source 不能为空")
	}
	parsed, err := parseContractABI()
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	opts.applyDefaults()
	return &Client{
		opts:    opts,
		source:  source,
		abi:     parsed,
		logger:  logger,
		metrics: rec,
		state:   StateDisconnected,
		closed:  make(chan struct{}),
	}, nil
}

// State 当前连接状态及最近一次连接失败原因
func (c *Client) State() (State, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.lastErr
}

// Account 已连接账户；未连接时返回零地址
func (c *Client) Account() common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil {
		return common.Address{}
	}
	return c.conn.account
}

// Connect 发现钱包、请求授权、连接节点；已连接时直接返回
func (c *Client) Connect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if st, _ := c.State(); st == StateConnected {
		return nil
	}
	select {
	case <-c.closed:
		return ErrClientClosed
	default:
	}
	c.setState(StateConnecting, nil)

	conn, err := c.dialWallet(ctx)
	if err != nil {
		c.setState(StateFailed, err)
		c.metrics.WalletConnect("failed")
		c.logger.WithError(err).Warn("钱包连接失败")
		return err
	}
	// 授权或拨号期间可能已被 Close，此时不能再回到 connected
	c.mu.Lock()
	select {
	case <-c.closed:
		c.state = StateDisconnected
		c.mu.Unlock()
		conn.backend.Close()
		return ErrClientClosed
	default:
	}
	c.state, c.lastErr, c.conn = StateConnected, nil, conn
	c.mu.Unlock()
	c.metrics.WalletConnect("connected")
	c.logger.WithFields(logrus.Fields{
		"account":  conn.account.Hex(),
		"chain_id": conn.chainID.String(),
	}).Info("钱包已连接")
	return nil
}

// EnsureConnected 幂等连接
func (c *Client) EnsureConnected(ctx context.Context) error {
	return c.Connect(ctx)
}

// IsConnected 不弹出授权，仅查询钱包是否已授权账户；从不返回错误
func (c *Client) IsConnected(ctx context.Context) bool {
	w, err := c.source.Lookup(ctx)
	if err != nil || w == nil {
		return false
	}
	accounts, err := w.Accounts(ctx)
	return err == nil && len(accounts) > 0
}

// Close 停止钱包轮询与确认等待，断开节点
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.backend.Close()
		c.conn = nil
	}
	c.state = StateDisconnected
}

func (c *Client) setState(st State, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = st
	c.lastErr = err
}

func (c *Client) dialWallet(ctx context.Context) (*connection, error) {
	wallet, err := c.discoverWallet(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := wallet.RequestAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionRejected, err)
	}
	if len(accounts) == 0 {
		return nil, ErrConnectionRejected
	}
	backend, err := wallet.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: dial: %w", ErrWalletUnavailable, err)
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("%w: chain id: %w", ErrWalletUnavailable, err)
	}
	return &connection{wallet: wallet, backend: backend, account: accounts[0], chainID: chainID}, nil
}

// discoverWallet 按 WalletPollInterval 轮询 WalletSource，直到发现、超时、取消或关闭
func (c *Client) discoverWallet(ctx context.Context) (Wallet, error) {
	deadline := time.NewTimer(c.opts.WalletTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.opts.WalletPollInterval)
	defer ticker.Stop()

	for {
		w, err := c.source.Lookup(ctx)
		if err == nil && w != nil {
			return w, nil
		}
		if err != nil && !errors.Is(err, ErrWalletNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrWalletUnavailable, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.closed:
			return nil, ErrClientClosed
		case <-deadline.C:
			return nil, ErrWalletUnavailable
		case <-ticker.C:
		}
	}
}

// session 返回可用连接；开启 LazyConnect 时自动连接
func (c *Client) session(ctx context.Context) (*connection, error) {
	c.mu.RLock()
	conn, st := c.conn, c.state
	c.mu.RUnlock()
	if st == StateConnected && conn != nil {
		return conn, nil
	}
	if !c.opts.LazyConnect {
		return nil, ErrNotConnected
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	return c.conn, nil
}

func (c *Client) call(ctx context.Context, conn *connection, method string, args ...interface{}) ([]byte, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	to := c.opts.ContractAddress
	return conn.backend.CallContract(ctx, ethereum.CallMsg{From: conn.account, To: &to, Data: data}, nil)
}

// EventCount 合约 eventCount()
func (c *Client) EventCount(ctx context.Context) (uint64, error) {
	conn, err := c.session(ctx)
	if err != nil {
		return 0, err
	}
	return c.eventCount(ctx, conn)
}

func (c *Client) eventCount(ctx context.Context, conn *connection) (uint64, error) {
	out, err := c.call(ctx, conn, methodEventCount)
	if err != nil {
		return 0, fmt.Errorf("call eventCount: %w", err)
	}
	return decodeEventCount(c.abi, out)
}

// ListEvents 依次读取 1..eventCount；单条读取或解析失败记录日志后跳过
func (c *Client) ListEvents(ctx context.Context) ([]*model.ChainEvent, error) {
	conn, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	count, err := c.eventCount(ctx, conn)
	if err != nil {
		return nil, err
	}
	// count 来自合约，不能直接用作容量
	events := make([]*model.ChainEvent, 0, min(count, maxListPrealloc))
	for i := uint64(1); i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ev, err := c.eventDetails(ctx, conn, i)
		if err != nil {
			c.logger.WithError(err).WithField("event_id", i).Warn("读取链上活动失败，已跳过")
			c.metrics.ChainEventSkipped()
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (c *Client) eventDetails(ctx context.Context, conn *connection, index uint64) (*model.ChainEvent, error) {
	out, err := c.call(ctx, conn, methodGetEventDetails, new(big.Int).SetUint64(index))
	if err != nil {
		return nil, fmt.Errorf("call getEventDetails(%d): %w", index, err)
	}
	return decodeEventDetails(c.abi, index, out)
}

// CreateEvent 将日历日期转换为 Unix 秒后调用 createEvent，并等待确认
func (c *Client) CreateEvent(ctx context.Context, name, description, startDate, endDate string) (*model.TransactionHandle, error) {
	start, end, err := dateparse.UnixWindow(startDate, endDate)
	if err != nil {
		return nil, err
	}
	if start < 0 || end < 0 {
		return nil, fmt.Errorf("%w: 时间早于 1970-01-01", ErrInvalidTimeRange)
	}
	return c.transact(ctx, methodCreateEvent, name, description, big.NewInt(start), big.NewInt(end))
}

// FinalizeEvent 调用 finalizeEvent，不做本地幂等检查
func (c *Client) FinalizeEvent(ctx context.Context, eventID uint64, winner string) (*model.TransactionHandle, error) {
	return c.transact(ctx, methodFinalizeEvent, new(big.Int).SetUint64(eventID), winner)
}

func (c *Client) transact(ctx context.Context, method string, args ...interface{}) (*model.TransactionHandle, error) {
	conn, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %w", ErrTransactionFailed, method, err)
	}
	gasPrice, err := conn.backend.SuggestGasPrice(ctx)
	if err != nil {
		c.metrics.TxFailed(method, "gas_price")
		return nil, fmt.Errorf("%w: gas price: %w", ErrTransactionFailed, err)
	}
	nonce, err := conn.backend.PendingNonceAt(ctx, conn.account)
	if err != nil {
		c.metrics.TxFailed(method, "nonce")
		return nil, fmt.Errorf("%w: pending nonce: %w", ErrTransactionFailed, err)
	}

	to := c.opts.ContractAddress
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      c.opts.GasLimit,
		To:       &to,
		Value:    big.NewInt(0),
		Data:     data,
	})
	signed, err := conn.wallet.SignTx(ctx, conn.account, tx, conn.chainID)
	if err != nil {
		c.metrics.TxFailed(method, "rejected")
		return nil, fmt.Errorf("%w: %w", ErrTransactionRejected, err)
	}
	if err := conn.backend.SendTransaction(ctx, signed); err != nil {
		c.metrics.TxFailed(method, "send")
		return nil, fmt.Errorf("%w: send tx: %w", ErrTransactionFailed, err)
	}
	c.metrics.TxSubmitted(method)
	txHash := signed.Hash()
	log := c.logger.WithFields(logrus.Fields{"method": method, "tx": txHash.Hex()})
	log.Info("交易已提交，等待确认")

	submitted := time.Now()
	receipt, err := c.waitMined(ctx, conn.backend, txHash)
	if err != nil {
		reason := "abandoned"
		if errors.Is(err, ErrConfirmationTimeout) {
			reason = "timeout"
		}
		c.metrics.TxFailed(method, reason)
		log.WithError(err).Warn("交易确认未完成")
		return nil, err
	}
	// 上链但执行失败(revert)
	if receipt.Status != types.ReceiptStatusSuccessful {
		c.metrics.TxFailed(method, "reverted")
		return nil, fmt.Errorf("%w: 交易已上链但执行失败(revert), tx: %s", ErrTransactionFailed, txHash.Hex())
	}
	c.metrics.TxConfirmed(method, time.Since(submitted).Seconds())

	handle := &model.TransactionHandle{
		Hash:    txHash.Hex(),
		GasUsed: receipt.GasUsed,
		From:    conn.account.Hex(),
	}
	if receipt.BlockNumber != nil {
		handle.BlockNumber = receipt.BlockNumber.Uint64()
	}
	log.WithField("block", handle.BlockNumber).Info("交易已确认")
	return handle, nil
}

// waitMined 轮询交易回执，受 ConfirmTimeout、ctx 与 Close 约束
func (c *Client) waitMined(ctx context.Context, backend Backend, txHash common.Hash) (*types.Receipt, error) {
	deadline := time.NewTimer(c.opts.ConfirmTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(c.opts.ConfirmPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			c.logger.WithError(err).WithField("tx", txHash.Hex()).Debug("查询交易回执失败，继续等待")
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: tx %s: %w", ErrConfirmationAbandoned, txHash.Hex(), ctx.Err())
		case <-c.closed:
			return nil, fmt.Errorf("%w: tx %s: %w", ErrConfirmationAbandoned, txHash.Hex(), ErrClientClosed)
		case <-deadline.C:
			return nil, fmt.Errorf("%w: 请稍后在区块浏览器查看 tx: %s", ErrConfirmationTimeout, txHash.Hex())
		case <-ticker.C:
		}
	}
}
