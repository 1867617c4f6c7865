package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type ledgerEvent struct {
	name, description string
	start, end        int64
	finalized         bool
	winner            string
}

// fakeLedger 模拟 VotingEvent 合约与节点
type fakeLedger struct {
	mu      sync.Mutex
	abi     abi.ABI
	chainID *big.Int

	events   []ledgerEvent
	corrupt  map[uint64]bool
	sent     []*types.Transaction
	methods  []string
	args     [][]interface{}
	mined    map[common.Hash]bool
	failTx   bool     // 回执标记执行失败
	withhold bool     // 永不返回回执
	count    *big.Int // 非 nil 时覆盖 eventCount 返回值
	closed   bool
}

func newFakeLedger() *fakeLedger {
	parsed, err := parseContractABI()
	if err != nil {
		panic(err)
	}
	return &fakeLedger{
		abi:     parsed,
		chainID: big.NewInt(1337),
		corrupt: map[uint64]bool{},
		mined:   map[common.Hash]bool{},
	}
}

func (l *fakeLedger) addEvent(ev ledgerEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *fakeLedger) CallContract(ctx context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	method, err := l.abi.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case methodEventCount:
		if l.count != nil {
			return method.Outputs.Pack(l.count)
		}
		return method.Outputs.Pack(big.NewInt(int64(len(l.events))))
	case methodGetEventDetails:
		in, err := method.Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		idx := in[0].(*big.Int).Uint64()
		if l.corrupt[idx] {
			return []byte{0xde, 0xad, 0xbe, 0xef}, nil
		}
		if idx == 0 || idx > uint64(len(l.events)) {
			return nil, fmt.Errorf("execution reverted: no such event")
		}
		ev := l.events[idx-1]
		return method.Outputs.Pack(new(big.Int).SetUint64(idx), ev.name, ev.description,
			big.NewInt(ev.start), big.NewInt(ev.end), ev.finalized, ev.winner)
	}
	return nil, fmt.Errorf("unexpected call %s", method.Name)
}

func (l *fakeLedger) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := types.Sender(types.NewEIP155Signer(l.chainID), tx); err != nil {
		return err
	}
	method, err := l.abi.MethodById(tx.Data()[:4])
	if err != nil {
		return err
	}
	in, err := method.Inputs.Unpack(tx.Data()[4:])
	if err != nil {
		return err
	}
	l.sent = append(l.sent, tx)
	l.methods = append(l.methods, method.Name)
	l.args = append(l.args, in)
	switch method.Name {
	case methodCreateEvent:
		l.events = append(l.events, ledgerEvent{
			name:        in[0].(string),
			description: in[1].(string),
			start:       in[2].(*big.Int).Int64(),
			end:         in[3].(*big.Int).Int64(),
		})
	case methodFinalizeEvent:
		idx := in[0].(*big.Int).Uint64()
		if idx >= 1 && idx <= uint64(len(l.events)) {
			l.events[idx-1].finalized = true
			l.events[idx-1].winner = in[1].(string)
		}
	}
	l.mined[tx.Hash()] = true
	return nil
}

func (l *fakeLedger) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.withhold || !l.mined[hash] {
		return nil, ethereum.NotFound
	}
	status := types.ReceiptStatusSuccessful
	if l.failTx {
		status = types.ReceiptStatusFailed
	}
	return &types.Receipt{Status: status, TxHash: hash, BlockNumber: big.NewInt(7), GasUsed: 21000}, nil
}

func (l *fakeLedger) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return uint64(len(l.sent)), nil
}

func (l *fakeLedger) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (l *fakeLedger) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(l.chainID), nil
}

func (l *fakeLedger) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

func (l *fakeLedger) sentMethods() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.methods...)
}

func newTestWallet(key *ecdsa.PrivateKey, ledger *fakeLedger) *KeyWallet {
	return newKeyWallet(key, "http://ledger.test", func(ctx context.Context, _ string) (Backend, error) {
		return ledger, nil
	})
}

// moodyWallet 可配置拒绝授权或拒绝签名
type moodyWallet struct {
	*KeyWallet
	denyAccounts bool
	denySign     bool
}

var errUserDenied = errors.New("user denied")

func (w *moodyWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if w.denyAccounts {
		return nil, errUserDenied
	}
	return w.KeyWallet.RequestAccounts(ctx)
}

func (w *moodyWallet) SignTx(ctx context.Context, account common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if w.denySign {
		return nil, errUserDenied
	}
	return w.KeyWallet.SignTx(ctx, account, tx, chainID)
}

// lateSource 前 n 次查找返回 ErrWalletNotFound
type lateSource struct {
	mu     sync.Mutex
	misses int
	wallet Wallet
	calls  int
}

func (s *lateSource) Lookup(ctx context.Context) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.misses || s.wallet == nil {
		return nil, ErrWalletNotFound
	}
	return s.wallet, nil
}

// blockingWallet RequestAccounts 阻塞到 release 关闭
type blockingWallet struct {
	*KeyWallet
	entered chan struct{}
	release chan struct{}
}

func (w *blockingWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	close(w.entered)
	<-w.release
	return w.KeyWallet.RequestAccounts(ctx)
}
