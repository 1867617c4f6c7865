package chain

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"

	"ClubVote/internal/config"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend 钱包注入的链上节点，*ethclient.Client 满足该接口
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// Wallet 账户授权与交易签名
type Wallet interface {
	// RequestAccounts 请求授权（可能需要用户确认），拒绝时返回错误
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Accounts 返回已授权账户，不触发授权请求
	Accounts(ctx context.Context) ([]common.Address, error)
	SignTx(ctx context.Context, account common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
	// Dial 返回钱包提供的节点连接
	Dial(ctx context.Context) (Backend, error)
}

// WalletSource 钱包发现；钱包尚未就绪时返回 ErrWalletNotFound
type WalletSource interface {
	Lookup(ctx context.Context) (Wallet, error)
}

type dialFunc func(ctx context.Context, rpcURL string) (Backend, error)

func dialEthclient(ctx context.Context, rpcURL string) (Backend, error) {
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// KeyWallet 用本地私钥签名的钱包，RPC 走 ethclient
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	rpcURL  string
	dial    dialFunc

	mu         sync.Mutex
	authorized bool
}

// NewKeyWallet 由十六进制私钥（可带 0x）创建钱包
func NewKeyWallet(privateKeyHex, rpcURL string) (*KeyWallet, error) {
	keyHex := strings.TrimSpace(privateKeyHex)
	keyHex = strings.TrimPrefix(keyHex, "0x")
	keyBuf, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("decode wallet key: %w", err)
	}
	key, err := crypto.ToECDSA(keyBuf)
	if err != nil {
		return nil, fmt.Errorf("to ecdsa: %w", err)
	}
	return newKeyWallet(key, rpcURL, dialEthclient), nil
}

func newKeyWallet(key *ecdsa.PrivateKey, rpcURL string, dial dialFunc) *KeyWallet {
	return &KeyWallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		rpcURL:  rpcURL,
		dial:    dial,
	}
}

// Address 钱包账户地址
func (w *KeyWallet) Address() common.Address { return w.address }

// RequestAccounts 本地私钥钱包无需人工确认，直接授权
func (w *KeyWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.authorized = true
	w.mu.Unlock()
	return []common.Address{w.address}, nil
}

func (w *KeyWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.authorized {
		return nil, nil
	}
	return []common.Address{w.address}, nil
}

func (w *KeyWallet) SignTx(ctx context.Context, account common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if account != w.address {
		return nil, fmt.Errorf("account %s is not managed by this wallet", account.Hex())
	}
	return types.SignTx(tx, types.NewEIP155Signer(chainID), w.key)
}

func (w *KeyWallet) Dial(ctx context.Context) (Backend, error) {
	if w.rpcURL == "" {
		return nil, fmt.Errorf("rpc_url 未配置")
	}
	return w.dial(ctx, w.rpcURL)
}

// StaticSource 固定钱包（私钥来自配置）
type StaticSource struct {
	Wallet Wallet
}

func (s StaticSource) Lookup(ctx context.Context) (Wallet, error) {
	if s.Wallet == nil {
		return nil, ErrWalletNotFound
	}
	return s.Wallet, nil
}

// KeyFileSource 从私钥文件加载钱包；文件出现前返回 ErrWalletNotFound
type KeyFileSource struct {
	path   string
	rpcURL string

	mu     sync.Mutex
	wallet *KeyWallet
}

func NewKeyFileSource(path, rpcURL string) *KeyFileSource {
	return &KeyFileSource{path: path, rpcURL: rpcURL}
}

func (s *KeyFileSource) Lookup(ctx context.Context) (Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wallet != nil {
		return s.wallet, nil
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("read key file: %w", err)
	}
	w, err := NewKeyWallet(string(raw), s.rpcURL)
	if err != nil {
		return nil, err
	}
	s.wallet = w
	return w, nil
}

// SourceFromConfig private_key 优先，其次 key_file
func SourceFromConfig(cfg config.ChainConfig) (WalletSource, error) {
	if cfg.PrivateKey != "" {
		w, err := NewKeyWallet(cfg.PrivateKey, cfg.RPCURL)
		if err != nil {
			return nil, err
		}
		return StaticSource{Wallet: w}, nil
	}
	if cfg.KeyFile != "" {
		return NewKeyFileSource(cfg.KeyFile, cfg.RPCURL), nil
	}
	return nil, fmt.Errorf("chain 需要配置 private_key 或 key_file")
}
