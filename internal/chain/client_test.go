package chain

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ClubVote/internal/metrics"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
)

var testContract = common.HexToAddress("0x1b048BEcA83b6dc765BD3A0c930E67Aaf2187091")

func testOptions() Options {
	return Options{
		ContractAddress:     testContract,
		WalletPollInterval:  5 * time.Millisecond,
		WalletTimeout:       50 * time.Millisecond,
		ConfirmPollInterval: 5 * time.Millisecond,
		ConfirmTimeout:      50 * time.Millisecond,
		GasLimit:            500000,
		LazyConnect:         true,
	}
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestClient(opts Options, source WalletSource) (*Client, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	c, err := NewClient(opts, source, quietLogger(), metrics.NewRecorder(reg))
	if err != nil {
		panic(err)
	}
	return c, reg
}

const skippedMetric = `
# HELP clubvote_chain_events_skipped_total Chain events skipped while listing because they could not be fetched or decoded.
# TYPE clubvote_chain_events_skipped_total counter
clubvote_chain_events_skipped_total 1
`

func TestClientConnect(t *testing.T) {
	Convey("钱包连接", t, func() {
		key, err := crypto.GenerateKey()
		So(err, ShouldBeNil)
		ledger := newFakeLedger()
		wallet := newTestWallet(key, ledger)
		ctx := context.Background()

		Convey("连接成功后状态为 connected", func() {
			c, _ := newTestClient(testOptions(), StaticSource{Wallet: wallet})
			So(c.IsConnected(ctx), ShouldBeFalse)

			So(c.Connect(ctx), ShouldBeNil)
			st, lastErr := c.State()
			So(st, ShouldEqual, StateConnected)
			So(lastErr, ShouldBeNil)
			So(c.Account(), ShouldEqual, crypto.PubkeyToAddress(key.PublicKey))
			So(c.IsConnected(ctx), ShouldBeTrue)

			Convey("重复连接是幂等的", func() {
				So(c.EnsureConnected(ctx), ShouldBeNil)
				So(c.Account(), ShouldEqual, crypto.PubkeyToAddress(key.PublicKey))
			})

			Convey("Close 断开节点", func() {
				c.Close()
				st, _ := c.State()
				So(st, ShouldEqual, StateDisconnected)
				So(ledger.closed, ShouldBeTrue)
				So(errors.Is(c.Connect(ctx), ErrClientClosed), ShouldBeTrue)
			})
		})

		Convey("钱包稍后出现时轮询直到发现", func() {
			src := &lateSource{misses: 3, wallet: wallet}
			c, _ := newTestClient(testOptions(), src)
			So(c.Connect(ctx), ShouldBeNil)
			So(src.calls, ShouldEqual, 4)
		})

		Convey("钱包始终未出现时超时", func() {
			c, _ := newTestClient(testOptions(), &lateSource{})
			err := c.Connect(ctx)
			So(errors.Is(err, ErrWalletUnavailable), ShouldBeTrue)
			st, lastErr := c.State()
			So(st, ShouldEqual, StateFailed)
			So(errors.Is(lastErr, ErrWalletUnavailable), ShouldBeTrue)
		})

		Convey("取消 ctx 停止轮询", func() {
			opts := testOptions()
			opts.WalletTimeout = time.Minute
			c, _ := newTestClient(opts, &lateSource{})
			cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			So(errors.Is(c.Connect(cctx), context.DeadlineExceeded), ShouldBeTrue)
		})

		Convey("Close 停止轮询", func() {
			opts := testOptions()
			opts.WalletTimeout = time.Minute
			c, _ := newTestClient(opts, &lateSource{})
			go func() {
				time.Sleep(20 * time.Millisecond)
				c.Close()
			}()
			So(errors.Is(c.Connect(ctx), ErrClientClosed), ShouldBeTrue)
		})

		Convey("授权期间 Close 后不会回到 connected", func() {
			bw := &blockingWallet{KeyWallet: wallet, entered: make(chan struct{}), release: make(chan struct{})}
			c, _ := newTestClient(testOptions(), StaticSource{Wallet: bw})
			done := make(chan error, 1)
			go func() { done <- c.Connect(ctx) }()

			<-bw.entered
			c.Close()
			close(bw.release)

			So(errors.Is(<-done, ErrClientClosed), ShouldBeTrue)
			st, _ := c.State()
			So(st, ShouldEqual, StateDisconnected)
			So(c.Account(), ShouldEqual, common.Address{})
			ledger.mu.Lock()
			closed := ledger.closed
			ledger.mu.Unlock()
			So(closed, ShouldBeTrue)
		})

		Convey("用户拒绝授权", func() {
			c, _ := newTestClient(testOptions(), StaticSource{Wallet: &moodyWallet{KeyWallet: wallet, denyAccounts: true}})
			err := c.Connect(ctx)
			So(errors.Is(err, ErrConnectionRejected), ShouldBeTrue)
			So(errors.Is(err, errUserDenied), ShouldBeTrue)
			So(c.IsConnected(ctx), ShouldBeFalse)
		})

		Convey("关闭自动连接时未连接调用返回 ErrNotConnected", func() {
			opts := testOptions()
			opts.LazyConnect = false
			c, _ := newTestClient(opts, StaticSource{Wallet: wallet})
			_, err := c.EventCount(ctx)
			So(err, ShouldEqual, ErrNotConnected)

			So(c.Connect(ctx), ShouldBeNil)
			n, err := c.EventCount(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})
	})
}

func TestClientReads(t *testing.T) {
	Convey("链上活动读取", t, func() {
		key, _ := crypto.GenerateKey()
		ledger := newFakeLedger()
		c, reg := newTestClient(testOptions(), StaticSource{Wallet: newTestWallet(key, ledger)})
		ctx := context.Background()

		ledger.addEvent(ledgerEvent{name: "Chess Election", description: "d1", start: 1743465600, end: 1744243200})
		ledger.addEvent(ledgerEvent{name: "Broken", start: 1, end: 2})
		ledger.addEvent(ledgerEvent{name: "Drama Election", start: 1743465600, end: 1744243200, finalized: true, winner: "Bob"})

		Convey("自动连接后读取 eventCount", func() {
			n, err := c.EventCount(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 3)
		})

		Convey("单条解析失败时跳过并返回其余活动", func() {
			ledger.corrupt[2] = true
			events, err := c.ListEvents(ctx)
			So(err, ShouldBeNil)
			So(len(events), ShouldEqual, 2)
			So(events[0].ID, ShouldEqual, 1)
			So(events[0].Name, ShouldEqual, "Chess Election")
			So(events[0].StartTime, ShouldEqual, 1743465600)
			So(events[1].ID, ShouldEqual, 3)
			So(events[1].Finalized, ShouldBeTrue)
			So(events[1].Winner, ShouldEqual, "Bob")
			So(testutil.GatherAndCompare(reg, strings.NewReader(skippedMetric), "clubvote_chain_events_skipped_total"), ShouldBeNil)
		})

		Convey("eventCount 异常巨大时逐条跳过直到 ctx 结束", func() {
			ledger.count = new(big.Int).Lsh(big.NewInt(1), 62)
			cctx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
			defer cancel()
			var err error
			So(func() { _, err = c.ListEvents(cctx) }, ShouldNotPanic)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})

		Convey("无法解析的返回值产生 DecodeError", func() {
			_, err := decodeEventDetails(c.abi, 9, []byte{0x01})
			var de *DecodeError
			So(errors.As(err, &de), ShouldBeTrue)
			So(de.Index, ShouldEqual, 9)
		})
	})
}

func TestClientTransactions(t *testing.T) {
	Convey("交易提交与确认", t, func() {
		key, _ := crypto.GenerateKey()
		ledger := newFakeLedger()
		wallet := newTestWallet(key, ledger)
		ctx := context.Background()

		Convey("创建活动时日期转为 Unix 秒", func() {
			c, _ := newTestClient(testOptions(), StaticSource{Wallet: wallet})
			handle, err := c.CreateEvent(ctx, "Spring", "desc", "2025-04-01", "2025-04-10")
			So(err, ShouldBeNil)
			So(handle.BlockNumber, ShouldEqual, 7)
			So(handle.From, ShouldEqual, crypto.PubkeyToAddress(key.PublicKey).Hex())
			So(len(hexutil.MustDecode(handle.Hash)), ShouldEqual, 32)

			So(ledger.sentMethods(), ShouldResemble, []string{methodCreateEvent})
			args := ledger.args[0]
			So(args[2].(*big.Int).Int64(), ShouldEqual, 1743465600)
			So(args[3].(*big.Int).Int64(), ShouldEqual, 1744243200)
			So(ledger.sent[0].Gas(), ShouldEqual, 500000)
			So(*ledger.sent[0].To(), ShouldEqual, testContract)

			n, err := c.EventCount(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})

		Convey("无法解析的日期不发送交易", func() {
			c, _ := newTestClient(testOptions(), StaticSource{Wallet: wallet})
			_, err := c.CreateEvent(ctx, "Spring", "", "not-a-date", "2025-04-10")
			So(errors.Is(err, ErrInvalidTimeRange), ShouldBeTrue)
			So(ledger.sentMethods(), ShouldBeEmpty)
		})

		Convey("重复 finalize 均转发到合约", func() {
			c, _ := newTestClient(testOptions(), StaticSource{Wallet: wallet})
			ledger.addEvent(ledgerEvent{name: "E", start: 1, end: 2})
			_, err := c.FinalizeEvent(ctx, 1, "Alice")
			So(err, ShouldBeNil)
			_, err = c.FinalizeEvent(ctx, 1, "Alice")
			So(err, ShouldBeNil)
			So(ledger.sentMethods(), ShouldResemble, []string{methodFinalizeEvent, methodFinalizeEvent})
			So(ledger.sent[1].Nonce(), ShouldEqual, 1)
		})

		Convey("钱包拒绝签名", func() {
			c, _ := newTestClient(testOptions(), StaticSource{Wallet: &moodyWallet{KeyWallet: wallet, denySign: true}})
			_, err := c.FinalizeEvent(ctx, 1, "Alice")
			So(errors.Is(err, ErrTransactionRejected), ShouldBeTrue)
			So(ledger.sentMethods(), ShouldBeEmpty)
		})

		Convey("回执显示执行失败", func() {
			ledger.failTx = true
			c, _ := newTestClient(testOptions(), StaticSource{Wallet: wallet})
			_, err := c.FinalizeEvent(ctx, 1, "Alice")
			So(errors.Is(err, ErrTransactionFailed), ShouldBeTrue)
		})

		Convey("确认等待超时", func() {
			ledger.withhold = true
			c, _ := newTestClient(testOptions(), StaticSource{Wallet: wallet})
			_, err := c.FinalizeEvent(ctx, 1, "Alice")
			So(errors.Is(err, ErrConfirmationTimeout), ShouldBeTrue)
		})

		Convey("调用方取消时放弃等待", func() {
			ledger.withhold = true
			opts := testOptions()
			opts.ConfirmTimeout = time.Minute
			c, _ := newTestClient(opts, StaticSource{Wallet: wallet})
			So(c.Connect(ctx), ShouldBeNil)
			cctx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
			defer cancel()
			_, err := c.FinalizeEvent(cctx, 1, "Alice")
			So(errors.Is(err, ErrConfirmationAbandoned), ShouldBeTrue)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})
}

func TestKeyFileSource(t *testing.T) {
	Convey("私钥文件钱包", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "wallet.key")
		src := NewKeyFileSource(path, "http://ledger.test")
		ctx := context.Background()

		_, err := src.Lookup(ctx)
		So(err, ShouldEqual, ErrWalletNotFound)

		key, _ := crypto.GenerateKey()
		So(os.WriteFile(path, []byte(hexutil.Encode(crypto.FromECDSA(key))+"\n"), 0o600), ShouldBeNil)

		w, err := src.Lookup(ctx)
		So(err, ShouldBeNil)
		So(w.(*KeyWallet).Address(), ShouldEqual, crypto.PubkeyToAddress(key.PublicKey))

		again, _ := src.Lookup(ctx)
		So(again, ShouldEqual, w)
	})
}
