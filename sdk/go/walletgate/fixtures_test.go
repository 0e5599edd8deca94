package walletgate

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
)

const (
	testSeed      = "test test test test test test test test test test test junk"
	dummyTxHash   = "0xdeadbeef1234567890abcdef1234567890abcdef12345678"
	dummySig      = "0xabcdef1234567890abcdef1234567890abcdef1234567890abcdef1234567890"
	testAddress   = "0xa460AEbce0d3A4BecAd8ccf9D6D4861296c503Bd"
	testBridgeFee = 5_000_000_000_000
)

type txResult struct {
	Hash string
	Fee  *big.Int
}

// recorder keeps the calls that reached a fake backend.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(method string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, method)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeAccount struct {
	index   uint32
	path    string
	backend *recorder
}

func (a *fakeAccount) Methods() MethodSet {
	tx := func(name string) MethodFunc {
		return func(ctx context.Context, params any) (any, error) {
			a.backend.add(name)
			return txResult{Hash: dummyTxHash, Fee: big.NewInt(21_000_000_000_000)}, nil
		}
	}
	return MethodSet{
		"getAddress": func(ctx context.Context, params any) (any, error) {
			a.backend.add("getAddress")
			return testAddress, nil
		},
		"sendTransaction": tx("sendTransaction"),
		"transfer":        tx("transfer"),
		"bridge":          tx("bridge"),
		"repay":           tx("repay"),
		"borrow":          tx("borrow"),
		"sign": func(ctx context.Context, params any) (any, error) {
			a.backend.add("sign")
			return dummySig, nil
		},
		"customOp": tx("customOp"),
	}
}

type fakeBackend struct {
	seed     string
	config   any
	calls    *recorder
	disposed atomic.Int32
	fees     FeeRates
	err      error
}

func (b *fakeBackend) GetAccount(_ context.Context, index uint32) (RawAccount, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &fakeAccount{index: index, backend: b.calls}, nil
}

func (b *fakeBackend) GetAccountByPath(_ context.Context, path string) (RawAccount, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &fakeAccount{path: path, backend: b.calls}, nil
}

func (b *fakeBackend) GetFeeRates(context.Context) (FeeRates, error) { return b.fees, nil }

func (b *fakeBackend) Dispose() { b.disposed.Add(1) }

// walletFactory returns a factory that records every backend it builds.
type walletFactory struct {
	mu       sync.Mutex
	built    []*fakeBackend
	calls    *recorder
	accErr   error
	factErr  error
	onCreate func()
}

func newWalletFactory() *walletFactory {
	return &walletFactory{calls: &recorder{}}
}

func (f *walletFactory) factory() WalletFactory {
	return func(seed string, config any) (WalletBackend, error) {
		if f.onCreate != nil {
			f.onCreate()
		}
		if f.factErr != nil {
			return nil, f.factErr
		}
		b := &fakeBackend{
			seed:   seed,
			config: config,
			calls:  f.calls,
			err:    f.accErr,
			fees:   FeeRates{Normal: big.NewInt(10), Fast: big.NewInt(20)},
		}
		f.mu.Lock()
		f.built = append(f.built, b)
		f.mu.Unlock()
		return b, nil
	}
}

func (f *walletFactory) backends() []*fakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeBackend(nil), f.built...)
}

type fakeProtocol struct {
	account *Account
	config  any
	calls   *recorder
}

func (p *fakeProtocol) Methods() MethodSet {
	return MethodSet{
		"quoteSwap": func(ctx context.Context, params any) (any, error) {
			p.calls.add("quoteSwap")
			return "quote", nil
		},
		"swap": func(ctx context.Context, params any) (any, error) {
			p.calls.add("swap")
			return txResult{Hash: dummyTxHash}, nil
		},
		"bridge": func(ctx context.Context, params any) (any, error) {
			p.calls.add("bridge")
			return txResult{Hash: dummyTxHash, Fee: big.NewInt(testBridgeFee)}, nil
		},
		"borrow": func(ctx context.Context, params any) (any, error) {
			p.calls.add("borrow")
			return txResult{Hash: dummyTxHash}, nil
		},
	}
}

// protocolFactoryStub counts how often its ProtocolFunc runs.
type protocolFactoryStub struct {
	created atomic.Int32
	calls   *recorder
	last    atomic.Pointer[fakeProtocol]
}

func newProtocolStub() *protocolFactoryStub {
	return &protocolFactoryStub{calls: &recorder{}}
}

func (s *protocolFactoryStub) fn(account *Account, config any) (RawProtocol, error) {
	s.created.Add(1)
	p := &fakeProtocol{account: account, config: config, calls: s.calls}
	s.last.Store(p)
	return p, nil
}

// evalSpy records the calls an evaluator receives.
type evalSpy struct {
	mu     sync.Mutex
	calls  []Call
	answer bool
	err    error
}

func (s *evalSpy) evaluate(_ context.Context, call Call) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
	return s.answer, s.err
}

func (s *evalSpy) seen() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m := New(testSeed, opts...)
	t.Cleanup(m.Dispose)
	return m
}

func mustAccount(t *testing.T, m *Manager, blockchain string) *Account {
	t.Helper()
	a, err := m.GetAccount(context.Background(), blockchain, 0)
	if err != nil {
		t.Fatalf("GetAccount(%s): %v", blockchain, err)
	}
	return a
}

func requireViolation(t *testing.T, err error, wantMsg string) *PolicyViolationError {
	t.Helper()
	if err == nil {
		t.Fatal("expected policy violation, got nil error")
	}
	v, ok := err.(*PolicyViolationError)
	if !ok {
		t.Fatalf("expected *PolicyViolationError, got %T: %v", err, err)
	}
	if wantMsg != "" && err.Error() != wantMsg {
		t.Errorf("message = %q, want %q", err.Error(), wantMsg)
	}
	return v
}

func oneEth() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
}

func maxValueEvaluator(limit *big.Int) Evaluator {
	return Predicate(func(call Call) bool {
		params, _ := call.Params.(map[string]any)
		v, _ := params["value"].(*big.Int)
		if v == nil {
			v = new(big.Int)
		}
		return v.Cmp(limit) <= 0
	})
}
