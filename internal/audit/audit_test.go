package audit

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/pet-ledger/internal/domain"
)

type failureCounter map[string]int

func (f failureCounter) RecordAuditFailure(sink string) {
	f[sink]++
}

func TestEntryLine(t *testing.T) {
	testCases := []struct {
		entry Entry
		want  string
	}{
		{
			entry: Entry{AccountRef: "1", Kind: domain.KindDeposit, Amount: 250},
			want:  "Account: 1, Type: DEPOSIT, Amount: $250",
		},
		{
			entry: Entry{AccountRef: "7", Kind: domain.KindWithdraw, Amount: 5},
			want:  "Account: 7, Type: WITHDRAW, Amount: $5",
		},
		{
			entry: Entry{AccountRef: domain.TransferRef(1, 2), Kind: domain.KindTransfer, Amount: 300},
			want:  "Account: 1 to 2, Type: TRANSFER, Amount: $300",
		},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.want, tc.entry.Line())
	}
}

func TestNotifyOrder(t *testing.T) {
	d := NewDispatcher(nil)

	var got []string

	for _, name := range []string{"first", "second", "third"} {
		name := name
		d.Register(name, SinkFunc(func(ctx context.Context, e Entry) error {
			got = append(got, name)
			return nil
		}))
	}

	d.Notify(context.Background(), Entry{AccountRef: "1", Kind: domain.KindDeposit, Amount: 1})

	require.Equal(t, []string{"first", "second", "third"}, got)
	require.Equal(t, 3, d.Len())
}

func TestNotifyIsolatesFailures(t *testing.T) {
	failures := failureCounter{}
	d := NewDispatcher(failures)

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	var recorded []Entry

	d.Register("broken", SinkFunc(func(ctx context.Context, e Entry) error {
		return errors.New("disk full")
	}))
	d.Register("panicky", SinkFunc(func(ctx context.Context, e Entry) error {
		panic("sink bug")
	}))
	d.Register("healthy", SinkFunc(func(ctx context.Context, e Entry) error {
		recorded = append(recorded, e)
		return nil
	}))

	e := Entry{AccountRef: "3", Kind: domain.KindWithdraw, Amount: 10}
	require.NotPanics(t, func() { d.Notify(ctx, e) })

	require.Equal(t, []Entry{e}, recorded)
	require.Equal(t, failureCounter{"broken": 1, "panicky": 1}, failures)
	require.Contains(t, buf.String(), "audit sink failure")
	require.Contains(t, buf.String(), "disk full")
	require.Contains(t, buf.String(), "sink bug")
}

func TestRemove(t *testing.T) {
	d := NewDispatcher(nil)

	calls := 0
	sink := SinkFunc(func(ctx context.Context, e Entry) error {
		calls++
		return nil
	})

	d.Register("dup", sink)
	d.Register("dup", sink)

	require.True(t, d.Remove("dup"))
	d.Notify(context.Background(), Entry{})
	require.Equal(t, 1, calls)

	require.True(t, d.Remove("dup"))
	require.False(t, d.Remove("dup"))
	d.Notify(context.Background(), Entry{})
	require.Equal(t, 1, calls)
	require.Zero(t, d.Len())
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.log")
	s := NewFileSink(path)

	ctx := context.Background()
	require.NoError(t, s.Record(ctx, Entry{AccountRef: "1", Kind: domain.KindDeposit, Amount: 100}))
	require.NoError(t, s.Record(ctx, Entry{AccountRef: "1 to 2", Kind: domain.KindTransfer, Amount: 300}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	want := "Account: 1, Type: DEPOSIT, Amount: $100\n" +
		"Account: 1 to 2, Type: TRANSFER, Amount: $300\n"
	require.Equal(t, want, string(content))
}

func TestFileSinkUnwritable(t *testing.T) {
	s := NewFileSink(filepath.Join(t.TempDir(), "missing", "transactions.log"))

	err := s.Record(context.Background(), Entry{AccountRef: "1", Kind: domain.KindDeposit, Amount: 1})
	require.Error(t, err)
}

type fakeList struct {
	key    string
	values []interface{}
	err    error
}

func (f *fakeList) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.key = key
	f.values = append(f.values, values...)

	return redis.NewIntResult(int64(len(f.values)), f.err)
}

func TestRedisSink(t *testing.T) {
	list := &fakeList{}
	s := NewRedisSink(list, "ledger:audit")

	err := s.Record(context.Background(), Entry{AccountRef: "2", Kind: domain.KindWithdraw, Amount: 40})
	require.NoError(t, err)
	require.Equal(t, "ledger:audit", list.key)
	require.Equal(t, []interface{}{"Account: 2, Type: WITHDRAW, Amount: $40"}, list.values)
	require.NoError(t, s.Close())

	list.err = errors.New("connection refused")
	require.EqualError(t, s.Record(context.Background(), Entry{}), "connection refused")
}

type closingSink struct {
	SinkFunc
	closed bool
}

func (c *closingSink) Close() error {
	c.closed = true
	return nil
}

func TestDispatcherClose(t *testing.T) {
	d := NewDispatcher(nil)

	c := &closingSink{SinkFunc: func(ctx context.Context, e Entry) error { return nil }}
	d.Register("closing", c)
	d.Register("file", NewFileSink(filepath.Join(t.TempDir(), "a.log")))

	require.NoError(t, d.Close())
	require.True(t, c.closed)
}
