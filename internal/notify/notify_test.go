package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestRenderEscapesBody(t *testing.T) {
	msg := Custom("ada@example.com", "Hello", "first line\n<script>alert(1)</script>")
	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Hello", msg.Subject)
	assert.Contains(t, msg.HTML, "<p>first line</p>")
	assert.Contains(t, msg.HTML, "&lt;script&gt;")
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, Brand)
}

func TestVerifyEmailCarriesLink(t *testing.T) {
	msg := VerifyEmail("ada@example.com", "Ada", "http://localhost:3000/verify-email?token=abc")
	assert.Equal(t, "Verify your email", msg.Subject)
	assert.Contains(t, msg.HTML, `href="http://localhost:3000/verify-email?token=abc"`)
}

func TestLedgerMailSubjects(t *testing.T) {
	assert.Equal(t, "Deposit Approved", DepositApproved("a@b.c", "Ada", "500").Subject)
	assert.Equal(t, "Withdrawal Approved", WithdrawalApproved("a@b.c", "Ada", "50").Subject)
	p := ProfitCredited("a@b.c", "Ada", "60", "Week 1 ROI")
	assert.Equal(t, "Profit Credited", p.Subject)
	assert.True(t, strings.Contains(p.HTML, "Week 1 ROI"))
}

func TestDispatcherDeliversAndDrains(t *testing.T) {
	rec := &recordingSender{}
	d := NewDispatcher(rec, 2, 16)
	for i := 0; i < 10; i++ {
		d.Notify(context.Background(), Custom("a@b.c", "s", "m"))
	}
	d.Close()
	assert.Equal(t, 10, rec.count())

	// Closed dispatcher drops without panicking
	d.Notify(context.Background(), Custom("a@b.c", "s", "m"))
	d.Close()
	assert.Equal(t, 10, rec.count())
}

func TestDispatcherSurvivesSenderErrors(t *testing.T) {
	rec := &recordingSender{err: errors.New("smtp down")}
	d := NewDispatcher(rec, 1, 4)
	d.Notify(context.Background(), Custom("a@b.c", "s", "m"))
	d.Close()
	assert.Equal(t, 0, rec.count())
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(bool) error { f.acked = true; return nil }
func (f *fakeAck) Nack(_ bool, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}

func TestSettle(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{"to":"a@b.c","subject":"Deposit Approved","html":"<p>x</p>"}`)

	rec := &recordingSender{}
	ok := &fakeAck{}
	settle(ctx, rec, body, ok)
	assert.True(t, ok.acked)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, "Deposit Approved", rec.sent[0].Subject)

	failing := &fakeAck{}
	settle(ctx, &recordingSender{err: errors.New("down")}, body, failing)
	assert.True(t, failing.nacked)
	assert.True(t, failing.requeued)

	garbage := &fakeAck{}
	settle(ctx, rec, []byte("not json"), garbage)
	assert.True(t, garbage.nacked)
	assert.False(t, garbage.requeued)
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, LogSender{}.Send(context.Background(), Custom("a@b.c", "s", "m")))
}
