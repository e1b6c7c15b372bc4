package admission

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/gdg-garage/guest-checkin-api/internal/metrics"
	"github.com/gdg-garage/guest-checkin-api/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDetector struct {
	frames []Credential
	err    error
	closed int
}

func (d *stubDetector) Detect(ctx context.Context) (Credential, bool, error) {
	if len(d.frames) == 0 {
		if d.err != nil {
			return Credential{}, false, d.err
		}
		return Credential{}, false, io.EOF
	}
	cred := d.frames[0]
	d.frames = d.frames[1:]
	return cred, cred.Raw != "", nil
}

func (d *stubDetector) Close() error {
	d.closed++
	return nil
}

func startPipeline(t *testing.T, ctrl *Controller) (*Pipeline, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPipeline(ctrl, 4)
	go p.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-p.Done()
	})
	return p, cancel
}

func TestPipelineSubmit(t *testing.T) {
	f := newFixture(t, models.PlanPro)
	f.addGuest(t, "Jane Doe")
	p, cancel := startPipeline(t, f.controller(Policy{}))

	out, err := p.Submit(context.Background(), Credential{Raw: "Jane Doe|acme/gala"})
	require.NoError(t, err)
	assert.Equal(t, KindSuccess, out.Kind)

	cancel()
	<-p.Done()
	_, err = p.Submit(context.Background(), Credential{Raw: "Jane Doe"})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestPipelineSubmit_DrainsAfterClose(t *testing.T) {
	f := newFixture(t, models.PlanPro)
	p := NewPipeline(f.controller(Policy{}), 4)
	baseline := testutil.ToFloat64(metrics.QueuedCredentials)

	// A credential that reached the queue after the consumer's final drain.
	stranded := job{cred: Credential{Raw: "Jane Doe"}, reply: make(chan result, 1)}
	metrics.QueuedCredentials.Inc()
	p.queue <- stranded
	close(p.done)

	_, err := p.Submit(context.Background(), Credential{Raw: "John Smith"})
	assert.ErrorIs(t, err, ErrSessionClosed)

	select {
	case r := <-stranded.reply:
		assert.ErrorIs(t, r.err, ErrSessionClosed)
	default:
		t.Fatal("stranded credential was not answered")
	}
	assert.Empty(t, p.queue)
	assert.Equal(t, baseline, testutil.ToFloat64(metrics.QueuedCredentials))
}

func TestPipelineFeed(t *testing.T) {
	t.Run("ClosesOnEOF", func(t *testing.T) {
		f := newFixture(t, models.PlanPro)
		f.addGuest(t, "Jane Doe")
		p, _ := startPipeline(t, f.controller(Policy{}))

		det := &stubDetector{frames: []Credential{{Raw: "Jane Doe"}, {}, {Raw: "Nobody"}, {Raw: "Jane Doe"}}}
		var kinds []Kind
		err := p.Feed(context.Background(), det, func(out Outcome, err error) {
			require.NoError(t, err)
			kinds = append(kinds, out.Kind)
		})
		require.NoError(t, err)
		assert.Equal(t, []Kind{KindSuccess, KindGuestNotFound, KindSuccess}, kinds)
		assert.Equal(t, 1, det.closed)
	})

	t.Run("ClosesOnDetectorError", func(t *testing.T) {
		f := newFixture(t, models.PlanPro)
		p, _ := startPipeline(t, f.controller(Policy{}))

		det := &stubDetector{err: errors.New("camera unplugged")}
		err := p.Feed(context.Background(), det, func(Outcome, error) {})
		assert.ErrorContains(t, err, "camera unplugged")
		assert.Equal(t, 1, det.closed)
	})

	t.Run("ClosesOnCancel", func(t *testing.T) {
		f := newFixture(t, models.PlanPro)
		p, _ := startPipeline(t, f.controller(Policy{}))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		det := &stubDetector{frames: []Credential{{Raw: "Jane Doe"}}}
		err := p.Feed(ctx, det, func(Outcome, error) {})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, det.closed)
	})

	t.Run("StopsWhenSessionRevoked", func(t *testing.T) {
		f := newFixture(t, models.PlanPro)
		f.addGuest(t, "Jane Doe")
		session, err := StartSession(context.Background(), f.store, Policy{}, f.operator.ID, "acme", "gala")
		require.NoError(t, err)
		p, _ := startPipeline(t, NewController(f.store, session, nil, nil))

		require.NoError(t, f.db.Model(&f.org).Update("blocked", true).Error)
		require.ErrorIs(t, session.Refresh(context.Background(), f.store), ErrOrganizationBlocked)

		det := &stubDetector{frames: []Credential{{Raw: "Jane Doe"}, {Raw: "Jane Doe"}}}
		emitted := 0
		err = p.Feed(context.Background(), det, func(Outcome, error) { emitted++ })
		assert.ErrorIs(t, err, ErrOrganizationBlocked)
		assert.Zero(t, emitted)
		assert.Equal(t, 1, det.closed)
	})

	t.Run("ClosesWhenSessionCloses", func(t *testing.T) {
		f := newFixture(t, models.PlanPro)
		p, cancel := startPipeline(t, f.controller(Policy{}))
		cancel()
		<-p.Done()

		det := &stubDetector{frames: []Credential{{Raw: "Jane Doe"}}}
		err := p.Feed(context.Background(), det, func(Outcome, error) {})
		assert.ErrorIs(t, err, ErrSessionClosed)
		assert.Equal(t, 1, det.closed)
	})
}

type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func TestLineDetector(t *testing.T) {
	src := &closeRecorder{Reader: strings.NewReader("Jane Doe|acme/gala\t1500\r\n\nJohn Smith\nTab\tName\n")}
	det := NewLineDetector(src)
	ctx := context.Background()

	cred, ok, err := det.Detect(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe|acme/gala", cred.Raw)
	require.NotNil(t, cred.DurationMs)
	assert.EqualValues(t, 1500, *cred.DurationMs)
	assert.Equal(t, models.SourceCamera, cred.Source)

	_, ok, err = det.Detect(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	cred, ok, err = det.Detect(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "John Smith", cred.Raw)
	assert.Nil(t, cred.DurationMs)

	cred, ok, err = det.Detect(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Tab\tName", cred.Raw)
	assert.Nil(t, cred.DurationMs)

	_, _, err = det.Detect(ctx)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, det.Close())
	assert.True(t, src.closed)
}

func TestRegistry(t *testing.T) {
	f := newFixture(t, models.PlanPro)
	f.addGuest(t, "Jane Doe")
	r := NewRegistry(2)

	runner := r.Open(f.controller(Policy{}))
	id := runner.Session().ID
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get(id)
	require.True(t, ok)
	out, err := got.Pipeline.Submit(context.Background(), Credential{Raw: "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, KindSuccess, out.Kind)

	assert.True(t, r.Close(id))
	assert.False(t, r.Close(id))
	_, ok = r.Get(id)
	assert.False(t, ok)

	_, err = runner.Pipeline.Submit(context.Background(), Credential{Raw: "Jane Doe"})
	assert.ErrorIs(t, err, ErrSessionClosed)

	r.Open(f.controller(Policy{}))
	r.Open(f.controller(Policy{}))
	r.CloseAll()
	assert.Zero(t, r.Len())
}
