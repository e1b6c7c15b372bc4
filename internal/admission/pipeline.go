package admission

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gdg-garage/guest-checkin-api/internal/metrics"
	"github.com/gdg-garage/guest-checkin-api/internal/models"
)

type result struct {
	outcome Outcome
	err     error
}

type job struct {
	cred  Credential
	reply chan result
}

// Pipeline serializes admission attempts for one session: producers push credentials onto a
// bounded queue and a single consumer runs them through the controller one at a time.
type Pipeline struct {
	ctrl  *Controller
	queue chan job
	done  chan struct{}
}

func NewPipeline(ctrl *Controller, size int) *Pipeline {
	if size < 1 {
		size = 1
	}
	return &Pipeline{
		ctrl:  ctrl,
		queue: make(chan job, size),
		done:  make(chan struct{}),
	}
}

// Run consumes queued credentials until ctx is cancelled.
// Credentials still queued at that point are answered with ErrSessionClosed.
func (p *Pipeline) Run(ctx context.Context) {
	defer func() {
		close(p.done)
		p.drain()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-p.queue:
			metrics.QueuedCredentials.Dec()
			out, err := p.ctrl.Process(ctx, j.cred)
			j.reply <- result{outcome: out, err: err}
		}
	}
}

// drain answers every credential still queued with ErrSessionClosed. After done is closed,
// a Submit can still win the race onto the queue, so late submitters drain too.
func (p *Pipeline) drain() {
	for {
		select {
		case j := <-p.queue:
			metrics.QueuedCredentials.Dec()
			j.reply <- result{err: ErrSessionClosed}
		default:
			return
		}
	}
}

// Done is closed once the consumer has stopped.
func (p *Pipeline) Done() <-chan struct{} {
	return p.done
}

// Submit queues cred and waits for its outcome.
func (p *Pipeline) Submit(ctx context.Context, cred Credential) (Outcome, error) {
	select {
	case <-p.done:
		p.drain()
		return Outcome{}, ErrSessionClosed
	default:
	}

	j := job{cred: cred, reply: make(chan result, 1)}
	metrics.QueuedCredentials.Inc()
	select {
	case p.queue <- j:
	case <-p.done:
		metrics.QueuedCredentials.Dec()
		return Outcome{}, ErrSessionClosed
	case <-ctx.Done():
		metrics.QueuedCredentials.Dec()
		return Outcome{}, ctx.Err()
	}

	select {
	case r := <-j.reply:
		return r.outcome, r.err
	case <-p.done:
		p.drain()
		select {
		case r := <-j.reply:
			return r.outcome, r.err
		default:
			return Outcome{}, ErrSessionClosed
		}
	case <-ctx.Done():
		select {
		case <-p.done:
			p.drain()
		default:
		}
		return Outcome{}, ctx.Err()
	}
}

// Detector yields decoded payloads from a scanning device.
// ok is false when the current frame held no code; io.EOF ends the feed.
type Detector interface {
	Detect(ctx context.Context) (cred Credential, ok bool, err error)
	Close() error
}

// Feed polls det and submits every detected credential, waiting for each outcome before
// polling again. Outcomes are passed to emit. det is closed on every return path.
func (p *Pipeline) Feed(ctx context.Context, det Detector, emit func(Outcome, error)) (err error) {
	defer func() {
		if cerr := det.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close detector: %w", cerr)
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		cred, ok, err := det.Detect(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("detect credential: %w", err)
		}
		if !ok {
			continue
		}
		if cred.Source == "" {
			cred.Source = models.SourceCamera
		}

		out, err := p.Submit(ctx, cred)
		if errors.Is(err, ErrSessionClosed) || Revoked(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		emit(out, err)
	}
}

// LineDetector reads decoded payloads from a newline-delimited stream. A line may end in a
// tab followed by the scan duration in milliseconds. Blank lines count as empty frames.
type LineDetector struct {
	scanner *bufio.Scanner
	closer  io.Closer
}

func NewLineDetector(r io.Reader) *LineDetector {
	d := &LineDetector{scanner: bufio.NewScanner(r)}
	if c, ok := r.(io.Closer); ok {
		d.closer = c
	}
	return d
}

func (d *LineDetector) Detect(ctx context.Context) (Credential, bool, error) {
	if err := ctx.Err(); err != nil {
		return Credential{}, false, err
	}
	if !d.scanner.Scan() {
		if err := d.scanner.Err(); err != nil {
			return Credential{}, false, err
		}
		return Credential{}, false, io.EOF
	}

	line := strings.TrimRight(d.scanner.Text(), "\r")
	if strings.TrimSpace(line) == "" {
		return Credential{}, false, nil
	}

	cred := Credential{Raw: line, Source: models.SourceCamera}
	if i := strings.LastIndexByte(line, '\t'); i >= 0 {
		if ms, err := strconv.ParseInt(strings.TrimSpace(line[i+1:]), 10, 64); err == nil && ms >= 0 {
			cred.Raw = line[:i]
			cred.DurationMs = &ms
		}
	}
	return cred, true, nil
}

func (d *LineDetector) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}
