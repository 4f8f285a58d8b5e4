package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"sheetchat/domain/core"
	"sheetchat/internal"
	"sheetchat/internal/errors"
	"sheetchat/models"
	"sheetchat/ports"
)

var (
	ErrEmptyMessage     = errors.InvalidInput("message is empty")
	ErrEmptyFileName    = errors.InvalidInput("file name is empty")
	ErrInvalidMode      = errors.InvalidInput("unknown visualization mode")
	ErrUploadInProgress = errors.Conflict("an upload is already in progress")
	ErrSessionClosed    = errors.NotFound("session")
	ErrNoFileSelected   = errors.Conflict("select a file before chatting")
	ErrReplyPending     = errors.Conflict("a reply is still being generated")
)

// Pacer waits between two upload progress steps. A non-nil error aborts the
// upload and takes the failure path.
type Pacer func(ctx context.Context, progress int) error

// SleepPacer waits a fixed delay per step and gives up when ctx ends.
func SleepPacer(delay time.Duration) Pacer {
	return func(ctx context.Context, _ int) error {
		if delay <= 0 {
			return ctx.Err()
		}
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// UsageRecorder receives token usage for each successful reply
type UsageRecorder interface {
	RecordUsage(sessionID, operationType string, usage *models.UsageData)
}

// Options configures a Controller
type Options struct {
	Seed   Seed
	Pacer  Pacer
	Usage  UsageRecorder
	Logger *internal.Logger

	// SubscriberBuffer is the channel size handed to Subscribe callers
	SubscriberBuffer int
}

// Controller owns one session's state and sequences the two user actions:
// selecting a file and submitting a chat message. Every mutation happens
// under mu and publishes a fresh Snapshot to subscribers.
type Controller struct {
	id     core.SessionID
	chat   ports.ChatClient
	pace   Pacer
	usage  UsageRecorder
	logger *internal.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	state      models.Snapshot
	inFlight   int
	closed     bool
	lastActive time.Time
	subs       map[int]chan models.Snapshot
	nextSub    int
	subBuffer  int
}

// NewController builds a controller seeded with opts.Seed
func NewController(id core.SessionID, chat ports.ChatClient, opts Options) *Controller {
	if opts.Pacer == nil {
		opts.Pacer = SleepPacer(200 * time.Millisecond)
	}
	if opts.Logger == nil {
		opts.Logger = internal.DefaultLogger
	}
	if opts.SubscriberBuffer <= 0 {
		opts.SubscriberBuffer = 32
	}
	seed := opts.Seed
	if seed.Mode == "" {
		seed.Mode = models.ModeBar
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		id:     id,
		chat:   chat,
		pace:   opts.Pacer,
		usage:  opts.Usage,
		logger: opts.Logger,
		ctx:    ctx,
		cancel: cancel,
		state: models.Snapshot{
			Messages:   append([]models.Message(nil), seed.Messages...),
			Data:       seed.Data.Clone(),
			Chart:      seed.Chart.Clone(),
			Mode:       seed.Mode,
			ChartTitle: seed.ChartTitle,
		},
		lastActive: time.Now(),
		subs:       make(map[int]chan models.Snapshot),
		subBuffer:  opts.SubscriberBuffer,
	}
}

// ID returns the session identifier
func (c *Controller) ID() core.SessionID {
	return c.id
}

// SelectFile starts the simulated upload of the named file. The file's
// content is never read. The returned channel closes once the upload has
// finished, successfully or not.
func (c *Controller) SelectFile(name string) (<-chan struct{}, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyFileName
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if c.state.Uploading {
		c.mu.Unlock()
		return nil, ErrUploadInProgress
	}
	c.state.Uploading = true
	c.state.UploadError = ""
	c.state.UploadProgress = 0
	c.state.HasFile = true
	c.commitLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Info("[Controller] session %s: upload of %q started", c.id, name)

	done := make(chan struct{})
	go func() {
		defer c.wg.Done()
		defer close(done)
		c.runUpload(name)
	}()
	return done, nil
}

func (c *Controller) runUpload(name string) {
	err := c.simulateProgress()

	c.update(func(s *models.Snapshot) {
		if err != nil {
			s.UploadError = UploadErrorText
		} else {
			s.Messages = append(s.Messages, models.NewMessage(models.SenderAssistant, fmt.Sprintf(uploadSuccessFormat, name)))
		}
		s.Uploading = false
		s.UploadProgress = 0
	})

	if err != nil {
		c.logger.Warn("[Controller] session %s: upload of %q failed: %v", c.id, name, err)
		return
	}
	c.logger.Info("[Controller] session %s: upload of %q complete", c.id, name)
}

// simulateProgress walks 0,10,...,100, pacing after each published value.
func (c *Controller) simulateProgress() error {
	for progress := 0; progress <= 100; progress += 10 {
		if !c.update(func(s *models.Snapshot) { s.UploadProgress = progress }) {
			return ErrSessionClosed
		}
		if err := c.pace(c.ctx, progress); err != nil {
			return err
		}
	}
	return nil
}

// SubmitMessage appends the user's message, switches the view to chat and
// asks the model for a reply in the background. Whitespace-only text is
// rejected without touching state. The returned channel closes after the
// reply (or the apology) has been appended.
func (c *Controller) SubmitMessage(text string) (<-chan struct{}, error) {
	return c.submit(text, false)
}

// SubmitMessageIfIdle is SubmitMessage for the chat input: it refuses before
// a file has been chosen and while another reply is pending. Both checks
// happen under the same lock as the append.
func (c *Controller) SubmitMessageIfIdle(text string) (<-chan struct{}, error) {
	return c.submit(text, true)
}

func (c *Controller) submit(text string, idleOnly bool) (<-chan struct{}, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if idleOnly && !c.state.HasFile {
		c.mu.Unlock()
		return nil, ErrNoFileSelected
	}
	if idleOnly && c.inFlight > 0 {
		c.mu.Unlock()
		return nil, ErrReplyPending
	}
	c.state.Messages = append(c.state.Messages, models.NewMessage(models.SenderUser, text))
	c.inFlight++
	c.state.Processing = true
	c.state.Mode = models.ModeChat
	data := c.state.Data.Clone()
	c.commitLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer c.wg.Done()
		defer close(done)
		c.awaitReply(text, data)
	}()
	return done, nil
}

func (c *Controller) awaitReply(text string, data models.Dataset) {
	reply, err := c.chat.Chat(c.ctx, text, data)
	if err == nil && reply == nil {
		err = fmt.Errorf("chat client returned no reply")
	}
	if err != nil {
		c.logger.Error("[Controller] session %s: chat request failed: %v", c.id, err)
	}

	applied := c.update(func(s *models.Snapshot) {
		content := ChatErrorText
		if err == nil {
			content = reply.Text
		}
		s.Messages = append(s.Messages, models.NewMessage(models.SenderAssistant, content))
		c.inFlight--
		s.Processing = c.inFlight > 0
	})

	if applied && err == nil && reply.Usage != nil && c.usage != nil {
		c.usage.RecordUsage(c.id.String(), models.OpChat, reply.Usage)
	}
}

// SelectMode switches the visualization panel to another view
func (c *Controller) SelectMode(mode models.VisualizationMode) error {
	parsed, err := models.ParseMode(string(mode))
	if err != nil {
		return errors.Wrap(ErrInvalidMode, err.Error())
	}
	if !c.update(func(s *models.Snapshot) { s.Mode = parsed }) {
		return ErrSessionClosed
	}
	return nil
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel that first receives the current state and
// then every later snapshot. A slow reader skips intermediate snapshots but
// always ends up with the latest one. cancel releases the subscription.
func (c *Controller) Subscribe() (<-chan models.Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan models.Snapshot, c.subBuffer)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// LastActive reports when the session last changed
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Close tears the session down. In-flight uploads and replies are abandoned:
// their continuations no longer mutate or publish anything.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	c.mu.Unlock()

	c.cancel()
	c.logger.Debug("[Controller] session %s closed", c.id)
}

// Wait blocks until every background continuation has returned
func (c *Controller) Wait() {
	c.wg.Wait()
}

// update applies fn under the lock and publishes the result. It reports
// false, without calling fn, once the session is closed.
func (c *Controller) update(fn func(s *models.Snapshot)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	fn(&c.state)
	c.commitLocked()
	return true
}

func (c *Controller) commitLocked() {
	c.state.Version++
	c.lastActive = time.Now()
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Full: drop the oldest queued snapshot so the newest always lands.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (c *Controller) snapshotLocked() models.Snapshot {
	snap := c.state
	snap.Messages = append(make([]models.Message, 0, len(c.state.Messages)), c.state.Messages...)
	snap.Data = c.state.Data.Clone()
	snap.Chart = c.state.Chart.Clone()
	return snap
}
