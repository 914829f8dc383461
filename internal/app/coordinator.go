package app

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/altazietsman/lexi-meter/internal/domain"
	"github.com/altazietsman/lexi-meter/internal/metrics"
)

const defaultRetention = 5 * time.Minute

// SessionLiveness marks active quiz sessions in an external store, best
// effort. Failures are logged and never block session work.
type SessionLiveness interface {
	Mark(ctx context.Context, quizID string)
	Clear(ctx context.Context, quizID string)
}

// CoordinatorOptions tune the coordinator; zero values get sane defaults.
type CoordinatorOptions struct {
	Liveness      SessionLiveness
	Clock         clockwork.Clock
	Retention     time.Duration
	ChannelBuffer int
	Logger        *zap.Logger
}

// Coordinator is the per-quiz serialization point: it owns one goroutine per
// active quiz session, and that goroutine owns the quiz's tally and applies
// join/submit/leave commands in arrival order. Different quizzes never share
// a queue.
type Coordinator struct {
	store     AnswerStore
	quizzes   QuizRepository
	registry  *Registry
	liveness  SessionLiveness
	clock     clockwork.Clock
	retention time.Duration
	buffer    int
	log       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func NewCoordinator(store AnswerStore, quizzes QuizRepository, opts CoordinatorOptions) *Coordinator {
	c := &Coordinator{
		store:     store,
		quizzes:   quizzes,
		liveness:  opts.Liveness,
		clock:     opts.Clock,
		retention: opts.Retention,
		buffer:    opts.ChannelBuffer,
		log:       opts.Logger,
		sessions:  make(map[string]*session),
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.retention <= 0 {
		c.retention = defaultRetention
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	c.registry = NewRegistry(c.notifyEmpty)
	return c
}

type session struct {
	quizID  string
	cmds    chan sessionCmd
	emptyCh chan struct{}
	senders sync.WaitGroup
}

type sessionCmd interface{ sessionCmd() }

type joinCmd struct {
	participantID string
	reply         chan joinReply
}

func (joinCmd) sessionCmd() {}

type joinReply struct {
	ch  *Channel
	err error
}

type submitCmd struct {
	ctx           context.Context
	participantID string
	questionID    string
	optionID      string
	reply         chan submitReply
}

func (submitCmd) sessionCmd() {}

type submitReply struct {
	update domain.Update
	err    error
}

type leaveCmd struct {
	ch    *Channel
	reply chan struct{}
}

func (leaveCmd) sessionCmd() {}

type endCmd struct {
	reply chan struct{}
}

func (endCmd) sessionCmd() {}

// Join registers a new connection for the quiz and immediately queues the
// current tally snapshot on the returned channel.
func (c *Coordinator) Join(ctx context.Context, quizID, participantID string) (*Channel, error) {
	// A session may be draining between lookup and send; retry against the
	// replacement session once.
	for attempt := 0; attempt < 2; attempt++ {
		s, err := c.acquire(ctx, quizID)
		if err != nil {
			return nil, err
		}
		reply := make(chan joinReply, 1)
		s.cmds <- joinCmd{participantID: participantID, reply: reply}
		s.senders.Done()
		r := <-reply
		if r.err == domain.ErrSessionClosed {
			continue
		}
		return r.ch, r.err
	}
	return nil, domain.ErrSessionClosed
}

// Submit validates, persists, tallies, and fans out one answer. The returned
// update carries the new counts for the affected question.
func (c *Coordinator) Submit(ctx context.Context, quizID, participantID, questionID, optionID string) (domain.Update, error) {
	for attempt := 0; attempt < 2; attempt++ {
		s, err := c.acquire(ctx, quizID)
		if err != nil {
			return domain.Update{}, err
		}
		reply := make(chan submitReply, 1)
		s.cmds <- submitCmd{ctx: ctx, participantID: participantID, questionID: questionID, optionID: optionID, reply: reply}
		s.senders.Done()
		r := <-reply
		if r.err == domain.ErrSessionClosed {
			continue
		}
		return r.update, r.err
	}
	return domain.Update{}, domain.ErrSessionClosed
}

// Leave removes a connection's channel from its session and tells the
// remaining participants. Safe to call more than once.
func (c *Coordinator) Leave(quizID string, ch *Channel) {
	s := c.lookup(quizID)
	if s == nil {
		return
	}
	reply := make(chan struct{}, 1)
	s.cmds <- leaveCmd{ch: ch, reply: reply}
	s.senders.Done()
	<-reply
}

// EndSession tears the quiz's session down: remaining channels receive a
// final quizClosed event and are closed, and the tally is discarded. Used
// when a quiz is deleted; nothing is ever broadcast for the quiz afterwards.
func (c *Coordinator) EndSession(quizID string) {
	s := c.lookup(quizID)
	if s == nil {
		return
	}
	reply := make(chan struct{}, 1)
	s.cmds <- endCmd{reply: reply}
	s.senders.Done()
	<-reply
}

// acquire returns the quiz's session, activating one (tally rebuilt from the
// answer store) if needed. The caller holds a sender slot on the returned
// session and must release it after enqueueing exactly one command.
func (c *Coordinator) acquire(ctx context.Context, quizID string) (*session, error) {
	if s := c.lookup(quizID); s != nil {
		return s, nil
	}

	quiz, err := c.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	answers, err := c.store.ListAnswers(ctx, quizID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if s, ok := c.sessions[quizID]; ok {
		s.senders.Add(1)
		c.mu.Unlock()
		return s, nil
	}
	s := &session{
		quizID:  quizID,
		cmds:    make(chan sessionCmd, 64),
		emptyCh: make(chan struct{}, 1),
	}
	s.senders.Add(1)
	c.sessions[quizID] = s
	c.mu.Unlock()

	metrics.ActiveSessions.Inc()
	if c.liveness != nil {
		c.liveness.Mark(ctx, quizID)
	}
	c.log.Info("quiz session activated", zap.String("quizId", quizID), zap.Int("replayedAnswers", len(answers)))
	go c.run(s, newTally(quiz, answers))
	return s, nil
}

func (c *Coordinator) lookup(quizID string) *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[quizID]
	if !ok {
		return nil
	}
	s.senders.Add(1)
	return s
}

// notifyEmpty is the registry's empty signal; it nudges the session goroutine
// to arm its retention timer.
func (c *Coordinator) notifyEmpty(quizID string) {
	c.mu.Lock()
	s, ok := c.sessions[quizID]
	c.mu.Unlock()
	if !ok {
		return
	}
	select {
	case s.emptyCh <- struct{}{}:
	default:
	}
}

// run is the session goroutine. It is the only writer of the tally and the
// only caller of registry mutations for its quiz, which makes per-quiz FIFO
// ordering structural. After teardown it keeps draining queued commands with
// ErrSessionClosed until every sender is accounted for.
func (c *Coordinator) run(s *session, t *tally) {
	idle := c.clock.After(c.retention)
	draining := false

	for {
		select {
		case cmd, ok := <-s.cmds:
			if !ok {
				return
			}
			if draining {
				rejectClosed(cmd)
				continue
			}
			switch cmd := cmd.(type) {
			case joinCmd:
				idle = nil
				cmd.reply <- c.handleJoin(s, t, cmd)
			case submitCmd:
				cmd.reply <- c.handleSubmit(s, t, cmd)
			case leaveCmd:
				c.handleLeave(s, cmd.ch)
				cmd.reply <- struct{}{}
			case endCmd:
				c.teardown(s, true)
				draining = true
				cmd.reply <- struct{}{}
			}
		case <-s.emptyCh:
			if !draining {
				idle = c.clock.After(c.retention)
			}
		case <-idle:
			idle = nil
			if c.registry.Count(s.quizID) == 0 {
				c.teardown(s, false)
				draining = true
				metrics.SessionEvictions.Inc()
				c.log.Info("idle quiz session evicted", zap.String("quizId", s.quizID))
			}
		}
	}
}

func rejectClosed(cmd sessionCmd) {
	switch cmd := cmd.(type) {
	case joinCmd:
		cmd.reply <- joinReply{err: domain.ErrSessionClosed}
	case submitCmd:
		cmd.reply <- submitReply{err: domain.ErrSessionClosed}
	case leaveCmd:
		cmd.reply <- struct{}{}
	case endCmd:
		cmd.reply <- struct{}{}
	}
}

func (c *Coordinator) handleJoin(s *session, t *tally, cmd joinCmd) joinReply {
	ch := NewChannel(cmd.participantID, c.buffer)
	if err := c.registry.Join(s.quizID, ch); err != nil {
		return joinReply{err: err}
	}
	snap := t.snapshot()
	// The buffer is fresh, so the snapshot always fits.
	ch.trySend(domain.Event{Type: domain.EventSnapshot, Snapshot: &snap})
	metrics.EventsBroadcast.WithLabelValues(string(domain.EventSnapshot)).Inc()
	return joinReply{ch: ch}
}

func (c *Coordinator) handleSubmit(s *session, t *tally, cmd submitCmd) submitReply {
	if err := t.validate(cmd.questionID, cmd.optionID); err != nil {
		metrics.AnswersTotal.WithLabelValues("invalid").Inc()
		return submitReply{err: err}
	}
	if t.hasAnswered(cmd.participantID, cmd.questionID) {
		metrics.AnswersTotal.WithLabelValues("duplicate").Inc()
		return submitReply{err: domain.ErrDuplicateAnswer}
	}

	// Persist before tallying: a broadcast must never show a count that the
	// store later rolled back.
	if _, err := c.store.RecordAnswer(cmd.ctx, cmd.participantID, cmd.questionID, cmd.optionID); err != nil {
		metrics.AnswersTotal.WithLabelValues("error").Inc()
		c.log.Warn("answer persist failed",
			zap.String("quizId", s.quizID),
			zap.String("questionId", cmd.questionID),
			zap.Error(err))
		return submitReply{err: err}
	}

	counts, err := t.apply(cmd.participantID, cmd.questionID, cmd.optionID)
	if err != nil {
		// Unreachable after the checks above; surfaced for safety.
		return submitReply{err: err}
	}
	metrics.AnswersTotal.WithLabelValues("accepted").Inc()

	update := domain.Update{QuestionID: cmd.questionID, OptionCounts: counts}
	c.broadcast(s.quizID, domain.Event{Type: domain.EventUpdate, Update: &update})
	return submitReply{update: update}
}

func (c *Coordinator) handleLeave(s *session, ch *Channel) {
	if !c.registry.Leave(s.quizID, ch) {
		return
	}
	dep := domain.Departure{ParticipantID: ch.ParticipantID()}
	c.broadcast(s.quizID, domain.Event{Type: domain.EventDeparture, Departure: &dep})
}

// broadcast fans one event out to every registered channel. A failed send
// evicts the channel instead of retrying; the participant's next connect
// resyncs via the join snapshot. Evictions produce departure notices for the
// remaining channels, which can evict further channels in turn.
func (c *Coordinator) broadcast(quizID string, ev domain.Event) {
	evicted := c.fanOut(quizID, ev)
	for len(evicted) > 0 {
		var next []*Channel
		for _, gone := range evicted {
			dep := domain.Departure{ParticipantID: gone.ParticipantID()}
			next = append(next, c.fanOut(quizID, domain.Event{Type: domain.EventDeparture, Departure: &dep})...)
		}
		evicted = next
	}
}

func (c *Coordinator) fanOut(quizID string, ev domain.Event) []*Channel {
	var evicted []*Channel
	for _, ch := range c.registry.Channels(quizID) {
		if ch.trySend(ev) {
			metrics.EventsBroadcast.WithLabelValues(string(ev.Type)).Inc()
			continue
		}
		if c.registry.Leave(quizID, ch) {
			metrics.ChannelEvictions.Inc()
			evicted = append(evicted, ch)
			c.log.Warn("evicting unresponsive channel",
				zap.String("quizId", quizID),
				zap.String("channelId", ch.ID()),
				zap.String("participantId", ch.ParticipantID()))
		}
	}
	return evicted
}

// teardown detaches the session from the coordinator and closes its
// channels. When closing is true (quiz deletion) the remaining channels get a
// final quizClosed event first.
func (c *Coordinator) teardown(s *session, closing bool) {
	c.mu.Lock()
	delete(c.sessions, s.quizID)
	c.mu.Unlock()

	// No new senders can reach this session; close cmds once the in-flight
	// ones are done so the drain loop can exit.
	go func() {
		s.senders.Wait()
		close(s.cmds)
	}()

	if closing {
		for _, ch := range c.registry.Channels(s.quizID) {
			if ch.trySend(domain.Event{Type: domain.EventQuizClosed}) {
				metrics.EventsBroadcast.WithLabelValues(string(domain.EventQuizClosed)).Inc()
			}
		}
	}
	c.registry.RemoveAll(s.quizID)

	metrics.ActiveSessions.Dec()
	if c.liveness != nil {
		c.liveness.Clear(context.Background(), s.quizID)
	}
}
