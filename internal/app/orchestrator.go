package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/XianPaz/quizchain/internal/domain"
)

// Notifier is the real-time channel: room broadcast, room subscription and unicast.
type Notifier interface {
	Subscribe(connID, roomCode string)
	Broadcast(roomCode string, n Notification)
	Send(connID string, n Notification)
	// DropRoom unsubscribes every connection from roomCode.
	DropRoom(roomCode string)
}

// Settler delivers final rewards and returns an opaque transaction reference.
type Settler interface {
	Settle(ctx context.Context, roomCode string, rewards map[string]int64) (string, error)
}

// Phase is the orchestrator's view of a room. It mirrors the session status and adds
// the transient and terminal phases the store does not track.
type Phase string

const (
	PhaseWaiting            Phase = "waiting"
	PhaseActive             Phase = "active"
	PhaseQuestionOpen       Phase = "question_open"
	PhaseScoring            Phase = "scoring"
	PhaseStatsShown         Phase = "stats_shown"
	PhaseFinished           Phase = "finished"
	PhaseSettling           Phase = "settling"
	PhaseRewardsDistributed Phase = "rewards_distributed"
	PhaseCancelled          Phase = "cancelled"
)

// room serializes every command for one room code so that record, check and score run as a unit.
type room struct {
	mu    sync.Mutex
	phase Phase
	// outbox holds lifecycle events raised under mu; they are published after mu is released.
	outbox []LifecycleEvent
}

// Orchestrator interprets commands against the session store and emits notifications.
type Orchestrator struct {
	store     *SessionService
	notifier  Notifier
	settler   Settler
	publisher EventPublisher
	log       *slog.Logger
	now       func() time.Time

	settleTimeout  time.Duration
	publishTimeout time.Duration

	mu       sync.Mutex
	rooms    map[string]*room
	inflight sync.WaitGroup
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithClock sets the time source used for openedAt timestamps.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// WithPublisher sets where lifecycle events go.
func WithPublisher(p EventPublisher) OrchestratorOption {
	return func(o *Orchestrator) { o.publisher = p }
}

// WithSettleTimeout bounds a single settlement call.
func WithSettleTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.settleTimeout = d }
}

// WithPublishTimeout bounds a single lifecycle event publish.
func WithPublishTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.publishTimeout = d }
}

func NewOrchestrator(store *SessionService, notifier Notifier, settler Settler, log *slog.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		store:          store,
		notifier:       notifier,
		settler:        settler,
		publisher:      NopPublisher{},
		log:            log,
		now:            time.Now,
		settleTimeout:  30 * time.Second,
		publishTimeout: 5 * time.Second,
		rooms:          make(map[string]*room),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Dispatch runs one command from connection connID. Commands against unknown rooms or in the
// wrong phase are dropped without a broadcast; only join failures are reported back.
func (o *Orchestrator) Dispatch(ctx context.Context, connID string, cmd Command) {
	code := domain.NormalizeRoomCode(cmd.Room())
	r := o.lockRoom(code)
	events := o.handle(ctx, connID, r, code, cmd)
	r.mu.Unlock()

	for _, ev := range events {
		o.publish(ctx, ev)
	}
}

// handle runs cmd with r.mu held and returns the lifecycle events it raised.
func (o *Orchestrator) handle(ctx context.Context, connID string, r *room, code string, cmd Command) []LifecycleEvent {
	var err error
	switch c := cmd.(type) {
	case Join:
		err = o.join(connID, code, c)
	case HostStart:
		err = o.start(r, code)
	case HostOpenQuestion:
		err = o.openQuestion(r, code, c.QuestionIndex)
	case ParticipantAnswer:
		err = o.answer(connID, r, code, c)
	case ParticipantTimeout:
		err = o.timeout(r, code, c)
	case HostShowStats:
		err = o.showStats(r, code, c.QuestionIndex)
	case HostEndQuiz:
		err = o.endQuiz(r, code)
	case HostEndWithoutDistribute:
		err = o.cancel(r, code)
	case HostDistribute:
		err = o.distribute(ctx, connID, r, code)
	default:
		err = fmt.Errorf("unsupported command %T", cmd)
	}
	if err != nil {
		o.log.Debug("command dropped", "room", code, "command", cmd.Name(), "conn", connID, "err", err)
		if errors.Is(err, domain.ErrRoomNotFound) {
			o.forget(code, r)
		}
	}
	events := r.outbox
	r.outbox = nil
	return events
}

// Phase reports the orchestrator phase of a room. A stored session that has not received a
// command yet is waiting; an unknown code reports "". Phase never creates a control entry.
func (o *Orchestrator) Phase(roomCode string) Phase {
	code := domain.NormalizeRoomCode(roomCode)
	o.mu.Lock()
	r, ok := o.rooms[code]
	o.mu.Unlock()
	if !ok {
		if _, err := o.store.GetSession(code); err != nil {
			return ""
		}
		return PhaseWaiting
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// CloseRoom deletes a session outside the command protocol (e.g. the REST delete).
func (o *Orchestrator) CloseRoom(roomCode string) {
	code := domain.NormalizeRoomCode(roomCode)
	r := o.lockRoom(code)
	defer r.mu.Unlock()
	o.deleteRoom(code)
}

// Wait blocks until in-flight settlements finish.
func (o *Orchestrator) Wait() {
	o.inflight.Wait()
}

func (o *Orchestrator) room(code string) *room {
	o.mu.Lock()
	defer o.mu.Unlock()
	r, ok := o.rooms[code]
	if !ok {
		r = &room{phase: PhaseWaiting}
		o.rooms[code] = r
	}
	return r
}

// lockRoom returns the live control entry for code with its mutex held. An entry removed
// while the caller waited on it is stale and the lookup starts over.
func (o *Orchestrator) lockRoom(code string) *room {
	for {
		r := o.room(code)
		r.mu.Lock()
		if o.current(code, r) {
			return r
		}
		r.mu.Unlock()
	}
}

func (o *Orchestrator) current(code string, r *room) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rooms[code] == r
}

// forget drops the control entry created for a code that has no session.
func (o *Orchestrator) forget(code string, r *room) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.rooms[code] == r {
		delete(o.rooms, code)
	}
}

func (o *Orchestrator) deleteRoom(code string) {
	o.store.DeleteSession(code)
	o.notifier.DropRoom(code)
	o.mu.Lock()
	delete(o.rooms, code)
	o.mu.Unlock()
}

func (o *Orchestrator) join(connID, code string, c Join) error {
	session, err := o.store.GetSession(code)
	if err != nil {
		o.notifier.Send(connID, errorNotification(domain.ErrRoomNotFound))
		return err
	}
	switch c.Role {
	case RoleHost:
		o.notifier.Subscribe(connID, code)
		o.notifier.Send(connID, Notification{Type: NotifyParticipantJoined, Payload: ParticipantsPayload{Players: session.Participants}})
		return nil
	case RoleParticipant:
	default:
		err := fmt.Errorf("%w %q", domain.ErrUnknownRole, c.Role)
		o.notifier.Send(connID, errorNotification(err))
		return err
	}
	if c.Participant == nil || c.Participant.Identity == "" {
		o.notifier.Send(connID, errorNotification(domain.ErrIdentityRequired))
		return domain.ErrIdentityRequired
	}
	if session.Status == domain.StatusFinished {
		o.notifier.Send(connID, errorNotification(domain.ErrRoomExpired))
		return domain.ErrRoomExpired
	}

	o.notifier.Subscribe(connID, code)
	p := *c.Participant
	p.ConnectionID = connID
	session, _, err = o.store.AddParticipant(code, p)
	if err != nil {
		return err
	}
	o.notifier.Broadcast(code, Notification{Type: NotifyParticipantJoined, Payload: ParticipantsPayload{Players: session.Participants}})
	return nil
}

func (o *Orchestrator) start(r *room, code string) error {
	session, err := o.store.GetSession(code)
	if err != nil {
		return err
	}
	if session.Status != domain.StatusWaiting {
		return fmt.Errorf("%w: start from %s", domain.ErrInvalidTransition, session.Status)
	}
	if _, err := o.store.SetStatus(code, domain.StatusActive); err != nil {
		return err
	}
	r.phase = PhaseActive
	o.notifier.Broadcast(code, Notification{Type: NotifyQuizStarted, Payload: QuizStartedPayload{TotalQuestions: len(session.Questions)}})
	o.raise(r, LifecycleEvent{Kind: EventQuizStarted, RoomCode: code})
	return nil
}

func (o *Orchestrator) openQuestion(r *room, code string, index int) error {
	session, err := o.store.GetSession(code)
	if err != nil {
		return err
	}
	if session.Status != domain.StatusActive && session.Status != domain.StatusShowingStats {
		return fmt.Errorf("%w: open question from %s", domain.ErrInvalidTransition, session.Status)
	}
	if index <= session.CurrentQuestion {
		return fmt.Errorf("%w: question %d already opened", domain.ErrInvalidTransition, index)
	}
	session, err = o.store.SetCurrentQuestion(code, index)
	if err != nil {
		return err
	}
	r.phase = PhaseQuestionOpen

	q := session.Questions[index]
	o.notifier.Broadcast(code, Notification{Type: NotifyQuestionOpened, Payload: QuestionOpenedPayload{
		QuestionIndex:  index,
		TotalQuestions: len(session.Questions),
		Question:       OpenQuestion{Question: q.Question, Options: q.Options, TimeLimit: q.TimeLimit},
		OpenedAt:       o.now(),
	}})
	return nil
}

func (o *Orchestrator) answer(connID string, r *room, code string, c ParticipantAnswer) error {
	session, err := o.acceptingAnswers(code, c.QuestionIndex)
	if err != nil {
		return err
	}
	question := session.Questions[c.QuestionIndex]
	if c.OptionIndex < 0 || c.OptionIndex >= len(question.Options) {
		return fmt.Errorf("option %d out of range", c.OptionIndex)
	}

	speed := 0
	switch {
	case c.SpeedScore != nil:
		speed = *c.SpeedScore
	case c.TimeRemaining != nil:
		speed = domain.SpeedScore(*c.TimeRemaining, question.TimeLimit)
	}

	session, recorded, err := o.store.RecordAnswer(code, c.QuestionIndex, c.Identity, c.OptionIndex, speed)
	if err != nil {
		return err
	}
	if !recorded {
		return nil
	}
	o.notifier.Send(connID, Notification{Type: NotifyAnswerAcknowledged, Payload: AnswerAckPayload{
		QuestionIndex: c.QuestionIndex,
		AnswerIndex:   c.OptionIndex,
	}})
	return o.afterAnswer(r, code, c.QuestionIndex, session)
}

func (o *Orchestrator) timeout(r *room, code string, c ParticipantTimeout) error {
	if _, err := o.acceptingAnswers(code, c.QuestionIndex); err != nil {
		return err
	}
	session, recorded, err := o.store.RecordAnswer(code, c.QuestionIndex, c.Identity, domain.NoAnswer, 0)
	if err != nil || !recorded {
		return err
	}
	return o.afterAnswer(r, code, c.QuestionIndex, session)
}

func (o *Orchestrator) acceptingAnswers(code string, index int) (domain.Session, error) {
	session, err := o.store.GetSession(code)
	if err != nil {
		return domain.Session{}, err
	}
	if session.Status != domain.StatusQuestionOpen || session.CurrentQuestion != index {
		return domain.Session{}, fmt.Errorf("question %d is not open", index)
	}
	return session, nil
}

// afterAnswer is shared by the answer and timeout paths.
func (o *Orchestrator) afterAnswer(r *room, code string, index int, session domain.Session) error {
	o.notifier.Broadcast(code, Notification{Type: NotifyAnswerCount, Payload: AnswerCountPayload{
		QuestionIndex: index,
		Answered:      len(session.Answers[index]),
		Total:         len(session.Participants),
	}})

	done, err := o.store.AllAnswered(code, index)
	if err != nil || !done {
		return err
	}
	r.phase = PhaseScoring
	if _, err := o.store.ComputeQuestionScores(code, index); err != nil {
		return err
	}
	r.phase = PhaseQuestionOpen
	o.notifier.Broadcast(code, Notification{Type: NotifyAllAnswered, Payload: AllAnsweredPayload{QuestionIndex: index}})
	return nil
}

func (o *Orchestrator) showStats(r *room, code string, index int) error {
	session, err := o.store.GetSession(code)
	if err != nil {
		return err
	}
	if session.Status != domain.StatusQuestionOpen && session.Status != domain.StatusShowingStats {
		return fmt.Errorf("%w: show stats from %s", domain.ErrInvalidTransition, session.Status)
	}
	if index != session.CurrentQuestion {
		return fmt.Errorf("question %d is not the current question", index)
	}

	r.phase = PhaseScoring
	if _, err := o.store.ComputeQuestionScores(code, index); err != nil {
		return err
	}
	stats, err := o.store.ComputeQuestionStats(code, index)
	if err != nil {
		return err
	}
	if _, err := o.store.SetStatus(code, domain.StatusShowingStats); err != nil {
		return err
	}
	board, err := o.store.Scoreboard(code)
	if err != nil {
		return err
	}
	r.phase = PhaseStatsShown
	o.notifier.Broadcast(code, Notification{Type: NotifyQuestionStats, Payload: QuestionStatsPayload{
		QuestionStats: stats,
		Scoreboard:    board,
	}})
	return nil
}

// finish scores the open question, computes rewards and moves the session to finished.
// Re-running it on a finished session only recomputes the (pure) rewards.
func (o *Orchestrator) finish(code string) (domain.Scoreboard, bool, error) {
	session, err := o.store.GetSession(code)
	if err != nil {
		return domain.Scoreboard{}, false, err
	}
	already := session.Status == domain.StatusFinished
	if !already && session.CurrentQuestion >= 0 {
		if _, err := o.store.ComputeQuestionScores(code, session.CurrentQuestion); err != nil {
			return domain.Scoreboard{}, false, err
		}
	}
	if _, err := o.store.ComputeFinalRewards(code); err != nil {
		return domain.Scoreboard{}, false, err
	}
	if !already {
		if _, err := o.store.SetStatus(code, domain.StatusFinished); err != nil {
			return domain.Scoreboard{}, false, err
		}
	}
	board, err := o.store.Scoreboard(code)
	return board, already, err
}

func (o *Orchestrator) endQuiz(r *room, code string) error {
	if r.phase == PhaseSettling || r.phase == PhaseRewardsDistributed {
		return fmt.Errorf("%w: end quiz from %s", domain.ErrInvalidTransition, r.phase)
	}
	board, already, err := o.finish(code)
	if err != nil {
		return err
	}
	r.phase = PhaseFinished
	o.notifier.Broadcast(code, Notification{Type: NotifyQuizEnded, Payload: board})
	if !already {
		o.raise(r, LifecycleEvent{Kind: EventQuizEnded, RoomCode: code, Rewards: rewards(board)})
	}
	return nil
}

func (o *Orchestrator) cancel(r *room, code string) error {
	if r.phase == PhaseSettling {
		return fmt.Errorf("%w: cancel while settling", domain.ErrInvalidTransition)
	}
	board, _, err := o.finish(code)
	if err != nil {
		return err
	}
	// Rewards were already delivered; only clean up.
	if r.phase != PhaseRewardsDistributed {
		o.notifier.Broadcast(code, Notification{Type: NotifySessionCancelled, Payload: board})
		o.raise(r, LifecycleEvent{Kind: EventSessionCancelled, RoomCode: code, Rewards: rewards(board)})
	}
	r.phase = PhaseCancelled
	o.deleteRoom(code)
	return nil
}

func (o *Orchestrator) distribute(ctx context.Context, connID string, r *room, code string) error {
	session, err := o.store.GetSession(code)
	if err != nil {
		return err
	}
	if session.Status != domain.StatusFinished || r.phase != PhaseFinished {
		return fmt.Errorf("%w: distribute from %s", domain.ErrInvalidTransition, r.phase)
	}
	board, _, err := o.finish(code)
	if err != nil {
		return err
	}
	r.phase = PhaseSettling

	amounts := rewards(board)
	o.inflight.Add(1)
	go func() {
		defer o.inflight.Done()
		o.settle(context.WithoutCancel(ctx), connID, r, code, board, amounts)
	}()
	return nil
}

// settle runs outside the room lock so the room keeps serving commands while the sink works.
func (o *Orchestrator) settle(ctx context.Context, connID string, r *room, code string, board domain.Scoreboard, amounts map[string]int64) {
	ctx, cancel := context.WithTimeout(ctx, o.settleTimeout)
	defer cancel()

	ref, err := o.settler.Settle(ctx, code, amounts)

	r.mu.Lock()
	// The room may have been closed, and even re-created, while the settler ran.
	if r.phase != PhaseSettling || !o.current(code, r) {
		r.mu.Unlock()
		o.log.Warn("settlement finished for a closed room", "room", code, "tx", ref, "err", err)
		return
	}
	if err != nil {
		r.phase = PhaseFinished
		r.mu.Unlock()
		o.log.Error("reward settlement failed", "room", code, "err", err)
		o.notifier.Send(connID, errorNotification(fmt.Errorf("%w: %v", domain.ErrSettlementFailed, err)))
		return
	}
	r.phase = PhaseRewardsDistributed
	o.log.Info("rewards distributed", "room", code, "tx", ref, "participants", len(amounts))
	o.notifier.Broadcast(code, Notification{Type: NotifyRewardsDistributed, Payload: RewardsDistributedPayload{
		Scoreboard: board,
		TxRef:      ref,
	}})
	r.mu.Unlock()

	o.publish(ctx, LifecycleEvent{Kind: EventRewardsDistributed, RoomCode: code, Rewards: amounts, TxRef: ref})
}

// raise queues ev on the room; Dispatch publishes it once the room lock is released.
func (o *Orchestrator) raise(r *room, ev LifecycleEvent) {
	ev.At = o.now()
	r.outbox = append(r.outbox, ev)
}

func (o *Orchestrator) publish(ctx context.Context, ev LifecycleEvent) {
	if ev.At.IsZero() {
		ev.At = o.now()
	}
	ctx, cancel := context.WithTimeout(ctx, o.publishTimeout)
	defer cancel()
	if err := o.publisher.Publish(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		o.log.Warn("publish lifecycle event", "room", ev.RoomCode, "kind", ev.Kind, "err", err)
	}
}

func rewards(board domain.Scoreboard) map[string]int64 {
	out := make(map[string]int64, len(board.Scores))
	for id, entry := range board.Scores {
		out[id] = entry.TotalReward
	}
	return out
}
