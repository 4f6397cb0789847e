package messaging

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carepoint/portal/internal/domain/directory"
	"github.com/carepoint/portal/internal/realtime"
	"github.com/carepoint/portal/pkg/apperror"
)

// -- Fakes --

type fakeUserRepo struct {
	users map[uuid.UUID]*directory.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*directory.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user not found")
	}
	return u, nil
}

func (f *fakeUserRepo) List(_ context.Context, role string, limit, offset int) ([]*directory.User, int, error) {
	var out []*directory.User
	for _, u := range f.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

type fakeConversationRepo struct {
	byID     map[uuid.UUID]*Conversation
	byKey    map[string]*Conversation
	touchErr error
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		byID:  make(map[uuid.UUID]*Conversation),
		byKey: make(map[string]*Conversation),
	}
}

func (f *fakeConversationRepo) FindOrCreate(_ context.Context, a, b uuid.UUID) (*Conversation, error) {
	key := PairKey(a, b)
	if conv, ok := f.byKey[key]; ok {
		return conv, nil
	}
	low, high := OrderPair(a, b)
	conv := &Conversation{
		ID:              uuid.New(),
		PairKey:         key,
		ParticipantLow:  low,
		ParticipantHigh: high,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	f.byID[conv.ID] = conv
	f.byKey[key] = conv
	return conv, nil
}

func (f *fakeConversationRepo) GetByID(_ context.Context, id uuid.UUID) (*Conversation, error) {
	conv, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("conversation not found")
	}
	return conv, nil
}

func (f *fakeConversationRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]*ConversationView, error) {
	var out []*ConversationView
	for _, conv := range f.byID {
		if conv.HasParticipant(userID) {
			out = append(out, &ConversationView{Conversation: *conv})
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) TouchLastMessage(_ context.Context, conversationID, messageID uuid.UUID) error {
	if f.touchErr != nil {
		return f.touchErr
	}
	conv, ok := f.byID[conversationID]
	if !ok {
		return apperror.NotFound("conversation not found")
	}
	id := messageID
	conv.LastMessageID = &id
	conv.UpdatedAt = time.Now()
	return nil
}

type fakeMessageRepo struct {
	conversations *fakeConversationRepo
	users         *fakeUserRepo
	msgs          []*Message
	seq           int
}

func (f *fakeMessageRepo) Create(_ context.Context, m *Message) error {
	m.ID = uuid.New()
	f.seq++
	m.CreatedAt = time.Unix(int64(f.seq), 0)
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *fakeMessageRepo) ListByConversation(_ context.Context, conversationID uuid.UUID) ([]*MessageWithSender, error) {
	var out []*MessageWithSender
	for _, m := range f.msgs {
		if m.ConversationID != conversationID {
			continue
		}
		var sender directory.Profile
		if u, ok := f.users.users[m.SenderID]; ok {
			sender = u.Profile()
		}
		out = append(out, &MessageWithSender{Message: *m, Sender: sender})
	}
	return out, nil
}

func (f *fakeMessageRepo) MarkDeliveredForRecipient(_ context.Context, conversationID, recipientID uuid.UUID) ([]Receipt, error) {
	var receipts []Receipt
	for _, m := range f.msgs {
		if m.ConversationID == conversationID && m.SenderID != recipientID && !m.Delivered {
			m.Delivered = true
			receipts = append(receipts, Receipt{MessageID: m.ID, SenderID: m.SenderID})
		}
	}
	return receipts, nil
}

func (f *fakeMessageRepo) MarkReadForRecipient(_ context.Context, conversationID, recipientID uuid.UUID) ([]Receipt, error) {
	var receipts []Receipt
	for _, m := range f.msgs {
		if m.ConversationID == conversationID && m.SenderID != recipientID && !m.Read {
			m.Read = true
			m.Delivered = true
			receipts = append(receipts, Receipt{MessageID: m.ID, SenderID: m.SenderID})
		}
	}
	return receipts, nil
}

func (f *fakeMessageRepo) UnreadCountsForUser(_ context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	for _, m := range f.msgs {
		conv, ok := f.conversations.byID[m.ConversationID]
		if !ok || !conv.HasParticipant(userID) {
			continue
		}
		if m.SenderID != userID && !m.Read {
			counts[m.ConversationID]++
		}
	}
	return counts, nil
}

type capturingPublisher struct {
	events []realtime.Event
	err    error
}

func (p *capturingPublisher) Publish(_ context.Context, event realtime.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) onChannel(channel string) []realtime.Event {
	var out []realtime.Event
	for _, ev := range p.events {
		if ev.Channel == channel {
			out = append(out, ev)
		}
	}
	return out
}

// fakeTxRunner gives the in-memory fakes the store's transactional contract:
// when fn fails, message rows and last-message pointers written inside it
// are rolled back.
func fakeTxRunner(msgs *fakeMessageRepo, convs *fakeConversationRepo) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		savedMsgs := make([]*Message, len(msgs.msgs))
		copy(savedMsgs, msgs.msgs)
		savedSeq := msgs.seq
		savedLast := make(map[uuid.UUID]*uuid.UUID, len(convs.byID))
		for id, conv := range convs.byID {
			savedLast[id] = conv.LastMessageID
		}

		if err := fn(ctx); err != nil {
			msgs.msgs = savedMsgs
			msgs.seq = savedSeq
			for id, last := range savedLast {
				convs.byID[id].LastMessageID = last
			}
			return err
		}
		return nil
	}
}

// -- Fixture --

type fixture struct {
	svc       *Service
	users     *fakeUserRepo
	convs     *fakeConversationRepo
	msgs      *fakeMessageRepo
	publisher *capturingPublisher
	patient   *directory.User
	doctor    *directory.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	patient := &directory.User{ID: uuid.New(), FullName: "Pat Example", Role: directory.RolePatient, Active: true}
	doctor := &directory.User{ID: uuid.New(), FullName: "Dr. Example", Role: directory.RoleDoctor, Active: true}

	users := &fakeUserRepo{users: map[uuid.UUID]*directory.User{
		patient.ID: patient,
		doctor.ID:  doctor,
	}}
	convs := newFakeConversationRepo()
	msgs := &fakeMessageRepo{conversations: convs, users: users}
	publisher := &capturingPublisher{}
	notifier := NewNotifier(publisher, zerolog.Nop())

	return &fixture{
		svc:       NewService(convs, msgs, users, notifier, fakeTxRunner(msgs, convs)),
		users:     users,
		convs:     convs,
		msgs:      msgs,
		publisher: publisher,
		patient:   patient,
		doctor:    doctor,
	}
}

func (f *fixture) conversation(t *testing.T) *Conversation {
	t.Helper()
	view, err := f.svc.StartOrGetConversation(context.Background(), f.patient.ID, f.doctor.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return f.convs.byID[view.ID]
}

// -- StartOrGetConversation --

func TestStartOrGetConversation_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.StartOrGetConversation(ctx, f.patient.ID, f.doctor.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Same pair in reverse order maps to the same conversation.
	second, err := f.svc.StartOrGetConversation(ctx, f.doctor.ID, f.patient.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected one conversation per pair, got %s and %s", first.ID, second.ID)
	}
	if len(f.convs.byID) != 1 {
		t.Errorf("expected 1 stored conversation, got %d", len(f.convs.byID))
	}
}

func TestStartOrGetConversation_ReturnsOtherProfile(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.StartOrGetConversation(context.Background(), f.patient.ID, f.doctor.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.OtherParticipant.ID != f.doctor.ID {
		t.Errorf("expected other participant %s, got %s", f.doctor.ID, view.OtherParticipant.ID)
	}
	if view.OtherParticipant.FullName != "Dr. Example" {
		t.Errorf("unexpected profile: %+v", view.OtherParticipant)
	}
}

func TestStartOrGetConversation_RejectsSelf(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StartOrGetConversation(context.Background(), f.patient.ID, f.patient.ID)
	if !apperror.IsCode(err, apperror.CodeInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
}

func TestStartOrGetConversation_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StartOrGetConversation(context.Background(), f.patient.ID, uuid.New())
	if !apperror.IsCode(err, apperror.CodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if len(f.convs.byID) != 0 {
		t.Error("conversation created despite unknown participant")
	}
}

// -- SendMessage --

func TestSendMessage_CreatesAndNotifies(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t)

	msg, err := f.svc.SendMessage(context.Background(), f.patient.ID, conv.ID, "hello doctor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if msg.ID == uuid.Nil {
		t.Error("expected message id to be assigned")
	}
	if msg.Delivered || msg.Read {
		t.Error("new message must start undelivered and unread")
	}
	if msg.Sender.ID != f.patient.ID {
		t.Errorf("expected sender profile %s, got %s", f.patient.ID, msg.Sender.ID)
	}
	if conv.LastMessageID == nil || *conv.LastMessageID != msg.ID {
		t.Error("expected conversation last message to be updated")
	}

	// One event on the conversation channel, one on the recipient's user
	// channel, none on the sender's.
	if got := len(f.publisher.onChannel(realtime.ConversationChannel(conv.ID))); got != 1 {
		t.Errorf("expected 1 conversation event, got %d", got)
	}
	if got := len(f.publisher.onChannel(realtime.UserChannel(f.doctor.ID))); got != 1 {
		t.Errorf("expected 1 recipient event, got %d", got)
	}
	if got := len(f.publisher.onChannel(realtime.UserChannel(f.patient.ID))); got != 0 {
		t.Errorf("expected no sender event, got %d", got)
	}
	if f.publisher.events[0].Name != EventNewMessage {
		t.Errorf("expected %s event, got %s", EventNewMessage, f.publisher.events[0].Name)
	}
}

func TestSendMessage_StrangerForbidden(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t)

	stranger := &directory.User{ID: uuid.New(), FullName: "Someone Else", Role: directory.RolePatient}
	f.users.users[stranger.ID] = stranger

	_, err := f.svc.SendMessage(context.Background(), stranger.ID, conv.ID, "let me in")
	if !apperror.IsCode(err, apperror.CodeForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
	if len(f.msgs.msgs) != 0 {
		t.Error("message stored despite failed authorization")
	}
	if len(f.publisher.events) != 0 {
		t.Error("events published despite failed authorization")
	}
}

func TestSendMessage_EmptyContent(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t)

	for _, content := range []string{"", "   ", "\n\t"} {
		if _, err := f.svc.SendMessage(context.Background(), f.patient.ID, conv.ID, content); !apperror.IsCode(err, apperror.CodeInvalidArgument) {
			t.Errorf("content %q: expected invalid argument, got %v", content, err)
		}
	}
}

func TestSendMessage_UnknownConversation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SendMessage(context.Background(), f.patient.ID, uuid.New(), "hello")
	if !apperror.IsCode(err, apperror.CodeNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSendMessage_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t)
	f.publisher.err = fmt.Errorf("redis: connection refused")

	msg, err := f.svc.SendMessage(context.Background(), f.patient.ID, conv.ID, "hello")
	if err != nil {
		t.Fatalf("send must succeed even when publish fails: %v", err)
	}
	if len(f.msgs.msgs) != 1 || f.msgs.msgs[0].ID != msg.ID {
		t.Error("expected message to be stored")
	}
}

func TestSendMessage_TouchFailureLeavesNoMessage(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t)
	f.convs.touchErr = fmt.Errorf("connection reset by peer")

	_, err := f.svc.SendMessage(context.Background(), f.patient.ID, conv.ID, "hello")
	if err == nil {
		t.Fatal("expected send to fail when the conversation update fails")
	}

	if len(f.msgs.msgs) != 0 {
		t.Errorf("failed send must not persist a message, found %d", len(f.msgs.msgs))
	}
	if conv.LastMessageID != nil {
		t.Error("expected last-message pointer to be unchanged")
	}
	if len(f.publisher.events) != 0 {
		t.Errorf("expected no events after a failed send, got %d", len(f.publisher.events))
	}
}

// -- ListMessages --

func TestListMessages_MarksIncomingDelivered(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t)
	ctx := context.Background()

	if _, err := f.svc.SendMessage(ctx, f.patient.ID, conv.ID, "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.SendMessage(ctx, f.patient.ID, conv.ID, "second"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.publisher.events = nil

	msgs, err := f.svc.ListMessages(ctx, f.doctor.ID, conv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	for _, m := range msgs {
		if !m.Delivered {
			t.Errorf("message %s not marked delivered in listing", m.ID)
		}
		if m.Read {
			t.Errorf("message %s unexpectedly read", m.ID)
		}
	}

	// Each delivered message produces one receipt on the sender's channel.
	receipts := f.publisher.onChannel(realtime.UserChannel(f.patient.ID))
	if len(receipts) != 2 {
		t.Fatalf("expected 2 delivery receipts, got %d", len(receipts))
	}
	for _, ev := range receipts {
		if ev.Name != EventMessageDelivered {
			t.Errorf("expected %s, got %s", EventMessageDelivered, ev.Name)
		}
	}
}

func TestListMessages_OwnMessagesNotDelivered(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t)
	ctx := context.Background()

	if _, err := f.svc.SendMessage(ctx, f.patient.ID, conv.ID, "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.publisher.events = nil

	// The sender viewing their own conversation must not mark their own
	// messages delivered.
	msgs, err := f.svc.ListMessages(ctx, f.patient.ID, conv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgs[0].Delivered {
		t.Error("sender's own message marked delivered by their own view")
	}
	if len(f.publisher.events) != 0 {
		t.Errorf("expected no receipts, got %d events", len(f.publisher.events))
	}
}

func TestListMessages_DeliveryIdempotent(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t)
	ctx := context.Background()

	if _, err := f.svc.SendMessage(ctx, f.patient.ID, conv.ID, "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.ListMessages(ctx, f.doctor.ID, conv.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.publisher.events = nil

	// Second view: already delivered, no new receipts.
	if _, err := f.svc.ListMessages(ctx, f.doctor.ID, conv.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.publisher.events) != 0 {
		t.Errorf("expected no receipts on repeat view, got %d", len(f.publisher.events))
	}
}

func TestListMessages_ChronologicalOrder(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		if _, err := f.svc.SendMessage(ctx, f.patient.ID, conv.ID, content); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	msgs, err := f.svc.ListMessages(ctx, f.doctor.ID, conv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"one", "two", "three"}
	for i, m := range msgs {
		if m.Content != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], m.Content)
		}
	}
}

func TestListMessages_StrangerForbidden(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t)

	_, err := f.svc.ListMessages(context.Background(), uuid.New(), conv.ID)
	if !apperror.IsCode(err, apperror.CodeForbidden) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

// -- MarkConversationRead --

func TestMarkConversationRead_SetsReadAndDelivered(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t)
	ctx := context.Background()

	if _, err := f.svc.SendMessage(ctx, f.patient.ID, conv.ID, "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.publisher.events = nil

	// Reading without having listed first: read must imply delivered.
	ids, err := f.svc.MarkConversationRead(ctx, f.doctor.ID, conv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 read id, got %d", len(ids))
	}

	stored := f.msgs.msgs[0]
	if !stored.Read || !stored.Delivered {
		t.Errorf("expected read and delivered, got read=%v delivered=%v", stored.Read, stored.Delivered)
	}

	receipts := f.publisher.onChannel(realtime.UserChannel(f.patient.ID))
	if len(receipts) != 1 || receipts[0].Name != EventMessageRead {
		t.Errorf("expected 1 %s receipt, got %+v", EventMessageRead, receipts)
	}
}

func TestMarkConversationRead_Idempotent(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t)
	ctx := context.Background()

	if _, err := f.svc.SendMessage(ctx, f.patient.ID, conv.ID, "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.MarkConversationRead(ctx, f.doctor.ID, conv.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.publisher.events = nil

	ids, err := f.svc.MarkConversationRead(ctx, f.doctor.ID, conv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected no ids on repeat read, got %d", len(ids))
	}
	if len(f.publisher.events) != 0 {
		t.Errorf("expected no receipts on repeat read, got %d", len(f.publisher.events))
	}
}

func TestMarkConversationRead_DoesNotTouchOwnMessages(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t)
	ctx := context.Background()

	if _, err := f.svc.SendMessage(ctx, f.patient.ID, conv.ID, "mine"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.SendMessage(ctx, f.doctor.ID, conv.ID, "yours"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids, err := f.svc.MarkConversationRead(ctx, f.patient.ID, conv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 read id, got %d", len(ids))
	}
	for _, m := range f.msgs.msgs {
		if m.SenderID == f.patient.ID && m.Read {
			t.Error("caller's own message marked read")
		}
	}
}

// -- GetUnreadCounts --

func TestGetUnreadCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	nurse := &directory.User{ID: uuid.New(), FullName: "Nurse Example", Role: directory.RoleDoctor}
	f.users.users[nurse.ID] = nurse

	convA := f.conversation(t)
	viewB, err := f.svc.StartOrGetConversation(ctx, f.doctor.ID, nurse.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two unread for the doctor in A, one in B, plus one the doctor sent.
	for _, content := range []string{"one", "two"} {
		if _, err := f.svc.SendMessage(ctx, f.patient.ID, convA.ID, content); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := f.svc.SendMessage(ctx, nurse.ID, viewB.ID, "three"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.SendMessage(ctx, f.doctor.ID, convA.ID, "reply"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts, err := f.svc.GetUnreadCounts(ctx, f.doctor.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts[convA.ID] != 2 {
		t.Errorf("expected 2 unread in conversation A, got %d", counts[convA.ID])
	}
	if counts[viewB.ID] != 1 {
		t.Errorf("expected 1 unread in conversation B, got %d", counts[viewB.ID])
	}

	// After reading A, only B remains.
	if _, err := f.svc.MarkConversationRead(ctx, f.doctor.ID, convA.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	counts, err = f.svc.GetUnreadCounts(ctx, f.doctor.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := counts[convA.ID]; ok {
		t.Error("expected conversation A to be omitted once read")
	}
	if counts[viewB.ID] != 1 {
		t.Errorf("expected 1 unread in conversation B, got %d", counts[viewB.ID])
	}
}

// -- ListConversations --

func TestListConversations_OnlyCallers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	nurse := &directory.User{ID: uuid.New(), FullName: "Nurse Example", Role: directory.RoleDoctor}
	f.users.users[nurse.ID] = nurse

	f.conversation(t)
	if _, err := f.svc.StartOrGetConversation(ctx, f.doctor.ID, nurse.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	patientConvs, err := f.svc.ListConversations(ctx, f.patient.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(patientConvs) != 1 {
		t.Errorf("expected 1 conversation for patient, got %d", len(patientConvs))
	}

	doctorConvs, err := f.svc.ListConversations(ctx, f.doctor.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doctorConvs) != 2 {
		t.Errorf("expected 2 conversations for doctor, got %d", len(doctorConvs))
	}
}
