// Package gorm backs the repository ports with a sqlite database. It is
// the storage collaborator of the core: ordinary CRUD, one transaction per
// call, no real-time state.
package gorm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/parleyhq/parley/internal/core/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(
		&userEntity{}, &chatEntity{}, &messageEntity{},
		&pollEntity{}, &pollOptionEntity{}, &pollVoteEntity{}, &pollVoterEntity{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func storageErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStorageUnavailable, err)
}

func (s *Store) CreateChat(ctx context.Context, chat *domain.Chat) error {
	ent := chatEntity{
		ID:            string(chat.ID),
		Name:          chat.Name,
		RoomName:      chat.RoomName,
		RoomGroupName: chat.RoomGroupName,
		CreatedAt:     chat.CreatedAt,
	}
	for _, p := range chat.Participants {
		ent.Participants = append(ent.Participants, toUserEntity(p))
	}
	if err := s.db.WithContext(ctx).Create(&ent).Error; err != nil {
		return storageErr("create chat", err)
	}
	return nil
}

func (s *Store) FindChatsForUser(ctx context.Context, userID domain.UserID, start, count int) ([]domain.Chat, error) {
	var ents []chatEntity
	err := s.db.WithContext(ctx).
		Joins("JOIN chat_participants cp ON cp.chat_entity_id = chats.id").
		Where("cp.user_entity_uuid = ?", string(userID)).
		Order("chats.created_at DESC").
		Offset(start).Limit(count).
		Preload("Participants").
		Find(&ents).Error
	if err != nil {
		return nil, storageErr("find chats", err)
	}
	chats := make([]domain.Chat, 0, len(ents))
	for _, e := range ents {
		c := s.toChat(ctx, e)
		chats = append(chats, *c)
	}
	return chats, nil
}

func (s *Store) CountChatsForUser(ctx context.Context, userID domain.UserID) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&chatEntity{}).
		Joins("JOIN chat_participants cp ON cp.chat_entity_id = chats.id").
		Where("cp.user_entity_uuid = ?", string(userID)).
		Count(&n).Error
	if err != nil {
		return 0, storageErr("count chats", err)
	}
	return int(n), nil
}

func (s *Store) GetChatByRoomName(ctx context.Context, roomName string) (*domain.Chat, error) {
	var ent chatEntity
	err := s.db.WithContext(ctx).Preload("Participants").
		Where("room_name = ?", roomName).First(&ent).Error
	if err != nil {
		return nil, storageErr("get chat", err)
	}
	return s.toChat(ctx, ent), nil
}

func (s *Store) FindChatBetween(ctx context.Context, a, b domain.UserID) (*domain.Chat, error) {
	var ent chatEntity
	err := s.db.WithContext(ctx).Preload("Participants").
		Joins("JOIN chat_participants ca ON ca.chat_entity_id = chats.id AND ca.user_entity_uuid = ?", string(a)).
		Joins("JOIN chat_participants cb ON cb.chat_entity_id = chats.id AND cb.user_entity_uuid = ?", string(b)).
		First(&ent).Error
	if err != nil {
		return nil, storageErr("find chat between", err)
	}
	return s.toChat(ctx, ent), nil
}

func (s *Store) toChat(ctx context.Context, e chatEntity) *domain.Chat {
	c := &domain.Chat{
		ID:            domain.ChatID(e.ID),
		Name:          e.Name,
		RoomName:      e.RoomName,
		RoomGroupName: e.RoomGroupName,
		CreatedAt:     e.CreatedAt,
	}
	for _, u := range e.Participants {
		c.Participants = append(c.Participants, toUserSummary(u))
	}
	var last messageEntity
	err := s.db.WithContext(ctx).Where("chat_id = ?", e.ID).
		Order("timestamp DESC").First(&last).Error
	if err == nil {
		c.LastMessage = last.Content
	}
	return c
}

func (s *Store) CreateMessage(ctx context.Context, msg *domain.Message) error {
	ent, err := toMessageEntity(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := s.db.WithContext(ctx).Create(&ent).Error; err != nil {
		return storageErr("create message", err)
	}
	return nil
}

func (s *Store) LatestForChat(ctx context.Context, chatID domain.ChatID, limit int) ([]domain.Message, error) {
	var ents []messageEntity
	err := s.db.WithContext(ctx).Where("chat_id = ?", string(chatID)).
		Order("timestamp DESC").Limit(limit).Find(&ents).Error
	if err != nil {
		return nil, storageErr("latest messages", err)
	}
	// oldest first for the client
	msgs := make([]domain.Message, 0, len(ents))
	for i := len(ents) - 1; i >= 0; i-- {
		m, err := s.toMessage(ctx, ents[i])
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, nil
}

func (s *Store) GetMessageByPoll(ctx context.Context, pollID domain.PollID) (*domain.Message, error) {
	var ent messageEntity
	err := s.db.WithContext(ctx).Where("poll_id = ?", string(pollID)).First(&ent).Error
	if err != nil {
		return nil, storageErr("message by poll", err)
	}
	return s.toMessage(ctx, ent)
}

func (s *Store) MarkRead(ctx context.Context, messageID domain.MessageID, reader domain.UserSummary) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ent messageEntity
		if err := tx.Where("id = ?", string(messageID)).First(&ent).Error; err != nil {
			return storageErr("mark read", err)
		}
		var readBy []domain.UserSummary
		if len(ent.ReadByJSON) > 0 {
			if err := json.Unmarshal(ent.ReadByJSON, &readBy); err != nil {
				return fmt.Errorf("decode read_by: %w", err)
			}
		}
		for _, u := range readBy {
			if u.UUID == reader.UUID {
				return nil
			}
		}
		readBy = append(readBy, reader)
		data, err := json.Marshal(readBy)
		if err != nil {
			return fmt.Errorf("encode read_by: %w", err)
		}
		return tx.Model(&ent).Updates(map[string]any{
			"read_by_json": data,
			"status":       string(domain.StatusRead),
		}).Error
	})
}

func (s *Store) CreatePoll(ctx context.Context, poll *domain.Poll) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createPollTx(tx, poll)
	})
}

func createPollTx(tx *gorm.DB, poll *domain.Poll) error {
	if err := tx.Create(&pollEntity{ID: string(poll.ID), Question: poll.Question}).Error; err != nil {
		return storageErr("create poll", err)
	}
	for i, o := range poll.Options {
		ent := pollOptionEntity{ID: o.ID, PollID: string(poll.ID), Label: o.Label, Position: i}
		if err := tx.Create(&ent).Error; err != nil {
			return storageErr("create poll option", err)
		}
	}
	return nil
}

func (s *Store) GetPoll(ctx context.Context, pollID domain.PollID) (*domain.Poll, error) {
	var ent pollEntity
	if err := s.db.WithContext(ctx).Where("id = ?", string(pollID)).First(&ent).Error; err != nil {
		return nil, storageErr("get poll", err)
	}
	return s.assemblePoll(ctx, ent)
}

func (s *Store) assemblePoll(ctx context.Context, ent pollEntity) (*domain.Poll, error) {
	poll := &domain.Poll{ID: domain.PollID(ent.ID), Question: ent.Question}

	var options []pollOptionEntity
	err := s.db.WithContext(ctx).Where("poll_id = ?", ent.ID).
		Order("position ASC").Find(&options).Error
	if err != nil {
		return nil, storageErr("poll options", err)
	}
	var votes []pollVoteEntity
	if err := s.db.WithContext(ctx).Where("poll_id = ?", ent.ID).Find(&votes).Error; err != nil {
		return nil, storageErr("poll votes", err)
	}
	byOption := make(map[string][]domain.PollVote)
	for _, v := range votes {
		byOption[v.OptionID] = append(byOption[v.OptionID], domain.PollVote{Voter: domain.UserID(v.VoterID)})
	}
	for _, o := range options {
		poll.Options = append(poll.Options, domain.PollOption{
			ID:    o.ID,
			Label: o.Label,
			Votes: byOption[o.ID],
		})
	}

	var voters []pollVoterEntity
	if err := s.db.WithContext(ctx).Where("poll_id = ?", ent.ID).Find(&voters).Error; err != nil {
		return nil, storageErr("poll voters", err)
	}
	ids := make([]domain.UserID, 0, len(voters))
	for _, v := range voters {
		ids = append(ids, domain.UserID(v.VoterID))
	}
	summaries, err := s.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	poll.Voters = summaries
	return poll, nil
}

func (s *Store) CreatePollVote(ctx context.Context, pollID domain.PollID, optionID string, voter domain.UserSummary) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var opt pollOptionEntity
		err := tx.Where("id = ? AND poll_id = ?", optionID, string(pollID)).First(&opt).Error
		if err != nil {
			return storageErr("poll option", err)
		}
		vote := pollVoteEntity{PollID: string(pollID), OptionID: optionID, VoterID: string(voter.UUID)}
		if err := tx.Create(&vote).Error; err != nil {
			return storageErr("create vote", err)
		}
		rec := pollVoterEntity{PollID: string(pollID), VoterID: string(voter.UUID)}
		if err := tx.Create(&rec).Error; err != nil {
			return storageErr("record voter", err)
		}
		return nil
	})
}

func (s *Store) UpsertUser(ctx context.Context, user domain.UserSummary) error {
	ent := toUserEntity(user)
	if err := s.db.WithContext(ctx).Save(&ent).Error; err != nil {
		return storageErr("upsert user", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID domain.UserID) (*domain.UserSummary, error) {
	var ent userEntity
	if err := s.db.WithContext(ctx).Where("uuid = ?", string(userID)).First(&ent).Error; err != nil {
		return nil, storageErr("get user", err)
	}
	u := toUserSummary(ent)
	return &u, nil
}

func (s *Store) GetUsers(ctx context.Context, userIDs []domain.UserID) ([]domain.UserSummary, error) {
	if len(userIDs) == 0 {
		return []domain.UserSummary{}, nil
	}
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, string(id))
	}
	var ents []userEntity
	if err := s.db.WithContext(ctx).Where("uuid IN ?", ids).Find(&ents).Error; err != nil {
		return nil, storageErr("get users", err)
	}
	known := make(map[domain.UserID]domain.UserSummary, len(ents))
	for _, e := range ents {
		known[domain.UserID(e.UUID)] = toUserSummary(e)
	}
	out := make([]domain.UserSummary, 0, len(userIDs))
	for _, id := range userIDs {
		if u, ok := known[id]; ok {
			out = append(out, u)
		} else {
			out = append(out, domain.UserSummary{UUID: id})
		}
	}
	return out, nil
}

func (s *Store) SetUserInCall(ctx context.Context, userID domain.UserID, inCall bool) error {
	err := s.db.WithContext(ctx).Model(&userEntity{}).
		Where("uuid = ?", string(userID)).
		Update("is_in_call", inCall).Error
	if err != nil {
		return storageErr("set in call", err)
	}
	return nil
}

func toUserEntity(u domain.UserSummary) userEntity {
	return userEntity{
		UUID:      string(u.UUID),
		Username:  u.Username,
		IsChatbot: u.IsChatbot,
		IsOnline:  u.IsOnline,
		IsInCall:  u.IsInCall,
	}
}

func toUserSummary(e userEntity) domain.UserSummary {
	return domain.UserSummary{
		UUID:      domain.UserID(e.UUID),
		Username:  e.Username,
		IsChatbot: e.IsChatbot,
		IsOnline:  e.IsOnline,
		IsInCall:  e.IsInCall,
	}
}

func toMessageEntity(m *domain.Message) (messageEntity, error) {
	ent := messageEntity{
		ID:         string(m.ID),
		ChatID:     string(m.ChatID),
		SenderID:   string(m.Sender.UUID),
		Content:    m.Content,
		Mood:       string(m.Mood),
		Type:       string(m.Type),
		Encryption: m.Encryption,
		Status:     string(m.Status),
		VoiceRef:   m.VoiceRef,
		Timestamp:  m.Timestamp,
		CreatedAt:  m.CreatedAt,
	}
	if m.Poll != nil {
		id := string(m.Poll.ID)
		ent.PollID = &id
	}
	if len(m.Files) > 0 {
		data, err := json.Marshal(m.Files)
		if err != nil {
			return ent, err
		}
		ent.FilesJSON = data
	}
	if m.GIF != nil {
		data, err := json.Marshal(m.GIF)
		if err != nil {
			return ent, err
		}
		ent.GIFJSON = data
	}
	if len(m.ReadBy) > 0 {
		data, err := json.Marshal(m.ReadBy)
		if err != nil {
			return ent, err
		}
		ent.ReadByJSON = data
	}
	return ent, nil
}

func (s *Store) toMessage(ctx context.Context, e messageEntity) (*domain.Message, error) {
	m := &domain.Message{
		ID:         domain.MessageID(e.ID),
		ChatID:     domain.ChatID(e.ChatID),
		Content:    e.Content,
		Mood:       domain.Mood(e.Mood),
		Type:       domain.MessageType(e.Type),
		Encryption: e.Encryption,
		Status:     domain.MessageStatus(e.Status),
		VoiceRef:   e.VoiceRef,
		Timestamp:  e.Timestamp,
		CreatedAt:  e.CreatedAt,
	}
	if sender, err := s.GetUser(ctx, domain.UserID(e.SenderID)); err == nil {
		m.Sender = *sender
	} else {
		m.Sender = domain.UserSummary{UUID: domain.UserID(e.SenderID)}
	}
	if len(e.FilesJSON) > 0 {
		if err := json.Unmarshal(e.FilesJSON, &m.Files); err != nil {
			return nil, fmt.Errorf("decode files: %w", err)
		}
	}
	if len(e.GIFJSON) > 0 {
		m.GIF = &domain.GIF{}
		if err := json.Unmarshal(e.GIFJSON, m.GIF); err != nil {
			return nil, fmt.Errorf("decode gif: %w", err)
		}
	}
	if len(e.ReadByJSON) > 0 {
		if err := json.Unmarshal(e.ReadByJSON, &m.ReadBy); err != nil {
			return nil, fmt.Errorf("decode read_by: %w", err)
		}
	}
	if e.PollID != nil {
		poll, err := s.GetPoll(ctx, domain.PollID(*e.PollID))
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		m.Poll = poll
	}
	return m, nil
}
