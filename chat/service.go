// Package chat validates and applies the two mutations of a group's history,
// sending a message and sharing a document, and announces them to the
// group's room.
package chat

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/CUknot/tasksphere_backend/apperr"
	"github.com/CUknot/tasksphere_backend/blob"
	"github.com/CUknot/tasksphere_backend/models"
	"go.uber.org/zap"
)

// EventNewMessage is published to a room for every appended message.
const EventNewMessage = "newMessage"

// SharedFileCaption prefixes the content of a document announcement.
const SharedFileCaption = "📎 Shared a file: "

// Store is the part of the group store the service writes through.
type Store interface {
	FindGroupByID(ctx context.Context, id string) (models.Group, error)
	FindUser(ctx context.Context, id string) (models.User, error)
	Backlog(ctx context.Context, groupID string) ([]models.Message, error)
	AppendMessage(ctx context.Context, groupID string, msg models.Message) (models.Message, error)
	ShareFile(ctx context.Context, groupID string, file models.FileRecord, msg models.Message) (models.FileRecord, models.Message, error)
	FindSharedFile(ctx context.Context, groupID, publicID string) (models.FileRecord, error)
}

// Uploader sends a staged file to the blob host and owns it afterwards.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (blob.Result, error)
}

// Publisher delivers an event to every connection in room except the one
// identified by exceptConnID (empty means nobody is skipped).
type Publisher interface {
	Publish(ctx context.Context, room, event string, payload interface{}, exceptConnID string) error
}

// SendMessageInput is a chat message as submitted by a client.
type SendMessageInput struct {
	GroupID    string             `json:"groupId"`
	SenderID   string             `json:"senderId"`
	Content    string             `json:"content"`
	Attachment *models.Attachment `json:"attachment,omitempty"`
}

// UploadInput describes a document already staged on local disk. The
// service owns LocalPath from the moment UploadGroupDocument is called.
type UploadInput struct {
	GroupID     string
	UploaderID  string
	FileName    string
	LocalPath   string
	Size        int64
	ContentType string
}

// UploadResult is the file record and the announcement appended for it.
type UploadResult struct {
	File    models.FileRecord
	Message models.Message
}

// Service serializes writes per group so that the order of the stored
// history and the order of newMessage events agree.
type Service struct {
	store Store
	blobs Uploader
	rooms Publisher
	log   *zap.Logger
	locks *keyedMutex
}

// NewService wires the service to its collaborators.
func NewService(store Store, blobs Uploader, rooms Publisher, log *zap.Logger) *Service {
	return &Service{
		store: store,
		blobs: blobs,
		rooms: rooms,
		log:   log.Named("chat"),
		locks: newKeyedMutex(),
	}
}

// Membership is one connection taking its place in a group's room.
type Membership interface {
	// Subscribe adds the connection to the room. Events published from then
	// on are held for it until Deliver.
	Subscribe()
	// Deliver hands over the backlog, then releases the held events that
	// are newer than it.
	Deliver(backlog []models.Message)
	// Abandon takes the connection back out of the room.
	Abandon()
}

// Join checks the group, subscribes the connection to its room and hands it
// the current backlog. Subscribe and Deliver happen under the group lock, so
// the backlog is queued before any message appended afterwards.
func (s *Service) Join(ctx context.Context, groupID string, m Membership) error {
	if !models.ValidID(groupID) {
		return apperr.Validation("Invalid group ID")
	}

	unlock := s.locks.Lock(groupID)
	defer unlock()

	if _, err := s.store.FindGroupByID(ctx, groupID); err != nil {
		return s.joinFailure(groupID, err)
	}

	m.Subscribe()
	messages, err := s.store.Backlog(ctx, groupID)
	if err != nil {
		m.Abandon()
		return s.joinFailure(groupID, err)
	}
	m.Deliver(messages)
	return nil
}

// SendMessage appends a message to the group and publishes it to the whole
// room, the sender included.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (models.Message, error) {
	if !models.ValidID(in.GroupID) {
		return models.Message{}, apperr.Validation("Invalid group ID")
	}
	if !models.ValidID(in.SenderID) {
		return models.Message{}, apperr.Validation("Invalid sender ID")
	}
	if strings.TrimSpace(in.Content) == "" {
		return models.Message{}, apperr.Validation("Message content cannot be empty")
	}

	unlock := s.locks.Lock(in.GroupID)
	defer unlock()

	if _, err := s.store.FindGroupByID(ctx, in.GroupID); err != nil {
		return models.Message{}, s.sendFailure(in, err)
	}

	msg := models.Message{SenderID: in.SenderID, Content: in.Content}
	if in.Attachment != nil && !in.Attachment.IsZero() {
		att, err := s.resolveAttachment(ctx, in.GroupID, *in.Attachment)
		if err != nil {
			return models.Message{}, s.sendFailure(in, err)
		}
		msg.Attachment = att
	}

	stored, err := s.store.AppendMessage(ctx, in.GroupID, msg)
	if err != nil {
		return models.Message{}, s.sendFailure(in, err)
	}
	s.publish(ctx, stored)
	return stored, nil
}

// UploadGroupDocument sends a staged document to the blob host, then records
// it in the group's files together with an announcement message. The staged
// file is removed on every path.
func (s *Service) UploadGroupDocument(ctx context.Context, in UploadInput) (UploadResult, error) {
	if err := s.checkUpload(ctx, in); err != nil {
		s.discard(in.LocalPath)
		return UploadResult{}, err
	}

	res, err := s.blobs.Upload(ctx, in.LocalPath)
	if err != nil {
		s.log.Error("blob upload failed", zap.String("group_id", in.GroupID), zap.Error(err))
		return UploadResult{}, err
	}

	file := models.FileRecord{
		UploaderID:         in.UploaderID,
		FileName:           in.FileName,
		FilePath:           in.LocalPath,
		CloudinaryURL:      res.URL,
		CloudinaryPublicID: res.PublicID,
	}
	msg := models.Message{
		SenderID: in.UploaderID,
		Content:  SharedFileCaption + in.FileName,
		Attachment: models.Attachment{
			FileName:           in.FileName,
			CloudinaryURL:      res.URL,
			CloudinaryPublicID: res.PublicID,
			FileSize:           in.Size,
			FileType:           in.ContentType,
		},
	}

	unlock := s.locks.Lock(in.GroupID)
	defer unlock()

	storedFile, storedMsg, err := s.store.ShareFile(ctx, in.GroupID, file, msg)
	if err != nil {
		// The blob stays on the host; nothing references it.
		s.log.Error("failed to record uploaded document, blob orphaned",
			zap.String("group_id", in.GroupID),
			zap.String("public_id", res.PublicID),
			zap.String("url", res.URL),
			zap.Error(err))
		if apperr.Is(err, apperr.KindPersistence) {
			return UploadResult{}, apperr.Persistence("Error uploading group document", err)
		}
		return UploadResult{}, err
	}

	s.log.Info("document shared",
		zap.String("group_id", in.GroupID),
		zap.String("file_id", storedFile.ID),
		zap.String("message_id", storedMsg.ID))
	s.publish(ctx, storedMsg)
	return UploadResult{File: storedFile, Message: storedMsg}, nil
}

func (s *Service) checkUpload(ctx context.Context, in UploadInput) error {
	if !models.ValidID(in.GroupID) {
		return apperr.Validation("Invalid group ID")
	}
	if !models.ValidID(in.UploaderID) {
		return apperr.Validation("Invalid uploader ID")
	}
	if in.LocalPath == "" {
		return apperr.Validation("No file uploaded")
	}
	if _, err := s.store.FindGroupByID(ctx, in.GroupID); err != nil {
		return err
	}
	if _, err := s.store.FindUser(ctx, in.UploaderID); err != nil {
		return err
	}
	return nil
}

// resolveAttachment checks that att refers to a file already shared in the
// group and takes the locator from the stored record.
func (s *Service) resolveAttachment(ctx context.Context, groupID string, att models.Attachment) (models.Attachment, error) {
	if att.CloudinaryPublicID == "" {
		return models.Attachment{}, apperr.NotFound("Attachment not found in group files")
	}
	file, err := s.store.FindSharedFile(ctx, groupID, att.CloudinaryPublicID)
	if err != nil {
		return models.Attachment{}, err
	}
	if att.FileName == "" {
		att.FileName = file.FileName
	}
	att.CloudinaryURL = file.CloudinaryURL
	return att, nil
}

func (s *Service) publish(ctx context.Context, msg models.Message) {
	if err := s.rooms.Publish(ctx, msg.GroupID, EventNewMessage, NewMessageFrom(msg), ""); err != nil {
		s.log.Warn("failed to publish message",
			zap.String("group_id", msg.GroupID),
			zap.String("message_id", msg.ID),
			zap.Error(err))
	}
}

func (s *Service) joinFailure(groupID string, err error) error {
	if !apperr.Is(err, apperr.KindPersistence) {
		return err
	}
	s.log.Error("failed to load backlog", zap.String("group_id", groupID), zap.Error(err))
	return apperr.Persistence("Error fetching group messages", err)
}

func (s *Service) sendFailure(in SendMessageInput, err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound:
		return err
	}
	s.log.Error("failed to send message",
		zap.String("group_id", in.GroupID),
		zap.String("sender_id", in.SenderID),
		zap.Error(err))
	return apperr.Persistence("Error sending message", err)
}

func (s *Service) discard(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn("failed to remove staged file", zap.String("path", path), zap.Error(err))
	}
}
