package database

import (
	"context"
	"errors"
	"time"

	"github.com/CUknot/tasksphere_backend/apperr"
	"github.com/CUknot/tasksphere_backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errGroupNotFound  = apperr.NotFound("Group not found")
	errUserNotFound   = apperr.NotFound("User not found")
	errInvalidGroupID = apperr.Validation("Invalid group ID")
)

// GroupStore persists group aggregates: membership, chat history and shared
// files. Appends never rewrite the aggregate; each one is a single
// transaction that bumps the group's counter and inserts the new row.
type GroupStore interface {
	FindGroupByID(ctx context.Context, id string) (models.Group, error)
	Backlog(ctx context.Context, groupID string) ([]models.Message, error)
	AppendMessage(ctx context.Context, groupID string, msg models.Message) (models.Message, error)
	AppendFile(ctx context.Context, groupID string, file models.FileRecord) (models.FileRecord, error)
	ShareFile(ctx context.Context, groupID string, file models.FileRecord, msg models.Message) (models.FileRecord, models.Message, error)
	FindSharedFile(ctx context.Context, groupID, publicID string) (models.FileRecord, error)
	ListFiles(ctx context.Context, groupID string) ([]models.FileRecord, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error)
	ListAllGroups(ctx context.Context) ([]models.Group, error)

	CreateGroup(ctx context.Context, group models.Group, memberIDs []string) (models.Group, error)
	DeleteGroup(ctx context.Context, id string) error
	DeleteGroupByName(ctx context.Context, name string) (models.Group, error)
	AddMembers(ctx context.Context, groupID string, userIDs []string) (models.Group, error)
	RemoveMember(ctx context.Context, groupID, userID string) (models.Group, error)

	UpsertUser(ctx context.Context, user models.User) (models.User, bool, error)
	FindUser(ctx context.Context, id string) (models.User, error)
}

// GormGroupStore implements GroupStore on top of gorm.
type GormGroupStore struct {
	db *gorm.DB
}

// NewGroupStore wraps an opened and migrated database.
func NewGroupStore(db *gorm.DB) *GormGroupStore {
	return &GormGroupStore{db: db}
}

// FindGroupByID returns the group with its members resolved.
func (s *GormGroupStore) FindGroupByID(ctx context.Context, id string) (models.Group, error) {
	if !models.ValidID(id) {
		return models.Group{}, errGroupNotFound
	}
	var group models.Group
	if err := s.db.WithContext(ctx).Preload("Members").First(&group, "id = ?", id).Error; err != nil {
		return models.Group{}, notFoundOr(err, errGroupNotFound, "Error fetching group")
	}
	return group, nil
}

// Backlog returns the full message history of a group in append order.
func (s *GormGroupStore) Backlog(ctx context.Context, groupID string) ([]models.Message, error) {
	if err := s.groupExists(s.db.WithContext(ctx), groupID); err != nil {
		return nil, err
	}
	messages := []models.Message{}
	if err := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("seq ASC").
		Preload("Sender").
		Find(&messages).Error; err != nil {
		return nil, apperr.Persistence("Error fetching group messages", err)
	}
	return messages, nil
}

// AppendMessage adds msg to the group's history and returns it as stored,
// with the sender resolved.
func (s *GormGroupStore) AppendMessage(ctx context.Context, groupID string, msg models.Message) (models.Message, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return appendMessage(tx, groupID, &msg)
	})
	if err != nil {
		return models.Message{}, err
	}
	return s.loadMessage(ctx, msg.ID)
}

// AppendFile adds a file record to the group's shared files.
func (s *GormGroupStore) AppendFile(ctx context.Context, groupID string, file models.FileRecord) (models.FileRecord, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return appendFile(tx, groupID, &file)
	})
	if err != nil {
		return models.FileRecord{}, err
	}
	return s.loadFile(ctx, file.ID)
}

// ShareFile appends a file record and the message announcing it in one
// transaction, so neither is visible without the other.
func (s *GormGroupStore) ShareFile(ctx context.Context, groupID string, file models.FileRecord, msg models.Message) (models.FileRecord, models.Message, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := appendFile(tx, groupID, &file); err != nil {
			return err
		}
		return appendMessage(tx, groupID, &msg)
	})
	if err != nil {
		return models.FileRecord{}, models.Message{}, err
	}

	storedFile, err := s.loadFile(ctx, file.ID)
	if err != nil {
		return models.FileRecord{}, models.Message{}, err
	}
	storedMsg, err := s.loadMessage(ctx, msg.ID)
	if err != nil {
		return models.FileRecord{}, models.Message{}, err
	}
	return storedFile, storedMsg, nil
}

// FindSharedFile looks up a shared file of the group by its blob identifier.
func (s *GormGroupStore) FindSharedFile(ctx context.Context, groupID, publicID string) (models.FileRecord, error) {
	var file models.FileRecord
	err := s.db.WithContext(ctx).
		Where("group_id = ? AND cloudinary_public_id = ?", groupID, publicID).
		First(&file).Error
	if err != nil {
		return models.FileRecord{}, notFoundOr(err, apperr.NotFound("Attachment not found in group files"), "Error fetching group files")
	}
	return file, nil
}

// ListFiles returns the group's shared files with uploaders resolved.
func (s *GormGroupStore) ListFiles(ctx context.Context, groupID string) ([]models.FileRecord, error) {
	if err := s.groupExists(s.db.WithContext(ctx), groupID); err != nil {
		return nil, err
	}
	files := []models.FileRecord{}
	if err := s.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("seq ASC").
		Preload("Uploader").
		Find(&files).Error; err != nil {
		return nil, apperr.Persistence("Error fetching group files", err)
	}
	return files, nil
}

// ListGroupsForUser returns every group userID is a member of.
func (s *GormGroupStore) ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error) {
	if !models.ValidID(userID) {
		return nil, apperr.Validation("Invalid user ID")
	}
	groups := []models.Group{}
	if err := s.db.WithContext(ctx).
		Joins("JOIN group_members ON group_members.group_id = chat_groups.id").
		Where("group_members.user_id = ?", userID).
		Order("chat_groups.created_at ASC").
		Preload("Members").
		Find(&groups).Error; err != nil {
		return nil, apperr.Persistence("Error getting user groups", err)
	}
	return groups, nil
}

// ListAllGroups returns every group with members resolved.
func (s *GormGroupStore) ListAllGroups(ctx context.Context) ([]models.Group, error) {
	groups := []models.Group{}
	if err := s.db.WithContext(ctx).Order("created_at ASC").Preload("Members").Find(&groups).Error; err != nil {
		return nil, apperr.Persistence("Error fetching groups", err)
	}
	return groups, nil
}

// CreateGroup stores a new group with the given initial members. Unknown
// member ids are ignored.
func (s *GormGroupStore) CreateGroup(ctx context.Context, group models.Group, memberIDs []string) (models.Group, error) {
	group.ID = ""
	group.MessageCount, group.FileCount = 0, 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&group).Error; err != nil {
			return apperr.Persistence("Error creating group", err)
		}
		return addMembers(tx, group.ID, memberIDs)
	})
	if err != nil {
		return models.Group{}, err
	}
	return s.FindGroupByID(ctx, group.ID)
}

// DeleteGroup removes the group together with its history, files and
// memberships.
func (s *GormGroupStore) DeleteGroup(ctx context.Context, id string) error {
	if !models.ValidID(id) {
		return errInvalidGroupID
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.Message{}, &models.FileRecord{}, &models.GroupMember{}} {
			if err := tx.Where("group_id = ?", id).Delete(model).Error; err != nil {
				return apperr.Persistence("Error deleting group", err)
			}
		}
		res := tx.Where("id = ?", id).Delete(&models.Group{})
		if res.Error != nil {
			return apperr.Persistence("Error deleting group", res.Error)
		}
		if res.RowsAffected == 0 {
			return errGroupNotFound
		}
		return nil
	})
}

// DeleteGroupByName deletes the group matching name, the way a project
// deletion cascades to "<project> Group".
func (s *GormGroupStore) DeleteGroupByName(ctx context.Context, name string) (models.Group, error) {
	var group models.Group
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&group).Error; err != nil {
		return models.Group{}, notFoundOr(err, errGroupNotFound, "Error fetching group")
	}
	if err := s.DeleteGroup(ctx, group.ID); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// AddMembers adds users to the group; existing members are kept once.
func (s *GormGroupStore) AddMembers(ctx context.Context, groupID string, userIDs []string) (models.Group, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.groupExists(tx, groupID); err != nil {
			return err
		}
		return addMembers(tx, groupID, userIDs)
	})
	if err != nil {
		return models.Group{}, err
	}
	return s.FindGroupByID(ctx, groupID)
}

// RemoveMember drops userID from the group's members.
func (s *GormGroupStore) RemoveMember(ctx context.Context, groupID, userID string) (models.Group, error) {
	if !models.ValidID(userID) {
		return models.Group{}, apperr.Validation("Invalid user ID")
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.groupExists(tx, groupID); err != nil {
			return err
		}
		if err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&models.GroupMember{}).Error; err != nil {
			return apperr.Persistence("Error updating group members", err)
		}
		return nil
	})
	if err != nil {
		return models.Group{}, err
	}
	return s.FindGroupByID(ctx, groupID)
}

// UpsertUser creates or updates the identity record keyed by ExternalID.
// The boolean reports whether a new user was created.
func (s *GormGroupStore) UpsertUser(ctx context.Context, user models.User) (models.User, bool, error) {
	if user.ExternalID == "" || user.Email == "" {
		return models.User{}, false, apperr.Validation("externalId and email are required")
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("external_id = ?", user.ExternalID).First(&existing).Error
	switch {
	case err == nil:
		existing.Email = user.Email
		if user.Name != "" {
			existing.Name = user.Name
		}
		if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return models.User{}, false, apperr.Persistence("Error storing user", err)
		}
		return existing, false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		user.ID = ""
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return models.User{}, false, apperr.Persistence("Error storing user", err)
		}
		return user, true, nil
	default:
		return models.User{}, false, apperr.Persistence("Error storing user", err)
	}
}

// FindUser returns the identity record with the given id.
func (s *GormGroupStore) FindUser(ctx context.Context, id string) (models.User, error) {
	if !models.ValidID(id) {
		return models.User{}, errUserNotFound
	}
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return models.User{}, notFoundOr(err, errUserNotFound, "Error fetching user")
	}
	return user, nil
}

func (s *GormGroupStore) groupExists(tx *gorm.DB, groupID string) error {
	if !models.ValidID(groupID) {
		return errInvalidGroupID
	}
	var count int64
	if err := tx.Model(&models.Group{}).Where("id = ?", groupID).Count(&count).Error; err != nil {
		return apperr.Persistence("Error fetching group", err)
	}
	if count == 0 {
		return errGroupNotFound
	}
	return nil
}

func (s *GormGroupStore) loadMessage(ctx context.Context, id string) (models.Message, error) {
	var msg models.Message
	if err := s.db.WithContext(ctx).Preload("Sender").First(&msg, "id = ?", id).Error; err != nil {
		return models.Message{}, apperr.Persistence("Error loading stored message", err)
	}
	return msg, nil
}

func (s *GormGroupStore) loadFile(ctx context.Context, id string) (models.FileRecord, error) {
	var file models.FileRecord
	if err := s.db.WithContext(ctx).Preload("Uploader").First(&file, "id = ?", id).Error; err != nil {
		return models.FileRecord{}, apperr.Persistence("Error loading stored file", err)
	}
	return file, nil
}

// nextSeq atomically increments the named counter of the group and returns
// the new value. The UPDATE takes the group's row lock, so concurrent
// appends to one group commit one after another.
func nextSeq(tx *gorm.DB, groupID, column string) (int64, error) {
	res := tx.Model(&models.Group{}).
		Where("id = ?", groupID).
		Updates(map[string]interface{}{
			column:       gorm.Expr(column + " + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, apperr.Persistence("Error updating group", res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, errGroupNotFound
	}

	var seq int64
	if err := tx.Model(&models.Group{}).Select(column).Where("id = ?", groupID).Scan(&seq).Error; err != nil {
		return 0, apperr.Persistence("Error updating group", err)
	}
	return seq, nil
}

func userExists(tx *gorm.DB, userID string) error {
	if !models.ValidID(userID) {
		return errUserNotFound
	}
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return apperr.Persistence("Error fetching user", err)
	}
	if count == 0 {
		return errUserNotFound
	}
	return nil
}

func appendMessage(tx *gorm.DB, groupID string, msg *models.Message) error {
	if err := userExists(tx, msg.SenderID); err != nil {
		return err
	}
	seq, err := nextSeq(tx, groupID, "message_count")
	if err != nil {
		return err
	}
	msg.ID = ""
	msg.GroupID = groupID
	msg.Seq = seq
	if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
		return apperr.Persistence("Error saving message", err)
	}
	return nil
}

func appendFile(tx *gorm.DB, groupID string, file *models.FileRecord) error {
	if err := userExists(tx, file.UploaderID); err != nil {
		return err
	}
	seq, err := nextSeq(tx, groupID, "file_count")
	if err != nil {
		return err
	}
	file.ID = ""
	file.GroupID = groupID
	file.Seq = seq
	if err := tx.Omit(clause.Associations).Create(file).Error; err != nil {
		return apperr.Persistence("Error saving file", err)
	}
	return nil
}

func addMembers(tx *gorm.DB, groupID string, userIDs []string) error {
	ids := make([]string, 0, len(userIDs))
	seen := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		if !models.ValidID(id) {
			return apperr.Validation("Invalid user ID")
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var known []string
	if err := tx.Model(&models.User{}).Where("id IN ?", ids).Pluck("id", &known).Error; err != nil {
		return apperr.Persistence("Error updating group members", err)
	}
	if len(known) == 0 {
		return nil
	}
	rows := make([]models.GroupMember, 0, len(known))
	for _, id := range known {
		rows = append(rows, models.GroupMember{GroupID: groupID, UserID: id})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return apperr.Persistence("Error updating group members", err)
	}
	return nil
}

func notFoundOr(err, notFound error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperr.Persistence(message, err)
}
