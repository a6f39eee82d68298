package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/astwrks/assetwork-ai-web-sub001/pkg/models"
)

// ErrThreadNotFound is returned when a thread id does not exist or
// belongs to another user.
var ErrThreadNotFound = errors.New("thread not found")

// ErrReportNotFound is returned when a report id does not exist.
var ErrReportNotFound = errors.New("report not found")

// ThreadService manages conversation threads and their messages.
type ThreadService struct {
	db *gorm.DB
}

func NewThreadService(db *gorm.DB) *ThreadService {
	return &ThreadService{db: db}
}

// CreateThread creates a thread for the user. An empty title gets the
// model default.
func (s *ThreadService) CreateThread(userID, title string) (*models.Thread, error) {
	thread := &models.Thread{
		ID:     uuid.New().String(),
		UserID: userID,
		Status: models.ThreadStatusActive,
	}
	if strings.TrimSpace(title) != "" {
		thread.Title = title
	}
	if err := s.db.Create(thread).Error; err != nil {
		return nil, errors.Wrap(err, "failed to create thread")
	}
	return thread, nil
}

// GetThread fetches one thread owned by the user.
func (s *ThreadService) GetThread(userID, threadID string) (*models.Thread, error) {
	var thread models.Thread
	err := s.db.Where("id = ? AND user_id = ?", threadID, userID).First(&thread).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get thread")
	}
	return &thread, nil
}

// ListThreads returns the user's threads newest first. Archived threads
// are excluded unless includeArchived is set. limit+1 rows are fetched
// to compute HasMore without a count query.
func (s *ThreadService) ListThreads(userID string, limit, offset int, includeArchived bool) (*models.ThreadList, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	q := s.db.Where("user_id = ?", userID)
	if !includeArchived {
		q = q.Where("status = ?", models.ThreadStatusActive)
	}

	var threads []models.Thread
	err := q.Order("updated_at DESC").Limit(limit + 1).Offset(offset).Find(&threads).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list threads")
	}

	hasMore := len(threads) > limit
	if hasMore {
		threads = threads[:limit]
	}
	return &models.ThreadList{Threads: threads, HasMore: hasMore}, nil
}

// UpdateThread applies the non-nil fields of req to the thread.
func (s *ThreadService) UpdateThread(userID, threadID string, req *models.UpdateThreadRequest) (*models.Thread, error) {
	thread, err := s.GetThread(userID, threadID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, errors.New("title cannot be empty")
		}
		updates["title"] = *req.Title
	}
	if req.Status != nil {
		if *req.Status != models.ThreadStatusActive && *req.Status != models.ThreadStatusArchived {
			return nil, errors.Errorf("invalid thread status: %s", *req.Status)
		}
		updates["status"] = *req.Status
	}
	if req.Bookmarked != nil {
		updates["bookmarked"] = *req.Bookmarked
	}
	if len(updates) == 0 {
		return thread, nil
	}

	if err := s.db.Model(thread).Updates(updates).Error; err != nil {
		return nil, errors.Wrap(err, "failed to update thread")
	}
	return s.GetThread(userID, threadID)
}

// DeleteThread removes a thread and everything hanging off it: messages,
// reports, sections and entity mentions. Shared entities stay.
func (s *ThreadService) DeleteThread(userID, threadID string) error {
	if _, err := s.GetThread(userID, threadID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var reportIDs []string
		if err := tx.Model(&models.Report{}).Where("thread_id = ?", threadID).
			Pluck("id", &reportIDs).Error; err != nil {
			return errors.Wrap(err, "failed to list thread reports")
		}
		if len(reportIDs) > 0 {
			if err := tx.Where("report_id IN ?", reportIDs).Delete(&models.Section{}).Error; err != nil {
				return errors.Wrap(err, "failed to delete sections")
			}
			if err := tx.Where("report_id IN ?", reportIDs).Delete(&models.EntityMention{}).Error; err != nil {
				return errors.Wrap(err, "failed to delete entity mentions")
			}
			if err := tx.Where("thread_id = ?", threadID).Delete(&models.Report{}).Error; err != nil {
				return errors.Wrap(err, "failed to delete reports")
			}
		}
		if err := tx.Where("thread_id = ?", threadID).Delete(&models.Message{}).Error; err != nil {
			return errors.Wrap(err, "failed to delete messages")
		}
		if err := tx.Where("id = ?", threadID).Delete(&models.Thread{}).Error; err != nil {
			return errors.Wrap(err, "failed to delete thread")
		}
		return nil
	})
}

// GetMessages returns a thread's messages in chronological order.
func (s *ThreadService) GetMessages(userID, threadID string) ([]models.Message, error) {
	if _, err := s.GetThread(userID, threadID); err != nil {
		return nil, err
	}

	var messages []models.Message
	err := s.db.Where("thread_id = ?", threadID).Order("created_at ASC").Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to get messages")
	}
	return messages, nil
}

// GetReport fetches a report with its sections in order and entity
// mentions with the entities preloaded.
func (s *ThreadService) GetReport(userID, reportID string) (*models.Report, error) {
	var report models.Report
	err := s.db.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Mentions.Entity").
		Where("id = ?", reportID).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get report")
	}

	// Ownership check goes through the thread.
	if _, err := s.GetThread(userID, report.ThreadID); err != nil {
		return nil, ErrReportNotFound
	}
	return &report, nil
}

// ListReports returns a thread's reports newest first, without section
// or mention payloads.
func (s *ThreadService) ListReports(userID, threadID string) ([]models.Report, error) {
	if _, err := s.GetThread(userID, threadID); err != nil {
		return nil, err
	}

	var reports []models.Report
	err := s.db.Where("thread_id = ?", threadID).Order("created_at DESC").Find(&reports).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list reports")
	}
	return reports, nil
}

// TouchThread bumps a thread's updated_at so it sorts to the top of
// listings after activity.
func (s *ThreadService) TouchThread(threadID string) {
	s.db.Model(&models.Thread{}).Where("id = ?", threadID).
		Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP"))
}
