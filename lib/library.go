package lib

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kyeom/newsdeck/lib/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// library covers the per-user article state: read logs and saved items,
// plus news ingestion.
type library struct {
	log       *zap.Logger
	db        *gorm.DB
	transport http.RoundTripper
	now       func() time.Time
}

// InsertReadLog appends a view event. The log is append-only; ranking reads
// it and the retention worker trims it.
func (svc *library) InsertReadLog(ctx context.Context, userIdx uint, articleType string, articleIdx uint) (uint, error) {
	entry := models.UserViewLog{
		UserIdx:     userIdx,
		ArticleType: articleType,
		ArticleIdx:  articleIdx,
		ViewedTime:  svc.now(),
	}
	if err := svc.db.WithContext(ctx).Create(&entry).Error; err != nil {
		svc.log.Sugar().Errorw("read log insert failed",
			"user_idx", userIdx, "article_type", articleType, "article_idx", articleIdx, "err", err)
		return 0, err
	}
	return entry.Idx, nil
}

// SaveArticle marks an article saved or unsaved. Saving an already-active
// row is a no-op; unsaving flips the status flag rather than deleting.
func (svc *library) SaveArticle(ctx context.Context, userIdx uint, articleType string, articleIdx uint, save bool) error {
	db := svc.db.WithContext(ctx)
	touch := map[string]any{"status": 0, "updated_time": svc.now()}

	if !save {
		return db.Model(&models.UserSavedArticle{}).
			Where("user_idx = ? AND article_type = ? AND article_idx = ?", userIdx, articleType, articleIdx).
			Updates(touch).Error
	}

	var existing models.UserSavedArticle
	tx := db.Where("user_idx = ? AND article_type = ? AND article_idx = ?", userIdx, articleType, articleIdx).
		First(&existing)
	switch {
	case errors.Is(tx.Error, gorm.ErrRecordNotFound):
		return db.Create(&models.UserSavedArticle{
			UserIdx:     userIdx,
			ArticleType: articleType,
			ArticleIdx:  articleIdx,
			Status:      1,
			UpdatedTime: svc.now(),
		}).Error

	case tx.Error != nil:
		return tx.Error

	case existing.Status == 1:
		return nil

	default:
		touch["status"] = 1
		return db.Model(&models.UserSavedArticle{}).
			Where("idx = ?", existing.Idx).
			Updates(touch).Error
	}
}

func (svc *library) CheckSavedArticle(ctx context.Context, userIdx uint, articleType string, articleIdx uint) (bool, error) {
	var count int64
	tx := svc.db.WithContext(ctx).
		Model(&models.UserSavedArticle{}).
		Where("user_idx = ? AND article_type = ? AND article_idx = ? AND status = 1", userIdx, articleType, articleIdx).
		Count(&count)
	if tx.Error != nil {
		return false, tx.Error
	}
	return count > 0, nil
}

// SavedArticle is one row of the saved-items listing. Title and URL resolve
// through the news table; saved insights and summaries keep their
// identifiers but list with empty titles here.
type SavedArticle struct {
	SavedIdx    uint
	ArticleType string
	ArticleIdx  uint
	Title       string
	URL         string
	Viewed      bool
}

func (svc *library) SavedArticles(ctx context.Context, userIdx uint, limit, offset int) ([]SavedArticle, error) {
	var rows []struct {
		SavedIdx    uint
		ArticleType string
		ArticleIdx  uint
		Title       string
		URL         string
		Viewed      int
	}

	q := svc.db.WithContext(ctx).
		Table("user_saved_articles").
		Select("user_saved_articles.idx AS saved_idx,"+
			" user_saved_articles.article_type AS article_type,"+
			" user_saved_articles.article_idx AS article_idx,"+
			" COALESCE(news.title, '') AS title,"+
			" COALESCE(news.url, '') AS url,"+
			" EXISTS(SELECT 1 FROM user_view_logs"+
			"  WHERE user_view_logs.user_idx = user_saved_articles.user_idx"+
			"  AND user_view_logs.article_type = user_saved_articles.article_type"+
			"  AND user_view_logs.article_idx = user_saved_articles.article_idx) AS viewed").
		Joins("LEFT JOIN news ON user_saved_articles.article_type = ? AND user_saved_articles.article_idx = news.idx",
			models.ArticleTypeNews).
		Where("user_saved_articles.user_idx = ? AND user_saved_articles.status = 1", userIdx).
		Order("user_saved_articles.updated_time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}

	if tx := q.Scan(&rows); tx.Error != nil {
		svc.log.Sugar().Errorw("saved articles query failed", "user_idx", userIdx, "err", tx.Error)
		return nil, tx.Error
	}

	saved := make([]SavedArticle, 0, len(rows))
	for _, row := range rows {
		saved = append(saved, SavedArticle{
			SavedIdx:    row.SavedIdx,
			ArticleType: row.ArticleType,
			ArticleIdx:  row.ArticleIdx,
			Title:       row.Title,
			URL:         row.URL,
			Viewed:      row.Viewed != 0,
		})
	}
	return saved, nil
}

// IngestNews stores a new article. When the article arrives with a URL but
// no title or image, the page is fetched once to fill them in; a fetch
// failure degrades to storing the article as-is.
func (svc *library) IngestNews(ctx context.Context, article *models.News) error {
	if article.CreatedTime.IsZero() {
		article.CreatedTime = svc.now()
	}
	if article.Status == 0 {
		article.Status = 1
	}

	if article.URL != "" && (article.Title == "" || article.ImageURL == "") {
		meta, err := svc.fetchPageMeta(ctx, article.URL)
		if err != nil {
			svc.log.Sugar().Warnw("page metadata fetch failed", "url", article.URL, "err", err)
		} else {
			if article.Title == "" {
				article.Title = meta.Title
			}
			if article.ImageURL == "" {
				article.ImageURL = meta.ImageURL
			}
		}
	}

	if err := svc.db.WithContext(ctx).Create(article).Error; err != nil {
		svc.log.Sugar().Errorw("news insert failed", "url", article.URL, "err", err)
		return err
	}
	return nil
}
