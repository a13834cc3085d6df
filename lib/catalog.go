package lib

import (
	"context"
	"errors"
	"time"

	"github.com/kyeom/newsdeck/lib/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type catalog struct {
	log *zap.Logger
	db  *gorm.DB
	now func() time.Time
}

// EnsureCategory returns the idx of the named category, creating it when it
// does not exist yet. Names are unique.
func (svc *catalog) EnsureCategory(ctx context.Context, name string) (uint, error) {
	var cat models.NewsCategory
	tx := svc.db.WithContext(ctx).First(&cat, "category = ?", name)
	switch {
	case errors.Is(tx.Error, gorm.ErrRecordNotFound):
		cat = models.NewsCategory{Category: name, Status: 1}
		if err := svc.db.WithContext(ctx).Create(&cat).Error; err != nil {
			svc.log.Sugar().Errorw("category insert failed", "category", name, "err", err)
			return 0, err
		}
		return cat.Idx, nil

	case tx.Error != nil:
		svc.log.Sugar().Errorw("category lookup failed", "category", name, "err", tx.Error)
		return 0, tx.Error

	default:
		return cat.Idx, nil
	}
}

// ListCategories filters by visibility and, optionally, by name. The name
// filter is parameter-bound; names are caller-supplied strings and must
// never be spliced into the query text.
func (svc *catalog) ListCategories(ctx context.Context, onlyVisible bool, names []string) (models.NewsCategories, error) {
	q := svc.db.WithContext(ctx)
	if onlyVisible {
		q = q.Where("status = ?", 1)
	}
	if len(names) > 0 {
		q = q.Where("category IN ?", names)
	}

	var cats models.NewsCategories
	if tx := q.Find(&cats); tx.Error != nil {
		svc.log.Sugar().Errorw("category listing failed", "err", tx.Error)
		return nil, tx.Error
	}

	filtered := cats[:0]
	for _, cat := range cats {
		if cat.Category == "" {
			continue
		}
		filtered = append(filtered, cat)
	}
	return filtered, nil
}

func (svc *catalog) MapNewsCategory(ctx context.Context, categoryIdx, newsIdx uint) error {
	row := models.NewsCategoriesMap{CategoryIdx: categoryIdx, NewsIdx: newsIdx}
	if err := svc.db.WithContext(ctx).Create(&row).Error; err != nil {
		svc.log.Sugar().Errorw("news category map insert failed",
			"category_idx", categoryIdx, "news_idx", newsIdx, "err", err)
		return err
	}
	return nil
}

// CategoryNews is one row of a category feed.
type CategoryNews struct {
	News    models.News
	MyViews int64
	Age     models.RelativeAge
}

// NewsInCategory lists the newest articles mapped to a category, newest
// first, annotated with relative age.
func (svc *catalog) NewsInCategory(ctx context.Context, categoryIdx uint, limit int) ([]CategoryNews, error) {
	var articles []models.News
	tx := svc.db.WithContext(ctx).
		Joins("JOIN news_categories_map ON news_categories_map.news_idx = news.idx").
		Where("news_categories_map.category_idx = ?", categoryIdx).
		Order("news.idx DESC").
		Limit(limit).
		Find(&articles)
	if tx.Error != nil {
		svc.log.Sugar().Errorw("category feed query failed", "category_idx", categoryIdx, "err", tx.Error)
		return nil, tx.Error
	}

	now := svc.now()
	feed := make([]CategoryNews, 0, len(articles))
	for _, article := range articles {
		feed = append(feed, CategoryNews{
			News: article,
			Age:  models.AgeSince(article.CreatedTime, now),
		})
	}
	return feed, nil
}

// NewsInCategoryWithInteractions is NewsInCategory plus the requester's own
// view count per article.
func (svc *catalog) NewsInCategoryWithInteractions(ctx context.Context, categoryIdx uint, limit int, userIdx uint) ([]CategoryNews, error) {
	var rows []struct {
		models.News
		MyViews int64
	}
	tx := svc.db.WithContext(ctx).
		Model(&models.News{}).
		Select("news.*, (SELECT COUNT(*) FROM user_view_logs"+
			" WHERE user_view_logs.user_idx = ? AND user_view_logs.article_type = 'news'"+
			" AND user_view_logs.article_idx = news.idx) AS my_views", userIdx).
		Joins("JOIN news_categories_map ON news_categories_map.news_idx = news.idx").
		Where("news_categories_map.category_idx = ?", categoryIdx).
		Order("news.idx DESC").
		Limit(limit).
		Find(&rows)
	if tx.Error != nil {
		svc.log.Sugar().Errorw("category feed query failed",
			"category_idx", categoryIdx, "user_idx", userIdx, "err", tx.Error)
		return nil, tx.Error
	}

	now := svc.now()
	feed := make([]CategoryNews, 0, len(rows))
	for _, row := range rows {
		feed = append(feed, CategoryNews{
			News:    row.News,
			MyViews: row.MyViews,
			Age:     models.AgeSince(row.News.CreatedTime, now),
		})
	}
	return feed, nil
}
