package lib

import (
	"context"
	"time"

	"github.com/kyeom/newsdeck/lib/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RankedNews is one row of a popularity listing.
type RankedNews struct {
	News    models.News
	Views   int64
	MyViews int64 // requester's own view count; only set by PersonalizedTop
	Age     models.RelativeAge
}

type ranker struct {
	log *zap.Logger
	db  *gorm.DB
	now func() time.Time
}

// GlobalTop ranks news by all-time raw view count. Ties break on article
// idx descending so reruns over the same data return the same order.
func (svc *ranker) GlobalTop(ctx context.Context, limit int) ([]RankedNews, error) {
	var counts []struct {
		ArticleIdx uint
		ViewCount  int64
	}
	tx := svc.db.WithContext(ctx).
		Model(&models.UserViewLog{}).
		Select("article_idx, COUNT(*) AS view_count").
		Where("article_type = ?", models.ArticleTypeNews).
		Group("article_idx").
		Order("view_count DESC, article_idx DESC").
		Limit(limit).
		Scan(&counts)
	if tx.Error != nil {
		svc.log.Sugar().Errorw("popular news aggregate failed", "err", tx.Error)
		return nil, tx.Error
	}

	// Sequential fetches, and any miss fails the whole batch: the listing
	// is either complete or absent, never padded with stale rows.
	now := svc.now()
	ranked := make([]RankedNews, 0, len(counts))
	for _, row := range counts {
		var article models.News
		if err := svc.db.WithContext(ctx).First(&article, "idx = ?", row.ArticleIdx).Error; err != nil {
			svc.log.Sugar().Errorw("popular news fetch failed", "article_idx", row.ArticleIdx, "err", err)
			return nil, err
		}
		ranked = append(ranked, RankedNews{
			News:  article,
			Views: row.ViewCount,
			Age:   models.AgeSince(article.CreatedTime, now),
		})
	}
	return ranked, nil
}

const personalizedTopQuery = `
SELECT v.article_idx AS article_idx,
       COUNT(DISTINCT v.user_idx) AS viewer_count,
       (SELECT COUNT(*) FROM user_view_logs mv
         WHERE mv.user_idx = ? AND mv.article_type = 'news' AND mv.article_idx = v.article_idx) AS my_views,
       n.title AS title,
       n."from" AS "from",
       n.url AS url,
       n.image_url AS image_url,
       n.created_time AS created_time
FROM user_view_logs v
JOIN news n ON n.idx = v.article_idx
WHERE v.article_type = 'news' AND v.viewed_time > ?
GROUP BY v.article_idx
ORDER BY viewer_count DESC, v.article_idx DESC
LIMIT ?`

// PersonalizedTop ranks news viewed within the trailing 24 hours by
// distinct viewer count, tie-broken by article idx descending. MyViews is
// the requester's own all-time view count on each article; it annotates the
// row but never affects the order.
func (svc *ranker) PersonalizedTop(ctx context.Context, userIdx uint, limit int) ([]RankedNews, error) {
	now := svc.now()
	windowStart := now.Add(-24 * time.Hour)

	var rows []struct {
		ArticleIdx  uint
		ViewerCount int64
		MyViews     int64
		Title       string
		From        string
		URL         string
		ImageURL    string
		CreatedTime time.Time
	}
	tx := svc.db.WithContext(ctx).
		Raw(personalizedTopQuery, userIdx, windowStart, limit).
		Scan(&rows)
	if tx.Error != nil {
		svc.log.Sugar().Errorw("personalized popular news query failed", "user_idx", userIdx, "err", tx.Error)
		return nil, tx.Error
	}

	ranked := make([]RankedNews, 0, len(rows))
	for _, row := range rows {
		ranked = append(ranked, RankedNews{
			News: models.News{
				Idx:         row.ArticleIdx,
				Title:       row.Title,
				From:        row.From,
				URL:         row.URL,
				ImageURL:    row.ImageURL,
				CreatedTime: row.CreatedTime,
			},
			Views:   row.ViewerCount,
			MyViews: row.MyViews,
			Age:     models.AgeSince(row.CreatedTime, now),
		})
	}
	return ranked, nil
}
