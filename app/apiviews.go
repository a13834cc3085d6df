package app

import (
	"time"

	"github.com/kyeom/newsdeck/lib"
	"github.com/kyeom/newsdeck/lib/models"
)

type RankedNewsView struct {
	Idx         uint               `json:"idx"`
	Title       string             `json:"title"`
	Source      string             `json:"from"`
	URL         string             `json:"url"`
	ImageURL    string             `json:"image_url,omitempty"`
	CreatedTime string             `json:"created_time"`
	Views       int64              `json:"views"`
	MyViews     int64              `json:"my_views"`
	Age         models.RelativeAge `json:"age"`
}

func (view RankedNewsView) From(row lib.RankedNews) RankedNewsView {
	return RankedNewsView{
		Idx:         row.News.Idx,
		Title:       row.News.Title,
		Source:      row.News.From,
		URL:         row.News.URL,
		ImageURL:    row.News.ImageURL,
		CreatedTime: isoformat(row.News.CreatedTime),
		Views:       row.Views,
		MyViews:     row.MyViews,
		Age:         row.Age,
	}
}

type CategoryNewsView struct {
	Idx         uint               `json:"idx"`
	Title       string             `json:"title"`
	Source      string             `json:"from"`
	URL         string             `json:"url"`
	ImageURL    string             `json:"image_url,omitempty"`
	CreatedTime string             `json:"created_time"`
	MyViews     int64              `json:"my_views"`
	Age         models.RelativeAge `json:"age"`
}

func (view CategoryNewsView) From(row lib.CategoryNews) CategoryNewsView {
	return CategoryNewsView{
		Idx:         row.News.Idx,
		Title:       row.News.Title,
		Source:      row.News.From,
		URL:         row.News.URL,
		ImageURL:    row.News.ImageURL,
		CreatedTime: isoformat(row.News.CreatedTime),
		MyViews:     row.MyViews,
		Age:         row.Age,
	}
}

type SavedArticleView struct {
	SavedIdx    uint   `json:"saved_idx"`
	ArticleType string `json:"article_type"`
	ArticleIdx  uint   `json:"article_idx"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Viewed      bool   `json:"viewed"`
}

func (view SavedArticleView) From(row lib.SavedArticle) SavedArticleView {
	return SavedArticleView{
		SavedIdx:    row.SavedIdx,
		ArticleType: row.ArticleType,
		ArticleIdx:  row.ArticleIdx,
		Title:       row.Title,
		URL:         row.URL,
		Viewed:      row.Viewed,
	}
}

type CategoryView struct {
	Idx      uint   `json:"idx"`
	Category string `json:"category"`
	Topic    string `json:"topic"`
}

func (view CategoryView) From(entity models.NewsCategory) CategoryView {
	return CategoryView{
		Idx:      entity.Idx,
		Category: entity.Category,
		Topic:    entity.FCMTopic,
	}
}

type Fromable[Entity any, Repr any] interface {
	From(Entity) Repr
}

func FromMany[T any, U Fromable[T, U]](elems []T) []U {
	out := make([]U, len(elems))
	for i, t := range elems {
		var u U
		out[i] = u.From(t)
	}
	return out
}

func isoformat(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
