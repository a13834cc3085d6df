package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/kyeom/newsdeck/config"
	"github.com/kyeom/newsdeck/lib"
	"github.com/kyeom/newsdeck/lib/models"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultListLimit = 10

func NewAPI(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, svc *lib.Service) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(cfg, log, svc)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srv.ListenAndServe()
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(cfg *config.Config, log *zap.Logger, svc *lib.Service) http.Handler {
	ctrl := &controller{log, svc}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		if creds := cfg.GetCreds(); len(creds) > 0 {
			r.Use(middleware.BasicAuth("newsdeck", creds))
		} else {
			log.Sugar().Info("Auth is disabled since no credentials are defined")
		}

		r.Route("/board", func(r chi.Router) {
			r.Post("/meta", ctrl.boardMeta)
			r.Post("/popular", ctrl.popularNews)
		})

		r.Route("/news", func(r chi.Router) {
			r.Post("/", ctrl.ingestNews)
			r.Post("/category", ctrl.categoryFeed)
			r.Get("/categories", ctrl.listCategories)
		})

		r.Route("/users/{user_idx}", func(r chi.Router) {
			r.Post("/devices", ctrl.registerDevices)
			r.Delete("/devices", ctrl.releaseDevices)
			r.Put("/push", ctrl.setPushOnOff)
			r.Put("/categories/{category_idx}/notification", ctrl.setNotificationOption)
			r.Put("/marketing_consent", ctrl.setMarketingConsent)
			r.Post("/read", ctrl.insertReadLog)
			r.Post("/saved", ctrl.saveArticle)
			r.Get("/saved", ctrl.savedArticles)
		})

		r.Post("/announce", ctrl.announce)
	})

	return r
}

type controller struct {
	log *zap.Logger
	svc *lib.Service
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	if b, err := json.Marshal(body); err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		ctrl.log.Sugar().Errorw("Request failed", "error", err)
		return
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(b)
	}
}

func (ctrl *controller) boardMeta(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userIdx := parseUint(r.FormValue("user_idx"))

	plan, err := ctrl.svc.CurrentPlan(ctx, userIdx)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	popular, err := ctrl.svc.PersonalizedTop(ctx, userIdx, 5)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	saved, err := ctrl.svc.SavedArticles(ctx, userIdx, 3, 0)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}

	ctrl.resolve(w, http.StatusOK, map[string]any{
		"userPlan":    plan,
		"popularNews": FromMany[lib.RankedNews, RankedNewsView](popular),
		"saved":       FromMany[lib.SavedArticle, SavedArticleView](saved),
	})
}

func (ctrl *controller) popularNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := parseLimit(r.FormValue("limit"), 5)

	var ranked []lib.RankedNews
	var err error
	if rawUser := r.FormValue("user_idx"); rawUser != "" {
		ranked, err = ctrl.svc.PersonalizedTop(ctx, parseUint(rawUser), limit)
	} else {
		ranked, err = ctrl.svc.GlobalTop(ctx, limit)
	}
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"popularNews": FromMany[lib.RankedNews, RankedNewsView](ranked),
	})
}

func (ctrl *controller) ingestNews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	article := &models.News{
		Title: r.FormValue("title"),
		From:  r.FormValue("from"),
		URL:   r.FormValue("url"),
	}
	if article.URL == "" {
		ctrl.reject(w, 400, errors.New("url is required"))
		return
	}

	if err := ctrl.svc.IngestNews(ctx, article); err != nil {
		ctrl.reject(w, 500, err)
		return
	}

	if category := r.FormValue("category"); category != "" {
		categoryIdx, err := ctrl.svc.EnsureCategory(ctx, category)
		if err != nil {
			ctrl.reject(w, 500, err)
			return
		}
		if err := ctrl.svc.MapNewsCategory(ctx, categoryIdx, article.Idx); err != nil {
			ctrl.reject(w, 500, err)
			return
		}
	}

	ctrl.resolve(w, http.StatusCreated, map[string]any{"idx": article.Idx})
}

func (ctrl *controller) categoryFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categoryIdx := parseUint(r.FormValue("category_idx"))
	limit := parseLimit(r.FormValue("limit"), defaultListLimit)

	var feed []lib.CategoryNews
	var err error
	if rawUser := r.FormValue("user_idx"); rawUser != "" {
		feed, err = ctrl.svc.NewsInCategoryWithInteractions(ctx, categoryIdx, limit, parseUint(rawUser))
	} else {
		feed, err = ctrl.svc.NewsInCategory(ctx, categoryIdx, limit)
	}
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"news": FromMany[lib.CategoryNews, CategoryNewsView](feed),
	})
}

func (ctrl *controller) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	onlyVisible := r.FormValue("all") == ""

	var names []string
	if raw := r.FormValue("categories"); raw != "" {
		names = splitList(raw)
	}

	cats, err := ctrl.svc.ListCategories(ctx, onlyVisible, names)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"categories": FromMany[models.NewsCategory, CategoryView](cats),
	})
}

func (ctrl *controller) registerDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userIdx := parseUint(chi.URLParam(r, "user_idx"))
	tokens := splitList(r.FormValue("tokens"))

	if len(tokens) == 0 {
		ctrl.reject(w, 400, errors.New("tokens are required"))
		return
	}

	if err := ctrl.svc.ApplySubscriptions(ctx, userIdx, tokens); err != nil {
		ctrl.reject(w, 502, err)
		return
	}
	ctrl.resolve(w, http.StatusAccepted, map[string]any{
		"registration_id": uuid.NewString(),
	})
}

func (ctrl *controller) releaseDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userIdx := parseUint(chi.URLParam(r, "user_idx"))
	tokens := splitList(r.URL.Query().Get("tokens"))

	if len(tokens) == 0 {
		ctrl.reject(w, 400, errors.New("tokens are required"))
		return
	}

	if err := ctrl.svc.RemoveSubscriptions(ctx, userIdx, tokens); err != nil {
		ctrl.reject(w, 502, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"released": len(tokens)})
}

func (ctrl *controller) setPushOnOff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userIdx := parseUint(chi.URLParam(r, "user_idx"))
	on := r.FormValue("on") == "1" || r.FormValue("on") == "true"

	updated, err := ctrl.svc.SetPushOnOff(ctx, userIdx, on)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	if !updated {
		ctrl.reject(w, 404, errors.New("user not found"))
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"push_on": on})
}

func (ctrl *controller) setNotificationOption(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userIdx := parseUint(chi.URLParam(r, "user_idx"))
	categoryIdx := parseUint(chi.URLParam(r, "category_idx"))
	option := int(parseUint(r.FormValue("option")))

	updated, err := ctrl.svc.SetCategoryNotificationOption(ctx, userIdx, categoryIdx, option)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	if !updated {
		ctrl.reject(w, 404, errors.New("no subscription for that category"))
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"option": option})
}

func (ctrl *controller) setMarketingConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userIdx := parseUint(chi.URLParam(r, "user_idx"))
	consent := r.FormValue("consent") == "1" || r.FormValue("consent") == "true"

	if err := ctrl.svc.SetMarketingConsent(ctx, userIdx, consent); err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"consent": consent})
}

func (ctrl *controller) insertReadLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userIdx := parseUint(chi.URLParam(r, "user_idx"))
	articleType := r.FormValue("article_type")
	articleIdx := parseUint(r.FormValue("article_idx"))

	idx, err := ctrl.svc.InsertReadLog(ctx, userIdx, articleType, articleIdx)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusCreated, map[string]any{"idx": idx})
}

func (ctrl *controller) saveArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userIdx := parseUint(chi.URLParam(r, "user_idx"))
	articleType := r.FormValue("article_type")
	articleIdx := parseUint(r.FormValue("article_idx"))
	save := r.FormValue("save") != "0" && r.FormValue("save") != "false"

	if err := ctrl.svc.SaveArticle(ctx, userIdx, articleType, articleIdx, save); err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"saved": save})
}

func (ctrl *controller) savedArticles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userIdx := parseUint(chi.URLParam(r, "user_idx"))
	limit := parseLimit(r.FormValue("limit"), defaultListLimit)
	offset := int(parseUint(r.FormValue("offset")))

	saved, err := ctrl.svc.SavedArticles(ctx, userIdx, limit, offset)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"saved": FromMany[lib.SavedArticle, SavedArticleView](saved),
	})
}

func (ctrl *controller) announce(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subject := r.FormValue("subject")
	body := r.FormValue("body")

	if subject == "" || body == "" {
		ctrl.reject(w, 400, errors.New("subject and body are required"))
		return
	}

	sent, err := ctrl.svc.Announce(ctx, subject, body)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"sent": sent})
}

func parseUint(s string) uint {
	u, _ := strconv.ParseUint(s, 10, 64)
	return uint(u)
}

func parseLimit(s string, fallback int) int {
	limit, err := strconv.Atoi(s)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
