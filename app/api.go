package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fiffu/stockwatch/config"
	"github.com/fiffu/stockwatch/lib"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

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
			r.Use(middleware.BasicAuth("stockwatch", creds))
		} else {
			log.Sugar().Info("Auth is disabled since no credentials are defined")
		}

		r.Route("/users/{user_id}", func(r chi.Router) {
			r.Post("/products", ctrl.register)
			r.Get("/products", ctrl.list)
			r.Delete("/products/{index}", ctrl.remove)
			r.Get("/products/{product_id}/history", ctrl.history)
			r.Post("/check", ctrl.checkNow)
		})
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
		ctrl.log.Sugar().Error("Request failed", "error", err)
		return
	} else {
		w.WriteHeader(status)
		if b != nil {
			w.Write(b)
		}
	}
}

func (ctrl *controller) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")
	locator := r.FormValue("locator")
	storeID := r.FormValue("store_id")

	if locator == "" {
		ctrl.reject(w, 400, errors.New("Locator is required"))
		return
	}
	if storeID == "" {
		ctrl.reject(w, 400, errors.New("Store id is required"))
		return
	}

	result, err := ctrl.svc.Register(ctx, userID, locator, storeID)
	switch {
	case errors.Is(err, lib.ErrInvalidLocator), errors.Is(err, lib.ErrInvalidStore):
		ctrl.reject(w, 400, err)
		return
	case err != nil:
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusAccepted, RegisterView{}.From(result))
}

func (ctrl *controller) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")

	tracked, err := ctrl.svc.List(ctx, userID)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, trackedProductViews(tracked))
}

func (ctrl *controller) remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")
	index := chi.URLParam(r, "index")

	// The API is 1-based like the product listing.
	removed, err := ctrl.svc.Remove(ctx, userID, parseInt(index)-1)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	if !removed {
		ctrl.reject(w, 404, fmt.Errorf("no product #%s", index))
		return
	}
	ctrl.resolve(w, http.StatusOK, map[string]any{"removed": true})
}

func (ctrl *controller) checkNow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")

	tracked, err := ctrl.svc.CheckNow(ctx, userID)
	if err != nil {
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, trackedProductViews(tracked))
}

func (ctrl *controller) history(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "user_id")
	productID := chi.URLParam(r, "product_id")

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		limit = parseInt(v)
	}

	events, err := ctrl.svc.History(ctx, userID, uint(parseInt(productID)), limit)
	switch {
	case errors.Is(err, lib.ErrNotTracked):
		ctrl.reject(w, 404, err)
		return
	case err != nil:
		ctrl.reject(w, 500, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, stockEventViews(events))
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
