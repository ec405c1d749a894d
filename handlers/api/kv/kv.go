// Package kv exposes the stored collections of a board as raw JSON.
package kv

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/neti77/anotequest-v1-sub000/core"
	"github.com/neti77/anotequest-v1-sub000/handlers/auth"
	"github.com/neti77/anotequest-v1-sub000/middleware"
	"github.com/neti77/anotequest-v1-sub000/stores"
	"github.com/sirupsen/logrus"
)

func HandleListCollections(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(middleware.ClaimsContextKey).(*auth.AppClaims)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		keys, err := store.ListCollections(r.Context(), claims.Subject)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"error":  err,
				"userID": claims.Subject,
			}).Error("Failed to list collections")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to list collections"})
			return
		}

		if keys == nil {
			keys = []string{}
		}

		render.JSON(w, r, keys)
	}
}

// HandleGetCollection returns the stored bytes of one collection as written
// by the persistence writer, which may lag the live board by the debounce
// delay.
func HandleGetCollection(store stores.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(middleware.ClaimsContextKey).(*auth.AppClaims)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "User claims not found"})
			return
		}

		key := chi.URLParam(r, "key")
		if !core.ValidKey(key) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Collection key is required"})
			return
		}

		data, err := store.LoadCollection(r.Context(), claims.Subject, key)
		if err != nil {
			if errors.Is(err, stores.ErrNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, map[string]string{"error": "Collection not found"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"error":  err,
				"userID": claims.Subject,
				"key":    key,
			}).Error("Failed to get collection")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to get collection"})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}
