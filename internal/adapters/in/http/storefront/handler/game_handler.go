// internal/adapters/in/http/storefront/handler/game_handler.go
package storefrontHandler

import (
	"errors"
	"log"
	"net/http"

	"gamestore/internal/application/usecase"
	gamedom "gamestore/internal/domain/game"
)

// GameHandler serves:
//   - GET /api/games
//   - GET /api/games/{slug}
type GameHandler struct {
	uc *usecase.CatalogUsecase
}

func NewGameHandler(uc *usecase.CatalogUsecase) http.Handler {
	return &GameHandler{uc: uc}
}

func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.uc == nil {
		writeErr(w, http.StatusInternalServerError, "catalog is not configured")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}

	parts := tail(cleanPath(r.URL.Path), "/api/games")
	switch len(parts) {
	case 0:
		games, err := h.uc.List(r.Context())
		if err != nil {
			log.Printf("[game_handler] list failed err=%v", err)
			writeErr(w, http.StatusInternalServerError, "failed to fetch games")
			return
		}
		writeJSON(w, http.StatusOK, games)
	case 1:
		g, err := h.uc.GetBySlug(r.Context(), parts[0])
		if err != nil {
			if errors.Is(err, gamedom.ErrNotFound) {
				writeErr(w, http.StatusNotFound, "game not found")
				return
			}
			log.Printf("[game_handler] get slug=%q failed err=%v", parts[0], err)
			writeErr(w, http.StatusInternalServerError, "failed to fetch game")
			return
		}
		writeJSON(w, http.StatusOK, g)
	default:
		notFound(w)
	}
}
