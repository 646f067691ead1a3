package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	authmw "github.com/lessonlab/practice-engine/internal/auth/middleware"
	"github.com/lessonlab/practice-engine/internal/config"
)

// GuestLoginHandler issues a throwaway learner identity pinned to a
// browser cookie, so an anonymous learner's progress survives reloads.
func GuestLoginHandler(a *authmw.AuthService, db *sql.DB, cfg config.Config) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !cfg.EnableGuestAuth {
			http.Error(w, "guest auth disabled", http.StatusForbidden)
			return
		}

		// reuse an existing guest from the cookie when it still exists
		if c, err := r.Cookie("pe_guest_id"); err == nil && strings.HasPrefix(c.Value, "guest|") {
			var username, role string
			err := db.QueryRowContext(r.Context(),
				`SELECT username, role FROM users WHERE id=$1`, c.Value).Scan(&username, &role)
			if err == nil && role == "learner" {
				tok, _ := a.IssueJWT(c.Value, role)
				setGuestCookie(w, c.Value)
				_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Username: username})
				return
			}
		}

		sfx := uuid.NewString()
		userID := "guest|" + sfx
		username := "guest-" + sfx[:8]

		_, _ = db.ExecContext(r.Context(),
			`INSERT INTO users (id, username, role, created_at)
			 VALUES ($1,$2,'learner',$3)`, userID, username, time.Now().Unix())

		tok, err := a.IssueJWT(userID, "learner")
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		setGuestCookie(w, userID)
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Username: username})
	}
}

func setGuestCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "pe_guest_id",
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}
