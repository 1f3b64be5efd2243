package auth

import "net/http"

// SignIn records userID in the session cookie the way a login flow would.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, _ := sm.store.Get(r, sm.name)
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}
