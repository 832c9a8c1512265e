package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/zeptools/gw-contracts/db/kvdb"
	"github.com/zeptools/gw-contracts/sec"
)

// Reserved hash fields of a session.
const (
	fieldUser    = "_user"
	fieldCreated = "_created"
)

var ErrNoSession = errors.New("session: no valid session")

// Session is the server-side state behind one login cookie.
type Session struct {
	ID       string
	Username string
	Created  time.Time
}

type Manager struct {
	Conf              Conf
	Cipher            *sec.XChaCha20Poly1305Cipher
	AppName           string // for session key, etc.
	BackendKVDBClient kvdb.Client
	Now               func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Manager) WebSessionIDToKVDBKey(sessionID string) string {
	return m.AppName + "_wsession:" + sessionID
}

// Create stores a new session for username and sets its cookie.
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, username string) (*Session, error) {
	id, err := GenerateWebSessionID()
	if err != nil {
		return nil, err
	}
	now := m.now()
	key := m.WebSessionIDToKVDBKey(id)
	err = m.BackendKVDBClient.SetFields(ctx, key, map[string]string{
		fieldUser:    username,
		fieldCreated: strconv.FormatInt(now.Unix(), 10),
	})
	if err != nil {
		return nil, fmt.Errorf("session: store: %w", err)
	}
	if _, err = m.BackendKVDBClient.Expire(ctx, key, m.Conf.sliding()); err != nil {
		return nil, fmt.Errorf("session: expire: %w", err)
	}
	if err = m.SetWebSessionCookie(w, id); err != nil {
		return nil, err
	}
	log.Printf("[INFO][SESSION] session created for %q", username)
	return &Session{ID: id, Username: username, Created: now}, nil
}

// Load resolves the request cookie to a live session and slides its expiry.
// Any invalid, expired or foreign cookie yields ErrNoSession.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.Conf.cookieName())
	if err != nil {
		return nil, ErrNoSession
	}
	raw, err := m.Cipher.DecodeDecrypt(c.Value, []byte(m.Conf.cookieName()))
	if err != nil {
		return nil, ErrNoSession
	}
	id := string(raw)
	if !validID(id) {
		return nil, ErrNoSession
	}
	key := m.WebSessionIDToKVDBKey(id)
	fields, err := m.BackendKVDBClient.GetAllFields(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	user := fields[fieldUser]
	if user == "" {
		return nil, ErrNoSession
	}
	createdUnix, _ := strconv.ParseInt(fields[fieldCreated], 10, 64)
	created := time.Unix(createdUnix, 0)
	if m.now().Sub(created) > m.Conf.hardcap() {
		_, _ = m.BackendKVDBClient.Delete(ctx, key)
		return nil, ErrNoSession
	}
	if _, err = m.BackendKVDBClient.Expire(ctx, key, m.Conf.sliding()); err != nil {
		return nil, fmt.Errorf("session: slide expiry: %w", err)
	}
	return &Session{ID: id, Username: user, Created: created}, nil
}

// Get reads one data field of the session.
func (m *Manager) Get(ctx context.Context, s *Session, field string) (string, bool, error) {
	return m.BackendKVDBClient.GetField(ctx, m.WebSessionIDToKVDBKey(s.ID), field)
}

// Set writes data fields of the session. Names starting with '_' are reserved.
func (m *Manager) Set(ctx context.Context, s *Session, fields map[string]string) error {
	for k := range fields {
		if k == "" || k[0] == '_' {
			return fmt.Errorf("session: reserved field name %q", k)
		}
	}
	return m.BackendKVDBClient.SetFields(ctx, m.WebSessionIDToKVDBKey(s.ID), fields)
}

// Blob keys hold per-session binary data such as an uploaded logo.
func (m *Manager) blobKey(s *Session, name string) string {
	return m.WebSessionIDToKVDBKey(s.ID) + ":" + name
}

func (m *Manager) SetBlob(ctx context.Context, s *Session, name string, data []byte) error {
	return m.BackendKVDBClient.Set(ctx, m.blobKey(s, name), data, m.Conf.hardcap())
}

func (m *Manager) GetBlob(ctx context.Context, s *Session, name string) ([]byte, bool, error) {
	return m.BackendKVDBClient.Get(ctx, m.blobKey(s, name))
}

func (m *Manager) DeleteBlob(ctx context.Context, s *Session, name string) error {
	_, err := m.BackendKVDBClient.Delete(ctx, m.blobKey(s, name))
	return err
}

// Destroy removes the session, its blobs and the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session, blobs ...string) error {
	keys := []string{m.WebSessionIDToKVDBKey(s.ID)}
	for _, b := range blobs {
		keys = append(keys, m.blobKey(s, b))
	}
	m.RemoveWebSessionCookie(w)
	_, err := m.BackendKVDBClient.Delete(ctx, keys...)
	return err
}

// Count reports the live sessions.
func (m *Manager) Count(ctx context.Context) (int, error) {
	// blob keys contain a second ':' and do not match the session pattern
	return kvdb.CountKeys(ctx, m.BackendKVDBClient, m.AppName+"_wsession:????????????????????????????????")
}

func (m *Manager) SetWebSessionCookie(w http.ResponseWriter, webSessionId string) error {
	encWebSessionId, err := m.Cipher.EncryptEncode([]byte(webSessionId), []byte(m.Conf.cookieName()))
	if err != nil {
		return fmt.Errorf("failed to encrypt web login session id. %v", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.Conf.cookieName(),
		Value:    encWebSessionId,
		Path:     "/",  // Subpaths will get this cookie.
		HttpOnly: true, // JS cannot read it
		Secure:   !m.Conf.InsecureCookie,
		MaxAge:   int(m.Conf.hardcap() / time.Second),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) RemoveWebSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.Conf.cookieName(),
		Path:     "/",
		MaxAge:   -1, // Delete
		HttpOnly: true,
		Secure:   !m.Conf.InsecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
