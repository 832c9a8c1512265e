package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeptools/gw-contracts/db/kvdb"
	"github.com/zeptools/gw-contracts/db/kvdb/impls/memory"
	"github.com/zeptools/gw-contracts/sec"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func newManager(t *testing.T) (*Manager, *testClock) {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	cipher, err := sec.NewXChaCha20Poly1305CipherBase64(base64.RawURLEncoding.EncodeToString(key))
	require.NoError(t, err)
	clock := &testClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	kv := memory.New(&kvdb.Conf{Type: "memory"})
	kv.Now = clock.now
	return &Manager{
		Conf:              Conf{ExpireSliding: 600, ExpireHardcap: 3600},
		Cipher:            cipher,
		AppName:           "test",
		BackendKVDBClient: kv,
		Now:               clock.now,
	}, clock
}

func requestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest("GET", "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestCreateLoadDestroy(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	rec := httptest.NewRecorder()
	s, err := m.Create(ctx, rec, "maria")
	require.NoError(t, err)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.NotContains(t, cookies[0].Value, s.ID, "cookie carries the id encrypted")

	got, err := m.Load(ctx, requestWithCookies(rec))
	require.NoError(t, err)
	assert.Equal(t, "maria", got.Username)
	assert.Equal(t, s.ID, got.ID)

	require.NoError(t, m.Set(ctx, got, map[string]string{"flow": `{"step":"upload"}`}))
	v, ok, err := m.Get(ctx, got, "flow")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"step":"upload"}`, v)
	assert.Error(t, m.Set(ctx, got, map[string]string{"_user": "admin"}))

	require.NoError(t, m.SetBlob(ctx, got, "logo", []byte("png")))
	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out := httptest.NewRecorder()
	require.NoError(t, m.Destroy(ctx, out, got, "logo"))
	assert.Equal(t, -1, out.Result().Cookies()[0].MaxAge)
	_, err = m.Load(ctx, requestWithCookies(rec))
	assert.ErrorIs(t, err, ErrNoSession)
	_, found, err := m.GetBlob(ctx, got, "logo")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadRejectsBadCookies(t *testing.T) {
	m, _ := newManager(t)
	other, _ := newManager(t)
	ctx := context.Background()

	r := httptest.NewRequest("GET", "/", nil)
	_, err := m.Load(ctx, r)
	assert.ErrorIs(t, err, ErrNoSession)

	r.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "garbage"})
	_, err = m.Load(ctx, r)
	assert.ErrorIs(t, err, ErrNoSession)

	// a cookie sealed with another key
	rec := httptest.NewRecorder()
	_, err = other.Create(ctx, rec, "maria")
	require.NoError(t, err)
	_, err = m.Load(ctx, requestWithCookies(rec))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSlidingAndHardcapExpiry(t *testing.T) {
	ctx := context.Background()
	m, clock := newManager(t)
	rec := httptest.NewRecorder()
	_, err := m.Create(ctx, rec, "maria")
	require.NoError(t, err)

	// activity every 9 minutes keeps a 10 minute sliding window alive
	for i := 0; i < 5; i++ {
		clock.t = clock.t.Add(9 * time.Minute)
		_, err = m.Load(ctx, requestWithCookies(rec))
		require.NoError(t, err, "step %d", i)
	}
	// idle past the window
	clock.t = clock.t.Add(11 * time.Minute)
	_, err = m.Load(ctx, requestWithCookies(rec))
	assert.ErrorIs(t, err, ErrNoSession)

	rec = httptest.NewRecorder()
	_, err = m.Create(ctx, rec, "maria")
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		clock.t = clock.t.Add(9 * time.Minute)
		_, err = m.Load(ctx, requestWithCookies(rec))
		require.NoError(t, err)
	}
	clock.t = clock.t.Add(9 * time.Minute) // 63 minutes since login
	_, err = m.Load(ctx, requestWithCookies(rec))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	ctx := WithSession(context.Background(), &Session{Username: "ana"})
	s, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "ana", s.Username)
}
