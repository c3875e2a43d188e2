package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/storefront/internal/config"
	"github.com/aretw0/storefront/internal/logging"
	"github.com/aretw0/storefront/pkg/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.App{
			LogLevel:     "info",
			LogFormat:    "text",
			Store:        config.BackendFile,
			StorePath:    filepath.Join(t.TempDir(), "sessions"),
			EventTimeout: 5 * time.Second,
			SaveTimeout:  time.Second,
		},
		Moltin: config.Moltin{BaseURL: "http://127.0.0.1:1"},
		Redis:  config.Redis{Prefix: "test:session:", LockTTL: time.Second},
	}
}

func build(t *testing.T, cfg *config.Config, opts BuildOptions) *App {
	t.Helper()
	app, err := Build(context.Background(), cfg, logging.NewNop(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestBuild_DemoShop(t *testing.T) {
	app := build(t, testConfig(t), BuildOptions{Demo: true})
	ctx := context.Background()

	reply, err := app.Engine.HandleEvent(ctx, "42", domain.Command(domain.CommandStart))
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Buttons)

	s, err := app.Engine.Session(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, domain.StateMenuShown, s.State)

	families, err := app.Registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "storefront_transitions_total")
}

func TestBuild_RequiresCommerce(t *testing.T) {
	_, err := Build(context.Background(), testConfig(t), logging.NewNop(), BuildOptions{})
	require.ErrorIs(t, err, ErrCommerceNotConfigured)
}

func TestBuild_Moltin(t *testing.T) {
	cfg := testConfig(t)
	cfg.Moltin.ClientID = "id"
	cfg.Moltin.ClientSecret = "secret"

	app := build(t, cfg, BuildOptions{Store: config.BackendMemory})
	assert.Equal(t, config.BackendMemory, app.Config.App.Store)
}

func TestBuild_RedisWithLock(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.App.Store = config.BackendRedis
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.Lock = true

	app := build(t, cfg, BuildOptions{Demo: true})

	_, err := app.Engine.HandleEvent(context.Background(), "7", domain.Command(domain.CommandStart))
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:session:7"))
}

func TestBuild_UnreachableRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.Store = config.BackendRedis
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := Build(context.Background(), cfg, logging.NewNop(), BuildOptions{Demo: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestOpenStore_Encrypted(t *testing.T) {
	cfg := testConfig(t)
	cfg.Encryption.Key = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32))
	ctx := context.Background()

	store, closeStore, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	defer closeStore()

	require.NoError(t, store.Save(ctx, "u1", &domain.Session{UserID: "u1", State: domain.StateCartShown}))
	got, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateCartShown, got.State)

	// The same directory without the key only sees the sealed envelope.
	cfg.Encryption.Key = ""
	plain, closePlain, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	defer closePlain()
	raw, err := plain.Load(ctx, "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)
	assert.Empty(t, raw.State)
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.App.Store = "mongo"
	_, _, err := OpenStore(context.Background(), cfg)
	require.Error(t, err)
}

func TestSessionCommands(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	store, closeStore, err := OpenStore(ctx, cfg)
	require.NoError(t, err)
	defer closeStore()

	var out bytes.Buffer
	require.NoError(t, ListSessions(ctx, store, &out))
	assert.Contains(t, out.String(), "No active sessions")

	require.NoError(t, store.Save(ctx, "b", &domain.Session{UserID: "b", State: domain.StateEnd}))
	require.NoError(t, store.Save(ctx, "a", &domain.Session{UserID: "a", State: domain.StateMenuShown}))

	out.Reset()
	require.NoError(t, ListSessions(ctx, store, &out))
	assert.Equal(t, "Active Sessions:\n- a\n- b\n", out.String())

	out.Reset()
	require.NoError(t, InspectSession(ctx, store, "a", &out))
	assert.Contains(t, out.String(), `"state": "menu_shown"`)

	out.Reset()
	require.Error(t, InspectSession(ctx, store, "zzz", &out))

	out.Reset()
	require.NoError(t, RemoveSessions(ctx, store, []string{"a", "b"}, &out))
	assert.Equal(t, 2, strings.Count(out.String(), "Removed session"))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRunConsole(t *testing.T) {
	app := build(t, testConfig(t), BuildOptions{Demo: true})

	var out bytes.Buffer
	err := RunConsole(context.Background(), app, ConsoleOptions{
		UserID: "tty",
		Plain:  true,
		In:     strings.NewReader("1\n/quit\n"),
		Out:    &out,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Here is our fish:")
	assert.Contains(t, out.String(), "Goodbye from session 'tty'.")

	s, err := app.Engine.Session(context.Background(), "tty")
	require.NoError(t, err)
	assert.Equal(t, domain.StateProductShown, s.State)
}

func TestRunConsole_Fresh(t *testing.T) {
	app := build(t, testConfig(t), BuildOptions{Demo: true})
	ctx := context.Background()

	_, err := app.Engine.HandleEvent(ctx, "tty", domain.Command(domain.CommandStart))
	require.NoError(t, err)

	var out bytes.Buffer
	err = RunConsole(ctx, app, ConsoleOptions{UserID: "tty", JSON: true, Fresh: true, In: strings.NewReader(""), Out: &out})
	require.NoError(t, err)

	_, err = app.Engine.Session(ctx, "tty")
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}
