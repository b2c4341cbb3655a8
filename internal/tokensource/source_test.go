package tokensource

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calebmarchent/vagrant/internal/tokenstore"
)

// recordingHandler captures log records so tests can assert on advisories.
type recordingHandler struct {
	records *[]slog.Record
}

func newRecordingLogger() (*slog.Logger, *[]slog.Record) {
	records := &[]slog.Record{}
	return slog.New(recordingHandler{records: records}), records
}

func (h recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h recordingHandler) Handle(_ context.Context, r slog.Record) error {
	*h.records = append(*h.records, r)
	return nil
}

func (h recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h recordingHandler) WithGroup(string) slog.Handler      { return h }

func lookupFrom(env map[string]string) LookupEnvFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func newTestSource(t *testing.T, env map[string]string, persisted string) (*Source, tokenstore.SecretStore, *[]slog.Record) {
	t.Helper()

	store, err := tokenstore.NewFileStore(filepath.Join(t.TempDir(), "vagrant_login_token"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if persisted != "" {
		if err := store.Write(context.Background(), persisted); err != nil {
			t.Fatalf("seeding store failed: %v", err)
		}
	}

	logger, records := newRecordingLogger()
	source, err := New(store, WithLookupEnv(lookupFrom(env)), WithLogger(logger))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return source, store, records
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestResolvePrecedence(t *testing.T) {
	tests := []struct {
		name      string
		primary   string
		persisted string
		legacy    string
		want      string
	}{
		{"all absent", "", "", "", ""},
		{"legacy only", "", "", "L", "L"},
		{"persisted only", "", "P", "", "P"},
		{"persisted beats legacy", "", "P", "L", "P"},
		{"primary only", "E", "", "", "E"},
		{"primary beats legacy", "E", "", "L", "E"},
		{"primary beats persisted", "E", "P", "", "E"},
		{"primary beats all", "E", "P", "L", "E"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := map[string]string{}
			if tt.primary != "" {
				env[PrimaryEnvVar] = tt.primary
			}
			if tt.legacy != "" {
				env[LegacyEnvVar] = tt.legacy
			}

			source, _, _ := newTestSource(t, env, tt.persisted)

			got, err := source.Resolve(context.Background())
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveTrimsValues(t *testing.T) {
	env := map[string]string{PrimaryEnvVar: "  padded \n"}
	source, _, _ := newTestSource(t, env, "")

	got, err := source.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "padded" {
		t.Errorf("Resolve = %q, want %q", got, "padded")
	}
}

func TestResolveBlankPrimaryFallsThrough(t *testing.T) {
	// A primary variable that is set but blank is treated as absent.
	env := map[string]string{PrimaryEnvVar: "   "}
	source, _, _ := newTestSource(t, env, "P")

	got, err := source.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "P" {
		t.Errorf("Resolve = %q, want %q", got, "P")
	}
}

func TestResolveConflictAdvisory(t *testing.T) {
	env := map[string]string{PrimaryEnvVar: "E"}
	source, store, records := newTestSource(t, env, "P")

	got, err := source.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "E" {
		t.Errorf("Resolve = %q, want %q", got, "E")
	}

	if len(*records) != 1 {
		t.Fatalf("advisory count = %d, want 1", len(*records))
	}
	advisory := (*records)[0]
	if advisory.Level != slog.LevelWarn {
		t.Errorf("advisory level = %v, want %v", advisory.Level, slog.LevelWarn)
	}
	if !strings.Contains(advisory.Message, PrimaryEnvVar) {
		t.Errorf("advisory %q does not name %s", advisory.Message, PrimaryEnvVar)
	}

	// The persisted token must be untouched by resolution.
	persisted, err := store.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if persisted != "P" {
		t.Errorf("persisted token = %q, want %q", persisted, "P")
	}
}

func TestResolveNoAdvisoryWithoutConflict(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		persisted string
	}{
		{"primary only", map[string]string{PrimaryEnvVar: "E"}, ""},
		{"persisted only", nil, "P"},
		{"all absent", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, _, records := newTestSource(t, tt.env, tt.persisted)

			if _, err := source.Resolve(context.Background()); err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if len(*records) != 0 {
				t.Errorf("advisory count = %d, want 0", len(*records))
			}
		})
	}
}

func TestResolveLegacyAdvisory(t *testing.T) {
	env := map[string]string{LegacyEnvVar: "L"}
	source, _, records := newTestSource(t, env, "")

	got, err := source.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "L" {
		t.Errorf("Resolve = %q, want %q", got, "L")
	}

	if len(*records) != 1 {
		t.Fatalf("advisory count = %d, want 1", len(*records))
	}
	if msg := (*records)[0].Message; !strings.Contains(msg, "deprecated") {
		t.Errorf("advisory %q does not mention deprecation", msg)
	}
}

func TestStoreResolveClearRoundTrip(t *testing.T) {
	ctx := context.Background()
	source, _, _ := newTestSource(t, nil, "")

	if err := source.Store(ctx, "X"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, err := source.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "X" {
		t.Errorf("Resolve after Store = %q, want %q", got, "X")
	}

	if err := source.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	got, err = source.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "" {
		t.Errorf("Resolve after Clear = %q, want absent", got)
	}

	// Clearing an absent token is idempotent.
	if err := source.Clear(ctx); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
}

func TestStoreDoesNotAffectEnvPrecedence(t *testing.T) {
	ctx := context.Background()
	env := map[string]string{PrimaryEnvVar: "E"}
	source, _, _ := newTestSource(t, env, "")

	if err := source.Store(ctx, "X"); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, err := source.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != "E" {
		t.Errorf("Resolve = %q, want env value %q", got, "E")
	}
}
