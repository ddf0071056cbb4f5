package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"k8s.io/apimachinery/pkg/api/resource"
)

func mapEnv(values map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		value, ok := values[name]
		return value, ok
	}
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func newTestResolver(t *testing.T, env map[string]string, configPath string) *Resolver {
	t.Helper()
	if configPath == "" {
		configPath = filepath.Join(t.TempDir(), "missing.json")
	}
	return NewResolver(WithLookupEnv(mapEnv(env)), WithConfigPath(configPath))
}

func TestResolvePrecedence(t *testing.T) {
	path := writeConfig(t, "config.json", `{"TARGET_RATE": "3000", "WORKERS_PER_INSTANCE": "5"}`)

	testCases := []struct {
		name       string
		env        map[string]string
		setting    string
		want       int
		wantOrigin Origin
	}{
		{name: "env wins over file", env: map[string]string{"TARGET_RATE": "4000"}, setting: "TARGET_RATE", want: 4000, wantOrigin: OriginEnv},
		{name: "file wins over default", setting: "WORKERS_PER_INSTANCE", want: 5, wantOrigin: OriginFile},
		{name: "default when absent", setting: "TOPICS_PER_KAFKA", want: 7, wantOrigin: OriginDefault},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestResolver(t, tc.env, path)

			got, err := Resolve(r, tc.setting, Int, 7)
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}

			entry, ok := r.Record().Get(tc.setting)
			if !ok {
				t.Fatalf("expected %s to be recorded", tc.setting)
			}
			if entry.Origin != tc.wantOrigin {
				t.Fatalf("expected origin %s, got %s", tc.wantOrigin, entry.Origin)
			}
		})
	}
}

func TestResolveBoolFromEnv(t *testing.T) {
	r := newTestResolver(t, map[string]string{"X": "false"}, "")

	got, err := Resolve(r, "X", Bool, true)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got {
		t.Fatalf("expected false")
	}
}

func TestResolveDefaultBypassesConverter(t *testing.T) {
	r := newTestResolver(t, nil, "")
	failing := Converter[int]{
		Parse: func(string) (int, error) {
			t.Fatalf("converter must not run for defaults")
			return 0, nil
		},
		Format: Int.Format,
	}

	got, err := Resolve(r, "TARGET_RATE", failing, 2000)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != 2000 {
		t.Fatalf("expected 2000, got %d", got)
	}
	if entry, _ := r.Record().Get("TARGET_RATE"); entry.Value != "2000" {
		t.Fatalf("expected recorded value 2000, got %q", entry.Value)
	}
}

func TestResolveConversionFailure(t *testing.T) {
	path := writeConfig(t, "config.json", `{"TARGET_RATE": "fast"}`)

	t.Run("from file", func(t *testing.T) {
		r := newTestResolver(t, nil, path)
		if _, err := Resolve(r, "TARGET_RATE", Int, 2000); !errors.Is(err, ErrConversion) {
			t.Fatalf("expected ErrConversion, got %v", err)
		}
		if _, ok := r.Record().Get("TARGET_RATE"); ok {
			t.Fatalf("failed conversion must not be recorded")
		}
	})

	t.Run("empty env value is present", func(t *testing.T) {
		r := newTestResolver(t, map[string]string{"TARGET_RATE": ""}, "")
		if _, err := Resolve(r, "TARGET_RATE", Int, 2000); !errors.Is(err, ErrConversion) {
			t.Fatalf("expected ErrConversion, got %v", err)
		}
	})
}

func TestResolveStringRecordsOverwrite(t *testing.T) {
	env := map[string]string{"OMB_KUBECONFIG": "/kube/a"}
	r := newTestResolver(t, env, "")

	if got := r.ResolveString("OMB_KUBECONFIG", "/default"); got != "/kube/a" {
		t.Fatalf("expected env value, got %q", got)
	}
	delete(env, "OMB_KUBECONFIG")
	if got := r.ResolveString("OMB_KUBECONFIG", "/default"); got != "/default" {
		t.Fatalf("expected default, got %q", got)
	}

	entries := r.Record().Entries()
	if len(entries) != 1 {
		t.Fatalf("expected a single entry, got %+v", entries)
	}
	if entries[0].Value != "/default" || entries[0].Origin != OriginDefault {
		t.Fatalf("expected overwritten entry, got %+v", entries[0])
	}
}

func TestSourceLoadedOnce(t *testing.T) {
	path := writeConfig(t, "config.json", `{"TARGET_RATE": "3000"}`)
	r := newTestResolver(t, nil, path)

	if got, _ := Resolve(r, "TARGET_RATE", Int, 0); got != 3000 {
		t.Fatalf("expected 3000, got %d", got)
	}
	if err := os.WriteFile(path, []byte(`{"TARGET_RATE": "9"}`), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if got, _ := Resolve(r, "TARGET_RATE", Int, 0); got != 3000 {
		t.Fatalf("expected cached value 3000, got %d", got)
	}
}

func TestSourceFailureIsLogged(t *testing.T) {
	testCases := map[string]string{
		"missing": "",
		"corrupt": "{not json",
	}

	for name, content := range testCases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if content != "" {
				path = writeConfig(t, "config.json", content)
			}

			core, logs := observer.New(zapcore.InfoLevel)
			r := NewResolver(
				WithLookupEnv(mapEnv(nil)),
				WithConfigPath(path),
				WithLogger(zap.New(core)),
			)

			if r.Source().Len() != 0 {
				t.Fatalf("expected empty source")
			}
			got, err := Resolve(r, "WORKERS_PER_INSTANCE", Int, 2)
			if err != nil || got != 2 {
				t.Fatalf("expected default 2, got %d (err %v)", got, err)
			}
			if logs.FilterMessage("configuration file not provided or unreadable").Len() != 1 {
				t.Fatalf("expected one diagnostic note, got %v", logs.All())
			}
		})
	}
}

func TestConfigPathResolution(t *testing.T) {
	getwd := func() (string, error) { return "/work", nil }

	t.Run("working directory default", func(t *testing.T) {
		r := NewResolver(WithLookupEnv(mapEnv(nil)), WithGetwd(getwd))
		if r.ConfigPath() != filepath.Join("/work", "config.json") {
			t.Fatalf("unexpected path %s", r.ConfigPath())
		}
	})

	t.Run("environment", func(t *testing.T) {
		r := NewResolver(WithLookupEnv(mapEnv(map[string]string{ConfigPathEnv: "/etc/perf.json"})), WithGetwd(getwd))
		if r.ConfigPath() != "/etc/perf.json" {
			t.Fatalf("unexpected path %s", r.ConfigPath())
		}
	})

	t.Run("option overrides environment", func(t *testing.T) {
		r := NewResolver(
			WithLookupEnv(mapEnv(map[string]string{ConfigPathEnv: "/etc/perf.json"})),
			WithConfigPath("/opt/perf.json"),
		)
		if r.ConfigPath() != "/opt/perf.json" {
			t.Fatalf("unexpected path %s", r.ConfigPath())
		}
	})
}

func TestResolveDuration(t *testing.T) {
	r := newTestResolver(t, map[string]string{"OMB_TEST_DURATION": "PT2M30S"}, "")

	got, err := Resolve(r, "OMB_TEST_DURATION", Duration, time.Minute)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got != 150*time.Second {
		t.Fatalf("expected 2m30s, got %s", got)
	}
}

func TestResolveQuantityRecordsRawText(t *testing.T) {
	r := newTestResolver(t, map[string]string{PayloadFileSizeEnv: "1.5Ki"}, "")

	got, err := Resolve(r, PayloadFileSizeEnv, Quantity, resource.MustParse("1Ki"))
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if got.Value() != 1536 {
		t.Fatalf("expected 1536 bytes, got %d", got.Value())
	}
	if entry, _ := r.Record().Get(PayloadFileSizeEnv); entry.Value != "1.5Ki" {
		t.Fatalf("expected recorded value 1.5Ki, got %q", entry.Value)
	}

	defaults := newTestResolver(t, nil, "")
	if _, err := Resolve(defaults, PayloadFileSizeEnv, Quantity, resource.MustParse("1Ki")); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if entry, _ := defaults.Record().Get(PayloadFileSizeEnv); entry.Value != "1Ki" {
		t.Fatalf("expected recorded default 1Ki, got %q", entry.Value)
	}
}

func TestResolveDurationRecordsDayTimeForm(t *testing.T) {
	r := newTestResolver(t, map[string]string{OMBTestDurationEnv: "p1d"}, "")

	if _, err := Resolve(r, OMBTestDurationEnv, Duration, time.Minute); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if entry, _ := r.Record().Get(OMBTestDurationEnv); entry.Value != "PT24H" {
		t.Fatalf("expected recorded value PT24H, got %q", entry.Value)
	}

	calendar := newTestResolver(t, map[string]string{OMBTestDurationEnv: "P1M"}, "")
	if _, err := Resolve(calendar, OMBTestDurationEnv, Duration, time.Minute); !errors.Is(err, ErrConversion) {
		t.Fatalf("expected ErrConversion for calendar duration, got %v", err)
	}
}
