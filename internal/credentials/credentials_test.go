package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/nerrad567/sysmqtt/internal/infrastructure/config"
)

func TestResolve_Plaintext(t *testing.T) {
	got, err := Resolve(config.PasswordSourceConfig{
		Type:     "plaintext",
		Password: "hunter2",
	}, "user")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "hunter2" {
		t.Errorf("Resolve() = %q, want %q", got, "hunter2")
	}
}

func TestResolve_SecretFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte("s3cret\n"), 0600); err != nil {
		t.Fatal(err)
	}

	got, err := Resolve(config.PasswordSourceConfig{
		Type: "secret_file",
		File: path,
	}, "user")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "s3cret" {
		t.Errorf("Resolve() = %q, want trailing newline stripped %q", got, "s3cret")
	}
}

func TestResolve_SecretFileMissing(t *testing.T) {
	_, err := Resolve(config.PasswordSourceConfig{
		Type: "secret_file",
		File: "/nonexistent/secret",
	}, "user")
	if err == nil {
		t.Error("Resolve() = nil error, want error for missing file")
	}
}

func TestResolve_Keyring(t *testing.T) {
	keyring.MockInit()

	if err := keyring.Set(KeyringService, "telemetry", "from-keyring"); err != nil {
		t.Fatalf("seeding mock keyring: %v", err)
	}

	got, err := Resolve(config.PasswordSourceConfig{Type: "keyring"}, "telemetry")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "from-keyring" {
		t.Errorf("Resolve() = %q, want %q", got, "from-keyring")
	}

	// The empty type defaults to the keyring.
	got, err = Resolve(config.PasswordSourceConfig{}, "telemetry")
	if err != nil {
		t.Fatalf("Resolve() with default source error = %v", err)
	}
	if got != "from-keyring" {
		t.Errorf("Resolve() with default source = %q, want %q", got, "from-keyring")
	}
}

func TestResolve_KeyringMissingEntry(t *testing.T) {
	keyring.MockInit()

	_, err := Resolve(config.PasswordSourceConfig{Type: "keyring"}, "nobody")
	if err == nil {
		t.Error("Resolve() = nil error, want error for missing keyring entry")
	}
}

func TestResolve_UnknownSource(t *testing.T) {
	_, err := Resolve(config.PasswordSourceConfig{Type: "vault"}, "user")
	if err == nil {
		t.Error("Resolve() = nil error, want error for unknown source")
	}
}
