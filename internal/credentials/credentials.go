package credentials

import (
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"

	"github.com/nerrad567/sysmqtt/internal/infrastructure/config"
)

// KeyringService is the service name sysmqtt registers secrets under in
// the platform keyring.
const KeyringService = "sysmqtt"

// Resolve obtains the broker password from the configured source.
//
// Sources:
//   - keyring (default): the platform secret store, populated by the
//     set-password command
//   - secret_file: a file holding the password, trailing whitespace
//     stripped
//   - plaintext: the literal value from the config file
//
// Parameters:
//   - src: Password source configuration
//   - username: Broker username, the keyring account key
//
// Returns:
//   - string: The resolved password
//   - error: Unreadable file, missing keyring entry, or unknown source
func Resolve(src config.PasswordSourceConfig, username string) (string, error) {
	switch src.Type {
	case "plaintext":
		return src.Password, nil

	case "secret_file":
		data, err := os.ReadFile(src.File)
		if err != nil {
			return "", fmt.Errorf("reading secret file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil

	case "", "keyring":
		password, err := keyring.Get(KeyringService, username)
		if err != nil {
			return "", fmt.Errorf("keyring lookup for %q: %w (store it with 'sysmqtt set-password')", username, err)
		}
		return password, nil

	default:
		return "", fmt.Errorf("unknown password source %q", src.Type)
	}
}

// SetPassword prompts for a password on the terminal and stores it in
// the platform keyring under the given username.
//
// The prompt and echo suppression go to the controlling terminal, so the
// password never appears in shell history or process listings.
func SetPassword(username string) error {
	fmt.Fprintf(os.Stderr, "Password for %s: ", username)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	if err := keyring.Set(KeyringService, username, string(password)); err != nil {
		return fmt.Errorf("storing password in keyring: %w", err)
	}
	return nil
}
