// Package credentials resolves the MQTT broker password.
//
// The config file never holds the password directly unless the operator
// explicitly opts into the plaintext source. The default source is the
// platform keyring (Secret Service on Linux), populated once with the
// set-password command; a secret file suits headless hosts without a
// keyring daemon.
package credentials
