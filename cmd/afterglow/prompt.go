package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"afterglow/internal/keychain"
)

// PassphraseEnv, when set, supplies the credentials passphrase without prompting.
const PassphraseEnv = "AFTERGLOW_PASSPHRASE"

var stdin = bufio.NewReader(os.Stdin)

// readLine prompts on stderr and reads one line from stdin.
func readLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readSecret prompts without echo when stdin is a terminal.
func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine(prompt)
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// promptPassphrase returns a keychain.PassphraseFunc that reads the
// passphrase from the environment or the terminal, asking at most once.
func promptPassphrase(prompt string) keychain.PassphraseFunc {
	var cached string
	return func() (string, error) {
		if p := os.Getenv(PassphraseEnv); p != "" {
			return p, nil
		}
		if cached != "" {
			return cached, nil
		}
		p, err := readSecret(prompt)
		if err != nil {
			return "", err
		}
		cached = p
		return p, nil
	}
}

// confirmPassphrase asks twice and fails when the answers differ.
func confirmPassphrase() keychain.PassphraseFunc {
	return func() (string, error) {
		if p := os.Getenv(PassphraseEnv); p != "" {
			return p, nil
		}
		p, err := readSecret("New passphrase: ")
		if err != nil {
			return "", err
		}
		again, err := readSecret("Repeat passphrase: ")
		if err != nil {
			return "", err
		}
		if p != again {
			return "", fmt.Errorf("passphrases do not match")
		}
		return p, nil
	}
}

// confirm asks a yes/no question; anything but y or yes is a no.
func confirm(prompt string) (bool, error) {
	answer, err := readLine(prompt + " [y/N] ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
