package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/duosync/internal/vocab"
)

func TestTerminal_PromptCredentials(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantCancelled bool
		wantCreds     vocab.Credentials
	}{
		{name: "both given", input: "ana\nsecret\n", wantCreds: vocab.Credentials{Username: "ana", Password: "secret"}},
		{name: "no trailing newline", input: "ana\nsecret", wantCreds: vocab.Credentials{Username: "ana", Password: "secret"}},
		{name: "empty username", input: "\nsecret\n", wantCancelled: true},
		{name: "empty password", input: "ana\n\n", wantCancelled: true},
		{name: "end of input", input: "", wantCancelled: true},
		{name: "end of input after username", input: "ana\n", wantCancelled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			term := NewTerminal(strings.NewReader(tt.input), &out)

			got, err := term.PromptCredentials(context.Background())

			require.NoError(t, err)
			assert.Equal(t, tt.wantCancelled, got.Cancelled)
			if !tt.wantCancelled {
				assert.Equal(t, tt.wantCreds, got.Credentials)
			}
			assert.Contains(t, out.String(), "Duolingo username: ")
		})
	}
}

func TestTerminal_Confirm(t *testing.T) {
	for input, want := range map[string]bool{
		"y\n":   true,
		"YES\n": true,
		" yes ": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
	} {
		var out bytes.Buffer
		term := NewTerminal(strings.NewReader(input), &out)

		got, err := term.Confirm(context.Background(), "Add 3 notes from Spanish language?")

		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
		assert.Equal(t, "Add 3 notes from Spanish language? [y/N]: ", out.String())
	}
}

func TestTerminal_ConfirmCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTerminal(strings.NewReader("y\n"), &bytes.Buffer{}).Confirm(ctx, "?")

	require.ErrorIs(t, err, context.Canceled)
}

func TestTerminal_WarningIsPlainText(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(""), &out)

	term.Warning(context.Background(), "<p>You <i>can't</i> use\n   Google.</p>\n\n<p>See <a href=\"https://x\">settings</a>.</p>")

	assert.Equal(t, "Warning: You can't use Google.\n\nSee settings.\n", out.String())
}

func TestTerminal_Progress(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(""), &out)

	term.StartProgress("Importing from Duolingo...", 3)
	for i := 1; i <= 3; i++ {
		term.UpdateProgress(i)
	}
	term.FinishProgress()
	term.UpdateProgress(4)

	assert.Contains(t, out.String(), "Importing from Duolingo...")
	assert.Contains(t, out.String(), "3/3")
}

func TestUnattended(t *testing.T) {
	ctx := context.Background()
	u := NewUnattended(vocab.Credentials{Username: "ana", Password: "pw"}, nil)

	got, err := u.PromptCredentials(ctx)
	require.NoError(t, err)
	assert.False(t, got.Cancelled)
	assert.Equal(t, "ana", got.Credentials.Username)

	ok, err := u.Confirm(ctx, "Add 3 notes?")
	require.NoError(t, err)
	assert.True(t, ok)

	u.UpdateProgress(1)
	u.StartProgress("Importing", 5)
	u.UpdateProgress(5)
	u.FinishProgress()

	missing, err := NewUnattended(vocab.Credentials{Username: "ana"}, nil).PromptCredentials(ctx)
	require.NoError(t, err)
	assert.True(t, missing.Cancelled)
}
