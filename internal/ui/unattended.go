package ui

import (
	"context"
	"log/slog"

	"github.com/example/duosync/internal/vocab"
)

// Unattended answers every prompt itself: fixed credentials, yes to every question.
// Messages go to the log.
type Unattended struct {
	creds vocab.Credentials
	log   *slog.Logger
	label string
	max   int
	step  int
}

// NewUnattended creates an interactor for scheduled runs
func NewUnattended(creds vocab.Credentials, log *slog.Logger) *Unattended {
	if log == nil {
		log = slog.Default()
	}
	return &Unattended{creds: creds, log: log}
}

// PromptCredentials returns the configured credentials; missing ones cancel the run
func (u *Unattended) PromptCredentials(ctx context.Context) (vocab.CredentialsResult, error) {
	if u.creds.Username == "" || u.creds.Password == "" {
		u.log.Warn("no credentials configured, skipping sync")
		return vocab.Cancelled(), nil
	}
	return vocab.Confirmed(u.creds), nil
}

func (u *Unattended) Confirm(ctx context.Context, message string) (bool, error) {
	u.log.Info("auto-confirmed", "question", toPlain(message))
	return true, nil
}

func (u *Unattended) Info(ctx context.Context, message string) {
	u.log.Info(toPlain(message))
}

func (u *Unattended) Warning(ctx context.Context, message string) {
	u.log.Warn(toPlain(message))
}

func (u *Unattended) StartProgress(label string, max int) {
	u.label, u.max = label, max
	u.step = max / 10
	if u.step < 1 {
		u.step = 1
	}
	u.log.Info(label, "total", max)
}

func (u *Unattended) UpdateProgress(value int) {
	if u.step == 0 {
		return
	}
	if value%u.step == 0 || value == u.max {
		u.log.Debug(u.label, "done", value, "total", u.max)
	}
}

func (u *Unattended) FinishProgress() {}
