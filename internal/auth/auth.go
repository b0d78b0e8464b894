// Package auth implements the honeypot's login prompt: username/password
// collection through the line editor, a pluggable verification callback,
// and attempt logging independent of outcome.
package auth

import "github.com/stamparm/hontel/internal/lineeditor"

// Reader is the subset of *lineeditor.Editor the authenticator needs.
type Reader interface {
	ReadLine(prompt string, echo bool, useHistory bool) (string, lineeditor.Result, error)
}

// AttemptLogger records every credential pair offered, successful or not.
type AttemptLogger interface {
	LogAuthAttempt(username, password string)
}

// Callback decides whether a credential pair is accepted.
type Callback func(username, password string) bool

// Authenticator drives the username/password prompt sequence.
type Authenticator struct {
	NeedUser    bool
	NeedPass    bool
	PromptUser  string
	PromptPass  string
	MaxAttempts int
	Verify      Callback
	Logger      AttemptLogger
}

// New builds an Authenticator with the honeypot's conventional prompts.
func New(needUser, needPass bool, maxAttempts int, verify Callback, logger AttemptLogger) *Authenticator {
	return &Authenticator{
		NeedUser:    needUser,
		NeedPass:    needPass,
		PromptUser:  "Username: ",
		PromptPass:  "Password: ",
		MaxAttempts: maxAttempts,
		Verify:      verify,
		Logger:      logger,
	}
}

// Authenticate runs the prompt/verify loop against r, up to MaxAttempts
// times. It returns the accepted username and ok=true on success; ok=false
// (with no error) means every attempt was rejected or the peer aborted the
// prompt (Ctrl-C/Ctrl-D) before exhausting attempts. A disconnect or read
// failure returns the reader's error.
func (a *Authenticator) Authenticate(r Reader) (username string, ok bool, err error) {
	attempts := a.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		var user, pass string

		if a.NeedUser {
			u, res, rerr := r.ReadLine(a.PromptUser, true, false)
			if rerr != nil {
				return "", false, rerr
			}
			if res != lineeditor.ResultLine {
				return "", false, nil
			}
			user = u
		}

		if a.NeedPass {
			p, res, rerr := r.ReadLine(a.PromptPass, false, false)
			if rerr != nil {
				return "", false, rerr
			}
			if res != lineeditor.ResultLine {
				return "", false, nil
			}
			pass = p
		}

		if a.Logger != nil {
			a.Logger.LogAuthAttempt(user, pass)
		}

		if a.Verify == nil || a.Verify(user, pass) {
			return user, true, nil
		}
	}

	return "", false, nil
}
