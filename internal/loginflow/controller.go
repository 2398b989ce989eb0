// Package loginflow implements the client side of the login flow: the
// advisory lockout policy, the arithmetic captcha, request submission,
// and redirect dispatch.
package loginflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"regexp"
	"time"
)

const loginPath = "/login"

// emailPattern is the same loose address check the browser applies before
// submitting.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Status is the outcome of one submission attempt. The controller always
// returns to the idle state afterwards; only the lockout state persists.
type Status int

const (
	StatusSuccess Status = iota
	StatusLocked
	StatusInvalidInput
	StatusRejected
	StatusNetworkError
)

// Result carries the outcome of a submission.
type Result struct {
	Status      Status
	Message     string
	RedirectURL string

	// RetryAfter is how long the client should wait before the next
	// attempt; set for Locked and for Rejected attempts that triggered a
	// lockout.
	RetryAfter time.Duration
}

// Controller drives the login flow against a running server. It is not
// safe for concurrent use; each interactive session owns one.
type Controller struct {
	client  *http.Client
	baseURL string
	homeURL string
	store   StateStore
	now     func() time.Time
	rng     *rand.Rand
	captcha Captcha
}

// Option configures a Controller.
type Option func(*Controller)

// WithHTTPClient replaces the default cookie-jar client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) {
		c.client = client
	}
}

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithRand sets the captcha randomness source (primarily for testing).
func WithRand(rng *rand.Rand) Option {
	return func(c *Controller) {
		c.rng = rng
		c.captcha = NewCaptcha(rng)
	}
}

// NewController builds a Controller. The default HTTP client carries a
// cookie jar so the session cookie set on login survives the redirect.
func NewController(baseURL, homeURL string, store StateStore, options ...Option) (*Controller, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		client:  &http.Client{Jar: jar, Timeout: 15 * time.Second},
		baseURL: baseURL,
		homeURL: homeURL,
		store:   store,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	c.captcha = NewCaptcha(c.rng)

	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Captcha returns the current challenge.
func (c *Controller) Captcha() Captcha {
	return c.captcha
}

// RegenerateCaptcha replaces the current challenge.
func (c *Controller) RegenerateCaptcha() {
	c.captcha = NewCaptcha(c.rng)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	OK       bool   `json:"ok"`
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

// Submit runs one attempt: lockout guard, local validation, captcha check,
// then the network call. A wrong captcha or a server rejection regenerates
// the challenge; a server rejection also escalates the lockout. Network
// errors neither count as failures nor touch the lockout state.
func (c *Controller) Submit(ctx context.Context, email, password, captchaAnswer string) Result {
	state, err := c.store.Load()
	if err != nil {
		state = State{}
	}

	now := c.now()
	if until := time.UnixMilli(state.LockUntil); state.LockUntil > 0 && now.Before(until) {
		remaining := until.Sub(now)
		return Result{
			Status:     StatusLocked,
			Message:    fmt.Sprintf("wait %ds before retrying", int(remaining.Seconds())+1),
			RetryAfter: remaining,
		}
	}

	if email == "" || password == "" {
		return Result{Status: StatusInvalidInput, Message: "complete all fields"}
	}
	if !emailPattern.MatchString(email) {
		return Result{Status: StatusInvalidInput, Message: "enter a valid email address"}
	}
	if !c.captcha.Check(captchaAnswer) {
		c.RegenerateCaptcha()
		return Result{Status: StatusInvalidInput, Message: "captcha incorrect"}
	}

	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return Result{Status: StatusNetworkError, Message: "failed to encode request"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return Result{Status: StatusNetworkError, Message: "failed to build request"}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{Status: StatusNetworkError, Message: "failed to reach the server"}
	}
	defer resp.Body.Close()

	var payload loginResponse
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.recordFailure(state, payload.Message)
	}

	_ = c.store.Clear()

	redirect := c.homeURL
	if payload.OK && payload.Redirect != "" {
		redirect = payload.Redirect
	}
	return Result{Status: StatusSuccess, Message: payload.Message, RedirectURL: redirect}
}

func (c *Controller) recordFailure(state State, serverMessage string) Result {
	state.FailCount++
	lock := NextLock(state.FailCount)

	message := serverMessage
	if message == "" {
		message = "wrong email or password"
	}

	if lock > 0 {
		state.LockUntil = c.now().Add(lock).UnixMilli()
	}
	_ = c.store.Save(state)
	c.RegenerateCaptcha()

	return Result{
		Status:     StatusRejected,
		Message:    message,
		RetryAfter: lock,
	}
}
