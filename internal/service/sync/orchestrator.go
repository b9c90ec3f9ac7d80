// Package sync owns the connection to the remote store: its state machine,
// the active data file, and the per-file revision tokens used for optimistic
// concurrency. Everything else in the application persists through this
// package.
package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"

	"go.uber.org/zap"

	"stockbook/internal/domain/models"
	"stockbook/internal/repository/github"
)

// ConnectionState tracks the lifecycle disconnected → connecting →
// {connected | error}.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateError        ConnectionState = "error"
)

// SyncStatus tracks the most recent fetch/save operation independently of the
// connection state.
type SyncStatus string

const (
	StatusIdle    SyncStatus = "idle"
	StatusSyncing SyncStatus = "syncing"
	StatusSuccess SyncStatus = "success"
	StatusError   SyncStatus = "error"
)

// ErrNotConnected is returned when a data operation runs before Connect
// succeeded.
var ErrNotConnected = errors.New("not connected to a repository")

// RemoteClient is the slice of the GitHub client the orchestrator needs;
// tests substitute a fake.
type RemoteClient interface {
	TestConnection(ctx context.Context) (*github.RepoInfo, error)
	FetchData(ctx context.Context, fileName string) (*github.FetchResult, error)
	UpdateData(ctx context.Context, fileName string, doc *models.Document, commitMessage, sha string, force bool) (*github.CommitInfo, error)
	GetRateLimit(ctx context.Context) (*github.RateLimit, error)
}

// ClientFactory builds a remote client from connection coordinates. The
// default wraps github.NewClient; tests inject fakes.
type ClientFactory func(cfg github.ClientConfig) RemoteClient

// Status is a point-in-time snapshot of the orchestrator for the UI.
type Status struct {
	State      ConnectionState `json:"state"`
	SyncStatus SyncStatus      `json:"syncStatus"`
	Owner      string          `json:"owner,omitempty"`
	Repo       string          `json:"repo,omitempty"`
	FileName   string          `json:"fileName"`
	LastError  string          `json:"lastError,omitempty"`
}

// Orchestrator serializes all remote-store traffic.
type Orchestrator struct {
	mu           gosync.Mutex
	state        ConnectionState
	syncStatus   SyncStatus
	lastError    string
	owner        string
	repo         string
	fileName     string
	shaCache     map[string]string
	client       RemoteClient
	newClient    ClientFactory
	onDisconnect []func()
	logger       *zap.Logger
}

// New builds an orchestrator starting on the given data file. A nil factory
// falls back to the real GitHub client.
func New(fileName string, factory ClientFactory, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if factory == nil {
		factory = func(cfg github.ClientConfig) RemoteClient {
			return github.NewClient(cfg, logger.Named("repo.github"))
		}
	}
	return &Orchestrator{
		state:      StateDisconnected,
		syncStatus: StatusIdle,
		fileName:   fileName,
		shaCache:   make(map[string]string),
		newClient:  factory,
		logger:     logger,
	}
}

// Connect verifies the repository is reachable and the token works, then
// keeps the API client in memory. The raw token is never stored here; callers
// seal it separately through pkg/vault.
func (o *Orchestrator) Connect(ctx context.Context, owner, repo, token string) (*github.RepoInfo, error) {
	o.mu.Lock()
	o.state = StateConnecting
	client := o.newClient(github.ClientConfig{Owner: owner, Repo: repo, Token: token})
	o.mu.Unlock()

	info, err := client.TestConnection(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.state = StateError
		o.lastError = err.Error()
		o.client = nil
		return nil, fmt.Errorf("connect %s/%s: %w", owner, repo, err)
	}

	o.state = StateConnected
	o.lastError = ""
	o.owner = owner
	o.repo = repo
	o.client = client
	o.logger.Info("connected to repository",
		zap.String("repo", info.FullName),
		zap.Bool("writable", info.HasWriteAccess))
	return info, nil
}

// OnDisconnect registers a cleanup callback run when Disconnect is called.
func (o *Orchestrator) OnDisconnect(fn func()) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onDisconnect = append(o.onDisconnect, fn)
}

// Disconnect runs every registered callback, then clears credentials, cached
// revision tokens, and state.
func (o *Orchestrator) Disconnect() {
	o.mu.Lock()
	callbacks := append(([]func())(nil), o.onDisconnect...)
	o.mu.Unlock()

	for _, fn := range callbacks {
		fn()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.client = nil
	o.owner = ""
	o.repo = ""
	o.shaCache = make(map[string]string)
	o.state = StateDisconnected
	o.syncStatus = StatusIdle
	o.lastError = ""
	o.logger.Info("disconnected")
}

// SwitchFile changes the active data file and drops all cached revision
// tokens so the next operation fetches fresh.
func (o *Orchestrator) SwitchFile(fileName string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fileName = fileName
	o.shaCache = make(map[string]string)
}

// FileName reports the active data file.
func (o *Orchestrator) FileName() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fileName
}

// Status snapshots the orchestrator for the UI.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{
		State:      o.state,
		SyncStatus: o.syncStatus,
		Owner:      o.owner,
		Repo:       o.repo,
		FileName:   o.fileName,
		LastError:  o.lastError,
	}
}

// FetchData pulls the active file and caches its revision token.
func (o *Orchestrator) FetchData(ctx context.Context) (*github.FetchResult, error) {
	client, file, err := o.begin()
	if err != nil {
		return nil, err
	}

	res, err := client.FetchData(ctx, file)
	if err != nil {
		o.finish(err)
		return nil, err
	}

	o.mu.Lock()
	o.shaCache[file] = res.SHA
	o.mu.Unlock()
	o.finish(nil)
	return res, nil
}

// SaveData writes the document using the cached revision token, fetching one
// first if the cache is cold. A CONFLICT_ERROR propagates to the caller
// untouched: deciding between re-fetch-and-merge and giving up is the
// caller's call, not something to paper over by silently retrying with the
// newer token.
func (o *Orchestrator) SaveData(ctx context.Context, doc *models.Document, commitMessage string) (*github.CommitInfo, error) {
	client, file, err := o.begin()
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	sha, cached := o.shaCache[file]
	o.mu.Unlock()

	if !cached {
		res, fetchErr := client.FetchData(ctx, file)
		if fetchErr != nil {
			o.finish(fetchErr)
			return nil, fetchErr
		}
		sha = res.SHA
	}

	commit, err := client.UpdateData(ctx, file, doc, commitMessage, sha, false)
	if err != nil {
		o.finish(err)
		return nil, err
	}

	o.mu.Lock()
	o.shaCache[file] = commit.SHA
	o.mu.Unlock()
	o.finish(nil)
	return commit, nil
}

// ForceSaveData bypasses conflict detection entirely. This is the manual
// recovery action for a corrupted or unparseable remote file.
func (o *Orchestrator) ForceSaveData(ctx context.Context, doc *models.Document, commitMessage string) (*github.CommitInfo, error) {
	client, file, err := o.begin()
	if err != nil {
		return nil, err
	}

	commit, err := client.UpdateData(ctx, file, doc, commitMessage, "", true)
	if err != nil {
		o.finish(err)
		return nil, err
	}

	o.mu.Lock()
	o.shaCache[file] = commit.SHA
	o.mu.Unlock()
	o.finish(nil)
	return commit, nil
}

// RateLimit proxies the quota check.
func (o *Orchestrator) RateLimit(ctx context.Context) (*github.RateLimit, error) {
	client, _, err := o.begin()
	if err != nil {
		return nil, err
	}
	rl, err := client.GetRateLimit(ctx)
	o.finish(err)
	return rl, err
}

func (o *Orchestrator) begin() (RemoteClient, string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.client == nil || o.state != StateConnected {
		return nil, "", ErrNotConnected
	}
	o.syncStatus = StatusSyncing
	return o.client, o.fileName, nil
}

func (o *Orchestrator) finish(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.syncStatus = StatusError
		o.lastError = err.Error()
		return
	}
	o.syncStatus = StatusSuccess
	o.lastError = ""
}
