package sync

import (
	"context"
	"testing"

	"stockbook/internal/domain/models"
	"stockbook/internal/repository/github"
)

type fakeRemote struct {
	connectErr error
	fetches    int
	updates    int
	remoteSHA  string
	updateErr  error
	lastSHA    string
	lastForce  bool
}

func (f *fakeRemote) TestConnection(ctx context.Context) (*github.RepoInfo, error) {
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	return &github.RepoInfo{Name: "books", FullName: "acme/books", HasWriteAccess: true}, nil
}

func (f *fakeRemote) FetchData(ctx context.Context, fileName string) (*github.FetchResult, error) {
	f.fetches++
	return &github.FetchResult{Document: models.NewEmptyDocument(), SHA: f.remoteSHA}, nil
}

func (f *fakeRemote) UpdateData(ctx context.Context, fileName string, doc *models.Document, msg, sha string, force bool) (*github.CommitInfo, error) {
	f.updates++
	f.lastSHA = sha
	f.lastForce = force
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &github.CommitInfo{SHA: "sha-" + msg, CommitSHA: "commit-" + msg, Message: msg}, nil
}

func (f *fakeRemote) GetRateLimit(ctx context.Context) (*github.RateLimit, error) {
	return &github.RateLimit{Limit: 5000, Remaining: 4999}, nil
}

func newConnected(t *testing.T, fake *fakeRemote) *Orchestrator {
	t.Helper()
	o := New("data.json", func(cfg github.ClientConfig) RemoteClient { return fake }, nil)
	if _, err := o.Connect(context.Background(), "acme", "books", "tkn"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	return o
}

func TestConnectTransitions(t *testing.T) {
	fake := &fakeRemote{}
	o := newConnected(t, fake)
	if got := o.Status().State; got != StateConnected {
		t.Errorf("state = %v, want connected", got)
	}

	bad := New("data.json", func(cfg github.ClientConfig) RemoteClient {
		return &fakeRemote{connectErr: &github.APIError{Type: github.ErrAuthentication, Status: 401, Message: "bad credentials"}}
	}, nil)
	if _, err := bad.Connect(context.Background(), "acme", "books", "nope"); err == nil {
		t.Fatal("Connect succeeded with bad credentials")
	}
	st := bad.Status()
	if st.State != StateError {
		t.Errorf("state = %v, want error", st.State)
	}
	if st.LastError == "" {
		t.Error("lastError empty after failed connect")
	}
}

func TestSaveDataFetchesRevisionWhenCacheCold(t *testing.T) {
	fake := &fakeRemote{remoteSHA: "r1"}
	o := newConnected(t, fake)

	if _, err := o.SaveData(context.Background(), models.NewEmptyDocument(), "first"); err != nil {
		t.Fatalf("SaveData: %v", err)
	}
	if fake.fetches != 1 {
		t.Errorf("fetches = %d, want 1 (cold cache)", fake.fetches)
	}
	if fake.lastSHA != "r1" {
		t.Errorf("save used sha %q, want r1", fake.lastSHA)
	}

	// Second save reuses the token returned by the first commit.
	if _, err := o.SaveData(context.Background(), models.NewEmptyDocument(), "second"); err != nil {
		t.Fatalf("SaveData: %v", err)
	}
	if fake.fetches != 1 {
		t.Errorf("fetches = %d, want 1 (warm cache)", fake.fetches)
	}
	if fake.lastSHA != "sha-first" {
		t.Errorf("save used sha %q, want sha-first", fake.lastSHA)
	}
}

func TestSaveDataSurfacesConflict(t *testing.T) {
	fake := &fakeRemote{
		remoteSHA: "r1",
		updateErr: &github.APIError{Type: github.ErrConflict, Status: 409, Message: "stale"},
	}
	o := newConnected(t, fake)

	_, err := o.SaveData(context.Background(), models.NewEmptyDocument(), "save")
	if !github.IsConflict(err) {
		t.Errorf("err = %v, want conflict", err)
	}
	if fake.updates != 1 {
		t.Errorf("updates = %d; conflict must not be retried silently", fake.updates)
	}
	if got := o.Status().SyncStatus; got != StatusError {
		t.Errorf("syncStatus = %v, want error", got)
	}
}

func TestForceSaveBypassesRevisionCheck(t *testing.T) {
	fake := &fakeRemote{remoteSHA: "r1"}
	o := newConnected(t, fake)

	if _, err := o.ForceSaveData(context.Background(), models.NewEmptyDocument(), "recover"); err != nil {
		t.Fatalf("ForceSaveData: %v", err)
	}
	if !fake.lastForce {
		t.Error("force flag not passed through")
	}
}

func TestSwitchFileClearsRevisionCache(t *testing.T) {
	fake := &fakeRemote{remoteSHA: "r1"}
	o := newConnected(t, fake)

	if _, err := o.SaveData(context.Background(), models.NewEmptyDocument(), "first"); err != nil {
		t.Fatal(err)
	}
	o.SwitchFile("2027.json")
	if _, err := o.SaveData(context.Background(), models.NewEmptyDocument(), "second"); err != nil {
		t.Fatal(err)
	}
	if fake.fetches != 2 {
		t.Errorf("fetches = %d, want 2 (cache cleared on file switch)", fake.fetches)
	}
}

func TestDisconnectRunsCallbacksAndResets(t *testing.T) {
	fake := &fakeRemote{remoteSHA: "r1"}
	o := newConnected(t, fake)

	cleaned := false
	o.OnDisconnect(func() { cleaned = true })
	o.Disconnect()

	if !cleaned {
		t.Error("disconnect callback not invoked")
	}
	if got := o.Status().State; got != StateDisconnected {
		t.Errorf("state = %v, want disconnected", got)
	}
	if _, err := o.SaveData(context.Background(), models.NewEmptyDocument(), "late"); err != ErrNotConnected {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}
