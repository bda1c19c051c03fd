package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/client/client"
	"github.com/dmitrijs2005/vaultwatch/internal/common"
	pb "github.com/dmitrijs2005/vaultwatch/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	loggedIn bool
	created  []string
	deleted  []string
	closed   bool
	check    *pb.CheckSecretResponse
}

func (f *fakeAPI) Register(ctx context.Context, username, password string) (string, error) {
	if username == "taken" {
		return "", common.ErrorAlreadyExists
	}
	return "u-1", nil
}

func (f *fakeAPI) Login(ctx context.Context, username, password string) error {
	if password != "hunter22" {
		return client.ErrUnauthorized
	}
	f.loggedIn = true
	return nil
}

func (f *fakeAPI) Logout()                        { f.loggedIn = false }
func (f *fakeAPI) LoggedIn() bool                 { return f.loggedIn }
func (f *fakeAPI) Ping(ctx context.Context) error { return nil }
func (f *fakeAPI) Close() error                   { f.closed = true; return nil }

func (f *fakeAPI) CreateSecret(ctx context.Context, label, accountName, password string) (*pb.Secret, error) {
	f.created = append(f.created, label+"/"+accountName+"/"+password)
	return &pb.Secret{ID: "s1", Label: label, ExposureState: "exposed", ExposureCount: 3}, nil
}

func (f *fakeAPI) ListSecrets(ctx context.Context) ([]*pb.Secret, error) {
	if !f.loggedIn {
		return nil, client.ErrNotLoggedIn
	}
	checked := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []*pb.Secret{
		{ID: "s1", Label: "mail", AccountName: "alice@example.com", ExposureState: "clean", LastChecked: &checked},
		{ID: "s2", Label: "bank", AccountName: "alice", ExposureState: "exposed", ExposureCount: 42},
	}, nil
}

func (f *fakeAPI) RevealSecret(ctx context.Context, id string) (string, error) {
	if id != "s1" {
		return "", common.ErrorNotFound
	}
	return "s3cr3t", nil
}

func (f *fakeAPI) UpdateSecret(ctx context.Context, id, label, accountName, password string) (*pb.Secret, error) {
	return &pb.Secret{ID: id, Label: label, ExposureState: "clean"}, nil
}

func (f *fakeAPI) DeleteSecret(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) CheckSecret(ctx context.Context, password string) (*pb.CheckSecretResponse, error) {
	return f.check, nil
}

func (f *fakeAPI) WatchAlerts(ctx context.Context, fn func(*pb.AlertEvent)) error {
	fn(&pb.AlertEvent{Event: common.BreachAlertEvent, Alert: &pb.BreachAlert{Label: "mail", AccountName: "alice", ExposureCount: 7}})
	<-ctx.Done()
	return nil
}

func plainStdin(t *testing.T) {
	t.Helper()
	orig := isTerminal
	isTerminal = func(int) bool { return false }
	t.Cleanup(func() { isTerminal = orig })
}

func (a *App) output() string {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	return a.out.(*bytes.Buffer).String()
}

func run(t *testing.T, api API, script string) *App {
	t.Helper()
	plainStdin(t)
	a := newApp(api, strings.NewReader(script), &bytes.Buffer{})
	a.Run(context.Background())
	return a
}

func TestREPL_Session(t *testing.T) {
	api := &fakeAPI{}
	a := run(t, api, strings.Join([]string{
		"help",
		"list",
		"login", "alice", "hunter22",
		"help",
		"l",
		"add", "github", "alice", "pa55",
		"show s1",
		"show nope",
		"show",
		"update s1", "github-2", "alice", "pa66",
		"delete s1",
		"bogus",
		"logout",
		"exit",
	}, "\n")+"\n")

	out := a.output()
	assert.Contains(t, out, helpLoggedOut)
	assert.Contains(t, out, "error: not logged in")
	assert.Contains(t, out, "Login successful")
	assert.Contains(t, out, helpLoggedIn)
	assert.Contains(t, out, "vault (alice)> ")
	assert.Contains(t, out, "exposed (42)")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "Saved s1 (exposed (3))")
	assert.Contains(t, out, "s3cr3t")
	assert.Contains(t, out, "error: not found")
	assert.Contains(t, out, "error: "+errUsageID.Error())
	assert.Contains(t, out, "Updated s1 (clean)")
	assert.Contains(t, out, "Deleted s1")
	assert.Contains(t, out, "Unknown command: bogus")
	assert.Contains(t, out, "Logged out")
	assert.Contains(t, out, "Bye!")

	assert.Equal(t, []string{"github/alice/pa55"}, api.created)
	assert.Equal(t, []string{"s1"}, api.deleted)
	assert.False(t, api.loggedIn)
	assert.True(t, api.closed)
}

func TestREPL_LoginFailure(t *testing.T) {
	a := run(t, &fakeAPI{}, "login\nalice\nwrong\n")

	assert.Contains(t, a.output(), "error: unauthorized")
	assert.NotContains(t, a.output(), "Login successful")
}

func TestREPL_RegisterDuplicate(t *testing.T) {
	a := run(t, &fakeAPI{}, "register\ntaken\nhunter22\nregister\nbob\nhunter22\n")

	assert.Contains(t, a.output(), "error: already exists")
	assert.Contains(t, a.output(), "Registered.")
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		resp *pb.CheckSecretResponse
		want string
	}{
		{name: "exposed", resp: &pb.CheckSecretResponse{Status: "exposed", Count: 42}, want: "Found in 42 breaches"},
		{name: "clean", resp: &pb.CheckSecretResponse{Status: "clean"}, want: "Not found in known breaches"},
		{name: "unknown", resp: &pb.CheckSecretResponse{Status: "unknown"}, want: "Breach service unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := run(t, &fakeAPI{loggedIn: true, check: tt.resp}, "check\npassword\n")
			assert.Contains(t, a.output(), tt.want)
		})
	}
}

func TestWatch(t *testing.T) {
	plainStdin(t)
	api := &fakeAPI{}
	a := newApp(api, strings.NewReader(""), &bytes.Buffer{})

	assert.ErrorIs(t, a.Watch(context.Background()), client.ErrNotLoggedIn)

	api.loggedIn = true
	require.NoError(t, a.Watch(context.Background()))
	require.NoError(t, a.Watch(context.Background()))

	require.Eventually(t, func() bool {
		return strings.Contains(a.output(), "!! mail (alice) now appears in 7 breaches")
	}, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, a.output(), "Already watching")

	a.stopWatching()
	a.stopWatching()

	require.NoError(t, a.Watch(context.Background()))
	a.stopWatching()
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer

	got, err := GetSimpleText(bufio.NewReader(strings.NewReader("  hello world \n")), "Name", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name: ", out.String())

	got, err = GetSimpleText(bufio.NewReader(strings.NewReader("lastline")), "Name", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(bufio.NewReader(strings.NewReader("")), "Name", &out)
	assert.Error(t, err)
}

func TestGetSecret_Terminal(t *testing.T) {
	origTerm, origRead := isTerminal, readPassword
	t.Cleanup(func() { isTerminal, readPassword = origTerm, origRead })
	isTerminal = func(int) bool { return true }

	readPassword = func(int) ([]byte, error) { return []byte("hidden"), nil }
	var out bytes.Buffer
	got, err := GetSecret(bufio.NewReader(strings.NewReader("")), "Password", &out)
	require.NoError(t, err)
	assert.Equal(t, "hidden", got)
	assert.Equal(t, "Password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = GetSecret(bufio.NewReader(strings.NewReader("")), "Password", &out)
	assert.Error(t, err)
}
