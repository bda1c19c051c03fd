package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/client/client"
	pb "github.com/dmitrijs2005/vaultwatch/internal/proto"
)

var errUsageID = errors.New("usage: <command> <id>")

func (a *App) credentials() (string, string, error) {
	userName, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return "", "", err
	}
	password, err := GetSecret(a.reader, "Password", a.out)
	if err != nil {
		return "", "", err
	}
	return userName, password, nil
}

func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	if _, err := a.api.Register(ctx, userName, password); err != nil {
		return err
	}
	a.println("Registered. You can log in now.")
	return nil
}

func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	if err := a.api.Login(ctx, userName, password); err != nil {
		return err
	}
	a.userName = userName
	a.println("Login successful")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.stopWatching()
	a.api.Logout()
	a.userName = ""
	a.println("Logged out")
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	if err := a.api.Ping(ctx); err != nil {
		return err
	}
	a.println("Server is up")
	return nil
}

func (a *App) List(ctx context.Context) error {
	items, err := a.api.ListSecrets(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		a.println("No saved passwords")
		return nil
	}

	a.outMu.Lock()
	defer a.outMu.Unlock()
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL\tACCOUNT\tEXPOSURE\tLAST CHECKED")
	for _, s := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.Label, s.AccountName, exposure(s), lastChecked(s))
	}
	return tw.Flush()
}

func exposure(s *pb.Secret) string {
	if s.ExposureState == "exposed" {
		return fmt.Sprintf("exposed (%d)", s.ExposureCount)
	}
	return s.ExposureState
}

func lastChecked(s *pb.Secret) string {
	if s.LastChecked == nil {
		return "never"
	}
	return s.LastChecked.Local().Format(time.DateTime)
}

func (a *App) secretFields() (label, account, password string, err error) {
	if label, err = GetSimpleText(a.reader, "Label", a.out); err != nil {
		return
	}
	if account, err = GetSimpleText(a.reader, "Account name", a.out); err != nil {
		return
	}
	password, err = GetSecret(a.reader, "Password", a.out)
	return
}

func (a *App) Add(ctx context.Context) error {
	label, account, password, err := a.secretFields()
	if err != nil {
		return err
	}
	s, err := a.api.CreateSecret(ctx, label, account, password)
	if err != nil {
		return err
	}
	a.printf("Saved %s (%s)\n", s.ID, exposure(s))
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsageID
	}
	password, err := a.api.RevealSecret(ctx, args[0])
	if err != nil {
		return err
	}
	a.println(password)
	return nil
}

func (a *App) Update(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsageID
	}
	label, account, password, err := a.secretFields()
	if err != nil {
		return err
	}
	s, err := a.api.UpdateSecret(ctx, args[0], label, account, password)
	if err != nil {
		return err
	}
	a.printf("Updated %s (%s)\n", s.ID, exposure(s))
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsageID
	}
	if err := a.api.DeleteSecret(ctx, args[0]); err != nil {
		return err
	}
	a.println("Deleted", args[0])
	return nil
}

func (a *App) Check(ctx context.Context) error {
	password, err := GetSecret(a.reader, "Password to check", a.out)
	if err != nil {
		return err
	}
	res, err := a.api.CheckSecret(ctx, password)
	if err != nil {
		return err
	}
	switch res.Status {
	case "exposed":
		a.printf("Found in %d breaches. Do not use it.\n", res.Count)
	case "clean":
		a.println("Not found in known breaches")
	default:
		a.println("Breach service unavailable, try again later")
	}
	return nil
}

// Watch prints breach alerts in the background until unwatch, logout or exit.
func (a *App) Watch(ctx context.Context) error {
	if !a.api.LoggedIn() {
		return client.ErrNotLoggedIn
	}

	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	if a.stopWatch != nil {
		a.println("Already watching")
		return nil
	}

	wctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.stopWatch, a.watchDone = cancel, done

	go func() {
		defer close(done)
		defer a.clearWatch(done)
		err := a.api.WatchAlerts(wctx, func(ev *pb.AlertEvent) {
			if ev.Alert == nil {
				return
			}
			a.printf("\n!! %s (%s) now appears in %d breaches\n", ev.Alert.Label, ev.Alert.AccountName, ev.Alert.ExposureCount)
		})
		if err != nil {
			a.println("alert stream ended:", err)
		}
	}()

	a.println("Watching for breach alerts")
	return nil
}

// clearWatch forgets a watcher that ended on its own so watch can restart.
func (a *App) clearWatch(done chan struct{}) {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()
	if a.watchDone == done {
		a.stopWatch()
		a.stopWatch, a.watchDone = nil, nil
	}
}

func (a *App) stopWatching() {
	a.watchMu.Lock()
	cancel, done := a.stopWatch, a.watchDone
	a.stopWatch, a.watchDone = nil, nil
	a.watchMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
