// Package testutil holds helpers shared by package tests: an in-process
// development backend and fake dirtyable components.
package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/console/internal/devserver/server"
	"github.com/grovetools/console/internal/devserver/store"
	"github.com/grovetools/console/pkg/feed"
	"github.com/grovetools/console/pkg/models"
)

// RandomString generates a random hex string of the specified length
func RandomString(length int) string {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return hex.EncodeToString(bytes)
}

// DevServer is a development backend running on httptest.
type DevServer struct {
	URL    string
	Token  string
	Store  *store.Store
	Hub    *feed.Hub
	server *httptest.Server
}

// NewDevServer starts a development backend without simulator workers.
// Tests drive state through Store. The server stops on test cleanup.
func NewDevServer(t *testing.T) *DevServer {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	entry := logrus.NewEntry(logger).WithField("component", "devserver-test")

	hub := feed.NewHub()
	st := store.New(hub, entry)
	token := RandomString(16)
	srv := httptest.NewServer(server.New(st, token, entry).Handler())

	d := &DevServer{URL: srv.URL, Token: token, Store: st, Hub: hub, server: srv}
	t.Cleanup(d.Close)
	return d
}

// Close drops every feed connection and stops the server.
func (d *DevServer) Close() {
	d.Hub.Close()
	d.server.CloseClientConnections()
	d.server.Close()
}

// DropFeeds ends every websocket subscription as if the connection failed.
func (d *DevServer) DropFeeds() {
	d.Hub.Disconnect()
}

// AddActivity stores an activity snapshot.
func (d *DevServer) AddActivity(a models.ActivitySnapshot) {
	d.Store.ApplyUpdate(store.Update{Type: store.UpdateActivity, Source: "test", Activity: a})
}

// AddAction stores a running action.
func (d *DevServer) AddAction(b models.ActionBroadcast) {
	d.Store.ApplyUpdate(store.Update{Type: store.UpdateActionCreated, Source: "test", Action: b})
}

// RemoveAction removes a running action.
func (d *DevServer) RemoveAction(b models.ActionBroadcast) {
	d.Store.ApplyUpdate(store.Update{Type: store.UpdateActionRemoved, Source: "test", Action: b})
}

// WaitForSubscribers blocks until the hub has n subscriptions.
func (d *DevServer) WaitForSubscribers(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return d.Hub.Count() == n },
		2*time.Second, 5*time.Millisecond, "expected %d feed subscribers", n)
}

// FakeDirtyable is a dirtyable component with scripted save results.
type FakeDirtyable struct {
	mu        sync.Mutex
	Dirty     bool
	Saveable  bool
	SaveOK    bool
	SaveErr   error
	SaveCalls int
}

// NewFakeDirtyable returns a dirty component whose save succeeds.
func NewFakeDirtyable() *FakeDirtyable {
	return &FakeDirtyable{Dirty: true, Saveable: true, SaveOK: true}
}

// IsDirty reports the scripted dirty flag.
func (f *FakeDirtyable) IsDirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Dirty
}

// CanSave reports the scripted saveable flag.
func (f *FakeDirtyable) CanSave() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Saveable
}

// DoSave records the call and returns the scripted result. A successful
// save clears the dirty flag.
func (f *FakeDirtyable) DoSave(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SaveCalls++
	if f.SaveErr != nil {
		return false, f.SaveErr
	}
	if f.SaveOK {
		f.Dirty = false
	}
	return f.SaveOK, nil
}

// Saves returns how often DoSave ran.
func (f *FakeDirtyable) Saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.SaveCalls
}
