package admin

import (
	"path/filepath"
	"testing"
)

// TestSQLiteStore_RoundTrip verifies inserts survive a reopen
func TestSQLiteStore_RoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "admin.db")

	store, err := OpenSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}

	if err := store.InsertAdmin("u1", "root"); err != nil {
		t.Fatal(err)
	}
	if err := store.InsertAdminCommand("send", "root"); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	admins, err := reopened.ListAdmins()
	if err != nil {
		t.Fatal(err)
	}
	if len(admins) != 1 || admins[0] != "u1" {
		t.Errorf("unexpected admins after reopen: %v", admins)
	}

	commands, err := reopened.ListAdminCommands()
	if err != nil {
		t.Fatal(err)
	}
	if len(commands) != 1 || commands[0] != "send" {
		t.Errorf("unexpected admin commands after reopen: %v", commands)
	}
}

// TestSQLiteStore_Delete verifies rows go away
func TestSQLiteStore_Delete(t *testing.T) {
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "admin.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.InsertAdmin("u1", "root"); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteAdmin("u1"); err != nil {
		t.Fatal(err)
	}

	admins, err := store.ListAdmins()
	if err != nil {
		t.Fatal(err)
	}
	if len(admins) != 0 {
		t.Errorf("expected no admins after delete, got %v", admins)
	}
}
