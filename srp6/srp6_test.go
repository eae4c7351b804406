package srp6

import "testing"

func TestClientServerAgreeOnSessionKey(t *testing.T) {
	group := DefaultGroup()
	identity := "alice"
	password := "hunter2"
	salt := []byte("a-per-user-salt")

	x := ComputeX(salt, identity, password)
	verifier := group.ComputeVerifier(x)

	client, err := NewClientSession(group, identity, salt, password)
	if err != nil {
		t.Fatalf("NewClientSession: %v", err)
	}
	server, err := NewServerSession(group, verifier)
	if err != nil {
		t.Fatalf("NewServerSession: %v", err)
	}

	clientKey, m1, err := client.ComputeKey(server.PublicEphemeral(), salt)
	if err != nil {
		t.Fatalf("client ComputeKey: %v", err)
	}
	serverKey, err := server.ComputeKey(client.PublicEphemeral())
	if err != nil {
		t.Fatalf("server ComputeKey: %v", err)
	}

	if string(clientKey) != string(serverKey) {
		t.Fatal("expected client and server to derive the same session key")
	}
	if !server.VerifyClientProof(client.PublicEphemeral(), serverKey, m1) {
		t.Fatal("expected the server to accept the client's proof")
	}
}

func TestWrongPasswordDerivesDifferentKey(t *testing.T) {
	group := DefaultGroup()
	identity := "alice"
	salt := []byte("a-per-user-salt")

	x := ComputeX(salt, identity, "hunter2")
	verifier := group.ComputeVerifier(x)
	server, err := NewServerSession(group, verifier)
	if err != nil {
		t.Fatalf("NewServerSession: %v", err)
	}

	impostor, err := NewClientSession(group, identity, salt, "wrong-password")
	if err != nil {
		t.Fatalf("NewClientSession: %v", err)
	}
	clientKey, m1, err := impostor.ComputeKey(server.PublicEphemeral(), salt)
	if err != nil {
		t.Fatalf("client ComputeKey: %v", err)
	}
	serverKey, err := server.ComputeKey(impostor.PublicEphemeral())
	if err != nil {
		t.Fatalf("server ComputeKey: %v", err)
	}

	if string(clientKey) == string(serverKey) {
		t.Fatal("expected an impostor's derived key to differ from the server's")
	}
	if server.VerifyClientProof(impostor.PublicEphemeral(), serverKey, m1) {
		t.Fatal("expected the server to reject a proof computed under the wrong key")
	}
}

func TestComputeVerifierIsDeterministic(t *testing.T) {
	group := DefaultGroup()
	x := ComputeX([]byte("salt"), "bob", "swordfish")
	v1 := group.ComputeVerifier(x)
	v2 := group.ComputeVerifier(x)
	if v1.Cmp(v2) != 0 {
		t.Fatal("expected the same x to always derive the same verifier")
	}
}
