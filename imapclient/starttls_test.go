package imapclient

import (
	"context"
	"crypto/tls"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	imapengine "github.com/mailrule/imapengine"
)

// pinnedCertStore writes a pin-file record for the test fixture
// certificate and loads it through the real NewCertStore path, so the
// test exercises genuine pin-file parsing rather than bypassing it.
func pinnedCertStore(t *testing.T) *CertStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pinned-certs")
	record := "Subject: CN=Acme Co\nIssuer: CN=Acme Co\nSerial: 0\n" + testCertPEM
	if err := os.WriteFile(path, []byte(record), 0o600); err != nil {
		t.Fatalf("writing pin file: %v", err)
	}
	store, err := NewCertStore(path)
	if err != nil {
		t.Fatalf("NewCertStore: %v", err)
	}
	return store
}

func TestStartTLSUpgradesAndRefetchesCapabilities(t *testing.T) {
	cert, err := tls.X509KeyPair([]byte(testCertPEM), []byte(testKeyPEM))
	if err != nil {
		t.Fatalf("loading test certificate: %v", err)
	}

	opts := defaultTestOptions()
	opts.startTLS = true
	opts.certificates = true
	certStore := pinnedCertStore(t)

	e := NewEngine(opts, certStore, nil, nil)
	clientSide, serverSide := net.Pipe()
	e.dial = func(ctx context.Context, timeout time.Duration, network, addr string) (net.Conn, error) {
		return clientSide, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		plain := newFakeServer(t, serverSide)
		plain.send("* OK ready")

		tag := plain.expectTag("CAPABILITY")
		plain.send("* CAPABILITY IMAP4REV1 STARTTLS")
		plain.send(tag + " OK done")

		tag = plain.expectTag("STARTTLS")
		plain.send(tag + " OK begin TLS negotiation")

		tlsConn := tls.Server(serverSide, &tls.Config{Certificates: []tls.Certificate{cert}})
		if err := tlsConn.Handshake(); err != nil {
			t.Errorf("server TLS handshake: %v", err)
			return
		}

		secure := newFakeServer(t, tlsConn)
		tag = secure.expectTag("CAPABILITY")
		secure.send("* CAPABILITY IMAP4REV1")
		secure.send(tag + " OK done")

		tag = secure.expectTag("LOGIN")
		secure.send(tag + " OK done")

		tag = secure.expectTag("CAPABILITY")
		secure.send("* CAPABILITY IMAP4REV1")
		secure.send(tag + " OK done")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sess, status, err := e.Login(ctx, "example.com", "143", imapengine.TLSProtoAuto, "alice", "hunter2", "")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if status != imapengine.StatusOk {
		t.Fatalf("status = %v, want StatusOk", status)
	}
	if _, ok := sess.conn.(*tls.Conn); !ok {
		t.Fatalf("session connection was not upgraded to TLS")
	}
	<-done
}
