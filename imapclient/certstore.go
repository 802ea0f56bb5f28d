package imapclient

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// CertStore implements the certificate gate (spec §4.C): a TLS peer
// certificate not chained to the system trust store is checked against
// an append-only pinned-cert file, and — on a TTY — the user is
// prompted to trust it temporarily or permanently.
//
// The file format is a concatenation of records:
//
//	Subject: <subject DN>
//	Issuer: <issuer DN>
//	Serial: <hex serial>
//	-----BEGIN CERTIFICATE-----
//	...
//	-----END CERTIFICATE-----
//
// Never rewritten, only appended to; reads iterate the PEM blocks and
// record the MD5 fingerprint of each one's DER bytes, and a peer
// certificate matches a record when its fingerprint is among them. The
// Subject/Issuer/Serial lines are written for human readers and are not
// parsed or compared. MD5 is used only as a pinning identifier for a
// certificate already in hand, never as a security primitive.
type CertStore struct {
	path      string
	prompt    bool // false forces the non-interactive path regardless of stdin's TTY-ness
	pinnedMD5 map[string]bool
}

// ErrCertificateUntrusted is returned by verify when the peer cert is
// neither chain-verified nor pinned and the session cannot prompt.
var ErrCertificateUntrusted = fmt.Errorf("imapclient: certificate not trusted and not pinned")

// NewCertStore loads path's existing pinned records, if any. A missing
// file is not an error — it is created on first permanent pin.
func NewCertStore(path string) (*CertStore, error) {
	s := &CertStore{path: path, prompt: true, pinnedMD5: make(map[string]bool)}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("imapclient: open pinned-cert file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var pemBuf bytes.Buffer
	inBlock := false
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "-----BEGIN CERTIFICATE-----"):
			inBlock = true
			pemBuf.Reset()
			pemBuf.WriteString(line + "\n")
		case strings.HasPrefix(line, "-----END CERTIFICATE-----"):
			pemBuf.WriteString(line + "\n")
			inBlock = false
			if block, _ := pem.Decode(pemBuf.Bytes()); block != nil {
				s.pinnedMD5[fingerprint(block.Bytes)] = true
			}
		case inBlock:
			pemBuf.WriteString(line + "\n")
		}
	}
	return s, scanner.Err()
}

func fingerprint(der []byte) string {
	sum := md5.Sum(der)
	return hex.EncodeToString(sum[:])
}

// verify is installed as the TLS ConnectionState verifier when
// InsecureSkipVerify is set. It re-runs chain verification manually
// first, then falls back to the pin file / interactive prompt.
func (c *CertStore) verify(cs tls.ConnectionState) error {
	if len(cs.PeerCertificates) == 0 {
		return fmt.Errorf("imapclient: no peer certificate presented")
	}
	leaf := cs.PeerCertificates[0]

	opts := x509.VerifyOptions{
		DNSName:       cs.ServerName,
		Intermediates: x509.NewCertPool(),
	}
	for _, cert := range cs.PeerCertificates[1:] {
		opts.Intermediates.AddCert(cert)
	}
	if _, err := leaf.Verify(opts); err == nil {
		return nil
	}

	fp := fingerprint(leaf.Raw)
	if c.pinnedMD5[fp] {
		return nil
	}

	if !c.prompt || !term.IsTerminal(int(os.Stdin.Fd())) {
		return ErrCertificateUntrusted
	}

	return c.promptAndPin(leaf, fp)
}

func (c *CertStore) promptAndPin(leaf *x509.Certificate, fp string) error {
	fmt.Fprintf(os.Stderr, "Certificate for %s is not trusted (fingerprint %s).\n", leaf.Subject, fp)
	fmt.Fprint(os.Stderr, "(R)eject, accept (t)emporarily, or accept (p)ermanently? ")

	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "t":
		return nil
	case "p":
		if err := c.pin(leaf); err != nil {
			return err
		}
		c.pinnedMD5[fp] = true
		return nil
	default:
		return ErrCertificateUntrusted
	}
}

func (c *CertStore) pin(leaf *x509.Certificate) error {
	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("imapclient: open pinned-cert file for append: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "Subject: %s\n", leaf.Subject)
	fmt.Fprintf(f, "Issuer: %s\n", leaf.Issuer)
	fmt.Fprintf(f, "Serial: %s\n", leaf.SerialNumber.Text(16))
	return pem.Encode(f, &pem.Block{Type: "CERTIFICATE", Bytes: leaf.Raw})
}
