package imapclient

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	imapengine "github.com/mailrule/imapengine"
)

// Options is the read-only view of script-defined configuration the
// engine consults (spec component I). It mirrors the option set a
// filtering script can set per account: timeouts, auth preferences,
// recovery policy, and the TRYCREATE/EXPUNGE/SUBSCRIBE conveniences.
type Options interface {
	Timeout() time.Duration
	Keepalive() time.Duration
	StartTLS() bool
	ImplicitTLS() bool
	CRAMMD5() bool
	NamespaceEnabled() bool
	Certificates() bool
	CreateOnNo() bool
	ExpungeOnDelete() bool
	SubscribeOnCreate() bool
	RecoverPolicy() imapengine.RecoverPolicy
	WakeOnAny() bool
}

// FileOptions is a TOML-backed Options implementation: the ambient
// config format the rest of the option surface is expressed in, one
// key per [MODULE] option named in the engine API.
type FileOptions struct {
	TimeoutSeconds   int64  `toml:"timeout"`
	KeepaliveMinutes int64  `toml:"keepalive"`
	StartTLSOpt      bool   `toml:"starttls"`
	ImplicitTLSOpt   bool   `toml:"implicit_tls"`
	CRAMMD5Opt       bool   `toml:"crammd5"`
	NamespaceOpt     bool   `toml:"namespace"`
	CertificatesOpt  bool   `toml:"certificates"`
	CreateOpt        bool   `toml:"create"`
	ExpungeOpt       bool   `toml:"expunge"`
	SubscribeOpt     bool   `toml:"subscribe"`
	RecoverOpt       string `toml:"recover"`
	WakeOnAnyOpt     bool   `toml:"wakeonany"`
}

// DefaultFileOptions returns the documented defaults (spec §6: timeout
// 0/none, keepalive 29 minutes, starttls/crammd5/namespace/certificates
// on, create/subscribe/wakeonany off, expunge on, recover none).
func DefaultFileOptions() *FileOptions {
	return &FileOptions{
		TimeoutSeconds:   0,
		KeepaliveMinutes: 29,
		StartTLSOpt:      true,
		CRAMMD5Opt:       true,
		NamespaceOpt:     true,
		CertificatesOpt:  true,
		ExpungeOpt:       true,
	}
}

// LoadFileOptions reads a TOML options file, starting from
// DefaultFileOptions and overlaying whatever keys the file sets.
func LoadFileOptions(path string) (*FileOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("imapclient: read options file: %w", err)
	}
	opts := DefaultFileOptions()
	if err := toml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("imapclient: parse options file: %w", err)
	}
	return opts, nil
}

func (o *FileOptions) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

func (o *FileOptions) Keepalive() time.Duration {
	m := o.KeepaliveMinutes
	if m <= 0 {
		m = 29
	}
	return time.Duration(m) * time.Minute
}

func (o *FileOptions) StartTLS() bool                               { return o.StartTLSOpt }
func (o *FileOptions) ImplicitTLS() bool                            { return o.ImplicitTLSOpt }
func (o *FileOptions) CRAMMD5() bool                                { return o.CRAMMD5Opt }
func (o *FileOptions) NamespaceEnabled() bool                       { return o.NamespaceOpt }
func (o *FileOptions) Certificates() bool                           { return o.CertificatesOpt }
func (o *FileOptions) CreateOnNo() bool                             { return o.CreateOpt }
func (o *FileOptions) ExpungeOnDelete() bool                        { return o.ExpungeOpt }
func (o *FileOptions) SubscribeOnCreate() bool                      { return o.SubscribeOpt }
func (o *FileOptions) WakeOnAny() bool                              { return o.WakeOnAnyOpt }
func (o *FileOptions) RecoverPolicy() imapengine.RecoverPolicy {
	return imapengine.ParseRecoverPolicy(o.RecoverOpt)
}
