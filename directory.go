package sealkit

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
)

// Directory attributes holding a DER certificate, in lookup order.
var certificateAttributes = []string{"userCertificate;binary", "userCertificate"}

// DirectoryConn is the subset of an LDAP connection used for key lookup.
type DirectoryConn interface {
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// DirectoryDialer opens a directory connection to an LDAP URL.
type DirectoryDialer func(url string, timeout time.Duration) (DirectoryConn, error)

type ldapConn struct {
	conn *ldap.Conn
}

func (c ldapConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	return c.conn.Search(req)
}

func (c ldapConn) Close() error {
	c.conn.Close()
	return nil
}

// DefaultDirectoryTimeout applies when a DirectorySource sets no Timeout.
const DefaultDirectoryTimeout = 10 * time.Second

// DialDirectory connects to an LDAP server. A zero timeout leaves the
// library defaults in place.
func DialDirectory(url string, timeout time.Duration) (DirectoryConn, error) {
	var opts []ldap.DialOpt
	if timeout > 0 {
		opts = append(opts, ldap.DialWithDialer(&net.Dialer{Timeout: timeout}))
	}
	conn, err := ldap.DialURL(url, opts...)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		conn.SetTimeout(timeout)
	}
	return ldapConn{conn: conn}, nil
}

// DirectorySource resolves a public key from the certificate attribute of an
// LDAP entry found by common name beneath BaseDN.
type DirectorySource struct {
	// Host is "host[:port]" or a full ldap:// or ldaps:// URL.
	Host   string
	BaseDN string
	// CommonName is a bare common name, an attr=value pair, or a complete
	// LDAP filter.
	CommonName string
	// Subject, when set, must equal the certificate subject.
	Subject DN
	// Timeout bounds the connection and the search. Zero means
	// DefaultDirectoryTimeout.
	Timeout time.Duration
	// Dialer defaults to DialDirectory.
	Dialer DirectoryDialer
}

// Resolve searches the directory and parses the first matching entry's
// certificate. Connection and search failures wrap ErrDirectory; a missing
// or empty certificate attribute wraps ErrNoCertificate.
func (s DirectorySource) Resolve() (*ResolvedKey, error) {
	url := directoryURL(s.Host)
	dial := s.Dialer
	if dial == nil {
		dial = DialDirectory
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultDirectoryTimeout
	}

	conn, err := dial(url, timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to %s: %w", ErrDirectory, url, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Warn("closing directory connection", "url", url, "error", err)
		}
	}()

	filter := directoryFilter(s.CommonName)
	req := ldap.NewSearchRequest(
		s.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		int(timeout/time.Second),
		false,
		filter,
		certificateAttributes,
		nil,
	)
	result, err := conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("%w: searching %s for %s: %w", ErrDirectory, s.BaseDN, filter, err)
	}
	if len(result.Entries) == 0 {
		return nil, fmt.Errorf("%w: %w: no entry under %s matches %s", ErrDirectory, ErrNotFound, s.BaseDN, filter)
	}

	entry := result.Entries[0]
	var der []byte
	for _, attr := range certificateAttributes {
		if der = entry.GetRawAttributeValue(attr); len(der) > 0 {
			break
		}
	}
	if len(der) == 0 {
		slog.Warn("directory entry has no certificate", "url", url, "entry", entry.DN)
		return nil, fmt.Errorf("%w: %s has no certificate for %s", ErrNoCertificate, url, filter)
	}

	resolved, err := PublicKeyFromCertificate(der, s.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", entry.DN, err)
	}
	resolved.Origin = OriginDirectory
	return resolved, nil
}

// PublicKeyFromDirectory resolves a public key from an LDAP directory. It
// always dials the network through DialDirectory with DefaultDirectoryTimeout;
// use a DirectorySource with a Dialer to substitute the connection.
func PublicKeyFromDirectory(host, baseDN, commonName string, subject DN) (*ResolvedKey, error) {
	return DirectorySource{Host: host, BaseDN: baseDN, CommonName: commonName, Subject: subject}.Resolve()
}

func directoryURL(host string) string {
	if strings.Contains(host, "://") {
		return host
	}
	return "ldap://" + host
}

func directoryFilter(commonName string) string {
	cn := strings.TrimSpace(commonName)
	switch {
	case strings.HasPrefix(cn, "("):
		return cn
	case strings.Contains(cn, "="):
		return "(" + cn + ")"
	default:
		return "(cn=" + ldap.EscapeFilter(cn) + ")"
	}
}
