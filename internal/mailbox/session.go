package mailbox

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"

	// Register charset decoders (windows-1252, iso-8859-*, koi8-r, etc.)
	_ "github.com/emersion/go-message/charset"
)

// ErrNoMatch is returned when no message in the mailbox matches the filter set
var ErrNoMatch = errors.New("no matching message")

// ErrTimeout is returned when the scan exceeded its deadline and the
// connection was torn down
var ErrTimeout = errors.New("mailbox scan timed out")

// TransportError wraps a connection, login, search or fetch failure. The
// underlying error is kept for diagnostics only; callers render a generic
// message instead.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("imap %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Match is the newest message whose subject matched one of the filters. It is
// only valid for the query that produced it; nothing is persisted.
type Match struct {
	SeqNum  uint32
	Subject string
	Kind    ContentKind
	Body    string
}

// ClientConfig configuration for the shared-mailbox IMAP client
type ClientConfig struct {
	Addr        string // host:port
	Username    string
	Password    string
	DialTimeout time.Duration
}

// imapConn is the slice of the go-imap client the scan needs. *client.Client
// satisfies it.
type imapConn interface {
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	Search(criteria *imap.SearchCriteria) ([]uint32, error)
	Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Logout() error
	Terminate() error
}

// Client opens one IMAP session per query against the shared mailbox. It
// keeps no connection state between queries.
type Client struct {
	config ClientConfig
	logger *slog.Logger
	dial   func() (imapConn, error)
}

// NewClient creates a new shared-mailbox client
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	c := &Client{
		config: cfg,
		logger: logger.With("component", "mailbox"),
	}
	c.dial = c.connect
	return c
}

// SearchAndScan opens a TLS session, searches for messages addressed to the
// recipient, and scans candidates newest-first for the first subject that
// matches one of the filter strings (case-insensitive substring). The session
// is always logged out, on success and on failure. Context expiry terminates
// the connection and surfaces ErrTimeout.
func (c *Client) SearchAndScan(ctx context.Context, recipient string, subjectFilters []string) (*Match, error) {
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := conn.Logout(); err != nil {
			c.logger.Debug("imap logout failed", "error", err)
		}
	}()

	// The go-imap client has no per-command context; a watchdog tears the
	// connection down when the scan budget expires so a stuck command
	// cannot outlive it.
	scanDone := make(chan struct{})
	defer close(scanDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Terminate()
		case <-scanDone:
		}
	}()

	match, err := c.scan(conn, recipient, subjectFilters)
	if ctx.Err() != nil {
		return nil, ErrTimeout
	}
	return match, err
}

func (c *Client) connect() (imapConn, error) {
	host, _, err := net.SplitHostPort(c.config.Addr)
	if err != nil {
		host = c.config.Addr
	}

	timeout := c.config.DialTimeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", c.config.Addr, &tls.Config{ServerName: host})
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}

	imapClient, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, &TransportError{Op: "greeting", Err: err}
	}

	if err := imapClient.Login(c.config.Username, c.config.Password); err != nil {
		imapClient.Logout()
		return nil, &TransportError{Op: "login", Err: err}
	}

	return imapClient, nil
}

func (c *Client) scan(conn imapConn, recipient string, subjectFilters []string) (*Match, error) {
	if _, err := conn.Select("INBOX", true); err != nil {
		return nil, &TransportError{Op: "select", Err: err}
	}

	// One server-side search scoped to the target recipient; the server
	// matches the To header by substring.
	criteria := imap.NewSearchCriteria()
	criteria.Header.Add("To", recipient)

	ids, err := conn.Search(criteria)
	if err != nil {
		return nil, &TransportError{Op: "search", Err: err}
	}
	if len(ids) == 0 {
		return nil, ErrNoMatch
	}

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem()}

	// Sequence numbers ascend with arrival order; walking them backwards
	// makes the newest qualifying message win.
	for i := len(ids) - 1; i >= 0; i-- {
		seq := ids[i]

		msg, err := c.fetchOne(conn, seq, items)
		if err != nil {
			return nil, err
		}
		if msg == nil {
			continue
		}

		body := msg.GetBody(section)
		if body == nil {
			c.logger.Warn("message has no body section", "seq", seq)
			continue
		}

		entity, err := message.Read(body)
		if err != nil && !message.IsUnknownCharset(err) {
			c.logger.Warn("failed to parse message", "seq", seq, "error", err)
			continue
		}

		subject := DecodeSubject(entity.Header.Get("Subject"))
		if !subjectMatches(subject, subjectFilters) {
			continue
		}

		kind, content := ExtractBody(entity)
		c.logger.Info("matched message", "seq", seq, "subject", subject, "kind", kind.String())
		return &Match{
			SeqNum:  seq,
			Subject: subject,
			Kind:    kind,
			Body:    content,
		}, nil
	}

	return nil, ErrNoMatch
}

func (c *Client) fetchOne(conn imapConn, seq uint32, items []imap.FetchItem) (*imap.Message, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(seq)

	messages := make(chan *imap.Message, 1)
	if err := conn.Fetch(seqSet, items, messages); err != nil {
		return nil, &TransportError{Op: "fetch", Err: err}
	}
	return <-messages, nil
}

func subjectMatches(subject string, filters []string) bool {
	lowered := strings.ToLower(subject)
	for _, f := range filters {
		if strings.Contains(lowered, strings.ToLower(f)) {
			return true
		}
	}
	return false
}
