package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout time.Duration
}

// ftpSession is the part of an FTP control connection a download needs.
type ftpSession interface {
	Login(user, password string) error
	Retrieve(path string) (io.ReadCloser, error)
	Quit() error
}

type dialFunc func(ctx context.Context, addr string, timeout time.Duration) (ftpSession, error)

// serverConn adapts *ftp.ServerConn to ftpSession.
type serverConn struct {
	*ftp.ServerConn
}

func (c serverConn) Retrieve(path string) (io.ReadCloser, error) {
	return c.Retr(path)
}

func dialFTP(ctx context.Context, addr string, timeout time.Duration) (ftpSession, error) {
	conn, err := ftp.Dial(addr, ftp.DialWithTimeout(timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, err
	}
	return serverConn{conn}, nil
}

// FTPFetcher retrieves city files from FTP mirrors. Logins are anonymous
// unless the URL carries credentials.
type FTPFetcher struct {
	opts FTPOptions
	dial dialFunc
}

// NewFTPFetcher creates an FTPFetcher.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &FTPFetcher{opts: opts, dial: dialFTP}
}

// ftpTarget is a parsed ftp:// URL.
type ftpTarget struct {
	Addr     string
	Path     string
	User     string
	Password string
}

func parseFTPURL(rawURL string) (ftpTarget, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ftpTarget{}, eris.Wrap(err, "ftp: parse url")
	}
	if u.Scheme != "ftp" {
		return ftpTarget{}, eris.Errorf("ftp: expected ftp scheme, got %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		return ftpTarget{}, eris.Errorf("ftp: no file in %q", rawURL)
	}

	t := ftpTarget{Addr: u.Host, Path: u.Path, User: "anonymous", Password: "anonymous@"}
	if u.Port() == "" {
		t.Addr = net.JoinHostPort(u.Hostname(), "21")
	}
	if u.User != nil {
		t.User = u.User.Username()
		if p, ok := u.User.Password(); ok {
			t.Password = p
		}
	}
	return t, nil
}

// sessionBody ends the FTP session when the file body is closed.
type sessionBody struct {
	io.ReadCloser
	session ftpSession
}

func (b sessionBody) Close() error {
	bodyErr := b.ReadCloser.Close()
	if err := b.session.Quit(); err != nil {
		return eris.Wrap(err, "ftp: quit")
	}
	if bodyErr != nil {
		return eris.Wrap(bodyErr, "ftp: close transfer")
	}
	return nil
}

// Download logs in and starts the transfer. Closing the body ends the session.
func (f *FTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	t, err := parseFTPURL(rawURL)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("fetcher: ftp retrieve", zap.String("addr", t.Addr), zap.String("path", t.Path))

	s, err := f.dial(ctx, t.Addr, f.opts.Timeout)
	if err != nil {
		return nil, eris.Wrapf(err, "ftp: dial %s", t.Addr)
	}
	if err := s.Login(t.User, t.Password); err != nil {
		_ = s.Quit()
		return nil, eris.Wrapf(err, "ftp: login as %s", t.User)
	}
	body, err := s.Retrieve(t.Path)
	if err != nil {
		_ = s.Quit()
		return nil, eris.Wrapf(err, "ftp: retrieve %s", t.Path)
	}
	return sessionBody{ReadCloser: body, session: s}, nil
}
