package cds

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPClient retrieves archives from an FTP mirror instead of the CDS API.
// The mirror is expected to lay files out as
// /<dataset>/<variable>_<year>_<version>.<format>.
type FTPClient struct {
	mirrorURL string
	timeout   time.Duration
}

// NewFTPClient creates a mirror client for the given ftp:// base URL.
func NewFTPClient(mirrorURL string, timeout time.Duration) (*FTPClient, error) {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	u, err := url.Parse(mirrorURL)
	if err != nil {
		return nil, eris.Wrap(err, "cds: parse mirror url")
	}
	if u.Scheme != "ftp" {
		return nil, eris.Errorf("cds: expected ftp scheme, got %q", u.Scheme)
	}
	return &FTPClient{mirrorURL: mirrorURL, timeout: timeout}, nil
}

// Retrieve downloads the archive for the request from the mirror.
func (c *FTPClient) Retrieve(ctx context.Context, dataset string, req Request, outPath string) error {
	host, dir, err := c.split()
	if err != nil {
		return err
	}

	remote := fmt.Sprintf("%s/%s/%s_%d_%s.%s",
		dir, dataset, req.Variable, req.Year, req.Version, req.Format)

	zap.L().Debug("cds: ftp mirror download",
		zap.String("host", host),
		zap.String("path", remote),
	)

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(c.timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return eris.Wrap(err, "cds: ftp dial")
	}
	defer func() { _ = conn.Quit() }()

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		return eris.Wrap(err, "cds: ftp login")
	}

	resp, err := conn.Retr(remote)
	if err != nil {
		return eris.Wrapf(err, "cds: ftp retrieve %s", remote)
	}
	defer func() { _ = resp.Close() }()

	file, err := os.Create(outPath)
	if err != nil {
		return eris.Wrap(err, "cds: create output file")
	}
	defer func() { _ = file.Close() }()

	if _, err := io.Copy(file, resp); err != nil {
		return eris.Wrap(err, "cds: write output file")
	}
	return nil
}

func (c *FTPClient) split() (host, dir string, err error) {
	u, err := url.Parse(c.mirrorURL)
	if err != nil {
		return "", "", eris.Wrap(err, "cds: parse mirror url")
	}
	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}
	return host, u.Path, nil
}
