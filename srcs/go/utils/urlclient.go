package utils

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
)

func openHTTP(client *http.Client, url string, userAgent string) (io.ReadCloser, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.New(resp.Status)
	}
	return resp.Body, nil
}

var errUnsupportedURL = errors.New("unsupported URL")

// OpenURL opens a local path, a file:// URL or an http(s) URL.
func OpenURL(rawURL string, client *http.Client, userAgent string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "":
		return os.Open(rawURL)
	case "http", "https":
		return openHTTP(client, rawURL, userAgent)
	case "file":
		return os.Open(u.Path)
	}
	return nil, errUnsupportedURL
}
